package model

import "errors"

// Domain errors. Handlers map these to HTTP statuses with errors.Is.
var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUserNotFound           = errors.New("user not found")
	ErrItemNotFound           = errors.New("item not found")
	ErrRequestNotFound        = errors.New("request not found")
	ErrDuplicatePending       = errors.New("you already have a pending request for this item")
	ErrNotPending             = errors.New("request is not pending")
	ErrAlreadyCompleted       = errors.New("request is already completed")
	ErrItemUnavailable        = errors.New("item is not available")
	ErrItemOnLoan             = errors.New("item has an active loan")
	ErrOwnItem                = errors.New("cannot request your own item")
	ErrForbidden              = errors.New("insufficient permissions")
	ErrInvalidInput           = errors.New("invalid input")
)
