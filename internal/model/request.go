package model

import (
	"fmt"
	"time"
)

// BorrowRequest is a requester's proposal to borrow an item.
type BorrowRequest struct {
	ID          string     `json:"id"`
	ItemID      string     `json:"item_id"`
	RequesterID string     `json:"requester_id"`
	OwnerID     string     `json:"owner_id"`
	Status      string     `json:"status"`
	Rating      int        `json:"rating"`
	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`

	// Joined fields.
	ItemName       string `json:"item_name"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	OwnerName      string `json:"owner_name"`
	OwnerEmail     string `json:"owner_email"`
}

// Request statuses. Rejected and cancelled requests are closed: they are kept
// for an item's history but no longer visible in the ledger.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusCompleted = "completed"
	RequestStatusCancelled = "cancelled"
)

// Urgency rating bounds.
const (
	MinUrgency     = 1
	MaxUrgency     = 5
	DefaultUrgency = 3
)

// Closed reports whether the request has left the live ledger.
func (r *BorrowRequest) Closed() bool {
	return r.Status == RequestStatusRejected || r.Status == RequestStatusCancelled
}

// ValidateUrgency normalizes a requester-supplied urgency rating.
func ValidateUrgency(rating int) (int, error) {
	if rating == 0 {
		return DefaultUrgency, nil
	}
	if rating < MinUrgency || rating > MaxUrgency {
		return 0, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, MinUrgency, MaxUrgency)
	}
	return rating, nil
}
