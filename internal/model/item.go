package model

import (
	"fmt"
	"time"
)

// Item is a lendable object listed by its owner.
type Item struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Condition   string     `json:"condition"`
	Status      string     `json:"status"`
	OwnerID     string     `json:"owner_id"`
	Location    string     `json:"location"`
	Image       string     `json:"image,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	BorrowedBy  *string    `json:"borrowed_by,omitempty"`
	BorrowedAt  *time.Time `json:"borrowed_at,omitempty"`
	ReturnBy    *time.Time `json:"return_by,omitempty"`

	// LoanRequestID is the approved request that locked the item, if any.
	LoanRequestID *string `json:"loan_request_id,omitempty"`

	// Joined from the owner's user row on every read.
	OwnerName        string  `json:"owner_name"`
	OwnerEmail       string  `json:"owner_email"`
	OwnerRating      float64 `json:"owner_rating"`
	OwnerRatingCount int     `json:"owner_rating_count"`
}

// Item statuses.
const (
	ItemStatusAvailable = "available"
	ItemStatusBorrowed  = "borrowed"
)

// Item conditions.
const (
	ConditionLikeNew   = "Like New"
	ConditionExcellent = "Excellent"
	ConditionGood      = "Good"
	ConditionFair      = "Fair"
)

// CategoryAll is the search category that matches every item.
const CategoryAll = "all"

// ItemDraft holds the caller-supplied fields of a new item.
type ItemDraft struct {
	Name        string
	Description string
	Category    string
	Condition   string
	Location    string
	Image       string
	ReturnBy    *time.Time
}

// ItemPatch is a partial item update; nil fields are left untouched.
type ItemPatch struct {
	Name        *string
	Description *string
	Category    *string
	Condition   *string
	Location    *string
	Image       *string
}

// ValidCondition reports whether c is one of the known conditions.
func ValidCondition(c string) bool {
	switch c {
	case ConditionLikeNew, ConditionExcellent, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// Validate checks and normalizes a draft before it is stored.
func (d *ItemDraft) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if d.Category == "" {
		return fmt.Errorf("%w: category required", ErrInvalidInput)
	}
	if d.Condition == "" {
		d.Condition = ConditionGood
	}
	if !ValidCondition(d.Condition) {
		return fmt.Errorf("%w: invalid condition %q", ErrInvalidInput, d.Condition)
	}
	return nil
}

// Validate checks the fields a patch sets.
func (p *ItemPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if p.Category != nil && *p.Category == "" {
		return fmt.Errorf("%w: category cannot be empty", ErrInvalidInput)
	}
	if p.Condition != nil && !ValidCondition(*p.Condition) {
		return fmt.Errorf("%w: invalid condition %q", ErrInvalidInput, *p.Condition)
	}
	return nil
}
