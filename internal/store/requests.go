package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/borrow/internal/model"
)

const requestSelect = `SELECT r.id, r.item_id, r.requester_id, r.owner_id, r.status, r.rating,
	r.created_at, r.approved_at, r.completed_at, r.closed_at,
	i.name, rq.name, rq.email, o.name, o.email
	FROM requests r
	JOIN items i ON i.id = r.item_id
	JOIN users rq ON rq.id = r.requester_id
	JOIN users o ON o.id = r.owner_id`

// liveClause excludes rejected and cancelled requests.
const liveClause = "r.status IN ('pending', 'approved', 'completed')"

func scanRequest(row interface{ Scan(...any) error }) (*model.BorrowRequest, error) {
	r := &model.BorrowRequest{}
	err := row.Scan(&r.ID, &r.ItemID, &r.RequesterID, &r.OwnerID, &r.Status, &r.Rating,
		&r.CreatedAt, &r.ApprovedAt, &r.CompletedAt, &r.ClosedAt,
		&r.ItemName, &r.RequesterName, &r.RequesterEmail, &r.OwnerName, &r.OwnerEmail)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func scanRequests(rows *sql.Rows) ([]model.BorrowRequest, error) {
	var requests []model.BorrowRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// RequestFilter narrows ListRequests. Zero values match everything.
type RequestFilter struct {
	OwnerID     string
	RequesterID string
	ItemID      string
	Status      string
}

// RequestDraft holds the fields of a new request.
type RequestDraft struct {
	ItemID      string
	RequesterID string
	OwnerID     string
	Rating      int
}

// CreateRequest records a pending request. A second pending request for the
// same item and requester returns model.ErrDuplicatePending.
func CreateRequest(ctx context.Context, db DBTX, draft RequestDraft) (*model.BorrowRequest, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO requests (id, item_id, requester_id, owner_id, status, rating)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, draft.ItemID, draft.RequesterID, draft.OwnerID, model.RequestStatusPending, draft.Rating,
	)
	if isUniqueViolation(err) {
		return nil, model.ErrDuplicatePending
	}
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return GetRequest(ctx, db, id)
}

// GetRequest returns a live request by ID. Closed requests are not returned.
func GetRequest(ctx context.Context, db DBTX, id string) (*model.BorrowRequest, error) {
	r, err := scanRequest(db.QueryRowContext(ctx,
		requestSelect+` WHERE r.id = ? AND `+liveClause, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	return r, nil
}

// ListRequests returns live requests matching the filter, oldest first.
func ListRequests(ctx context.Context, db DBTX, filter RequestFilter) ([]model.BorrowRequest, error) {
	clauses := []string{liveClause}
	var args []any
	if filter.OwnerID != "" {
		clauses = append(clauses, "r.owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.RequesterID != "" {
		clauses = append(clauses, "r.requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.ItemID != "" {
		clauses = append(clauses, "r.item_id = ?")
		args = append(args, filter.ItemID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "r.status = ?")
		args = append(args, filter.Status)
	}

	rows, err := db.QueryContext(ctx,
		requestSelect+` WHERE `+strings.Join(clauses, " AND ")+` ORDER BY r.id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// ListRequestHistory returns every request ever made for an item, closed
// ones included.
func ListRequestHistory(ctx context.Context, db DBTX, itemID string) ([]model.BorrowRequest, error) {
	rows, err := db.QueryContext(ctx,
		requestSelect+` WHERE r.item_id = ? ORDER BY r.id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing request history: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// CountPendingForOwner counts pending requests awaiting ownerID.
func CountPendingForOwner(ctx context.Context, db DBTX, ownerID string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM requests WHERE owner_id = ? AND status = 'pending'`, ownerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pending requests: %w", err)
	}
	return count, nil
}

// HasOpenLoan reports whether an item has an approved, uncompleted request.
func HasOpenLoan(ctx context.Context, db DBTX, itemID string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM requests WHERE item_id = ? AND status = 'approved'`, itemID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking open loans: %w", err)
	}
	return count > 0, nil
}

// transition moves a request to status when its current status is one of
// from, and reports whether it moved.
func transition(ctx context.Context, db DBTX, id, status, stamp string, from ...string) (bool, error) {
	query := `UPDATE requests SET status = ?, ` + stamp + ` = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (` + strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ") + `)`
	args := []any{status, id}
	for _, s := range from {
		args = append(args, s)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("updating request status: %w", err)
	}
	n, err := affected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ApproveRequest moves a pending request to approved. It does not touch the
// item.
func ApproveRequest(ctx context.Context, db DBTX, id string) (bool, error) {
	return transition(ctx, db, id, model.RequestStatusApproved, "approved_at",
		model.RequestStatusPending)
}

// RejectRequest closes a pending or approved request as rejected.
func RejectRequest(ctx context.Context, db DBTX, id string) (bool, error) {
	return transition(ctx, db, id, model.RequestStatusRejected, "closed_at",
		model.RequestStatusPending, model.RequestStatusApproved)
}

// CompleteRequest marks a pending or approved request completed. A completed
// request keeps its original completed_at.
func CompleteRequest(ctx context.Context, db DBTX, id string) (bool, error) {
	return transition(ctx, db, id, model.RequestStatusCompleted, "completed_at",
		model.RequestStatusPending, model.RequestStatusApproved)
}

// CancelRequest closes a pending request as cancelled.
func CancelRequest(ctx context.Context, db DBTX, id string) (bool, error) {
	return transition(ctx, db, id, model.RequestStatusCancelled, "closed_at",
		model.RequestStatusPending)
}

// CancelPendingForItem closes every pending request for an item and returns
// how many were cancelled.
func CancelPendingForItem(ctx context.Context, db DBTX, itemID string) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE requests SET status = 'cancelled', closed_at = CURRENT_TIMESTAMP
		 WHERE item_id = ? AND status = 'pending'`, itemID,
	)
	if err != nil {
		return 0, fmt.Errorf("cancelling pending requests: %w", err)
	}
	return affected(result)
}
