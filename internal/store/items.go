package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/borrow/internal/model"
)

const itemSelect = `SELECT i.id, i.name, i.description, i.category, i.condition, i.status,
	i.owner_id, i.location, i.image, i.created_at, i.updated_at,
	i.borrowed_by, i.borrowed_at, i.return_by, i.loan_request_id,
	u.name, u.email, u.rating, u.reviews
	FROM items i
	JOIN users u ON u.id = i.owner_id`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	item := &model.Item{}
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Category, &item.Condition, &item.Status,
		&item.OwnerID, &item.Location, &item.Image, &item.CreatedAt, &item.UpdatedAt,
		&item.BorrowedBy, &item.BorrowedAt, &item.ReturnBy, &item.LoanRequestID,
		&item.OwnerName, &item.OwnerEmail, &item.OwnerRating, &item.OwnerRatingCount)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	OwnerID        string
	ExcludeOwnerID string
	Status         string
	Category       string
	// Query is matched case-insensitively against name and description.
	Query string
}

func (f ItemFilter) where() (string, []any) {
	var clauses []string
	var args []any

	if f.OwnerID != "" {
		clauses = append(clauses, "i.owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.ExcludeOwnerID != "" {
		clauses = append(clauses, "i.owner_id <> ?")
		args = append(args, f.ExcludeOwnerID)
	}
	if f.Status != "" {
		clauses = append(clauses, "i.status = ?")
		args = append(args, f.Status)
	}
	if f.Category != "" && f.Category != model.CategoryAll {
		clauses = append(clauses, "i.category = ?")
		args = append(args, f.Category)
	}
	if f.Query != "" {
		clauses = append(clauses, "(instr(lower(i.name), lower(?)) > 0 OR instr(lower(i.description), lower(?)) > 0)")
		args = append(args, f.Query, f.Query)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// CreateItem creates a new available item owned by ownerID.
func CreateItem(ctx context.Context, db DBTX, ownerID string, draft model.ItemDraft) (*model.Item, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO items (id, owner_id, name, description, category, condition, status, location, image, return_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, draft.Name, draft.Description, draft.Category, draft.Condition,
		model.ItemStatusAvailable, draft.Location, draft.Image, draft.ReturnBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID with its owner snapshot.
func GetItem(ctx context.Context, db DBTX, id string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx, itemSelect+` WHERE i.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the filter, oldest first.
func ListItems(ctx context.Context, db DBTX, filter ItemFilter) ([]model.Item, error) {
	where, args := filter.where()
	rows, err := db.QueryContext(ctx, itemSelect+where+` ORDER BY i.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListItemsByOwner returns every item owned by ownerID.
func ListItemsByOwner(ctx context.Context, db DBTX, ownerID string) ([]model.Item, error) {
	return ListItems(ctx, db, ItemFilter{OwnerID: ownerID})
}

// SearchItems matches query against name and description and filters by
// exact category. An empty query or the "all" category matches everything.
func SearchItems(ctx context.Context, db DBTX, query, category string) ([]model.Item, error) {
	return ListItems(ctx, db, ItemFilter{Query: query, Category: category})
}

// UpdateItem applies the non-nil fields of patch and returns the updated
// item, or nil if it does not exist.
func UpdateItem(ctx context.Context, db DBTX, id string, patch model.ItemPatch) (*model.Item, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any

	set := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}
	set("name", patch.Name)
	set("description", patch.Description)
	set("category", patch.Category)
	set("condition", patch.Condition)
	set("location", patch.Location)
	set("image", patch.Image)

	args = append(args, id)
	_, err := db.ExecContext(ctx,
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// DeleteItem removes an item and reports whether it existed. Its requests
// are removed by the foreign key cascade.
func DeleteItem(ctx context.Context, db DBTX, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := affected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ToggleItemStatus flips an item between available and borrowed and returns
// it, or nil if it does not exist. Returning an item to available clears its
// loan fields.
func ToggleItemStatus(ctx context.Context, db DBTX, id string) (*model.Item, error) {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET
		   status = CASE status WHEN 'available' THEN 'borrowed' ELSE 'available' END,
		   borrowed_by = CASE status WHEN 'available' THEN borrowed_by ELSE NULL END,
		   borrowed_at = CASE status WHEN 'available' THEN CURRENT_TIMESTAMP ELSE NULL END,
		   loan_request_id = CASE status WHEN 'available' THEN loan_request_id ELSE NULL END,
		   updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggling item status: %w", err)
	}

	return GetItem(ctx, db, id)
}

// LockItem marks an available item as borrowed by borrowerID under the
// approved request requestID. It reports false when the item is missing or
// already borrowed.
func LockItem(ctx context.Context, db DBTX, id, borrowerID, requestID string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = 'borrowed', borrowed_by = ?, borrowed_at = CURRENT_TIMESTAMP,
		   loan_request_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'available'`,
		borrowerID, requestID, id,
	)
	if err != nil {
		return false, fmt.Errorf("locking item: %w", err)
	}
	n, err := affected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReleaseLoan returns an item to available if it is locked by requestID and
// reports whether it changed. Loans started by other requests and manual
// toggles are left alone.
func ReleaseLoan(ctx context.Context, db DBTX, id, requestID string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = 'available', borrowed_by = NULL, borrowed_at = NULL,
		   return_by = NULL, loan_request_id = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'borrowed' AND loan_request_id = ?`,
		id, requestID,
	)
	if err != nil {
		return false, fmt.Errorf("releasing item: %w", err)
	}
	n, err := affected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
