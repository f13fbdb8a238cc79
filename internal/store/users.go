package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/borrow/internal/model"
)

const userColumns = `id, name, email, password_hash, role, rating, reviews,
	items_shared, items_borrowed, location, bio, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Rating, &u.Reviews,
		&u.ItemsShared, &u.ItemsBorrowed, &u.Location, &u.Bio, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.JoinedDate = model.JoinedDate(u.CreatedAt)
	return u, nil
}

// CreateUser creates a new user with zeroed reputation and default profile
// fields. A taken email returns model.ErrEmailAlreadyRegistered.
func CreateUser(ctx context.Context, db DBTX, name, email, passwordHash, role string) (*model.User, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, location, bio)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, model.NormalizeEmail(email), passwordHash, role, model.DefaultLocation, model.DefaultBio,
	)
	if isUniqueViolation(err) {
		return nil, model.ErrEmailAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db DBTX, id string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email, case-insensitively.
func GetUserByEmail(ctx context.Context, db DBTX, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, model.NormalizeEmail(email),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all users.
func ListUsers(ctx context.Context, db DBTX) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUserProfile updates a user's display fields and reports whether the
// user exists.
func UpdateUserProfile(ctx context.Context, db DBTX, id, name, location, bio string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET name = ?, location = ?, bio = ? WHERE id = ?`,
		name, location, bio, id,
	)
	if err != nil {
		return false, fmt.Errorf("updating user profile: %w", err)
	}
	n, err := affected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db DBTX, id, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// IncrementItemsShared bumps the counter shown on the owner's profile.
func IncrementItemsShared(ctx context.Context, db DBTX, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET items_shared = items_shared + 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("incrementing items shared: %w", err)
	}
	return nil
}

// IncrementItemsBorrowed bumps the counter shown on the borrower's profile.
func IncrementItemsBorrowed(ctx context.Context, db DBTX, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET items_borrowed = items_borrowed + 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("incrementing items borrowed: %w", err)
	}
	return nil
}
