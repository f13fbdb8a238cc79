package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/borrow/internal/model"
	"github.com/erazemk/borrow/internal/store"
)

// Redirect targets returned alongside session changes.
const (
	RedirectAfterLogin  = "/dashboard"
	RedirectAfterLogout = "/"
)

// Session is an issued token together with the user it belongs to.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Identity owns user accounts and session tokens.
type Identity struct {
	db     *sql.DB
	secret string
	ttl    time.Duration
	cost   int
}

// NewIdentity returns an Identity that signs tokens with secret.
func NewIdentity(db *sql.DB, secret string, ttl time.Duration) *Identity {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Identity{db: db, secret: secret, ttl: ttl, cost: bcrypt.DefaultCost}
}

// HashPassword hashes a password with the identity's bcrypt cost.
func (id *Identity) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), id.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Login checks an email and password pair and issues a session. Unknown
// emails and wrong passwords both return model.ErrInvalidCredentials.
func (id *Identity) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := store.GetUserByEmail(ctx, id.db, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		slog.Warn("login failed", "email", model.NormalizeEmail(email), "reason", "unknown email")
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login failed", "email", user.Email, "reason", "wrong password")
		return nil, model.ErrInvalidCredentials
	}

	session, err := id.issue(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "user", user.Email, "role", user.Role)
	return session, nil
}

// Signup creates a regular user and issues a session.
func (id *Identity) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", model.ErrInvalidInput)
	}
	if err := model.ValidateEmail(model.NormalizeEmail(email)); err != nil {
		return nil, err
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := id.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := store.CreateUser(ctx, id.db, name, email, hash, model.RoleUser)
	if err != nil {
		return nil, err
	}

	session, err := id.issue(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user signed up", "user", user.Email)
	return session, nil
}

// Logout revokes a session token. Revoking twice, or a token that cannot be
// parsed, is a no-op.
func (id *Identity) Logout(ctx context.Context, token string) error {
	claims, err := ValidateToken(id.secret, token)
	if err != nil {
		return nil
	}

	if err := store.RevokeToken(ctx, id.db, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}

	slog.Info("user logged out", "user", claims.Email)
	return nil
}

// CurrentUser resolves a token to its user. Absent, malformed, expired and
// revoked tokens, and tokens whose user is gone, all yield nil without error.
func (id *Identity) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := ValidateToken(id.secret, token)
	if err != nil {
		return nil, nil
	}

	revoked, err := store.IsTokenRevoked(ctx, id.db, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, nil
	}

	return store.GetUser(ctx, id.db, claims.UserID)
}

// IsAuthenticated reports whether token resolves to a user.
func (id *Identity) IsAuthenticated(ctx context.Context, token string) bool {
	user, err := id.CurrentUser(ctx, token)
	return err == nil && user != nil
}

// GetUser returns a user's public profile.
func (id *Identity) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := store.GetUser(ctx, id.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns every account.
func (id *Identity) ListUsers(ctx context.Context) ([]model.User, error) {
	return store.ListUsers(ctx, id.db)
}

// ChangePassword replaces a user's password after checking the current one.
func (id *Identity) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := id.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return model.ErrInvalidCredentials
	}
	if err := model.ValidatePassword(next); err != nil {
		return err
	}

	hash, err := id.HashPassword(next)
	if err != nil {
		return err
	}
	if err := store.UpdateUserPassword(ctx, id.db, userID, hash); err != nil {
		return err
	}

	slog.Info("user changed own password", "user", user.Email)
	return nil
}

// UpdateProfile changes a user's display name, location and bio. Empty
// location and bio fall back to the defaults.
func (id *Identity) UpdateProfile(ctx context.Context, userID, name, location, bio string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", model.ErrInvalidInput)
	}
	if strings.TrimSpace(location) == "" {
		location = model.DefaultLocation
	}
	if strings.TrimSpace(bio) == "" {
		bio = model.DefaultBio
	}

	ok, err := store.UpdateUserProfile(ctx, id.db, userID, name, location, bio)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return id.GetUser(ctx, userID)
}

// EnsureAdmin creates an admin account. It returns nil without error when an
// account with that email already exists.
func (id *Identity) EnsureAdmin(ctx context.Context, name, email, password string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if err := model.ValidateEmail(email); err != nil {
		return nil, err
	}
	hash, err := id.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user, err := store.CreateUser(ctx, id.db, name, email, hash, model.RoleAdmin)
	if errors.Is(err, model.ErrEmailAlreadyRegistered) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating admin: %w", err)
	}
	return user, nil
}

func (id *Identity) issue(user *model.User) (*Session, error) {
	token, err := GenerateToken(id.secret, id.ttl, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}
