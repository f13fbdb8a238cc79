package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/borrow/internal/db"
	"github.com/erazemk/borrow/internal/model"
)

func newTestIdentity(t *testing.T) *Identity {
	t.Helper()
	id := NewIdentity(db.NewTestDB(t), "test-secret", time.Hour)
	id.cost = bcrypt.MinCost
	return id
}

func TestSignupThenLogin(t *testing.T) {
	id := newTestIdentity(t)
	ctx := context.Background()

	signup, err := id.Signup(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, signup.Token)
	assert.Equal(t, "Alice", signup.User.Name)
	assert.Equal(t, model.RoleUser, signup.User.Role)
	assert.Equal(t, model.DefaultLocation, signup.User.Location)
	assert.Zero(t, signup.User.Rating)

	login, err := id.Login(ctx, "ALICE@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, login.User.ID)
	assert.NotEqual(t, signup.Token, login.Token)
}

func TestLoginInvalidCredentials(t *testing.T) {
	id := newTestIdentity(t)
	ctx := context.Background()

	_, err := id.Signup(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = id.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = id.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestSignupDuplicateEmail(t *testing.T) {
	id := newTestIdentity(t)
	ctx := context.Background()

	first, err := id.Signup(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = id.Signup(ctx, "Mallory", "alice@example.com", "other-password")
	require.ErrorIs(t, err, model.ErrEmailAlreadyRegistered)

	// The original account still logs in with its own password.
	login, err := id.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, login.User.ID)
	assert.Equal(t, "Alice", login.User.Name)
}

func TestSignupValidation(t *testing.T) {
	id := newTestIdentity(t)
	ctx := context.Background()

	tests := []struct {
		name, email, password string
	}{
		{"", "a@example.com", "password123"},
		{"Alice", "not-an-email", "password123"},
		{"Alice", "a@example.com", "short"},
	}
	for _, tt := range tests {
		_, err := id.Signup(ctx, tt.name, tt.email, tt.password)
		assert.ErrorIs(t, err, model.ErrInvalidInput, "signup(%q, %q)", tt.name, tt.email)
	}
}

func TestCurrentUserAndLogout(t *testing.T) {
	id := newTestIdentity(t)
	ctx := context.Background()

	session, err := id.Signup(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	user, err := id.CurrentUser(ctx, session.Token)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, session.User.ID, user.ID)
	assert.True(t, id.IsAuthenticated(ctx, session.Token))

	require.NoError(t, id.Logout(ctx, session.Token))
	require.NoError(t, id.Logout(ctx, session.Token), "logout is idempotent")

	user, err = id.CurrentUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.False(t, id.IsAuthenticated(ctx, session.Token))
}

func TestCurrentUserDegradesToNoSession(t *testing.T) {
	id := newTestIdentity(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		user, err := id.CurrentUser(ctx, token)
		assert.NoError(t, err)
		assert.Nil(t, user)
	}

	// A well-signed token for a user that does not exist.
	orphan, err := GenerateToken("test-secret", time.Hour, "missing", "ghost@example.com", model.RoleUser)
	require.NoError(t, err)
	user, err := id.CurrentUser(ctx, orphan)
	assert.NoError(t, err)
	assert.Nil(t, user)

	// Logging out with a malformed token is a no-op.
	assert.NoError(t, id.Logout(ctx, "garbage"))
}

func TestChangePassword(t *testing.T) {
	id := newTestIdentity(t)
	ctx := context.Background()

	session, err := id.Signup(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	err = id.ChangePassword(ctx, session.User.ID, "wrong", "new-password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	err = id.ChangePassword(ctx, session.User.ID, "password123", "short")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	require.NoError(t, id.ChangePassword(ctx, session.User.ID, "password123", "new-password"))

	_, err = id.Login(ctx, "alice@example.com", "password123")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = id.Login(ctx, "alice@example.com", "new-password")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	id := newTestIdentity(t)
	ctx := context.Background()

	session, err := id.Signup(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	user, err := id.UpdateProfile(ctx, session.User.ID, "Alice B", "Maribor", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", user.Name)
	assert.Equal(t, "Maribor", user.Location)
	assert.Equal(t, model.DefaultBio, user.Bio)

	_, err = id.UpdateProfile(ctx, session.User.ID, " ", "", "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = id.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	id := newTestIdentity(t)
	ctx := context.Background()

	admin, err := id.EnsureAdmin(ctx, "Administrator", "admin@borrow.local", "generated-pass")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	again, err := id.EnsureAdmin(ctx, "Administrator", "admin@borrow.local", "other")
	require.NoError(t, err)
	assert.Nil(t, again)

	_, err = id.EnsureAdmin(ctx, "Administrator", "not an email", "generated-pass")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
