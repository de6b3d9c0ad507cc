package database

import (
	"context"
	"testing"

	"zoombook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func createTestUser(t *testing.T, db *DB, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Role:         role,
	}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func TestCreateUserDuplicate(t *testing.T) {
	db := newTestDB(t)

	createTestUser(t, db, "ivan", models.RoleUser)

	dup := &models.User{Username: "ivan", PasswordHash: "x", Role: models.RoleUser}
	assert.ErrorIs(t, db.CreateUser(context.Background(), dup), ErrDuplicateUsername)
}

func TestGetUserByUsername(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := createTestUser(t, db, "ivan", models.RoleUser)

	got, err := db.GetUserByUsername(ctx, "ivan")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Empty(t, got.ActiveSessionToken)

	_, err = db.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionTokenLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "ivan", models.RoleUser)

	require.NoError(t, db.SetSessionToken(ctx, user.ID, "token-1"))
	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "token-1", got.ActiveSessionToken)

	// A second login overwrites the first token
	require.NoError(t, db.SetSessionToken(ctx, user.ID, "token-2"))
	got, err = db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "token-2", got.ActiveSessionToken)

	require.NoError(t, db.ClearSessionToken(ctx, user.ID))
	got, err = db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ActiveSessionToken)
}

func TestUpdateUserPasswordRotatesToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "ivan", models.RoleUser)
	require.NoError(t, db.SetSessionToken(ctx, user.ID, "old-token"))

	require.NoError(t, db.UpdateUserPassword(ctx, user.ID, "new-hash", "rotated-token"))

	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, "rotated-token", got.ActiveSessionToken)
}

func TestRenameUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "ivan", models.RoleUser)
	createTestUser(t, db, "maria", models.RoleUser)

	require.NoError(t, db.RenameUser(ctx, user.ID, "ivan2"))
	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ivan2", got.Username)

	assert.ErrorIs(t, db.RenameUser(ctx, user.ID, "maria"), ErrDuplicateUsername)
	assert.ErrorIs(t, db.RenameUser(ctx, 999, "ghost"), ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "ivan", models.RoleUser)
	require.NoError(t, db.DeleteUser(ctx, user.ID))

	_, err := db.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUsersOrdering(t *testing.T) {
	db := newTestDB(t)

	createTestUser(t, db, "zoya", models.RoleUser)
	createTestUser(t, db, "anna", models.RoleAdmin)

	users, err := db.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "anna", users[0].Username)
	assert.Equal(t, "zoya", users[1].Username)
}

func TestEnsureAdmin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.EnsureAdmin(ctx, "admin", "secret"))

	admin, err := db.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("secret")))

	// Second call must not touch the existing account
	require.NoError(t, db.EnsureAdmin(ctx, "admin", "different"))
	again, err := db.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, admin.PasswordHash, again.PasswordHash)
}
