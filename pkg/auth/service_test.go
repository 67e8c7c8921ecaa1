package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/migrations"
	"github.com/Bervaline/Library-Management-System/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newTestDB(t), "test-secret")
}

func registerTestUser(ctx context.Context, t *testing.T, svc *Service, username string) *models.User {
	t.Helper()

	user, err := svc.Register(ctx, RegisterOptions{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		FullName: username,
		Phone:    "555-0100",
		Address:  "1 Library Way",
	})
	require.NoError(t, err)

	return user
}

func TestServiceRegister(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	user := registerTestUser(ctx, t, svc, "alice")

	assert.NotZero(t, user.ID)
	assert.False(t, user.IsStaff)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "password123", user.PasswordHash)

	// Registration creates the linked member profile in the same step.
	member := &models.Member{}
	err := svc.db.NewSelect().
		Model(member).
		Where("m.user_id = ?", user.ID).
		Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", member.Email)
}

func TestServiceRegister_DuplicateUsername(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	registerTestUser(ctx, t, svc, "alice")

	_, err := svc.Register(ctx, RegisterOptions{
		Username: "ALICE",
		Email:    "other@example.com",
		Password: "password123",
		FullName: "Alice Again",
	})
	require.Error(t, err)

	code := &errcodes.Error{}
	require.True(t, errors.As(err, &code))
	assert.Equal(t, "validation_error", code.Code)
}

func TestServiceAuthenticate(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	registerTestUser(ctx, t, svc, "alice")

	user, err := svc.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	// Username matching is case-insensitive; the password is not.
	_, err = svc.Authenticate(ctx, "ALICE", "password123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	require.Error(t, err)

	_, err = svc.Authenticate(ctx, "nobody", "password123")
	require.Error(t, err)
}

func TestServiceTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	user := registerTestUser(ctx, t, svc, "alice")

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = svc.ValidateToken("not-a-token")
	require.Error(t, err)

	otherSvc := NewService(svc.db, "different-secret")
	_, err = otherSvc.ValidateToken(token)
	require.Error(t, err)
}

func TestServiceCreateFirstStaff(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateFirstStaff(ctx, "admin", nil, "password123")
	require.NoError(t, err)
	assert.True(t, user.IsStaff)

	// Setup only works on an empty user table.
	_, err = svc.CreateFirstStaff(ctx, "admin2", nil, "password123")
	require.Error(t, err)

	count, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
