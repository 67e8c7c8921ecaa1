package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

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

func createTestMember(ctx context.Context, t *testing.T, svc *Service, name, email string) *models.Member {
	t.Helper()

	member := &models.Member{
		FullName:   name,
		Email:      email,
		Phone:      "555-0100",
		Address:    "1 Library Way",
		DateJoined: time.Now(),
	}
	require.NoError(t, svc.CreateMember(ctx, member))

	return member
}

func createTestUser(ctx context.Context, t *testing.T, db *bun.DB, username string, email *string) *models.User {
	t.Helper()

	now := time.Now()
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	return user
}

func TestServiceCreateMember(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	member := createTestMember(ctx, t, svc, "Alice Smith", "alice@example.com")
	assert.NotZero(t, member.ID)

	retrieved, err := svc.RetrieveMember(ctx, RetrieveMemberOptions{ID: &member.ID})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", retrieved.FullName)
}

func TestServiceCreateMember_DuplicateEmail(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createTestMember(ctx, t, svc, "Alice Smith", "alice@example.com")

	// Email uniqueness is case-insensitive.
	err := svc.CreateMember(ctx, &models.Member{
		FullName:   "Alice Clone",
		Email:      "ALICE@example.com",
		Phone:      "555-0101",
		Address:    "2 Library Way",
		DateJoined: time.Now(),
	})
	require.Error(t, err)

	code := &errcodes.Error{}
	require.True(t, errors.As(err, &code))
	assert.Equal(t, "validation_error", code.Code)
}

func TestServiceListMembers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createTestMember(ctx, t, svc, "Alice Smith", "alice@example.com")
	createTestMember(ctx, t, svc, "Bob Jones", "bob@example.com")

	members, total, err := svc.ListMembersWithTotal(ctx, ListMembersOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, members, 2)

	search := "bob"
	members, err = svc.ListMembers(ctx, ListMembersOptions{Search: &search})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Bob Jones", members[0].FullName)
}

func TestServiceUpdateMember(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	member := createTestMember(ctx, t, svc, "Alice Smith", "alice@example.com")

	member.Phone = "555-9999"
	err := svc.UpdateMember(ctx, member, UpdateMemberOptions{Columns: []string{"phone"}})
	require.NoError(t, err)

	retrieved, err := svc.RetrieveMember(ctx, RetrieveMemberOptions{ID: &member.ID})
	require.NoError(t, err)
	assert.Equal(t, "555-9999", retrieved.Phone)
}

func TestServiceDeleteMember(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	member := createTestMember(ctx, t, svc, "Alice Smith", "alice@example.com")

	err := svc.DeleteMember(ctx, member.ID)
	require.NoError(t, err)

	_, err = svc.RetrieveMember(ctx, RetrieveMemberOptions{ID: &member.ID})
	assert.True(t, errors.Is(err, errcodes.NotFound("Member")))

	err = svc.DeleteMember(ctx, member.ID)
	assert.True(t, errors.Is(err, errcodes.NotFound("Member")))
}

func TestServiceGetOrCreateForUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	email := "carol@example.com"
	user := createTestUser(ctx, t, db, "carol", &email)

	member, err := svc.GetOrCreateForUser(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, member.UserID)
	assert.Equal(t, user.ID, *member.UserID)
	assert.Equal(t, "carol", member.FullName)
	assert.Equal(t, "carol@example.com", member.Email)
	assert.Equal(t, "Not provided", member.Phone)

	// The second call finds the same record instead of creating another.
	again, err := svc.GetOrCreateForUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, member.ID, again.ID)
}

func TestServiceGetOrCreateForUser_NoEmail(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "Dave", nil)

	member, err := svc.GetOrCreateForUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "dave@library.local", member.Email)
}

func TestServiceGetOrCreateForUser_EmailCollision(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createTestMember(ctx, t, svc, "Existing Eve", "eve@library.local")
	user := createTestUser(ctx, t, db, "eve", nil)

	member, err := svc.GetOrCreateForUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("eve_%d@library.local", user.ID), member.Email)
}
