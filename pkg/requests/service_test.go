package requests

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/loans"
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

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestService(t *testing.T) (*Service, *loans.Service, *bun.DB) {
	t.Helper()

	db := newTestDB(t)
	loanService := loans.NewService(db)
	return NewService(db, loanService), loanService, db
}

func createTestBook(ctx context.Context, t *testing.T, db *bun.DB, title string, copies int) *models.Book {
	t.Helper()

	book := &models.Book{
		Title:           title,
		Author:          "Test Author",
		ISBN:            "isbn-" + title,
		PublishedDate:   "2020-01-01",
		AvailableCopies: copies,
		Category:        models.CategoryFiction,
	}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	return book
}

func createTestMember(ctx context.Context, t *testing.T, db *bun.DB, name string) *models.Member {
	t.Helper()

	member := &models.Member{
		FullName:   name,
		Email:      name + "@example.com",
		Phone:      "555-0100",
		Address:    "1 Library Way",
		DateJoined: time.Now(),
	}
	_, err := db.NewInsert().Model(member).Exec(ctx)
	require.NoError(t, err)

	return member
}

func TestServiceSubmit(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	book := createTestBook(ctx, t, db, "Dune", 2)
	member := createTestMember(ctx, t, db, "alice")

	request, err := svc.Submit(ctx, member.ID, book.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusPending, request.Status)
	assert.Equal(t, member.ID, request.MemberID)
	assert.Equal(t, book.ID, request.BookID)
	assert.Nil(t, request.AdminNotes)
}

func TestServiceSubmit_Guards(t *testing.T) {
	t.Parallel()

	svc, loanService, db := newTestService(t)
	ctx := context.Background()

	unavailable := createTestBook(ctx, t, db, "Out of Stock", 0)
	dune := createTestBook(ctx, t, db, "Dune", 3)
	member := createTestMember(ctx, t, db, "alice")

	_, err := svc.Submit(ctx, member.ID, unavailable.ID)
	assert.True(t, errors.Is(err, errcodes.BookUnavailable("Out of Stock")))

	_, err = svc.Submit(ctx, member.ID, 9999)
	assert.True(t, errors.Is(err, errcodes.NotFound("Book")))

	_, err = svc.Submit(ctx, 9999, dune.ID)
	assert.True(t, errors.Is(err, errcodes.NotFound("Member")))

	_, err = loanService.Issue(ctx, loans.IssueOptions{MemberID: member.ID, BookID: dune.ID})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, member.ID, dune.ID)
	assert.True(t, errors.Is(err, errcodes.DuplicateLoan("Dune")))
}

func TestServiceSubmit_DuplicatePending(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	book := createTestBook(ctx, t, db, "Dune", 2)
	member := createTestMember(ctx, t, db, "alice")

	_, err := svc.Submit(ctx, member.ID, book.ID)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, member.ID, book.ID)
	assert.True(t, errors.Is(err, errcodes.DuplicateRequest("Dune")))
}

func TestServiceApprove(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	book := createTestBook(ctx, t, db, "Dune", 1)
	member := createTestMember(ctx, t, db, "alice")

	request, err := svc.Submit(ctx, member.ID, book.ID)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, approved.Status)

	// Approval issues the loan and keeps the back-reference.
	transaction := &models.Transaction{}
	err = db.NewSelect().
		Model(transaction).
		Where("t.member_id = ?", member.ID).
		Where("t.book_id = ?", book.ID).
		Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusIssued, transaction.Status)
	require.NotNil(t, transaction.BookRequestID)
	assert.Equal(t, request.ID, *transaction.BookRequestID)

	updated := &models.Book{}
	err = db.NewSelect().Model(updated).Where("b.id = ?", book.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.AvailableCopies)
}

func TestServiceApprove_AutoReject(t *testing.T) {
	t.Parallel()

	svc, loanService, db := newTestService(t)
	ctx := context.Background()

	book := createTestBook(ctx, t, db, "Last Copy", 1)
	alice := createTestMember(ctx, t, db, "alice")
	bob := createTestMember(ctx, t, db, "bob")

	request, err := svc.Submit(ctx, alice.ID, book.ID)
	require.NoError(t, err)

	// The last copy goes out while the request waits in the queue.
	_, err = loanService.Issue(ctx, loans.IssueOptions{MemberID: bob.ID, BookID: book.ID})
	require.NoError(t, err)

	resolved, err := svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusRejected, resolved.Status)
	require.NotNil(t, resolved.AdminNotes)
	assert.Contains(t, *resolved.AdminNotes, "Auto-rejected")
}

func TestServiceApprove_AutoRejectDuplicateLoan(t *testing.T) {
	t.Parallel()

	svc, loanService, db := newTestService(t)
	ctx := context.Background()

	book := createTestBook(ctx, t, db, "Dune", 3)
	alice := createTestMember(ctx, t, db, "alice")

	request, err := svc.Submit(ctx, alice.ID, book.ID)
	require.NoError(t, err)

	// Alice gets the book over the counter before the queue is processed.
	_, err = loanService.Issue(ctx, loans.IssueOptions{MemberID: alice.ID, BookID: book.ID})
	require.NoError(t, err)

	resolved, err := svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusRejected, resolved.Status)
	require.NotNil(t, resolved.AdminNotes)
	assert.Contains(t, *resolved.AdminNotes, "already has")

	// Only the counter loan exists.
	count, err := db.NewSelect().Model((*models.Transaction)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestServiceApprove_AlreadyProcessed(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	book := createTestBook(ctx, t, db, "Dune", 2)
	member := createTestMember(ctx, t, db, "alice")

	request, err := svc.Submit(ctx, member.ID, book.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID)
	assert.True(t, errors.Is(err, errcodes.AlreadyProcessed(models.RequestStatusApproved)))
}

func TestServiceReject(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	book := createTestBook(ctx, t, db, "Dune", 2)
	member := createTestMember(ctx, t, db, "alice")

	request, err := svc.Submit(ctx, member.ID, book.ID)
	require.NoError(t, err)

	notes := "No longer in circulation"
	rejected, err := svc.Reject(ctx, request.ID, &notes)
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusRejected, rejected.Status)
	require.NotNil(t, rejected.AdminNotes)
	assert.Equal(t, notes, *rejected.AdminNotes)

	// Rejection must not touch stock.
	updated := &models.Book{}
	err = db.NewSelect().Model(updated).Where("b.id = ?", book.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.AvailableCopies)

	_, err = svc.Reject(ctx, request.ID, nil)
	assert.True(t, errors.Is(err, errcodes.AlreadyProcessed(models.RequestStatusRejected)))
}

func TestServiceDeleteRequest_KeepsTransaction(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	book := createTestBook(ctx, t, db, "Dune", 2)
	member := createTestMember(ctx, t, db, "alice")

	request, err := svc.Submit(ctx, member.ID, book.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	err = svc.DeleteRequest(ctx, request.ID)
	require.NoError(t, err)

	// The issued transaction survives with its back-reference cleared.
	transaction := &models.Transaction{}
	err = db.NewSelect().
		Model(transaction).
		Where("t.member_id = ?", member.ID).
		Where("t.book_id = ?", book.ID).
		Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusIssued, transaction.Status)
	assert.Nil(t, transaction.BookRequestID)

	err = svc.DeleteRequest(ctx, request.ID)
	assert.True(t, errors.Is(err, errcodes.NotFound("Request")))
}

func TestServiceListRequests(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	dune := createTestBook(ctx, t, db, "Dune", 2)
	hobbit := createTestBook(ctx, t, db, "The Hobbit", 2)
	alice := createTestMember(ctx, t, db, "alice")
	bob := createTestMember(ctx, t, db, "bob")

	first, err := svc.Submit(ctx, alice.ID, dune.ID)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, bob.ID, hobbit.ID)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, first.ID, nil)
	require.NoError(t, err)

	requests, total, err := svc.ListRequestsWithTotal(ctx, ListRequestsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, requests, 2)
	require.NotNil(t, requests[0].Member)
	require.NotNil(t, requests[0].Book)

	pending := models.RequestStatusPending
	requests, err = svc.ListRequests(ctx, ListRequestsOptions{Status: &pending})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, hobbit.ID, requests[0].BookID)

	requests, err = svc.ListRequests(ctx, ListRequestsOptions{MemberID: &alice.ID})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, alice.ID, requests[0].MemberID)
}
