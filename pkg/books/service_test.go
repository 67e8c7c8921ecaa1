package books

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

func createTestBook(ctx context.Context, t *testing.T, svc *Service, title, author, isbn, category string, copies int) *models.Book {
	t.Helper()

	book := &models.Book{
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		PublishedDate:   "2020-01-01",
		AvailableCopies: copies,
		Category:        category,
	}
	require.NoError(t, svc.CreateBook(ctx, book))

	return book
}

func TestServiceCreateBook(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "Dune", "Frank Herbert", "9780441013593", models.CategoryFiction, 3)
	assert.NotZero(t, book.ID)
	assert.False(t, book.CreatedAt.IsZero())

	retrieved, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, "Dune", retrieved.Title)
	assert.Equal(t, 3, retrieved.AvailableCopies)
}

func TestServiceCreateBook_DuplicateISBN(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createTestBook(ctx, t, svc, "Dune", "Frank Herbert", "9780441013593", models.CategoryFiction, 3)

	err := svc.CreateBook(ctx, &models.Book{
		Title:           "Dune Reprint",
		Author:          "Frank Herbert",
		ISBN:            "9780441013593",
		PublishedDate:   "2021-01-01",
		AvailableCopies: 1,
		Category:        models.CategoryFiction,
	})
	require.Error(t, err)

	code := &errcodes.Error{}
	require.True(t, errors.As(err, &code))
	assert.Equal(t, "validation_error", code.Code)
}

func TestServiceRetrieveBook_ByISBN(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createTestBook(ctx, t, svc, "Dune", "Frank Herbert", "9780441013593", models.CategoryFiction, 3)

	isbn := "9780441013593"
	book, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ISBN: &isbn})
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)

	missing := "0000000000"
	_, err = svc.RetrieveBook(ctx, RetrieveBookOptions{ISBN: &missing})
	assert.True(t, errors.Is(err, errcodes.NotFound("Book")))
}

func TestServiceListBooks(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createTestBook(ctx, t, svc, "Dune", "Frank Herbert", "1", models.CategoryFiction, 3)
	createTestBook(ctx, t, svc, "Neuromancer", "William Gibson", "2", models.CategoryFiction, 0)
	createTestBook(ctx, t, svc, "Clean Code", "Robert Martin", "3", models.CategoryProgramming, 4)

	books, total, err := svc.ListBooksWithTotal(ctx, ListBooksOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, books, 3)

	category := models.CategoryFiction
	books, total, err = svc.ListBooksWithTotal(ctx, ListBooksOptions{Category: &category})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	books, err = svc.ListBooks(ctx, ListBooksOptions{Category: &category, AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	search := "gibson"
	books, err = svc.ListBooks(ctx, ListBooksOptions{Search: &search})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Neuromancer", books[0].Title)

	limit := 2
	offset := 2
	books, err = svc.ListBooks(ctx, ListBooksOptions{Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestServiceUpdateBook(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "Dune", "Frank Herbert", "1", models.CategoryFiction, 3)

	book.AvailableCopies = 7
	book.Title = "Dune (Anniversary Edition)"
	err := svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"available_copies"}})
	require.NoError(t, err)

	// Only the listed columns persist.
	retrieved, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, 7, retrieved.AvailableCopies)
	assert.Equal(t, "Dune", retrieved.Title)
}

func TestServiceUpdateBook_DuplicateISBN(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createTestBook(ctx, t, svc, "Dune", "Frank Herbert", "1", models.CategoryFiction, 3)
	book := createTestBook(ctx, t, svc, "Neuromancer", "William Gibson", "2", models.CategoryFiction, 2)

	book.ISBN = "1"
	err := svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"isbn"}})
	require.Error(t, err)

	code := &errcodes.Error{}
	require.True(t, errors.As(err, &code))
	assert.Equal(t, "validation_error", code.Code)
}

func TestServiceDeleteBook(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "Dune", "Frank Herbert", "1", models.CategoryFiction, 3)

	err := svc.DeleteBook(ctx, book.ID)
	require.NoError(t, err)

	_, err = svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	assert.True(t, errors.Is(err, errcodes.NotFound("Book")))

	err = svc.DeleteBook(ctx, book.ID)
	assert.True(t, errors.Is(err, errcodes.NotFound("Book")))
}
