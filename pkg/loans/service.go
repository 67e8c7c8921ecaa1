package loans

import (
	"context"
	"database/sql"
	"time"

	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type IssueOptions struct {
	MemberID      int
	BookID        int
	BookRequestID *int
}

type RetrieveTransactionOptions struct {
	ID *int
}

type ListTransactionsOptions struct {
	Limit    *int
	Offset   *int
	Search   *string
	Status   *string
	MemberID *int
	BookID   *int

	includeTotal bool
}

// Service is the inventory ledger. Every stock movement on
// books.available_copies goes through here, paired with its transaction
// record in the same database transaction.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Issue creates an Issued transaction and decrements the book's available
// copies as one atomic unit. The decrement is a conditional update so two
// concurrent issues can't both take the last copy.
func (svc *Service) Issue(ctx context.Context, opts IssueOptions) (*models.Transaction, error) {
	now := time.Now()
	transaction := &models.Transaction{
		MemberID:      opts.MemberID,
		BookID:        opts.BookID,
		BookRequestID: opts.BookRequestID,
		IssueDate:     now,
		Status:        models.TransactionStatusIssued,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		memberExists, err := tx.
			NewSelect().
			Model((*models.Member)(nil)).
			Where("id = ?", opts.MemberID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !memberExists {
			return errcodes.NotFound("Member")
		}

		book := &models.Book{}
		err = tx.
			NewSelect().
			Model(book).
			Where("b.id = ?", opts.BookID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Book")
			}
			return errors.WithStack(err)
		}

		if book.AvailableCopies <= 0 {
			return errcodes.BookUnavailable(book.Title)
		}

		hasIssued, err := svc.hasIssued(ctx, tx, opts.MemberID, opts.BookID)
		if err != nil {
			return errors.WithStack(err)
		}
		if hasIssued {
			return errcodes.DuplicateLoan(book.Title)
		}

		// The WHERE guard makes the decrement a no-op if another issue got
		// the last copy between the read above and here.
		res, err := tx.
			NewUpdate().
			Model((*models.Book)(nil)).
			Set("available_copies = available_copies - 1").
			Set("updated_at = ?", now).
			Where("id = ?", opts.BookID).
			Where("available_copies > 0").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.BookUnavailable(book.Title)
		}

		_, err = tx.
			NewInsert().
			Model(transaction).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return transaction, nil
}

// Return marks an issued transaction as returned and restores the book's
// copy. Returning an already-returned transaction is a no-op; the second
// return value reports that as a warning for the caller to surface.
func (svc *Service) Return(ctx context.Context, id int) (*models.Transaction, bool, error) {
	transaction := &models.Transaction{}
	alreadyReturned := false

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.
			NewSelect().
			Model(transaction).
			Where("t.id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Transaction")
			}
			return errors.WithStack(err)
		}

		if transaction.Status == models.TransactionStatusReturned {
			alreadyReturned = true
			return nil
		}

		now := time.Now()
		transaction.Status = models.TransactionStatusReturned
		transaction.ReturnDate = &now
		transaction.UpdatedAt = now

		_, err = tx.
			NewUpdate().
			Model(transaction).
			Column("status", "return_date", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.
			NewUpdate().
			Model((*models.Book)(nil)).
			Set("available_copies = available_copies + 1").
			Set("updated_at = ?", now).
			Where("id = ?", transaction.BookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, false, errors.WithStack(err)
	}

	return transaction, alreadyReturned, nil
}

// DeleteTransaction removes a loan record. Deleting a still-issued
// transaction restores the book's copy first so stock isn't lost.
func (svc *Service) DeleteTransaction(ctx context.Context, id int) error {
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		transaction := &models.Transaction{}
		err := tx.
			NewSelect().
			Model(transaction).
			Where("t.id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Transaction")
			}
			return errors.WithStack(err)
		}

		if transaction.Status == models.TransactionStatusIssued {
			_, err = tx.
				NewUpdate().
				Model((*models.Book)(nil)).
				Set("available_copies = available_copies + 1").
				Set("updated_at = ?", time.Now()).
				Where("id = ?", transaction.BookID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		_, err = tx.
			NewDelete().
			Model(transaction).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveTransaction(ctx context.Context, opts RetrieveTransactionOptions) (*models.Transaction, error) {
	transaction := &models.Transaction{}

	q := svc.db.
		NewSelect().
		Model(transaction).
		Relation("Member").
		Relation("Book")

	if opts.ID != nil {
		q = q.Where("t.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Transaction")
		}
		return nil, errors.WithStack(err)
	}

	return transaction, nil
}

func (svc *Service) ListTransactions(ctx context.Context, opts ListTransactionsOptions) ([]*models.Transaction, error) {
	t, _, err := svc.listTransactionsWithTotal(ctx, opts)
	return t, errors.WithStack(err)
}

func (svc *Service) ListTransactionsWithTotal(ctx context.Context, opts ListTransactionsOptions) ([]*models.Transaction, int, error) {
	opts.includeTotal = true
	return svc.listTransactionsWithTotal(ctx, opts)
}

func (svc *Service) listTransactionsWithTotal(ctx context.Context, opts ListTransactionsOptions) ([]*models.Transaction, int, error) {
	transactions := []*models.Transaction{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&transactions).
		Relation("Member").
		Relation("Book").
		Order("t.issue_date DESC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.Search != nil && *opts.Search != "" {
		search := "%" + *opts.Search + "%"
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				WhereOr("member.full_name LIKE ?", search).
				WhereOr("book.title LIKE ?", search).
				WhereOr("book.author LIKE ?", search)
		})
	}
	if opts.Status != nil && *opts.Status != "" {
		q = q.Where("t.status = ?", *opts.Status)
	}
	if opts.MemberID != nil {
		q = q.Where("t.member_id = ?", *opts.MemberID)
	}
	if opts.BookID != nil {
		q = q.Where("t.book_id = ?", *opts.BookID)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return transactions, total, nil
}

// HasIssued reports whether the member currently holds an issued copy of the
// book.
func (svc *Service) HasIssued(ctx context.Context, memberID, bookID int) (bool, error) {
	return svc.hasIssued(ctx, svc.db, memberID, bookID)
}

func (svc *Service) hasIssued(ctx context.Context, db bun.IDB, memberID, bookID int) (bool, error) {
	exists, err := db.
		NewSelect().
		Model((*models.Transaction)(nil)).
		Where("member_id = ?", memberID).
		Where("book_id = ?", bookID).
		Where("status = ?", models.TransactionStatusIssued).
		Exists(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}
