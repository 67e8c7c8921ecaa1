package requests

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/loans"
	"github.com/Bervaline/Library-Management-System/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveRequestOptions struct {
	ID *int
}

type ListRequestsOptions struct {
	Limit    *int
	Offset   *int
	Status   *string
	MemberID *int

	includeTotal bool
}

// Service runs the borrow-request workflow. A request starts Pending and is
// resolved exactly once to Approved or Rejected. Approval is the only path
// from a request to an actual loan.
type Service struct {
	db          *bun.DB
	loanService *loans.Service
}

func NewService(db *bun.DB, loanService *loans.Service) *Service {
	return &Service{db, loanService}
}

// Submit creates a Pending request after checking the same conditions an
// immediate issue would. The checks are advisory; Approve re-validates
// because stock can change while the request sits in the queue.
func (svc *Service) Submit(ctx context.Context, memberID, bookID int) (*models.BookRequest, error) {
	memberExists, err := svc.db.
		NewSelect().
		Model((*models.Member)(nil)).
		Where("id = ?", memberID).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !memberExists {
		return nil, errcodes.NotFound("Member")
	}

	book := &models.Book{}
	err = svc.db.
		NewSelect().
		Model(book).
		Where("b.id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	if book.AvailableCopies <= 0 {
		return nil, errcodes.BookUnavailable(book.Title)
	}

	hasIssued, err := svc.loanService.HasIssued(ctx, memberID, bookID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if hasIssued {
		return nil, errcodes.DuplicateLoan(book.Title)
	}

	hasPending, err := svc.db.
		NewSelect().
		Model((*models.BookRequest)(nil)).
		Where("member_id = ?", memberID).
		Where("book_id = ?", bookID).
		Where("status = ?", models.RequestStatusPending).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if hasPending {
		return nil, errcodes.DuplicateRequest(book.Title)
	}

	now := time.Now()
	request := &models.BookRequest{
		MemberID:    memberID,
		BookID:      bookID,
		RequestDate: now,
		Status:      models.RequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = svc.db.
		NewInsert().
		Model(request).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return request, nil
}

// Approve resolves a pending request into an issued loan. If the book has
// run out or the member already holds it, the request flips to Rejected with
// an explanatory note instead of returning an error, so the queue never
// holds an unresolvable Pending entry.
func (svc *Service) Approve(ctx context.Context, id int) (*models.BookRequest, error) {
	request, err := svc.RetrieveRequest(ctx, RetrieveRequestOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if request.Status != models.RequestStatusPending {
		return nil, errcodes.AlreadyProcessed(request.Status)
	}

	_, err = svc.loanService.Issue(ctx, loans.IssueOptions{
		MemberID:      request.MemberID,
		BookID:        request.BookID,
		BookRequestID: &request.ID,
	})
	if err != nil {
		var code *errcodes.Error
		if errors.As(err, &code) && (code.Code == "book_unavailable" || code.Code == "duplicate_loan") {
			notes := fmt.Sprintf("Auto-rejected: %s", code.Message)
			return svc.resolve(ctx, request, models.RequestStatusRejected, &notes)
		}
		return nil, errors.WithStack(err)
	}

	return svc.resolve(ctx, request, models.RequestStatusApproved, nil)
}

// Reject resolves a pending request without issuing anything.
func (svc *Service) Reject(ctx context.Context, id int, notes *string) (*models.BookRequest, error) {
	request, err := svc.RetrieveRequest(ctx, RetrieveRequestOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if request.Status != models.RequestStatusPending {
		return nil, errcodes.AlreadyProcessed(request.Status)
	}

	return svc.resolve(ctx, request, models.RequestStatusRejected, notes)
}

func (svc *Service) resolve(ctx context.Context, request *models.BookRequest, status string, notes *string) (*models.BookRequest, error) {
	request.Status = status
	request.UpdatedAt = time.Now()
	columns := []string{"status", "updated_at"}
	if notes != nil {
		request.AdminNotes = notes
		columns = append(columns, "admin_notes")
	}

	_, err := svc.db.
		NewUpdate().
		Model(request).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return request, nil
}

// DeleteRequest removes a request in any state. A transaction created by an
// earlier approval survives with its back-reference nulled out.
func (svc *Service) DeleteRequest(ctx context.Context, id int) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.BookRequest)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Request")
	}

	return nil
}

func (svc *Service) RetrieveRequest(ctx context.Context, opts RetrieveRequestOptions) (*models.BookRequest, error) {
	request := &models.BookRequest{}

	q := svc.db.
		NewSelect().
		Model(request).
		Relation("Member").
		Relation("Book")

	if opts.ID != nil {
		q = q.Where("br.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Request")
		}
		return nil, errors.WithStack(err)
	}

	return request, nil
}

func (svc *Service) ListRequests(ctx context.Context, opts ListRequestsOptions) ([]*models.BookRequest, error) {
	r, _, err := svc.listRequestsWithTotal(ctx, opts)
	return r, errors.WithStack(err)
}

func (svc *Service) ListRequestsWithTotal(ctx context.Context, opts ListRequestsOptions) ([]*models.BookRequest, int, error) {
	opts.includeTotal = true
	return svc.listRequestsWithTotal(ctx, opts)
}

func (svc *Service) listRequestsWithTotal(ctx context.Context, opts ListRequestsOptions) ([]*models.BookRequest, int, error) {
	requests := []*models.BookRequest{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&requests).
		Relation("Member").
		Relation("Book").
		Order("br.request_date DESC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.Status != nil && *opts.Status != "" {
		q = q.Where("br.status = ?", *opts.Status)
	}
	if opts.MemberID != nil {
		q = q.Where("br.member_id = ?", *opts.MemberID)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return requests, total, nil
}
