package loans

import (
	"net/http"
	"strconv"

	"github.com/Bervaline/Library-Management-System/pkg/auth"
	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/members"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	loanService   *Service
	memberService *members.Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListTransactionsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	transactions, total, err := h.loanService.ListTransactionsWithTotal(ctx, ListTransactionsOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		Search:   params.Search,
		Status:   params.Status,
		MemberID: params.Member,
		BookID:   params.Book,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, TransactionsResponse{transactions, total}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Transaction")
	}

	transaction, err := h.loanService.RetrieveTransaction(ctx, RetrieveTransactionOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, transaction))
}

func (h *handler) issue(c echo.Context) error {
	ctx := c.Request().Context()

	params := IssuePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	transaction, err := h.loanService.Issue(ctx, IssueOptions{
		MemberID: params.MemberID,
		BookID:   params.BookID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, transaction))
}

func (h *handler) markReturned(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Transaction")
	}

	transaction, alreadyReturned, err := h.loanService.Return(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := ReturnResponse{Transaction: transaction}
	if alreadyReturned {
		warning := "This book has already been returned"
		resp.Warning = &warning
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Transaction")
	}

	if err := h.loanService.DeleteTransaction(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

// borrow issues a book to the authenticated user's own member record.
func (h *handler) borrow(c echo.Context) error {
	ctx := c.Request().Context()

	params := BorrowPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user := auth.UserFromContext(c)
	member, err := h.memberService.GetOrCreateForUser(ctx, user)
	if err != nil {
		return errors.WithStack(err)
	}

	transaction, err := h.loanService.Issue(ctx, IssueOptions{
		MemberID: member.ID,
		BookID:   params.BookID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, transaction))
}

// returnOwn lets a patron return a book they borrowed themselves. The
// transaction must belong to the caller's member record.
func (h *handler) returnOwn(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Transaction")
	}

	user := auth.UserFromContext(c)
	member, err := h.memberService.GetOrCreateForUser(ctx, user)
	if err != nil {
		return errors.WithStack(err)
	}

	transaction, err := h.loanService.RetrieveTransaction(ctx, RetrieveTransactionOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if transaction.MemberID != member.ID {
		return errcodes.Forbidden("Returning another member's loan")
	}

	transaction, alreadyReturned, err := h.loanService.Return(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := ReturnResponse{Transaction: transaction}
	if alreadyReturned {
		warning := "This book has already been returned"
		resp.Warning = &warning
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// myLoans lists the authenticated user's own transactions.
func (h *handler) myLoans(c echo.Context) error {
	ctx := c.Request().Context()

	user := auth.UserFromContext(c)
	member, err := h.memberService.GetOrCreateForUser(ctx, user)
	if err != nil {
		return errors.WithStack(err)
	}

	transactions, total, err := h.loanService.ListTransactionsWithTotal(ctx, ListTransactionsOptions{
		MemberID: &member.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, TransactionsResponse{transactions, total}))
}
