package requests

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
	requestService *Service
	memberService  *members.Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListRequestsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	requests, total, err := h.requestService.ListRequestsWithTotal(ctx, ListRequestsOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		Status:   params.Status,
		MemberID: params.Member,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, RequestsResponse{requests, total}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Request")
	}

	request, err := h.requestService.RetrieveRequest(ctx, RetrieveRequestOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, request))
}

// submit files a request on behalf of the authenticated user's own member
// record.
func (h *handler) submit(c echo.Context) error {
	ctx := c.Request().Context()

	params := SubmitPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user := auth.UserFromContext(c)
	member, err := h.memberService.GetOrCreateForUser(ctx, user)
	if err != nil {
		return errors.WithStack(err)
	}

	request, err := h.requestService.Submit(ctx, member.ID, params.BookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, request))
}

// myRequests lists the authenticated user's own requests.
func (h *handler) myRequests(c echo.Context) error {
	ctx := c.Request().Context()

	user := auth.UserFromContext(c)
	member, err := h.memberService.GetOrCreateForUser(ctx, user)
	if err != nil {
		return errors.WithStack(err)
	}

	requests, total, err := h.requestService.ListRequestsWithTotal(ctx, ListRequestsOptions{
		MemberID: &member.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, RequestsResponse{requests, total}))
}

func (h *handler) approve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Request")
	}

	request, err := h.requestService.Approve(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, request))
}

func (h *handler) reject(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Request")
	}

	params := RejectPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	request, err := h.requestService.Reject(ctx, id, params.AdminNotes)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, request))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Request")
	}

	if err := h.requestService.DeleteRequest(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
