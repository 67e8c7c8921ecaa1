package members

import (
	"net/http"
	"strconv"

	"github.com/Bervaline/Library-Management-System/pkg/auth"
	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	memberService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Member")
	}

	member, err := h.memberService.RetrieveMember(ctx, RetrieveMemberOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, member))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListMembersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	members, total, err := h.memberService.ListMembersWithTotal(ctx, ListMembersOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Members []*models.Member `json:"members"`
		Total   int              `json:"total"`
	}{members, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateMemberPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	member := &models.Member{
		FullName: params.FullName,
		Email:    params.Email,
		Phone:    params.Phone,
		Address:  params.Address,
	}

	if err := h.memberService.CreateMember(ctx, member); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, member))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Member")
	}

	params := UpdateMemberPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	member, err := h.memberService.RetrieveMember(ctx, RetrieveMemberOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed.
	opts := UpdateMemberOptions{Columns: []string{}}

	if params.FullName != nil && *params.FullName != member.FullName {
		member.FullName = *params.FullName
		opts.Columns = append(opts.Columns, "full_name")
	}
	if params.Email != nil && *params.Email != member.Email {
		member.Email = *params.Email
		opts.Columns = append(opts.Columns, "email")
	}
	if params.Phone != nil && *params.Phone != member.Phone {
		member.Phone = *params.Phone
		opts.Columns = append(opts.Columns, "phone")
	}
	if params.Address != nil && *params.Address != member.Address {
		member.Address = *params.Address
		opts.Columns = append(opts.Columns, "address")
	}

	err = h.memberService.UpdateMember(ctx, member, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, member))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Member")
	}

	if err := h.memberService.DeleteMember(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

// profile returns the member profile for the authenticated user, creating it
// on first access.
func (h *handler) profile(c echo.Context) error {
	ctx := c.Request().Context()

	user := auth.UserFromContext(c)
	if user == nil {
		return errcodes.Unauthorized("Authentication required")
	}

	member, err := h.memberService.GetOrCreateForUser(ctx, user)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, member))
}

// updateProfile lets the authenticated user edit their own member profile.
func (h *handler) updateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	user := auth.UserFromContext(c)
	if user == nil {
		return errcodes.Unauthorized("Authentication required")
	}

	params := UpdateMemberPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	member, err := h.memberService.GetOrCreateForUser(ctx, user)
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateMemberOptions{Columns: []string{}}

	if params.FullName != nil && *params.FullName != member.FullName {
		member.FullName = *params.FullName
		opts.Columns = append(opts.Columns, "full_name")
	}
	if params.Email != nil && *params.Email != member.Email {
		member.Email = *params.Email
		opts.Columns = append(opts.Columns, "email")
	}
	if params.Phone != nil && *params.Phone != member.Phone {
		member.Phone = *params.Phone
		opts.Columns = append(opts.Columns, "phone")
	}
	if params.Address != nil && *params.Address != member.Address {
		member.Address = *params.Address
		opts.Columns = append(opts.Columns, "address")
	}

	err = h.memberService.UpdateMember(ctx, member, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, member))
}
