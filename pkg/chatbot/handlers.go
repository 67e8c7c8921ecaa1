package chatbot

import (
	"net/http"

	"github.com/Bervaline/Library-Management-System/pkg/auth"
	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/members"
	"github.com/Bervaline/Library-Management-System/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

type handler struct {
	chatbotService *Service
	memberService  *members.Service
}

func (h *handler) query(c echo.Context) error {
	ctx := c.Request().Context()

	params := QueryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Anonymous queries still get answers; a linked member record just
	// unlocks the personalized route.
	var member *models.Member
	if user := auth.UserFromContext(c); user != nil {
		m, err := h.memberService.RetrieveMember(ctx, members.RetrieveMemberOptions{UserID: &user.ID})
		switch {
		case err == nil:
			member = m
		case !errors.Is(err, errcodes.NotFound("Member")):
			return errors.WithStack(err)
		}
	}

	result, err := h.chatbotService.ProcessQuery(ctx, params.Query, member)
	if err != nil {
		return errors.WithStack(err)
	}

	data, err := json.Marshal(newQueryResponse(result))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSONBlob(http.StatusOK, data))
}

func newQueryResponse(result *Result) QueryResponse {
	resp := QueryResponse{
		Kind:     result.Kind,
		Message:  result.Message,
		Books:    make([]BookView, 0, len(result.Books)),
		Category: result.Category,
	}
	for _, book := range result.Books {
		resp.Books = append(resp.Books, newBookView(book))
	}
	if result.ReferenceBook != nil {
		view := newBookView(result.ReferenceBook)
		resp.ReferenceBook = &view
	}
	return resp
}

func newBookView(book *models.Book) BookView {
	return BookView{
		ID:              book.ID,
		Title:           book.Title,
		Author:          book.Author,
		Category:        book.Category,
		AvailableCopies: book.AvailableCopies,
		ImageURL:        book.ImageURL(),
		Description:     book.Description,
	}
}
