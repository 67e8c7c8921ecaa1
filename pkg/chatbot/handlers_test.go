package chatbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Bervaline/Library-Management-System/pkg/binder"
	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/members"
	"github.com/Bervaline/Library-Management-System/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(http.MethodPost, "/chatbot/query", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func TestHandlerQuery_NoMemberRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{
		chatbotService: NewService(db),
		memberService:  members.NewService(db),
	}
	ctx := context.Background()

	createTestBook(ctx, t, db, "Dune", "Frank Herbert", models.CategoryFiction, 3)

	// Authenticated user without a member record still gets an answer; the
	// missing record just means no personalized history.
	c, rr := newTestContext(t, `{"query":"recommend me something"}`)
	c.Set("user", &models.User{ID: 42, Username: "alice"})

	err := h.query(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, KindGeneral, resp.Kind)
}

func TestHandlerQuery_MemberLookupError(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{
		chatbotService: NewService(db),
		memberService:  members.NewService(db),
	}

	c, _ := newTestContext(t, `{"query":"recommend me something"}`)
	c.Set("user", &models.User{ID: 42, Username: "alice"})

	// A broken member lookup surfaces as an error rather than silently
	// degrading to the anonymous route.
	require.NoError(t, db.Close())
	err := h.query(c)
	require.Error(t, err)
}
