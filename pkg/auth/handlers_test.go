package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Bervaline/Library-Management-System/pkg/binder"
	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, payload, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == CookieName {
			return cookie
		}
	}
	return nil
}

func TestHandlerRegister(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	h := &handler{authService: svc}

	payload := `{"username":"alice","email":"alice@example.com","password":"password123","full_name":"Alice Smith","phone":"555-0100","address":"1 Library Way"}`
	c, rr := newTestContext(t, payload, http.MethodPost, "/auth/register")

	err := h.register(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
	assert.False(t, resp.IsStaff)
}

func TestHandlerLogin(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	h := &handler{authService: svc}
	ctx := context.Background()

	registerTestUser(ctx, t, svc, "alice")

	payload := `{"username":"alice","password":"password123"}`
	c, rr := newTestContext(t, payload, http.MethodPost, "/auth/login")

	err := h.login(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	claims, err := svc.ValidateToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestHandlerLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	h := &handler{authService: svc}
	ctx := context.Background()

	registerTestUser(ctx, t, svc, "alice")

	payload := `{"username":"alice","password":"nope"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/login")

	err := h.login(c)
	require.Error(t, err)

	code := &errcodes.Error{}
	require.ErrorAs(t, err, &code)
	assert.Equal(t, http.StatusUnauthorized, code.HTTPCode)
}

func TestHandlerLogout(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	h := &handler{authService: svc}

	c, rr := newTestContext(t, "", http.MethodPost, "/auth/logout")

	err := h.logout(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestHandlerStatus(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	h := &handler{authService: svc}

	c, rr := newTestContext(t, "", http.MethodGet, "/auth/status")
	require.NoError(t, h.status(c))

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.NeedsSetup)

	registerTestUser(context.Background(), t, svc, "alice")

	c, rr = newTestContext(t, "", http.MethodGet, "/auth/status")
	require.NoError(t, h.status(c))

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.NeedsSetup)
}

func TestHandlerSetup_RejectsWhenUsersExist(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	h := &handler{authService: svc}

	registerTestUser(context.Background(), t, svc, "alice")

	payload := `{"username":"admin","password":"securepassword123"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/setup")

	err := h.setup(c)
	require.Error(t, err)

	code := &errcodes.Error{}
	require.ErrorAs(t, err, &code)
	assert.Equal(t, http.StatusForbidden, code.HTTPCode)
}
