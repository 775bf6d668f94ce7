package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillsharecyber/courseplatform/internal/models"
	"github.com/skillsharecyber/courseplatform/internal/repo"
)

func newSessionHandler(t *testing.T) (*SessionHandler, *models.User) {
	t.Helper()

	r := repo.New(InitTestDB(t))
	user := &models.User{Email: "session@example.com", Role: models.RoleViewer, PasswordHash: "x"}
	require.NoError(t, r.CreateUser(t.Context(), user))

	return &SessionHandler{Core: newTestCore(t, r)}, user
}

func refreshRequest(refresh string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", nil)
	if refresh != "" {
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: refresh})
	}
	return req, httptest.NewRecorder()
}

func TestRefresh_RotatesTokenPair(t *testing.T) {
	h, user := newSessionHandler(t)
	e := echo.New()

	refresh, err := h.Core.Issuer.IssueRefresh(user)
	require.NoError(t, err)

	req, rec := refreshRequest(refresh)
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["access_token"])

	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.NotEqual(t, refresh, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, RefreshCookiePath, cookie.Path)
}

func TestRefresh_ReplayRejected(t *testing.T) {
	h, user := newSessionHandler(t)
	e := echo.New()

	refresh, err := h.Core.Issuer.IssueRefresh(user)
	require.NoError(t, err)

	req, rec := refreshRequest(refresh)
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))

	// Same cookie again: the first rotation revoked it.
	req, rec = refreshRequest(refresh)
	replayErr := h.Refresh(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, replayErr, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestRefresh_RotatedCookieStillWorks(t *testing.T) {
	h, user := newSessionHandler(t)
	e := echo.New()

	refresh, err := h.Core.Issuer.IssueRefresh(user)
	require.NoError(t, err)

	req, rec := refreshRequest(refresh)
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	next := refreshCookie(rec)
	require.NotNil(t, next)

	req, rec = refreshRequest(next.Value)
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_MissingCookie(t *testing.T) {
	h, _ := newSessionHandler(t)
	e := echo.New()

	req, rec := refreshRequest("")
	err := h.Refresh(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRefresh_GarbageToken(t *testing.T) {
	h, _ := newSessionHandler(t)
	e := echo.New()

	req, rec := refreshRequest("not-a-jwt")
	err := h.Refresh(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestLogout_ClearsCookieAndRevokes(t *testing.T) {
	h, user := newSessionHandler(t)
	e := echo.New()

	refresh, err := h.Core.Issuer.IssueRefresh(user)
	require.NoError(t, err)

	req, rec := refreshRequest(refresh)
	require.NoError(t, h.Logout(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)

	// The revoked token cannot be rotated afterwards.
	req, rec = refreshRequest(refresh)
	rotateErr := h.Refresh(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, rotateErr, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestLogout_GarbageTokenStillSucceeds(t *testing.T) {
	h, _ := newSessionHandler(t)
	e := echo.New()

	req, rec := refreshRequest("garbage")
	require.NoError(t, h.Logout(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_NoCookieStillSucceeds(t *testing.T) {
	h, _ := newSessionHandler(t)
	e := echo.New()

	req, rec := refreshRequest("")
	require.NoError(t, h.Logout(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
