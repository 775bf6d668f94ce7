package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillsharecyber/courseplatform/internal/models"
	"github.com/skillsharecyber/courseplatform/internal/tokens"
)

type fakeUsers map[uint]*models.User

func (f fakeUsers) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	return f[id], nil
}

func newTestGate() (*Gate, *tokens.Issuer, fakeUsers) {
	issuer := tokens.NewIssuer([]byte("test-access-secret"), []byte("test-refresh-secret"))
	users := fakeUsers{
		1: {ID: 1, Email: "admin@example.com", Role: models.RoleAdmin},
		2: {ID: 2, Email: "viewer@example.com", Role: models.RoleViewer},
		3: {ID: 3, Email: "lecturer@example.com", Role: models.RoleLecture},
	}
	return &Gate{Users: users, AccessSecret: issuer.AccessSecret}, issuer, users
}

func doRequest(t *testing.T, handler echo.HandlerFunc, header string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, handler(c)
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	return he.Code
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	gate, _, _ := newTestGate()

	_, err := doRequest(t, gate.Authenticate(okHandler), "")
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	gate, issuer, _ := newTestGate()

	token, err := issuer.IssueAccess(&models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	_, herr := doRequest(t, gate.Authenticate(okHandler), "Token "+token)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, herr))
}

func TestAuthenticate_TamperedToken(t *testing.T) {
	gate, issuer, _ := newTestGate()

	token, err := issuer.IssueAccess(&models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	tampered := []byte(token)
	tampered[len(tampered)-1] ^= 0x01

	_, herr := doRequest(t, gate.Authenticate(okHandler), "Bearer "+string(tampered))
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, herr))
}

func TestAuthenticate_RefreshTokenNotAccepted(t *testing.T) {
	gate, issuer, _ := newTestGate()

	refresh, err := issuer.IssueRefresh(&models.User{ID: 1})
	require.NoError(t, err)

	_, herr := doRequest(t, gate.Authenticate(okHandler), "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, herr))
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	gate, issuer, users := newTestGate()

	token, err := issuer.IssueAccess(&models.User{ID: 2, Role: models.RoleViewer})
	require.NoError(t, err)
	delete(users, 2)

	_, herr := doRequest(t, gate.Authenticate(okHandler), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, herr))
}

func TestAuthenticate_AttachesIdentity(t *testing.T) {
	gate, issuer, _ := newTestGate()

	token, err := issuer.IssueAccess(&models.User{ID: 3, Role: models.RoleLecture})
	require.NoError(t, err)

	handler := gate.Authenticate(func(c echo.Context) error {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		assert.Equal(t, uint(3), user.ID)
		assert.Equal(t, models.RoleLecture, user.Role)
		return c.NoContent(http.StatusOK)
	})

	rec, herr := doRequest(t, handler, "Bearer "+token)
	require.NoError(t, herr)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    models.Role
		allowed []models.Role
		want    int
	}{
		{name: "admin allowed", role: models.RoleAdmin, allowed: []models.Role{models.RoleAdmin}, want: http.StatusOK},
		{name: "viewer denied", role: models.RoleViewer, allowed: []models.Role{models.RoleAdmin}, want: http.StatusForbidden},
		{name: "lecture in wider set", role: models.RoleLecture, allowed: []models.Role{models.RoleLecture, models.RoleAdmin, models.RoleSuperAdmin}, want: http.StatusOK},
		{name: "unknown role denied", role: models.Role("Hacker"), allowed: []models.Role{models.RoleAdmin, models.RoleSuperAdmin}, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Set(userContextKey, &models.User{ID: 9, Role: tt.role})

			err := RequireRole(tt.allowed...)(okHandler)(c)
			if tt.want == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
			} else {
				assert.Equal(t, tt.want, httpStatus(t, err))
			}
		})
	}
}

func TestRequireRole_FailsClosedWithoutIdentity(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireRole(models.RoleAdmin)(okHandler)(c)
	assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
}
