package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillsharecyber/courseplatform/internal/hash"
	"github.com/skillsharecyber/courseplatform/internal/models"
	"github.com/skillsharecyber/courseplatform/internal/repo"
	"github.com/skillsharecyber/courseplatform/internal/tokens"
)

func newUserHandler(t *testing.T) (*UserHandler, *repo.GormRepo) {
	t.Helper()
	r := repo.New(InitTestDB(t))
	return &UserHandler{Repo: r, Issuer: newTestIssuer()}, r
}

func TestRegister_CreatesViewer(t *testing.T) {
	h, r := newUserHandler(t)
	e := echo.New()

	req, rec := jsonRequest(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	c := e.NewContext(req, rec)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	user, err := r.FindUserByEmail(c.Request().Context(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, models.RoleViewer, user.Role)
	assert.True(t, hash.CheckPassword(user.PasswordHash, "secret123"))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, _ := newUserHandler(t)
	e := echo.New()

	body := map[string]string{"email": "dup@example.com", "password": "pw123456"}

	req, rec := jsonRequest(t, http.MethodPost, "/api/v1/users/register", body)
	require.NoError(t, h.Register(e.NewContext(req, rec)))

	req, rec = jsonRequest(t, http.MethodPost, "/api/v1/users/register", body)
	err := h.Register(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
}

func TestRegister_MissingFields(t *testing.T) {
	h, _ := newUserHandler(t)
	e := echo.New()

	req, rec := jsonRequest(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"name": "no credentials",
	})
	err := h.Register(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestLogin_ReturnsTokensAndCookie(t *testing.T) {
	h, r := newUserHandler(t)
	e := echo.New()

	pwHash, err := hash.HashPassword("correct-horse")
	require.NoError(t, err)
	user := &models.User{Email: "bob@example.com", Role: models.RoleViewer, PasswordHash: pwHash}
	require.NoError(t, r.CreateUser(t.Context(), user))

	req, rec := jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    "bob@example.com",
		"password": "correct-horse",
	})
	c := e.NewContext(req, rec)

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["access_token"])

	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, RefreshCookiePath, cookie.Path)

	claims, err := tokens.ParseAccess(body["access_token"].(string), h.Issuer.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	h, r := newUserHandler(t)
	e := echo.New()

	pwHash, err := hash.HashPassword("right")
	require.NoError(t, err)
	require.NoError(t, r.CreateUser(t.Context(), &models.User{
		Email: "bob@example.com", Role: models.RoleViewer, PasswordHash: pwHash,
	}))

	req, rec := jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    "bob@example.com",
		"password": "wrong",
	})
	loginErr := h.Login(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, loginErr, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	h, _ := newUserHandler(t)
	e := echo.New()

	req, rec := jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "anything",
	})
	err := h.Login(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestUpdateProfile(t *testing.T) {
	h, r := newUserHandler(t)
	e := echo.New()

	user := &models.User{Email: "carol@example.com", Role: models.RoleViewer, PasswordHash: "x"}
	require.NoError(t, r.CreateUser(t.Context(), user))

	dob := time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC)
	req, rec := jsonRequest(t, http.MethodPut, "/api/v1/users/update", map[string]any{
		"name":          "Carol Renamed",
		"date_of_birth": dob,
	})
	c := e.NewContext(req, rec)
	withUser(c, user)

	require.NoError(t, h.UpdateProfile(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	saved, err := r.FindUserByID(t.Context(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Carol Renamed", saved.Name)
	require.NotNil(t, saved.DateOfBirth)
	assert.True(t, saved.DateOfBirth.Equal(dob))
}

func TestCreateUser_AdminProvisioning(t *testing.T) {
	h, r := newUserHandler(t)
	e := echo.New()

	req, rec := jsonRequest(t, http.MethodPost, "/api/v1/users", map[string]string{
		"name":  "New Lecturer",
		"email": "lecture@example.com",
		"role":  "Lecture",
	})
	c := e.NewContext(req, rec)

	require.NoError(t, h.CreateUser(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	user, err := r.FindUserByEmail(t.Context(), "lecture@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, models.RoleLecture, user.Role)
	assert.NotEmpty(t, user.PasswordHash)
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	h, _ := newUserHandler(t)
	e := echo.New()

	req, rec := jsonRequest(t, http.MethodPost, "/api/v1/users", map[string]string{
		"email": "x@example.com",
		"role":  "Hacker",
	})
	err := h.CreateUser(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestUpdateRole(t *testing.T) {
	h, r := newUserHandler(t)
	e := echo.New()

	user := &models.User{Email: "promote@example.com", Role: models.RoleViewer, PasswordHash: "x"}
	require.NoError(t, r.CreateUser(t.Context(), user))

	req, rec := jsonRequest(t, http.MethodPut, "/", map[string]string{"role": "Admin"})
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.UpdateRole(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	saved, err := r.FindUserByID(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, saved.Role)
}

func TestUpdateRole_UserNotFound(t *testing.T) {
	h, _ := newUserHandler(t)
	e := echo.New()

	req, rec := jsonRequest(t, http.MethodPut, "/", map[string]string{"role": "Admin"})
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")

	err := h.UpdateRole(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestDeleteUser(t *testing.T) {
	h, r := newUserHandler(t)
	e := echo.New()

	user := &models.User{Email: "gone@example.com", Role: models.RoleViewer, PasswordHash: "x"}
	require.NoError(t, r.CreateUser(t.Context(), user))

	req, rec := jsonRequest(t, http.MethodDelete, "/", nil)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.DeleteUser(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	saved, err := r.FindUserByID(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestListUsers_Paginated(t *testing.T) {
	h, r := newUserHandler(t)
	e := echo.New()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.NoError(t, r.CreateUser(t.Context(), &models.User{
			Email: email, Role: models.RoleViewer, PasswordHash: "x",
		}))
	}

	req, rec := jsonRequest(t, http.MethodGet, "/api/v1/users?page=1&size=2", nil)
	require.NoError(t, h.ListUsers(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.EqualValues(t, 3, body["total"])
	assert.Len(t, body["data"], 2)
}
