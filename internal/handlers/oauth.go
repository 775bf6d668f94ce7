package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"github.com/skillsharecyber/courseplatform/internal/logging"
	"github.com/skillsharecyber/courseplatform/internal/repo"
	"github.com/skillsharecyber/courseplatform/internal/tokens"
)

const oauthStateCookie = "oauthState"

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthHandler signs existing users in via Google. There is no self-signup:
// an account must already exist for the Google email.
type OAuthHandler struct {
	Config      *oauth2.Config
	Repo        *repo.GormRepo
	Issuer      *tokens.Issuer
	FrontendURL string
}

func (h *OAuthHandler) GoogleLogin(c echo.Context) error {
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusTemporaryRedirect, h.Config.AuthCodeURL(state))
}

func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "oauth_google_callback")

	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		l.Warn("oauth_failed", "status", 401, "reason", "state_mismatch")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid oauth state")
	}
	c.SetCookie(DeleteCookie(oauthStateCookie, "/"))

	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing authorization code")
	}

	tok, err := h.Config.Exchange(ctx, code)
	if err != nil {
		l.Warn("oauth_failed", "status", 401, "reason", "code_exchange", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "oauth exchange failed")
	}

	resp, err := h.Config.Client(ctx, tok).Get(googleUserInfoURL)
	if err != nil {
		l.Error("oauth_failed", "status", 502, "reason", "userinfo", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "cannot fetch user info")
	}
	defer resp.Body.Close()

	var info struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.Email == "" {
		l.Error("oauth_failed", "status", 502, "reason", "userinfo_decode", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "cannot fetch user info")
	}

	user, err := h.Repo.FindUserByEmail(ctx, info.Email)
	if err != nil {
		l.Error("oauth_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if user == nil {
		l.Warn("oauth_failed", "status", 401, "reason", "no_account", "email", info.Email)
		return echo.NewHTTPError(http.StatusUnauthorized,
			"no account exists for that email, ask an admin to create one")
	}

	accessToken, err := h.Issuer.IssueAccess(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create token")
	}
	refreshToken, err := h.Issuer.IssueRefresh(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create token")
	}

	c.SetCookie(CreateCookie(RefreshCookieName, refreshToken, RefreshCookiePath,
		time.Now().Add(h.Issuer.RefreshTTL)))

	l.Info("oauth_success", "user_id", user.ID)
	redirect := fmt.Sprintf("%s/auth-success?token=%s", h.FrontendURL, url.QueryEscape(accessToken))
	return c.Redirect(http.StatusTemporaryRedirect, redirect)
}
