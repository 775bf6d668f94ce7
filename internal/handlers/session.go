package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skillsharecyber/courseplatform/internal/logging"
	"github.com/skillsharecyber/courseplatform/internal/session"
)

type SessionHandler struct {
	Core *session.Core
}

// sessionErrorStatus maps session error kinds to transport status codes.
// Revoked is 403: the token proved who you are, you just may not use it again.
func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrTokenRevoked):
		return http.StatusForbidden
	case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrUserNotFound):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (h *SessionHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session_refresh")

	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "missing_refresh_cookie")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	user, pair, err := h.Core.Rotate(ctx, cookie.Value)
	if err != nil {
		status := sessionErrorStatus(err)
		if status == http.StatusInternalServerError {
			l.Error("refresh_failed", "status", status, "error", err)
			return echo.NewHTTPError(status, "internal error")
		}
		l.Warn("refresh_failed", "status", status, "error", err)
		return echo.NewHTTPError(status, "invalid or expired refresh token")
	}

	c.SetCookie(CreateCookie(RefreshCookieName, pair.Refresh, RefreshCookiePath,
		time.Now().Add(h.Core.Issuer.RefreshTTL)))

	l.Info("refresh_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": pair.Access,
	})
}

func (h *SessionHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session_logout")

	if cookie, err := c.Cookie(RefreshCookieName); err == nil {
		if err := h.Core.Logout(ctx, cookie.Value); err != nil {
			// Best effort: the cookie is cleared either way.
			l.Error("logout_revoke_failed", "error", err)
		}
	}

	c.SetCookie(DeleteCookie(RefreshCookieName, RefreshCookiePath))
	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}
