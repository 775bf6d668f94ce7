package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/skillsharecyber/courseplatform/internal/logging"
	"github.com/skillsharecyber/courseplatform/internal/models"
	"github.com/skillsharecyber/courseplatform/internal/tokens"
)

const userContextKey = "user"

// UserStore resolves access-token subjects. Returns (nil, nil) when no such
// user exists.
type UserStore interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

// Gate authenticates requests from a bearer access token. Access tokens are
// never checked against the revocation registry: they are short-lived and
// revocation granularity is at the refresh-token level.
type Gate struct {
	Users        UserStore
	AccessSecret []byte
}

// CurrentUser returns the identity attached by Authenticate.
func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(userContextKey).(*models.User)
	return user, ok
}

func (g *Gate) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "authenticate")

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		const prefix = "Bearer "
		if header == "" || !strings.HasPrefix(header, prefix) {
			l.Warn("auth_failed", "status", 401, "reason", "no_token")
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, no token")
		}

		claims, err := tokens.ParseAccess(strings.TrimPrefix(header, prefix), g.AccessSecret)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "invalid_token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, invalid token")
		}

		userID, err := tokens.SubjectID(claims.Subject)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "invalid_subject", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, invalid token")
		}

		user, err := g.Users.FindUserByID(ctx, userID)
		if err != nil {
			l.Error("auth_failed", "status", 500, "reason", "db_error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		// A deleted account holding a still-valid token is treated the same
		// as a forged one.
		if user == nil {
			l.Warn("auth_failed", "status", 401, "reason", "user_not_found", "user_id", userID)
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, invalid token")
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}
