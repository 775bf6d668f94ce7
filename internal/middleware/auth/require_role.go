package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillsharecyber/courseplatform/internal/models"
)

// RequireRole allows the request through only when the authenticated identity
// carries one of the given roles. It must run after Authenticate; with no
// identity on the context it fails closed.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		}
	}
}
