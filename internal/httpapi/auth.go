package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/moodworks/autopub/internal/auth"
)

const bearerPrefix = "Bearer "

// requireAuth guards the admin API with the bearer token configured via
// ADMIN_TOKEN_HASH. With no hash configured the whole API is closed.
func (s *Server) requireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hash := strings.TrimSpace(s.cfg.AdminTokenHash)
			if hash == "" {
				return fail(c, http.StatusServiceUnavailable, "Admin API is not configured", nil)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return unauthorized(c)
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
			if !auth.VerifyToken(token, hash) {
				return unauthorized(c)
			}

			return next(c)
		}
	}
}
