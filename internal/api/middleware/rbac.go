package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const msgAdminOnly = "Access denied. Admin only."

// RequireRole enforces role-based access control. It must run after Auth;
// a request without a role in its context is rejected.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextKeyRole).(string)
			if _, ok := allowed[role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, msgAdminOnly)
			}
			return next(c)
		}
	}
}
