package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-api/internal/api/middleware"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// ctxClaims returns the claims injected by the Auth middleware. Their absence
// means the route was mounted without Auth, which is treated as unauthenticated.
func ctxClaims(c echo.Context) (*ports.Claims, error) {
	claims, _ := c.Get(middleware.ContextKeyClaims).(*ports.Claims)
	if claims == nil || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "No token, authorization denied")
	}
	return claims, nil
}

// ctxUserID returns the caller id set by Auth, or "" on public routes.
func ctxUserID(c echo.Context) string {
	id, _ := c.Get(middleware.ContextKeyUserID).(string)
	return id
}
