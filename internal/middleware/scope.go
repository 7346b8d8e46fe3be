package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Scopes granted to callers.
const (
	ScopeCheckIn      = "location-check-in"
	ScopeGuestCheckIn = "location-check-in-guest"
)

// RequireScope rejects requests whose token lacks any of the given scopes
// with 403.  It must run after JWTAuth.
func RequireScope(scopes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			granted, _ := c.Get(ctxScopes).(map[string]bool)
			for _, s := range scopes {
				if !granted[s] {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "missing scope " + s})
				}
			}
			return next(c)
		}
	}
}
