package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/location-checkin/internal/model"
)

// ctxScopes is the Echo context key under which JWTAuth stores the granted
// scopes for RequireScope.
const ctxScopes = "scopes"

// JWTAuth returns an Echo middleware that validates an HS256 Bearer token
// and puts the caller into both the Echo context and the request context.
// The token must carry "sub" and "email"; "name" and a space separated
// "scope" claim are optional.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			id := model.Identity{
				ID:    stringClaim(claims, "sub"),
				Email: stringClaim(claims, "email"),
				Name:  stringClaim(claims, "name"),
			}
			if id.ID == "" || id.Email == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token lacks subject or email"})
			}

			c.Set(ctxScopes, scopeClaim(claims))
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}

// scopeClaim reads "scope" as a space separated string or a string array.
func scopeClaim(claims jwt.MapClaims) map[string]bool {
	out := make(map[string]bool)
	switch v := claims["scope"].(type) {
	case string:
		for _, s := range strings.Fields(v) {
			out[s] = true
		}
	case []interface{}:
		for _, s := range v {
			if str, ok := s.(string); ok && str != "" {
				out[str] = true
			}
		}
	}
	return out
}
