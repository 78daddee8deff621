package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/warranty-claims/internal/model"
    "github.com/iliyamo/warranty-claims/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the caller into the request context.  Handlers read it back with
// Actor(c); the raw claims stay available as c.Get("user_id") and
// c.Get("role") for the rate limiter.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            accountID, roleName, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            role, ok := model.ParseRole(roleName)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            c.Set("user_id", accountID)
            c.Set("role", string(role))
            c.Set(actorKey, model.Actor{ID: accountID, Role: role})
            return next(c)
        }
    }
}
