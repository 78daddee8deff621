package middleware

// identity.go holds the context helpers shared by the middleware and the
// handlers.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/warranty-claims/internal/model"
)

const actorKey = "actor"

// Actor returns the authenticated caller stored by JWTAuth.  The second
// result is false on unauthenticated routes.
func Actor(c echo.Context) (model.Actor, bool) {
    a, ok := c.Get(actorKey).(model.Actor)
    return a, ok && a.ID != ""
}

// userID returns the caller's account id, or "anon" when no token was
// presented.
func userID(c echo.Context) string {
    if a, ok := Actor(c); ok {
        return a.ID
    }
    if s, ok := c.Get("user_id").(string); ok && s != "" {
        return s
    }
    return "anon"
}
