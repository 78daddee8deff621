package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/warranty-claims/internal/handler"
	"github.com/iliyamo/warranty-claims/internal/middleware"
)

// RegisterRoutes registers the unauthenticated probes.  /healthz answers as
// long as the process is up; /readyz also pings the database.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the passcode flow under /v1/auth and the session
// endpoints under /v1.  limit guards the endpoints that send or check a
// passcode; pass nil to register them unthrottled.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")

	throttled := []echo.MiddlewareFunc{}
	if limit != nil {
		throttled = append(throttled, limit)
	}
	g.POST("/register", a.Register, throttled...)
	g.POST("/login", a.Login, throttled...)
	g.POST("/verify", a.Verify, throttled...)

	// refresh and logout authenticate with the refresh token in the body.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/logout-all", a.LogoutAll)
}
