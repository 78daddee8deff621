package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/warranty-claims/internal/handler"
	"github.com/iliyamo/warranty-claims/internal/middleware"
	"github.com/iliyamo/warranty-claims/internal/model"
)

// RegisterVendor registers vendor-scoped endpoints under /v1/vendor.  All
// routes require a valid JWT and the vendor role; verification and the
// active flag are enforced by the services.
func RegisterVendor(e *echo.Echo, w *handler.WarrantyHandler, s *handler.StaffHandler, jwtSecret string) {
	g := e.Group(
		"/v1/vendor",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleVendor),
	)
	g.GET("/warranties", w.ListForReview)

	g.GET("/staff", s.List)
	g.POST("/staff", s.Add)
	g.DELETE("/staff/:id", s.Remove)
}
