package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/warranty-claims/internal/handler"
	"github.com/iliyamo/warranty-claims/internal/middleware"
	"github.com/iliyamo/warranty-claims/internal/model"
)

// RegisterAdmin registers admin-only endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, w *handler.WarrantyHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/warranties", w.ListByStatus)

	g.GET("/vendors/pending", a.PendingVendors)
	g.POST("/vendors/:id/verify", a.VerifyVendor)
	g.POST("/vendors/:id/active", a.SetVendorActive)
	g.POST("/admins", a.CreateAdmin)
}
