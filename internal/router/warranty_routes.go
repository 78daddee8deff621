package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/warranty-claims/internal/handler"
	"github.com/iliyamo/warranty-claims/internal/middleware"
	"github.com/iliyamo/warranty-claims/internal/model"
)

// RegisterWarranties registers the record endpoints.  Any authenticated
// role may submit, read and resubmit; ownership and franchise linkage are
// checked by the service.  Reviews are limited to vendors and admins here so
// customers are refused before the record is loaded.
func RegisterWarranties(e *echo.Echo, h *handler.WarrantyHandler, jwtSecret string) {
	g := e.Group("/v1/warranties", middleware.JWTAuth(jwtSecret))
	g.POST("", h.Submit)
	g.GET("", h.ListMine)
	g.GET("/:uid", h.Get)
	g.POST("/:uid/resubmit", h.Resubmit)

	reviewer := middleware.RequireRole(model.RoleVendor, model.RoleAdmin)
	g.POST("/:uid/approve", h.Approve, reviewer)
	g.POST("/:uid/reject", h.Reject, reviewer)
}
