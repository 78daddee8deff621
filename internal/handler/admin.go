package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/warranty-claims/internal/identity"
    "github.com/iliyamo/warranty-claims/internal/model"
)

// AdminService covers vendor approval and admin provisioning.
type AdminService interface {
    ListPendingVendors(ctx context.Context, actor model.Actor) ([]model.Vendor, error)
    VerifyVendor(ctx context.Context, actor model.Actor, accountID string) (model.Vendor, error)
    SetVendorActive(ctx context.Context, actor model.Actor, accountID string, active bool) error
    ProvisionAdmin(ctx context.Context, actor model.Actor, req identity.AdminRequest) (model.Account, error)
}

type AdminHandler struct {
    Svc AdminService
}

func NewAdminHandler(svc AdminService) *AdminHandler { return &AdminHandler{Svc: svc} }

type activeReq struct {
    Active *bool `json:"active"`
}

func (h *AdminHandler) PendingVendors(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    list, err := h.Svc.ListPendingVendors(ctx, a)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// VerifyVendor handles POST /v1/admin/vendors/:id/verify where :id is the
// vendor's account id.
func (h *AdminHandler) VerifyVendor(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    v, err := h.Svc.VerifyVendor(ctx, a, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, v)
}

func (h *AdminHandler) SetVendorActive(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    var req activeReq
    if err := c.Bind(&req); err != nil || req.Active == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "active required", "code": "validation_failed", "field": "active"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Svc.SetVendorActive(ctx, a, c.Param("id"), *req.Active); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) CreateAdmin(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    var req identity.AdminRequest
    if err := c.Bind(&req); err != nil {
        return bindErr(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    acct, err := h.Svc.ProvisionAdmin(ctx, a, req)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, acct)
}
