package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/warranty-claims/internal/model"
)

// WarrantyService is implemented by orchestrator.Orchestrator.
type WarrantyService interface {
    Submit(ctx context.Context, actor model.Actor, draft model.WarrantyDraft) (model.WarrantyRecord, error)
    Resubmit(ctx context.Context, actor model.Actor, uid string, draft model.WarrantyDraft) (model.WarrantyRecord, error)
    Approve(ctx context.Context, actor model.Actor, uid string) (model.WarrantyRecord, error)
    Reject(ctx context.Context, actor model.Actor, uid, reason string) (model.WarrantyRecord, error)
    Get(ctx context.Context, actor model.Actor, uid string) (model.WarrantyRecord, error)
    ListMine(ctx context.Context, actor model.Actor) ([]model.WarrantyRecord, error)
    ListForReview(ctx context.Context, actor model.Actor) ([]model.WarrantyRecord, error)
    ListByStatus(ctx context.Context, actor model.Actor, status string) ([]model.WarrantyRecord, error)
}

// WarrantyHandler serves the warranty endpoints.  Authorization beyond
// "is authenticated" happens in the service.
type WarrantyHandler struct {
    Svc WarrantyService
}

func NewWarrantyHandler(svc WarrantyService) *WarrantyHandler { return &WarrantyHandler{Svc: svc} }

type rejectReq struct {
    Reason string `json:"reason"`
}

// Submit handles POST /v1/warranties.
func (h *WarrantyHandler) Submit(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    var d model.WarrantyDraft
    if err := c.Bind(&d); err != nil {
        return bindErr(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    rec, err := h.Svc.Submit(ctx, a, d)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, rec)
}

// Resubmit handles POST /v1/warranties/:uid/resubmit.
func (h *WarrantyHandler) Resubmit(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    var d model.WarrantyDraft
    if err := c.Bind(&d); err != nil {
        return bindErr(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    rec, err := h.Svc.Resubmit(ctx, a, c.Param("uid"), d)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, rec)
}

func (h *WarrantyHandler) Approve(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    rec, err := h.Svc.Approve(ctx, a, c.Param("uid"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, rec)
}

func (h *WarrantyHandler) Reject(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    var req rejectReq
    if err := c.Bind(&req); err != nil {
        return bindErr(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    rec, err := h.Svc.Reject(ctx, a, c.Param("uid"), req.Reason)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, rec)
}

func (h *WarrantyHandler) Get(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    rec, err := h.Svc.Get(ctx, a, c.Param("uid"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, rec)
}

// ListMine handles GET /v1/warranties.
func (h *WarrantyHandler) ListMine(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    list, err := h.Svc.ListMine(ctx, a)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// ListForReview handles GET /v1/vendor/warranties.
func (h *WarrantyHandler) ListForReview(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    list, err := h.Svc.ListForReview(ctx, a)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// ListByStatus handles GET /v1/admin/warranties?status=.
func (h *WarrantyHandler) ListByStatus(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    status := c.QueryParam("status")
    if status == "" {
        status = string(model.StatusPending)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    list, err := h.Svc.ListByStatus(ctx, a, status)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}
