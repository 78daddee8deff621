package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/warranty-claims/internal/model"
)

// StaffService manages a vendor's installer roster.
type StaffService interface {
    ListStaff(ctx context.Context, actor model.Actor) ([]model.StaffMember, error)
    AddStaff(ctx context.Context, actor model.Actor, d model.StaffDraft) (model.StaffMember, error)
    RemoveStaff(ctx context.Context, actor model.Actor, staffID, reason string) error
}

type StaffHandler struct {
    Svc StaffService
}

func NewStaffHandler(svc StaffService) *StaffHandler { return &StaffHandler{Svc: svc} }

func (h *StaffHandler) List(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    list, err := h.Svc.ListStaff(ctx, a)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *StaffHandler) Add(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    var d model.StaffDraft
    if err := c.Bind(&d); err != nil {
        return bindErr(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    m, err := h.Svc.AddStaff(ctx, a, d)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, m)
}

// Remove soft-deletes a roster entry.  The optional ?reason= is stored.
func (h *StaffHandler) Remove(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Svc.RemoveStaff(ctx, a, c.Param("id"), c.QueryParam("reason")); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
