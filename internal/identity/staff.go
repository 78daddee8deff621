package identity

import (
    "context"
    "errors"
    "strings"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
)

// activeVendor resolves the vendor behind actor.  Only verified, active
// vendors may manage their roster.
func (p *Provisioner) activeVendor(ctx context.Context, actor model.Actor) (model.Vendor, error) {
    if !actor.IsVendor() {
        return model.Vendor{}, apperr.ErrUnauthorized
    }
    v, err := p.s.Vendors.VendorByAccount(ctx, actor.ID)
    if errors.Is(err, apperr.ErrNotFound) {
        return model.Vendor{}, apperr.ErrUnauthorized
    }
    if err != nil {
        return model.Vendor{}, err
    }
    if !v.Verification.IsActive || !v.Verification.IsVerified {
        return model.Vendor{}, apperr.ErrUnauthorized
    }
    return v, nil
}

// Vendor returns the vendor profile of actor.
func (p *Provisioner) Vendor(ctx context.Context, actor model.Actor) (model.Vendor, error) {
    return p.activeVendor(ctx, actor)
}

func (p *Provisioner) ListStaff(ctx context.Context, actor model.Actor) ([]model.StaffMember, error) {
    v, err := p.activeVendor(ctx, actor)
    if err != nil {
        return nil, err
    }
    return p.s.Staff.ListByVendor(ctx, v.Details.ID)
}

func (p *Provisioner) AddStaff(ctx context.Context, actor model.Actor, d model.StaffDraft) (model.StaffMember, error) {
    d = model.StaffDraft{Name: strings.TrimSpace(d.Name), Phone: strings.TrimSpace(d.Phone)}
    if err := ValidateStaff(d); err != nil {
        return model.StaffMember{}, err
    }
    v, err := p.activeVendor(ctx, actor)
    if err != nil {
        return model.StaffMember{}, err
    }
    return p.s.Staff.Add(ctx, v.Details.ID, d, p.now())
}

// RemoveStaff soft-deletes a roster entry.  Warranty records that name the
// entry keep resolving to this vendor.
func (p *Provisioner) RemoveStaff(ctx context.Context, actor model.Actor, staffID, reason string) error {
    v, err := p.activeVendor(ctx, actor)
    if err != nil {
        return err
    }
    return p.s.Staff.Remove(ctx, v.Details.ID, staffID, model.RemovedLifecycle(p.now(), strings.TrimSpace(reason)))
}
