// Package authz decides whether an actor may perform a warranty action.
package authz

import (
    "context"
    "errors"
    "strings"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
)

// VendorDirectory looks up the vendor data franchise checks need.  Both
// methods return apperr.ErrNotFound for unknown ids.
type VendorDirectory interface {
    VendorByAccount(ctx context.Context, accountID string) (model.Vendor, error)
    StaffByID(ctx context.Context, id string) (model.StaffMember, error)
}

// Resolver implements CanTransition and CanView.
type Resolver struct {
    dir VendorDirectory
}

func NewResolver(dir VendorDirectory) *Resolver { return &Resolver{dir: dir} }

// CanTransition reports whether actor may apply action to rec.  Errors are
// returned only for lookup failures, never for a plain denial.
func (r *Resolver) CanTransition(ctx context.Context, actor model.Actor, rec model.WarrantyRecord, action model.WarrantyAction) (bool, error) {
    if actor.ID == "" || !actor.Role.Valid() {
        return false, nil
    }
    switch action.Level() {
    case model.LevelAny:
        return action == model.ActionSubmit, nil
    case model.LevelAdmin:
        return actor.IsAdmin(), nil
    case model.LevelOwner:
        return actor.ID == rec.OwnerUserID, nil
    case model.LevelFranchise:
        return r.franchiseLinked(ctx, actor, rec)
    }
    return false, nil
}

// CanView reports whether actor may read rec: admins, the owner and any
// vendor linked to the record.
func (r *Resolver) CanView(ctx context.Context, actor model.Actor, rec model.WarrantyRecord) (bool, error) {
    switch {
    case actor.ID == "":
        return false, nil
    case actor.IsAdmin(), actor.ID == rec.OwnerUserID:
        return true, nil
    }
    return r.franchiseLinked(ctx, actor, rec)
}

// franchiseLinked is true for an active vendor when any of these hold: the
// record's installer is on the vendor's roster, the vendor submitted the
// record, or the free-text store name matches the vendor's store name.
func (r *Resolver) franchiseLinked(ctx context.Context, actor model.Actor, rec model.WarrantyRecord) (bool, error) {
    if !actor.IsVendor() {
        return false, nil
    }
    vendor, err := r.dir.VendorByAccount(ctx, actor.ID)
    if errors.Is(err, apperr.ErrNotFound) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    if !vendor.Verification.IsActive {
        return false, nil
    }

    if rec.InstallerRef != "" {
        staff, err := r.dir.StaffByID(ctx, rec.InstallerRef)
        switch {
        case err == nil && staff.VendorID == vendor.Details.ID:
            return true, nil
        case err != nil && !errors.Is(err, apperr.ErrNotFound):
            return false, err
        }
    }
    if actor.ID == rec.OwnerUserID {
        return true, nil
    }
    return sameStore(rec.ProductDetails.Installer.StoreName, vendor.Details.StoreName), nil
}

func sameStore(a, b string) bool {
    a, b = strings.TrimSpace(a), strings.TrimSpace(b)
    return a != "" && strings.EqualFold(a, b)
}
