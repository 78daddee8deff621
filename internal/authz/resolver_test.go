package authz

import (
    "context"
    "testing"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
)

type fakeDir struct {
    vendors map[string]model.Vendor
    staff   map[string]model.StaffMember
}

func (f fakeDir) VendorByAccount(_ context.Context, id string) (model.Vendor, error) {
    v, ok := f.vendors[id]
    if !ok {
        return model.Vendor{}, apperr.ErrNotFound
    }
    return v, nil
}

func (f fakeDir) StaffByID(_ context.Context, id string) (model.StaffMember, error) {
    s, ok := f.staff[id]
    if !ok {
        return model.StaffMember{}, apperr.ErrNotFound
    }
    return s, nil
}

func vendor(account, vendorID, store string, active bool) model.Vendor {
    return model.Vendor{
        Account:      model.Account{ID: account, Role: model.RoleVendor},
        Details:      model.VendorDetails{ID: vendorID, AccountID: account, StoreName: store},
        Verification: model.VendorVerification{AccountID: account, IsVerified: true, IsActive: active},
    }
}

func newResolver() *Resolver {
    return NewResolver(fakeDir{
        vendors: map[string]model.Vendor{
            "ven-a":    vendor("ven-a", "store-a", "Speed Autos", true),
            "ven-b":    vendor("ven-b", "store-b", "Other Store", true),
            "ven-gone": vendor("ven-gone", "store-g", "Speed Autos", false),
        },
        staff: map[string]model.StaffMember{
            "staff-1": {ID: "staff-1", VendorID: "store-a", Lifecycle: model.ActiveLifecycle()},
        },
    })
}

func TestFranchiseRules(t *testing.T) {
    r := newResolver()
    ctx := context.Background()
    venA := model.Actor{ID: "ven-a", Role: model.RoleVendor}
    venB := model.Actor{ID: "ven-b", Role: model.RoleVendor}

    cases := []struct {
        name  string
        actor model.Actor
        rec   model.WarrantyRecord
        want  bool
    }{
        {"installer on roster", venA, model.WarrantyRecord{OwnerUserID: "cust", InstallerRef: "staff-1"}, true},
        {"installer of another vendor", venB, model.WarrantyRecord{OwnerUserID: "cust", InstallerRef: "staff-1"}, false},
        {"self submitted", venB, model.WarrantyRecord{OwnerUserID: "ven-b"}, true},
        {"legacy store name", venA, model.WarrantyRecord{OwnerUserID: "cust",
            ProductDetails: model.ProductDetails{Installer: model.InstallerContact{StoreName: "  speed AUTOS "}}}, true},
        {"no link", venB, model.WarrantyRecord{OwnerUserID: "cust",
            ProductDetails: model.ProductDetails{Installer: model.InstallerContact{StoreName: "Speed Autos"}}}, false},
        {"deactivated vendor", model.Actor{ID: "ven-gone", Role: model.RoleVendor}, model.WarrantyRecord{OwnerUserID: "cust",
            ProductDetails: model.ProductDetails{Installer: model.InstallerContact{StoreName: "Speed Autos"}}}, false},
        {"customer never franchise", model.Actor{ID: "cust", Role: model.RoleCustomer}, model.WarrantyRecord{OwnerUserID: "cust"}, false},
        {"admin not franchise", model.Actor{ID: "adm", Role: model.RoleAdmin}, model.WarrantyRecord{OwnerUserID: "cust"}, false},
    }
    for _, tc := range cases {
        for _, action := range []model.WarrantyAction{model.ActionFranchiseApprove, model.ActionFranchiseReject} {
            got, err := r.CanTransition(ctx, tc.actor, tc.rec, action)
            if err != nil {
                t.Fatalf("%s: %v", tc.name, err)
            }
            if got != tc.want {
                t.Fatalf("%s/%s: got %v want %v", tc.name, action, got, tc.want)
            }
        }
    }
}

func TestAdminAndOwnerRules(t *testing.T) {
    r := newResolver()
    ctx := context.Background()
    rec := model.WarrantyRecord{OwnerUserID: "cust"}
    admin := model.Actor{ID: "adm", Role: model.RoleAdmin}
    owner := model.Actor{ID: "cust", Role: model.RoleCustomer}
    other := model.Actor{ID: "cust-2", Role: model.RoleCustomer}

    check := func(a model.Actor, act model.WarrantyAction, want bool) {
        t.Helper()
        got, err := r.CanTransition(ctx, a, rec, act)
        if err != nil || got != want {
            t.Fatalf("%s %s: got %v err %v want %v", a.ID, act, got, err, want)
        }
    }
    check(admin, model.ActionAdminValidate, true)
    check(admin, model.ActionAdminReject, true)
    check(owner, model.ActionAdminValidate, false)
    check(owner, model.ActionResubmit, true)
    check(other, model.ActionResubmit, false)
    check(admin, model.ActionResubmit, false)
    check(other, model.ActionSubmit, true)
    check(model.Actor{}, model.ActionSubmit, false)
}

func TestCanView(t *testing.T) {
    r := newResolver()
    ctx := context.Background()
    rec := model.WarrantyRecord{OwnerUserID: "cust", InstallerRef: "staff-1"}
    for _, tc := range []struct {
        actor model.Actor
        want  bool
    }{
        {model.Actor{ID: "cust", Role: model.RoleCustomer}, true},
        {model.Actor{ID: "adm", Role: model.RoleAdmin}, true},
        {model.Actor{ID: "ven-a", Role: model.RoleVendor}, true},
        {model.Actor{ID: "ven-b", Role: model.RoleVendor}, false},
        {model.Actor{ID: "cust-2", Role: model.RoleCustomer}, false},
    } {
        got, err := r.CanView(ctx, tc.actor, rec)
        if err != nil || got != tc.want {
            t.Fatalf("%s: got %v err %v", tc.actor.ID, got, err)
        }
    }
}
