package identity

import (
    "context"
    "errors"
    "strings"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
    "github.com/iliyamo/warranty-claims/internal/notify"
    "github.com/iliyamo/warranty-claims/internal/repository"
)

// AdminRequest creates another admin account.
type AdminRequest struct {
    Email string `json:"email"`
    Name  string `json:"name"`
    Phone string `json:"phone"`
}

func requireAdmin(actor model.Actor) error {
    if !actor.IsAdmin() {
        return apperr.ErrUnauthorized
    }
    return nil
}

// ListPendingVendors returns vendors awaiting verification.
func (p *Provisioner) ListPendingVendors(ctx context.Context, actor model.Actor) ([]model.Vendor, error) {
    if err := requireAdmin(actor); err != nil {
        return nil, err
    }
    return p.s.Vendors.ListUnverified(ctx)
}

// VerifyVendor approves a vendor account and tells the vendor.
func (p *Provisioner) VerifyVendor(ctx context.Context, actor model.Actor, accountID string) (model.Vendor, error) {
    if err := requireAdmin(actor); err != nil {
        return model.Vendor{}, err
    }
    v, err := p.s.Vendors.VendorByAccount(ctx, accountID)
    if err != nil {
        return model.Vendor{}, err
    }
    if v.Verification.IsVerified {
        return v, nil
    }
    now := p.now()
    if err := p.s.Vendors.SetVerified(ctx, accountID, now); err != nil {
        return model.Vendor{}, err
    }
    v.Verification.IsVerified = true
    v.Verification.VerifiedAt = &now
    p.log.Info("vendor verified", zap.String("account_id", accountID), zap.String("admin_id", actor.ID))

    p.notify.Dispatch(ctx,
        notify.Delivery{
            Channel:   notify.ChannelEmail,
            Recipient: notify.Recipient{AccountID: v.Account.ID, Email: v.Account.Email},
            Message:   notify.VendorVerifiedEmail(v.Details.StoreName),
        },
        notify.Delivery{
            Channel:   notify.ChannelInApp,
            Recipient: notify.Recipient{AccountID: v.Account.ID},
            Message: notify.InApp(notify.PurposeVendorVerified, "Account approved",
                "Your store account was approved.", "vendor_verified", "/vendor"),
        },
    )
    return v, nil
}

// SetVendorActive activates or deactivates a vendor.  Deactivated vendors
// cannot sign in or act on warranties.
func (p *Provisioner) SetVendorActive(ctx context.Context, actor model.Actor, accountID string, active bool) error {
    if err := requireAdmin(actor); err != nil {
        return err
    }
    if err := p.s.Vendors.SetActive(ctx, accountID, active); err != nil {
        return err
    }
    if !active {
        if err := p.s.Tokens.RevokeAllForAccount(ctx, accountID); err != nil {
            p.log.Warn("revoke vendor sessions failed", zap.String("account_id", accountID), zap.Error(err))
        }
    }
    p.log.Info("vendor activity changed", zap.String("account_id", accountID), zap.Bool("active", active))
    return nil
}

// ProvisionAdmin creates an admin account.  Admins never self-register.
func (p *Provisioner) ProvisionAdmin(ctx context.Context, actor model.Actor, req AdminRequest) (model.Account, error) {
    if err := requireAdmin(actor); err != nil {
        return model.Account{}, err
    }
    email := normalizeEmail(req.Email)
    phone := strings.TrimSpace(req.Phone)
    name := strings.TrimSpace(req.Name)
    if err := validateContact(email, phone, name); err != nil {
        return model.Account{}, err
    }
    taken, err := p.s.Accounts.IdentityTaken(ctx, email, phone)
    if err != nil {
        return model.Account{}, err
    }
    if taken {
        return model.Account{}, apperr.ErrDuplicateIdentity
    }
    acct := model.Account{
        ID:        uuid.NewString(),
        Role:      model.RoleAdmin,
        Email:     email,
        Phone:     phone,
        Name:      name,
        CreatedAt: p.now(),
    }
    err = p.s.Accounts.CreateAdmin(ctx, acct)
    if errors.Is(err, repository.ErrDuplicateKey) {
        return model.Account{}, apperr.ErrDuplicateIdentity
    }
    if err != nil {
        return model.Account{}, err
    }
    p.log.Info("admin provisioned", zap.String("account_id", acct.ID), zap.String("by", actor.ID))
    return acct, nil
}
