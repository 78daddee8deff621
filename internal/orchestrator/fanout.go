package orchestrator

import (
    "context"
    "errors"

    "go.uber.org/zap"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
    "github.com/iliyamo/warranty-claims/internal/notify"
    "github.com/iliyamo/warranty-claims/internal/warranty"
)

const kindWarranty = "warranty"

func warrantyLink(uid string) string { return "/warranties/" + uid }

// customer returns the deliveries for the person who owns the product:
// the contact email on the record, falling back to the submitting account,
// plus an in-app notice to the submitter.
func (o *Orchestrator) customer(ctx context.Context, rec model.WarrantyRecord, mail notify.Message, title, text string) []notify.Delivery {
    email := rec.ProductDetails.Customer.Email
    if email == "" {
        acct, err := o.dir.GetByID(ctx, rec.OwnerUserID)
        if err != nil {
            o.log.Warn("owner lookup failed", zap.String("uid", rec.UID), zap.Error(err))
        } else {
            email = acct.Email
        }
    }
    var out []notify.Delivery
    if email != "" {
        out = append(out, notify.Delivery{
            Channel:   notify.ChannelEmail,
            Recipient: notify.Recipient{AccountID: rec.OwnerUserID, Email: email},
            Message:   mail,
        })
    }
    out = append(out, notify.Delivery{
        Channel:   notify.ChannelInApp,
        Recipient: notify.Recipient{AccountID: rec.OwnerUserID},
        Message:   notify.InApp(mail.Purpose, title, text, kindWarranty, warrantyLink(rec.UID)),
    })
    return out
}

// linkedVendor resolves the vendor that owns the record's installer.  The
// second result is false when no installer is linked.
func (o *Orchestrator) linkedVendor(ctx context.Context, rec model.WarrantyRecord) (model.Vendor, bool) {
    if rec.InstallerRef == "" {
        return model.Vendor{}, false
    }
    m, err := o.dir.StaffByID(ctx, rec.InstallerRef)
    if err != nil {
        if !errors.Is(err, apperr.ErrNotFound) {
            o.log.Warn("installer lookup failed", zap.String("uid", rec.UID), zap.Error(err))
        }
        return model.Vendor{}, false
    }
    v, err := o.dir.VendorByID(ctx, m.VendorID)
    if err != nil {
        o.log.Warn("vendor lookup failed", zap.String("uid", rec.UID), zap.Error(err))
        return model.Vendor{}, false
    }
    return v, true
}

func vendorDeliveries(v model.Vendor, mail notify.Message, title, text, uid string) []notify.Delivery {
    return []notify.Delivery{
        {
            Channel:   notify.ChannelEmail,
            Recipient: notify.Recipient{AccountID: v.Account.ID, Email: v.Account.Email},
            Message:   mail,
        },
        {
            Channel:   notify.ChannelInApp,
            Recipient: notify.Recipient{AccountID: v.Account.ID},
            Message:   notify.InApp(mail.Purpose, title, text, kindWarranty, warrantyLink(uid)),
        },
    }
}

func adminPool(purpose, title, text, uid string) notify.Delivery {
    return notify.Delivery{
        Channel:   notify.ChannelInApp,
        Recipient: notify.Recipient{Role: model.RoleAdmin},
        Message:   notify.InApp(purpose, title, text, kindWarranty, warrantyLink(uid)),
    }
}

func (o *Orchestrator) announceSubmission(ctx context.Context, rec model.WarrantyRecord) {
    deliveries := o.customer(ctx, rec,
        notify.WarrantySubmittedEmail(rec.UID, string(rec.Status)),
        "Warranty received", "Warranty "+rec.UID+" was registered.")

    switch rec.Status {
    case model.StatusPendingVendor:
        if v, ok := o.linkedVendor(ctx, rec); ok {
            deliveries = append(deliveries, vendorDeliveries(v,
                notify.WarrantyReviewEmail(rec.UID, rec.ProductDetails.Customer.Name),
                "Warranty awaiting review", "Warranty "+rec.UID+" needs your approval.", rec.UID)...)
        }
    case model.StatusPending:
        deliveries = append(deliveries, adminPool(notify.PurposeWarrantyReview,
            "Warranty awaiting review", "Warranty "+rec.UID+" is waiting for validation.", rec.UID))
    }
    o.notify.Dispatch(ctx, deliveries...)
}

func (o *Orchestrator) announceReview(ctx context.Context, rec model.WarrantyRecord, t warranty.Transition) {
    mail := notify.WarrantyStatusEmail(rec.UID, string(rec.Status), rec.RejectionReason)
    title := "Warranty " + string(rec.Status)
    text := "Warranty " + rec.UID + " is now " + string(rec.Status) + "."
    deliveries := o.customer(ctx, rec, mail, title, text)

    switch {
    case t.To == model.StatusPending:
        deliveries = append(deliveries, adminPool(notify.PurposeWarrantyReview,
            "Warranty awaiting review", "Store approved warranty "+rec.UID+".", rec.UID))
    case t.To.Terminal() || t.To == model.StatusRejected:
        if v, ok := o.linkedVendor(ctx, rec); ok {
            deliveries = append(deliveries, vendorDeliveries(v, mail, title, text, rec.UID)...)
        }
    }
    o.notify.Dispatch(ctx, deliveries...)
}
