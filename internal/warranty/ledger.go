// Package warranty is the warranty record state machine.  All status
// changes go through Resolve and Apply; record creation goes through
// Submit and Resubmit, which enforce the duplicate uid policy and the
// single allowed resubmission.
package warranty

import (
    "context"
    "errors"
    "fmt"
    "net/mail"
    "strings"
    "time"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
    "github.com/iliyamo/warranty-claims/internal/repository"
)

// MaxResubmissions is how many times a rejected uid may be replaced.
const MaxResubmissions = 1

// Store persists warranty records.  Get returns apperr.ErrNotFound for an
// unknown uid; Insert and ReplaceRejected report uid collisions with
// repository.ErrDuplicateKey; ReplaceRejected reports a row that is no
// longer rejected, or no longer at prevRetry, with repository.ErrConflict.
type Store interface {
    Get(ctx context.Context, uid string) (model.WarrantyRecord, error)
    Insert(ctx context.Context, rec model.WarrantyRecord) error
    ReplaceRejected(ctx context.Context, rec model.WarrantyRecord, prevRetry int) error
    UpdateStatus(ctx context.Context, uid string, from, to model.WarrantyStatus, reason string, at time.Time) (bool, error)
    ListByOwner(ctx context.Context, ownerID string) ([]model.WarrantyRecord, error)
    ListByStatus(ctx context.Context, status model.WarrantyStatus) ([]model.WarrantyRecord, error)
    ListAwaitingVendor(ctx context.Context, vendorID, accountID, storeName string) ([]model.WarrantyRecord, error)
}

type Ledger struct {
    store Store
    now   func() time.Time
}

func NewLedger(store Store) *Ledger {
    return &Ledger{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Get loads a record.
func (l *Ledger) Get(ctx context.Context, uid string) (model.WarrantyRecord, error) {
    return l.store.Get(ctx, strings.TrimSpace(uid))
}

func (l *Ledger) ListByOwner(ctx context.Context, ownerID string) ([]model.WarrantyRecord, error) {
    return l.store.ListByOwner(ctx, ownerID)
}

func (l *Ledger) ListByStatus(ctx context.Context, status model.WarrantyStatus) ([]model.WarrantyRecord, error) {
    if !status.Valid() {
        return nil, apperr.Invalid("status", "unknown status")
    }
    return l.store.ListByStatus(ctx, status)
}

func (l *Ledger) ListAwaitingVendor(ctx context.Context, v model.Vendor) ([]model.WarrantyRecord, error) {
    return l.store.ListAwaitingVendor(ctx, v.Details.ID, v.Account.ID, v.Details.StoreName)
}

// Submit creates a record for draft.UID.  If the uid already exists the
// submission only proceeds when the existing record is rejected, owned by
// actor and has not been resubmitted yet; in that case it replaces it.
func (l *Ledger) Submit(ctx context.Context, actor model.Actor, draft model.WarrantyDraft) (model.WarrantyRecord, error) {
    draft.UID = strings.TrimSpace(draft.UID)
    if err := ValidateDraft(draft); err != nil {
        return model.WarrantyRecord{}, err
    }

    existing, err := l.store.Get(ctx, draft.UID)
    switch {
    case errors.Is(err, apperr.ErrNotFound):
        rec := l.build(actor, draft, 0)
        if err := l.store.Insert(ctx, rec); err != nil {
            return model.WarrantyRecord{}, translate(err)
        }
        return rec, nil
    case err != nil:
        return model.WarrantyRecord{}, err
    }

    if existing.Status != model.StatusRejected || existing.OwnerUserID != actor.ID {
        return model.WarrantyRecord{}, apperr.ErrDuplicateIdentifier
    }
    if existing.ProductDetails.RetryCount >= MaxResubmissions {
        return model.WarrantyRecord{}, apperr.ErrResubmissionLimitExceeded
    }
    return l.replace(ctx, actor, existing, draft)
}

// Resubmit replaces the rejected record uid with draft.  Checks run in
// order: ownership, resubmission limit, rejected status.
func (l *Ledger) Resubmit(ctx context.Context, actor model.Actor, uid string, draft model.WarrantyDraft) (model.WarrantyRecord, error) {
    draft.UID = strings.TrimSpace(uid)
    if err := ValidateDraft(draft); err != nil {
        return model.WarrantyRecord{}, err
    }
    existing, err := l.store.Get(ctx, draft.UID)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    if existing.OwnerUserID != actor.ID {
        return model.WarrantyRecord{}, apperr.ErrUnauthorized
    }
    if existing.Status.Terminal() {
        return model.WarrantyRecord{}, apperr.ErrTerminalState
    }
    if existing.ProductDetails.RetryCount >= MaxResubmissions {
        return model.WarrantyRecord{}, apperr.ErrResubmissionLimitExceeded
    }
    if existing.Status != model.StatusRejected {
        return model.WarrantyRecord{}, fmt.Errorf("%w: resubmit from %s", apperr.ErrInvalidTransition, existing.Status)
    }
    return l.replace(ctx, actor, existing, draft)
}

// replace swaps the rejected existing row for a fresh submission.  The
// write is conditioned on the retry count read here so a concurrent
// resubmit of the same uid cannot be overwritten.
func (l *Ledger) replace(ctx context.Context, actor model.Actor, existing model.WarrantyRecord, draft model.WarrantyDraft) (model.WarrantyRecord, error) {
    prev := existing.ProductDetails.RetryCount
    rec := l.build(actor, draft, prev+1)
    if err := l.store.ReplaceRejected(ctx, rec, prev); err != nil {
        return model.WarrantyRecord{}, translate(err)
    }
    return rec, nil
}

// Apply performs t on rec as a compare-and-set on the current status.
// Rejections require a non-empty reason.
func (l *Ledger) Apply(ctx context.Context, rec model.WarrantyRecord, t Transition, reason string) (model.WarrantyRecord, error) {
    if rec.Status != t.From {
        return model.WarrantyRecord{}, fmt.Errorf("%w: %s from %s", apperr.ErrInvalidTransition, t.Action, rec.Status)
    }
    reason = strings.TrimSpace(reason)
    if t.NeedsReason() && reason == "" {
        return model.WarrantyRecord{}, apperr.Invalid("reason", "rejection reason is required")
    }
    if !t.NeedsReason() {
        reason = ""
    }
    now := l.now()
    ok, err := l.store.UpdateStatus(ctx, rec.UID, t.From, t.To, reason, now)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    if !ok {
        return model.WarrantyRecord{}, apperr.ErrConcurrentUpdate
    }
    rec.Status = t.To
    rec.RejectionReason = reason
    rec.UpdatedAt = now
    return rec, nil
}

func (l *Ledger) build(actor model.Actor, draft model.WarrantyDraft, retry int) model.WarrantyRecord {
    now := l.now()
    rec := model.WarrantyRecord{
        UID:            draft.UID,
        OwnerUserID:    actor.ID,
        InstallerRef:   strings.TrimSpace(draft.InstallerRef),
        ProductDetails: draft.ProductDetails,
        CreatedAt:      now,
        UpdatedAt:      now,
    }
    rec.ProductDetails.RetryCount = retry
    rec.Status = InitialStatus(actor, rec)
    return rec
}

func translate(err error) error {
    switch {
    case errors.Is(err, repository.ErrDuplicateKey):
        return apperr.ErrDuplicateIdentifier
    case errors.Is(err, repository.ErrConflict):
        return apperr.ErrConcurrentUpdate
    }
    return err
}

// ValidateDraft checks the caller supplied fields of a submission.
func ValidateDraft(d model.WarrantyDraft) error {
    uid := strings.TrimSpace(d.UID)
    if uid == "" {
        return apperr.Invalid("uid", "required")
    }
    if len(uid) > 64 {
        return apperr.Invalid("uid", "must be at most 64 characters")
    }
    p := d.ProductDetails
    switch p.Category {
    case model.CategorySeatCover:
        if p.SeatCover == nil || p.EVProduct != nil {
            return apperr.Invalid("product_details.seat_cover", "seat cover details required")
        }
    case model.CategoryEVProduct:
        if p.EVProduct == nil || p.SeatCover != nil {
            return apperr.Invalid("product_details.ev_product", "EV product details required")
        }
    default:
        return apperr.Invalid("product_details.category", "must be seat_cover or ev_product")
    }
    if strings.TrimSpace(p.Customer.Name) == "" {
        return apperr.Invalid("product_details.customer.name", "required")
    }
    if strings.TrimSpace(p.Customer.Phone) == "" && strings.TrimSpace(p.Customer.Email) == "" {
        return apperr.Invalid("product_details.customer", "phone or email required")
    }
    if e := strings.TrimSpace(p.Customer.Email); e != "" {
        if _, err := mail.ParseAddress(e); err != nil {
            return apperr.Invalid("product_details.customer.email", "invalid email")
        }
    }
    return nil
}
