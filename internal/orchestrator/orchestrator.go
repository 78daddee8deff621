// Package orchestrator sequences authorization, the warranty ledger and
// notification fan-out for every warranty operation.
package orchestrator

import (
    "context"
    "errors"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/logger"
    "github.com/iliyamo/warranty-claims/internal/model"
    "github.com/iliyamo/warranty-claims/internal/notify"
    "github.com/iliyamo/warranty-claims/internal/warranty"
)

// FileStore turns an uploaded file reference into a durable URL.
type FileStore interface {
    Resolve(ctx context.Context, ref string) (string, error)
}

// ActivityLogger records an audit line.  Failures are logged and ignored.
type ActivityLogger interface {
    Log(ctx context.Context, e model.ActivityEntry) error
}

type Notifier interface {
    Dispatch(ctx context.Context, deliveries ...notify.Delivery)
}

type Authorizer interface {
    CanTransition(ctx context.Context, actor model.Actor, rec model.WarrantyRecord, action model.WarrantyAction) (bool, error)
    CanView(ctx context.Context, actor model.Actor, rec model.WarrantyRecord) (bool, error)
}

// Directory resolves notification recipients and installer links.
type Directory interface {
    GetByID(ctx context.Context, id string) (model.Account, error)
    VendorByAccount(ctx context.Context, accountID string) (model.Vendor, error)
    VendorByID(ctx context.Context, vendorID string) (model.Vendor, error)
    StaffByID(ctx context.Context, id string) (model.StaffMember, error)
}

type Orchestrator struct {
    ledger   *warranty.Ledger
    authz    Authorizer
    dir      Directory
    files    FileStore
    activity ActivityLogger
    notify   Notifier
    log      *zap.Logger
}

// Deps groups the collaborators of an Orchestrator.  Files and Activity are
// optional.
type Deps struct {
    Ledger   *warranty.Ledger
    Authz    Authorizer
    Dir      Directory
    Files    FileStore
    Activity ActivityLogger
    Notify   Notifier
}

func New(d Deps, log *zap.Logger) *Orchestrator {
    return &Orchestrator{
        ledger:   d.Ledger,
        authz:    d.Authz,
        dir:      d.Dir,
        files:    d.Files,
        activity: d.Activity,
        notify:   d.Notify,
        log:      logger.OrNop(log).Named("orchestrator"),
    }
}

// Submit registers a warranty.  A rejected uid owned by actor that has not
// been resubmitted yet is replaced instead of refused.
func (o *Orchestrator) Submit(ctx context.Context, actor model.Actor, draft model.WarrantyDraft) (model.WarrantyRecord, error) {
    ok, err := o.authz.CanTransition(ctx, actor, model.WarrantyRecord{}, model.ActionSubmit)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    if !ok {
        return model.WarrantyRecord{}, apperr.ErrUnauthorized
    }
    if err := o.prepare(ctx, &draft); err != nil {
        return model.WarrantyRecord{}, err
    }
    rec, err := o.ledger.Submit(ctx, actor, draft)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    o.record(ctx, actor, model.ActionSubmit, rec, "", rec.Status)
    o.announceSubmission(ctx, rec)
    return rec, nil
}

// Resubmit replaces a rejected record with corrected details.
func (o *Orchestrator) Resubmit(ctx context.Context, actor model.Actor, uid string, draft model.WarrantyDraft) (model.WarrantyRecord, error) {
    existing, err := o.ledger.Get(ctx, uid)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    ok, err := o.authz.CanTransition(ctx, actor, existing, model.ActionResubmit)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    if !ok {
        return model.WarrantyRecord{}, apperr.ErrUnauthorized
    }
    if err := o.prepare(ctx, &draft); err != nil {
        return model.WarrantyRecord{}, err
    }
    rec, err := o.ledger.Resubmit(ctx, actor, uid, draft)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    o.record(ctx, actor, model.ActionResubmit, rec, existing.Status, rec.Status)
    o.announceSubmission(ctx, rec)
    return rec, nil
}

func (o *Orchestrator) Approve(ctx context.Context, actor model.Actor, uid string) (model.WarrantyRecord, error) {
    return o.review(ctx, actor, uid, warranty.VerbApprove, "")
}

func (o *Orchestrator) Reject(ctx context.Context, actor model.Actor, uid, reason string) (model.WarrantyRecord, error) {
    return o.review(ctx, actor, uid, warranty.VerbReject, reason)
}

// Review applies verb to uid.  Records the actor cannot see are reported
// as not found.
func (o *Orchestrator) Review(ctx context.Context, actor model.Actor, uid string, verb warranty.Verb, reason string) (model.WarrantyRecord, error) {
    return o.review(ctx, actor, uid, verb, reason)
}

func (o *Orchestrator) review(ctx context.Context, actor model.Actor, uid string, verb warranty.Verb, reason string) (model.WarrantyRecord, error) {
    rec, err := o.visible(ctx, actor, uid)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    t, err := warranty.Resolve(rec.Status, verb)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    ok, err := o.authz.CanTransition(ctx, actor, rec, t.Action)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    if !ok {
        return model.WarrantyRecord{}, apperr.ErrUnauthorized
    }
    updated, err := o.ledger.Apply(ctx, rec, t, reason)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    o.log.Info("warranty reviewed",
        zap.String("uid", updated.UID),
        zap.String("action", string(t.Action)),
        zap.String("actor_id", actor.ID),
        zap.String("status", string(updated.Status)))
    o.record(ctx, actor, t.Action, updated, t.From, t.To)
    o.announceReview(ctx, updated, t)
    return updated, nil
}

// Get returns a record the actor is allowed to see.
func (o *Orchestrator) Get(ctx context.Context, actor model.Actor, uid string) (model.WarrantyRecord, error) {
    return o.visible(ctx, actor, uid)
}

func (o *Orchestrator) visible(ctx context.Context, actor model.Actor, uid string) (model.WarrantyRecord, error) {
    rec, err := o.ledger.Get(ctx, uid)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    ok, err := o.authz.CanView(ctx, actor, rec)
    if err != nil {
        return model.WarrantyRecord{}, err
    }
    if !ok {
        return model.WarrantyRecord{}, apperr.ErrNotFound
    }
    return rec, nil
}

// ListMine returns records submitted by actor.
func (o *Orchestrator) ListMine(ctx context.Context, actor model.Actor) ([]model.WarrantyRecord, error) {
    return o.ledger.ListByOwner(ctx, actor.ID)
}

// ListForReview returns the records waiting on the actor's store.
func (o *Orchestrator) ListForReview(ctx context.Context, actor model.Actor) ([]model.WarrantyRecord, error) {
    if !actor.IsVendor() {
        return nil, apperr.ErrUnauthorized
    }
    v, err := o.dir.VendorByAccount(ctx, actor.ID)
    if errors.Is(err, apperr.ErrNotFound) {
        return nil, apperr.ErrUnauthorized
    }
    if err != nil {
        return nil, err
    }
    if !v.Verification.IsActive || !v.Verification.IsVerified {
        return nil, apperr.ErrUnauthorized
    }
    return o.ledger.ListAwaitingVendor(ctx, v)
}

// ListByStatus is the admin queue view.
func (o *Orchestrator) ListByStatus(ctx context.Context, actor model.Actor, status string) ([]model.WarrantyRecord, error) {
    if !actor.IsAdmin() {
        return nil, apperr.ErrUnauthorized
    }
    s, err := model.ParseWarrantyStatus(status)
    if err != nil {
        return nil, apperr.Invalid("status", err.Error())
    }
    return o.ledger.ListByStatus(ctx, s)
}

// prepare checks the installer reference and swaps attachment references
// for durable URLs.
func (o *Orchestrator) prepare(ctx context.Context, draft *model.WarrantyDraft) error {
    draft.InstallerRef = strings.TrimSpace(draft.InstallerRef)
    if draft.InstallerRef != "" {
        m, err := o.dir.StaffByID(ctx, draft.InstallerRef)
        if errors.Is(err, apperr.ErrNotFound) || (err == nil && !m.Lifecycle.IsActive()) {
            return apperr.Invalid("installer_ref", "unknown installer")
        }
        if err != nil {
            return err
        }
    }
    if len(draft.ProductDetails.Attachments) == 0 {
        return nil
    }
    if o.files == nil {
        return apperr.Invalid("product_details.attachments", "file storage is not configured")
    }
    resolved := make([]string, 0, len(draft.ProductDetails.Attachments))
    for _, ref := range draft.ProductDetails.Attachments {
        url, err := o.files.Resolve(ctx, ref)
        if err != nil {
            return err
        }
        resolved = append(resolved, url)
    }
    draft.ProductDetails.Attachments = resolved
    return nil
}

func (o *Orchestrator) record(ctx context.Context, actor model.Actor, action model.WarrantyAction, rec model.WarrantyRecord, from, to model.WarrantyStatus) {
    if o.activity == nil {
        return
    }
    details := map[string]any{"to": string(to)}
    if from != "" {
        details["from"] = string(from)
    }
    if rec.RejectionReason != "" {
        details["reason"] = rec.RejectionReason
    }
    err := o.activity.Log(ctx, model.ActivityEntry{
        ActorID:    actor.ID,
        ActorRole:  actor.Role,
        ActionType: string(action),
        TargetType: "warranty",
        TargetID:   rec.UID,
        Details:    details,
        At:         time.Now().UTC(),
    })
    if err != nil {
        o.log.Warn("activity log failed", zap.String("uid", rec.UID), zap.Error(err))
    }
}
