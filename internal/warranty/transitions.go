package warranty

import (
    "fmt"
    "strings"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
)

// Verb is what a reviewer asks for.  The current status decides which
// action the verb maps to.
type Verb string

const (
    VerbApprove Verb = "approve"
    VerbReject  Verb = "reject"
)

// ParseVerb validates a verb string.
func ParseVerb(s string) (Verb, error) {
    v := Verb(strings.ToLower(strings.TrimSpace(s)))
    if v != VerbApprove && v != VerbReject {
        return "", apperr.Invalid("action", fmt.Sprintf("unknown action %q", s))
    }
    return v, nil
}

// Transition is one row of the review transition table.
type Transition struct {
    From   model.WarrantyStatus
    Verb   Verb
    Action model.WarrantyAction
    To     model.WarrantyStatus
}

// NeedsReason reports whether the transition stores a rejection reason.
func (t Transition) NeedsReason() bool { return t.To == model.StatusRejected }

type tkey struct {
    from model.WarrantyStatus
    verb Verb
}

// transitions is the only place review moves are defined.  Submission and
// resubmission create rows and are handled by Ledger.Submit / Resubmit.
var transitions = map[tkey]Transition{
    {model.StatusPendingVendor, VerbApprove}: {model.StatusPendingVendor, VerbApprove, model.ActionFranchiseApprove, model.StatusPending},
    {model.StatusPendingVendor, VerbReject}:  {model.StatusPendingVendor, VerbReject, model.ActionFranchiseReject, model.StatusRejected},
    {model.StatusPending, VerbApprove}:       {model.StatusPending, VerbApprove, model.ActionAdminValidate, model.StatusValidated},
    {model.StatusPending, VerbReject}:        {model.StatusPending, VerbReject, model.ActionAdminReject, model.StatusRejected},
}

// Resolve looks up the transition for applying verb to a record in status
// from.  Validated records fail with apperr.ErrTerminalState, any other
// missing entry with apperr.ErrInvalidTransition.
func Resolve(from model.WarrantyStatus, verb Verb) (Transition, error) {
    if from.Terminal() {
        return Transition{}, apperr.ErrTerminalState
    }
    t, ok := transitions[tkey{from, verb}]
    if !ok {
        return Transition{}, fmt.Errorf("%w: %s from %s", apperr.ErrInvalidTransition, verb, from)
    }
    return t, nil
}

// InitialStatus is the status a new or resubmitted record starts in: a
// customer naming an installer goes to the store first, everything else
// straight to admin review.
func InitialStatus(actor model.Actor, rec model.WarrantyRecord) model.WarrantyStatus {
    if actor.Role == model.RoleCustomer && rec.HasInstallerContact() {
        return model.StatusPendingVendor
    }
    return model.StatusPending
}
