// Package notify delivers email and in-app notifications on behalf of the
// core.  Delivery never fails the caller: email is retried under a
// RetryPolicy and escalated to an operator address once retries are
// exhausted, in-app delivery is a single best-effort attempt.
package notify

import (
    "context"
    "sync"
    "time"

    "go.uber.org/zap"
    "golang.org/x/sync/errgroup"

    "github.com/iliyamo/warranty-claims/internal/logger"
    "github.com/iliyamo/warranty-claims/internal/model"
)

// Channel selects the delivery mechanism.
type Channel string

const (
    ChannelEmail Channel = "email"
    ChannelInApp Channel = "in_app"
)

// Recipient addresses a delivery.  For in-app messages AccountID targets a
// single account; an empty AccountID with Role set broadcasts to that role.
type Recipient struct {
    AccountID string
    Email     string
    Role      model.Role
}

// Message is the content of a delivery.  Email uses Subject and HTML,
// in-app uses Title, Text, Type and Link.  Purpose names the business
// event and appears in escalations and logs.
type Message struct {
    Purpose string
    Subject string
    HTML    string
    Title   string
    Text    string
    Type    string
    Link    string
}

// Delivery is one unit of a fan-out.
type Delivery struct {
    Channel   Channel
    Recipient Recipient
    Message   Message
}

// EmailSender sends one HTML email.
type EmailSender interface {
    Send(ctx context.Context, to, subject, htmlBody string) error
}

// InAppMessage is the payload handed to the in-app subsystem.
type InAppMessage struct {
    Title      string     `json:"title"`
    Message    string     `json:"message"`
    Type       string     `json:"type"`
    Link       string     `json:"link,omitempty"`
    TargetRole model.Role `json:"target_role,omitempty"`
}

// InAppNotifier hands notifications to the in-app subsystem.
type InAppNotifier interface {
    Notify(ctx context.Context, accountID string, msg InAppMessage) error
    Broadcast(ctx context.Context, msg InAppMessage) error
}

// Options configures a Dispatcher.
type Options struct {
    OperatorEmail string
    Retry         RetryPolicy
    Parallelism   int
}

// Dispatcher implements fire-and-forget notification delivery.
type Dispatcher struct {
    email    EmailSender
    inApp    InAppNotifier
    operator string
    retry    RetryPolicy
    limit    int
    log      *zap.Logger
    now      func() time.Time

    wg sync.WaitGroup
}

// NewDispatcher wires a dispatcher.  Either collaborator may be nil, in
// which case deliveries on that channel report false.
func NewDispatcher(email EmailSender, inApp InAppNotifier, opts Options, log *zap.Logger) *Dispatcher {
    limit := opts.Parallelism
    if limit < 1 {
        limit = 4
    }
    retry := opts.Retry
    if retry.MaxAttempts == 0 {
        retry = DefaultRetryPolicy()
    }
    return &Dispatcher{
        email:    email,
        inApp:    inApp,
        operator: opts.OperatorEmail,
        retry:    retry,
        limit:    limit,
        log:      logger.OrNop(log).Named("notify"),
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// Send delivers msg synchronously and reports whether it was delivered.
// It never returns an error.
func (d *Dispatcher) Send(ctx context.Context, ch Channel, to Recipient, msg Message) bool {
    switch ch {
    case ChannelEmail:
        return d.sendEmail(ctx, to, msg)
    case ChannelInApp:
        return d.sendInApp(ctx, to, msg)
    }
    d.log.Warn("unknown channel", zap.String("channel", string(ch)), zap.String("purpose", msg.Purpose))
    return false
}

func (d *Dispatcher) sendEmail(ctx context.Context, to Recipient, msg Message) bool {
    if d.email == nil || to.Email == "" {
        d.log.Warn("email skipped", zap.String("purpose", msg.Purpose), zap.Bool("sender", d.email != nil))
        return false
    }
    attempts, err := d.retry.Do(ctx, func(ctx context.Context) error {
        return d.email.Send(ctx, to.Email, msg.Subject, msg.HTML)
    })
    if err == nil {
        d.log.Debug("email delivered", zap.String("purpose", msg.Purpose), zap.Int("attempts", attempts))
        return true
    }
    d.log.Error("email delivery failed",
        zap.String("purpose", msg.Purpose),
        zap.String("recipient", to.Email),
        zap.Int("attempts", attempts),
        zap.Error(err))
    d.escalate(ctx, to.Email, msg.Purpose, err)
    return false
}

// escalate sends a single report to the operator address.  Its own failure
// is only logged.
func (d *Dispatcher) escalate(ctx context.Context, recipient, purpose string, cause error) {
    if d.operator == "" {
        d.log.Warn("no operator address for escalation", zap.String("purpose", purpose))
        return
    }
    esc := EscalationEmail(recipient, purpose, d.now(), cause)
    if err := d.email.Send(ctx, d.operator, esc.Subject, esc.HTML); err != nil {
        d.log.Error("escalation failed",
            zap.String("purpose", purpose),
            zap.String("operator", d.operator),
            zap.Error(err))
    }
}

func (d *Dispatcher) sendInApp(ctx context.Context, to Recipient, msg Message) bool {
    if d.inApp == nil {
        return false
    }
    in := InAppMessage{Title: msg.Title, Message: msg.Text, Type: msg.Type, Link: msg.Link}
    var err error
    switch {
    case to.AccountID != "":
        err = d.inApp.Notify(ctx, to.AccountID, in)
    case to.Role != "":
        in.TargetRole = to.Role
        err = d.inApp.Broadcast(ctx, in)
    default:
        d.log.Warn("in-app delivery without target", zap.String("purpose", msg.Purpose))
        return false
    }
    if err != nil {
        d.log.Warn("in-app delivery failed", zap.String("purpose", msg.Purpose), zap.Error(err))
        return false
    }
    return true
}

// Dispatch starts a detached fan-out of deliveries and returns at once.
// The fan-out ignores cancellation of ctx so it can outlive the request
// that triggered it.
func (d *Dispatcher) Dispatch(ctx context.Context, deliveries ...Delivery) {
    if len(deliveries) == 0 {
        return
    }
    ctx = context.WithoutCancel(ctx)
    d.wg.Add(1)
    go func() {
        defer d.wg.Done()
        var g errgroup.Group
        g.SetLimit(d.limit)
        for _, dl := range deliveries {
            dl := dl
            g.Go(func() error {
                defer func() {
                    if r := recover(); r != nil {
                        d.log.Error("delivery panicked", zap.String("purpose", dl.Message.Purpose), zap.Any("panic", r))
                    }
                }()
                d.Send(ctx, dl.Channel, dl.Recipient, dl.Message)
                return nil
            })
        }
        _ = g.Wait()
    }()
}

// Wait blocks until every fan-out started by Dispatch has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }
