// Package identity provisions accounts.  Registration and login both run
// through an emailed one-time passcode; vendor accounts additionally wait
// for admin approval before they can obtain a session.
package identity

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/logger"
    "github.com/iliyamo/warranty-claims/internal/model"
    "github.com/iliyamo/warranty-claims/internal/notify"
    "github.com/iliyamo/warranty-claims/internal/repository"
    "github.com/iliyamo/warranty-claims/internal/utils"
)

// AccountStore persists accounts.  Lookups return apperr.ErrNotFound for
// unknown rows; creation reports taken emails or phones with
// repository.ErrDuplicateKey.
type AccountStore interface {
    IdentityTaken(ctx context.Context, email, phone string) (bool, error)
    GetByEmailRole(ctx context.Context, email string, role model.Role) (model.Account, error)
    GetByID(ctx context.Context, id string) (model.Account, error)
    ListByRole(ctx context.Context, role model.Role) ([]model.Account, error)
    CreateFromRegistration(ctx context.Context, reg model.PendingRegistration, otpID string, now time.Time) (model.Account, error)
    CreateAdmin(ctx context.Context, a model.Account) error
}

type VendorStore interface {
    VendorByAccount(ctx context.Context, accountID string) (model.Vendor, error)
    ListUnverified(ctx context.Context) ([]model.Vendor, error)
    SetVerified(ctx context.Context, accountID string, at time.Time) error
    SetActive(ctx context.Context, accountID string, active bool) error
}

type PendingStore interface {
    PurgeExpired(ctx context.Context, now time.Time) (int64, error)
    Replace(ctx context.Context, reg model.PendingRegistration) error
    GetLive(ctx context.Context, id string, now time.Time) (model.PendingRegistration, error)
}

type OTPStore interface {
    Create(ctx context.Context, c model.OTPCode) error
    LatestLive(ctx context.Context, subjectID string, now time.Time) (model.OTPCode, error)
    IncrementAttempts(ctx context.Context, id string) (int, error)
    MarkUsed(ctx context.Context, id string) (bool, error)
}

type TokenStore interface {
    StoreRefresh(ctx context.Context, accountID, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (string, error)
    RevokeByHash(ctx context.Context, tokenHash string) (bool, error)
    RevokeAllForAccount(ctx context.Context, accountID string) error
}

type StaffStore interface {
    ListByVendor(ctx context.Context, vendorID string) ([]model.StaffMember, error)
    Add(ctx context.Context, vendorID string, d model.StaffDraft, at time.Time) (model.StaffMember, error)
    Remove(ctx context.Context, vendorID, id string, lc model.StaffLifecycle) error
}

// Notifier starts detached notification fan-outs.
type Notifier interface {
    Dispatch(ctx context.Context, deliveries ...notify.Delivery)
}

// Stores groups the persistence collaborators of a Provisioner.
type Stores struct {
    Accounts AccountStore
    Vendors  VendorStore
    Pending  PendingStore
    OTP      OTPStore
    Tokens   TokenStore
    Staff    StaffStore
}

// Config holds passcode and session settings.
type Config struct {
    JWTSecret      string
    AccessTTLMin   int
    RefreshTTLDays int
    BcryptCost     int
    OTPLength      int
    OTPTTL         time.Duration
    OTPMaxAttempts int
    PendingTTL     time.Duration
    ResendCooldown time.Duration
}

func (c Config) withDefaults() Config {
    if c.OTPLength <= 0 {
        c.OTPLength = 6
    }
    if c.OTPTTL <= 0 {
        c.OTPTTL = 10 * time.Minute
    }
    if c.OTPMaxAttempts <= 0 {
        c.OTPMaxAttempts = 5
    }
    if c.PendingTTL <= 0 {
        c.PendingTTL = 30 * time.Minute
    }
    if c.ResendCooldown <= 0 {
        c.ResendCooldown = time.Minute
    }
    if c.BcryptCost <= 0 {
        c.BcryptCost = 10
    }
    return c
}

type Provisioner struct {
    s      Stores
    notify Notifier
    rdb    *redis.Client
    cfg    Config
    log    *zap.Logger
    now    func() time.Time
    code   func(n int) (string, error)
}

// NewProvisioner wires a provisioner.  rdb may be nil, which disables the
// resend cooldown.
func NewProvisioner(s Stores, n Notifier, rdb *redis.Client, cfg Config, log *zap.Logger) *Provisioner {
    return &Provisioner{
        s:      s,
        notify: n,
        rdb:    rdb,
        cfg:    cfg.withDefaults(),
        log:    logger.OrNop(log).Named("identity"),
        now:    func() time.Time { return time.Now().UTC() },
        code:   utils.NumericCode,
    }
}

// RegistrationRequest is the public sign-up payload.
type RegistrationRequest struct {
    Role  string              `json:"role"`
    Email string              `json:"email"`
    Name  string              `json:"name"`
    Phone string              `json:"phone"`
    Store *model.StoreDetails `json:"store,omitempty"`
    Staff []model.StaffDraft  `json:"staff,omitempty"`
}

// LoginOutcome is the result of BeginLogin: either a challenge was sent or
// the vendor is still waiting for approval.
type LoginOutcome struct {
    ChallengeID     string `json:"challenge_id,omitempty"`
    PendingApproval bool   `json:"pending_approval"`
}

// Session is a freshly issued token pair.
type Session struct {
    Access  utils.AccessToken
    Refresh utils.RefreshToken
}

// ChallengeResult is the result of CompleteChallenge.  Session is nil when
// PendingApproval is set.
type ChallengeResult struct {
    Account         model.Account
    Session         *Session
    PendingApproval bool
}

// BeginRegistration validates a sign-up, stores it as a pending
// registration and emails a passcode.  The returned id is the challenge id.
func (p *Provisioner) BeginRegistration(ctx context.Context, req RegistrationRequest) (string, error) {
    role, ok := model.ParseRole(req.Role)
    switch {
    case ok && role == model.RoleAdmin:
        return "", apperr.ErrForbiddenRole
    case !ok:
        return "", apperr.Invalid("role", "must be customer or vendor")
    }

    email := normalizeEmail(req.Email)
    phone := strings.TrimSpace(req.Phone)
    name := strings.TrimSpace(req.Name)
    if err := validateContact(email, phone, name); err != nil {
        return "", err
    }
    payload := model.RegistrationPayload{Name: name, Phone: phone}
    if role == model.RoleVendor {
        if err := validateStore(req.Store); err != nil {
            return "", err
        }
        payload.Store = trimStore(req.Store)
        for _, s := range req.Staff {
            s = model.StaffDraft{Name: strings.TrimSpace(s.Name), Phone: strings.TrimSpace(s.Phone)}
            if err := ValidateStaff(s); err != nil {
                return "", err
            }
            payload.Staff = append(payload.Staff, s)
        }
    }

    taken, err := p.s.Accounts.IdentityTaken(ctx, email, phone)
    if err != nil {
        return "", err
    }
    if taken {
        return "", apperr.ErrDuplicateIdentity
    }

    release, err := p.acquireCooldown(ctx, email)
    if err != nil {
        return "", err
    }

    now := p.now()
    if n, err := p.s.Pending.PurgeExpired(ctx, now); err != nil {
        p.log.Warn("purge expired registrations failed", zap.Error(err))
    } else if n > 0 {
        p.log.Debug("purged expired registrations", zap.Int64("count", n))
    }

    reg := model.PendingRegistration{
        ID:        uuid.NewString(),
        Email:     email,
        Role:      role,
        Payload:   payload,
        ExpiresAt: now.Add(p.cfg.PendingTTL),
        CreatedAt: now,
    }
    if err := p.s.Pending.Replace(ctx, reg); err != nil {
        release()
        return "", err
    }
    if err := p.sendCode(ctx, reg.ID, email, notify.PurposeRegistrationOTP); err != nil {
        release()
        return "", err
    }
    p.log.Info("registration started", zap.String("role", string(role)), zap.String("challenge_id", reg.ID))
    return reg.ID, nil
}

// BeginLogin emails a passcode to an existing account.  Vendors awaiting
// approval get PendingApproval and no code; deactivated vendors are refused.
func (p *Provisioner) BeginLogin(ctx context.Context, email, roleName string) (LoginOutcome, error) {
    role, ok := model.ParseRole(roleName)
    if !ok {
        return LoginOutcome{}, apperr.Invalid("role", "unknown role")
    }
    email = normalizeEmail(email)
    if !validEmail(email) {
        return LoginOutcome{}, apperr.Invalid("email", "invalid email address")
    }
    acct, err := p.s.Accounts.GetByEmailRole(ctx, email, role)
    if err != nil {
        return LoginOutcome{}, err
    }
    if role == model.RoleVendor {
        pending, err := p.vendorGate(ctx, acct.ID)
        if err != nil {
            return LoginOutcome{}, err
        }
        if pending {
            return LoginOutcome{PendingApproval: true}, nil
        }
    }

    release, err := p.acquireCooldown(ctx, email)
    if err != nil {
        return LoginOutcome{}, err
    }
    if err := p.sendCode(ctx, acct.ID, acct.Email, notify.PurposeLoginOTP); err != nil {
        release()
        return LoginOutcome{}, err
    }
    return LoginOutcome{ChallengeID: acct.ID}, nil
}

// CompleteChallenge verifies a passcode.  A live pending registration id
// completes the registration; any other id is treated as a login.
func (p *Provisioner) CompleteChallenge(ctx context.Context, challengeID, code string) (ChallengeResult, error) {
    challengeID = strings.TrimSpace(challengeID)
    code = strings.TrimSpace(code)
    if challengeID == "" || code == "" {
        return ChallengeResult{}, apperr.ErrInvalidOrExpiredChallenge
    }

    reg, err := p.s.Pending.GetLive(ctx, challengeID, p.now())
    switch {
    case err == nil:
        return p.completeRegistration(ctx, reg, code)
    case errors.Is(err, apperr.ErrNotFound):
        return p.completeLogin(ctx, challengeID, code)
    default:
        return ChallengeResult{}, err
    }
}

func (p *Provisioner) completeRegistration(ctx context.Context, reg model.PendingRegistration, code string) (ChallengeResult, error) {
    otp, err := p.verifyCode(ctx, reg.ID, code)
    if err != nil {
        return ChallengeResult{}, err
    }
    if reg.Role != model.RoleCustomer && reg.Role != model.RoleVendor {
        p.log.Warn("pending registration with invalid role", zap.String("challenge_id", reg.ID), zap.String("role", string(reg.Role)))
        return ChallengeResult{}, apperr.ErrInvalidRegistrationRole
    }

    acct, err := p.s.Accounts.CreateFromRegistration(ctx, reg, otp.ID, p.now())
    switch {
    case errors.Is(err, repository.ErrDuplicateKey):
        return ChallengeResult{}, apperr.ErrDuplicateIdentity
    case errors.Is(err, repository.ErrConflict):
        return ChallengeResult{}, apperr.ErrInvalidOrExpiredChallenge
    case err != nil:
        return ChallengeResult{}, err
    }
    p.log.Info("account created", zap.String("account_id", acct.ID), zap.String("role", string(acct.Role)))

    if acct.Role == model.RoleVendor {
        p.notifyAdminsOfVendor(ctx, acct, reg.Payload.Store)
        return ChallengeResult{Account: acct, PendingApproval: true}, nil
    }
    sess, err := p.issueSession(ctx, acct)
    if err != nil {
        return ChallengeResult{}, err
    }
    return ChallengeResult{Account: acct, Session: sess}, nil
}

func (p *Provisioner) completeLogin(ctx context.Context, accountID, code string) (ChallengeResult, error) {
    acct, err := p.s.Accounts.GetByID(ctx, accountID)
    if errors.Is(err, apperr.ErrNotFound) {
        return ChallengeResult{}, apperr.ErrInvalidOrExpiredChallenge
    }
    if err != nil {
        return ChallengeResult{}, err
    }
    if err := p.consumeCode(ctx, acct.ID, code); err != nil {
        return ChallengeResult{}, err
    }
    if acct.Role == model.RoleVendor {
        pending, err := p.vendorGate(ctx, acct.ID)
        if err != nil {
            return ChallengeResult{}, err
        }
        if pending {
            return ChallengeResult{Account: acct, PendingApproval: true}, nil
        }
    }
    sess, err := p.issueSession(ctx, acct)
    if err != nil {
        return ChallengeResult{}, err
    }
    return ChallengeResult{Account: acct, Session: sess}, nil
}

// vendorGate reports whether a vendor is still awaiting approval and
// refuses deactivated vendors.
func (p *Provisioner) vendorGate(ctx context.Context, accountID string) (bool, error) {
    v, err := p.s.Vendors.VendorByAccount(ctx, accountID)
    if errors.Is(err, apperr.ErrNotFound) {
        return false, apperr.ErrUnauthorized
    }
    if err != nil {
        return false, err
    }
    if !v.Verification.IsActive {
        return false, apperr.ErrUnauthorized
    }
    return !v.Verification.IsVerified, nil
}

func (p *Provisioner) notifyAdminsOfVendor(ctx context.Context, acct model.Account, store *model.StoreDetails) {
    storeName := acct.Name
    if store != nil && store.StoreName != "" {
        storeName = store.StoreName
    }
    deliveries := []notify.Delivery{{
        Channel:   notify.ChannelInApp,
        Recipient: notify.Recipient{Role: model.RoleAdmin},
        Message: notify.InApp(notify.PurposeVendorPending, "Vendor awaiting approval",
            storeName+" registered and is waiting for approval.", "vendor_registration", "/admin/vendors/"+acct.ID),
    }}
    admins, err := p.s.Accounts.ListByRole(ctx, model.RoleAdmin)
    if err != nil {
        p.log.Warn("list admins failed", zap.Error(err))
    }
    msg := notify.VendorPendingEmail(storeName, acct.Email)
    for _, a := range admins {
        deliveries = append(deliveries, notify.Delivery{
            Channel:   notify.ChannelEmail,
            Recipient: notify.Recipient{AccountID: a.ID, Email: a.Email},
            Message:   msg,
        })
    }
    p.notify.Dispatch(ctx, deliveries...)
}

// acquireCooldown enforces one challenge per email per ResendCooldown.  The
// returned func releases the slot when the challenge could not be issued.
// Redis errors fail open.
func (p *Provisioner) acquireCooldown(ctx context.Context, email string) (func(), error) {
    noop := func() {}
    if p.rdb == nil {
        return noop, nil
    }
    key := "otp:cooldown:" + email
    ok, err := p.rdb.SetNX(ctx, key, "1", p.cfg.ResendCooldown).Result()
    if err != nil {
        p.log.Warn("otp cooldown unavailable", zap.Error(err))
        return noop, nil
    }
    if !ok {
        return nil, apperr.ErrChallengeRateLimited
    }
    return func() { _ = p.rdb.Del(context.WithoutCancel(ctx), key).Err() }, nil
}

// sendCode stores a new passcode for subjectID and emails it.
func (p *Provisioner) sendCode(ctx context.Context, subjectID, email, purpose string) error {
    code, err := p.code(p.cfg.OTPLength)
    if err != nil {
        return err
    }
    hash, err := utils.HashCode(code, p.cfg.BcryptCost)
    if err != nil {
        return err
    }
    now := p.now()
    if err := p.s.OTP.Create(ctx, model.OTPCode{
        ID:        uuid.NewString(),
        SubjectID: subjectID,
        CodeHash:  hash,
        ExpiresAt: now.Add(p.cfg.OTPTTL),
        CreatedAt: now,
    }); err != nil {
        return err
    }
    p.notify.Dispatch(ctx, notify.Delivery{
        Channel:   notify.ChannelEmail,
        Recipient: notify.Recipient{Email: email},
        Message:   notify.OTPEmail(purpose, code, p.cfg.OTPTTL),
    })
    return nil
}

// verifyCode checks code against the live passcode of subjectID without
// consuming it.  Wrong guesses count toward the attempt limit.  Every
// failure maps to apperr.ErrInvalidOrExpiredChallenge.
func (p *Provisioner) verifyCode(ctx context.Context, subjectID, code string) (model.OTPCode, error) {
    otp, err := p.s.OTP.LatestLive(ctx, subjectID, p.now())
    if errors.Is(err, apperr.ErrNotFound) {
        return model.OTPCode{}, apperr.ErrInvalidOrExpiredChallenge
    }
    if err != nil {
        return model.OTPCode{}, err
    }
    if otp.Attempts >= p.cfg.OTPMaxAttempts {
        _, _ = p.s.OTP.MarkUsed(ctx, otp.ID)
        return model.OTPCode{}, apperr.ErrInvalidOrExpiredChallenge
    }
    if !utils.VerifyCode(otp.CodeHash, code) {
        n, err := p.s.OTP.IncrementAttempts(ctx, otp.ID)
        if err != nil {
            return model.OTPCode{}, err
        }
        if n >= p.cfg.OTPMaxAttempts {
            _, _ = p.s.OTP.MarkUsed(ctx, otp.ID)
        }
        return model.OTPCode{}, apperr.ErrInvalidOrExpiredChallenge
    }
    return otp, nil
}

// consumeCode verifies and burns the live passcode of subjectID.
func (p *Provisioner) consumeCode(ctx context.Context, subjectID, code string) error {
    otp, err := p.verifyCode(ctx, subjectID, code)
    if err != nil {
        return err
    }
    ok, err := p.s.OTP.MarkUsed(ctx, otp.ID)
    if err != nil {
        return err
    }
    if !ok {
        return apperr.ErrInvalidOrExpiredChallenge
    }
    return nil
}
