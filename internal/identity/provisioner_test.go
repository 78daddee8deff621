package identity

import (
    "context"
    "errors"
    "strconv"
    "sync"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
    "github.com/iliyamo/warranty-claims/internal/notify"
    "github.com/iliyamo/warranty-claims/internal/repository"
)

// memDB implements every store interface in memory.
type memDB struct {
    mu       sync.Mutex
    accounts map[string]model.Account
    vendors  map[string]model.Vendor // by account id
    staff    map[string]model.StaffMember
    pending  map[string]model.PendingRegistration
    otps     map[string]*model.OTPCode
    tokens   map[string]tokenRow
}

type tokenRow struct {
    accountID string
    exp       time.Time
    revoked   bool
}

func newMemDB() *memDB {
    return &memDB{
        accounts: map[string]model.Account{},
        vendors:  map[string]model.Vendor{},
        staff:    map[string]model.StaffMember{},
        pending:  map[string]model.PendingRegistration{},
        otps:     map[string]*model.OTPCode{},
        tokens:   map[string]tokenRow{},
    }
}

func (m *memDB) stores() Stores {
    return Stores{Accounts: m, Vendors: m, Pending: m, OTP: m, Tokens: m, Staff: m}
}

func (m *memDB) IdentityTaken(_ context.Context, email, phone string) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, a := range m.accounts {
        if a.Email == email || a.Phone == phone {
            return true, nil
        }
    }
    return false, nil
}

func (m *memDB) GetByEmailRole(_ context.Context, email string, role model.Role) (model.Account, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, a := range m.accounts {
        if a.Email == email && a.Role == role {
            return a, nil
        }
    }
    return model.Account{}, apperr.ErrNotFound
}

func (m *memDB) GetByID(_ context.Context, id string) (model.Account, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    a, ok := m.accounts[id]
    if !ok {
        return model.Account{}, apperr.ErrNotFound
    }
    return a, nil
}

func (m *memDB) ListByRole(_ context.Context, role model.Role) ([]model.Account, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Account
    for _, a := range m.accounts {
        if a.Role == role {
            out = append(out, a)
        }
    }
    return out, nil
}

func (m *memDB) CreateFromRegistration(_ context.Context, reg model.PendingRegistration, otpID string, now time.Time) (model.Account, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    otp := m.otps[otpID]
    if otp == nil || otp.IsUsed {
        return model.Account{}, repository.ErrConflict
    }
    if _, ok := m.pending[reg.ID]; !ok {
        return model.Account{}, repository.ErrConflict
    }
    for _, a := range m.accounts {
        if a.Email == reg.Email || a.Phone == reg.Payload.Phone {
            return model.Account{}, repository.ErrDuplicateKey
        }
    }
    a := model.Account{ID: uuid.NewString(), Role: reg.Role, Email: reg.Email, Phone: reg.Payload.Phone, Name: reg.Payload.Name, CreatedAt: now}
    m.accounts[a.ID] = a
    if reg.Role == model.RoleVendor {
        v := model.Vendor{
            Account:      a,
            Details:      model.VendorDetails{ID: uuid.NewString(), AccountID: a.ID, StoreName: reg.Payload.Store.StoreName},
            Verification: model.VendorVerification{AccountID: a.ID, IsActive: true},
        }
        m.vendors[a.ID] = v
        for _, s := range reg.Payload.Staff {
            id := uuid.NewString()
            m.staff[id] = model.StaffMember{ID: id, VendorID: v.Details.ID, Name: s.Name, Phone: s.Phone, Lifecycle: model.ActiveLifecycle()}
        }
    }
    delete(m.pending, reg.ID)
    otp.IsUsed = true
    return a, nil
}

func (m *memDB) CreateAdmin(_ context.Context, a model.Account) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.accounts[a.ID] = a
    return nil
}

func (m *memDB) VendorByAccount(_ context.Context, accountID string) (model.Vendor, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    v, ok := m.vendors[accountID]
    if !ok {
        return model.Vendor{}, apperr.ErrNotFound
    }
    return v, nil
}

func (m *memDB) ListUnverified(context.Context) ([]model.Vendor, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Vendor
    for _, v := range m.vendors {
        if !v.Verification.IsVerified {
            out = append(out, v)
        }
    }
    return out, nil
}

func (m *memDB) SetVerified(_ context.Context, accountID string, at time.Time) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    v, ok := m.vendors[accountID]
    if !ok {
        return apperr.ErrNotFound
    }
    v.Verification.IsVerified = true
    v.Verification.VerifiedAt = &at
    m.vendors[accountID] = v
    return nil
}

func (m *memDB) SetActive(_ context.Context, accountID string, active bool) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    v, ok := m.vendors[accountID]
    if !ok {
        return apperr.ErrNotFound
    }
    v.Verification.IsActive = active
    m.vendors[accountID] = v
    return nil
}

func (m *memDB) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var n int64
    for id, p := range m.pending {
        if !p.ExpiresAt.After(now) {
            delete(m.pending, id)
            n++
        }
    }
    return n, nil
}

func (m *memDB) Replace(_ context.Context, reg model.PendingRegistration) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for id, p := range m.pending {
        if p.Email == reg.Email {
            delete(m.pending, id)
        }
    }
    m.pending[reg.ID] = reg
    return nil
}

func (m *memDB) GetLive(_ context.Context, id string, now time.Time) (model.PendingRegistration, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    p, ok := m.pending[id]
    if !ok || !p.ExpiresAt.After(now) {
        return model.PendingRegistration{}, apperr.ErrNotFound
    }
    return p, nil
}

func (m *memDB) Create(_ context.Context, c model.OTPCode) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, o := range m.otps {
        if o.SubjectID == c.SubjectID {
            o.IsUsed = true
        }
    }
    m.otps[c.ID] = &c
    return nil
}

func (m *memDB) LatestLive(_ context.Context, subjectID string, now time.Time) (model.OTPCode, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var best *model.OTPCode
    for _, o := range m.otps {
        if o.SubjectID != subjectID || o.IsUsed || !o.ExpiresAt.After(now) {
            continue
        }
        if best == nil || o.CreatedAt.After(best.CreatedAt) {
            best = o
        }
    }
    if best == nil {
        return model.OTPCode{}, apperr.ErrNotFound
    }
    return *best, nil
}

func (m *memDB) IncrementAttempts(_ context.Context, id string) (int, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.otps[id].Attempts++
    return m.otps[id].Attempts, nil
}

func (m *memDB) MarkUsed(_ context.Context, id string) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    o := m.otps[id]
    if o == nil || o.IsUsed {
        return false, nil
    }
    o.IsUsed = true
    return true, nil
}

func (m *memDB) StoreRefresh(_ context.Context, accountID, hash string, exp time.Time) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.tokens[hash] = tokenRow{accountID: accountID, exp: exp}
    return nil
}

func (m *memDB) ValidateRefresh(_ context.Context, hash string, now time.Time) (string, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    t, ok := m.tokens[hash]
    if !ok || t.revoked || now.After(t.exp) {
        return "", apperr.ErrNotFound
    }
    return t.accountID, nil
}

func (m *memDB) RevokeByHash(_ context.Context, hash string) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    t, ok := m.tokens[hash]
    if !ok || t.revoked {
        return false, nil
    }
    t.revoked = true
    m.tokens[hash] = t
    return true, nil
}

func (m *memDB) RevokeAllForAccount(_ context.Context, accountID string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for h, t := range m.tokens {
        if t.accountID == accountID {
            t.revoked = true
            m.tokens[h] = t
        }
    }
    return nil
}

func (m *memDB) ListByVendor(_ context.Context, vendorID string) ([]model.StaffMember, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.StaffMember
    for _, s := range m.staff {
        if s.VendorID == vendorID {
            out = append(out, s)
        }
    }
    return out, nil
}

func (m *memDB) Add(_ context.Context, vendorID string, d model.StaffDraft, at time.Time) (model.StaffMember, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s := model.StaffMember{ID: uuid.NewString(), VendorID: vendorID, Name: d.Name, Phone: d.Phone, Lifecycle: model.ActiveLifecycle(), CreatedAt: at}
    m.staff[s.ID] = s
    return s, nil
}

func (m *memDB) Remove(_ context.Context, vendorID, id string, lc model.StaffLifecycle) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.staff[id]
    if !ok || s.VendorID != vendorID || !s.Lifecycle.IsActive() {
        return apperr.ErrNotFound
    }
    s.Lifecycle = lc
    m.staff[id] = s
    return nil
}

type recordingNotifier struct {
    mu  sync.Mutex
    got []notify.Delivery
}

func (r *recordingNotifier) Dispatch(_ context.Context, d ...notify.Delivery) {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.got = append(r.got, d...)
}

func (r *recordingNotifier) byPurpose(purpose string) []notify.Delivery {
    r.mu.Lock()
    defer r.mu.Unlock()
    var out []notify.Delivery
    for _, d := range r.got {
        if d.Message.Purpose == purpose {
            out = append(out, d)
        }
    }
    return out
}

type fixture struct {
    db    *memDB
    n     *recordingNotifier
    p     *Provisioner
    clock time.Time
    codes []string
}

func newFixture(t *testing.T, rdb *redis.Client) *fixture {
    t.Helper()
    f := &fixture{db: newMemDB(), n: &recordingNotifier{}, clock: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
    f.p = NewProvisioner(f.db.stores(), f.n, rdb, Config{
        JWTSecret:      "test-secret",
        AccessTTLMin:   15,
        RefreshTTLDays: 7,
        BcryptCost:     bcrypt.MinCost,
    }, nil)
    f.p.now = func() time.Time { return f.clock }
    seq := 100000
    f.p.code = func(int) (string, error) {
        seq++
        c := strconv.Itoa(seq)
        f.codes = append(f.codes, c)
        return c, nil
    }
    return f
}

func (f *fixture) lastCode() string { return f.codes[len(f.codes)-1] }

func (f *fixture) addAdmin(t *testing.T) model.Account {
    t.Helper()
    a := model.Account{ID: uuid.NewString(), Role: model.RoleAdmin, Email: "admin@example.com", Phone: "9000000001", Name: "Admin"}
    f.db.accounts[a.ID] = a
    return a
}

func vendorRequest() RegistrationRequest {
    return RegistrationRequest{
        Role:  "vendor",
        Email: " Shop@Example.com ",
        Name:  "Ravi",
        Phone: "9876543210",
        Store: &model.StoreDetails{StoreName: "Ravi Auto", Address: "12 MG Road", City: "Pune", State: "MH", PostalCode: "411001"},
        Staff: []model.StaffDraft{{Name: "Ajay", Phone: "9123456780"}},
    }
}

func TestVendorRegistrationAwaitsApproval(t *testing.T) {
    f := newFixture(t, nil)
    admin := f.addAdmin(t)
    ctx := context.Background()

    id, err := f.p.BeginRegistration(ctx, vendorRequest())
    if err != nil {
        t.Fatalf("begin registration: %v", err)
    }
    if got := f.n.byPurpose(notify.PurposeRegistrationOTP); len(got) != 1 || got[0].Recipient.Email != "shop@example.com" {
        t.Fatalf("expected one otp email to normalized address, got %+v", got)
    }

    res, err := f.p.CompleteChallenge(ctx, id, f.lastCode())
    if err != nil {
        t.Fatalf("complete challenge: %v", err)
    }
    if !res.PendingApproval || res.Session != nil {
        t.Fatalf("vendor should await approval without a session: %+v", res)
    }
    if _, ok := f.db.pending[id]; ok {
        t.Fatalf("pending registration should be consumed")
    }
    v := f.db.vendors[res.Account.ID]
    if v.Verification.IsVerified || !v.Verification.IsActive {
        t.Fatalf("unexpected verification state %+v", v.Verification)
    }
    if staff, _ := f.db.ListByVendor(ctx, v.Details.ID); len(staff) != 1 {
        t.Fatalf("expected roster of one, got %d", len(staff))
    }

    mails := f.n.byPurpose(notify.PurposeVendorPending)
    var toAdmin, broadcast bool
    for _, d := range mails {
        if d.Channel == notify.ChannelEmail && d.Recipient.Email == admin.Email {
            toAdmin = true
        }
        if d.Channel == notify.ChannelInApp && d.Recipient.Role == model.RoleAdmin {
            broadcast = true
        }
    }
    if !toAdmin || !broadcast {
        t.Fatalf("admins not notified: %+v", mails)
    }

    out, err := f.p.BeginLogin(ctx, "shop@example.com", "vendor")
    if err != nil {
        t.Fatalf("login: %v", err)
    }
    if !out.PendingApproval || out.ChallengeID != "" {
        t.Fatalf("unverified vendor login should report pending approval, got %+v", out)
    }

    if _, err := f.p.VerifyVendor(ctx, model.Actor{ID: admin.ID, Role: model.RoleAdmin}, res.Account.ID); err != nil {
        t.Fatalf("verify vendor: %v", err)
    }
    if len(f.n.byPurpose(notify.PurposeVendorVerified)) != 2 {
        t.Fatalf("vendor should get email and in-app notice")
    }
    out, err = f.p.BeginLogin(ctx, "shop@example.com", "vendor")
    if err != nil || out.ChallengeID != res.Account.ID {
        t.Fatalf("verified vendor login: %+v %v", out, err)
    }
    done, err := f.p.CompleteChallenge(ctx, out.ChallengeID, f.lastCode())
    if err != nil || done.Session == nil {
        t.Fatalf("verified vendor should get a session: %+v %v", done, err)
    }
}

func TestCustomerRegistrationIssuesSession(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    id, err := f.p.BeginRegistration(ctx, RegistrationRequest{Role: "customer", Email: "c@example.com", Name: "Asha", Phone: "9812345678"})
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    res, err := f.p.CompleteChallenge(ctx, id, f.lastCode())
    if err != nil {
        t.Fatalf("complete: %v", err)
    }
    if res.Session == nil || res.Session.Access.Token == "" || res.Session.Refresh.Raw == "" {
        t.Fatalf("expected session, got %+v", res)
    }
    if res.Account.Role != model.RoleCustomer {
        t.Fatalf("unexpected role %s", res.Account.Role)
    }
}

func TestAdminSelfRegistrationForbidden(t *testing.T) {
    f := newFixture(t, nil)
    _, err := f.p.BeginRegistration(context.Background(), RegistrationRequest{Role: "admin", Email: "a@example.com", Name: "A", Phone: "9812345678"})
    if !errors.Is(err, apperr.ErrForbiddenRole) {
        t.Fatalf("expected forbidden role, got %v", err)
    }
    _, err = f.p.BeginRegistration(context.Background(), RegistrationRequest{Role: "root", Email: "a@example.com", Name: "A", Phone: "9812345678"})
    if !errors.Is(err, apperr.ErrValidation) {
        t.Fatalf("expected validation error for unknown role, got %v", err)
    }
}

func TestRegistrationValidation(t *testing.T) {
    f := newFixture(t, nil)
    cases := map[string]func(r *RegistrationRequest){
        "bad email":       func(r *RegistrationRequest) { r.Email = "nope" },
        "bad phone":       func(r *RegistrationRequest) { r.Phone = "12345" },
        "missing store":   func(r *RegistrationRequest) { r.Store = nil },
        "bad postal code": func(r *RegistrationRequest) { r.Store.PostalCode = "41100" },
        "bad staff phone": func(r *RegistrationRequest) { r.Staff[0].Phone = "0000000000" },
    }
    for name, mutate := range cases {
        req := vendorRequest()
        st := *req.Store
        req.Store = &st
        req.Staff = append([]model.StaffDraft(nil), req.Staff...)
        mutate(&req)
        if _, err := f.p.BeginRegistration(context.Background(), req); !errors.Is(err, apperr.ErrValidation) {
            t.Fatalf("%s: expected validation error, got %v", name, err)
        }
    }
}

func TestDuplicateIdentityRejected(t *testing.T) {
    f := newFixture(t, nil)
    f.db.accounts["x"] = model.Account{ID: "x", Role: model.RoleCustomer, Email: "shop@example.com", Phone: "9000000009"}
    if _, err := f.p.BeginRegistration(context.Background(), vendorRequest()); !errors.Is(err, apperr.ErrDuplicateIdentity) {
        t.Fatalf("expected duplicate identity, got %v", err)
    }
}

func TestCodeIsSingleUse(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    id, err := f.p.BeginRegistration(ctx, RegistrationRequest{Role: "customer", Email: "c@example.com", Name: "Asha", Phone: "9812345678"})
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    code := f.lastCode()
    if _, err := f.p.CompleteChallenge(ctx, id, code); err != nil {
        t.Fatalf("first use: %v", err)
    }
    if _, err := f.p.CompleteChallenge(ctx, id, code); !errors.Is(err, apperr.ErrInvalidOrExpiredChallenge) {
        t.Fatalf("reuse should fail, got %v", err)
    }
}

func TestFailedRegistrationKeepsCode(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    id, err := f.p.BeginRegistration(ctx, RegistrationRequest{Role: "customer", Email: "c@example.com", Name: "Asha", Phone: "9812345678"})
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    code := f.lastCode()

    // the phone is claimed between the challenge and its completion
    f.db.accounts["x"] = model.Account{ID: "x", Role: model.RoleCustomer, Email: "other@example.com", Phone: "9812345678"}
    if _, err := f.p.CompleteChallenge(ctx, id, code); !errors.Is(err, apperr.ErrDuplicateIdentity) {
        t.Fatalf("expected duplicate identity, got %v", err)
    }
    for _, o := range f.db.otps {
        if o.SubjectID == id && o.IsUsed {
            t.Fatalf("failed registration must not consume the code")
        }
    }

    delete(f.db.accounts, "x")
    res, err := f.p.CompleteChallenge(ctx, id, code)
    if err != nil {
        t.Fatalf("retry with the same code: %v", err)
    }
    if res.Session == nil {
        t.Fatalf("expected session after retry, got %+v", res)
    }
}

func TestExpiredCodeRejected(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    acct := model.Account{ID: uuid.NewString(), Role: model.RoleCustomer, Email: "c@example.com", Phone: "9812345678"}
    f.db.accounts[acct.ID] = acct
    out, err := f.p.BeginLogin(ctx, "c@example.com", "customer")
    if err != nil {
        t.Fatalf("login: %v", err)
    }
    f.clock = f.clock.Add(11 * time.Minute)
    if _, err := f.p.CompleteChallenge(ctx, out.ChallengeID, f.lastCode()); !errors.Is(err, apperr.ErrInvalidOrExpiredChallenge) {
        t.Fatalf("expired code should fail, got %v", err)
    }
}

func TestWrongCodeBurnsAfterMaxAttempts(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    acct := model.Account{ID: uuid.NewString(), Role: model.RoleCustomer, Email: "c@example.com", Phone: "9812345678"}
    f.db.accounts[acct.ID] = acct
    out, err := f.p.BeginLogin(ctx, "c@example.com", "customer")
    if err != nil {
        t.Fatalf("login: %v", err)
    }
    for i := 0; i < 5; i++ {
        if _, err := f.p.CompleteChallenge(ctx, out.ChallengeID, "000000"); !errors.Is(err, apperr.ErrInvalidOrExpiredChallenge) {
            t.Fatalf("attempt %d: expected invalid challenge, got %v", i, err)
        }
    }
    if _, err := f.p.CompleteChallenge(ctx, out.ChallengeID, f.lastCode()); !errors.Is(err, apperr.ErrInvalidOrExpiredChallenge) {
        t.Fatalf("correct code after lockout should fail, got %v", err)
    }
}

func TestLoginUnknownAccount(t *testing.T) {
    f := newFixture(t, nil)
    if _, err := f.p.BeginLogin(context.Background(), "ghost@example.com", "customer"); !errors.Is(err, apperr.ErrNotFound) {
        t.Fatalf("expected not found, got %v", err)
    }
}

func TestDeactivatedVendorCannotLogin(t *testing.T) {
    f := newFixture(t, nil)
    acct := model.Account{ID: uuid.NewString(), Role: model.RoleVendor, Email: "v@example.com", Phone: "9812345670"}
    f.db.accounts[acct.ID] = acct
    f.db.vendors[acct.ID] = model.Vendor{Account: acct, Verification: model.VendorVerification{IsVerified: true, IsActive: false}}
    if _, err := f.p.BeginLogin(context.Background(), "v@example.com", "vendor"); !errors.Is(err, apperr.ErrUnauthorized) {
        t.Fatalf("expected unauthorized, got %v", err)
    }
}

func TestResendCooldown(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()

    f := newFixture(t, rdb)
    ctx := context.Background()
    req := RegistrationRequest{Role: "customer", Email: "c@example.com", Name: "Asha", Phone: "9812345678"}
    if _, err := f.p.BeginRegistration(ctx, req); err != nil {
        t.Fatalf("first: %v", err)
    }
    if _, err := f.p.BeginRegistration(ctx, req); !errors.Is(err, apperr.ErrChallengeRateLimited) {
        t.Fatalf("second within cooldown should be limited, got %v", err)
    }
    mr.FastForward(61 * time.Second)
    id, err := f.p.BeginRegistration(ctx, req)
    if err != nil {
        t.Fatalf("after cooldown: %v", err)
    }
    if len(f.db.pending) != 1 {
        t.Fatalf("re-registration should replace the pending row, have %d", len(f.db.pending))
    }
    if _, ok := f.db.pending[id]; !ok {
        t.Fatalf("latest registration should be pending")
    }
}

func TestRefreshRotates(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    id, _ := f.p.BeginRegistration(ctx, RegistrationRequest{Role: "customer", Email: "c@example.com", Name: "Asha", Phone: "9812345678"})
    res, err := f.p.CompleteChallenge(ctx, id, f.lastCode())
    if err != nil {
        t.Fatalf("complete: %v", err)
    }
    old := res.Session.Refresh.Raw
    sess, _, err := f.p.Refresh(ctx, old)
    if err != nil {
        t.Fatalf("refresh: %v", err)
    }
    if sess.Refresh.Raw == old {
        t.Fatalf("refresh token should rotate")
    }
    if _, _, err := f.p.Refresh(ctx, old); !errors.Is(err, apperr.ErrUnauthorized) {
        t.Fatalf("old token should be revoked, got %v", err)
    }
    if err := f.p.Logout(ctx, sess.Refresh.Raw); err != nil {
        t.Fatalf("logout: %v", err)
    }
    if _, _, err := f.p.Refresh(ctx, sess.Refresh.Raw); !errors.Is(err, apperr.ErrUnauthorized) {
        t.Fatalf("logged out token should fail, got %v", err)
    }
}

func TestAdminOnlyOperations(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    customer := model.Actor{ID: "c1", Role: model.RoleCustomer}
    if _, err := f.p.VerifyVendor(ctx, customer, "v1"); !errors.Is(err, apperr.ErrUnauthorized) {
        t.Fatalf("verify by customer: %v", err)
    }
    if err := f.p.SetVendorActive(ctx, customer, "v1", false); !errors.Is(err, apperr.ErrUnauthorized) {
        t.Fatalf("deactivate by customer: %v", err)
    }
    if _, err := f.p.ProvisionAdmin(ctx, customer, AdminRequest{Email: "x@example.com", Name: "X", Phone: "9812345678"}); !errors.Is(err, apperr.ErrUnauthorized) {
        t.Fatalf("provision by customer: %v", err)
    }

    admin := f.addAdmin(t)
    acct, err := f.p.ProvisionAdmin(ctx, model.Actor{ID: admin.ID, Role: model.RoleAdmin}, AdminRequest{Email: "New@Example.com", Name: "New", Phone: "9812345678"})
    if err != nil {
        t.Fatalf("provision admin: %v", err)
    }
    if acct.Role != model.RoleAdmin || acct.Email != "new@example.com" {
        t.Fatalf("unexpected admin %+v", acct)
    }
}

func TestStaffRoster(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    acct := model.Account{ID: uuid.NewString(), Role: model.RoleVendor, Email: "v@example.com", Phone: "9812345670"}
    f.db.accounts[acct.ID] = acct
    f.db.vendors[acct.ID] = model.Vendor{Account: acct, Details: model.VendorDetails{ID: "vd1", AccountID: acct.ID}, Verification: model.VendorVerification{IsVerified: true, IsActive: true}}
    actor := model.Actor{ID: acct.ID, Role: model.RoleVendor}

    m, err := f.p.AddStaff(ctx, actor, model.StaffDraft{Name: " Ajay ", Phone: "9123456780"})
    if err != nil {
        t.Fatalf("add staff: %v", err)
    }
    if m.VendorID != "vd1" || m.Name != "Ajay" {
        t.Fatalf("unexpected member %+v", m)
    }
    if err := f.p.RemoveStaff(ctx, actor, m.ID, "left"); err != nil {
        t.Fatalf("remove: %v", err)
    }
    if err := f.p.RemoveStaff(ctx, actor, m.ID, "again"); !errors.Is(err, apperr.ErrNotFound) {
        t.Fatalf("second removal should be not found, got %v", err)
    }
    list, _ := f.p.ListStaff(ctx, actor)
    if len(list) != 1 || list[0].Lifecycle.IsActive() || list[0].Lifecycle.Reason != "left" {
        t.Fatalf("removed entry should stay listed as removed: %+v", list)
    }
    if _, err := f.p.ListStaff(ctx, model.Actor{ID: "c", Role: model.RoleCustomer}); !errors.Is(err, apperr.ErrUnauthorized) {
        t.Fatalf("customer should not list staff, got %v", err)
    }
}
