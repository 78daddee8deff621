package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
)

// AccountRepo manages permanent accounts and their role records.
type AccountRepo struct{ db *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `id, role, email, phone, name, created_at`

func scanAccount(s rowScanner) (model.Account, error) {
    var (
        a    model.Account
        role string
    )
    if err := s.Scan(&a.ID, &role, &a.Email, &a.Phone, &a.Name, &a.CreatedAt); err != nil {
        return model.Account{}, err
    }
    a.Role = model.Role(role)
    return a, nil
}

func normEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// IdentityTaken reports whether an account already owns email or phone.
func (r *AccountRepo) IdentityTaken(ctx context.Context, email, phone string) (bool, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM accounts WHERE email = ? OR phone = ?`,
        normEmail(email), phone).Scan(&n)
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// GetByEmailRole fetches an account by normalized email and role.
func (r *AccountRepo) GetByEmailRole(ctx context.Context, email string, role model.Role) (model.Account, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+accountColumns+` FROM accounts WHERE email = ? AND role = ? LIMIT 1`,
        normEmail(email), string(role))
    a, err := scanAccount(row)
    return a, translate(err)
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (model.Account, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ? LIMIT 1`, id)
    a, err := scanAccount(row)
    return a, translate(err)
}

// ListByRole returns every account with the given role.
func (r *AccountRepo) ListByRole(ctx context.Context, role model.Role) ([]model.Account, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+accountColumns+` FROM accounts WHERE role = ? ORDER BY created_at`, string(role))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Account
    for rows.Next() {
        a, err := scanAccount(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    return out, rows.Err()
}

func insertAccount(ctx context.Context, tx *sql.Tx, a model.Account) error {
    _, err := tx.ExecContext(ctx,
        `INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
        a.ID, string(a.Role), normEmail(a.Email), a.Phone, a.Name, a.CreatedAt)
    return err
}

// CreateFromRegistration turns a verified pending registration into an
// account.  In one transaction it inserts the account and its role record,
// for vendors also the store details, an unverified verification row and
// the staff roster, and finally deletes the pending row.  The passcode otpID
// is consumed inside the same transaction so a failed creation leaves it
// usable.  Only customer and vendor registrations are accepted.
func (r *AccountRepo) CreateFromRegistration(ctx context.Context, reg model.PendingRegistration, otpID string, now time.Time) (model.Account, error) {
    if reg.Role != model.RoleCustomer && reg.Role != model.RoleVendor {
        return model.Account{}, apperr.ErrInvalidRegistrationRole
    }
    acct := model.Account{
        ID:        uuid.NewString(),
        Role:      reg.Role,
        Email:     normEmail(reg.Email),
        Phone:     reg.Payload.Phone,
        Name:      reg.Payload.Name,
        CreatedAt: now,
    }
    err := withTx(ctx, r.db, "create account", func(tx *sql.Tx) error {
        if err := execOne(ctx, tx, `UPDATE otp_codes SET is_used = 1 WHERE id = ? AND is_used = 0`, otpID); err != nil {
            return err
        }
        if err := insertAccount(ctx, tx, acct); err != nil {
            return err
        }
        switch reg.Role {
        case model.RoleCustomer:
            if _, err := tx.ExecContext(ctx,
                `INSERT INTO customer_details (account_id, full_name) VALUES (?, ?)`,
                acct.ID, acct.Name); err != nil {
                return err
            }
        case model.RoleVendor:
            if err := insertVendor(ctx, tx, acct.ID, reg.Payload, now); err != nil {
                return err
            }
        }
        return execOne(ctx, tx, `DELETE FROM pending_registrations WHERE id = ?`, reg.ID)
    })
    if err != nil {
        return model.Account{}, err
    }
    return acct, nil
}

// execOne runs a conditional write that must touch exactly one row.
func execOne(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
    res, err := tx.ExecContext(ctx, query, args...)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err != nil {
        return err
    } else if n != 1 {
        return ErrConflict
    }
    return nil
}

func insertVendor(ctx context.Context, tx *sql.Tx, accountID string, p model.RegistrationPayload, now time.Time) error {
    store := model.StoreDetails{}
    if p.Store != nil {
        store = *p.Store
    }
    vendorID := uuid.NewString()
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO vendor_details (id, account_id, store_name, address, city, state, postal_code) VALUES (?, ?, ?, ?, ?, ?, ?)`,
        vendorID, accountID, store.StoreName, store.Address, store.City, store.State, store.PostalCode); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO vendor_verification (account_id, is_verified, is_active, verified_at) VALUES (?, 0, 1, NULL)`,
        accountID); err != nil {
        return err
    }
    for _, s := range p.Staff {
        if _, err := tx.ExecContext(ctx,
            `INSERT INTO staff_roster (id, vendor_id, name, phone, is_active, created_at) VALUES (?, ?, ?, ?, 1, ?)`,
            uuid.NewString(), vendorID, s.Name, s.Phone, now); err != nil {
            return err
        }
    }
    return nil
}

// CreateAdmin inserts an admin account and its admin_details row.
func (r *AccountRepo) CreateAdmin(ctx context.Context, a model.Account) error {
    a.Role = model.RoleAdmin
    return withTx(ctx, r.db, "create admin", func(tx *sql.Tx) error {
        if err := insertAccount(ctx, tx, a); err != nil {
            return err
        }
        _, err := tx.ExecContext(ctx,
            `INSERT INTO admin_details (account_id, full_name) VALUES (?, ?)`, a.ID, a.Name)
        return err
    })
}
