package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
)

// VendorRepo reads vendor store details and manages the approval gate in
// vendor_verification.
type VendorRepo struct{ db *sql.DB }

func NewVendorRepo(db *sql.DB) *VendorRepo { return &VendorRepo{db: db} }

const vendorSelect = `SELECT a.id, a.role, a.email, a.phone, a.name, a.created_at,
       d.id, d.store_name, d.address, d.city, d.state, d.postal_code,
       v.is_verified, v.is_active, v.verified_at
  FROM accounts a
  JOIN vendor_details d ON d.account_id = a.id
  JOIN vendor_verification v ON v.account_id = a.id`

func scanVendor(s rowScanner) (model.Vendor, error) {
    var (
        v          model.Vendor
        role       string
        verifiedAt sql.NullTime
    )
    err := s.Scan(&v.Account.ID, &role, &v.Account.Email, &v.Account.Phone, &v.Account.Name, &v.Account.CreatedAt,
        &v.Details.ID, &v.Details.StoreName, &v.Details.Address, &v.Details.City, &v.Details.State, &v.Details.PostalCode,
        &v.Verification.IsVerified, &v.Verification.IsActive, &verifiedAt)
    if err != nil {
        return model.Vendor{}, err
    }
    v.Account.Role = model.Role(role)
    v.Details.AccountID = v.Account.ID
    v.Verification.AccountID = v.Account.ID
    if verifiedAt.Valid {
        t := verifiedAt.Time.UTC()
        v.Verification.VerifiedAt = &t
    }
    return v, nil
}

// VendorByAccount loads the vendor bundle for an account id.
func (r *VendorRepo) VendorByAccount(ctx context.Context, accountID string) (model.Vendor, error) {
    v, err := scanVendor(r.db.QueryRowContext(ctx, vendorSelect+` WHERE a.id = ?`, accountID))
    return v, translate(err)
}

// VendorByID loads the vendor bundle for a vendor_details id.
func (r *VendorRepo) VendorByID(ctx context.Context, vendorID string) (model.Vendor, error) {
    v, err := scanVendor(r.db.QueryRowContext(ctx, vendorSelect+` WHERE d.id = ?`, vendorID))
    return v, translate(err)
}

// ListUnverified returns vendors still waiting for admin approval.
func (r *VendorRepo) ListUnverified(ctx context.Context) ([]model.Vendor, error) {
    rows, err := r.db.QueryContext(ctx, vendorSelect+` WHERE v.is_verified = 0 ORDER BY a.created_at`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Vendor{}
    for rows.Next() {
        v, err := scanVendor(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    return out, rows.Err()
}

func affectedOne(res sql.Result, err error) error {
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return apperr.ErrNotFound
    }
    return nil
}

// SetVerified marks a vendor as approved.
func (r *VendorRepo) SetVerified(ctx context.Context, accountID string, at time.Time) error {
    return affectedOne(r.db.ExecContext(ctx,
        `UPDATE vendor_verification SET is_verified = 1, verified_at = ? WHERE account_id = ?`,
        at, accountID))
}

// SetActive enables or disables a vendor account.
func (r *VendorRepo) SetActive(ctx context.Context, accountID string, active bool) error {
    return affectedOne(r.db.ExecContext(ctx,
        `UPDATE vendor_verification SET is_active = ? WHERE account_id = ?`,
        active, accountID))
}
