package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/warranty-claims/internal/model"
)

// StaffRepo manages the installer roster.  Rows are soft-deleted only;
// warranty records keep referencing removed entries by id.
type StaffRepo struct{ db *sql.DB }

func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{db: db} }

const staffColumns = `id, vendor_id, name, phone, is_active, removed_at, removed_reason, created_at`

func scanStaff(s rowScanner) (model.StaffMember, error) {
    var (
        m         model.StaffMember
        active    bool
        removedAt sql.NullTime
        reason    sql.NullString
    )
    if err := s.Scan(&m.ID, &m.VendorID, &m.Name, &m.Phone, &active, &removedAt, &reason, &m.CreatedAt); err != nil {
        return model.StaffMember{}, err
    }
    if active {
        m.Lifecycle = model.ActiveLifecycle()
    } else {
        at := removedAt.Time
        if !removedAt.Valid {
            at = m.CreatedAt
        }
        m.Lifecycle = model.RemovedLifecycle(at, reason.String)
    }
    return m, nil
}

// StaffByID loads a roster entry regardless of lifecycle state.
func (r *StaffRepo) StaffByID(ctx context.Context, id string) (model.StaffMember, error) {
    m, err := scanStaff(r.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff_roster WHERE id = ?`, id))
    return m, translate(err)
}

// ListByVendor returns the vendor's roster, active entries first.
func (r *StaffRepo) ListByVendor(ctx context.Context, vendorID string) ([]model.StaffMember, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+staffColumns+` FROM staff_roster WHERE vendor_id = ? ORDER BY is_active DESC, created_at`, vendorID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.StaffMember{}
    for rows.Next() {
        m, err := scanStaff(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// Add appends an active entry to a vendor's roster.
func (r *StaffRepo) Add(ctx context.Context, vendorID string, d model.StaffDraft, at time.Time) (model.StaffMember, error) {
    m := model.StaffMember{
        ID:        uuid.NewString(),
        VendorID:  vendorID,
        Name:      d.Name,
        Phone:     d.Phone,
        Lifecycle: model.ActiveLifecycle(),
        CreatedAt: at,
    }
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO staff_roster (id, vendor_id, name, phone, is_active, created_at) VALUES (?, ?, ?, ?, 1, ?)`,
        m.ID, m.VendorID, m.Name, m.Phone, m.CreatedAt)
    if err != nil {
        return model.StaffMember{}, translate(err)
    }
    return m, nil
}

// Remove soft-deletes an active entry owned by vendorID.  A missing,
// foreign or already removed entry yields apperr.ErrNotFound.
func (r *StaffRepo) Remove(ctx context.Context, vendorID, id string, lc model.StaffLifecycle) error {
    var at time.Time
    if lc.RemovedAt != nil {
        at = *lc.RemovedAt
    }
    return affectedOne(r.db.ExecContext(ctx,
        `UPDATE staff_roster SET is_active = 0, removed_at = ?, removed_reason = ? WHERE id = ? AND vendor_id = ? AND is_active = 1`,
        at, nullString(lc.Reason), id, vendorID))
}
