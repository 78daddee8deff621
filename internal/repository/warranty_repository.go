package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/warranty-claims/internal/model"
)

// ErrConflict is returned when a conditional write matched no row because
// the record changed after it was read.
var ErrConflict = errors.New("conflict")

// WarrantyRepo persists warranty records.  uid is the primary key, so the
// storage layer is the final guard against two records sharing a uid.
type WarrantyRepo struct{ db *sql.DB }

func NewWarrantyRepo(db *sql.DB) *WarrantyRepo { return &WarrantyRepo{db: db} }

const warrantyColumns = `uid, owner_id, installer_ref, status, rejection_reason, product_details_json, created_at, updated_at`

type rowScanner interface {
    Scan(dest ...any) error
}

// scanWarranty reads one row and refuses statuses outside the enum.
func scanWarranty(s rowScanner) (model.WarrantyRecord, error) {
    var (
        rec       model.WarrantyRecord
        installer sql.NullString
        reason    sql.NullString
        status    string
        details   []byte
    )
    if err := s.Scan(&rec.UID, &rec.OwnerUserID, &installer, &status, &reason, &details, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
        return model.WarrantyRecord{}, err
    }
    st, err := model.ParseWarrantyStatus(status)
    if err != nil {
        return model.WarrantyRecord{}, fmt.Errorf("warranty %s: %w", rec.UID, err)
    }
    rec.Status = st
    rec.InstallerRef = installer.String
    rec.RejectionReason = reason.String
    if len(details) > 0 {
        if err := json.Unmarshal(details, &rec.ProductDetails); err != nil {
            return model.WarrantyRecord{}, fmt.Errorf("warranty %s: decode product details: %w", rec.UID, err)
        }
    }
    return rec, nil
}

func nullString(s string) sql.NullString {
    return sql.NullString{String: s, Valid: s != ""}
}

// Get loads a record by uid.
func (r *WarrantyRepo) Get(ctx context.Context, uid string) (model.WarrantyRecord, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+warrantyColumns+` FROM warranty_records WHERE uid = ?`, uid)
    rec, err := scanWarranty(row)
    if err != nil {
        return model.WarrantyRecord{}, translate(err)
    }
    return rec, nil
}

type execer interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertWarranty(ctx context.Context, ex execer, rec model.WarrantyRecord) error {
    if !rec.Status.Valid() {
        return fmt.Errorf("insert warranty %s: invalid status %q", rec.UID, rec.Status)
    }
    details, err := json.Marshal(rec.ProductDetails)
    if err != nil {
        return fmt.Errorf("encode product details: %w", err)
    }
    const q = `INSERT INTO warranty_records (` + warrantyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    _, err = ex.ExecContext(ctx, q,
        rec.UID, rec.OwnerUserID, nullString(rec.InstallerRef), string(rec.Status),
        nullString(rec.RejectionReason), details, rec.CreatedAt, rec.UpdatedAt)
    return err
}

// Insert creates a new record.  A uid collision yields ErrDuplicateKey.
func (r *WarrantyRepo) Insert(ctx context.Context, rec model.WarrantyRecord) error {
    return translate(insertWarranty(ctx, r.db, rec))
}

// ReplaceRejected deletes the rejected row for rec.UID and inserts rec in
// its place, in one transaction.  The row must still be rejected and still
// carry prevRetry as its retry count; otherwise the transaction is rolled
// back and ErrConflict is returned.
func (r *WarrantyRepo) ReplaceRejected(ctx context.Context, rec model.WarrantyRecord, prevRetry int) error {
    return withTx(ctx, r.db, "replace warranty", func(tx *sql.Tx) error {
        res, err := tx.ExecContext(ctx,
            `DELETE FROM warranty_records WHERE uid = ? AND status = ?
               AND COALESCE(CAST(JSON_EXTRACT(product_details_json, '$.retry_count') AS UNSIGNED), 0) = ?`,
            rec.UID, string(model.StatusRejected), prevRetry)
        if err != nil {
            return err
        }
        n, err := res.RowsAffected()
        if err != nil {
            return err
        }
        if n == 0 {
            return ErrConflict
        }
        return insertWarranty(ctx, tx, rec)
    })
}

// UpdateStatus moves a record from one status to another only if it is
// still in the expected status.  It reports whether a row was changed.
// reason is stored only when the target status is rejected.
func (r *WarrantyRepo) UpdateStatus(ctx context.Context, uid string, from, to model.WarrantyStatus, reason string, at time.Time) (bool, error) {
    if !to.Valid() {
        return false, fmt.Errorf("update warranty %s: invalid status %q", uid, to)
    }
    if to != model.StatusRejected {
        reason = ""
    }
    res, err := r.db.ExecContext(ctx,
        `UPDATE warranty_records SET status = ?, rejection_reason = ?, updated_at = ? WHERE uid = ? AND status = ?`,
        string(to), nullString(reason), at, uid, string(from))
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

func (r *WarrantyRepo) list(ctx context.Context, q string, args ...any) ([]model.WarrantyRecord, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.WarrantyRecord{}
    for rows.Next() {
        rec, err := scanWarranty(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, rec)
    }
    return out, rows.Err()
}

// ListByOwner returns the records submitted by an account, newest first.
func (r *WarrantyRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.WarrantyRecord, error) {
    return r.list(ctx,
        `SELECT `+warrantyColumns+` FROM warranty_records WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
}

// ListByStatus returns all records in a status, oldest first so review
// queues are worked in arrival order.
func (r *WarrantyRepo) ListByStatus(ctx context.Context, status model.WarrantyStatus) ([]model.WarrantyRecord, error) {
    return r.list(ctx,
        `SELECT `+warrantyColumns+` FROM warranty_records WHERE status = ? ORDER BY created_at ASC`, string(status))
}

// ListAwaitingVendor returns pending_vendor records a vendor may review:
// installer linked to the vendor's roster, self-submitted, or carrying the
// vendor's store name in the free-text installer block.  Store names
// compare trimmed and case-insensitively; a blank name matches nothing.
func (r *WarrantyRepo) ListAwaitingVendor(ctx context.Context, vendorID, accountID, storeName string) ([]model.WarrantyRecord, error) {
    const q = `SELECT ` + warrantyColumns + ` FROM warranty_records
               WHERE status = ?
                 AND (installer_ref IN (SELECT id FROM staff_roster WHERE vendor_id = ?)
                      OR owner_id = ?
                      OR (? <> '' AND LOWER(TRIM(JSON_UNQUOTE(JSON_EXTRACT(product_details_json, '$.installer.store_name')))) = LOWER(?)))
               ORDER BY created_at ASC`
    storeName = strings.TrimSpace(storeName)
    return r.list(ctx, q, string(model.StatusPendingVendor), vendorID, accountID, storeName, storeName)
}
