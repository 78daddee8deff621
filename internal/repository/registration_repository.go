package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "time"

    "github.com/iliyamo/warranty-claims/internal/model"
)

// PendingRepo stores unverified registrations.  Expiry is enforced at read
// time; expired rows are purged opportunistically.
type PendingRepo struct{ db *sql.DB }

func NewPendingRepo(db *sql.DB) *PendingRepo { return &PendingRepo{db: db} }

// PurgeExpired deletes pending registrations whose expiry has passed.
func (r *PendingRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
    res, err := r.db.ExecContext(ctx, `DELETE FROM pending_registrations WHERE expires_at <= ?`, now)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// Replace drops any pending registration for the same email and inserts
// reg, in one transaction.
func (r *PendingRepo) Replace(ctx context.Context, reg model.PendingRegistration) error {
    payload, err := json.Marshal(reg.Payload)
    if err != nil {
        return fmt.Errorf("encode registration payload: %w", err)
    }
    return withTx(ctx, r.db, "replace pending registration", func(tx *sql.Tx) error {
        if _, err := tx.ExecContext(ctx,
            `DELETE FROM pending_registrations WHERE email = ?`, normEmail(reg.Email)); err != nil {
            return err
        }
        _, err := tx.ExecContext(ctx,
            `INSERT INTO pending_registrations (id, email, role, payload_json, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
            reg.ID, normEmail(reg.Email), string(reg.Role), payload, reg.ExpiresAt, reg.CreatedAt)
        return err
    })
}

// GetLive returns the pending registration with id if it has not expired.
func (r *PendingRepo) GetLive(ctx context.Context, id string, now time.Time) (model.PendingRegistration, error) {
    var (
        reg     model.PendingRegistration
        role    string
        payload []byte
    )
    err := r.db.QueryRowContext(ctx,
        `SELECT id, email, role, payload_json, expires_at, created_at FROM pending_registrations WHERE id = ? AND expires_at > ?`,
        id, now).Scan(&reg.ID, &reg.Email, &role, &payload, &reg.ExpiresAt, &reg.CreatedAt)
    if err != nil {
        return model.PendingRegistration{}, translate(err)
    }
    reg.Role = model.Role(role)
    if err := json.Unmarshal(payload, &reg.Payload); err != nil {
        return model.PendingRegistration{}, fmt.Errorf("decode registration payload: %w", err)
    }
    return reg, nil
}
