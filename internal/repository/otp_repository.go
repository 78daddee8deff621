package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/warranty-claims/internal/model"
)

// OTPRepo stores hashed one-time passcodes.
type OTPRepo struct{ db *sql.DB }

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{db: db} }

// Create invalidates any unused code for the same subject and stores c.
func (r *OTPRepo) Create(ctx context.Context, c model.OTPCode) error {
    return withTx(ctx, r.db, "issue otp", func(tx *sql.Tx) error {
        if _, err := tx.ExecContext(ctx,
            `UPDATE otp_codes SET is_used = 1 WHERE subject_id = ? AND is_used = 0`, c.SubjectID); err != nil {
            return err
        }
        _, err := tx.ExecContext(ctx,
            `INSERT INTO otp_codes (id, subject_id, code_hash, expires_at, is_used, attempts, created_at) VALUES (?, ?, ?, ?, 0, 0, ?)`,
            c.ID, c.SubjectID, c.CodeHash, c.ExpiresAt, c.CreatedAt)
        return err
    })
}

// LatestLive returns the newest unused, unexpired code for subjectID.
func (r *OTPRepo) LatestLive(ctx context.Context, subjectID string, now time.Time) (model.OTPCode, error) {
    var c model.OTPCode
    err := r.db.QueryRowContext(ctx,
        `SELECT id, subject_id, code_hash, expires_at, is_used, attempts, created_at
           FROM otp_codes
          WHERE subject_id = ? AND is_used = 0 AND expires_at > ?
          ORDER BY created_at DESC LIMIT 1`,
        subjectID, now).Scan(&c.ID, &c.SubjectID, &c.CodeHash, &c.ExpiresAt, &c.IsUsed, &c.Attempts, &c.CreatedAt)
    return c, translate(err)
}

// IncrementAttempts records a failed verification and returns the new count.
func (r *OTPRepo) IncrementAttempts(ctx context.Context, id string) (int, error) {
    if _, err := r.db.ExecContext(ctx, `UPDATE otp_codes SET attempts = attempts + 1 WHERE id = ?`, id); err != nil {
        return 0, err
    }
    var n int
    err := r.db.QueryRowContext(ctx, `SELECT attempts FROM otp_codes WHERE id = ?`, id).Scan(&n)
    return n, translate(err)
}

// MarkUsed consumes a code.  It reports false when another request already
// consumed it, which makes a code verify at most once.
func (r *OTPRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
    res, err := r.db.ExecContext(ctx, `UPDATE otp_codes SET is_used = 1 WHERE id = ? AND is_used = 0`, id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}
