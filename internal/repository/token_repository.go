package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/warranty-claims/internal/apperr"
)

// TokenRepo persists and validates refresh tokens.  Only the SHA-256 hash
// of a token is stored, in token_hash.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, accountID, tokenHash string, exp time.Time) error {
    _, err := r.DB.ExecContext(ctx,
        "INSERT INTO refresh_tokens (account_id, token_hash, expires_at) VALUES (?,?,?)",
        accountID, tokenHash, exp)
    return err
}

// ValidateRefresh returns the account id of a live token.  Revoked, expired
// and unknown tokens all yield apperr.ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (string, error) {
    var (
        accountID string
        expiresAt time.Time
        revokedAt sql.NullTime
    )
    err := r.DB.QueryRowContext(ctx,
        "SELECT account_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
        tokenHash).Scan(&accountID, &expiresAt, &revokedAt)
    if err != nil {
        return "", translate(err)
    }
    if revokedAt.Valid || now.After(expiresAt) {
        return "", apperr.ErrNotFound
    }
    return accountID, nil
}

// RevokeByHash marks a token as revoked.  It reports false when the token
// was already revoked or never existed, so a rotation race has one winner.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) (bool, error) {
    res, err := r.DB.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
        tokenHash)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n == 1, err
}

// RevokeAllForAccount revokes every active token of an account.
func (r *TokenRepo) RevokeAllForAccount(ctx context.Context, accountID string) error {
    _, err := r.DB.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE account_id=? AND revoked_at IS NULL",
        accountID)
    return err
}
