package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/warranty-claims/internal/apperr"
)

// withTx runs fn inside a transaction.  Any error from fn, or from Commit,
// rolls the whole transaction back and is returned wrapped with
// apperr.ErrTransactionFailure so callers can still match the cause.
func withTx(ctx context.Context, db *sql.DB, op string, fn func(tx *sql.Tx) error) error {
    tx, err := db.BeginTx(ctx, nil)
    if err != nil {
        return apperr.TxFailed(op, err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := fn(tx); err != nil {
        return apperr.TxFailed(op, translate(err))
    }
    if err := tx.Commit(); err != nil {
        return apperr.TxFailed(op, err)
    }
    committed = true
    return nil
}
