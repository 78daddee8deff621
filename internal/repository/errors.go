// Package repository implements persistence over database/sql and MySQL.
// Sentinel values defined here let the core packages distinguish storage
// conditions without depending on driver types.  Absent rows are reported
// as apperr.ErrNotFound.
package repository

import (
    "database/sql"
    "errors"
    "fmt"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/warranty-claims/internal/apperr"
)

// ErrDuplicateKey is returned when an insert violates a unique or primary
// key constraint (MySQL error 1062).  The warranty ledger translates it to
// apperr.ErrDuplicateIdentifier; account creation to
// apperr.ErrDuplicateIdentity.
var ErrDuplicateKey = errors.New("duplicate key")

const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL duplicate entry error.
func isDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
    switch {
    case err == nil:
        return nil
    case errors.Is(err, sql.ErrNoRows):
        return apperr.ErrNotFound
    case isDuplicateKey(err):
        return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
    }
    return err
}
