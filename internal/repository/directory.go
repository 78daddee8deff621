package repository

import "database/sql"

// Directory combines the read paths of the account, vendor and staff repos
// for the franchise checks and notification routing.
type Directory struct {
    *AccountRepo
    *VendorRepo
    *StaffRepo
}

func NewDirectory(db *sql.DB) *Directory {
    return &Directory{
        AccountRepo: NewAccountRepo(db),
        VendorRepo:  NewVendorRepo(db),
        StaffRepo:   NewStaffRepo(db),
    }
}
