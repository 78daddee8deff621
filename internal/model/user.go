package model

import (
    "strings"
    "time"
)

// Role is the account role stored in accounts.role and carried in the
// "role" claim of access tokens.
type Role string

const (
    RoleCustomer Role = "customer"
    RoleVendor   Role = "vendor"
    RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    switch r {
    case RoleCustomer, RoleVendor, RoleAdmin:
        return true
    }
    return false
}

// ParseRole normalizes a free-form role string.  The second return value is
// false when the input does not name a known role.
func ParseRole(s string) (Role, bool) {
    r := Role(strings.ToLower(strings.TrimSpace(s)))
    return r, r.Valid()
}

// Actor is the authenticated caller of a core operation.  It is built once
// by the HTTP layer from the access token and passed explicitly to every
// call; the core never reads session state from anywhere else.
type Actor struct {
    ID   string
    Role Role
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsVendor() bool { return a.Role == RoleVendor }

// Account represents a permanent row in the `accounts` table.  Role specific
// data lives in customer_details, vendor_details or admin_details.
//
// Fields:
//  ID        – uuid primary key.
//  Role      – customer, vendor or admin.
//  Email     – unique, lower-cased email address.
//  Phone     – unique 10-digit mobile number.
//  Name      – display name taken from the role record.
//  CreatedAt – timestamp of creation.
type Account struct {
    ID        string    `json:"id"`
    Role      Role      `json:"role"`
    Email     string    `json:"email"`
    Phone     string    `json:"phone"`
    Name      string    `json:"name"`
    CreatedAt time.Time `json:"created_at"`
}

// VendorDetails mirrors the vendor_details table: the store a vendor
// account operates.  StoreName is also used by the legacy authorization
// fallback for warranty records that predate installer linkage.
type VendorDetails struct {
    ID         string `json:"id"`
    AccountID  string `json:"account_id"`
    StoreName  string `json:"store_name"`
    Address    string `json:"address"`
    City       string `json:"city"`
    State      string `json:"state"`
    PostalCode string `json:"postal_code"`
}

// VendorVerification is one-to-one with a vendor account.  A vendor cannot
// obtain a session token until IsVerified is true.
type VendorVerification struct {
    AccountID  string     `json:"account_id"`
    IsVerified bool       `json:"is_verified"`
    IsActive   bool       `json:"is_active"`
    VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// Vendor bundles everything known about a vendor account.
type Vendor struct {
    Account      Account            `json:"account"`
    Details      VendorDetails      `json:"details"`
    Verification VendorVerification `json:"verification"`
}
