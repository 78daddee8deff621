package model

import (
    "encoding/json"
    "fmt"
    "strings"
    "time"
)

// WarrantyStatus is the lifecycle state of a warranty record.  The four
// values below are the only ones ever written to or read from
// warranty_records.status.
type WarrantyStatus string

const (
    StatusPendingVendor WarrantyStatus = "pending_vendor"
    StatusPending       WarrantyStatus = "pending"
    StatusValidated     WarrantyStatus = "validated"
    StatusRejected      WarrantyStatus = "rejected"
)

// Valid reports whether s is a known warranty status.
func (s WarrantyStatus) Valid() bool {
    switch s {
    case StatusPendingVendor, StatusPending, StatusValidated, StatusRejected:
        return true
    }
    return false
}

// Terminal reports whether no transition may leave s.
func (s WarrantyStatus) Terminal() bool { return s == StatusValidated }

// ParseWarrantyStatus converts a stored or user supplied value into a
// WarrantyStatus, failing for anything outside the enum.
func ParseWarrantyStatus(v string) (WarrantyStatus, error) {
    s := WarrantyStatus(strings.ToLower(strings.TrimSpace(v)))
    if !s.Valid() {
        return "", fmt.Errorf("unknown warranty status %q", v)
    }
    return s, nil
}

// ProductCategory selects which typed details block of ProductDetails is set.
type ProductCategory string

const (
    CategorySeatCover ProductCategory = "seat_cover"
    CategoryEVProduct ProductCategory = "ev_product"
)

// SeatCoverDetails describes an installed seat cover.
type SeatCoverDetails struct {
    Brand            string `json:"brand"`
    Model            string `json:"model"`
    VehicleMake      string `json:"vehicle_make"`
    VehicleModel     string `json:"vehicle_model"`
    VehicleNumber    string `json:"vehicle_number"`
    InstallationDate string `json:"installation_date"`
    InvoiceNumber    string `json:"invoice_number,omitempty"`
}

// EVProductDetails describes an installed EV accessory (films, coatings,
// protection kits).
type EVProductDetails struct {
    ProductName      string `json:"product_name"`
    LotNumber        string `json:"lot_number,omitempty"`
    RollNumber       string `json:"roll_number,omitempty"`
    VehicleMake      string `json:"vehicle_make"`
    VehicleModel     string `json:"vehicle_model"`
    VehicleNumber    string `json:"vehicle_number"`
    InstallationDate string `json:"installation_date"`
}

// CustomerContact is the end customer the warranty is issued to.
type CustomerContact struct {
    Name  string `json:"name"`
    Email string `json:"email"`
    Phone string `json:"phone"`
}

// InstallerContact is the free-text installer and store information typed
// in at submission time.  Records created before installer linkage existed
// only carry this block, which is why StoreName takes part in franchise
// authorization.
type InstallerContact struct {
    Name       string `json:"name,omitempty"`
    Phone      string `json:"phone,omitempty"`
    StoreName  string `json:"store_name,omitempty"`
    StoreEmail string `json:"store_email,omitempty"`
}

// Present reports whether any installer contact information was supplied.
func (i InstallerContact) Present() bool {
    return strings.TrimSpace(i.Phone) != "" ||
        strings.TrimSpace(i.StoreEmail) != "" ||
        strings.TrimSpace(i.StoreName) != ""
}

// ProductDetails is the typed payload persisted in product_details_json.
// Exactly one of SeatCover / EVProduct is set, chosen by Category.  Extra
// holds attributes this version does not model; they round-trip untouched.
type ProductDetails struct {
    Category    ProductCategory            `json:"category"`
    SeatCover   *SeatCoverDetails          `json:"seat_cover,omitempty"`
    EVProduct   *EVProductDetails          `json:"ev_product,omitempty"`
    Customer    CustomerContact            `json:"customer"`
    Installer   InstallerContact           `json:"installer"`
    Attachments []string                   `json:"attachments,omitempty"`
    RetryCount  int                        `json:"retry_count"`
    Extra       map[string]json.RawMessage `json:"extra,omitempty"`
}

// WarrantyRecord mirrors a row in warranty_records.
//
// Fields:
//  UID             – caller supplied product serial; primary key.
//  Status          – one of the WarrantyStatus values.
//  OwnerUserID     – account that submitted the record.
//  InstallerRef    – optional staff_roster id of the installer.
//  RejectionReason – set only while Status is rejected.
//  ProductDetails  – typed payload, stored as JSON.
type WarrantyRecord struct {
    UID             string         `json:"uid"`
    Status          WarrantyStatus `json:"status"`
    OwnerUserID     string         `json:"owner_user_id"`
    InstallerRef    string         `json:"installer_ref,omitempty"`
    RejectionReason string         `json:"rejection_reason,omitempty"`
    ProductDetails  ProductDetails `json:"product_details"`
    CreatedAt       time.Time      `json:"created_at"`
    UpdatedAt       time.Time      `json:"updated_at"`
}

// HasInstallerContact reports whether the record names an installer either
// through roster linkage or through free-text contact details.
func (r WarrantyRecord) HasInstallerContact() bool {
    return r.InstallerRef != "" || r.ProductDetails.Installer.Present()
}

// WarrantyDraft is the caller supplied part of a submission or resubmission.
type WarrantyDraft struct {
    UID            string         `json:"uid"`
    InstallerRef   string         `json:"installer_ref,omitempty"`
    ProductDetails ProductDetails `json:"product_details"`
}
