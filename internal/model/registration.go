package model

import "time"

// StoreDetails is the vendor store block of a registration payload.
type StoreDetails struct {
    StoreName  string `json:"store_name"`
    Address    string `json:"address"`
    City       string `json:"city"`
    State      string `json:"state"`
    PostalCode string `json:"postal_code"`
}

// StaffDraft is one staff roster entry supplied during vendor registration
// or added later by the vendor.
type StaffDraft struct {
    Name  string `json:"name"`
    Phone string `json:"phone"`
}

// RegistrationPayload is stored as payload_json on a pending registration
// until the email challenge succeeds.
type RegistrationPayload struct {
    Name  string        `json:"name"`
    Phone string        `json:"phone"`
    Store *StoreDetails `json:"store,omitempty"`
    Staff []StaffDraft  `json:"staff,omitempty"`
}

// PendingRegistration is an unverified sign-up.  Its ID doubles as the
// challenge id handed to the client.
type PendingRegistration struct {
    ID        string
    Email     string
    Role      Role
    Payload   RegistrationPayload
    ExpiresAt time.Time
    CreatedAt time.Time
}

// OTPCode is a one-time passcode bound to either a pending registration id
// or an account id.  Only the bcrypt hash of the code is kept.
type OTPCode struct {
    ID        string
    SubjectID string
    CodeHash  string
    ExpiresAt time.Time
    IsUsed    bool
    Attempts  int
    CreatedAt time.Time
}
