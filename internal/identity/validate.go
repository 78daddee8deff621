package identity

import (
    "regexp"
    "strings"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
)

var (
    mobilePattern     = regexp.MustCompile(`^[6-9][0-9]{9}$`)
    emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
    postalCodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func validEmail(s string) bool  { return emailPattern.MatchString(s) }
func validMobile(s string) bool { return mobilePattern.MatchString(s) }

func required(field, v string) error {
    if strings.TrimSpace(v) == "" {
        return apperr.Invalid(field, "required")
    }
    return nil
}

func validateContact(email, phone, name string) error {
    if !validEmail(email) {
        return apperr.Invalid("email", "invalid email address")
    }
    if !validMobile(phone) {
        return apperr.Invalid("phone", "must be a 10 digit mobile number")
    }
    return required("name", name)
}

func validateStore(s *model.StoreDetails) error {
    if s == nil {
        return apperr.Invalid("store", "store details required for vendors")
    }
    for _, f := range []struct{ name, v string }{
        {"store.store_name", s.StoreName},
        {"store.address", s.Address},
        {"store.city", s.City},
        {"store.state", s.State},
    } {
        if err := required(f.name, f.v); err != nil {
            return err
        }
    }
    if !postalCodePattern.MatchString(strings.TrimSpace(s.PostalCode)) {
        return apperr.Invalid("store.postal_code", "must be 6 digits")
    }
    return nil
}

// ValidateStaff checks one roster entry.
func ValidateStaff(d model.StaffDraft) error {
    if err := required("staff.name", d.Name); err != nil {
        return err
    }
    if !validMobile(strings.TrimSpace(d.Phone)) {
        return apperr.Invalid("staff.phone", "must be a 10 digit mobile number")
    }
    return nil
}

func trimStore(s *model.StoreDetails) *model.StoreDetails {
    if s == nil {
        return nil
    }
    return &model.StoreDetails{
        StoreName:  strings.TrimSpace(s.StoreName),
        Address:    strings.TrimSpace(s.Address),
        City:       strings.TrimSpace(s.City),
        State:      strings.TrimSpace(s.State),
        PostalCode: strings.TrimSpace(s.PostalCode),
    }
}
