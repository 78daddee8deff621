package model

import "time"

// StaffState is the lifecycle state of a staff roster entry.
type StaffState string

const (
    StaffActive  StaffState = "active"
    StaffRemoved StaffState = "removed"
)

// StaffLifecycle replaces the is_active / removed_at / removed_reason column
// triple with a single value.  RemovedAt and Reason are only meaningful when
// State is StaffRemoved.
type StaffLifecycle struct {
    State     StaffState `json:"state"`
    RemovedAt *time.Time `json:"removed_at,omitempty"`
    Reason    string     `json:"removed_reason,omitempty"`
}

// ActiveLifecycle returns the lifecycle of a live roster entry.
func ActiveLifecycle() StaffLifecycle { return StaffLifecycle{State: StaffActive} }

// RemovedLifecycle returns the lifecycle of a soft-deleted entry.
func RemovedLifecycle(at time.Time, reason string) StaffLifecycle {
    t := at.UTC()
    return StaffLifecycle{State: StaffRemoved, RemovedAt: &t, Reason: reason}
}

func (l StaffLifecycle) IsActive() bool { return l.State == StaffActive }

// StaffMember is an installer (manpower) entry owned by exactly one
// VendorDetails row.  Entries are never hard-deleted because warranty
// records reference them by id through installer_ref.
type StaffMember struct {
    ID        string         `json:"id"`
    VendorID  string         `json:"vendor_id"`
    Name      string         `json:"name"`
    Phone     string         `json:"phone"`
    Lifecycle StaffLifecycle `json:"lifecycle"`
    CreatedAt time.Time      `json:"created_at"`
}
