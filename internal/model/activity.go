package model

import "time"

// ActivityEntry is one audit line describing who did what to which record.
// It is written to a best-effort sink and never read back by the core.
type ActivityEntry struct {
    ActorID    string         `json:"actor_id"`
    ActorRole  Role           `json:"actor_role"`
    ActionType string         `json:"action_type"`
    TargetType string         `json:"target_type"`
    TargetID   string         `json:"target_id"`
    Details    map[string]any `json:"details,omitempty"`
    At         time.Time      `json:"at"`
}
