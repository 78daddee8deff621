// Package queue defines message payloads exchanged over RabbitMQ and the
// publisher and consumer that move them.
package queue

import (
    "time"

    "github.com/iliyamo/warranty-claims/internal/model"
)

const (
    // InAppQueue carries notifications for the in-app inbox subsystem.
    InAppQueue = "notifications.inapp"
    // ActivityQueue carries audit entries consumed by ActivityConsumer.
    ActivityQueue = "activity.log"
)

// InAppEvent is published for every in-app notification.  Exactly one of
// AccountID and TargetRole is set: a direct notification or a broadcast.
type InAppEvent struct {
    AccountID  string     `json:"account_id,omitempty"`
    TargetRole model.Role `json:"target_role,omitempty"`
    Title      string     `json:"title"`
    Message    string     `json:"message"`
    Type       string     `json:"type"`
    Link       string     `json:"link,omitempty"`
    CreatedAt  string     `json:"created_at"`
}

// ActivityEvent wraps an audit entry on the wire.
type ActivityEvent struct {
    model.ActivityEntry
    PublishedAt string `json:"published_at"`
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
