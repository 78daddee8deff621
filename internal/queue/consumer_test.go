package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/iliyamo/warranty-claims/internal/model"
)

func TestHandleAppendsActivityLine(t *testing.T) {
    dir := t.TempDir()
    c := NewActivityConsumer("", dir, nil)

    ev := ActivityEvent{ActivityEntry: model.ActivityEntry{
        ActorID:    "adm-1",
        ActorRole:  model.RoleAdmin,
        ActionType: "adminReject",
        TargetType: "warranty",
        TargetID:   "ABC1234",
        Details:    map[string]any{"to": "rejected", "from": "pending"},
        At:         time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
    }}
    body, _ := json.Marshal(ev)
    for i := 0; i < 2; i++ {
        if err := c.handle(body); err != nil {
            t.Fatalf("handle: %v", err)
        }
    }

    raw, err := os.ReadFile(filepath.Join(dir, "activity.log"))
    if err != nil {
        t.Fatalf("read: %v", err)
    }
    lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
    if len(lines) != 2 {
        t.Fatalf("expected 2 lines, got %d", len(lines))
    }
    want := "[2024-05-01T10:00:00Z] adminReject | actor=adm-1 role=admin | warranty=ABC1234 | from=pending to=rejected"
    if lines[0] != want {
        t.Fatalf("unexpected line:\n got %q\nwant %q", lines[0], want)
    }
}

func TestHandleRejectsGarbage(t *testing.T) {
    c := NewActivityConsumer("", t.TempDir(), nil)
    if err := c.handle([]byte("{not json")); err == nil {
        t.Fatalf("expected unmarshal error")
    }
}
