package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/warranty-claims/internal/logger"
)

// ActivityConsumer drains the activity.log queue into a local append-only
// file, one line per entry.
type ActivityConsumer struct {
    url string
    dir string
    log *zap.Logger
}

func NewActivityConsumer(url, dir string, log *zap.Logger) *ActivityConsumer {
    if dir == "" {
        dir = "logs"
    }
    return &ActivityConsumer{url: url, dir: dir, log: logger.OrNop(log).Named("activity-consumer")}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with capped exponential backoff.
func (c *ActivityConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *ActivityConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("set qos failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(ActivityQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ActivityQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(d.Body); err != nil {
                c.log.Error("handle message failed", zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *ActivityConsumer) handle(body []byte) error {
    var ev ActivityEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(c.dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", c.dir, err)
    }
    f, err := os.OpenFile(filepath.Join(c.dir, "activity.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(formatActivity(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// formatActivity renders one human-friendly line with details sorted by key.
func formatActivity(ev ActivityEvent) string {
    var details []string
    for k, v := range ev.Details {
        details = append(details, fmt.Sprintf("%s=%v", k, v))
    }
    sort.Strings(details)
    return fmt.Sprintf("[%s] %s | actor=%s role=%s | %s=%s | %s\n",
        ev.At.UTC().Format(time.RFC3339), ev.ActionType, ev.ActorID, ev.ActorRole,
        ev.TargetType, ev.TargetID, strings.Join(details, " "))
}
