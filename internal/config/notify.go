package config

import "time"

// NotifyConfig configures outbound email and the notification fan-out.
// An empty SMTPHost disables email delivery.
type NotifyConfig struct {
    SMTPHost      string
    SMTPPort      int
    SMTPUser      string
    SMTPPass      string
    From          string
    Timeout       time.Duration
    OperatorEmail string
    Parallelism   int
    MaxAttempts   int
    BaseBackoff   time.Duration
}

func LoadNotifyConfig() NotifyConfig {
    c := NotifyConfig{
        SMTPHost:      envStr("SMTP_HOST", ""),
        SMTPPort:      envInt("SMTP_PORT", 587),
        SMTPUser:      envStr("SMTP_USER", ""),
        SMTPPass:      envStr("SMTP_PASS", ""),
        From:          envStr("SMTP_FROM", "no-reply@localhost"),
        Timeout:       envDur("SMTP_TIMEOUT", 10*time.Second),
        OperatorEmail: envStr("OPERATOR_EMAIL", ""),
        Parallelism:   envInt("NOTIFY_PARALLELISM", 4),
        MaxAttempts:   envInt("NOTIFY_MAX_ATTEMPTS", 3),
        BaseBackoff:   envDur("NOTIFY_BASE_BACKOFF", time.Second),
    }
    if c.Parallelism < 1 { c.Parallelism = 1 }
    if c.MaxAttempts < 1 { c.MaxAttempts = 1 }
    return c
}
