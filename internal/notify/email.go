package notify

import (
    "context"
    "fmt"
    "time"

    "github.com/wneessen/go-mail"
)

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
    Host     string
    Port     int
    Username string
    Password string
    From     string
    Timeout  time.Duration
}

// SMTPSender implements EmailSender over SMTP.  A new connection is opened
// per message.
type SMTPSender struct {
    cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender { return &SMTPSender{cfg: cfg} }

// Send delivers one HTML message.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
    m := mail.NewMsg()
    if err := m.From(s.cfg.From); err != nil {
        return fmt.Errorf("smtp from: %w", err)
    }
    if err := m.To(to); err != nil {
        return fmt.Errorf("smtp to: %w", err)
    }
    m.Subject(subject)
    m.SetBodyString(mail.TypeTextHTML, htmlBody)

    opts := []mail.Option{
        mail.WithPort(s.cfg.Port),
        mail.WithTLSPolicy(mail.TLSOpportunistic),
    }
    if s.cfg.Username != "" {
        opts = append(opts,
            mail.WithSMTPAuth(mail.SMTPAuthPlain),
            mail.WithUsername(s.cfg.Username),
            mail.WithPassword(s.cfg.Password))
    }
    if s.cfg.Timeout > 0 {
        opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
    }
    c, err := mail.NewClient(s.cfg.Host, opts...)
    if err != nil {
        return fmt.Errorf("smtp client: %w", err)
    }
    if err := c.DialAndSendWithContext(ctx, m); err != nil {
        return fmt.Errorf("smtp send: %w", err)
    }
    return nil
}
