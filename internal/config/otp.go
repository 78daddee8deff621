package config

import "time"

// OTPConfig controls emailed one-time passcodes and pending registrations.
type OTPConfig struct {
    Length         int
    TTL            time.Duration
    MaxAttempts    int
    PendingTTL     time.Duration
    ResendCooldown time.Duration
}

func LoadOTPConfig() OTPConfig {
    c := OTPConfig{
        Length:         envInt("OTP_LENGTH", 6),
        TTL:            envDur("OTP_TTL", 10*time.Minute),
        MaxAttempts:    envInt("OTP_MAX_ATTEMPTS", 5),
        PendingTTL:     envDur("PENDING_REGISTRATION_TTL", 30*time.Minute),
        ResendCooldown: envDur("OTP_RESEND_COOLDOWN", time.Minute),
    }
    if c.Length < 4 { c.Length = 4 }
    if c.PendingTTL < c.TTL { c.PendingTTL = c.TTL }
    return c
}
