package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// Optional settings.  Unset or unparsable values fall back to the default.

func envStr(key, def string) string {
    if v := strings.TrimSpace(os.Getenv(key)); v != "" {
        return v
    }
    return def
}

func envInt(key string, def int) int {
    n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
    if err != nil {
        return def
    }
    return n
}

func envDur(key string, def time.Duration) time.Duration {
    d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
    if err != nil {
        return def
    }
    return d
}

// envBool also accepts yes/no and on/off.
func envBool(key string, def bool) bool {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
    case "1", "t", "true", "yes", "on":
        return true
    case "0", "f", "false", "no", "off":
        return false
    }
    return def
}
