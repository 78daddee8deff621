package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/warranty-claims/internal/config"
    "github.com/iliyamo/warranty-claims/internal/logger"
)

// limiterScript refills and takes one token atomically.  It returns
// {allowed, remaining, retry_after_ms}.
var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// decision is the parsed result of one limiterScript run.
type decision struct {
    allowed    bool
    remaining  int64
    retryAfter time.Duration
}

// take removes one token from the bucket at key.
func take(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string, now time.Time) (decision, error) {
    vals, err := limiterScript.Run(ctx, rdb, []string{key},
        now.UnixMilli(),
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        int64(cfg.TTL/time.Second),
    ).Slice()
    if err != nil {
        return decision{}, err
    }
    if len(vals) != 3 {
        return decision{}, fmt.Errorf("limiter returned %d values", len(vals))
    }
    return decision{
        allowed:    asInt64(vals[0]) == 1,
        remaining:  asInt64(vals[1]),
        retryAfter: time.Duration(asInt64(vals[2])) * time.Millisecond,
    }, nil
}

// NewTokenBucket limits requests with a Redis token bucket.  With a nil
// client or a disabled config it passes every request through; Redis
// errors fail open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    log = logger.OrNop(log).Named("ratelimit")

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            d, err := take(c.Request().Context(), rdb, cfg, key, time.Now())
            if err != nil {
                log.Warn("limiter unavailable", zap.String("key", key), zap.Error(err))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if d.allowed {
                return next(c)
            }

            secs := int(math.Ceil(d.retryAfter.Seconds()))
            h.Set("Retry-After", strconv.Itoa(secs))
            log.Debug("blocked", zap.String("key", key), zap.Duration("retry_after", d.retryAfter))
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "too many requests",
                "code":        "rate_limited",
                "retry_after": secs,
            })
        }
    }
}

func asInt64(v any) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case string:
        n, _ := strconv.ParseInt(t, 10, 64)
        return n
    }
    return 0
}

// buildRateKey composes the bucket key from the parts named by
// cfg.KeyStrategy, e.g. "rl:auth:ip:10.0.0.1:route:POST /v1/auth/login".
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    parts := []string{cfg.Prefix}
    strategy := strings.ToLower(cfg.KeyStrategy)
    if !strings.Contains(strategy, "ip") && !strings.Contains(strategy, "user") && !strings.Contains(strategy, "route") {
        strategy = "ip_user_route"
    }
    if strings.Contains(strategy, "ip") {
        parts = append(parts, "ip", ip)
    }
    if strings.Contains(strategy, "user") {
        parts = append(parts, "user", userID(c))
    }
    if strings.Contains(strategy, "route") {
        parts = append(parts, "route", c.Request().Method+" "+c.Path())
    }
    return strings.Join(parts, ":")
}
