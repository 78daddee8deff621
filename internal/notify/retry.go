package notify

import (
    "context"
    "time"
)

// BackoffFunc returns the delay to wait after the given failed attempt
// (1-based).
type BackoffFunc func(attempt int) time.Duration

// Exponential doubles base after every failed attempt: base, 2*base, 4*base...
func Exponential(base time.Duration) BackoffFunc {
    return func(attempt int) time.Duration {
        if attempt < 1 {
            attempt = 1
        }
        return base << (attempt - 1)
    }
}

// RetryPolicy bounds how often a delivery is attempted and how long to wait
// between attempts.  Sleep is replaceable so tests do not wait on the clock.
type RetryPolicy struct {
    MaxAttempts int
    Backoff     BackoffFunc
    Sleep       func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy is three attempts, 1s then 2s apart.
func DefaultRetryPolicy() RetryPolicy {
    return RetryPolicy{MaxAttempts: 3, Backoff: Exponential(time.Second)}
}

// Do calls fn until it succeeds or MaxAttempts is reached.  It returns the
// number of attempts made and the last error.  No delay follows the final
// attempt.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
    max := p.MaxAttempts
    if max < 1 {
        max = 1
    }
    backoff := p.Backoff
    if backoff == nil {
        backoff = Exponential(time.Second)
    }
    sleep := p.Sleep
    if sleep == nil {
        sleep = sleepCtx
    }

    var err error
    for attempt := 1; attempt <= max; attempt++ {
        if err = fn(ctx); err == nil {
            return attempt, nil
        }
        if attempt == max {
            break
        }
        if serr := sleep(ctx, backoff(attempt)); serr != nil {
            return attempt, err
        }
    }
    return max, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.C:
        return nil
    }
}
