package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// RequestLogger writes one zap line per request, tagged with the Echo
// request id.  It must run after echo's RequestID middleware.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            req, res := c.Request(), c.Response()
            fields := []zap.Field{
                zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
                zap.String("method", req.Method),
                zap.String("route", c.Path()),
                zap.Int("status", res.Status),
                zap.Duration("latency", time.Since(start)),
                zap.String("ip", c.RealIP()),
                zap.String("user", userID(c)),
            }
            switch {
            case res.Status >= 500:
                log.Error("request", append(fields, zap.Error(err))...)
            case res.Status >= 400:
                log.Warn("request", fields...)
            default:
                log.Info("request", fields...)
            }
            return nil
        }
    }
}
