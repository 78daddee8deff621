package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/logger"
    "github.com/iliyamo/warranty-claims/internal/middleware"
    "github.com/iliyamo/warranty-claims/internal/model"
)

const requestTimeout = 5 * time.Second

// reqCtx bounds the core call by requestTimeout.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actor returns the authenticated caller or writes a 401.
func actor(c echo.Context) (model.Actor, bool) {
    a, ok := middleware.Actor(c)
    if !ok {
        _ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return a, ok
}

type errorMapping struct {
    target error
    status int
    code   string
}

// errorStatus is checked in order.  ErrTransactionFailure comes last among
// the sentinels because it wraps a more specific cause.
var errorStatus = []errorMapping{
    {apperr.ErrValidation, http.StatusBadRequest, "validation_failed"},
    {apperr.ErrInvalidOrExpiredChallenge, http.StatusUnauthorized, "invalid_or_expired_code"},
    {apperr.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
    {apperr.ErrForbiddenRole, http.StatusForbidden, "forbidden_role"},
    {apperr.ErrNotFound, http.StatusNotFound, "not_found"},
    {apperr.ErrDuplicateIdentity, http.StatusConflict, "duplicate_identity"},
    {apperr.ErrDuplicateIdentifier, http.StatusConflict, "duplicate_uid"},
    {apperr.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
    {apperr.ErrTerminalState, http.StatusGone, "terminal_state"},
    {apperr.ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_transition"},
    {apperr.ErrResubmissionLimitExceeded, http.StatusUnprocessableEntity, "resubmission_limit_exceeded"},
    {apperr.ErrInvalidRegistrationRole, http.StatusUnprocessableEntity, "invalid_registration_role"},
    {apperr.ErrChallengeRateLimited, http.StatusTooManyRequests, "rate_limited"},
    {apperr.ErrTransactionFailure, http.StatusInternalServerError, "transaction_failed"},
}

// writeError maps a core error onto exactly one status code.
func writeError(c echo.Context, err error) error {
    for _, m := range errorStatus {
        if !errors.Is(err, m.target) {
            continue
        }
        body := echo.Map{"error": m.target.Error(), "code": m.code}
        var ve *apperr.ValidationError
        if errors.As(err, &ve) {
            body["error"] = ve.Reason
            body["field"] = ve.Field
        }
        if m.status >= http.StatusInternalServerError {
            logger.Get().Error("request failed", zap.String("route", c.Path()), zap.Error(err))
        }
        return c.JSON(m.status, body)
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout", "code": "timeout"})
    }
    logger.Get().Error("request failed", zap.String("route", c.Path()), zap.Error(err))
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal"})
}

func bindErr(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body", "code": "validation_failed"})
}
