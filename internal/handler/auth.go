package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/warranty-claims/internal/identity"
    "github.com/iliyamo/warranty-claims/internal/model"
)

// AuthService is the part of identity.Provisioner the auth endpoints use.
type AuthService interface {
    BeginRegistration(ctx context.Context, req identity.RegistrationRequest) (string, error)
    BeginLogin(ctx context.Context, email, role string) (identity.LoginOutcome, error)
    CompleteChallenge(ctx context.Context, challengeID, code string) (identity.ChallengeResult, error)
    Refresh(ctx context.Context, raw string) (*identity.Session, model.Account, error)
    Logout(ctx context.Context, raw string) error
    LogoutAll(ctx context.Context, actor model.Actor) error
    Account(ctx context.Context, actor model.Actor) (model.Account, error)
}

// AuthHandler serves /v1/auth and /v1/me.
type AuthHandler struct {
    Svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler { return &AuthHandler{Svc: svc} }

// ----- DTOs -----

type loginReq struct {
    Email string `json:"email"`
    Role  string `json:"role"`
}
type verifyReq struct {
    ChallengeID string `json:"challenge_id"`
    Code        string `json:"code"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type authResp struct {
    User    model.Account `json:"user"`
    Access  tokenPart     `json:"access"`
    Refresh tokenPart     `json:"refresh"`
}

func sessionResp(a model.Account, s *identity.Session) authResp {
    return authResp{
        User:    a,
        Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
        Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
    }
}

// Register starts a sign-up and emails a passcode.
func (h *AuthHandler) Register(c echo.Context) error {
    var req identity.RegistrationRequest
    if err := c.Bind(&req); err != nil {
        return bindErr(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    id, err := h.Svc.BeginRegistration(ctx, req)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusAccepted, echo.Map{"challenge_id": id})
}

// Login emails a passcode to an existing account, or reports that a vendor
// is still awaiting approval.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return bindErr(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    out, err := h.Svc.BeginLogin(ctx, req.Email, req.Role)
    if err != nil {
        return writeError(c, err)
    }
    if out.PendingApproval {
        return c.JSON(http.StatusAccepted, echo.Map{"pending_approval": true})
    }
    return c.JSON(http.StatusOK, echo.Map{"challenge_id": out.ChallengeID})
}

// Verify completes a registration or login challenge.
func (h *AuthHandler) Verify(c echo.Context) error {
    var req verifyReq
    if err := c.Bind(&req); err != nil {
        return bindErr(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    res, err := h.Svc.CompleteChallenge(ctx, req.ChallengeID, req.Code)
    if err != nil {
        return writeError(c, err)
    }
    if res.PendingApproval || res.Session == nil {
        return c.JSON(http.StatusAccepted, echo.Map{"pending_approval": true, "user": res.Account})
    }
    return c.JSON(http.StatusOK, sessionResp(res.Account, res.Session))
}

// Refresh rotates the refresh token and returns a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required", "code": "validation_failed"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    sess, acct, err := h.Svc.Refresh(ctx, req.RefreshToken)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token", "code": "unauthorized"})
    }
    return c.JSON(http.StatusOK, sessionResp(acct, sess))
}

// Logout revokes the presented refresh token.  No access token required.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil {
        return bindErr(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every session of the caller.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Svc.LogoutAll(ctx, a); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's account.
func (h *AuthHandler) Me(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return nil
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    acct, err := h.Svc.Account(ctx, a)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, acct)
}
