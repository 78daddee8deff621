package identity

import (
    "context"
    "errors"
    "strings"

    "go.uber.org/zap"

    "github.com/iliyamo/warranty-claims/internal/apperr"
    "github.com/iliyamo/warranty-claims/internal/model"
    "github.com/iliyamo/warranty-claims/internal/utils"
)

func (p *Provisioner) issueSession(ctx context.Context, acct model.Account) (*Session, error) {
    at, err := utils.NewAccessToken(p.cfg.JWTSecret, acct.ID, string(acct.Role), p.cfg.AccessTTLMin)
    if err != nil {
        return nil, err
    }
    rt, err := utils.NewRefreshToken(p.cfg.RefreshTTLDays)
    if err != nil {
        return nil, err
    }
    if err := p.s.Tokens.StoreRefresh(ctx, acct.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
        return nil, err
    }
    return &Session{Access: at, Refresh: rt}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.  Concurrent rotations of the same token have one winner.
func (p *Provisioner) Refresh(ctx context.Context, raw string) (*Session, model.Account, error) {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return nil, model.Account{}, apperr.ErrUnauthorized
    }
    hash := utils.HashRefreshRaw(raw)
    accountID, err := p.s.Tokens.ValidateRefresh(ctx, hash, p.now())
    if errors.Is(err, apperr.ErrNotFound) {
        return nil, model.Account{}, apperr.ErrUnauthorized
    }
    if err != nil {
        return nil, model.Account{}, err
    }
    acct, err := p.s.Accounts.GetByID(ctx, accountID)
    if errors.Is(err, apperr.ErrNotFound) {
        return nil, model.Account{}, apperr.ErrUnauthorized
    }
    if err != nil {
        return nil, model.Account{}, err
    }
    if acct.Role == model.RoleVendor {
        pending, err := p.vendorGate(ctx, acct.ID)
        if err != nil {
            return nil, model.Account{}, err
        }
        if pending {
            return nil, model.Account{}, apperr.ErrUnauthorized
        }
    }
    revoked, err := p.s.Tokens.RevokeByHash(ctx, hash)
    if err != nil {
        return nil, model.Account{}, err
    }
    if !revoked {
        return nil, model.Account{}, apperr.ErrUnauthorized
    }
    sess, err := p.issueSession(ctx, acct)
    if err != nil {
        return nil, model.Account{}, err
    }
    return sess, acct, nil
}

// Logout revokes one refresh token.  Unknown tokens are not an error.
func (p *Provisioner) Logout(ctx context.Context, raw string) error {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return nil
    }
    _, err := p.s.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
    return err
}

// LogoutAll revokes every refresh token of the actor.
func (p *Provisioner) LogoutAll(ctx context.Context, actor model.Actor) error {
    if err := p.s.Tokens.RevokeAllForAccount(ctx, actor.ID); err != nil {
        return err
    }
    p.log.Info("all sessions revoked", zap.String("account_id", actor.ID))
    return nil
}

// Account loads the profile of an authenticated account.
func (p *Provisioner) Account(ctx context.Context, actor model.Actor) (model.Account, error) {
    return p.s.Accounts.GetByID(ctx, actor.ID)
}
