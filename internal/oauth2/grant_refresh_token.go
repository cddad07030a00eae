package oauth2

import (
	"context"
	"time"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
	"github.com/dropDatabas3/dearjane/internal/validation"
)

// refreshTokenGrant canjea un refresh token vigente por un nuevo access
// token (RFC 6749 §6). Con rotación activa, el refresh viejo se revoca
// antes de persistir el nuevo.
type refreshTokenGrant struct {
	baseGrant
}

func newRefreshTokenGrant(model Model, cfg GrantConfig) Grant {
	return &refreshTokenGrant{baseGrant{model: model, cfg: cfg}}
}

func (g *refreshTokenGrant) Execute(ctx context.Context, req *Request, client *Client) (*Token, error) {
	raw := req.Body["refresh_token"]
	if raw == "" {
		return nil, oautherr.InvalidRequest("falta el parámetro refresh_token")
	}
	if !validation.IsVSCHAR(raw) {
		return nil, oautherr.InvalidRequest("refresh_token malformado")
	}
	// El scope del form se parsea pero NO renegocia: el scope del token
	// nuevo es siempre el del token viejo.
	if scope := req.Body["scope"]; scope != "" && !validation.IsNQSCHAR(scope) {
		return nil, oautherr.InvalidScope("scope malformado")
	}

	old, err := g.model.GetRefreshToken(ctx, raw)
	if err != nil {
		return nil, oautherr.From(err)
	}
	if old == nil {
		return nil, oautherr.InvalidGrant("refresh token inválido")
	}
	if old.Client == nil || old.User == nil {
		return nil, oautherr.ServerError("el Model devolvió un refresh token sin client o user")
	}
	if old.Client.ID != client.ID {
		return nil, oautherr.InvalidGrant("refresh token emitido para otro client")
	}
	if old.RefreshTokenExpiresAt.IsZero() || !old.RefreshTokenExpiresAt.After(time.Now()) {
		return nil, oautherr.InvalidGrant("refresh token expirado")
	}

	// Rotación: el viejo debe quedar revocado antes de guardar el nuevo.
	if g.cfg.AlwaysIssueNewRefreshToken {
		ok, err := g.model.RevokeRefreshToken(ctx, old)
		if err != nil {
			return nil, oautherr.From(err)
		}
		if !ok {
			return nil, oautherr.InvalidGrant("refresh token ya revocado")
		}
	}

	access, err := g.generateAccessToken(ctx, client, old.User, old.Scope)
	if err != nil {
		return nil, err
	}
	t := &Token{
		AccessToken:          access,
		AccessTokenExpiresAt: g.accessTokenExpiresAt(client),
		Scope:                old.Scope,
	}
	if g.cfg.AlwaysIssueNewRefreshToken {
		refresh, err := g.generateRefreshToken(ctx, client, old.User, old.Scope)
		if err != nil {
			return nil, err
		}
		t.RefreshToken = refresh
		t.RefreshTokenExpiresAt = g.refreshTokenExpiresAt(client)
	} else {
		// sin rotación el client sigue usando el refresh original
		t.RefreshToken = old.RefreshToken
		t.RefreshTokenExpiresAt = old.RefreshTokenExpiresAt
	}
	return g.saveToken(ctx, client, old.User, t)
}
