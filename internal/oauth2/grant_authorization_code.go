package oauth2

import (
	"context"
	"time"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
	"github.com/dropDatabas3/dearjane/internal/validation"
)

// authorizationCodeGrant canjea un authorization code de un solo uso por
// un par access/refresh (RFC 6749 §4.1.3).
type authorizationCodeGrant struct {
	baseGrant
}

func newAuthorizationCodeGrant(model Model, cfg GrantConfig) Grant {
	return &authorizationCodeGrant{baseGrant{model: model, cfg: cfg}}
}

func (g *authorizationCodeGrant) Execute(ctx context.Context, req *Request, client *Client) (*Token, error) {
	code := req.Body["code"]
	if code == "" {
		return nil, oautherr.InvalidRequest("falta el parámetro code")
	}
	if !validation.IsVSCHAR(code) {
		return nil, oautherr.InvalidRequest("code malformado")
	}
	redirectURI := req.Body["redirect_uri"]
	if redirectURI == "" {
		redirectURI = req.Query["redirect_uri"]
	}
	if redirectURI != "" && !validation.IsURI(redirectURI) {
		return nil, oautherr.InvalidRequest("redirect_uri malformada")
	}

	ac, err := g.model.GetAuthorizationCode(ctx, code)
	if err != nil {
		return nil, oautherr.From(err)
	}
	if ac == nil {
		return nil, oautherr.InvalidGrant("authorization code inválido")
	}
	if ac.Client == nil || ac.User == nil {
		return nil, oautherr.ServerError("el Model devolvió un authorization code sin client o user")
	}
	if ac.Client.ID != client.ID {
		return nil, oautherr.InvalidGrant("authorization code emitido para otro client")
	}
	if ac.ExpiresAt.IsZero() || !ac.ExpiresAt.After(time.Now()) {
		return nil, oautherr.InvalidGrant("authorization code expirado")
	}
	// Si el code fue emitido con redirect_uri, el canje debe repetirla exacta.
	if ac.RedirectURI != "" && redirectURI != ac.RedirectURI {
		return nil, oautherr.InvalidRequest("redirect_uri no coincide con la del authorization code")
	}

	// Un solo uso: revocar ANTES de emitir.
	ok, err := g.model.RevokeAuthorizationCode(ctx, ac)
	if err != nil {
		return nil, oautherr.From(err)
	}
	if !ok {
		return nil, oautherr.InvalidGrant("authorization code ya consumido")
	}

	access, err := g.generateAccessToken(ctx, client, ac.User, ac.Scope)
	if err != nil {
		return nil, err
	}
	refresh, err := g.generateRefreshToken(ctx, client, ac.User, ac.Scope)
	if err != nil {
		return nil, err
	}
	t := &Token{
		AccessToken:           access,
		AccessTokenExpiresAt:  g.accessTokenExpiresAt(client),
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: g.refreshTokenExpiresAt(client),
		Scope:                 ac.Scope,
	}
	return g.saveToken(ctx, client, ac.User, t)
}
