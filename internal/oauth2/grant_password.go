package oauth2

import (
	"context"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
	"github.com/dropDatabas3/dearjane/internal/validation"
)

// passwordGrant: resource owner password credentials (RFC 6749 §4.3).
type passwordGrant struct {
	baseGrant
}

func newPasswordGrant(model Model, cfg GrantConfig) Grant {
	return &passwordGrant{baseGrant{model: model, cfg: cfg}}
}

func (g *passwordGrant) Execute(ctx context.Context, req *Request, client *Client) (*Token, error) {
	username := req.Body["username"]
	if username == "" {
		return nil, oautherr.InvalidRequest("falta el parámetro username")
	}
	if !validation.IsUnicodeNoCRLF(username) {
		return nil, oautherr.InvalidRequest("username malformado")
	}
	password := req.Body["password"]
	if password == "" {
		return nil, oautherr.InvalidRequest("falta el parámetro password")
	}
	if !validation.IsUnicodeNoCRLF(password) {
		return nil, oautherr.InvalidRequest("password malformado")
	}
	scope := req.Body["scope"]
	if scope != "" && !validation.IsNQSCHAR(scope) {
		return nil, oautherr.InvalidScope("scope malformado")
	}

	user, err := g.model.GetUser(ctx, username, password)
	if err != nil {
		return nil, oautherr.From(err)
	}
	if user == nil {
		return nil, oautherr.InvalidGrant("usuario o contraseña inválidos")
	}

	validated, err := g.validateScope(ctx, client, user, scope)
	if err != nil {
		return nil, err
	}

	access, err := g.generateAccessToken(ctx, client, user, validated)
	if err != nil {
		return nil, err
	}
	refresh, err := g.generateRefreshToken(ctx, client, user, validated)
	if err != nil {
		return nil, err
	}
	t := &Token{
		AccessToken:           access,
		AccessTokenExpiresAt:  g.accessTokenExpiresAt(client),
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: g.refreshTokenExpiresAt(client),
		Scope:                 validated,
	}
	return g.saveToken(ctx, client, user, t)
}
