package oauth2

import (
	"context"
	"time"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
	tokens "github.com/dropDatabas3/dearjane/internal/security/token"
)

// Identificadores de grant type (RFC 6749 §4).
const (
	GrantAuthorizationCode = "authorization_code"
	GrantClientCredentials = "client_credentials"
	GrantPassword          = "password"
	GrantRefreshToken      = "refresh_token"
	GrantImplicit          = "implicit"
)

// Grant ejecuta un flow contra un client ya autenticado y devuelve el
// token persistido.
type Grant interface {
	Execute(ctx context.Context, req *Request, client *Client) (*Token, error)
}

// GrantConfig son los parámetros que el token endpoint resuelve por
// llamada (defaults + overlay) y baja a cada grant.
type GrantConfig struct {
	AccessTokenLifetime        int // segundos
	RefreshTokenLifetime       int // segundos
	AlwaysIssueNewRefreshToken bool
}

// GrantFactory construye un grant. Los extension grants se registran como
// factories bajo su identificador (NCHAR o URI).
type GrantFactory func(model Model, cfg GrantConfig) Grant

var standardGrants = map[string]GrantFactory{
	GrantAuthorizationCode: newAuthorizationCodeGrant,
	GrantClientCredentials: newClientCredentialsGrant,
	GrantPassword:          newPasswordGrant,
	GrantRefreshToken:      newRefreshTokenGrant,
}

// baseGrant concentra lo que comparten todos los flows: generación de
// tokens (hooks del Model con fallback al generador del engine),
// validación de scope y cómputo de expiries con override por client.
type baseGrant struct {
	model Model
	cfg   GrantConfig
}

func (g *baseGrant) generateAccessToken(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	if gen, ok := g.model.(AccessTokenGenerator); ok {
		s, err := gen.GenerateAccessToken(ctx, client, user, scope)
		if err != nil {
			return "", oautherr.From(err)
		}
		if s != "" {
			return s, nil
		}
	}
	s, err := tokens.GenerateToken()
	if err != nil {
		return "", oautherr.ServerError("no se pudo generar el access token").WithCause(err)
	}
	return s, nil
}

func (g *baseGrant) generateRefreshToken(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	if gen, ok := g.model.(RefreshTokenGenerator); ok {
		s, err := gen.GenerateRefreshToken(ctx, client, user, scope)
		if err != nil {
			return "", oautherr.From(err)
		}
		if s != "" {
			return s, nil
		}
	}
	s, err := tokens.GenerateToken()
	if err != nil {
		return "", oautherr.ServerError("no se pudo generar el refresh token").WithCause(err)
	}
	return s, nil
}

// validateScope delega en el Model cuando la capability existe; un
// resultado vacío rechaza el scope. Sin capability, pasa el scope tal cual.
func (g *baseGrant) validateScope(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	v, ok := g.model.(ScopeValidator)
	if !ok {
		return scope, nil
	}
	validated, err := v.ValidateScope(ctx, client, user, scope)
	if err != nil {
		return "", oautherr.From(err)
	}
	if validated == "" {
		return "", oautherr.InvalidScope("scope rechazado")
	}
	return validated, nil
}

func (g *baseGrant) accessTokenExpiresAt(client *Client) time.Time {
	lifetime := g.cfg.AccessTokenLifetime
	if client.AccessTokenLifetime > 0 {
		lifetime = client.AccessTokenLifetime
	}
	return time.Now().Add(time.Duration(lifetime) * time.Second)
}

func (g *baseGrant) refreshTokenExpiresAt(client *Client) time.Time {
	lifetime := g.cfg.RefreshTokenLifetime
	if client.RefreshTokenLifetime > 0 {
		lifetime = client.RefreshTokenLifetime
	}
	return time.Now().Add(time.Duration(lifetime) * time.Second)
}

// saveToken persiste y normaliza el registro devuelto por el Model.
func (g *baseGrant) saveToken(ctx context.Context, client *Client, user *User, t *Token) (*Token, error) {
	saved, err := g.model.SaveToken(ctx, client, user, t)
	if err != nil {
		return nil, oautherr.From(err)
	}
	if saved == nil {
		return nil, oautherr.ServerError("el Model no devolvió el token persistido")
	}
	if saved.Client == nil {
		saved.Client = client
	}
	if saved.User == nil {
		saved.User = user
	}
	return saved, nil
}
