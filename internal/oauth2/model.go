package oauth2

import (
	"context"
	"time"
)

// Client es la aplicación registrada. El secret lo verifica el Model en
// GetClient; el engine nunca lo ve.
type Client struct {
	ID           string   `json:"id"`
	Grants       []string `json:"grants"`
	RedirectURIs []string `json:"redirect_uris"`

	// Overrides por client, en segundos. Cero usa el default del endpoint.
	AccessTokenLifetime       int `json:"access_token_lifetime,omitempty"`
	RefreshTokenLifetime      int `json:"refresh_token_lifetime,omitempty"`
	AuthorizationCodeLifetime int `json:"authorization_code_lifetime,omitempty"`
}

// HasGrant reports whether the client is allowed the given grant type.
func (c *Client) HasGrant(grant string) bool {
	for _, g := range c.Grants {
		if g == grant {
			return true
		}
	}
	return false
}

// User es la identidad del resource owner. Username lo usa introspection;
// el resto es opaco para el engine.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Token es el registro persistido por el Model. Expiries en cero significan
// "sin expiración conocida" (el engine las exige donde el protocolo lo pide).
type Token struct {
	AccessToken           string         `json:"access_token"`
	AccessTokenExpiresAt  time.Time      `json:"access_token_expires_at"`
	RefreshToken          string         `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time      `json:"refresh_token_expires_at,omitempty"`
	Scope                 string         `json:"scope,omitempty"`
	Client                *Client        `json:"-"`
	User                  *User          `json:"-"`
	Extra                 map[string]any `json:"-"`
}

// AuthorizationCode es el credencial de un solo uso del code flow.
type AuthorizationCode struct {
	Code        string    `json:"authorization_code"`
	ExpiresAt   time.Time `json:"expires_at"`
	RedirectURI string    `json:"redirect_uri,omitempty"`
	Scope       string    `json:"scope,omitempty"`
	Client      *Client   `json:"-"`
	User        *User     `json:"-"`
}

// Model es el backend de datos que provee el host. Todos los métodos son
// puntos de I/O: respetan ctx y pueden correr concurrentes entre requests.
//
// "No encontrado" se expresa como (nil, nil); un error no-nil se trata como
// falla del backend y el engine lo envuelve en server_error.
type Model interface {
	// GetClient carga un client. Con clientSecret vacío NO se verifica el
	// secret (lo usa el endpoint authorize); con secret, el Model debe
	// verificarlo y devolver nil si no coincide.
	GetClient(ctx context.Context, clientID, clientSecret string) (*Client, error)

	// GetUser autentica resource-owner credentials (password grant).
	GetUser(ctx context.Context, username, password string) (*User, error)

	// GetUserFromClient resuelve el usuario asociado a un client
	// (client_credentials grant).
	GetUserFromClient(ctx context.Context, client *Client) (*User, error)

	// SaveToken persiste el token y devuelve el registro guardado.
	SaveToken(ctx context.Context, client *Client, user *User, token *Token) (*Token, error)

	GetAccessToken(ctx context.Context, accessToken string) (*Token, error)
	GetRefreshToken(ctx context.Context, refreshToken string) (*Token, error)

	// Revoke* devuelven true si el token quedó invalidado.
	RevokeAccessToken(ctx context.Context, token *Token) (bool, error)
	RevokeRefreshToken(ctx context.Context, token *Token) (bool, error)

	SaveAuthorizationCode(ctx context.Context, client *Client, user *User, code *AuthorizationCode) (*AuthorizationCode, error)
	GetAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)
	RevokeAuthorizationCode(ctx context.Context, code *AuthorizationCode) (bool, error)
}

// Capabilities opcionales. El engine las detecta por type assertion sobre
// el Model; si no están, aplica su comportamiento por defecto.

// ScopeValidator filtra/normaliza el scope pedido. Devolver "" rechaza el
// scope ("invalid_scope").
type ScopeValidator interface {
	ValidateScope(ctx context.Context, client *Client, user *User, scope string) (string, error)
}

// ScopeVerifier decide si un access token alcanza el scope requerido por
// un recurso protegido.
type ScopeVerifier interface {
	VerifyScope(ctx context.Context, token *Token, requiredScope string) (bool, error)
}

// Generadores custom. Devolver "" hace fallback al generador del engine
// (40 hex chars).
type AccessTokenGenerator interface {
	GenerateAccessToken(ctx context.Context, client *Client, user *User, scope string) (string, error)
}

type RefreshTokenGenerator interface {
	GenerateRefreshToken(ctx context.Context, client *Client, user *User, scope string) (string, error)
}

type AuthorizationCodeGenerator interface {
	GenerateAuthorizationCode(ctx context.Context, client *Client, user *User, scope string) (string, error)
}

// AuthenticateHandler establece la identidad del resource owner durante
// /authorize (típicamente una página de login o el propio endpoint bearer).
type AuthenticateHandler interface {
	Execute(ctx context.Context, req *Request, res *Response) (*User, error)
}
