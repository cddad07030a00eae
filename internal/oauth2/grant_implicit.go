package oauth2

import (
	"context"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
)

// implicitGrant emite un access token directo desde /authorize
// (response_type=token). Solo lo construye el endpoint authorize, que ya
// autenticó al resource owner; nunca entra por el token endpoint.
type implicitGrant struct {
	baseGrant
	user  *User
	scope string
}

func newImplicitGrant(model Model, cfg GrantConfig, user *User, scope string) *implicitGrant {
	return &implicitGrant{
		baseGrant: baseGrant{model: model, cfg: cfg},
		user:      user,
		scope:     scope,
	}
}

func (g *implicitGrant) Execute(ctx context.Context, req *Request, client *Client) (*Token, error) {
	if client == nil {
		return nil, oautherr.InvalidArgument("implicit grant sin client")
	}
	if g.user == nil {
		return nil, oautherr.InvalidArgument("implicit grant sin user")
	}

	access, err := g.generateAccessToken(ctx, client, g.user, g.scope)
	if err != nil {
		return nil, err
	}
	// Access token solo, sin refresh.
	t := &Token{
		AccessToken:          access,
		AccessTokenExpiresAt: g.accessTokenExpiresAt(client),
		Scope:                g.scope,
	}
	return g.saveToken(ctx, client, g.user, t)
}
