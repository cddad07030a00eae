package oauth2

import (
	"context"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
	"github.com/dropDatabas3/dearjane/internal/validation"
)

// clientCredentialsGrant emite un access token machine-to-machine. Sin
// refresh token (RFC 6749 §4.4.3).
type clientCredentialsGrant struct {
	baseGrant
}

func newClientCredentialsGrant(model Model, cfg GrantConfig) Grant {
	return &clientCredentialsGrant{baseGrant{model: model, cfg: cfg}}
}

func (g *clientCredentialsGrant) Execute(ctx context.Context, req *Request, client *Client) (*Token, error) {
	scope := req.Body["scope"]
	if scope != "" && !validation.IsNQSCHAR(scope) {
		return nil, oautherr.InvalidScope("scope malformado")
	}

	user, err := g.model.GetUserFromClient(ctx, client)
	if err != nil {
		return nil, oautherr.From(err)
	}
	if user == nil {
		return nil, oautherr.InvalidGrant("el client no tiene un usuario asociado")
	}

	validated, err := g.validateScope(ctx, client, user, scope)
	if err != nil {
		return nil, err
	}

	access, err := g.generateAccessToken(ctx, client, user, validated)
	if err != nil {
		return nil, err
	}
	t := &Token{
		AccessToken:          access,
		AccessTokenExpiresAt: g.accessTokenExpiresAt(client),
		Scope:                validated,
	}
	return g.saveToken(ctx, client, user, t)
}
