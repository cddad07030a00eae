package oauth2

import (
	"context"
	"net/http"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
	"github.com/dropDatabas3/dearjane/internal/validation"
)

// tokenEndpoint implementa el token endpoint (RFC 6749 §3.2): parsea el
// request, autentica al client, despacha al grant y arma la respuesta
// Bearer. Los errores se catchean una sola vez en Execute.
type tokenEndpoint struct {
	model Model
	opts  TokenOptions
}

func (e *tokenEndpoint) Execute(ctx context.Context, req *Request, res *Response) error {
	token, err := e.handle(ctx, req)
	if err != nil {
		e.writeError(res, req, oautherr.From(err))
		return err
	}
	res.SetHeader("Content-Type", "application/json;charset=UTF-8")
	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("Pragma", "no-cache")
	res.SetBody(bearerBody(token, e.opts.AllowExtendedTokenAttributes))
	return nil
}

func (e *tokenEndpoint) handle(ctx context.Context, req *Request) (*Token, error) {
	if req.Method != http.MethodPost {
		return nil, oautherr.InvalidRequest("el método debe ser POST")
	}
	if !req.IsFormEncoded() {
		return nil, oautherr.InvalidRequest("Content-Type debe ser application/x-www-form-urlencoded")
	}

	grantType := req.Body["grant_type"]
	if grantType == "" {
		return nil, oautherr.InvalidRequest("falta el parámetro grant_type")
	}
	// NCHAR para los grants estándar, URI para extension grants.
	if !validation.IsNCHAR(grantType) && !validation.IsURI(grantType) {
		return nil, oautherr.InvalidRequest("grant_type malformado")
	}
	factory, ok := standardGrants[grantType]
	if !ok {
		factory, ok = e.opts.ExtendedGrantTypes[grantType]
	}
	if !ok || factory == nil {
		return nil, oautherr.UnsupportedGrantType("grant_type no soportado: " + grantType)
	}

	creds, err := readClientCredentials(req)
	if err != nil {
		return nil, err
	}
	if err := creds.validate(e.requiresAuthentication(grantType)); err != nil {
		return nil, err
	}

	client, err := e.model.GetClient(ctx, creds.id, creds.secret)
	if err != nil {
		return nil, oautherr.From(err)
	}
	if client == nil {
		return nil, oautherr.InvalidClient("credenciales de client inválidas")
	}
	if len(client.Grants) == 0 {
		return nil, oautherr.ServerError("el Model devolvió un client sin grants")
	}
	if !client.HasGrant(grantType) {
		return nil, oautherr.UnauthorizedClient("grant type no permitido para este client")
	}

	grant := factory(e.model, GrantConfig{
		AccessTokenLifetime:        e.opts.AccessTokenLifetime,
		RefreshTokenLifetime:       e.opts.RefreshTokenLifetime,
		AlwaysIssueNewRefreshToken: e.opts.AlwaysIssueNewRefreshToken,
	})
	return grant.Execute(ctx, req, client)
}

// requiresAuthentication: un grant ausente del mapa requiere client_secret.
func (e *tokenEndpoint) requiresAuthentication(grantType string) bool {
	if v, ok := e.opts.RequireClientAuthentication[grantType]; ok {
		return v
	}
	return true
}

func (e *tokenEndpoint) writeError(res *Response, req *Request, oe *oautherr.OAuthError) {
	res.SetHeader("Content-Type", "application/json;charset=UTF-8")
	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("Pragma", "no-cache")
	status := oe.Status
	// RFC 6749 §5.2: si el client vino por Authorization, 401 + challenge.
	if oe.Name == oautherr.NameInvalidClient && req.Header("Authorization") != "" {
		res.SetHeader("WWW-Authenticate", `Basic realm="Service"`)
		status = http.StatusUnauthorized
	}
	res.Status = status
	res.SetBody(map[string]any{
		"error":             oe.Name,
		"error_description": oe.Message,
	})
}
