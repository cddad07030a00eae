package oauth2

import (
	"context"
	"net/http"
	"strings"
	"time"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
)

// authenticateEndpoint valida un bearer access token en requests entrantes
// a recursos protegidos (RFC 6750).
type authenticateEndpoint struct {
	model Model
	opts  AuthenticateOptions
}

// Execute devuelve el user autenticado; en error, deja la respuesta ya
// formateada y propaga el error al host.
func (e *authenticateEndpoint) Execute(ctx context.Context, req *Request, res *Response) (*User, error) {
	token, err := e.handle(ctx, req, res)
	if err != nil {
		e.writeError(res, oautherr.From(err))
		return nil, err
	}
	return token.User, nil
}

func (e *authenticateEndpoint) handle(ctx context.Context, req *Request, res *Response) (*Token, error) {
	raw, err := e.bearerToken(req)
	if err != nil {
		return nil, err
	}

	token, err := e.model.GetAccessToken(ctx, raw)
	if err != nil {
		return nil, oautherr.From(err)
	}
	if token == nil {
		return nil, oautherr.InvalidToken("access token inválido")
	}
	if token.User == nil {
		return nil, oautherr.ServerError("el Model devolvió un access token sin user")
	}
	if token.AccessTokenExpiresAt.IsZero() {
		return nil, oautherr.ServerError("accessTokenExpiresAt debe ser un instante")
	}
	if !token.AccessTokenExpiresAt.After(time.Now()) {
		return nil, oautherr.InvalidToken("access token expirado")
	}

	if e.opts.Scope != "" {
		verifier, ok := e.model.(ScopeVerifier)
		if !ok {
			return nil, oautherr.InvalidArgument("el Model no implementa VerifyScope")
		}
		sufficient, err := verifier.VerifyScope(ctx, token, e.opts.Scope)
		if err != nil {
			return nil, oautherr.From(err)
		}
		if !sufficient {
			return nil, oautherr.InsufficientScope("el access token no alcanza el scope requerido")
		}
		if e.opts.AddAcceptedScopesHeader {
			res.SetHeader("X-Accepted-OAuth-Scopes", e.opts.Scope)
		}
		if e.opts.AddAuthorizedScopesHeader {
			res.SetHeader("X-OAuth-Scopes", token.Scope)
		}
	}
	return token, nil
}

// bearerToken localiza el token en exactamente UNA fuente: header
// Authorization, query access_token o body form-encoded.
func (e *authenticateEndpoint) bearerToken(req *Request) (string, error) {
	header := req.Header("Authorization")
	query := req.Query["access_token"]
	body := req.Body["access_token"]

	sources := 0
	for _, present := range []bool{header != "", query != "", body != ""} {
		if present {
			sources++
		}
	}
	if sources > 1 {
		return "", oautherr.InvalidRequest("el access token se presentó por más de un método")
	}

	switch {
	case header != "":
		const prefix = "bearer "
		if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
			return "", oautherr.InvalidRequest("header Authorization malformado")
		}
		return strings.TrimSpace(header[len(prefix):]), nil
	case query != "":
		if !e.opts.AllowBearerTokensInQueryString {
			return "", oautherr.InvalidRequest("no se aceptan bearer tokens en la query string")
		}
		return query, nil
	case body != "":
		if req.Method == http.MethodGet {
			return "", oautherr.InvalidRequest("no se aceptan bearer tokens en el body de un GET")
		}
		if !req.IsFormEncoded() {
			return "", oautherr.InvalidRequest("el body debe ser application/x-www-form-urlencoded")
		}
		return body, nil
	}
	return "", oautherr.UnauthorizedRequest("no se presentaron credenciales bearer")
}

func (e *authenticateEndpoint) writeError(res *Response, oe *oautherr.OAuthError) {
	if oe.Name == oautherr.NameUnauthorizedRequest {
		res.SetHeader("WWW-Authenticate", `Bearer realm="Service"`)
	}
	res.SetHeader("Content-Type", "application/json;charset=UTF-8")
	res.Status = oe.Status
	res.SetBody(map[string]any{
		"error":             oe.Name,
		"error_description": oe.Message,
	})
}
