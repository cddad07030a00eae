package oauth2

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
	tokens "github.com/dropDatabas3/dearjane/internal/security/token"
	"github.com/dropDatabas3/dearjane/internal/validation"
)

// authorizeEndpoint implementa /authorize (RFC 6749 §3.1): autentica al
// resource owner, valida el client y despacha según response_type.
type authorizeEndpoint struct {
	model Model
	opts  AuthorizeOptions
}

// authorizationRequest es el request parseado de body ∪ query.
type authorizationRequest struct {
	responseType string
	clientID     string
	redirectURI  string
	scope        string
	state        string
}

func (e *authorizeEndpoint) Execute(ctx context.Context, req *Request, res *Response) error {
	if err := e.handle(ctx, req, res); err != nil {
		e.writeError(res, req, oautherr.From(err))
		return err
	}
	return nil
}

func (e *authorizeEndpoint) handle(ctx context.Context, req *Request, res *Response) error {
	ar, err := parseAuthorizationRequest(req, e.opts.AllowEmptyState)
	if err != nil {
		return err
	}

	// Resource owner primero: sin identidad no hay decisión que tomar.
	user, err := e.opts.AuthenticateHandler.Execute(ctx, req, res)
	if err != nil {
		return oautherr.From(err)
	}
	if user == nil {
		return oautherr.ServerError("el authenticate handler no devolvió un user")
	}

	client, err := e.validateClient(ctx, ar)
	if err != nil {
		return err
	}

	scope, err := e.validateScope(ctx, client, user, ar.scope)
	if err != nil {
		return err
	}
	ar.scope = scope

	var location string
	switch ar.responseType {
	case "code":
		location, err = e.codeResponse(ctx, client, user, ar)
	case "token":
		location, err = e.tokenResponse(ctx, req, client, user, ar)
	}
	if err != nil {
		return err
	}
	res.Redirect(location)
	return nil
}

func parseAuthorizationRequest(req *Request, allowEmptyState bool) (*authorizationRequest, error) {
	if req.Query["allowed"] == "false" {
		return nil, oautherr.AccessDenied("el resource owner negó el acceso")
	}
	ar := &authorizationRequest{
		responseType: req.Param("response_type"),
		clientID:     req.Param("client_id"),
		redirectURI:  req.Param("redirect_uri"),
		scope:        req.Param("scope"),
		state:        req.Param("state"),
	}
	if ar.responseType == "" {
		return nil, oautherr.InvalidRequest("falta el parámetro response_type")
	}
	if ar.responseType != "code" && ar.responseType != "token" {
		return nil, oautherr.UnsupportedResponseType("response_type no soportado: " + ar.responseType)
	}
	if ar.redirectURI == "" {
		return nil, oautherr.InvalidRequest("falta el parámetro redirect_uri")
	}
	if !validation.IsURI(ar.redirectURI) {
		return nil, oautherr.InvalidRequest("redirect_uri malformada")
	}
	if ar.clientID == "" {
		return nil, oautherr.InvalidRequest("falta el parámetro client_id")
	}
	if !validation.IsVSCHAR(ar.clientID) {
		return nil, oautherr.InvalidRequest("client_id malformado")
	}
	if ar.scope != "" && !validation.IsNQSCHAR(ar.scope) {
		return nil, oautherr.InvalidScope("scope malformado")
	}
	if ar.state == "" && !allowEmptyState {
		return nil, oautherr.InvalidRequest("falta el parámetro state")
	}
	if ar.state != "" && !validation.IsVSCHAR(ar.state) {
		return nil, oautherr.InvalidRequest("state malformado")
	}
	return ar, nil
}

func (e *authorizeEndpoint) validateClient(ctx context.Context, ar *authorizationRequest) (*Client, error) {
	// Sin secret: /authorize nunca autentica al client, solo lo identifica.
	client, err := e.model.GetClient(ctx, ar.clientID, "")
	if err != nil {
		return nil, oautherr.From(err)
	}
	if client == nil {
		return nil, oautherr.InvalidClient("client inválido")
	}
	if len(client.Grants) == 0 {
		return nil, oautherr.InvalidClient("el client no define grants")
	}
	switch ar.responseType {
	case "code":
		if !client.HasGrant(GrantAuthorizationCode) {
			return nil, oautherr.UnauthorizedClient("el client no tiene permitido el grant authorization_code")
		}
	case "token":
		if !client.HasGrant(GrantImplicit) {
			return nil, oautherr.UnauthorizedClient("el client no tiene permitido el grant implicit")
		}
	}
	if len(client.RedirectURIs) == 0 {
		return nil, oautherr.InvalidClient("el client no registra redirect_uris")
	}
	if ar.redirectURI != "" && !containsString(client.RedirectURIs, ar.redirectURI) {
		return nil, oautherr.InvalidClient("redirect_uri no registrada para el client")
	}
	return client, nil
}

func (e *authorizeEndpoint) validateScope(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	v, ok := e.model.(ScopeValidator)
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

// codeResponse persiste un authorization code y compone el redirect de
// éxito: query limpia + code (+ scope, + state).
func (e *authorizeEndpoint) codeResponse(ctx context.Context, client *Client, user *User, ar *authorizationRequest) (string, error) {
	lifetime := e.opts.AuthorizationCodeLifetime
	if client.AuthorizationCodeLifetime > 0 {
		lifetime = client.AuthorizationCodeLifetime
	}
	code, err := e.generateAuthorizationCode(ctx, client, user, ar.scope)
	if err != nil {
		return "", err
	}
	ac := &AuthorizationCode{
		Code:        code,
		ExpiresAt:   time.Now().Add(time.Duration(lifetime) * time.Second),
		RedirectURI: ar.redirectURI,
		Scope:       ar.scope,
	}
	saved, err := e.model.SaveAuthorizationCode(ctx, client, user, ac)
	if err != nil {
		return "", oautherr.From(err)
	}
	if saved == nil {
		return "", oautherr.ServerError("el Model no devolvió el authorization code persistido")
	}
	if saved.Code == "" {
		saved.Code = code
	}

	u, err := url.Parse(ar.redirectURI)
	if err != nil {
		return "", oautherr.InvalidRequest("redirect_uri malformada").WithCause(err)
	}
	// query string original fuera; el callback recibe solo code/scope/state
	q := url.Values{}
	q.Set("code", saved.Code)
	if ar.scope != "" {
		q.Set("scope", ar.scope)
	}
	if ar.state != "" {
		q.Set("state", ar.state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// tokenResponse emite via implicit grant y compone el redirect con los
// parámetros en el fragment.
func (e *authorizeEndpoint) tokenResponse(ctx context.Context, req *Request, client *Client, user *User, ar *authorizationRequest) (string, error) {
	grant := newImplicitGrant(e.model, GrantConfig{AccessTokenLifetime: e.opts.AccessTokenLifetime}, user, ar.scope)
	token, err := grant.Execute(ctx, req, client)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(ar.redirectURI)
	if err != nil {
		return "", oautherr.InvalidRequest("redirect_uri malformada").WithCause(err)
	}
	frag := url.Values{}
	frag.Set("access_token", token.AccessToken)
	if !token.AccessTokenExpiresAt.IsZero() {
		frag.Set("expires_in", strconv.FormatInt(int64(time.Until(token.AccessTokenExpiresAt).Seconds()), 10))
	}
	if ar.state != "" {
		frag.Set("state", ar.state)
	}
	if u.Fragment != "" {
		u.Fragment = u.Fragment + "&" + frag.Encode()
	} else {
		u.Fragment = frag.Encode()
	}
	return u.String(), nil
}

func (e *authorizeEndpoint) generateAuthorizationCode(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	if gen, ok := e.model.(AuthorizationCodeGenerator); ok {
		s, err := gen.GenerateAuthorizationCode(ctx, client, user, scope)
		if err != nil {
			return "", oautherr.From(err)
		}
		if s != "" {
			return s, nil
		}
	}
	s, err := tokens.GenerateToken()
	if err != nil {
		return "", oautherr.ServerError("no se pudo generar el authorization code").WithCause(err)
	}
	return s, nil
}

// writeError aplica la regla de RFC 6749 §4.1.2.1: invalid_client y
// unauthorized_request nunca redirigen; el resto vuelve al redirect_uri
// del request crudo cuando existe.
func (e *authorizeEndpoint) writeError(res *Response, req *Request, oe *oautherr.OAuthError) {
	body := map[string]any{
		"error":             oe.Name,
		"error_description": oe.Message,
	}
	if oe.Name == oautherr.NameInvalidClient || oe.Name == oautherr.NameUnauthorizedRequest {
		res.SetHeader("Content-Type", "application/json;charset=UTF-8")
		res.Status = http.StatusUnauthorized
		res.SetBody(body)
		return
	}
	redirectURI := req.Param("redirect_uri")
	if redirectURI != "" {
		loc := addQuery(redirectURI, "error", oe.Name)
		loc = addQuery(loc, "error_description", oe.Message)
		res.Redirect(loc)
		// el body queda seteado por conveniencia del host
		res.SetBody(body)
		return
	}
	res.SetHeader("Content-Type", "application/json;charset=UTF-8")
	res.Status = oe.Status
	res.SetBody(body)
}

func addQuery(u, k, v string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + url.QueryEscape(k) + "=" + url.QueryEscape(v)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
