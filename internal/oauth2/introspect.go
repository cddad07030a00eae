package oauth2

import (
	"context"
	"net/http"
	"time"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
)

// Hints aceptados en introspect/revoke.
const (
	hintAccessToken  = "access_token"
	hintRefreshToken = "refresh_token"
)

// tokenLookupRequest es el request parseado compartido por introspect
// (RFC 7662) y revoke (RFC 7009): misma forma, mismas reglas de auth.
type tokenLookupRequest struct {
	client *Client
	token  string
	hint   string
}

func parseTokenLookup(ctx context.Context, model Model, req *Request, secretRequired bool) (*tokenLookupRequest, error) {
	if req.Method != http.MethodPost {
		return nil, oautherr.InvalidRequest("el método debe ser POST")
	}
	if !req.IsFormEncoded() {
		return nil, oautherr.InvalidRequest("Content-Type debe ser application/x-www-form-urlencoded")
	}

	creds, err := readClientCredentials(req)
	if err != nil {
		return nil, err
	}
	if err := creds.validate(secretRequired); err != nil {
		return nil, err
	}

	token := req.Body["token"]
	if token == "" {
		return nil, oautherr.InvalidRequest("falta el parámetro token")
	}
	hint := req.Body["token_hint"]
	if hint == "" {
		return nil, oautherr.InvalidRequest("falta el parámetro token_hint")
	}
	if hint != hintAccessToken && hint != hintRefreshToken {
		return nil, oautherr.UnsupportedTokenType("token_hint no soportado: " + hint)
	}

	client, err := model.GetClient(ctx, creds.id, creds.secret)
	if err != nil {
		return nil, oautherr.From(err)
	}
	if client == nil {
		return nil, oautherr.InvalidClient("credenciales de client inválidas")
	}
	return &tokenLookupRequest{client: client, token: token, hint: hint}, nil
}

// loadToken trae el token según el hint. (nil, nil) cuando no existe.
func (r *tokenLookupRequest) loadToken(ctx context.Context, model Model) (*Token, error) {
	var (
		token *Token
		err   error
	)
	if r.hint == hintAccessToken {
		token, err = model.GetAccessToken(ctx, r.token)
	} else {
		token, err = model.GetRefreshToken(ctx, r.token)
	}
	if err != nil {
		return nil, oautherr.From(err)
	}
	return token, nil
}

// ownedBy: el token solo se reconoce frente al client que lo emitió.
func (r *tokenLookupRequest) ownedBy(token *Token) bool {
	return token != nil && token.Client != nil && token.Client.ID == r.client.ID
}

// introspectEndpoint implementa RFC 7662: estado y metadata de un token.
type introspectEndpoint struct {
	model Model
	opts  IntrospectOptions
}

func (e *introspectEndpoint) Execute(ctx context.Context, req *Request, res *Response) error {
	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("Pragma", "no-cache")

	body, err := e.handle(ctx, req)
	if err != nil {
		writeLookupError(res, req, oautherr.From(err))
		return err
	}
	res.SetHeader("Content-Type", "application/json;charset=UTF-8")
	res.Status = http.StatusOK
	res.SetBody(body)
	return nil
}

func (e *introspectEndpoint) handle(ctx context.Context, req *Request) (map[string]any, error) {
	lookup, err := parseTokenLookup(ctx, e.model, req, e.opts.IsClientSecretRequired)
	if err != nil {
		return nil, err
	}
	token, err := lookup.loadToken(ctx, e.model)
	if err != nil {
		return nil, err
	}

	// Token desconocido o de otro client: {active:false}, nunca un error.
	if !lookup.ownedBy(token) {
		return map[string]any{"active": false}, nil
	}
	var expiresAt time.Time
	if lookup.hint == hintAccessToken {
		expiresAt = token.AccessTokenExpiresAt
	} else {
		expiresAt = token.RefreshTokenExpiresAt
	}
	if expiresAt.IsZero() || !expiresAt.After(time.Now()) {
		return map[string]any{"active": false}, nil
	}

	body := map[string]any{
		"active":     true,
		"client_id":  token.Client.ID,
		"expires_at": expiresAt.Unix(),
	}
	if token.User != nil {
		body["username"] = token.User.Username
	}
	if token.Scope != "" {
		body["scope"] = token.Scope
	}
	return body, nil
}

// writeLookupError: mismo shape de error que el token endpoint, retoma la
// regla 401 + WWW-Authenticate Basic para invalid_client via header.
func writeLookupError(res *Response, req *Request, oe *oautherr.OAuthError) {
	res.SetHeader("Content-Type", "application/json;charset=UTF-8")
	status := oe.Status
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
