package oauth2

// Defaults de los endpoints. Cada llamada puede traer un overlay Options;
// los records default son de solo lectura después de construir el Server.

// AuthorizeOptions configura el endpoint authorize.
type AuthorizeOptions struct {
	AuthenticateHandler       AuthenticateHandler
	AccessTokenLifetime       int // segundos (implicit grant)
	AuthorizationCodeLifetime int // segundos
	AllowEmptyState           bool
}

// AuthenticateOptions configura el endpoint bearer.
type AuthenticateOptions struct {
	Scope                          string
	AddAcceptedScopesHeader        bool
	AddAuthorizedScopesHeader      bool
	AllowBearerTokensInQueryString bool
}

// TokenOptions configura el endpoint token.
type TokenOptions struct {
	AccessTokenLifetime          int // segundos
	RefreshTokenLifetime         int // segundos
	AllowExtendedTokenAttributes bool
	// RequireClientAuthentication por grant type; un grant ausente en el
	// mapa requiere autenticación (default seguro).
	RequireClientAuthentication map[string]bool
	AlwaysIssueNewRefreshToken  bool
	ExtendedGrantTypes          map[string]GrantFactory
}

// IntrospectOptions configura el endpoint introspect (RFC 7662).
type IntrospectOptions struct {
	IsClientSecretRequired bool
}

// RevokeOptions configura el endpoint revoke (RFC 7009).
type RevokeOptions struct {
	IsClientSecretRequired bool
}

func defaultAuthorizeOptions() AuthorizeOptions {
	return AuthorizeOptions{
		AccessTokenLifetime:       1800,
		AuthorizationCodeLifetime: 300,
	}
}

func defaultAuthenticateOptions() AuthenticateOptions {
	return AuthenticateOptions{
		AddAcceptedScopesHeader:   true,
		AddAuthorizedScopesHeader: true,
	}
}

func defaultTokenOptions() TokenOptions {
	return TokenOptions{
		AccessTokenLifetime:  1800,
		RefreshTokenLifetime: 86400,
		RequireClientAuthentication: map[string]bool{
			GrantPassword:     true,
			GrantRefreshToken: true,
		},
		AlwaysIssueNewRefreshToken: true,
	}
}

func defaultIntrospectOptions() IntrospectOptions {
	return IntrospectOptions{IsClientSecretRequired: true}
}

func defaultRevokeOptions() RevokeOptions {
	return RevokeOptions{IsClientSecretRequired: true}
}

// Options es el overlay por llamada. Keys reconocidas por endpoint, valores
// tipados o strings "true"/"false" (passthrough de query params).
type Options map[string]any

// clean devuelve una copia sin nils y con los literales "true"/"false"
// coercionados a bool. La copia evita que un caller observe mutaciones
// entre requests.
func (o Options) clean() Options {
	out := make(Options, len(o))
	for k, v := range o {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			switch s {
			case "true":
				out[k] = true
				continue
			case "false":
				out[k] = false
				continue
			}
		}
		out[k] = v
	}
	return out
}

func (o Options) boolVal(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

func (o Options) intVal(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func (o Options) strVal(key, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}

func (d AuthorizeOptions) overlay(raw Options) AuthorizeOptions {
	o := raw.clean()
	out := d
	if h, ok := o["authenticateHandler"].(AuthenticateHandler); ok {
		out.AuthenticateHandler = h
	}
	out.AccessTokenLifetime = o.intVal("accessTokenLifetime", d.AccessTokenLifetime)
	out.AuthorizationCodeLifetime = o.intVal("authorizationCodeLifetime", d.AuthorizationCodeLifetime)
	out.AllowEmptyState = o.boolVal("allowEmptyState", d.AllowEmptyState)
	return out
}

func (d AuthenticateOptions) overlay(raw Options) AuthenticateOptions {
	o := raw.clean()
	out := d
	out.Scope = o.strVal("scope", d.Scope)
	out.AddAcceptedScopesHeader = o.boolVal("addAcceptedScopesHeader", d.AddAcceptedScopesHeader)
	out.AddAuthorizedScopesHeader = o.boolVal("addAuthorizedScopesHeader", d.AddAuthorizedScopesHeader)
	out.AllowBearerTokensInQueryString = o.boolVal("allowBearerTokensInQueryString", d.AllowBearerTokensInQueryString)
	return out
}

func (d TokenOptions) overlay(raw Options) TokenOptions {
	o := raw.clean()
	out := d
	out.AccessTokenLifetime = o.intVal("accessTokenLifetime", d.AccessTokenLifetime)
	out.RefreshTokenLifetime = o.intVal("refreshTokenLifetime", d.RefreshTokenLifetime)
	out.AllowExtendedTokenAttributes = o.boolVal("allowExtendedTokenAttributes", d.AllowExtendedTokenAttributes)
	out.AlwaysIssueNewRefreshToken = o.boolVal("alwaysIssueNewRefreshToken", d.AlwaysIssueNewRefreshToken)
	if m, ok := o["requireClientAuthentication"].(map[string]bool); ok {
		merged := make(map[string]bool, len(d.RequireClientAuthentication)+len(m))
		for k, v := range d.RequireClientAuthentication {
			merged[k] = v
		}
		for k, v := range m {
			merged[k] = v
		}
		out.RequireClientAuthentication = merged
	}
	if m, ok := o["extendedGrantTypes"].(map[string]GrantFactory); ok {
		out.ExtendedGrantTypes = m
	}
	return out
}

func (d IntrospectOptions) overlay(raw Options) IntrospectOptions {
	o := raw.clean()
	return IntrospectOptions{
		IsClientSecretRequired: o.boolVal("isClientSecretRequired", d.IsClientSecretRequired),
	}
}

func (d RevokeOptions) overlay(raw Options) RevokeOptions {
	o := raw.clean()
	return RevokeOptions{
		IsClientSecretRequired: o.boolVal("isClientSecretRequired", d.IsClientSecretRequired),
	}
}
