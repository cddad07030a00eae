package oauth2

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/dearjane/internal/observability/logger"
	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
)

// Server es la fachada del engine: guarda el Model y los defaults por
// endpoint. Cada llamada clona los defaults, aplica el overlay Options y
// construye el handler del endpoint. El Server no tiene estado mutable
// entre requests.
type Server struct {
	model Model

	authorizeDefaults    AuthorizeOptions
	authenticateDefaults AuthenticateOptions
	tokenDefaults        TokenOptions
	introspectDefaults   IntrospectOptions
	revokeDefaults       RevokeOptions

	log *zap.Logger
}

// ServerConfig configura la fachada. Solo Model es obligatorio; los
// Options de construcción pisan los defaults de cada endpoint para toda
// la vida del Server.
type ServerConfig struct {
	Model Model

	AuthorizeOptions    Options
	AuthenticateOptions Options
	TokenOptions        Options
	IntrospectOptions   Options
	RevokeOptions       Options
}

// NewServer construye la fachada. Falla con invalid_argument si el Model
// no está.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Model == nil {
		return nil, oautherr.InvalidArgument("falta el Model")
	}
	return &Server{
		model:                cfg.Model,
		authorizeDefaults:    defaultAuthorizeOptions().overlay(cfg.AuthorizeOptions),
		authenticateDefaults: defaultAuthenticateOptions().overlay(cfg.AuthenticateOptions),
		tokenDefaults:        defaultTokenOptions().overlay(cfg.TokenOptions),
		introspectDefaults:   defaultIntrospectOptions().overlay(cfg.IntrospectOptions),
		revokeDefaults:       defaultRevokeOptions().overlay(cfg.RevokeOptions),
		log:                  logger.Named("oauth2"),
	}, nil
}

// Authorize ejecuta el endpoint /authorize. Si no hay authenticateHandler
// configurado, el resource owner se autentica con el endpoint bearer.
func (s *Server) Authorize(ctx context.Context, req *Request, res *Response, opts Options) error {
	o := s.authorizeDefaults.overlay(opts)
	if o.AuthenticateHandler == nil {
		o.AuthenticateHandler = &bearerAuthenticateHandler{server: s}
	}
	ep := &authorizeEndpoint{model: s.model, opts: o}
	if err := ep.Execute(ctx, req, res); err != nil {
		s.log.Debug("authorize rechazado", zap.Error(err))
		return err
	}
	return nil
}

// Token ejecuta el token endpoint y deja el BearerToken en el body.
func (s *Server) Token(ctx context.Context, req *Request, res *Response, opts Options) error {
	o := s.tokenDefaults.overlay(opts)
	ep := &tokenEndpoint{model: s.model, opts: o}
	if err := ep.Execute(ctx, req, res); err != nil {
		s.log.Debug("token rechazado", zap.Error(err))
		return err
	}
	return nil
}

// Authenticate valida un bearer token y devuelve el user autenticado.
func (s *Server) Authenticate(ctx context.Context, req *Request, res *Response, opts Options) (*User, error) {
	o := s.authenticateDefaults.overlay(opts)
	if o.Scope != "" {
		if _, ok := s.model.(ScopeVerifier); !ok {
			err := oautherr.InvalidArgument("se configuró scope pero el Model no implementa VerifyScope")
			(&authenticateEndpoint{}).writeError(res, err)
			return nil, err
		}
	}
	ep := &authenticateEndpoint{model: s.model, opts: o}
	user, err := ep.Execute(ctx, req, res)
	if err != nil {
		s.log.Debug("authenticate rechazado", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// Introspect ejecuta RFC 7662.
func (s *Server) Introspect(ctx context.Context, req *Request, res *Response, opts Options) error {
	o := s.introspectDefaults.overlay(opts)
	ep := &introspectEndpoint{model: s.model, opts: o}
	if err := ep.Execute(ctx, req, res); err != nil {
		s.log.Debug("introspect rechazado", zap.Error(err))
		return err
	}
	return nil
}

// Revoke ejecuta RFC 7009.
func (s *Server) Revoke(ctx context.Context, req *Request, res *Response, opts Options) error {
	o := s.revokeDefaults.overlay(opts)
	ep := &revokeEndpoint{model: s.model, opts: o}
	if err := ep.Execute(ctx, req, res); err != nil {
		s.log.Debug("revoke rechazado", zap.Error(err))
		return err
	}
	return nil
}

// bearerAuthenticateHandler es el authenticate handler por defecto de
// /authorize: el user sale de un bearer token válido.
type bearerAuthenticateHandler struct {
	server *Server
}

func (h *bearerAuthenticateHandler) Execute(ctx context.Context, req *Request, res *Response) (*User, error) {
	return h.server.Authenticate(ctx, req, res, nil)
}
