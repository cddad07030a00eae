package http

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/dearjane/internal/http/middlewares"
	"github.com/dropDatabas3/dearjane/internal/metrics"
	"github.com/dropDatabas3/dearjane/internal/oauth2"
	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
)

// Los handlers son el binding fino engine ↔ net/http: convierten el
// request, ejecutan el endpoint, observan métricas y vuelcan el Response.

func observe(endpoint string, start time.Time, err error) {
	metrics.EndpointLatency.WithLabelValues(endpoint).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, oautherr.From(err).Name).Inc()
	}
}

// NewAuthorizeHandler atiende GET/POST /oauth/authorize. opts permite
// inyectar un authenticateHandler propio (p.ej. una página de login).
func NewAuthorizeHandler(srv *oauth2.Server, opts oauth2.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		req, err := FromHTTP(w, r)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", "form inválido")
			return
		}
		res := oauth2.NewResponse()
		err = srv.Authorize(r.Context(), req, res, opts)
		observe("authorize", start, err)
		Flush(w, res)
	}
}

func NewTokenHandler(srv *oauth2.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		req, err := FromHTTP(w, r)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", "form inválido")
			return
		}
		res := oauth2.NewResponse()
		err = srv.Token(r.Context(), req, res, nil)
		observe("token", start, err)
		if err == nil {
			metrics.TokensIssued.WithLabelValues(req.Body["grant_type"]).Inc()
		}
		Flush(w, res)
	}
}

func NewIntrospectHandler(srv *oauth2.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		req, err := FromHTTP(w, r)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", "form inválido")
			return
		}
		res := oauth2.NewResponse()
		err = srv.Introspect(r.Context(), req, res, nil)
		observe("introspect", start, err)
		Flush(w, res)
	}
}

func NewRevokeHandler(srv *oauth2.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		req, err := FromHTTP(w, r)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", "form inválido")
			return
		}
		res := oauth2.NewResponse()
		err = srv.Revoke(r.Context(), req, res, nil)
		observe("revoke", start, err)
		if err == nil {
			metrics.TokensRevoked.WithLabelValues(req.Body["token_hint"]).Inc()
		}
		Flush(w, res)
	}
}

// RequireToken protege un recurso con bearer tokens. scope vacío solo
// exige un token vigente.
func RequireToken(srv *oauth2.Server, scope string) middlewares.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			req, err := FromHTTP(w, r)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "invalid_request", "form inválido")
				return
			}
			res := oauth2.NewResponse()
			var opts oauth2.Options
			if scope != "" {
				opts = oauth2.Options{"scope": scope}
			}
			user, err := srv.Authenticate(r.Context(), req, res, opts)
			observe("authenticate", start, err)
			if err != nil {
				Flush(w, res)
				return
			}
			// los headers X-*-OAuth-Scopes del engine viajan con la
			// respuesta del recurso
			for k, v := range res.Headers() {
				w.Header().Set(k, v)
			}
			ctx := middlewares.SetUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
