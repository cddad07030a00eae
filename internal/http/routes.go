package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/dearjane/internal/http/middlewares"
	"github.com/dropDatabas3/dearjane/internal/oauth2"
)

// Deps concentra lo que necesita el router.
type Deps struct {
	OAuth *oauth2.Server
	// AuthorizeOptions se pasa tal cual a /oauth/authorize (p.ej. un
	// authenticateHandler que muestre login en lugar del bearer default).
	AuthorizeOptions oauth2.Options
}

// NewRouter arma el router chi con los cinco endpoints del engine más
// health, métricas y un recurso de ejemplo protegido.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithLogging())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/oauth", func(r chi.Router) {
		authorize := NewAuthorizeHandler(d.OAuth, d.AuthorizeOptions)
		r.Get("/authorize", authorize)
		r.Post("/authorize", authorize)
		r.Post("/token", NewTokenHandler(d.OAuth))
		r.Post("/introspect", NewIntrospectHandler(d.OAuth))
		r.Post("/revoke", NewRevokeHandler(d.OAuth))
	})

	// recurso protegido de ejemplo: identidad del dueño del token
	r.Group(func(r chi.Router) {
		r.Use(RequireToken(d.OAuth, ""))
		r.Get("/me", func(w http.ResponseWriter, req *http.Request) {
			user, _ := middlewares.GetUser(req.Context()).(*oauth2.User)
			if user == nil {
				WriteError(w, http.StatusInternalServerError, "server_error", "user ausente")
				return
			}
			WriteJSON(w, http.StatusOK, map[string]any{
				"id":       user.ID,
				"username": user.Username,
			})
		})
	})

	return r
}
