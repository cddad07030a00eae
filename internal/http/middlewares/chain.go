package middlewares

import (
	"context"
	"net/http"
)

// Middleware es el tipo estándar de middleware http.
type Middleware func(http.Handler) http.Handler

type ctxKeyRequestID struct{}
type ctxKeyUser struct{}

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, rid)
}

// GetRequestID devuelve el request id del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return v
}

// SetUser inyecta la identidad autenticada (lo usa el middleware bearer).
func SetUser(ctx context.Context, user any) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, user)
}

// GetUser devuelve la identidad autenticada o nil.
func GetUser(ctx context.Context) any {
	return ctx.Value(ctxKeyUser{})
}
