package oauth2

import "strings"

// Request es el request HTTP ya parseado que consume el engine. El
// transporte (chi, net/http, lo que sea) lo construye una vez por llamada;
// después de eso es de solo lectura.
//
// Headers se indexan en minúsculas; Query y Body son los parámetros
// decodificados (form-encoded para Body cuando aplica).
type Request struct {
	Method  string
	headers map[string]string
	Query   map[string]string
	Body    map[string]string
}

// NewRequest normaliza method (uppercase) y headers (lowercase keys).
// Maps nil se reemplazan por vacíos para que los lookups nunca panicken.
func NewRequest(method string, headers, query, body map[string]string) *Request {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[strings.ToLower(k)] = v
	}
	if query == nil {
		query = map[string]string{}
	}
	if body == nil {
		body = map[string]string{}
	}
	return &Request{
		Method:  strings.ToUpper(method),
		headers: h,
		Query:   query,
		Body:    body,
	}
}

// Header devuelve el valor de un header (lookup case-insensitive).
func (r *Request) Header(name string) string {
	return r.headers[strings.ToLower(name)]
}

// HasHeader reports whether the header is present, even when empty.
func (r *Request) HasHeader(name string) bool {
	_, ok := r.headers[strings.ToLower(name)]
	return ok
}

// Param busca un parámetro primero en el body y después en la query.
// Es la regla de merge del endpoint authorize (body ∪ query).
func (r *Request) Param(name string) string {
	if v, ok := r.Body[name]; ok && v != "" {
		return v
	}
	return r.Query[name]
}

// IsFormEncoded reports whether the request carries a form-encoded body.
func (r *Request) IsFormEncoded() bool {
	ct := strings.ToLower(r.Header("Content-Type"))
	return strings.Contains(ct, "application/x-www-form-urlencoded")
}
