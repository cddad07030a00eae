package oauth2

import (
	"net/http"
	"strings"
)

// Response es el builder de respuesta que los endpoints van mutando a lo
// largo del pipeline. Una instancia por llamada, un solo writer (la
// goroutine que atiende el request).
type Response struct {
	Status  int
	headers map[string]string
	Body    map[string]any
}

// NewResponse crea una respuesta vacía con status 200.
func NewResponse() *Response {
	return &Response{
		Status:  http.StatusOK,
		headers: map[string]string{},
		Body:    map[string]any{},
	}
}

// SetHeader setea un header (key case-insensitive).
func (r *Response) SetHeader(name, value string) {
	r.headers[strings.ToLower(name)] = value
}

// Header devuelve el valor de un header (lookup case-insensitive).
func (r *Response) Header(name string) string {
	return r.headers[strings.ToLower(name)]
}

// Headers devuelve una copia del mapa de headers (keys en minúsculas).
func (r *Response) Headers() map[string]string {
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}

// SetBody reemplaza el body completo.
func (r *Response) SetBody(body map[string]any) {
	if body == nil {
		body = map[string]any{}
	}
	r.Body = body
}

// Redirect setea Location y status 302.
func (r *Response) Redirect(url string) {
	r.SetHeader("Location", url)
	r.Status = http.StatusFound
}
