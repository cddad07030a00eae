package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dropDatabas3/dearjane/internal/oauth2"
)

// FromHTTP convierte un *http.Request en el Request del engine. El body
// solo se parsea cuando es form-encoded (límite 64KB, como corresponde a
// un token request).
func FromHTTP(w http.ResponseWriter, r *http.Request) (*oauth2.Request, error) {
	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	query := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	body := map[string]string{}
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/x-www-form-urlencoded") {
		r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				body[k] = v[0]
			}
		}
	}
	return oauth2.NewRequest(r.Method, headers, query, body), nil
}

// Flush vuelca el Response del engine al ResponseWriter: headers con su
// case canónico, status y body JSON si hay.
func Flush(w http.ResponseWriter, res *oauth2.Response) {
	for k, v := range res.Headers() {
		w.Header().Set(k, v)
	}
	if len(res.Body) > 0 {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}
		w.WriteHeader(res.Status)
		_ = json.NewEncoder(w).Encode(res.Body)
		return
	}
	w.WriteHeader(res.Status)
}
