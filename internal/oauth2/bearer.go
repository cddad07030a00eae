package oauth2

import "time"

// bearerBody arma la representación wire RFC 6750 de un token persistido.
// Los nombres de campo son exactamente los del estándar.
func bearerBody(t *Token, allowExtended bool) map[string]any {
	body := map[string]any{
		"access_token": t.AccessToken,
		"token_type":   "Bearer",
	}
	if !t.AccessTokenExpiresAt.IsZero() {
		body["expires_in"] = int64(time.Until(t.AccessTokenExpiresAt).Seconds())
	}
	if t.RefreshToken != "" {
		body["refresh_token"] = t.RefreshToken
	}
	if t.Scope != "" {
		body["scope"] = t.Scope
	}
	if allowExtended {
		for k, v := range t.Extra {
			// los campos estándar nunca se pisan con atributos extendidos
			if _, reserved := body[k]; reserved {
				continue
			}
			body[k] = v
		}
	}
	return body
}
