package oauth2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBearerBody_Fields(t *testing.T) {
	tok := &Token{
		AccessToken:          "AT1",
		AccessTokenExpiresAt: time.Now().Add(1800 * time.Second),
		RefreshToken:         "RT1",
		Scope:                "read",
	}
	body := bearerBody(tok, false)
	require.Equal(t, "AT1", body["access_token"])
	require.Equal(t, "Bearer", body["token_type"])
	require.Equal(t, "RT1", body["refresh_token"])
	require.Equal(t, "read", body["scope"])
	require.InDelta(t, 1800, body["expires_in"], 1)
}

func TestBearerBody_OmitsEmpty(t *testing.T) {
	// scope vacío == ausente; sin refresh ni expiry conocidos tampoco se emiten
	body := bearerBody(&Token{AccessToken: "AT1"}, false)
	require.NotContains(t, body, "scope")
	require.NotContains(t, body, "refresh_token")
	require.NotContains(t, body, "expires_in")
}

func TestBearerBody_ExtendedAttributes(t *testing.T) {
	tok := &Token{
		AccessToken:          "AT1",
		AccessTokenExpiresAt: time.Now().Add(time.Hour),
		Extra: map[string]any{
			"foo":          "bar",
			"access_token": "hijacked", // reservado: nunca se pisa
		},
	}
	body := bearerBody(tok, false)
	require.NotContains(t, body, "foo")

	body = bearerBody(tok, true)
	require.Equal(t, "bar", body["foo"])
	require.Equal(t, "AT1", body["access_token"])
}
