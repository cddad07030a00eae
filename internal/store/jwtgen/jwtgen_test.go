package jwtgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/dearjane/internal/oauth2"
	memorystore "github.com/dropDatabas3/dearjane/internal/store/memory"
)

func TestGenerateAccessToken_SignedAndVerifiable(t *testing.T) {
	backend := memorystore.New(nil)
	s := New(backend, "https://auth.example.com", []byte("test-secret"))

	raw, err := s.GenerateAccessToken(context.Background(),
		&oauth2.Client{ID: "c1"}, &oauth2.User{ID: "u1"}, "read")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := s.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "u1", claims["sub"])
	require.Equal(t, "c1", claims["aud"])
	require.Equal(t, "read", claims["scope"])
	require.Equal(t, "https://auth.example.com", claims["iss"])
}

func TestVerify_RejectsTampering(t *testing.T) {
	backend := memorystore.New(nil)
	s := New(backend, "https://auth.example.com", []byte("test-secret"))
	other := New(backend, "https://auth.example.com", []byte("other-secret"))

	raw, err := s.GenerateAccessToken(context.Background(),
		&oauth2.Client{ID: "c1"}, &oauth2.User{ID: "u1"}, "")
	require.NoError(t, err)

	_, err = other.Verify(raw)
	require.Error(t, err)
}

func TestEngineUsesGenerator(t *testing.T) {
	backend := memorystore.New(nil)
	client := &oauth2.Client{ID: "c1", Grants: []string{oauth2.GrantPassword}, RedirectURIs: []string{"https://x/cb"}}
	require.NoError(t, backend.RegisterClient(client, "s1", "", []string{"read"}))
	_, err := backend.RegisterUser(&oauth2.User{Username: "alice"}, "pw")
	require.NoError(t, err)

	wrapped := New(backend, "https://auth.example.com", []byte("test-secret"))
	srv, err := oauth2.NewServer(oauth2.ServerConfig{Model: wrapped})
	require.NoError(t, err)

	req := oauth2.NewRequest("POST",
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		nil, map[string]string{
			"grant_type": "password", "client_id": "c1", "client_secret": "s1",
			"username": "alice", "password": "pw", "scope": "read",
		})
	res := oauth2.NewResponse()
	require.NoError(t, srv.Token(context.Background(), req, res, nil))

	access := res.Body["access_token"].(string)
	claims, err := wrapped.Verify(access)
	require.NoError(t, err)
	require.Equal(t, "read", claims["scope"])
}
