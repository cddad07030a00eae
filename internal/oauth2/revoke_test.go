package oauth2

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
)

func revokeRequest(token, hint string) *Request {
	return formRequest(map[string]string{
		"client_id":     "c1",
		"client_secret": "s1",
		"token":         token,
		"token_hint":    hint,
	})
}

func TestRevoke_OwnedRefreshToken(t *testing.T) {
	m := newFakeModel()
	m.addClient(testClient("c1", GrantRefreshToken), "s1")
	seedRefresh(m, "R1", 3600)

	res := NewResponse()
	err := mustServer(m).Revoke(context.Background(), revokeRequest("R1", "refresh_token"), res, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.Empty(t, res.Body)
	require.Equal(t, 1, m.countCalls("revokeRefreshToken"))
	require.NotContains(t, m.refresh, "R1")
}

func TestRevoke_OwnedAccessToken(t *testing.T) {
	m := newFakeModel()
	m.addClient(testClient("c1", GrantPassword), "s1")
	seedAccess(m, "AT1", 600, "read")

	res := NewResponse()
	err := mustServer(m).Revoke(context.Background(), revokeRequest("AT1", "access_token"), res, nil)
	require.NoError(t, err)
	require.Equal(t, 1, m.countCalls("revokeAccessToken"))
}

func TestRevoke_UnknownTokenStill200(t *testing.T) {
	m := newFakeModel()
	m.addClient(testClient("c1", GrantRefreshToken), "s1")

	res := NewResponse()
	err := mustServer(m).Revoke(context.Background(), revokeRequest("unknown", "refresh_token"), res, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.Empty(t, res.Body)
	// ningún revoke contra el Model
	require.Zero(t, m.countCalls("revokeRefreshToken"))
	require.Zero(t, m.countCalls("revokeAccessToken"))
}

func TestRevoke_ForeignTokenStill200WithoutRevoke(t *testing.T) {
	m := newFakeModel()
	m.addClient(testClient("c1", GrantRefreshToken), "s1")
	m.addClient(testClient("c2", GrantRefreshToken), "s2")
	tok := seedRefresh(m, "R1", 3600)
	tok.Client = m.clients["c2"]

	res := NewResponse()
	err := mustServer(m).Revoke(context.Background(), revokeRequest("R1", "refresh_token"), res, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.Zero(t, m.countCalls("revokeRefreshToken"))
	// el token ajeno sigue vivo
	require.Contains(t, m.refresh, "R1")
}

func TestRevoke_AuthAndParseErrorsPropagate(t *testing.T) {
	m := newFakeModel()
	m.addClient(testClient("c1", GrantRefreshToken), "s1")
	srv := mustServer(m)

	req := formRequest(map[string]string{
		"client_id": "c1", "client_secret": "wrong",
		"token": "R1", "token_hint": "refresh_token",
	})
	res := NewResponse()
	err := srv.Revoke(context.Background(), req, res, nil)
	require.True(t, oautherr.IsName(err, oautherr.NameInvalidClient))
	require.Equal(t, "invalid_client", res.Body["error"])

	err = srv.Revoke(context.Background(), revokeRequest("R1", "bogus"), NewResponse(), nil)
	require.True(t, oautherr.IsName(err, oautherr.NameUnsupportedTokenType))

	// método inválido
	req = NewRequest("GET", map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, nil, nil)
	err = srv.Revoke(context.Background(), req, NewResponse(), nil)
	require.True(t, oautherr.IsName(err, oautherr.NameInvalidRequest))
}
