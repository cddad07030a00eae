package oauth2

import (
	"context"
	"time"
)

// fakeModel implementa Model en memoria para los tests del engine y
// registra el orden de llamadas (calls) para verificar secuencias como
// revoke-antes-de-save. No implementa las capabilities opcionales; para
// eso están scopeModel y genModel.
type fakeModel struct {
	clients    map[string]*Client
	secrets    map[string]string
	users      map[string]*User // username -> user
	passwords  map[string]string
	clientUser map[string]*User // client id -> user (client_credentials)
	codes      map[string]*AuthorizationCode
	access     map[string]*Token
	refresh    map[string]*Token

	calls      []string
	savedToken *Token
	savedCode  *AuthorizationCode

	// forzar resultados
	failRevokeCode    bool
	failRevokeRefresh bool
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		clients:    map[string]*Client{},
		secrets:    map[string]string{},
		users:      map[string]*User{},
		passwords:  map[string]string{},
		clientUser: map[string]*User{},
		codes:      map[string]*AuthorizationCode{},
		access:     map[string]*Token{},
		refresh:    map[string]*Token{},
	}
}

func (m *fakeModel) addClient(c *Client, secret string) *Client {
	m.clients[c.ID] = c
	m.secrets[c.ID] = secret
	return c
}

func (m *fakeModel) addUser(u *User, password string) *User {
	m.users[u.Username] = u
	m.passwords[u.Username] = password
	return u
}

func (m *fakeModel) GetClient(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	m.calls = append(m.calls, "getClient")
	c, ok := m.clients[clientID]
	if !ok {
		return nil, nil
	}
	if clientSecret != "" && m.secrets[clientID] != clientSecret {
		return nil, nil
	}
	return c, nil
}

func (m *fakeModel) GetUser(ctx context.Context, username, password string) (*User, error) {
	m.calls = append(m.calls, "getUser")
	u, ok := m.users[username]
	if !ok || m.passwords[username] != password {
		return nil, nil
	}
	return u, nil
}

func (m *fakeModel) GetUserFromClient(ctx context.Context, client *Client) (*User, error) {
	m.calls = append(m.calls, "getUserFromClient")
	return m.clientUser[client.ID], nil
}

func (m *fakeModel) SaveToken(ctx context.Context, client *Client, user *User, t *Token) (*Token, error) {
	m.calls = append(m.calls, "saveToken")
	out := *t
	out.Client = client
	out.User = user
	m.savedToken = &out
	m.access[out.AccessToken] = &out
	if out.RefreshToken != "" {
		m.refresh[out.RefreshToken] = &out
	}
	return &out, nil
}

func (m *fakeModel) GetAccessToken(ctx context.Context, accessToken string) (*Token, error) {
	m.calls = append(m.calls, "getAccessToken")
	return m.access[accessToken], nil
}

func (m *fakeModel) GetRefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	m.calls = append(m.calls, "getRefreshToken")
	return m.refresh[refreshToken], nil
}

func (m *fakeModel) RevokeAccessToken(ctx context.Context, t *Token) (bool, error) {
	m.calls = append(m.calls, "revokeAccessToken")
	if _, ok := m.access[t.AccessToken]; !ok {
		return false, nil
	}
	delete(m.access, t.AccessToken)
	return true, nil
}

func (m *fakeModel) RevokeRefreshToken(ctx context.Context, t *Token) (bool, error) {
	m.calls = append(m.calls, "revokeRefreshToken")
	if m.failRevokeRefresh {
		return false, nil
	}
	if _, ok := m.refresh[t.RefreshToken]; !ok {
		return false, nil
	}
	delete(m.refresh, t.RefreshToken)
	return true, nil
}

func (m *fakeModel) SaveAuthorizationCode(ctx context.Context, client *Client, user *User, ac *AuthorizationCode) (*AuthorizationCode, error) {
	m.calls = append(m.calls, "saveAuthorizationCode")
	out := *ac
	out.Client = client
	out.User = user
	m.savedCode = &out
	m.codes[out.Code] = &out
	return &out, nil
}

func (m *fakeModel) GetAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error) {
	m.calls = append(m.calls, "getAuthorizationCode")
	return m.codes[code], nil
}

func (m *fakeModel) RevokeAuthorizationCode(ctx context.Context, ac *AuthorizationCode) (bool, error) {
	m.calls = append(m.calls, "revokeAuthorizationCode")
	if m.failRevokeCode {
		return false, nil
	}
	if _, ok := m.codes[ac.Code]; !ok {
		return false, nil
	}
	delete(m.codes, ac.Code)
	return true, nil
}

func (m *fakeModel) countCalls(name string) int {
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

// scopeModel agrega las capabilities de scope sobre fakeModel.
type scopeModel struct {
	*fakeModel
	validate func(ctx context.Context, client *Client, user *User, scope string) (string, error)
	verify   func(ctx context.Context, t *Token, required string) (bool, error)
}

func (m *scopeModel) ValidateScope(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	m.calls = append(m.calls, "validateScope")
	if m.validate != nil {
		return m.validate(ctx, client, user, scope)
	}
	return scope, nil
}

func (m *scopeModel) VerifyScope(ctx context.Context, t *Token, required string) (bool, error) {
	m.calls = append(m.calls, "verifyScope")
	if m.verify != nil {
		return m.verify(ctx, t, required)
	}
	return true, nil
}

// genModel agrega generadores custom sobre fakeModel.
type genModel struct {
	*fakeModel
	accessToken  string
	refreshToken string
	authCode     string
}

func (m *genModel) GenerateAccessToken(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	m.calls = append(m.calls, "generateAccessToken")
	return m.accessToken, nil
}

func (m *genModel) GenerateRefreshToken(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	m.calls = append(m.calls, "generateRefreshToken")
	return m.refreshToken, nil
}

func (m *genModel) GenerateAuthorizationCode(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	m.calls = append(m.calls, "generateAuthorizationCode")
	return m.authCode, nil
}

// helpers compartidos por los tests de endpoints

func testClient(id string, grants ...string) *Client {
	return &Client{
		ID:           id,
		Grants:       grants,
		RedirectURIs: []string{"https://app.example.com/cb"},
	}
}

func formRequest(body map[string]string) *Request {
	return NewRequest("POST",
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		nil, body)
}

func expiring(seconds int) time.Time {
	return time.Now().Add(time.Duration(seconds) * time.Second)
}

func mustServer(m Model) *Server {
	s, err := NewServer(ServerConfig{Model: m})
	if err != nil {
		panic(err)
	}
	return s
}
