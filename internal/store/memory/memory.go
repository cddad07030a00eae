// Package memory implementa oauth2.Model en memoria: clients y users en
// maps, codes y tokens en un cache.Client con TTL (go-cache o Redis).
// Es el Model de referencia para desarrollo y el que usan los tests.
package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/dearjane/internal/cache"
	"github.com/dropDatabas3/dearjane/internal/oauth2"
	"github.com/dropDatabas3/dearjane/internal/security/password"
	tokens "github.com/dropDatabas3/dearjane/internal/security/token"
	"github.com/dropDatabas3/dearjane/internal/validation"
)

// margen sobre el TTL para que introspect pueda ver un token recién
// expirado como {active:false} en lugar de desconocido
const ttlSlack = 5 * time.Minute

type clientRecord struct {
	client     *oauth2.Client
	secretHash string
	userID     string   // owner para client_credentials
	scopes     []string // scopes permitidos al client
}

type userRecord struct {
	user         *oauth2.User
	passwordHash string
}

// tokenRecord es la forma persistida (JSON) de un oauth2.Token; client y
// user se rehidratan por ID al leer.
type tokenRecord struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
	Scope                 string    `json:"scope,omitempty"`
	ClientID              string    `json:"client_id"`
	UserID                string    `json:"user_id"`
}

type codeRecord struct {
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expires_at"`
	RedirectURI string    `json:"redirect_uri,omitempty"`
	Scope       string    `json:"scope,omitempty"`
	ClientID    string    `json:"client_id"`
	UserID      string    `json:"user_id"`
}

// Store es seguro para uso concurrente.
type Store struct {
	mu        sync.RWMutex
	clients   map[string]*clientRecord
	usersByID map[string]*userRecord
	userIDs   map[string]string // username -> id
	cache     cache.Client
}

// New crea un Store sobre el cache dado (nil usa uno en memoria).
func New(c cache.Client) *Store {
	if c == nil {
		c = cache.NewMemory("oauth")
	}
	return &Store{
		clients:   map[string]*clientRecord{},
		usersByID: map[string]*userRecord{},
		userIDs:   map[string]string{},
		cache:     c,
	}
}

// RegisterClient da de alta un client. ownerUserID puede ser vacío si el
// client no usa client_credentials.
func (s *Store) RegisterClient(c *oauth2.Client, secret, ownerUserID string, scopes []string) error {
	hash := ""
	if secret != "" {
		var err error
		hash, err = password.Hash(password.Default, secret)
		if err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = &clientRecord{
		client:     cloneClient(c),
		secretHash: hash,
		userID:     ownerUserID,
		scopes:     append([]string(nil), scopes...),
	}
	return nil
}

// RegisterUser da de alta un user; genera ID si falta y devuelve el user
// con ID asignado.
func (s *Store) RegisterUser(u *oauth2.User, plainPassword string) (*oauth2.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	hash, err := password.Hash(password.Default, plainPassword)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByID[u.ID] = &userRecord{user: cloneUser(u), passwordHash: hash}
	s.userIDs[u.Username] = u.ID
	return u, nil
}

// ---- oauth2.Model ----

func (s *Store) GetClient(ctx context.Context, clientID, clientSecret string) (*oauth2.Client, error) {
	s.mu.RLock()
	rec, ok := s.clients[clientID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if clientSecret != "" && !password.Verify(clientSecret, rec.secretHash) {
		return nil, nil
	}
	return cloneClient(rec.client), nil
}

func (s *Store) GetUser(ctx context.Context, username, plain string) (*oauth2.User, error) {
	s.mu.RLock()
	id, ok := s.userIDs[username]
	var rec *userRecord
	if ok {
		rec = s.usersByID[id]
	}
	s.mu.RUnlock()
	if rec == nil || !password.Verify(plain, rec.passwordHash) {
		return nil, nil
	}
	return cloneUser(rec.user), nil
}

func (s *Store) GetUserFromClient(ctx context.Context, client *oauth2.Client) (*oauth2.User, error) {
	s.mu.RLock()
	rec, ok := s.clients[client.ID]
	var urec *userRecord
	if ok && rec.userID != "" {
		urec = s.usersByID[rec.userID]
	}
	s.mu.RUnlock()
	if urec == nil {
		return nil, nil
	}
	return cloneUser(urec.user), nil
}

func (s *Store) SaveToken(ctx context.Context, client *oauth2.Client, user *oauth2.User, t *oauth2.Token) (*oauth2.Token, error) {
	rec := tokenRecord{
		AccessToken:           t.AccessToken,
		AccessTokenExpiresAt:  t.AccessTokenExpiresAt,
		RefreshToken:          t.RefreshToken,
		RefreshTokenExpiresAt: t.RefreshTokenExpiresAt,
		Scope:                 t.Scope,
		ClientID:              client.ID,
		UserID:                user.ID,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, accessKey(t.AccessToken), string(b), time.Until(t.AccessTokenExpiresAt)+ttlSlack); err != nil {
		return nil, err
	}
	if t.RefreshToken != "" {
		if err := s.cache.Set(ctx, refreshKey(t.RefreshToken), string(b), time.Until(t.RefreshTokenExpiresAt)+ttlSlack); err != nil {
			return nil, err
		}
	}
	out := *t
	out.Client = cloneClient(client)
	out.User = cloneUser(user)
	return &out, nil
}

func (s *Store) GetAccessToken(ctx context.Context, accessToken string) (*oauth2.Token, error) {
	return s.loadToken(ctx, accessKey(accessToken))
}

func (s *Store) GetRefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return s.loadToken(ctx, refreshKey(refreshToken))
}

func (s *Store) RevokeAccessToken(ctx context.Context, t *oauth2.Token) (bool, error) {
	if err := s.cache.Delete(ctx, accessKey(t.AccessToken)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, t *oauth2.Token) (bool, error) {
	if err := s.cache.Delete(ctx, refreshKey(t.RefreshToken)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) SaveAuthorizationCode(ctx context.Context, client *oauth2.Client, user *oauth2.User, ac *oauth2.AuthorizationCode) (*oauth2.AuthorizationCode, error) {
	rec := codeRecord{
		Code:        ac.Code,
		ExpiresAt:   ac.ExpiresAt,
		RedirectURI: ac.RedirectURI,
		Scope:       ac.Scope,
		ClientID:    client.ID,
		UserID:      user.ID,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, codeKey(ac.Code), string(b), time.Until(ac.ExpiresAt)+ttlSlack); err != nil {
		return nil, err
	}
	out := *ac
	out.Client = cloneClient(client)
	out.User = cloneUser(user)
	return &out, nil
}

func (s *Store) GetAuthorizationCode(ctx context.Context, code string) (*oauth2.AuthorizationCode, error) {
	raw, err := s.cache.Get(ctx, codeKey(code))
	if cache.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec codeRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	client, user := s.hydrate(rec.ClientID, rec.UserID)
	return &oauth2.AuthorizationCode{
		Code:        rec.Code,
		ExpiresAt:   rec.ExpiresAt,
		RedirectURI: rec.RedirectURI,
		Scope:       rec.Scope,
		Client:      client,
		User:        user,
	}, nil
}

func (s *Store) RevokeAuthorizationCode(ctx context.Context, ac *oauth2.AuthorizationCode) (bool, error) {
	// un solo uso: si la key ya no está, alguien lo consumió antes
	if _, err := s.cache.Get(ctx, codeKey(ac.Code)); cache.IsNotFound(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := s.cache.Delete(ctx, codeKey(ac.Code)); err != nil {
		return false, err
	}
	return true, nil
}

// ---- capabilities opcionales ----

// ValidateScope acota el scope pedido a los scopes del client. Un scope
// vacío resuelve al set completo del client.
func (s *Store) ValidateScope(ctx context.Context, client *oauth2.Client, user *oauth2.User, scope string) (string, error) {
	s.mu.RLock()
	rec, ok := s.clients[client.ID]
	s.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if scope == "" {
		return strings.Join(rec.scopes, " "), nil
	}
	if !validation.ValidScope(scope) {
		return "", nil
	}
	allowed := map[string]bool{}
	for _, a := range rec.scopes {
		allowed[a] = true
	}
	for _, name := range validation.SplitScope(scope) {
		if !allowed[name] {
			return "", nil
		}
	}
	return scope, nil
}

// VerifyScope: el token alcanza si contiene todos los scopes requeridos.
func (s *Store) VerifyScope(ctx context.Context, t *oauth2.Token, requiredScope string) (bool, error) {
	granted := map[string]bool{}
	for _, name := range validation.SplitScope(t.Scope) {
		granted[name] = true
	}
	for _, name := range validation.SplitScope(requiredScope) {
		if !granted[name] {
			return false, nil
		}
	}
	return true, nil
}

// ---- helpers ----

func (s *Store) loadToken(ctx context.Context, key string) (*oauth2.Token, error) {
	raw, err := s.cache.Get(ctx, key)
	if cache.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec tokenRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	client, user := s.hydrate(rec.ClientID, rec.UserID)
	return &oauth2.Token{
		AccessToken:           rec.AccessToken,
		AccessTokenExpiresAt:  rec.AccessTokenExpiresAt,
		RefreshToken:          rec.RefreshToken,
		RefreshTokenExpiresAt: rec.RefreshTokenExpiresAt,
		Scope:                 rec.Scope,
		Client:                client,
		User:                  user,
	}, nil
}

func (s *Store) hydrate(clientID, userID string) (*oauth2.Client, *oauth2.User) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var client *oauth2.Client
	if rec, ok := s.clients[clientID]; ok {
		client = cloneClient(rec.client)
	}
	var user *oauth2.User
	if rec, ok := s.usersByID[userID]; ok {
		user = cloneUser(rec.user)
	}
	return client, user
}

// Las keys del cache llevan hash del token, nunca el token en claro.
func accessKey(t string) string  { return "at:" + tokens.SHA256Base64URL(t) }
func refreshKey(t string) string { return "rt:" + tokens.SHA256Base64URL(t) }
func codeKey(c string) string    { return "code:" + tokens.SHA256Base64URL(c) }

func cloneClient(c *oauth2.Client) *oauth2.Client {
	if c == nil {
		return nil
	}
	out := *c
	out.Grants = append([]string(nil), c.Grants...)
	out.RedirectURIs = append([]string(nil), c.RedirectURIs...)
	return &out
}

func cloneUser(u *oauth2.User) *oauth2.User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}
