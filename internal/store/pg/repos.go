package pg

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/dearjane/internal/oauth2"
	"github.com/dropDatabas3/dearjane/internal/security/password"
	tokens "github.com/dropDatabas3/dearjane/internal/security/token"
	"github.com/dropDatabas3/dearjane/internal/validation"
)

// ---- clients / users ----

func (s *Store) CreateClient(ctx context.Context, c *oauth2.Client, secret, ownerUserID string, scopes []string) error {
	hash := ""
	if secret != "" {
		var err error
		hash, err = password.Hash(password.Default, secret)
		if err != nil {
			return err
		}
	}
	var owner *string
	if ownerUserID != "" {
		owner = &ownerUserID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO oauth_clients
			(id, secret_hash, grants, redirect_uris, scopes, owner_user_id,
			 access_token_lifetime, refresh_token_lifetime, authorization_code_lifetime)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			secret_hash = EXCLUDED.secret_hash,
			grants = EXCLUDED.grants,
			redirect_uris = EXCLUDED.redirect_uris,
			scopes = EXCLUDED.scopes`,
		c.ID, hash, c.Grants, c.RedirectURIs, scopes, owner,
		c.AccessTokenLifetime, c.RefreshTokenLifetime, c.AuthorizationCodeLifetime)
	return err
}

func (s *Store) CreateUser(ctx context.Context, u *oauth2.User, plain string) (*oauth2.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	hash, err := password.Hash(password.Default, plain)
	if err != nil {
		return nil, err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO oauth_users (id, username, password_hash)
		VALUES ($1,$2,$3)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash`,
		u.ID, u.Username, hash)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) GetClient(ctx context.Context, clientID, clientSecret string) (*oauth2.Client, error) {
	var (
		c          oauth2.Client
		secretHash string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, secret_hash, grants, redirect_uris,
		       access_token_lifetime, refresh_token_lifetime, authorization_code_lifetime
		FROM oauth_clients WHERE id = $1`,
		clientID).Scan(&c.ID, &secretHash, &c.Grants, &c.RedirectURIs,
		&c.AccessTokenLifetime, &c.RefreshTokenLifetime, &c.AuthorizationCodeLifetime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if clientSecret != "" && !password.Verify(clientSecret, secretHash) {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) GetUser(ctx context.Context, username, plain string) (*oauth2.User, error) {
	var (
		u    oauth2.User
		hash string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash FROM oauth_users WHERE username = $1`,
		username).Scan(&u.ID, &u.Username, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !password.Verify(plain, hash) {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) GetUserFromClient(ctx context.Context, client *oauth2.Client) (*oauth2.User, error) {
	var u oauth2.User
	err := s.pool.QueryRow(ctx, `
		SELECT u.id, u.username
		FROM oauth_users u
		JOIN oauth_clients c ON c.owner_user_id = u.id
		WHERE c.id = $1`,
		client.ID).Scan(&u.ID, &u.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ---- tokens ----

func (s *Store) SaveToken(ctx context.Context, client *oauth2.Client, user *oauth2.User, t *oauth2.Token) (*oauth2.Token, error) {
	var (
		refreshHash *string
		refreshExp  *time.Time
	)
	if t.RefreshToken != "" {
		h := tokens.SHA256Base64URL(t.RefreshToken)
		refreshHash = &h
		e := t.RefreshTokenExpiresAt
		refreshExp = &e
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO oauth_tokens
			(access_token_hash, refresh_token_hash, access_expires_at, refresh_expires_at,
			 scope, client_id, user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		tokens.SHA256Base64URL(t.AccessToken), refreshHash,
		t.AccessTokenExpiresAt, refreshExp, t.Scope, client.ID, user.ID)
	if err != nil {
		return nil, err
	}
	out := *t
	out.Client = client
	out.User = user
	return &out, nil
}

const tokenCols = `
	SELECT t.access_expires_at, t.refresh_expires_at, t.scope,
	       c.id, c.grants, c.redirect_uris,
	       c.access_token_lifetime, c.refresh_token_lifetime, c.authorization_code_lifetime,
	       u.id, u.username
	FROM oauth_tokens t
	JOIN oauth_clients c ON c.id = t.client_id
	JOIN oauth_users u ON u.id = t.user_id`

func (s *Store) GetAccessToken(ctx context.Context, accessToken string) (*oauth2.Token, error) {
	row := s.pool.QueryRow(ctx,
		tokenCols+` WHERE t.access_token_hash = $1 AND t.revoked_at IS NULL`,
		tokens.SHA256Base64URL(accessToken))
	t, err := scanToken(row)
	if t != nil {
		t.AccessToken = accessToken
	}
	return t, err
}

func (s *Store) GetRefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	row := s.pool.QueryRow(ctx,
		tokenCols+` WHERE t.refresh_token_hash = $1 AND t.refresh_revoked_at IS NULL`,
		tokens.SHA256Base64URL(refreshToken))
	t, err := scanToken(row)
	if t != nil {
		t.RefreshToken = refreshToken
	}
	return t, err
}

func scanToken(row pgx.Row) (*oauth2.Token, error) {
	var (
		t          oauth2.Token
		c          oauth2.Client
		u          oauth2.User
		refreshExp *time.Time
	)
	err := row.Scan(&t.AccessTokenExpiresAt, &refreshExp, &t.Scope,
		&c.ID, &c.Grants, &c.RedirectURIs,
		&c.AccessTokenLifetime, &c.RefreshTokenLifetime, &c.AuthorizationCodeLifetime,
		&u.ID, &u.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if refreshExp != nil {
		t.RefreshTokenExpiresAt = *refreshExp
	}
	t.Client = &c
	t.User = &u
	return &t, nil
}

func (s *Store) RevokeAccessToken(ctx context.Context, t *oauth2.Token) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE oauth_tokens SET revoked_at = now()
		WHERE access_token_hash = $1 AND revoked_at IS NULL`,
		tokens.SHA256Base64URL(t.AccessToken))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, t *oauth2.Token) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE oauth_tokens SET refresh_revoked_at = now()
		WHERE refresh_token_hash = $1 AND refresh_revoked_at IS NULL`,
		tokens.SHA256Base64URL(t.RefreshToken))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ---- authorization codes ----

func (s *Store) SaveAuthorizationCode(ctx context.Context, client *oauth2.Client, user *oauth2.User, ac *oauth2.AuthorizationCode) (*oauth2.AuthorizationCode, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO oauth_codes (code_hash, expires_at, redirect_uri, scope, client_id, user_id)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		tokens.SHA256Base64URL(ac.Code), ac.ExpiresAt, ac.RedirectURI, ac.Scope, client.ID, user.ID)
	if err != nil {
		return nil, err
	}
	out := *ac
	out.Client = client
	out.User = user
	return &out, nil
}

func (s *Store) GetAuthorizationCode(ctx context.Context, code string) (*oauth2.AuthorizationCode, error) {
	var (
		ac oauth2.AuthorizationCode
		c  oauth2.Client
		u  oauth2.User
	)
	err := s.pool.QueryRow(ctx, `
		SELECT a.expires_at, a.redirect_uri, a.scope,
		       c.id, c.grants, c.redirect_uris,
		       c.access_token_lifetime, c.refresh_token_lifetime, c.authorization_code_lifetime,
		       u.id, u.username
		FROM oauth_codes a
		JOIN oauth_clients c ON c.id = a.client_id
		JOIN oauth_users u ON u.id = a.user_id
		WHERE a.code_hash = $1 AND a.consumed_at IS NULL`,
		tokens.SHA256Base64URL(code)).Scan(
		&ac.ExpiresAt, &ac.RedirectURI, &ac.Scope,
		&c.ID, &c.Grants, &c.RedirectURIs,
		&c.AccessTokenLifetime, &c.RefreshTokenLifetime, &c.AuthorizationCodeLifetime,
		&u.ID, &u.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ac.Code = code
	ac.Client = &c
	ac.User = &u
	return &ac, nil
}

// RevokeAuthorizationCode marca el code como consumido. El WHERE sobre
// consumed_at hace el single-use atómico frente a canjes concurrentes.
func (s *Store) RevokeAuthorizationCode(ctx context.Context, ac *oauth2.AuthorizationCode) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE oauth_codes SET consumed_at = now()
		WHERE code_hash = $1 AND consumed_at IS NULL`,
		tokens.SHA256Base64URL(ac.Code))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ---- capabilities opcionales ----

func (s *Store) ValidateScope(ctx context.Context, client *oauth2.Client, user *oauth2.User, scope string) (string, error) {
	var allowed []string
	err := s.pool.QueryRow(ctx,
		`SELECT scopes FROM oauth_clients WHERE id = $1`, client.ID).Scan(&allowed)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if scope == "" {
		return strings.Join(allowed, " "), nil
	}
	if !validation.ValidScope(scope) {
		return "", nil
	}
	set := map[string]bool{}
	for _, a := range allowed {
		set[a] = true
	}
	for _, name := range validation.SplitScope(scope) {
		if !set[name] {
			return "", nil
		}
	}
	return scope, nil
}

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
