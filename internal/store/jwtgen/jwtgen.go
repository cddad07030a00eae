// Package jwtgen envuelve un store agregando un generador de access
// tokens firmados (HS256). Para el engine el token sigue siendo opaco:
// la vigencia la gobierna el registro persistido, no el JWT. Un resource
// server puede verificar la firma offline como optimización.
package jwtgen

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/dearjane/internal/oauth2"
)

// Backend es el store completo que se envuelve. Exigir las capabilities de
// scope acá evita que el wrapper se las esconda al engine.
type Backend interface {
	oauth2.Model
	oauth2.ScopeValidator
	oauth2.ScopeVerifier
}

type Store struct {
	Backend
	issuer string
	secret []byte
}

func New(backend Backend, issuer string, hs256Secret []byte) *Store {
	return &Store{Backend: backend, issuer: issuer, secret: hs256Secret}
}

// GenerateAccessToken implementa oauth2.AccessTokenGenerator.
func (s *Store) GenerateAccessToken(ctx context.Context, client *oauth2.Client, user *oauth2.User, scope string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   s.issuer,
		"sub":   user.ID,
		"aud":   client.ID,
		"iat":   now.Unix(),
		"jti":   uuid.NewString(),
		"scope": scope,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Verify parsea y valida la firma de un access token emitido por este
// generador. Devuelve los claims o error.
func (s *Store) Verify(raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, err
	}
	claims, _ := tok.Claims.(jwt.MapClaims)
	return claims, nil
}
