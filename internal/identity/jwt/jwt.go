// Package jwt issues and validates the signed bearer tokens used for
// authentication. Tokens are self-contained: subject plus absolute
// expiry, no server-side session state.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails validation.
// Expired, malformed and badly signed tokens are deliberately
// indistinguishable to the caller.
var ErrInvalidToken = errors.New("invalid or expired token")

// DefaultTokenTTL applies when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

// Config contains token signing configuration, loaded once at startup.
type Config struct {
	SecretKey string
	TokenTTL  time.Duration
}

// Issuer creates and validates HS256-signed tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates a token issuer from config. A zero TTL falls back
// to the default; a negative TTL is honored and yields already-expired
// tokens.
func NewIssuer(cfg Config) *Issuer {
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{
		secret: []byte(cfg.SecretKey),
		ttl:    ttl,
	}
}

// Issue produces a signed token embedding the subject and an absolute
// expiry of now plus the configured TTL.
func (i *Issuer) Issue(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate returns the embedded subject only if the signature verifies
// and the token has not expired; otherwise ErrInvalidToken.
func (i *Issuer) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
