// Package auth resolves a caller identity from an incoming request.
//
// The core trusts whatever identity the resolver hands back; swapping in a
// real verification scheme is a matter of wiring a different Authenticator.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roamlog/roamlog/internal/app/models"
)

// Authenticator extracts the caller identity from a request.
// Implementations return models.ErrUnauthenticated when no identity is
// present or it fails verification.
type Authenticator interface {
	ResolveIdentity(r *http.Request) (string, error)
}

var (
	_ Authenticator = (*HeaderAuthenticator)(nil)
	_ Authenticator = (*JWTAuthenticator)(nil)
)

// HeaderAuthenticator takes the identity verbatim from the X-User-Id
// header, falling back to the legacy userID header. No verification is
// performed; an upstream gateway is expected to have done it.
type HeaderAuthenticator struct{}

func NewHeaderAuthenticator() *HeaderAuthenticator {
	return &HeaderAuthenticator{}
}

func (a *HeaderAuthenticator) ResolveIdentity(r *http.Request) (string, error) {
	identity := r.Header.Get("X-User-Id")
	if identity == "" {
		identity = r.Header.Get("userID")
	}
	if identity == "" {
		return "", models.ErrUnauthenticated
	}
	return identity, nil
}

// JWTAuthenticator verifies an HMAC-signed bearer token and uses its
// subject claim as the identity.
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

func (a *JWTAuthenticator) ResolveIdentity(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", models.ErrUnauthenticated
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", models.ErrUnauthenticated
	}
	return claims.Subject, nil
}
