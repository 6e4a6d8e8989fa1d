package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamlog/roamlog/internal/app/models"
)

func TestHeaderAuthenticator(t *testing.T) {
	a := NewHeaderAuthenticator()

	t.Run("reads X-User-Id", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-User-Id", "user-1")

		identity, err := a.ResolveIdentity(r)
		require.NoError(t, err)
		assert.Equal(t, "user-1", identity)
	})

	t.Run("falls back to the legacy userID header", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("userID", "legacy-user")

		identity, err := a.ResolveIdentity(r)
		require.NoError(t, err)
		assert.Equal(t, "legacy-user", identity)
	})

	t.Run("X-User-Id wins over the legacy header", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-User-Id", "primary")
		r.Header.Set("userID", "legacy")

		identity, err := a.ResolveIdentity(r)
		require.NoError(t, err)
		assert.Equal(t, "primary", identity)
	})

	t.Run("no header is unauthenticated", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)

		_, err := a.ResolveIdentity(r)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}

func TestJWTAuthenticator(t *testing.T) {
	const secret = "test-secret"
	a := NewJWTAuthenticator(secret)

	signedToken := func(t *testing.T, subject, signingSecret string) string {
		t.Helper()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		s, err := token.SignedString([]byte(signingSecret))
		require.NoError(t, err)
		return s
	}

	t.Run("valid token resolves the subject", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+signedToken(t, "user-42", secret))

		identity, err := a.ResolveIdentity(r)
		require.NoError(t, err)
		assert.Equal(t, "user-42", identity)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+signedToken(t, "user-42", "other-secret"))

		_, err := a.ResolveIdentity(r)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("missing subject is rejected", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+signedToken(t, "", secret))

		_, err := a.ResolveIdentity(r)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("missing bearer prefix is rejected", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", signedToken(t, "user-42", secret))

		_, err := a.ResolveIdentity(r)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer not.a.token")

		_, err := a.ResolveIdentity(r)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}
