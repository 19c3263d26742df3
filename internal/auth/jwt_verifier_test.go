package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"folio/internal/domain"
	"folio/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T) (*SupabaseJWTVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	keyFunc := func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return &key.PublicKey, nil
	}
	return NewJWTVerifierWithKeyfunc(keyFunc, logger), key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims models.SupabaseClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() models.SupabaseClaims {
	return models.SupabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "admin@example.com",
		Role:  "authenticated",
	}
}

func TestVerifyToken(t *testing.T) {
	verifier, key := newTestVerifier(t)

	tests := []struct {
		name    string
		mutate  func(c *models.SupabaseClaims)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *models.SupabaseClaims) {}},
		{name: "anon role", mutate: func(c *models.SupabaseClaims) { c.Role = "anon" }, wantErr: true},
		{name: "missing subject", mutate: func(c *models.SupabaseClaims) { c.Subject = "" }, wantErr: true},
		{name: "expired", mutate: func(c *models.SupabaseClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			tt.mutate(&claims)

			got, err := verifier.VerifyToken(sign(t, key, claims))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", got.GetUserID())
			assert.Equal(t, "admin@example.com", got.Email)
		})
	}
}

func TestVerifyToken_RejectsHMAC(t *testing.T) {
	verifier, _ := newTestVerifier(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyToken_Garbage(t *testing.T) {
	verifier, _ := newTestVerifier(t)
	_, err := verifier.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
