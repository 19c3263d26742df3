package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"folio/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"valid", Credentials{Email: "a@b.co", Password: "secret"}, false},
		{"bad email", Credentials{Email: "not-an-email", Password: "secret"}, true},
		{"empty email", Credentials{Email: "", Password: "secret"}, true},
		{"short password", Credentials{Email: "a@b.co", Password: "12345"}, true},
		{"six chars ok", Credentials{Email: "a@b.co", Password: "123456"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPasswordClient_SignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))

		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "correct-horse" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600,"user":{"id":"u1","email":"a@b.co"}}`))
	}))
	defer srv.Close()

	client := NewPasswordClient(srv.URL, "anon")

	tokens, err := client.SignIn(context.Background(), Credentials{Email: " a@b.co ", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "tok", tokens.AccessToken)
	assert.Equal(t, "u1", tokens.User.ID)

	_, err = client.SignIn(context.Background(), Credentials{Email: "a@b.co", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = client.SignIn(context.Background(), Credentials{Email: "a@b.co", Password: "123"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
