package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"folio/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MinPasswordLength matches the sign-in form's rule.
const MinPasswordLength = 6

// PasswordClient signs users in with email and password against Supabase Auth.
type PasswordClient struct {
	supabaseURL string
	anonKey     string
	httpClient  *http.Client
}

// NewPasswordClient creates a sign-in client using the project's anon key.
func NewPasswordClient(supabaseURL, anonKey string) *PasswordClient {
	return &PasswordClient{
		supabaseURL: supabaseURL,
		anonKey:     anonKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Credentials is a sign-in attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks email format and password length before any network call.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email,
			validation.Required.Error("Please enter a valid email address"),
			is.EmailFormat.Error("Please enter a valid email address"),
		),
		validation.Field(&c.Password,
			validation.Required.Error("Password must be at least 6 characters"),
			validation.RuneLength(MinPasswordLength, 0).Error("Password must be at least 6 characters"),
		),
	)
}

// TokenResponse is the Supabase token grant response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// SignIn exchanges credentials for an access token.
// Invalid input returns *domain.ValidationError; rejected credentials
// return *domain.UnauthorizedError.
func (c *PasswordClient) SignIn(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := creds.Validate(); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	url := fmt.Sprintf("%s/auth/v1/token?grant_type=password", c.supabaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return nil, &domain.UnauthorizedError{Message: "Invalid email or password"}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("sign in failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokens TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &tokens, nil
}
