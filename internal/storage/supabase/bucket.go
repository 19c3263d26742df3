package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"folio/internal/domain/storage"
)

// BucketProvisioner creates buckets through the Supabase Storage REST API.
// Unlike plain S3 it can attach a size cap and a MIME allow-list to the
// bucket itself.
type BucketProvisioner struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewBucketProvisioner requires the service role key (SUPABASE_KEY).
func NewBucketProvisioner(supabaseURL, serviceKey string, logger *slog.Logger) *BucketProvisioner {
	return &BucketProvisioner{
		supabaseURL: supabaseURL,
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type createBucketRequest struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Public           bool     `json:"public"`
	FileSizeLimit    int64    `json:"file_size_limit,omitempty"`
	AllowedMIMETypes []string `json:"allowed_mime_types,omitempty"`
}

// EnsureBucket creates the bucket unless it already exists.
func (p *BucketProvisioner) EnsureBucket(ctx context.Context, spec storage.BucketSpec) error {
	exists, err := p.bucketExists(ctx, spec.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	payload, err := json.Marshal(createBucketRequest{
		ID:               spec.Name,
		Name:             spec.Name,
		Public:           spec.Public,
		FileSizeLimit:    spec.FileSizeLimit,
		AllowedMIMETypes: spec.AllowedMIMETypes,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal bucket request: %w", err)
	}

	resp, body, err := p.do(ctx, http.MethodPost, "/storage/v1/bucket", payload)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", spec.Name, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		p.logger.Info("bucket created",
			"bucket", spec.Name,
			"public", spec.Public,
			"file_size_limit", spec.FileSizeLimit)
		return nil
	case resp.StatusCode == http.StatusConflict || bytes.Contains(body, []byte("already exists")):
		// Lost a race with another instance
		return nil
	default:
		return fmt.Errorf("create bucket %s failed with status %d: %s", spec.Name, resp.StatusCode, string(body))
	}
}

func (p *BucketProvisioner) bucketExists(ctx context.Context, name string) (bool, error) {
	resp, body, err := p.do(ctx, http.MethodGet, "/storage/v1/bucket/"+name, nil)
	if err != nil {
		return false, fmt.Errorf("failed to look up bucket %s: %w", name, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound, http.StatusBadRequest:
		// Storage answers 400 "Bucket not found" on some versions
		return false, nil
	default:
		return false, fmt.Errorf("look up bucket %s failed with status %d: %s", name, resp.StatusCode, string(body))
	}
}

func (p *BucketProvisioner) do(ctx context.Context, method, path string, payload []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.supabaseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.serviceKey)
	req.Header.Set("apikey", p.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, body, nil
}
