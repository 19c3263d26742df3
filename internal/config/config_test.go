package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUploadPolicy(t *testing.T) {
	p, err := LoadUploadPolicy()
	require.NoError(t, err)

	assert.Equal(t, MaxUploadBytes, p.MaxSizeBytes)
	assert.Contains(t, p.BucketMIMETypes, "application/pdf")
	assert.True(t, p.AllowsIcon("star"))
	assert.False(t, p.AllowsIcon("rocket"))
}

func TestUploadPolicy_AllowsMIME(t *testing.T) {
	p, err := LoadUploadPolicy()
	require.NoError(t, err)

	tests := []struct {
		mime string
		want bool
	}{
		{"image/png", true},
		{"text/plain; charset=utf-8", true},
		{"  Application/PDF ", true},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", true},
		{"application/x-msdownload", false},
		{"application/octet-stream", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, p.AllowsMIME(tt.mime))
		})
	}
}

func TestUploadPolicy_BucketAdmitsEveryAllowedType(t *testing.T) {
	p, err := LoadUploadPolicy()
	require.NoError(t, err)

	for _, prefix := range p.AllowedMIMEPrefixes {
		mime := prefix
		if strings.HasSuffix(mime, "/") {
			mime += "example"
		}
		assert.True(t, p.AllowsMIME(mime), mime)
		assert.True(t, p.BucketAllowsMIME(mime), "bucket rejects %s", mime)
	}

	for _, mime := range []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.template",
		"application/x-rar",
		"application/vnd.ms-excel.sheet.macroEnabled.12",
	} {
		assert.False(t, p.AllowsMIME(mime), mime)
	}
}

func TestParseUploadPolicy_PrefixOutsideBucket(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		ok   bool
	}{
		{"wildcard covers prefix", "allowed_mime_prefixes: [image/, image/png]\nbucket_mime_types: [image/*]\n", true},
		{"exact match", "allowed_mime_prefixes: [application/zip]\nbucket_mime_types: [application/zip]\n", true},
		{"broader prefix than bucket", "allowed_mime_prefixes: [application/x-rar]\nbucket_mime_types: [application/x-rar-compressed]\n", false},
		{"no bucket list", "allowed_mime_prefixes: [text/]\n", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseUploadPolicy([]byte(tc.doc))
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseUploadPolicy(t *testing.T) {
	p, err := ParseUploadPolicy([]byte("allowed_mime_prefixes: [text/]\n"))
	require.NoError(t, err)
	assert.Equal(t, MaxUploadBytes, p.MaxSizeBytes, "missing size falls back to the default")

	_, err = ParseUploadPolicy([]byte("max_size_bytes: 10\n"))
	assert.Error(t, err)

	_, err = ParseUploadPolicy([]byte("max_size_bytes: [\n"))
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "SUPABASE_URL", "TABLE_PREFIX", "METADATA_BACKEND",
		"STORAGE_BACKEND", "STORAGE_ENDPOINT", "STORAGE_BUCKET", "SIGNED_URL_TTL",
		"SCOPE_CACHE_TTL", "AUTO_MIGRATE", "ADMIN_USER_IDS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, "postgres", cfg.MetadataBackend)
	assert.Equal(t, "s3", cfg.StorageBackend)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, DefaultBucket, cfg.Storage.Bucket)
	assert.Equal(t, time.Hour, cfg.Storage.SignedURLTTL)
	assert.Equal(t, 5*time.Second, cfg.ScopeCacheTTL)
	assert.Empty(t, cfg.AdminUserIDs)
	assert.Empty(t, cfg.Storage.Endpoint)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("AUTO_MIGRATE", "")
	t.Setenv("STORAGE_ENDPOINT", "")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("SIGNED_URL_TTL", "90")
	t.Setenv("SCOPE_CACHE_TTL", "250ms")
	t.Setenv("ADMIN_USER_IDS", " u1, ,u2 ")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "", cfg.TablePrefix)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "https://abc.supabase.co/auth/v1/.well-known/jwks.json", cfg.SupabaseJWKSURL)
	assert.Equal(t, "https://abc.supabase.co/storage/v1/s3", cfg.Storage.Endpoint)
	assert.Equal(t, 90*time.Second, cfg.Storage.SignedURLTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.ScopeCacheTTL)
	assert.Equal(t, []string{"u1", "u2"}, cfg.AdminUserIDs)
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"server-2025-01-01T00-00-00.log",
		"server-2025-01-02T00-00-00.log",
		"server-2025-01-03T00-00-00.log",
		"folioctl-2025-01-01T00-00-00.log",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	require.NoError(t, cleanupOldLogs(dir, "server", 2))

	files, err := filepath.Glob(filepath.Join(dir, "*.log"))
	require.NoError(t, err)
	var got []string
	for _, f := range files {
		got = append(got, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{
		"server-2025-01-02T00-00-00.log",
		"server-2025-01-03T00-00-00.log",
		"folioctl-2025-01-01T00-00-00.log",
	}, got)
}
