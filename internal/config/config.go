package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string // Service role key, used for admin REST calls
	SupabaseAnonKey string // Public key, used for password sign-in
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string

	// Backends
	MetadataBackend string // "postgres" | "memory"
	StorageBackend  string // "s3" | "memory"
	AutoMigrate     bool

	// Blob storage
	Storage StorageConfig

	// Explorer behaviour
	ScopeCacheTTL time.Duration
	AdminUserIDs  []string

	// Logging
	LogDir      string
	LogMaxFiles int

	// SessionFile is the durable session slot used by folioctl
	SessionFile string
}

// StorageConfig configures the S3-compatible blob store.
// Supabase Storage exposes an S3 endpoint at SUPABASE_URL/storage/v1/s3.
type StorageConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SignedURLTTL    time.Duration
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	storageEndpoint := getEnv("STORAGE_ENDPOINT", "")
	if storageEndpoint == "" && supabaseURL != "" {
		storageEndpoint = supabaseURL + "/storage/v1/s3"
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: jwksURL,
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:5173"),
		TablePrefix:     tablePrefix,
		MetadataBackend: getEnv("METADATA_BACKEND", "postgres"),
		StorageBackend:  getEnv("STORAGE_BACKEND", "s3"),
		AutoMigrate:     getEnv("AUTO_MIGRATE", getDefaultAutoMigrate(env)) == "true",
		Storage: StorageConfig{
			Bucket:          getEnv("STORAGE_BUCKET", DefaultBucket),
			Endpoint:        storageEndpoint,
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			SignedURLTTL:    getDuration("SIGNED_URL_TTL", DefaultSignedURLTTL),
		},
		ScopeCacheTTL: getDuration("SCOPE_CACHE_TTL", 5*time.Second),
		AdminUserIDs:  splitList(getEnv("ADMIN_USER_IDS", "")),
		LogDir:        getEnv("LOG_DIR", ""),
		LogMaxFiles:   getInt("LOG_MAX_FILES", 10),
		SessionFile:   getEnv("FOLIO_SESSION_FILE", defaultSessionFile()),
	}
}

// IsProduction reports whether destructive tooling should refuse to run.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

// getDefaultAutoMigrate returns the default migration setting based on environment
func getDefaultAutoMigrate(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return ""
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".folio-session.json"
	}
	return filepath.Join(dir, "folio", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go durations ("90s") or plain seconds ("3600").
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
