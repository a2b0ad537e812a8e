// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string
	// LogFormat is "json" or "console".
	LogFormat string

	// Object storage (S3-compatible: Cloudflare R2 in production, MinIO locally)
	StorageDriver       string // "r2" or "minio"
	StorageAccountID    string // R2 account identifier, used to derive the endpoint
	StorageEndpoint     string // explicit endpoint; overrides the R2 account endpoint
	StorageAccessKey    string
	StorageSecretKey    string
	StorageBucket       string
	StorageUseSSL       bool
	StorageEnsureBucket bool   // minio only: create the bucket with a public-read policy
	StoragePublicBase   string // browser-accessible base URL, e.g. "https://pub-xxxx.r2.dev"

	UploadTimeout  time.Duration
	UploadMaxBytes int64

	CORSAllowedOrigins []string
	MetricsNamespace   string
}

// Load reads configuration from a .env file (if present) and environment variables.
// Storage credentials are not validated here; missing values surface as
// errors from the storage backend.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StorageDriver:       getEnv("STORAGE_DRIVER", "r2"),
		StorageAccountID:    getEnv("R2_ACCOUNT_ID", ""),
		StorageEndpoint:     getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey:    getEnv("R2_ACCESS_KEY_ID", ""),
		StorageSecretKey:    getEnv("R2_SECRET_ACCESS_KEY", ""),
		StorageBucket:       getEnv("R2_BUCKET_NAME", ""),
		StorageUseSSL:       getEnv("STORAGE_USE_SSL", "true") == "true",
		StorageEnsureBucket: getEnv("STORAGE_ENSURE_BUCKET", "false") == "true",
		StoragePublicBase:   getEnv("R2_PUBLIC_URL", ""),

		UploadTimeout:  getDuration("UPLOAD_TIMEOUT", 30*time.Second),
		UploadMaxBytes: getInt64("UPLOAD_MAX_BYTES", 10<<20),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MetricsNamespace:   getEnv("METRICS_NAMESPACE", "wireframe"),
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

// getList splits a comma-separated value, dropping empty entries.
func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
