// Package config builds runtime configuration from TB_-prefixed environment
// variables so main stays lean. A .env file is honored when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string

	// JWTSecret validates bearer tokens minted by the external auth service.
	JWTSecret string
	Issuer    string

	// FrontendBaseURL is the base for credential share URLs.
	FrontendBaseURL string

	// ExtractorURL points at the document extraction service. Empty means
	// the deterministic static gateway is used (local development).
	ExtractorURL      string
	ExtractionTimeout time.Duration

	PrivateKeyPath string
	PublicKeyPath  string

	WorkerCount int
	QueueSize   int

	// BankHealthThresholdCents saturates the bank_health score mapping.
	BankHealthThresholdCents int64

	// BlobDir is where uploaded documents are kept. Empty means in-memory.
	BlobDir string

	ProfileCacheTTL time.Duration
}

// Load reads configuration from the environment. Defaults favor local
// development; production deployments override via environment.
func Load() Config {
	// Missing .env is fine; the environment may be fully set already.
	_ = godotenv.Load()

	return Config{
		Addr:                     envStr("TB_ADDR", ":8080"),
		DatabaseURL:              envStr("TB_DATABASE_URL", ""),
		RedisURL:                 envStr("TB_REDIS_URL", ""),
		JWTSecret:                envStr("TB_JWT_SECRET", "dev-secret-change-in-production"),
		Issuer:                   envStr("TB_ISSUER", "TrustBridge"),
		FrontendBaseURL:          envStr("TB_FRONTEND_URL", "http://localhost:3000"),
		ExtractorURL:             envStr("TB_EXTRACTOR_URL", ""),
		ExtractionTimeout:        envDuration("TB_EXTRACTION_TIMEOUT", 60*time.Second),
		PrivateKeyPath:           envStr("TB_RSA_PRIVATE_KEY_PATH", "keys/private.pem"),
		PublicKeyPath:            envStr("TB_RSA_PUBLIC_KEY_PATH", "keys/public.pem"),
		WorkerCount:              envInt("TB_WORKER_COUNT", 4),
		QueueSize:                envInt("TB_QUEUE_SIZE", 64),
		BankHealthThresholdCents: envInt64("TB_BANK_HEALTH_THRESHOLD_CENTS", 500_000),
		BlobDir:                  envStr("TB_BLOB_DIR", ""),
		ProfileCacheTTL:          envDuration("TB_PROFILE_CACHE_TTL", 5*time.Minute),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
