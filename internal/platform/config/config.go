package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean; cmd/server loads a .env file first in
// development.
type Server struct {
	Addr        string
	DatabaseURL string

	// UploadDir is the root of the filesystem artifact store.
	UploadDir string

	// Threshold is the global verification distance threshold. It comes from
	// offline model evaluation and is never learned at request time.
	Threshold float64

	// EmbeddingURL points at the external embedding inference service.
	EmbeddingURL       string
	EmbeddingDim       int
	EmbeddingTimeout   time.Duration
	EmbeddingSerialize bool

	// AdminToken authenticates the operator surface; AdminID is the principal
	// recorded in the audit trail for requests bearing that token. Real
	// deployments front this with the organisation's SSO; the core only ever
	// sees the resolved admin ID.
	AdminToken string
	AdminID    int64

	Redis RedisConfig

	// KafkaBrokers enables the compliance mirror of audit events when set.
	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig configures the optional embedding cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TTL          time.Duration
}

// DefaultThreshold is the distance threshold from model evaluation.
const DefaultThreshold = 1.4698

// DefaultEmbeddingDim is the embedding length the inference service produces.
const DefaultEmbeddingDim = 128

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("SIGNET_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		UploadDir:        envOr("SIGNET_UPLOAD_DIR", "uploads"),
		Threshold:        envFloat("SIGNET_THRESHOLD", DefaultThreshold),
		EmbeddingURL:     envOr("EMBEDDING_URL", "http://localhost:5002"),
		EmbeddingDim:     envInt("EMBEDDING_DIM", DefaultEmbeddingDim),
		EmbeddingTimeout: envDuration("EMBEDDING_TIMEOUT", 15*time.Second),
		// The inference service is assumed safe for concurrent invocation;
		// set EMBEDDING_SERIALIZE=true for single-threaded model runtimes.
		EmbeddingSerialize: os.Getenv("EMBEDDING_SERIALIZE") == "true",
		AdminToken:         os.Getenv("SIGNET_ADMIN_TOKEN"),
		AdminID:            int64(envInt("SIGNET_ADMIN_ID", 1)),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			TTL:          envDuration("REDIS_EMBEDDING_TTL", 24*time.Hour),
		},
		KafkaTopic: envOr("KAFKA_AUDIT_TOPIC", "signet.audit"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

