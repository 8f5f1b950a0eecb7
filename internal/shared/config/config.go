package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port              string        `env:"PORT" envDefault:"8080"`
	Env               string        `env:"ENV" envDefault:"dev"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	CORSAllowOrigin   []string      `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	ArtifactStoreType string        `env:"ARTIFACT_STORE" envDefault:"local"`
	UploadsDir        string        `env:"UPLOADS_DIR" envDefault:"./uploads"`
	PublicUploadsPath string        `env:"PUBLIC_UPLOADS_PATH" envDefault:"/uploads"`
	PublicBaseURL     string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	AWSRegion         string        `env:"AWS_REGION"`
	S3Bucket          string        `env:"S3_BUCKET"`
	S3Prefix          string        `env:"S3_PREFIX"`
	S3PublicBaseURL   string        `env:"S3_PUBLIC_BASE_URL"`
	SSEKMSKeyID       string        `env:"SSE_KMS_KEY_ID"`
	QueueURL          string        `env:"QUEUE_URL"`
	RedisURL          string        `env:"REDIS_URL"`
	AdminAPIKey       string        `env:"ADMIN_API_KEY"`
	JobsSeedFile      string        `env:"JOBS_SEED_FILE"`
	QuickApplyRate    float64       `env:"QUICK_APPLY_RATE" envDefault:"0.2"`
	QuickApplyBurst   int           `env:"QUICK_APPLY_BURST" envDefault:"5"`
	OrphanGrace       time.Duration `env:"ORPHAN_GRACE" envDefault:"24h"`
	TrustedProxies    []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	DB                DBPool        `envPrefix:"DB_"`
}

// DBPool holds DB_* connection pool overrides. Zero values keep the caller's defaults.
type DBPool struct {
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME"`
	PingTimeout     time.Duration `env:"PING_TIMEOUT"`
}

const defaultPublicBaseURL = "http://localhost:8080"

// Load reads configuration from .env files (best effort) and the environment.
func Load() Config {
	// Existing environment variables win over .env values.
	loadEnvFiles(".env", "cmd/.env")

	cfg, err := Parse()
	if err != nil {
		log.Printf("config: %v", err)
	}
	for _, w := range Warnings(cfg) {
		log.Printf("config: %s", w)
	}
	return cfg
}

// Warnings lists settings that are missing or left at a local default in production.
func Warnings(cfg Config) []string {
	if cfg.Env != "production" {
		return nil
	}
	var out []string
	if cfg.DatabaseURL == "" {
		out = append(out, "DATABASE_URL is required in production")
	}
	if cfg.PublicBaseURL == defaultPublicBaseURL {
		out = append(out, "PUBLIC_BASE_URL is unset in production; links will point at "+defaultPublicBaseURL)
	}
	return out
}

// Parse reads configuration from the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return normalize(cfg), fmt.Errorf("parse env: %w", err)
	}
	return normalize(cfg), nil
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		// Missing files are expected outside local development.
		_ = godotenv.Load(path)
	}
}

func normalize(cfg Config) Config {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ArtifactStoreType = normalizeStoreType(cfg.ArtifactStoreType)
	cfg.CORSAllowOrigin = splitAndTrim(cfg.CORSAllowOrigin)
	cfg.TrustedProxies = splitAndTrim(cfg.TrustedProxies)
	cfg.PublicUploadsPath = "/" + strings.Trim(strings.TrimSpace(cfg.PublicUploadsPath), "/")
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if cfg.QuickApplyBurst < 0 {
		cfg.QuickApplyBurst = 0
	}
	return cfg
}

func splitAndTrim(raw []string) []string {
	var out []string
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}
