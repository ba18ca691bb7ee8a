package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Server    Server
	Database  Database
	Redis     RedisConfig
	Kafka     Kafka
	Auth      Auth
	Scorer    Scorer
	Documents Documents
	LogLevel  string
	Env       string // dev|prod
	SentryDSN string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Database configures Postgres. An empty URL selects the in-memory stores.
type Database struct {
	URL            string
	MigrateOnStart bool
	TxTimeout      time.Duration
	MaxOpenConns   int
}

// RedisConfig configures the score proposal cache. An empty URL keeps
// proposals in process memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ProposalTTL  time.Duration
}

// Kafka configures lifecycle notifications. No brokers means notifications
// are only logged.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Auth configures bearer token verification.
type Auth struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
}

// Scorer configures the external score suggester.
type Scorer struct {
	URL     string
	Timeout time.Duration
}

// Documents configures the local document store.
type Documents struct {
	Dir      string
	MaxBytes int64
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		Server: Server{
			Addr:            getenv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		},
		Database: Database{
			URL:            os.Getenv("DATABASE_URL"),
			MigrateOnStart: boolEnv("MIGRATE_ON_START", true, &errs),
			TxTimeout:      durationEnv("TX_TIMEOUT", 5*time.Second, &errs),
			MaxOpenConns:   intEnv("DB_MAX_OPEN_CONNS", 20, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
			ProposalTTL:  durationEnv("PROPOSAL_TTL", 24*time.Hour, &errs),
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_TOPIC", "oncofeliz.lifecycle"),
		},
		Auth: Auth{
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
			Issuer:        getenv("JWT_ISSUER", "oncofeliz"),
			Audience:      getenv("JWT_AUDIENCE", "oncofeliz-api"),
		},
		Scorer: Scorer{
			URL:     os.Getenv("SCORER_URL"),
			Timeout: durationEnv("SCORER_TIMEOUT", 20*time.Second, &errs),
		},
		Documents: Documents{
			Dir:      getenv("DOCUMENTS_DIR", "./uploads"),
			MaxBytes: int64(intEnv("DOCUMENTS_MAX_BYTES", 10<<20, &errs)),
		},
		LogLevel:  getenv("LOG_LEVEL", "info"),
		Env:       getenv("ENV", "dev"),
		SentryDSN: os.Getenv("SENTRY_DSN"),
	}

	if cfg.Auth.JWTSigningKey == "" {
		if cfg.IsProd() {
			errs = append(errs, errors.New("JWT_SIGNING_KEY is required in prod"))
		}
		// Use a default for development - must be overridden in production
		cfg.Auth.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if cfg.IsProd() && cfg.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in prod"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProd reports whether ENV selects production behavior.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func intEnv(k string, def int, errs *[]error) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return n
}

func boolEnv(k string, def bool, errs *[]error) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return b
}

func durationEnv(k string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return d
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	return parts
}
