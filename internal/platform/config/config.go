package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is the full runtime configuration of the intake service.
type Config struct {
	Server   Server
	Redis    RedisConfig
	Postgres PostgresConfig
	Registry RegistryConfig
	Storage  StorageConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Kafka     KafkaConfig
	Intake    IntakeConfig
	RateLimit RateLimitConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	SessionTokenTTL time.Duration
	LogLevel        string
	ShutdownTimeout time.Duration
}

// RedisConfig enables the Redis session store when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SessionTTL   time.Duration

	// SessionLockTTL caps how long one turn may hold a session.
	SessionLockTTL time.Duration
}

// PostgresConfig enables the relational application store when URL is set.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RegistryConfig points at the identity-linkage registry database.
type RegistryConfig struct {
	URL      string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// StorageConfig configures the S3-compatible document bucket.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Timeout   time.Duration
}

// OCRConfig configures the tesseract runner.
type OCRConfig struct {
	Binary     string
	Rasterizer string
	Languages  string
	Timeout    time.Duration
}

// LLMConfig configures the structured-extraction model. Extraction falls back
// to deterministic patterns when APIKey is empty.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// KafkaConfig enables the audit publisher when Brokers is set.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// RateLimitConfig bounds session openings per client IP and messages per
// session. A zero limit disables that bound.
type RateLimitConfig struct {
	SessionsPerIP      int
	SessionsWindow     time.Duration
	MessagesPerSession int
	MessagesWindow     time.Duration
}

// IntakeConfig holds the eligibility rules of the scheme.
type IntakeConfig struct {
	IncomeCeiling   decimal.Decimal
	IdentityCapture string
	HashKey         string
}

// DefaultIncomeCeiling is the scheme's annual household income limit in rupees.
var DefaultIncomeCeiling = decimal.NewFromInt(250000)

// FromEnv builds the configuration from environment variables, reading a
// .env file first when one is present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Server: Server{
			Addr:            envString("INTAKE_ADDR", ":8080"),
			JWTSigningKey:   envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			SessionTokenTTL: envDuration("SESSION_TOKEN_TTL", 24*time.Hour),
			LogLevel:        envString("LOG_LEVEL", "info"),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:            os.Getenv("REDIS_URL"),
			PoolSize:       envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:   envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:    envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:    envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:   envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			SessionTTL:     envDuration("SESSION_TTL", 72*time.Hour),
			SessionLockTTL: envDuration("SESSION_LOCK_TTL", 5*time.Minute),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Registry: RegistryConfig{
			URL:      os.Getenv("REGISTRY_DATABASE_URL"),
			CacheTTL: envDuration("REGISTRY_CACHE_TTL", 5*time.Minute),
			Timeout:  envDuration("REGISTRY_TIMEOUT", 5*time.Second),
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("STORAGE_ENDPOINT"),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:    envString("STORAGE_BUCKET", "intake-documents"),
			UseSSL:    os.Getenv("STORAGE_USE_SSL") == "true",
			Timeout:   envDuration("STORAGE_TIMEOUT", 15*time.Second),
		},
		OCR: OCRConfig{
			Binary:     envString("OCR_BINARY", "tesseract"),
			Rasterizer: envString("OCR_RASTERIZER", "pdftoppm"),
			Languages:  envString("OCR_LANGUAGES", "eng+hin+mar"),
			Timeout:    envDuration("OCR_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			BaseURL: envString("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  os.Getenv("LLM_API_KEY"),
			Model:   envString("LLM_MODEL", "gpt-4o-mini"),
			Timeout: envDuration("LLM_TIMEOUT", 20*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envString("KAFKA_AUDIT_TOPIC", "intake.audit"),
		},
		Intake: IntakeConfig{
			IncomeCeiling:   envDecimal("INTAKE_INCOME_CEILING", DefaultIncomeCeiling),
			IdentityCapture: envString("INTAKE_IDENTITY_CAPTURE", "document"),
			HashKey:         envString("INTAKE_HASH_KEY", "dev-hash-key-change-in-production"),
		},
		RateLimit: RateLimitConfig{
			SessionsPerIP:      envInt("RATELIMIT_SESSIONS_PER_IP", 30),
			SessionsWindow:     envDuration("RATELIMIT_SESSIONS_WINDOW", time.Hour),
			MessagesPerSession: envInt("RATELIMIT_MESSAGES_PER_SESSION", 30),
			MessagesWindow:     envDuration("RATELIMIT_MESSAGES_WINDOW", time.Minute),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
