package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTIssuer string        `mapstructure:"JWT_ISSUER"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	UploadLimit    string        `mapstructure:"UPLOAD_LIMIT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	BlobBackend    string        `mapstructure:"BLOB_BACKEND"`
	BlobDir        string        `mapstructure:"BLOB_DIR"`
	BlobSigningKey string        `mapstructure:"BLOB_SIGNING_KEY"`
	PublicBaseURL  string        `mapstructure:"PUBLIC_BASE_URL"`
	PresignTTL     time.Duration `mapstructure:"PRESIGN_TTL"`

	ExtractionAPIKey  string        `mapstructure:"EXTRACTION_API_KEY"`
	ExtractionBaseURL string        `mapstructure:"EXTRACTION_BASE_URL"`
	ExtractionModel   string        `mapstructure:"EXTRACTION_MODEL"`
	ExtractionTimeout time.Duration `mapstructure:"EXTRACTION_TIMEOUT"`
	ExtractionRPS     float64       `mapstructure:"EXTRACTION_RPS"`
	ExtractionBurst   int           `mapstructure:"EXTRACTION_BURST"`

	ConfidenceThreshold float64 `mapstructure:"CONFIDENCE_THRESHOLD"`

	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	KafkaClaimsTopic string `mapstructure:"KAFKA_CLAIMS_TOPIC"`
	MetricsEnabled   bool   `mapstructure:"METRICS_ENABLED"`

	TLSEnabled  bool   `mapstructure:"TLS_ENABLED"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`
}

var defaults = map[string]any{
	"PORT":                 "8000",
	"ENV":                  "development",
	"DB_MAX_CONNS":         20,
	"DB_MIN_CONNS":         5,
	"CORS_ORIGINS":         "http://localhost:3000",
	"JWT_TTL":              "24h",
	"RATE_LIMIT_RPS":       20,
	"RATE_LIMIT_BURST":     40,
	"BODY_LIMIT":           "1M",
	"UPLOAD_LIMIT":         "10M",
	"REQUEST_TIMEOUT":      "90s",
	"BLOB_BACKEND":         "memory",
	"BLOB_DIR":             "./data/blobs",
	"PUBLIC_BASE_URL":      "http://localhost:8000",
	"PRESIGN_TTL":          "1h",
	"EXTRACTION_MODEL":     "gemini-2.0-flash",
	"EXTRACTION_TIMEOUT":   "60s",
	"EXTRACTION_RPS":       2,
	"EXTRACTION_BURST":     4,
	"CONFIDENCE_THRESHOLD": 0.7,
	"KAFKA_CLAIMS_TOPIC":   "claims.processed",
	"METRICS_ENABLED":      true,
}

// keys without a default that still need binding so Unmarshal sees them.
var envOnly = []string{
	"DATABASE_URL",
	"JWT_SECRET",
	"JWT_ISSUER",
	"BLOB_SIGNING_KEY",
	"EXTRACTION_API_KEY",
	"EXTRACTION_BASE_URL",
	"KAFKA_BROKERS",
	"TLS_ENABLED",
	"TLS_CERT_FILE",
	"TLS_KEY_FILE",
}

// Load reads .env (if present) and the environment. It does not validate;
// callers check what their command needs.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for _, k := range envOnly {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// KafkaEnabled reports whether claim events should be published.
func (c *Config) KafkaEnabled() bool {
	return strings.TrimSpace(c.KafkaBrokers) != ""
}

// RequireDatabase is the check shared by every command that opens a pool.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// Validate checks that the configuration is safe to serve with. Outside
// development the signing secrets must be set explicitly.
func (c *Config) Validate() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if !c.IsDev() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
		}
		if c.BlobSigningKey == "" {
			return fmt.Errorf("BLOB_SIGNING_KEY is required when ENV=%q", c.Env)
		}
	}
	if c.ExtractionAPIKey == "" {
		return fmt.Errorf("EXTRACTION_API_KEY is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0,1], got %v", c.ConfidenceThreshold)
	}
	switch c.BlobBackend {
	case "memory":
	case "pebble":
		if c.BlobDir == "" {
			return fmt.Errorf("BLOB_DIR is required when BLOB_BACKEND is \"pebble\"")
		}
	default:
		return fmt.Errorf("BLOB_BACKEND must be \"memory\" or \"pebble\", got %q", c.BlobBackend)
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}

// JWTSigningKey returns the HS256 key. Development falls back to a fixed key
// so the server can start without setup.
func (c *Config) JWTSigningKey() []byte {
	if c.JWTSecret == "" && c.IsDev() {
		return []byte("development-only-jwt-secret")
	}
	return []byte(c.JWTSecret)
}

// PresignSigningKey returns the key for download URLs, with the same
// development fallback as JWTSigningKey.
func (c *Config) PresignSigningKey() string {
	if c.BlobSigningKey == "" && c.IsDev() {
		return "development-only-blob-secret"
	}
	return c.BlobSigningKey
}
