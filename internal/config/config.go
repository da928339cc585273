// internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds the complete application configuration
type Config struct {
	// Server
	Host           string `env:"HOST" envDefault:"0.0.0.0"`
	Port           int    `env:"PORT" envDefault:"8080"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Debug          bool   `env:"DEBUG" envDefault:"false"`

	// Database
	MongoURI          string `env:"MONGO_URI,required"`
	MongoDatabase     string `env:"MONGO_DATABASE" envDefault:"vidshare"`
	MongoTransactions bool   `env:"MONGO_TRANSACTIONS" envDefault:"false"`

	// Auth
	JWTSecret          string `env:"JWT_SECRET,required"`
	JWTIssuer          string `env:"JWT_ISSUER" envDefault:"vidshare-api"`
	LoginRatePerMinute int    `env:"LOGIN_RATE_PER_MINUTE" envDefault:"20"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	// File storage
	StorageBackend   string `env:"STORAGE_BACKEND" envDefault:"local"`
	UploadDir        string `env:"UPLOAD_DIR" envDefault:"uploads"`
	PublicUploadPath string `env:"PUBLIC_UPLOAD_PATH" envDefault:"/uploads"`
	AWSRegion        string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3Bucket         string `env:"S3_BUCKET"`
}

// envLocations are tried in order; the first .env found wins.
var envLocations = []string{
	".env",          // Current directory
	"../../.env",    // Project root when running from cmd/server
	"../../../.env", // Even higher directory
}

// LoadConfig loads a .env file if one exists, then parses the environment.
func LoadConfig() (*Config, error) {
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}

	return Parse()
}

// Parse reads the configuration from the process environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}

	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case StorageLocal:
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND is s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.LoginRatePerMinute < 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE must not be negative")
	}

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, origin := range c.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	c.AllowedOrigins = origins
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
