package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Media storage. S3 is used when S3Bucket is set, the local
	// directory otherwise.
	S3Bucket  string
	AWSRegion string
	MediaRoot string
	MediaURL  string

	// PDFFontPath is an optional UTF-8 TrueType font for shopping list
	// documents. The built-in Helvetica covers Latin-1 only.
	PDFFontPath string

	// API behaviour
	PageSize            int
	RecipeCreationLimit int
	CORSOrigins         []string
	LogLevel            string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultPageSize = 6
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case CI:
		loadCIConfig(cfg)
	case Development, Test:
		loadDevConfig(cfg)
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := loadSharedConfig(cfg); err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCIConfig reads everything from environment variables, secrets included.
func loadCIConfig(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.DBDriver = getEnv("DB_DRIVER", DriverPostgres)
	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.RedisHost = os.Getenv("REDIS_HOST")
	cfg.RedisPort = os.Getenv("REDIS_PORT")

	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")
	cfg.RedisURL = os.Getenv("TEST_REDIS_URL")
}

// loadDevConfig prefers environment variables and falls back to Docker
// secrets, then to local defaults so the API can start against SQLite
// without any setup.
func loadDevConfig(cfg *Config) {
	cfg.ServerPort = envOrSecret("SERVER_PORT", "server_port", "8080")
	cfg.ServerHost = envOrSecret("SERVER_HOST", "server_host", "localhost")
	cfg.DBDriver = getEnv("DB_DRIVER", DriverSQLite)
	cfg.DBHost = envOrSecret("DB_HOST", "db_host", "localhost")
	cfg.DBPort = envOrSecret("DB_PORT", "db_port", "5432")
	cfg.DBUser = envOrSecret("DB_USER", "db_user", "postgres")
	cfg.DBPassword = envOrSecret("DB_PASSWORD", "db_password", "postgres")
	cfg.DBName = envOrSecret("DB_NAME", "db_name", "foodgram")
	cfg.DBSSLMode = envOrSecret("DB_SSL_MODE", "db_ssl_mode", "disable")
	cfg.RedisHost = envOrSecret("REDIS_HOST", "redis_host", "")
	cfg.RedisPort = envOrSecret("REDIS_PORT", "redis_port", "6379")
	cfg.RedisPassword = envOrSecret("REDIS_PASSWORD", "redis_password", "")
	cfg.RedisURL = envOrSecret("REDIS_URL", "redis_url", "")
	cfg.JWTSecret = envOrSecret("JWT_SECRET", "jwt_secret", "dev-secret-change-me")
}

// loadProdConfig loads sensitive values from Docker secrets only
func loadProdConfig(cfg *Config) {
	cfg.ServerPort = envOrSecret("SERVER_PORT", "server_port", "8080")
	cfg.ServerHost = envOrSecret("SERVER_HOST", "server_host", "0.0.0.0")
	cfg.DBDriver = getEnv("DB_DRIVER", DriverPostgres)
	cfg.DBHost = envOrSecret("DB_HOST", "db_host", "")
	cfg.DBPort = envOrSecret("DB_PORT", "db_port", "5432")
	cfg.DBName = envOrSecret("DB_NAME", "db_name", "")
	cfg.DBSSLMode = envOrSecret("DB_SSL_MODE", "db_ssl_mode", "require")
	cfg.RedisHost = envOrSecret("REDIS_HOST", "redis_host", "")
	cfg.RedisPort = envOrSecret("REDIS_PORT", "redis_port", "6379")
	cfg.RedisURL = envOrSecret("REDIS_URL", "redis_url", "")

	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.JWTSecret = readSecret("jwt_secret")
}

// loadSharedConfig fills settings that do not depend on the environment.
func loadSharedConfig(cfg *Config) error {
	cfg.RedisDB = 0 // This is a constant, not a secret
	cfg.SQLitePath = getEnv("SQLITE_PATH", "foodgram.db")
	cfg.S3Bucket = os.Getenv("S3_BUCKET_NAME")
	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.MediaRoot = getEnv("MEDIA_ROOT", "media")
	cfg.MediaURL = strings.TrimRight(getEnv("MEDIA_URL", "/media"), "/")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.PDFFontPath = os.Getenv("PDF_FONT_PATH")

	origins := getEnv("CORS_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	var err error
	if cfg.PageSize, err = getEnvInt("PAGE_SIZE", defaultPageSize); err != nil {
		return err
	}
	if cfg.RecipeCreationLimit, err = getEnvInt("RECIPE_CREATION_LIMIT", 30); err != nil {
		return err
	}
	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envOrSecret(key, secret, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := readSecret(secret); v != "" {
		return v
	}
	return fallback
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
