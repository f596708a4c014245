package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	GinMode         string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration

	DB      DatabaseConfig
	Session SessionConfig
	Storage StorageConfig

	InviteTokenTTL time.Duration
	ResetTokenTTL  time.Duration

	OpenAIAPIKey string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// SessionConfig holds the Redis-backed session store settings
type SessionConfig struct {
	RedisHost string
	RedisPort string
	Secret    string
	MaxAge    int
}

// StorageConfig selects where uploaded report files are kept
type StorageConfig struct {
	Backend       string
	UploadDir     string
	MaxUploadSize int64

	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"

	StorageFilesystem = "fs"
	StorageS3         = "s3"
)

func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		Env:             getEnv("ENV", "production"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
		DB: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", DriverPostgres),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "reportuser"),
			Password:     getEnv("DB_PASSWORD", "reportpassword"),
			Name:         getEnv("DB_NAME", "report_hub"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
		},
		Session: SessionConfig{
			RedisHost: getEnv("REDIS_HOST", "localhost"),
			RedisPort: getEnv("REDIS_PORT", "6379"),
			Secret:    getEnv("SESSION_SECRET", "default-secret-key-change-me"),
			MaxAge:    getIntEnv("SESSION_MAX_AGE", 86400*7),
		},
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", StorageFilesystem),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
			MaxUploadSize:  getInt64Env("MAX_UPLOAD_SIZE", 50*1024*1024),
			S3Bucket:       getEnv("S3_BUCKET", ""),
			S3Region:       getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:     getEnv("S3_ENDPOINT", ""),
			S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
			S3UsePathStyle: getBoolEnv("S3_USE_PATH_STYLE", false),
		},
		InviteTokenTTL: getDurationEnv("INVITE_TOKEN_TTL", 7*24*time.Hour),
		ResetTokenTTL:  getDurationEnv("RESET_TOKEN_TTL", time.Hour),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends are known and fully configured
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	switch c.Storage.Backend {
	case StorageFilesystem:
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required for the fs storage backend")
		}
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage backend")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.InviteTokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
