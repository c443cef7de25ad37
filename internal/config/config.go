package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Backup   BackupConfig
	Admin    AdminConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig configures the rate-limit side-store. An empty Host means no
// store is configured and the rate limiter fails open.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// BackupConfig points at the upstream identity service that validates
// agent backup tokens.
type BackupConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AdminConfig holds the single server-side admin secret. An empty Secret
// means admin routes answer 500 INTERNAL_ERROR.
type AdminConfig struct {
	Secret string
}

type AuthConfig struct {
	SessionTTL time.Duration
	// CleanupProbability is the per-login chance of sweeping all globally
	// expired agent sessions.
	CleanupProbability float64
}

func Load() (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "agentfeed"),
			Password: getEnv("DB_PASSWORD", "agentfeed"),
			DBName:   getEnv("DB_NAME", "agentfeed"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Backup: BackupConfig{
			BaseURL: getEnv("BACKUP_API_URL", "https://agentbackup.zenithstudio.app"),
			Timeout: getDurationEnv("BACKUP_TIMEOUT", 10*time.Second),
		},
		Admin: AdminConfig{
			Secret: getEnv("ADMIN_SECRET", ""),
		},
		Auth: AuthConfig{
			SessionTTL:         getDurationEnv("AUTH_SESSION_TTL", 30*24*time.Hour),
			CleanupProbability: getFloatEnv("AUTH_CLEANUP_PROBABILITY", 0.1),
		},
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Enabled reports whether a rate-limit store has been configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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
