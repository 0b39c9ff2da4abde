package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Storage backends accepted by TASKBOARD_STORAGE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Auth     AuthConfig
	Board    BoardConfig
}

// StorageConfig selects where the board snapshot is persisted.
type StorageConfig struct {
	Backend     string
	Key         string
	SQLitePath  string
	SaveTimeout time.Duration
	LoadTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis
// and with it the live event feed.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// Enabled reports whether a Redis server is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// AuthConfig holds bearer token settings. An empty JWTSecret leaves the API
// open, which is the default for a local single-user board.
type AuthConfig struct {
	JWTSecret string //nolint:gosec // G117: JWT signing secret config
	TokenTTL  time.Duration
}

// Enabled reports whether bearer auth is required.
func (c *AuthConfig) Enabled() bool {
	return c.JWTSecret != ""
}

// BoardConfig holds board defaults.
type BoardConfig struct {
	DefaultName string
}

// Load reads configuration from environment variables.
// Defaults give a local, unauthenticated board backed by a SQLite file.
func Load() (*Config, error) {
	saveTimeout, err := getEnvDuration("TASKBOARD_STORAGE_SAVE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	loadTimeout, err := getEnvDuration("TASKBOARD_STORAGE_LOAD_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbPort, err := getEnvInt("TASKBOARD_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("TASKBOARD_DB_MAX_CONNS", 4)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("TASKBOARD_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("TASKBOARD_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("TASKBOARD_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateRPS, err := getEnvFloat("TASKBOARD_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("TASKBOARD_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	tokenTTL, err := getEnvDuration("TASKBOARD_JWT_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("TASKBOARD_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Storage: StorageConfig{
			Backend:     strings.ToLower(getEnv("TASKBOARD_STORAGE_BACKEND", BackendSQLite)),
			Key:         getEnv("TASKBOARD_STORAGE_KEY", "board-storage"),
			SQLitePath:  getEnv("TASKBOARD_SQLITE_PATH", "data/taskboard.db"),
			SaveTimeout: saveTimeout,
			LoadTimeout: loadTimeout,
		},
		Database: DatabaseConfig{
			Host:     getEnv("TASKBOARD_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("TASKBOARD_DB_USER", "taskboard"),
			Password: getEnv("TASKBOARD_DB_PASSWORD", ""),
			DBName:   getEnv("TASKBOARD_DB_NAME", "taskboard"),
			SSLMode:  getEnv("TASKBOARD_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("TASKBOARD_REDIS_ADDR", ""),
			Password: getEnv("TASKBOARD_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Server: ServerConfig{
			Addr:           getEnv("TASKBOARD_SERVER_ADDR", "127.0.0.1:8080"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    corsOrigins,
			RateLimitRPS:   rateRPS,
			RateLimitBurst: rateBurst,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("TASKBOARD_JWT_SECRET", ""),
			TokenTTL:  tokenTTL,
		},
		Board: BoardConfig{
			DefaultName: getEnv("TASKBOARD_BOARD_NAME", "My Board"),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("TASKBOARD_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendRedis:
		if !c.Redis.Enabled() {
			return errors.New("TASKBOARD_REDIS_ADDR is required for the redis backend")
		}
	case BackendPostgres:
		if c.Database.SSLMode == "disable" {
			log.Warn().Msg("TASKBOARD_DB_SSLMODE=disable is insecure outside local development")
		}
	case BackendMemory:
		log.Warn().Msg("TASKBOARD_STORAGE_BACKEND=memory keeps the board only until the process exits")
	default:
		return fmt.Errorf("TASKBOARD_STORAGE_BACKEND must be one of sqlite, redis, postgres, memory, got %q", c.Storage.Backend)
	}

	if c.Storage.Key == "" {
		return errors.New("TASKBOARD_STORAGE_KEY must not be empty")
	}
	if c.Storage.SaveTimeout <= 0 {
		return fmt.Errorf("TASKBOARD_STORAGE_SAVE_TIMEOUT must be positive, got %s", c.Storage.SaveTimeout)
	}
	if c.Storage.LoadTimeout <= 0 {
		return fmt.Errorf("TASKBOARD_STORAGE_LOAD_TIMEOUT must be positive, got %s", c.Storage.LoadTimeout)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("TASKBOARD_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("TASKBOARD_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return errors.New("TASKBOARD_JWT_SECRET must be at least 32 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TASKBOARD_JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TASKBOARD_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TASKBOARD_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("TASKBOARD_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("TASKBOARD_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}

	if strings.TrimSpace(c.Board.DefaultName) == "" {
		return errors.New("TASKBOARD_BOARD_NAME must not be blank")
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
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
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
