package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration
type Config struct {
	// Server configuration
	Port          string
	BuilderSecret string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlite-pure, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Authorizer configuration (owner-scoped status endpoints)
	AuthzURL      string
	AuthzClientID string

	// Generation
	WorkspaceRoot    string
	GeneratorCommand string
	GeneratorArgs    []string
	GeneratorTimeout time.Duration
	KillGracePeriod  time.Duration

	// Fly.io deployment
	FlyEnabled          bool
	FlyCommand          string
	FlyAPIToken         string
	FlyOrg              string
	FlyRegion           string
	PreviewTTL          time.Duration
	PreviewReapInterval time.Duration

	// Screenshots
	ScreenshotEnabled     bool
	ChromePath            string
	ScreenshotTimeout     time.Duration
	ScreenshotSettleDelay time.Duration
	MaxBrowsers           int

	// Live events
	RedisAddr     string
	RedisPassword string
}

// Load loads configuration from the environment, reading an optional .env file first
func Load() (*Config, error) {
	if envFile := getEnv("ENV_FILE", ".env"); envFile != "" {
		if err := godotenv.Load(envFile); err == nil {
			log.Printf("Loaded environment from %s", envFile)
		}
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "4001"),
		BuilderSecret:         getEnv("BUILDER_SECRET", ""),
		DBType:                getEnv("DB_TYPE", "sqlite"),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", ""),
		DBDatabase:            getEnv("DB_DATABASE", ""),
		DBUser:                getEnv("DB_USER", ""),
		DBPassword:            getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:     getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		AuthzURL:              getEnv("AUTHZ_URL", ""),
		AuthzClientID:         getEnv("AUTHZ_CLIENT_ID", ""),
		WorkspaceRoot:         getEnv("WORKSPACE_ROOT", "/tmp/go4it-workspaces"),
		GeneratorCommand:      getEnv("GENERATOR_COMMAND", "claude"),
		GeneratorArgs:         strings.Fields(getEnv("GENERATOR_ARGS", "--print --dangerously-skip-permissions")),
		GeneratorTimeout:      getEnvAsDuration("GENERATOR_TIMEOUT", 30*time.Minute),
		KillGracePeriod:       getEnvAsDuration("KILL_GRACE_PERIOD", 10*time.Second),
		FlyEnabled:            getEnvAsBool("FLY_ENABLED", false),
		FlyCommand:            getEnv("FLY_COMMAND", "fly"),
		FlyAPIToken:           getEnv("FLY_API_TOKEN", ""),
		FlyOrg:                getEnv("FLY_ORG", "personal"),
		FlyRegion:             getEnv("FLY_REGION", "ord"),
		PreviewTTL:            getEnvAsDuration("PREVIEW_TTL", 24*time.Hour),
		PreviewReapInterval:   getEnvAsDuration("PREVIEW_REAP_INTERVAL", 5*time.Minute),
		ScreenshotEnabled:     getEnvAsBool("SCREENSHOT_ENABLED", false),
		ChromePath:            getEnv("CHROME_PATH", ""),
		ScreenshotTimeout:     getEnvAsDuration("SCREENSHOT_TIMEOUT", 30*time.Second),
		ScreenshotSettleDelay: getEnvAsDuration("SCREENSHOT_SETTLE_DELAY", 2*time.Second),
		MaxBrowsers:           getEnvAsInt("MAX_BROWSERS", 2),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and cross-field constraints
func (c *Config) Validate() error {
	if c.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	if c.DBType != "sqlite" && c.DBType != "sqlite-pure" && c.DBUser == "" {
		return fmt.Errorf("DB_USER is required for DB_TYPE %s", c.DBType)
	}
	if c.WorkspaceRoot == "" {
		return fmt.Errorf("WORKSPACE_ROOT is required")
	}
	if c.GeneratorCommand == "" {
		return fmt.Errorf("GENERATOR_COMMAND is required")
	}
	if c.FlyEnabled && c.FlyAPIToken == "" {
		return fmt.Errorf("FLY_API_TOKEN is required when FLY_ENABLED is set")
	}
	if (c.AuthzURL == "") != (c.AuthzClientID == "") {
		return fmt.Errorf("AUTHZ_URL and AUTHZ_CLIENT_ID must be set together")
	}
	if c.MaxBrowsers < 1 {
		return fmt.Errorf("MAX_BROWSERS must be at least 1")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration strings ("90s", "24h")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
