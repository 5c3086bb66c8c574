package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Bridge gateway
	GatewayURL           string
	GatewayWSURL         string
	GatewayToken         string
	GatewayTimeout       time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int

	// Trading
	Symbol string

	// Classifier
	ModelPath string

	// Files
	DBPath       string
	SettingsPath string

	// Logging
	LogLevel      string
	LogOutput     string // console, file, both
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// Bridge gateway
	cfg.GatewayURL = getEnv("GATEWAY_URL", "http://127.0.0.1:8787")
	if cfg.GatewayURL == "" {
		errs = append(errs, "GATEWAY_URL must be set")
	}
	cfg.GatewayWSURL = getEnv("GATEWAY_WS_URL", "ws://127.0.0.1:8787")
	cfg.GatewayToken = getEnv("GATEWAY_TOKEN", "")

	gatewayTimeoutSeconds := getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 10)
	if gatewayTimeoutSeconds <= 0 {
		errs = append(errs, "GATEWAY_TIMEOUT_SECONDS must be positive")
	}
	cfg.GatewayTimeout = time.Duration(gatewayTimeoutSeconds) * time.Second

	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 1)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	// Trading
	cfg.Symbol = getEnv("SYMBOL", "XAUUSD")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}

	// Classifier. An empty path disables trend following until a model is
	// loaded at runtime.
	cfg.ModelPath = getEnv("MODEL_PATH", "./models/xauusd_m5.onnx")

	// Files
	cfg.DBPath = getEnv("DB_PATH", "./data/aurumbot.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}
	cfg.SettingsPath = getEnv("SETTINGS_PATH", "./data/settings.json")
	if cfg.SettingsPath == "" {
		errs = append(errs, "SETTINGS_PATH must be set")
	}

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogOutput = getEnv("LOG_OUTPUT", "both")
	switch cfg.LogOutput {
	case "console", "file", "both":
	default:
		errs = append(errs, "LOG_OUTPUT must be one of console, file, both")
	}
	cfg.LogFile = getEnv("LOG_FILE", "./logs/aurumbot.log")
	cfg.LogMaxSizeMB = getEnvAsInt("LOG_MAX_SIZE_MB", 50)
	cfg.LogMaxBackups = getEnvAsInt("LOG_MAX_BACKUPS", 5)
	cfg.LogMaxAgeDays = getEnvAsInt("LOG_MAX_AGE_DAYS", 14)
	cfg.LogCompress = getEnvAsBool("LOG_COMPRESS", true)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

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
