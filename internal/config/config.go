package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string        `yaml:"database_url"`
	ServerPort       string        `yaml:"server_port"`
	BaseURL          string        `yaml:"base_url"`
	FrontendURL      string        `yaml:"frontend_url"`
	RedisURL         string        `yaml:"redis_url"`
	RabbitMQURL      string        `yaml:"rabbitmq_url"`
	RabbitMQPrefetch int           `yaml:"rabbitmq_prefetch"`
	SessionSecret    string        `yaml:"session_secret"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	VaultSaltBytes   int           `yaml:"vault_salt_bytes"`
	VaultKDFCost     int           `yaml:"vault_kdf_cost"`
	BcryptCost       int           `yaml:"bcrypt_cost"`
	RateLimitRate    string        `yaml:"rate_limit_rate"`
	BreachAPIBaseURL string        `yaml:"breach_api_base_url"`
	BreachDirURL     string        `yaml:"breach_directory_url"`
	BreachAPIKey     string        `yaml:"breach_api_key"`
	OpenAIKey        string        `yaml:"openai_api_key"`
	AIModel          string        `yaml:"ai_model"`
	AIBaseURL        string        `yaml:"ai_base_url"`
	EnableHSTS       bool          `yaml:"enable_hsts"`
	ServerDebugMode  bool          `yaml:"server_debug_mode"`
	WorkerDebugMode  bool          `yaml:"worker_debug_mode"`
	OTELEnabled      bool          `yaml:"otel_enabled"`
	OTELEndpoint     string        `yaml:"otel_endpoint"`
}

// Load loads configuration from environment variables, optionally overlaid
// on a YAML file pointed to by CONFIG_FILE. Environment variables win.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:       "8090",
		BaseURL:          "http://localhost:8090",
		FrontendURL:      "http://localhost:3000",
		RedisURL:         "redis://localhost:6379/0",
		RabbitMQPrefetch: 1,
		SessionTTL:       24 * time.Hour,
		VaultSaltBytes:   32,
		VaultKDFCost:     12,
		BcryptCost:       12,
		RateLimitRate:    "10-M",
		BreachAPIBaseURL: "https://api.pwnedpasswords.com",
		BreachDirURL:     "https://haveibeenpwned.com/api/v3",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.BaseURL = getEnv("BASE_URL", cfg.BaseURL)
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQPrefetch = getEnvInt("RABBITMQ_PREFETCH", cfg.RabbitMQPrefetch)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.VaultSaltBytes = getEnvInt("VAULT_SALT_BYTES", cfg.VaultSaltBytes)
	cfg.VaultKDFCost = getEnvInt("VAULT_KDF_COST", cfg.VaultKDFCost)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", cfg.BcryptCost)
	cfg.RateLimitRate = getEnv("RATE_LIMIT_RATE", cfg.RateLimitRate)
	cfg.BreachAPIBaseURL = getEnv("BREACH_API_BASE_URL", cfg.BreachAPIBaseURL)
	cfg.BreachDirURL = getEnv("BREACH_DIRECTORY_URL", cfg.BreachDirURL)
	cfg.BreachAPIKey = getEnv("BREACH_API_KEY", cfg.BreachAPIKey)
	cfg.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.AIModel = getEnv("AI_MODEL", cfg.AIModel)
	cfg.AIBaseURL = getEnv("AI_BASE_URL", cfg.AIBaseURL)
	cfg.EnableHSTS = getEnvBool("ENABLE_HSTS", cfg.EnableHSTS)
	cfg.ServerDebugMode = getEnvBool("SERVER_DEBUG_MODE", cfg.ServerDebugMode)
	cfg.WorkerDebugMode = getEnvBool("WORKER_DEBUG_MODE", cfg.WorkerDebugMode)
	cfg.OTELEnabled = getEnvBool("OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTELEndpoint)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for breach scan queueing")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
