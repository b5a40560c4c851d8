package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jwebster45206/heartbeat-engine/internal/heartbeat"
	"gopkg.in/yaml.v3"
)

const (
	ChoiceStoreMemory = "memory"
	ChoiceStoreRedis  = "redis"

	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL      string
	HistoryDBPath string

	LLMProvider      string
	ModelName        string
	PlannerModelName string
	AnthropicAPIKey  string
	OpenRouterAPIKey string

	ChoicesEnabled bool
	ChoiceStore    string

	TuningPath string
	Tuning     heartbeat.Tuning
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		HistoryDBPath: getEnv("HISTORY_DB_PATH", "heartbeat-history.db"),

		LLMProvider:      strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenRouter)),
		ModelName:        getEnv("MODEL_NAME", ""),
		PlannerModelName: getEnv("PLANNER_MODEL_NAME", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),

		ChoiceStore: strings.ToLower(getEnv("CHOICE_STORE", ChoiceStoreMemory)),
		TuningPath:  getEnv("TUNING_PATH", ""),
	}

	enabled, err := strconv.ParseBool(getEnv("CHOICES_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHOICES_ENABLED: %w", err)
	}
	cfg.ChoicesEnabled = enabled

	switch cfg.ChoiceStore {
	case ChoiceStoreMemory, ChoiceStoreRedis:
	default:
		return nil, fmt.Errorf("invalid CHOICE_STORE %q: must be %q or %q", cfg.ChoiceStore, ChoiceStoreMemory, ChoiceStoreRedis)
	}

	switch cfg.LLMProvider {
	case ProviderAnthropic, ProviderOpenRouter:
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER %q: must be %q or %q", cfg.LLMProvider, ProviderAnthropic, ProviderOpenRouter)
	}

	if cfg.PlannerModelName == "" {
		cfg.PlannerModelName = cfg.ModelName
	}

	cfg.Tuning, err = LoadTuning(cfg.TuningPath)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.OpenRouterAPIKey
}

// LoadTuning reads simulation constants from a YAML file. An empty path
// yields the defaults; fields the file leaves out keep their defaults.
func LoadTuning(path string) (heartbeat.Tuning, error) {
	if path == "" {
		return heartbeat.DefaultTuning(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return heartbeat.Tuning{}, fmt.Errorf("failed to read tuning file: %w", err)
	}
	var t heartbeat.Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return heartbeat.Tuning{}, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	return t.Normalize(), nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
