package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwebster45206/heartbeat-engine/internal/heartbeat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "LLM_PROVIDER", "MODEL_NAME", "PLANNER_MODEL_NAME", "CHOICES_ENABLED", "CHOICE_STORE", "TUNING_PATH"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, ProviderOpenRouter, cfg.LLMProvider)
	assert.True(t, cfg.ChoicesEnabled)
	assert.Equal(t, ChoiceStoreMemory, cfg.ChoiceStore)
	assert.Equal(t, heartbeat.DefaultTuning(), cfg.Tuning)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("MODEL_NAME", "claude-haiku")
	t.Setenv("PLANNER_MODEL_NAME", "")
	t.Setenv("CHOICES_ENABLED", "false")
	t.Setenv("CHOICE_STORE", "redis")
	t.Setenv("TUNING_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.Equal(t, "claude-haiku", cfg.PlannerModelName)
	assert.False(t, cfg.ChoicesEnabled)
	assert.Equal(t, ChoiceStoreRedis, cfg.ChoiceStore)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"choices flag", "CHOICES_ENABLED", "sometimes"},
		{"choice store", "CHOICE_STORE", "memcached"},
		{"provider", "LLM_PROVIDER", "ollama"},
		{"tuning path", "TUNING_PATH", "/does/not/exist.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"CHOICES_ENABLED", "CHOICE_STORE", "LLM_PROVIDER", "TUNING_PATH"} {
				t.Setenv(k, "")
			}
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadTuning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	yaml := `health_decay: 0.6
refill_every: 3
in_flight_retry: 250ms
reemit_interval: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	got, err := LoadTuning(path)
	require.NoError(t, err)

	want := heartbeat.DefaultTuning()
	want.HealthDecay = 0.6
	want.RefillEvery = 3
	want.InFlightRetry = 250 * time.Millisecond
	want.ReemitInterval = time.Minute
	assert.Equal(t, want, got)
}

func TestLoadTuning_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("health_decay: [oops"), 0o600))
	_, err := LoadTuning(path)
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}
