package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abandonsearch/place-rater/internal/model"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("RATER_GEMINI_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data.json", cfg.Input)
	assert.Equal(t, "data-modified.json", cfg.Output)
	assert.Equal(t, DriverFile, cfg.Artifacts.Driver)
	assert.Equal(t, "debug_responses", cfg.Artifacts.Dir)
	assert.Equal(t, "debug_responses.db", cfg.Artifacts.SQLitePath)
	assert.Equal(t, DefaultPool(), cfg.Pool)
	assert.Equal(t, 60*time.Second, cfg.Policy.Cooldown())
	assert.Equal(t, 15*time.Second, cfg.Policy.MaxWait())
	assert.Equal(t, 300*time.Millisecond, cfg.Policy.EmptyPause())
	assert.Equal(t, 500*time.Millisecond, cfg.Policy.FailurePause())
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseSleep())
	assert.Equal(t, 30000, cfg.Retry.MaxBackoffMs)
	assert.Zero(t, cfg.Retry.JitterFraction)
	assert.InDelta(t, 0.2, cfg.Gemini.Temperature, 0.001)
	assert.Equal(t, int32(1024), cfg.Gemini.MaxOutputTokens)
	assert.Equal(t, 1, cfg.Gemini.MaxImages)
	assert.Equal(t, 20*time.Second, cfg.Images.FetchTimeout())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "process.log", cfg.Log.File)
	assert.Empty(t, cfg.Gemini.Key)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
input: places.json
output: rated.json
artifacts:
  driver: sqlite
  sqlite_path: artifacts.db
pool:
  - provider: anthropic
    model: claude-haiku-4-5-20251001
  - provider: google
    model: gemini-2.5-pro
policy:
  cooldown_secs: 5
retry:
  max_attempts: 2
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "places.json", cfg.Input)
	assert.Equal(t, "rated.json", cfg.Output)
	assert.Equal(t, DriverSQLite, cfg.Artifacts.Driver)
	assert.Equal(t, "artifacts.db", cfg.Artifacts.SQLitePath)
	assert.Equal(t, []model.Backend{
		{Provider: model.ProviderAnthropic, Model: "claude-haiku-4-5-20251001"},
		{Provider: model.ProviderGoogle, Model: "gemini-2.5-pro"},
	}, cfg.Pool)
	assert.Equal(t, 5*time.Second, cfg.Policy.Cooldown())
	// Unset keys in a section keep their defaults.
	assert.Equal(t, 15*time.Second, cfg.Policy.MaxWait())
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("pool: [\n"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RATER_INPUT", "env.json")
	t.Setenv("RATER_POLICY_COOLDOWN_SECS", "7")
	t.Setenv("RATER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env.json", cfg.Input)
	assert.Equal(t, 7, cfg.Policy.CooldownSecs)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadProviderKeyAliases(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RATER_GEMINI_KEY", "")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("RATER_ANTHROPIC_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "g-key", cfg.Gemini.Key)
	assert.Equal(t, "a-key", cfg.Anthropic.Key)
}

func TestLoadPrefixedKeyWins(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RATER_GEMINI_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "plain")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Gemini.Key)
}

func validDefaults() *Config {
	return &Config{
		Input:     "data.json",
		Output:    "data-modified.json",
		Artifacts: ArtifactsConfig{Driver: DriverFile, Dir: "debug_responses", SQLitePath: "debug_responses.db"},
		Pool:      DefaultPool(),
		Policy:    PolicyConfig{CooldownSecs: 60, MaxWaitSecs: 15, EmptyPauseMs: 300, FailurePauseMs: 500},
		Retry:     RetryConfig{MaxAttempts: 3, BaseSleepMs: 1000, MaxBackoffMs: 30000},
		Gemini:    GeminiConfig{Temperature: 0.2, MaxOutputTokens: 1024, MaxImages: 1},
		Anthropic: AnthropicConfig{MaxTokens: 1024},
		Images:    ImagesConfig{FetchTimeoutSecs: 20},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidateStatus(t *testing.T) {
	cfg := validDefaults()
	// Credentials are not needed to inspect state.
	assert.NoError(t, cfg.Validate("status"))
}

func TestValidateRun_MissingKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini.key is required")
	assert.NotContains(t, err.Error(), "anthropic.key")
}

func TestValidateRun_KeysPerProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.Gemini.Key = "g"
	assert.NoError(t, cfg.Validate("run"))

	cfg.Pool = append(cfg.Pool, model.Backend{Provider: model.ProviderAnthropic, Model: "claude-haiku-4-5-20251001"})
	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "a"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidatePool(t *testing.T) {
	cfg := validDefaults()
	cfg.Pool = nil
	err := cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool must contain at least one backend")

	cfg.Pool = []model.Backend{{Provider: "openai", Model: "gpt"}, {Provider: model.ProviderGoogle, Model: " "}}
	err = cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `pool[0]: unknown provider "openai"`)
	assert.Contains(t, err.Error(), "pool[1]: model is required")
}

func TestValidateArtifactsDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Artifacts.Driver = "postgres"
	err := cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifacts.driver")

	cfg.Artifacts.Driver = DriverSQLite
	assert.NoError(t, cfg.Validate("status"))

	cfg.Artifacts.SQLitePath = ""
	err = cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifacts.sqlite_path is required")
}

func TestValidateNumericBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Retry.MaxAttempts = 0
	err := cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.max_attempts must be >= 1")

	cfg.Retry.MaxAttempts = 3
	cfg.Retry.JitterFraction = 1.5
	err = cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.jitter_fraction must be in [0, 1)")

	cfg.Retry.JitterFraction = 0.25
	cfg.Retry.MaxBackoffMs = -1
	err = cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.max_backoff_ms must be >= 0")

	cfg.Retry.MaxBackoffMs = 0
	cfg.Policy.CooldownSecs = -1
	err = cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy values must be >= 0")

	cfg.Policy.CooldownSecs = 0
	cfg.Gemini.RequestsPerMinute = -5
	err = cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requests_per_minute")
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		cfg    LogConfig
		errMsg string
	}{
		{name: "json info", cfg: LogConfig{Level: "info", Format: "json"}},
		{name: "console debug", cfg: LogConfig{Level: "debug", Format: "console"}},
		{name: "bad level", cfg: LogConfig{Level: "loud", Format: "json"}, errMsg: "parse log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.cfg)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, zap.L())
		})
	}
}

func TestInitLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "process.log")
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json", File: path}))
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	zap.L().Info("hello file")
	_ = zap.L().Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}
