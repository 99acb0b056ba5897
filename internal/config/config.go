package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abandonsearch/place-rater/internal/model"
)

// Artifact drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config holds the full application configuration.
type Config struct {
	Input     string          `yaml:"input" mapstructure:"input"`
	Output    string          `yaml:"output" mapstructure:"output"`
	Artifacts ArtifactsConfig `yaml:"artifacts" mapstructure:"artifacts"`
	Pool      []model.Backend `yaml:"pool" mapstructure:"pool"`
	Policy    PolicyConfig    `yaml:"policy" mapstructure:"policy"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Images    ImagesConfig    `yaml:"images" mapstructure:"images"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ArtifactsConfig selects where raw responses are stored.
type ArtifactsConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"`
	Dir        string `yaml:"dir" mapstructure:"dir"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// PolicyConfig holds the per-record fallback timings.
type PolicyConfig struct {
	CooldownSecs   int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
	MaxWaitSecs    int `yaml:"max_wait_secs" mapstructure:"max_wait_secs"`
	EmptyPauseMs   int `yaml:"empty_pause_ms" mapstructure:"empty_pause_ms"`
	FailurePauseMs int `yaml:"failure_pause_ms" mapstructure:"failure_pause_ms"`
}

// Cooldown returns the backend cooldown window.
func (p PolicyConfig) Cooldown() time.Duration {
	return time.Duration(p.CooldownSecs) * time.Second
}

// MaxWait returns the cap on a pool wait.
func (p PolicyConfig) MaxWait() time.Duration {
	return time.Duration(p.MaxWaitSecs) * time.Second
}

// EmptyPause returns the pause after an empty result.
func (p PolicyConfig) EmptyPause() time.Duration {
	return time.Duration(p.EmptyPauseMs) * time.Millisecond
}

// FailurePause returns the pause after a failed backend.
func (p PolicyConfig) FailurePause() time.Duration {
	return time.Duration(p.FailurePauseMs) * time.Millisecond
}

// RetryConfig configures retries of a single backend call.
type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseSleepMs    int     `yaml:"base_sleep_ms" mapstructure:"base_sleep_ms"`
	MaxBackoffMs   int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	JitterFraction float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// BaseSleep returns the first backoff delay.
func (r RetryConfig) BaseSleep() time.Duration {
	return time.Duration(r.BaseSleepMs) * time.Millisecond
}

// GeminiConfig configures the google provider.
type GeminiConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Temperature       float32 `yaml:"temperature" mapstructure:"temperature"`
	MaxOutputTokens   int32   `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
	MaxImages         int     `yaml:"max_images" mapstructure:"max_images"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// AnthropicConfig configures the anthropic provider.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// ImagesConfig configures image fetching for multimodal prompts.
type ImagesConfig struct {
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// FetchTimeout returns the per-image download timeout.
func (i ImagesConfig) FetchTimeout() time.Duration {
	return time.Duration(i.FetchTimeoutSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

// DefaultPool is the google fallback order used when no pool is configured.
func DefaultPool() []model.Backend {
	return []model.Backend{
		{Provider: model.ProviderGoogle, Model: "gemini-flash-latest"},
		{Provider: model.ProviderGoogle, Model: "gemini-flash-lite-latest"},
		{Provider: model.ProviderGoogle, Model: "gemini-2.5-pro"},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RATER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("gemini.key", "RATER_GEMINI_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("anthropic.key", "RATER_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")

	// Defaults
	v.SetDefault("input", "data.json")
	v.SetDefault("output", "data-modified.json")
	v.SetDefault("artifacts.driver", DriverFile)
	v.SetDefault("artifacts.dir", "debug_responses")
	v.SetDefault("artifacts.sqlite_path", "debug_responses.db")
	v.SetDefault("policy.cooldown_secs", 60)
	v.SetDefault("policy.max_wait_secs", 15)
	v.SetDefault("policy.empty_pause_ms", 300)
	v.SetDefault("policy.failure_pause_ms", 500)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_sleep_ms", 1000)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.jitter_fraction", 0.0)
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.max_output_tokens", 1024)
	v.SetDefault("gemini.max_images", 1)
	v.SetDefault("gemini.requests_per_minute", 0)
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.2)
	v.SetDefault("anthropic.requests_per_minute", 0)
	v.SetDefault("images.fetch_timeout_secs", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "process.log")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if len(cfg.Pool) == 0 {
		cfg.Pool = DefaultPool()
	}

	return &cfg, nil
}

// Validate checks the configuration for the given command mode. "run"
// additionally requires a credential for every provider in the pool.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "run":
		for _, p := range c.providers() {
			switch p {
			case model.ProviderGoogle:
				if c.Gemini.Key == "" {
					problems = append(problems, "gemini.key is required (or GEMINI_API_KEY)")
				}
			case model.ProviderAnthropic:
				if c.Anthropic.Key == "" {
					problems = append(problems, "anthropic.key is required (or ANTHROPIC_API_KEY)")
				}
			}
		}
		if c.Output == "" {
			problems = append(problems, "output is required")
		}
	case "status":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Input == "" {
		problems = append(problems, "input is required")
	}

	if len(c.Pool) == 0 {
		problems = append(problems, "pool must contain at least one backend")
	}
	for i, b := range c.Pool {
		if b.Provider != model.ProviderGoogle && b.Provider != model.ProviderAnthropic {
			problems = append(problems, fmt.Sprintf("pool[%d]: unknown provider %q", i, b.Provider))
		}
		if strings.TrimSpace(b.Model) == "" {
			problems = append(problems, fmt.Sprintf("pool[%d]: model is required", i))
		}
	}

	switch c.Artifacts.Driver {
	case DriverFile:
		if c.Artifacts.Dir == "" {
			problems = append(problems, "artifacts.dir is required for the file driver")
		}
	case DriverSQLite:
		if c.Artifacts.SQLitePath == "" {
			problems = append(problems, "artifacts.sqlite_path is required for the sqlite driver")
		}
	default:
		problems = append(problems, "artifacts.driver must be \"file\" or \"sqlite\"")
	}

	if c.Policy.CooldownSecs < 0 || c.Policy.MaxWaitSecs < 0 ||
		c.Policy.EmptyPauseMs < 0 || c.Policy.FailurePauseMs < 0 {
		problems = append(problems, "policy values must be >= 0")
	}
	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.max_attempts must be >= 1")
	}
	if c.Retry.BaseSleepMs < 0 {
		problems = append(problems, "retry.base_sleep_ms must be >= 0")
	}
	if c.Retry.MaxBackoffMs < 0 {
		problems = append(problems, "retry.max_backoff_ms must be >= 0")
	}
	if c.Retry.JitterFraction < 0 || c.Retry.JitterFraction >= 1 {
		problems = append(problems, "retry.jitter_fraction must be in [0, 1)")
	}
	if c.Gemini.MaxImages < 0 {
		problems = append(problems, "gemini.max_images must be >= 0")
	}
	if c.Gemini.RequestsPerMinute < 0 || c.Anthropic.RequestsPerMinute < 0 {
		problems = append(problems, "requests_per_minute must be >= 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) providers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range c.Pool {
		if !seen[b.Provider] {
			seen[b.Provider] = true
			out = append(out, b.Provider)
		}
	}
	return out
}

// InitLogger initializes the global zap logger. A non-empty File is added
// to the output paths alongside stderr.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	if cfg.File != "" {
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, cfg.File)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
