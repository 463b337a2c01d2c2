// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Wizard    WizardConfig    `mapstructure:"wizard"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Figma     FigmaConfig     `mapstructure:"figma"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig covers the ops/metrics HTTP surface exposed to the host UI.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WizardConfig holds the resilience and caching knobs shared by all
// providers. Breaker threshold and cooldown are deliberately configuration,
// not constants.
type WizardConfig struct {
	Breaker      BreakerConfig `mapstructure:"breaker"`
	Health       HealthConfig  `mapstructure:"health"`
	CallTimeout  time.Duration `mapstructure:"call_timeout"`
	CacheSize    int           `mapstructure:"cache_size"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	SettingsPath string        `mapstructure:"settings_path"`
}

type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

type HealthConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// ProvidersConfig enumerates the closed set of AI backends.
type ProvidersConfig struct {
	Active    string         `mapstructure:"active"`
	Anthropic ProviderConfig `mapstructure:"anthropic"`
	OpenAI    ProviderConfig `mapstructure:"openai"`
	Google    ProviderConfig `mapstructure:"google"`
}

// ProviderConfig holds the per-backend credential and model override. Google
// additionally supports an OAuth auth mode; the token bundle itself lives in
// settings storage, never here.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	AuthMode string `mapstructure:"auth_mode"` // "api_key" (default) or "oauth"
}

type FigmaConfig struct {
	AccessToken string        `mapstructure:"access_token"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}
