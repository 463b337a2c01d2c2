// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like PROVIDERS_ANTHROPIC_API_KEY.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile probes the usual locations so binaries and tests can run from
// any directory inside the module.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "wizard-manager"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":9400"
	}
	if cfg.Wizard.Breaker.FailureThreshold == 0 {
		cfg.Wizard.Breaker.FailureThreshold = 3
	}
	if cfg.Wizard.Breaker.Cooldown == 0 {
		cfg.Wizard.Breaker.Cooldown = 60 * time.Second
	}
	if cfg.Wizard.Health.Interval == 0 {
		cfg.Wizard.Health.Interval = 5 * time.Minute
	}
	if cfg.Wizard.Health.ProbeTimeout == 0 {
		cfg.Wizard.Health.ProbeTimeout = 10 * time.Second
	}
	if cfg.Wizard.CallTimeout == 0 {
		cfg.Wizard.CallTimeout = 45 * time.Second
	}
	if cfg.Wizard.CacheSize == 0 {
		cfg.Wizard.CacheSize = 256
	}
	if cfg.Wizard.SessionTTL == 0 {
		cfg.Wizard.SessionTTL = 24 * time.Hour
	}
	if cfg.Wizard.SettingsPath == "" {
		cfg.Wizard.SettingsPath = filepath.Join(".wizard", "settings.json")
	}
	if cfg.Providers.Active == "" {
		cfg.Providers.Active = "anthropic"
	}
	if cfg.Providers.Anthropic.APIKey == "" {
		cfg.Providers.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Providers.OpenAI.APIKey == "" {
		cfg.Providers.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Providers.Google.APIKey == "" {
		cfg.Providers.Google.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Providers.Google.AuthMode == "" {
		cfg.Providers.Google.AuthMode = "api_key"
	}
	if cfg.Figma.AccessToken == "" {
		cfg.Figma.AccessToken = os.Getenv("FIGMA_ACCESS_TOKEN")
	}
	if cfg.Figma.BaseURL == "" {
		cfg.Figma.BaseURL = "https://api.figma.com"
	}
	if cfg.Figma.Timeout == 0 {
		cfg.Figma.Timeout = 15 * time.Second
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Providers.Active {
	case "anthropic", "openai", "google":
	default:
		return fmt.Errorf("unknown active provider %q", cfg.Providers.Active)
	}
	if cfg.Wizard.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("breaker failure_threshold must be >= 1")
	}
	if cfg.Wizard.Breaker.Cooldown < time.Second {
		return fmt.Errorf("breaker cooldown must be >= 1s")
	}
	return nil
}
