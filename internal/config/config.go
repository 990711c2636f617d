// Package config loads service configuration from an optional YAML file,
// DUITBOT_-prefixed environment variables, and built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup. The
// `mapstructure` tags are used by Viper to map keys from the
// configuration file to struct fields.
type Config struct {
	Server struct {
		Port       string `mapstructure:"port"`
		WebhookKey string `mapstructure:"webhook_key"`
	} `mapstructure:"server"`

	WA struct {
		BaseURL string `mapstructure:"base_url"`
		Session string `mapstructure:"session"`
		APIKey  string `mapstructure:"api_key"`
	} `mapstructure:"wa"`

	Budget struct {
		BaseURL    string `mapstructure:"base_url"`
		APIKey     string `mapstructure:"api_key"`
		BudgetSync string `mapstructure:"budget_sync_id"`
	} `mapstructure:"budget"`

	LLM struct {
		Model string `mapstructure:"model"`
	} `mapstructure:"llm"`

	Store struct {
		SQLitePath  string        `mapstructure:"sqlite_path"`
		EventTTL    time.Duration `mapstructure:"event_ttl"`
		PurgePeriod time.Duration `mapstructure:"purge_period"`
	} `mapstructure:"store"`

	Money struct {
		Symbol string `mapstructure:"symbol"`
		Locale string `mapstructure:"locale"`
	} `mapstructure:"money"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads the configuration from the given path (directory containing
// config.yaml). A missing file is tolerated: environment variables and
// defaults still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("wa.session", "default")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("store.sqlite_path", "duitbot.db")
	v.SetDefault("store.event_ttl", 24*time.Hour)
	v.SetDefault("store.purge_period", time.Hour)
	v.SetDefault("money.symbol", "Rp")
	v.SetDefault("money.locale", "id")
	v.SetDefault("log_level", "info")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("DUITBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config.Load: reading configuration file: %w", err)
		}
		// No file: defaults and environment variables still apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: unmarshalling configuration: %w", err)
	}

	return &cfg, nil
}
