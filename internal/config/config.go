// Package config loads the application configuration from viper, combining
// config-file values, SOLARI_ environment variables and defaults into typed
// structs for the packages that consume them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/insight"
	"github.com/Veraticus/solari/internal/llm"
)

// Config is the fully resolved application configuration.
type Config struct {
	Database DatabaseConfig
	Logging  LoggingConfig
	Server   ServerConfig
	User     UserConfig
	LLM      llm.Config
	Insight  insight.Config
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	Level  string
	Format string
}

// ServerConfig tunes the HTTP API server.
type ServerConfig struct {
	Addr string
}

// UserConfig identifies the default user for CLI operations.
type UserConfig struct {
	ID string
}

// SetDefaults registers every default value with viper. Call it once before
// reading the config file so unset keys resolve predictably.
func SetDefaults() {
	viper.SetDefault("database.path", "~/.local/share/solari/solari.db")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("user.id", "local")

	viper.SetDefault("llm.provider", "none")
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 1024)

	defaults := insight.DefaultConfig()
	viper.SetDefault("insight.window_months", defaults.WindowMonths)
	viper.SetDefault("insight.anomaly_multiplier", defaults.AnomalyMultiplier)
	viper.SetDefault("insight.anomaly_min_count", defaults.AnomalyMinCount)
	viper.SetDefault("insight.anomaly_top_alerts", defaults.AnomalyTopAlerts)
	viper.SetDefault("insight.recurring_min_months", defaults.RecurringMinMonths)
	viper.SetDefault("insight.recurring_min_count", defaults.RecurringMinCount)
	viper.SetDefault("insight.month_end_days", defaults.MonthEndDays)
}

// Load resolves the configuration from viper and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(viper.GetString("database.path")),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
		Server: ServerConfig{
			Addr: viper.GetString("server.addr"),
		},
		User: UserConfig{
			ID: viper.GetString("user.id"),
		},
		LLM: llm.Config{
			Provider:    viper.GetString("llm.provider"),
			APIKey:      viper.GetString("llm.api_key"),
			Model:       viper.GetString("llm.model"),
			BaseURL:     viper.GetString("llm.base_url"),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxTokens:   viper.GetInt("llm.max_tokens"),
		},
		Insight: insight.Config{
			WindowMonths:       viper.GetInt("insight.window_months"),
			AnomalyMultiplier:  viper.GetFloat64("insight.anomaly_multiplier"),
			AnomalyMinCount:    viper.GetInt("insight.anomaly_min_count"),
			AnomalyTopAlerts:   viper.GetInt("insight.anomaly_top_alerts"),
			RecurringMinMonths: viper.GetInt("insight.recurring_min_months"),
			RecurringMinCount:  viper.GetInt("insight.recurring_min_count"),
			MonthEndDays:       viper.GetInt("insight.month_end_days"),
		},
	}

	// Provider API keys usually live in the environment, not the config file.
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values for internal consistency.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path is empty", common.ErrInvalidConfig)
	}
	if c.User.ID == "" {
		return fmt.Errorf("%w: user id is empty", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}

	if c.Insight.WindowMonths < 1 {
		return fmt.Errorf("%w: insight window must cover at least one month", common.ErrInvalidConfig)
	}
	if c.Insight.AnomalyMultiplier <= 1 {
		return fmt.Errorf("%w: anomaly multiplier must exceed 1", common.ErrInvalidConfig)
	}
	if c.Insight.AnomalyMinCount < 1 || c.Insight.AnomalyTopAlerts < 1 {
		return fmt.Errorf("%w: anomaly thresholds must be positive", common.ErrInvalidConfig)
	}
	if c.Insight.RecurringMinMonths < 1 || c.Insight.RecurringMinCount < 1 {
		return fmt.Errorf("%w: recurring thresholds must be positive", common.ErrInvalidConfig)
	}
	if c.Insight.MonthEndDays < 0 {
		return fmt.Errorf("%w: month-end days cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}

// Dir returns the directory solari reads its config file from:
// $XDG_CONFIG_HOME/solari, falling back to ~/.config/solari.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "solari"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "solari"), nil
}

// ExpandPath expands a leading ~ and $VAR environment references in a path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
