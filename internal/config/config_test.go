package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/insight"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "local", cfg.User.ID)
	require.Equal(t, "none", cfg.LLM.Provider)
	require.Equal(t, insight.DefaultConfig(), cfg.Insight)
	require.True(t, strings.HasSuffix(cfg.Database.Path, "solari.db"))
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("llm.provider", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sk-test", cfg.LLM.APIKey, "provider selects which env key applies")

	viper.Set("llm.provider", "anthropic")
	viper.Set("llm.api_key", "from-config")
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, "from-config", cfg.LLM.APIKey, "explicit config wins over env")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Path: "/tmp/solari.db"},
			Logging:  LoggingConfig{Level: "info", Format: "console"},
			Server:   ServerConfig{Addr: ":8080"},
			User:     UserConfig{ID: "local"},
			Insight:  insight.DefaultConfig(),
		}
	}

	tests := []struct {
		mutate  func(*Config)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}, wantErr: false},
		{name: "empty database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "empty user id", mutate: func(c *Config) { c.User.ID = "" }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "unknown log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{name: "zero window", mutate: func(c *Config) { c.Insight.WindowMonths = 0 }, wantErr: true},
		{name: "multiplier too low", mutate: func(c *Config) { c.Insight.AnomalyMultiplier = 1.0 }, wantErr: true},
		{name: "negative month end days", mutate: func(c *Config) { c.Insight.MonthEndDays = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("SOLARI_TEST_DIR", "/srv/data")

	require.Equal(t, "/srv/data/solari.db", ExpandPath("$SOLARI_TEST_DIR/solari.db"))
	require.Equal(t, "", ExpandPath(""))

	home := ExpandPath("~")
	require.NotEqual(t, "~", home)
	require.True(t, strings.HasPrefix(ExpandPath("~/x.db"), home))
}
