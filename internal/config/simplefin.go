package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/solari/internal/simplefin"
)

// LoadSimpleFINConfig assembles the SimpleFIN fetch configuration with the
// same precedence as LoadPlaidConfig: viper keys first, SIMPLEFIN_*
// environment variables second.
func LoadSimpleFINConfig() (*simplefin.Config, error) {
	cfg := simplefin.Config{
		AccessURL: viper.GetString("simplefin.access_url"),
		Token:     viper.GetString("simplefin.token"),
		StatePath: ExpandPath(viper.GetString("simplefin.state_path")),
	}

	if cfg.AccessURL == "" {
		cfg.AccessURL = os.Getenv("SIMPLEFIN_ACCESS_URL")
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("SIMPLEFIN_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
