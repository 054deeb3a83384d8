package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/solari/internal/plaid"
)

// LoadPlaidConfig assembles the Plaid fetch configuration with the same
// precedence as LoadSheetsConfig: viper keys first, PLAID_* environment
// variables second.
func LoadPlaidConfig() (*plaid.Config, error) {
	cfg := plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	}

	if cfg.ClientID == "" {
		cfg.ClientID = os.Getenv("PLAID_CLIENT_ID")
	}
	if cfg.Secret == "" {
		cfg.Secret = os.Getenv("PLAID_SECRET")
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("PLAID_ACCESS_TOKEN")
	}
	if cfg.Environment == "" {
		cfg.Environment = "sandbox"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
