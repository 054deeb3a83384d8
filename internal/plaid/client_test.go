package plaid

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

func validConfig() Config {
	return Config{
		ClientID:    "test-client-id",
		Secret:      "test-secret",
		Environment: "sandbox",
		AccessToken: "test-token",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		name    string
		errMsg  string
		wantErr bool
	}{
		{
			name:    "valid sandbox config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "valid production config",
			mutate:  func(c *Config) { c.Environment = "production" },
			wantErr: false,
		},
		{
			name:    "missing client ID",
			mutate:  func(c *Config) { c.ClientID = "" },
			wantErr: true,
			errMsg:  "plaid client ID is required",
		},
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.Secret = "" },
			wantErr: true,
			errMsg:  "plaid secret is required",
		},
		{
			name:    "missing access token",
			mutate:  func(c *Config) { c.AccessToken = "" },
			wantErr: true,
			errMsg:  "plaid access token is required",
		},
		{
			name:    "missing environment",
			mutate:  func(c *Config) { c.Environment = "" },
			wantErr: true,
			errMsg:  "plaid environment is required",
		},
		{
			name:    "development environment rejected",
			mutate:  func(c *Config) { c.Environment = "development" },
			wantErr: true,
			errMsg:  "must be sandbox or production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidConfig)
				require.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	t.Run("valid config creates client", func(t *testing.T) {
		client, err := NewClient(validConfig())
		require.NoError(t, err)
		require.NotNil(t, client)
		require.NotNil(t, client.client)
		require.Equal(t, "test-token", client.accessToken)
		require.NotNil(t, client.log)
		require.Equal(t, 3, client.retryOpts.MaxAttempts)
	})

	t.Run("invalid config returns error", func(t *testing.T) {
		client, err := NewClient(Config{ClientID: "test-client-id"})
		require.ErrorIs(t, err, common.ErrInvalidConfig)
		require.Nil(t, client)
	})
}

func TestClient_FetchRows_Validation(t *testing.T) {
	client := &Client{
		accessToken: "test-token",
		log:         slog.Default().With("component", "plaid-test"),
	}

	tests := []struct {
		startDate time.Time
		endDate   time.Time
		ctx       context.Context
		name      string
		errMsg    string
	}{
		{
			name:      "nil context",
			ctx:       nil,
			startDate: time.Now().AddDate(0, -1, 0),
			endDate:   time.Now(),
			errMsg:    "context cannot be nil",
		},
		{
			name:      "start date after end date",
			ctx:       context.Background(),
			startDate: time.Now(),
			endDate:   time.Now().AddDate(0, -1, 0),
			errMsg:    "start date must not be after end date",
		},
		// The success path needs a live Plaid API; only input validation is
		// covered here.
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := client.FetchRows(tt.ctx, tt.startDate, tt.endDate)
			require.ErrorIs(t, err, common.ErrValidation)
			require.Contains(t, err.Error(), tt.errMsg)
			require.Nil(t, rows)
		})
	}
}

func testTxn(date, merchant, name string, amount float64, account string, pending bool) plaid.Transaction {
	var pt plaid.Transaction
	pt.SetDate(date)
	pt.SetName(name)
	if merchant != "" {
		pt.SetMerchantName(merchant)
	}
	pt.SetAmount(amount)
	pt.SetAccountId(account)
	pt.SetPending(pending)
	return pt
}

func TestClient_Rows(t *testing.T) {
	client := &Client{log: slog.Default().With("component", "plaid-test")}

	txns := []plaid.Transaction{
		testTxn("2026-08-03", "Blue Bottle Coffee", "BLUE BOTTLE 0042", 25.50, "acc-1", false),
		testTxn("2026-08-04", "", "PENDING HOLD", 12.00, "acc-1", true),
		testTxn("2026-08-05", "", "ACME PAYROLL", -1850.00, "acc-1", false),
	}

	rows := client.rows(txns)
	require.Equal(t, []model.RawRow{
		{Date: "2026-08-03", Description: "Blue Bottle Coffee", Amount: "-25.50", Account: "acc-1"},
		{Date: "2026-08-05", Description: "ACME PAYROLL", Amount: "1850.00", Account: "acc-1"},
	}, rows)
}

func TestMapRow(t *testing.T) {
	tests := []struct {
		name string
		txn  plaid.Transaction
		want model.RawRow
	}{
		{
			name: "outflow sign is flipped",
			txn:  testTxn("2026-08-03", "Blue Bottle Coffee", "BLUE BOTTLE 0042", 25.50, "acc-1", false),
			want: model.RawRow{Date: "2026-08-03", Description: "Blue Bottle Coffee", Amount: "-25.50", Account: "acc-1"},
		},
		{
			name: "inflow sign is flipped",
			txn:  testTxn("2026-08-05", "", "ACME PAYROLL", -1850.00, "acc-2", false),
			want: model.RawRow{Date: "2026-08-05", Description: "ACME PAYROLL", Amount: "1850.00", Account: "acc-2"},
		},
		{
			name: "merchant name preferred over raw name",
			txn:  testTxn("2026-08-06", "Netflix", "NETFLIX.COM 866-579-7172", 15.49, "acc-1", false),
			want: model.RawRow{Date: "2026-08-06", Description: "Netflix", Amount: "-15.49", Account: "acc-1"},
		},
		{
			name: "blank merchant name falls back to raw name",
			txn:  testTxn("2026-08-07", "   ", "  CITY PARKING  ", 4.00, "acc-1", false),
			want: model.RawRow{Date: "2026-08-07", Description: "CITY PARKING", Amount: "-4.00", Account: "acc-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, mapRow(tt.txn))
		})
	}
}
