// Package plaid fetches bank transactions from the Plaid API as raw import
// rows.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// pageSize is Plaid's maximum transactions/get page size.
const pageSize = int32(500)

// Config holds the Plaid API credentials and the item to fetch.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate checks that every required field is present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrInvalidConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrInvalidConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrInvalidConfig)
	}
	switch c.Environment {
	case "sandbox", "production":
		return nil
	case "":
		return fmt.Errorf("%w: plaid environment is required", common.ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: plaid environment must be sandbox or production, got %q",
			common.ErrInvalidConfig, c.Environment)
	}
}

// Client downloads transactions for one linked item.
type Client struct {
	client      *plaid.APIClient
	log         *slog.Logger
	retryOpts   service.RetryOptions
	accessToken string
}

// NewClient creates a Plaid client for the configured environment.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	if cfg.Environment == "production" {
		configuration.UseEnvironment(plaid.Production)
	} else {
		configuration.UseEnvironment(plaid.Sandbox)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		log:         slog.Default().With("component", "plaid"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// FetchRows downloads the item's transactions posted in [startDate, endDate]
// and shapes them into import rows. Pending transactions are skipped: their
// amount and description change when they settle, which would poison the
// import fingerprints.
func (c *Client) FetchRows(ctx context.Context, startDate, endDate time.Time) ([]model.RawRow, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: context cannot be nil", common.ErrValidation)
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("%w: start date must not be after end date", common.ErrValidation)
	}

	start := startDate.Format("2006-01-02")
	end := endDate.Format("2006-01-02")
	c.log.Info("fetching transactions from Plaid", "start", start, "end", end)

	var fetched []plaid.Transaction
	offset := int32(0)
	for {
		var page []plaid.Transaction

		err := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(c.accessToken, start, end)
			request.SetOptions(plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			})

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				if plaidErr := extractPlaidError(err); plaidErr != nil {
					if plaidErr.ErrorCode == "RATE_LIMIT_EXCEEDED" {
						c.log.Warn("plaid rate limit hit, will retry", "error", plaidErr.ErrorMessage)
						return &common.RetryableError{Err: err, Retryable: true}
					}
					return fmt.Errorf("%w: plaid %s: %s",
						common.ErrExternalService, plaidErr.ErrorCode, plaidErr.ErrorMessage)
				}
				return fmt.Errorf("%w: failed to fetch transactions: %v", common.ErrExternalService, err)
			}

			page = resp.GetTransactions()
			c.log.Debug("fetched transaction page",
				"count", len(page),
				"offset", offset,
				"total", resp.GetTotalTransactions())
			return nil
		}, c.retryOpts)
		if err != nil {
			return nil, err
		}

		fetched = append(fetched, page...)
		if len(page) < int(pageSize) {
			break
		}
		offset += pageSize
	}

	rows := c.rows(fetched)
	c.log.Info("fetched all transactions", "fetched", len(fetched), "rows", len(rows))
	return rows, nil
}

// rows converts settled transactions, dropping pending ones.
func (c *Client) rows(txns []plaid.Transaction) []model.RawRow {
	rows := make([]model.RawRow, 0, len(txns))
	pending := 0
	for _, pt := range txns {
		if pt.GetPending() {
			pending++
			continue
		}
		rows = append(rows, mapRow(pt))
	}
	if pending > 0 {
		c.log.Debug("skipped pending transactions", "count", pending)
	}
	return rows
}

// mapRow shapes one Plaid transaction into a raw row. Plaid reports money
// out as positive, the opposite of our sign convention, so the amount is
// negated on the way through.
func mapRow(pt plaid.Transaction) model.RawRow {
	description := strings.TrimSpace(pt.GetMerchantName())
	if description == "" {
		description = strings.TrimSpace(pt.GetName())
	}
	return model.RawRow{
		Date:        pt.GetDate(),
		Description: description,
		Amount:      strconv.FormatFloat(-pt.GetAmount(), 'f', 2, 64),
		Account:     pt.GetAccountId(),
	}
}

// extractPlaidError pulls the typed Plaid error out of a generic one.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure Client satisfies the boundary contract the importer consumes.
var _ service.RowFetcher = (*Client)(nil)
