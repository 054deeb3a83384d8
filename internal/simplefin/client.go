// Package simplefin fetches bank transactions from a SimpleFIN bridge as raw
// import rows. SimpleFIN is a one-way read protocol: a one-time setup token
// is claimed for an access URL, and the access URL alone authorizes reads
// from then on.
package simplefin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// Config holds SimpleFIN credentials: either an already claimed access URL,
// or a one-time setup token that is claimed and persisted on first use.
type Config struct {
	AccessURL string
	Token     string
	StatePath string // where the claimed access URL is persisted; "" uses the default
}

// Validate checks that at least one credential is present.
func (c Config) Validate() error {
	if c.AccessURL == "" && c.Token == "" {
		return fmt.Errorf("%w: simplefin access URL or setup token is required", common.ErrInvalidConfig)
	}
	return nil
}

// SimpleFIN wire types. Amounts are signed decimal strings with the same
// convention as ours: negative means money out.
type accountSet struct {
	Accounts []account `json:"accounts"`
}

type account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Currency     string        `json:"currency"`
	Transactions []transaction `json:"transactions"`
}

type transaction struct {
	ID          string `json:"id"`
	Posted      int64  `json:"posted"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Payee       string `json:"payee"`
	Pending     bool   `json:"pending"`
}

// Client reads transactions from a SimpleFIN bridge.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger
	accessURL  string
	retryOpts  service.RetryOptions
}

// NewClient resolves the access URL, claiming the setup token if no URL was
// configured or saved yet, and returns a ready client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	accessURL := cfg.AccessURL
	if accessURL == "" {
		claimed, err := LoadOrClaim(ctx, cfg.Token, cfg.StatePath)
		if err != nil {
			return nil, err
		}
		accessURL = claimed
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        slog.Default().With("component", "simplefin"),
		accessURL:  strings.TrimRight(accessURL, "/"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// FetchRows retrieves settled transactions posted within [startDate, endDate]
// across all accounts the access URL covers.
func (c *Client) FetchRows(ctx context.Context, startDate, endDate time.Time) ([]model.RawRow, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: context cannot be nil", common.ErrValidation)
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("%w: start date must not be after end date", common.ErrValidation)
	}

	var set accountSet
	err := common.WithRetry(ctx, func() error {
		var fetchErr error
		set, fetchErr = c.fetchAccounts(ctx, startDate, endDate)
		return fetchErr
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	rows := c.rows(set, startDate, endDate)
	c.log.Info("fetched simplefin transactions",
		"accounts", len(set.Accounts),
		"rows", len(rows),
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"))
	return rows, nil
}

func (c *Client) fetchAccounts(ctx context.Context, startDate, endDate time.Time) (accountSet, error) {
	u, err := url.Parse(c.accessURL + "/accounts")
	if err != nil {
		return accountSet{}, fmt.Errorf("%w: invalid access URL: %v", common.ErrInvalidConfig, err)
	}

	// SimpleFIN's end-date is exclusive, so the window is widened by a day.
	q := u.Query()
	q.Set("start-date", fmt.Sprintf("%d", startDate.Unix()))
	q.Set("end-date", fmt.Sprintf("%d", endDate.AddDate(0, 0, 1).Unix()))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return accountSet{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return accountSet{}, fmt.Errorf("%w: failed to reach simplefin bridge: %v", common.ErrExternalService, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return accountSet{}, fmt.Errorf("%w: simplefin bridge rate limited the request", common.ErrRateLimit)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return accountSet{}, fmt.Errorf("%w: simplefin returned %d: %s",
			common.ErrExternalService, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var set accountSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return accountSet{}, fmt.Errorf("%w: failed to decode simplefin response: %v", common.ErrExternalService, err)
	}
	return set, nil
}

// rows flattens the account set into raw import rows, dropping pending
// transactions and anything the bridge returned outside the window. The
// cutoff matches the exclusive end-date the bridge was queried with, so a
// midnight endDate still covers that whole calendar day.
func (c *Client) rows(set accountSet, startDate, endDate time.Time) []model.RawRow {
	var rows []model.RawRow
	pending := 0
	cutoff := endDate.AddDate(0, 0, 1)

	for _, acct := range set.Accounts {
		for _, txn := range acct.Transactions {
			if txn.Pending {
				pending++
				continue
			}
			posted := time.Unix(txn.Posted, 0).UTC()
			if posted.Before(startDate) || !posted.Before(cutoff) {
				continue
			}
			rows = append(rows, mapRow(acct, txn, posted))
		}
	}

	if pending > 0 {
		c.log.Debug("skipped pending transactions", "count", pending)
	}
	return rows
}

// mapRow prefers the payee over the raw description, like the Plaid adapter
// prefers the merchant name. SimpleFIN amounts already carry our sign
// convention, so the string passes through untouched.
func mapRow(acct account, txn transaction, posted time.Time) model.RawRow {
	description := strings.TrimSpace(txn.Payee)
	if description == "" {
		description = strings.TrimSpace(txn.Description)
	}

	return model.RawRow{
		Date:        posted.Format("2006-01-02"),
		Description: description,
		Amount:      strings.TrimSpace(txn.Amount),
		Account:     acct.ID,
	}
}

var _ service.RowFetcher = (*Client)(nil)
