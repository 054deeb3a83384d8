package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// Writer renders monthly budget reports into a Google Sheets spreadsheet,
// one tab per month.
type Writer struct {
	service *sheets.Service
	log     *slog.Logger
	config  Config
}

// NewWriter authenticates against the Sheets API and returns a writer.
func NewWriter(ctx context.Context, config Config) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	svc, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: svc,
		log:     slog.Default().With("component", "sheets"),
	}, nil
}

// Write renders the month's report into a tab named after the month
// (2026-08 style) and returns the spreadsheet URL. The tab is created if
// missing and overwritten if present.
func (w *Writer) Write(ctx context.Context, user string, month time.Time, comparisons []model.BudgetComparison, summary *model.SpendingSummary) (string, error) {
	tab := month.Format("2006-01")
	w.log.Info("exporting monthly report",
		"user", user,
		"tab", tab,
		"comparisons", len(comparisons))

	spreadsheet, err := w.getOrCreateSpreadsheet(ctx, tab)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	sheetID, err := w.ensureTab(ctx, spreadsheet, tab)
	if err != nil {
		return "", fmt.Errorf("failed to prepare report tab: %w", err)
	}

	_, err = w.service.Spreadsheets.Values.Clear(spreadsheet.SpreadsheetId, tabRange(tab), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: failed to clear report tab: %v", common.ErrExternalService, err)
	}

	values := w.reportValues(user, month, comparisons, summary)

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeValues(ctx, spreadsheet.SpreadsheetId, tab, values)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheet.SpreadsheetId, sheetID, len(values))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written.
			w.log.Warn("failed to apply formatting", "error", err)
		}
	}

	w.log.Info("report export completed",
		"spreadsheet_id", spreadsheet.SpreadsheetId,
		"tab", tab,
		"rows", len(values))

	return spreadsheet.SpreadsheetUrl, nil
}

// createSheetsService builds an authenticated Sheets API client from either
// a service account key file or an OAuth2 refresh token.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet fetches the configured spreadsheet, or creates a
// new one seeded with the report tab when no ID is configured.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context, tab string) (*sheets.Spreadsheet, error) {
	if w.config.SpreadsheetID != "" {
		spreadsheet, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("%w: unable to access spreadsheet %s: %v",
				common.ErrExternalService, w.config.SpreadsheetID, err)
		}
		return spreadsheet, nil
	}

	created, err := w.service.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{Title: tab},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to create spreadsheet: %v", common.ErrExternalService, err)
	}

	w.log.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created, nil
}

// ensureTab finds the month tab by title, adding it when absent, and
// returns its sheet ID for formatting requests.
func (w *Writer) ensureTab(ctx context.Context, spreadsheet *sheets.Spreadsheet, title string) (int64, error) {
	for _, sh := range spreadsheet.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, nil
		}
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheet.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%w: unable to add report tab %s: %v", common.ErrExternalService, title, err)
	}

	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("%w: add sheet reply missing properties", common.ErrExternalService)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// reportValues lays out the report grid: a budget-vs-actual table followed
// by a summary block.
func (w *Writer) reportValues(user string, month time.Time, comparisons []model.BudgetComparison, summary *model.SpendingSummary) [][]any {
	estimated := 14 + len(comparisons) + len(summary.ByCategory)
	values := make([][]any, 0, estimated)

	values = append(values,
		[]any{"Monthly Report", month.Format("January 2006"), user},
		[]any{},
		[]any{"Budget vs Actual"},
		[]any{"Category", "Budgeted", "Spent", "Difference", "Used"},
	)

	for _, comp := range comparisons {
		values = append(values, []any{
			comp.CategoryName,
			comp.Budgeted,
			comp.Spent,
			comp.Difference,
			fmt.Sprintf("%.1f%%", comp.Percentage),
		})
	}
	if len(comparisons) == 0 {
		values = append(values, []any{"(no budgets set)"})
	}

	values = append(values,
		[]any{},
		[]any{"Summary"},
		[]any{"Total Income", summary.TotalIncome},
		[]any{"Total Spent", summary.TotalSpent},
		[]any{"Net", summary.TotalIncome - summary.TotalSpent},
		[]any{},
		[]any{"Top Categories"},
		[]any{"Category", "Spent", "Transactions"},
	)

	for _, cat := range summary.ByCategory {
		values = append(values, []any{cat.CategoryName, cat.Total, cat.Count})
	}

	return values
}

// writeValues writes the grid into the tab in batches to stay under API
// request limits.
func (w *Writer) writeValues(ctx context.Context, spreadsheetID, tab string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := i + w.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		valueRange := &sheets.ValueRange{Values: values[i:end]}
		rangeStr := fmt.Sprintf("'%s'!A%d", tab, i+1)

		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("%w: failed to write batch starting at row %d: %v",
				common.ErrExternalService, i+1, err)
		}

		w.log.Debug("wrote batch", "start_row", i+1, "rows", end-i)
	}

	return nil
}

// applyFormatting bolds the title and section labels, applies a currency
// format to the money columns, and freezes the title row.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, totalRows int) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   3,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold:     true,
							FontSize: 14,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    2,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 1,
					EndColumnIndex:   4,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: "$#,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   5,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: failed to apply formatting: %v", common.ErrExternalService, err)
	}
	return nil
}

// tabRange addresses every cell of one tab, quoted so the tab name always
// parses as a literal.
func tabRange(tab string) string {
	return fmt.Sprintf("'%s'!A:Z", tab)
}
