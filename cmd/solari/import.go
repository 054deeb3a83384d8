package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/solari/internal/cli"
	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/config"
	"github.com/Veraticus/solari/internal/importer"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/ofx"
	"github.com/Veraticus/solari/internal/plaid"
	"github.com/Veraticus/solari/internal/rules"
	"github.com/Veraticus/solari/internal/service"
	"github.com/Veraticus/solari/internal/simplefin"
)

// parseWorkers bounds how many statement files are parsed concurrently.
const parseWorkers = 4

// feedWindowDays is the default fetch window when --from is not given.
const feedWindowDays = 30

func importCmd() *cobra.Command {
	var (
		fromPlaid     bool
		fromSimpleFIN bool
		fromDate      string
		toDate        string
	)

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from CSV, OFX/QFX files, Plaid or SimpleFIN",
		Long: `Import bank transactions from statement files, or fetch them from the
Plaid API or a SimpleFIN bridge. The parser is picked by file extension;
globs are expanded. Rows already imported are counted as duplicates and
never re-created.

Examples:
  # Import a single statement
  solari import ~/Downloads/checking_aug.csv

  # Import everything a bank exported
  solari import ~/Downloads/chase_*.qfx ~/Downloads/ally/*.ofx

  # Fetch the last 30 days from Plaid
  solari import --plaid

  # Fetch a specific window from a SimpleFIN bridge
  solari import --simplefin --from 2026-07-01 --to 2026-07-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if fromPlaid && fromSimpleFIN {
				return fmt.Errorf("--plaid and --simplefin are mutually exclusive")
			}
			if (fromPlaid || fromSimpleFIN) && len(args) > 0 {
				return fmt.Errorf("--plaid and --simplefin do not take file arguments")
			}

			if fromPlaid {
				return runPlaidImport(ctx, fromDate, toDate)
			}
			if fromSimpleFIN {
				return runSimpleFINImport(ctx, fromDate, toDate)
			}

			if len(args) == 0 {
				return fmt.Errorf("no input files; pass statement paths, --plaid or --simplefin")
			}
			return runFileImport(ctx, args)
		},
	}

	cmd.Flags().BoolVar(&fromPlaid, "plaid", false, "fetch transactions from the Plaid API instead of files")
	cmd.Flags().BoolVar(&fromSimpleFIN, "simplefin", false, "fetch transactions from a SimpleFIN bridge instead of files")
	cmd.Flags().StringVar(&fromDate, "from", "", "start date for feed imports (YYYY-MM-DD, default: 30 days ago)")
	cmd.Flags().StringVar(&toDate, "to", "", "end date for feed imports (YYYY-MM-DD, default: today)")

	return cmd
}

func runFileImport(ctx context.Context, patterns []string) error {
	files, err := collectFiles(patterns)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	slog.Info("☀️  Importing statement files...", "file_count", len(files))

	// Parsing is CPU and disk bound, so files are parsed concurrently.
	// Reconciliation stays sequential: batches for one user serialize on
	// the user lock anyway, and per-file output should arrive in order.
	parsed := make([][]model.RawRow, len(files))
	parseErrs := make([]error, len(files))
	bar := newImportBar(len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)
	for i, path := range files {
		g.Go(func() error {
			parsed[i], parseErrs[i] = parseFile(gctx, path)
			_ = bar.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	reconciler := importer.NewReconciler(store, rules.NewMatcher(store), common.NewKeyedMutex())
	user := currentUser()

	failures := 0
	for i, path := range files {
		name := filepath.Base(path)

		if parseErrs[i] != nil {
			failures++
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", name, parseErrs[i]))) //nolint:forbidigo // User-facing output
			continue
		}

		result, err := reconciler.Reconcile(ctx, user, sourceForFile(path), name, parsed[i])
		if err != nil {
			failures++
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", name, err))) //nolint:forbidigo // User-facing output
			continue
		}

		fmt.Println(cli.RenderImportResult(name, result)) //nolint:forbidigo // User-facing output
	}

	if failures == len(files) {
		return fmt.Errorf("all %d files failed to import", failures)
	}
	return nil
}

func runPlaidImport(ctx context.Context, fromDate, toDate string) error {
	pcfg, err := config.LoadPlaidConfig()
	if err != nil {
		return err
	}
	client, err := plaid.NewClient(*pcfg)
	if err != nil {
		return err
	}
	return runFeedImport(ctx, importer.SourcePlaid, "Plaid", client, fromDate, toDate)
}

func runSimpleFINImport(ctx context.Context, fromDate, toDate string) error {
	scfg, err := config.LoadSimpleFINConfig()
	if err != nil {
		return err
	}
	client, err := simplefin.NewClient(ctx, *scfg)
	if err != nil {
		return err
	}
	return runFeedImport(ctx, importer.SourceSimpleFIN, "SimpleFIN", client, fromDate, toDate)
}

// runFeedImport fetches a window of transactions from an aggregator feed
// and reconciles them as a single batch named after the window.
func runFeedImport(ctx context.Context, source, feedName string, client service.RowFetcher, fromDate, toDate string) error {
	to := time.Now().UTC()
	if toDate != "" {
		parsed, err := time.Parse("2006-01-02", toDate)
		if err != nil {
			return fmt.Errorf("invalid --to date %q: %w", toDate, err)
		}
		to = parsed
	}

	from := to.AddDate(0, 0, -feedWindowDays)
	if fromDate != "" {
		parsed, err := time.Parse("2006-01-02", fromDate)
		if err != nil {
			return fmt.Errorf("invalid --from date %q: %w", fromDate, err)
		}
		from = parsed
	}

	rows, err := client.FetchRows(ctx, from, to)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println(cli.FormatInfo(feedName + " returned no settled transactions for the window.")) //nolint:forbidigo // User-facing output
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	reconciler := importer.NewReconciler(store, rules.NewMatcher(store), common.NewKeyedMutex())
	window := fmt.Sprintf("%s..%s", from.Format("2006-01-02"), to.Format("2006-01-02"))

	result, err := reconciler.Reconcile(ctx, currentUser(), source, window, rows)
	if err != nil {
		return err
	}

	fmt.Println(cli.RenderImportResult(source+" "+window, result)) //nolint:forbidigo // User-facing output
	return nil
}

// collectFiles expands glob patterns, keeping direct paths that exist.
func collectFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, statErr := os.Stat(pattern); statErr == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

// parseFile reads one statement file, picking the parser by extension.
func parseFile(ctx context.Context, path string) ([]model.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return importer.ParseCSV(f)
	case ".ofx", ".qfx":
		return ofx.NewParser().ParseFile(ctx, f)
	default:
		return nil, fmt.Errorf("unsupported file type %q; expected .csv, .ofx or .qfx", filepath.Ext(path))
	}
}

func sourceForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return importer.SourceOFX
	default:
		return importer.SourceCSV
	}
}

func newImportBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Parsing statements...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}
