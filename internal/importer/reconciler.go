// Package importer reconciles raw statement rows into stored transactions.
// Boundary adapters (CSV, OFX, Plaid, SimpleFIN) produce rows; the Reconciler
// owns validation, duplicate detection and persistence.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/rules"
	"github.com/Veraticus/solari/internal/service"
)

// Statement sources recognized by the CLI and the API.
const (
	SourceCSV       = "csv"
	SourceOFX       = "ofx"
	SourcePlaid     = "plaid"
	SourceSimpleFIN = "simplefin"
)

// dateFormats are tried in order. ISO first because it is unambiguous;
// bank CSV exports mostly use day-first forms.
var dateFormats = []string{"2006-01-02", "02/01/2006", "2/1/2006"}

// amountJunk matches everything that cannot be part of a signed decimal
// number: currency symbols, spaces, stray letters.
var amountJunk = regexp.MustCompile(`[^0-9.,+-]`)

// Reconciler imports batches of raw statement rows. Imports for the same
// user are serialized, and each batch's inserts happen in one storage
// transaction so a failed batch leaves no partial rows behind.
type Reconciler struct {
	store   service.Storage
	matcher Matcher
	locks   *common.KeyedMutex
	log     *slog.Logger
}

// NewReconciler creates a Reconciler. The lock registry must be the one
// shared with the rules service so imports and manual categorization never
// interleave for a user.
func NewReconciler(store service.Storage, matcher Matcher, locks *common.KeyedMutex) *Reconciler {
	return &Reconciler{
		store:   store,
		matcher: matcher,
		locks:   locks,
		log:     slog.Default().With("component", "importer"),
	}
}

// Reconcile validates, deduplicates and stores one batch of rows. Rows that
// fail validation are reported per index and skipped; rows already imported,
// in this batch or any earlier one, count as duplicates. Existing
// transactions are never re-evaluated or modified. Re-importing an identical
// batch therefore creates nothing and reports everything as duplicates.
func (r *Reconciler) Reconcile(ctx context.Context, userID, source, fileName string, rows []model.RawRow) (*model.ImportResult, error) {
	unlock := r.locks.Lock(userID)
	defer unlock()

	batch := &model.ImportBatch{
		ID:       uuid.New().String(),
		UserID:   userID,
		Source:   source,
		FileName: fileName,
		Status:   model.BatchStatusPending,
	}
	if err := r.store.CreateImportBatch(ctx, batch); err != nil {
		return nil, err
	}

	result := &model.ImportResult{BatchID: batch.ID}
	candidates := r.prepare(ctx, userID, batch.ID, rows, result)

	if err := r.persist(ctx, userID, candidates, result); err != nil {
		if ferr := r.store.FinalizeImportBatch(ctx, userID, batch.ID, model.BatchStatusError, 0, 0, result.Skipped); ferr != nil {
			r.log.Error("failed to mark import batch failed", "batch", batch.ID, "error", ferr)
		}
		return nil, err
	}

	sort.Slice(result.Rejected, func(i, j int) bool {
		return result.Rejected[i].Index < result.Rejected[j].Index
	})

	if err := r.store.FinalizeImportBatch(ctx, userID, batch.ID, model.BatchStatusProcessed,
		result.Created, result.Duplicates, result.Skipped); err != nil {
		return nil, fmt.Errorf("failed to finalize import batch: %w", err)
	}

	r.log.Info("batch reconciled",
		"user", userID,
		"batch", batch.ID,
		"source", source,
		"created", result.Created,
		"duplicates", result.Duplicates,
		"skipped", result.Skipped)
	return result, nil
}

// candidate is a parsed row that survived validation and in-batch
// deduplication, still tagged with its position in the input.
type candidate struct {
	txn   *model.Transaction
	index int
}

// prepare parses and validates every row, drops in-batch duplicates and asks
// the matcher for a category. Matching happens here, before the storage
// transaction opens, because the rule set cannot change while the user's
// lock is held.
func (r *Reconciler) prepare(ctx context.Context, userID, batchID string, rows []model.RawRow, result *model.ImportResult) []candidate {
	seen := make(map[string]struct{}, len(rows))
	candidates := make([]candidate, 0, len(rows))

	for i, row := range rows {
		txn, err := buildTransaction(userID, batchID, row)
		if err != nil {
			result.Skipped++
			result.Rejected = append(result.Rejected, model.RowError{Index: i, Reason: err.Error()})
			continue
		}

		if _, dup := seen[txn.Fingerprint]; dup {
			result.Duplicates++
			result.Rejected = append(result.Rejected, model.RowError{Index: i, Reason: "duplicate of an earlier row in this batch"})
			continue
		}
		seen[txn.Fingerprint] = struct{}{}

		// Automatic assignment stays unconfirmed; only a person confirms.
		// A matcher failure degrades to an uncategorized import.
		if rule, ok, err := r.matcher.Match(ctx, userID, txn.Description); err != nil {
			r.log.Warn("rule matching failed, importing uncategorized",
				"user", userID, "row", i, "error", err)
		} else if ok {
			categoryID := rule.CategoryID
			txn.CategoryID = &categoryID
		}

		candidates = append(candidates, candidate{txn: txn, index: i})
	}
	return candidates
}

// persist inserts the candidates inside one storage transaction, checking
// each fingerprint against history. Counts reach the result only after a
// successful commit.
func (r *Reconciler) persist(ctx context.Context, userID string, candidates []candidate, result *model.ImportResult) error {
	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	created := 0
	var duplicates []model.RowError
	for _, c := range candidates {
		exists, err := tx.FingerprintExists(ctx, userID, c.txn.Fingerprint)
		if err != nil {
			return fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if exists {
			duplicates = append(duplicates, model.RowError{Index: c.index, Reason: "already imported"})
			continue
		}

		if err := tx.InsertTransaction(ctx, c.txn); err != nil {
			if errors.Is(err, common.ErrDuplicate) {
				duplicates = append(duplicates, model.RowError{Index: c.index, Reason: "already imported"})
				continue
			}
			return fmt.Errorf("failed to insert row %d: %w", c.index, err)
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import batch: %w", err)
	}

	result.Created = created
	result.Duplicates += len(duplicates)
	result.Rejected = append(result.Rejected, duplicates...)
	return nil
}

// buildTransaction validates one raw row and shapes it into a transaction.
// The returned error text becomes the row's rejection reason.
func buildTransaction(userID, batchID string, row model.RawRow) (*model.Transaction, error) {
	date, err := parseDate(row.Date)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(row.Description)
	if description == "" {
		return nil, errors.New("missing description")
	}

	normalized := rules.Normalize(description)
	return &model.Transaction{
		ID:             uuid.New().String(),
		UserID:         userID,
		Date:           date,
		Description:    description,
		NormalizedDesc: normalized,
		Amount:         amount,
		Direction:      model.DirectionForAmount(amount),
		Account:        strings.TrimSpace(row.Account),
		Fingerprint:    model.ComputeFingerprint(date, amount, normalized),
		ImportBatchID:  batchID,
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing date")
	}
	for _, layout := range dateFormats {
		if date, err := time.Parse(layout, raw); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// parseAmount reads a signed decimal amount, tolerating currency symbols
// and thousands separators in either the 1,234.56 or 1.234,56 convention.
func parseAmount(raw string) (float64, error) {
	cleaned := amountJunk.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, errors.New("missing amount")
	}

	dot := strings.LastIndex(cleaned, ".")
	comma := strings.LastIndex(cleaned, ",")
	if comma > dot {
		fraction := cleaned[comma+1:]
		switch {
		case strings.Contains(cleaned[:comma], ","):
			// Several commas can only be grouping.
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		case dot == -1 && len(fraction) == 3:
			// A lone comma before exactly three digits is grouping too.
			cleaned = cleaned[:comma] + fraction
		default:
			cleaned = strings.ReplaceAll(cleaned[:comma], ".", "") + "." + fraction
		}
	} else if dot > comma && comma >= 0 {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", raw)
	}
	if amount == 0 {
		return 0, errors.New("zero amount")
	}
	return amount, nil
}
