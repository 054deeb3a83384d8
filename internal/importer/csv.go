package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/solari/internal/model"
)

// Column names seen in real bank exports, English and Spanish. Matching is
// by substring so "Transaction Date" and "F. VALOR" style headers work.
var (
	dateHeaders        = []string{"date", "fecha"}
	descriptionHeaders = []string{"description", "concepto", "concept", "details"}
	amountHeaders      = []string{"amount", "importe"}
	accountHeaders     = []string{"account", "cuenta"}
)

type columnLayout struct {
	date        int
	description int
	amount      int
	account     int
}

func positionalLayout() columnLayout {
	return columnLayout{date: 0, description: 1, amount: 2, account: 3}
}

// ParseCSV reads statement rows from r. The first record is treated as a
// header when it names recognized date and amount columns; otherwise fields
// are read positionally as date, description, amount and optional account.
// Records with fewer than three fields are dropped here; everything else is
// passed through as strings for the Reconciler to judge.
func ParseCSV(r io.Reader) ([]model.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	layout, hasHeader := detectHeader(records[0])
	if hasHeader {
		records = records[1:]
	}

	rows := make([]model.RawRow, 0, len(records))
	for _, record := range records {
		if len(record) < 3 {
			continue
		}
		rows = append(rows, model.RawRow{
			Date:        field(record, layout.date),
			Description: field(record, layout.description),
			Amount:      field(record, layout.amount),
			Account:     field(record, layout.account),
		})
	}
	return rows, nil
}

// detectHeader maps recognized column names to their positions. A header
// needs at least a date and an amount column; anything less falls back to
// the positional layout.
func detectHeader(record []string) (columnLayout, bool) {
	layout := columnLayout{date: -1, description: -1, amount: -1, account: -1}
	for i, cell := range record {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case layout.date == -1 && matchesHeader(name, dateHeaders):
			layout.date = i
		case layout.description == -1 && matchesHeader(name, descriptionHeaders):
			layout.description = i
		case layout.amount == -1 && matchesHeader(name, amountHeaders):
			layout.amount = i
		case layout.account == -1 && matchesHeader(name, accountHeaders):
			layout.account = i
		}
	}
	if layout.date >= 0 && layout.amount >= 0 {
		return layout, true
	}
	return positionalLayout(), false
}

func matchesHeader(name string, candidates []string) bool {
	for _, candidate := range candidates {
		if strings.Contains(name, candidate) {
			return true
		}
	}
	return false
}

func field(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}
