package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/solari/internal/model"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []model.RawRow
	}{
		{
			name: "english header",
			input: "Date,Description,Amount,Account\n" +
				"2026-08-01,MERCADONA COMPRA,-52.30,checking\n" +
				"2026-08-02,NOMINA ACME,1850.00,checking\n",
			want: []model.RawRow{
				{Date: "2026-08-01", Description: "MERCADONA COMPRA", Amount: "-52.30", Account: "checking"},
				{Date: "2026-08-02", Description: "NOMINA ACME", Amount: "1850.00", Account: "checking"},
			},
		},
		{
			name: "spanish header reordered",
			input: "CONCEPTO,IMPORTE,FECHA\n" +
				"UBER EATS 123,-23.40,15/08/2026\n",
			want: []model.RawRow{
				{Date: "15/08/2026", Description: "UBER EATS 123", Amount: "-23.40"},
			},
		},
		{
			name: "composite header names",
			input: "Transaction Date,Details,Importe (EUR)\n" +
				"2026-08-03,SPOTIFY,-9.99\n",
			want: []model.RawRow{
				{Date: "2026-08-03", Description: "SPOTIFY", Amount: "-9.99"},
			},
		},
		{
			name: "positional fallback without header",
			input: "2026-08-01,MERCADONA COMPRA,-52.30\n" +
				"2026-08-02,AMAZON,-19.99,visa\n",
			want: []model.RawRow{
				{Date: "2026-08-01", Description: "MERCADONA COMPRA", Amount: "-52.30"},
				{Date: "2026-08-02", Description: "AMAZON", Amount: "-19.99", Account: "visa"},
			},
		},
		{
			name: "short records dropped",
			input: "Date,Description,Amount\n" +
				"2026-08-01,MERCADONA,-52.30\n" +
				"TOTAL,100\n",
			want: []model.RawRow{
				{Date: "2026-08-01", Description: "MERCADONA", Amount: "-52.30"},
			},
		},
		{
			name:  "empty input",
			input: "",
			want:  []model.RawRow{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			if len(tt.want) == 0 {
				require.Empty(t, rows)
				return
			}
			require.Equal(t, tt.want, rows)
		})
	}
}

func TestParseCSV_QuotedFields(t *testing.T) {
	input := "Date,Description,Amount\n" +
		`2026-08-01,"PAYPAL, INC",-5.00` + "\n"

	rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "PAYPAL, INC", rows[0].Description)
}
