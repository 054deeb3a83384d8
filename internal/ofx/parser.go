// Package ofx parses OFX/QFX statement downloads into raw import rows.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/solari/internal/model"
)

// severityFix uppercases mixed-case SEVERITY values, which some banks emit
// even though OFX allows only INFO, WARN and ERROR.
var severityFix = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)

// bareTagFix closes SGML-style opening tags that are missing their bracket,
// a defect common in older QFX exports.
var bareTagFix = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)

// cardPrefixes is processor boilerplate that hides the merchant name.
var cardPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// Parser reads OFX and QFX statement files. Banks emit both the XML and the
// older SGML variant; the parser accepts either, including the common
// formatting defects preprocess repairs.
type Parser struct {
	log *slog.Logger
}

// NewParser creates an OFX parser.
func NewParser() *Parser {
	return &Parser{log: slog.Default().With("component", "ofx")}
}

// ParseFile reads one OFX/QFX document and returns its bank and credit-card
// transactions as raw rows in statement order. Amounts keep the OFX sign
// convention, negative meaning money out, which is also ours; dates are
// rendered as YYYY-MM-DD.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.RawRow, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var rows []model.RawRow
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			rows = append(rows, statementRows(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			rows = append(rows, statementRows(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))...)
		}
	}

	p.log.Info("parsed OFX file",
		"rows", len(rows),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)
	return rows, nil
}

// preprocess repairs formatting defects that break strict parsing.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityFix.ReplaceAllStringFunc(content, strings.ToUpper)
	return bareTagFix.ReplaceAllString(content, "$1>")
}

func statementRows(list *ofxgo.TransactionList, account string) []model.RawRow {
	if list == nil {
		return nil
	}
	rows := make([]model.RawRow, 0, len(list.Transactions))
	for _, txn := range list.Transactions {
		rows = append(rows, model.RawRow{
			Date:        txn.DtPosted.Time.Format("2006-01-02"),
			Description: describe(txn),
			Amount:      txn.TrnAmt.FloatString(2),
			Account:     account,
		})
	}
	return rows
}

// describe picks the most informative description available. PAYEE beats
// NAME, and MEMO beats a NAME as generic as "DEBIT".
func describe(txn ofxgo.Transaction) string {
	if txn.Payee != nil && txn.Payee.Name != "" {
		return strings.TrimSpace(string(txn.Payee.Name))
	}

	name := string(txn.Name)
	if txn.Memo != "" && isGeneric(name) {
		name = string(txn.Memo)
	}
	name = strings.TrimSpace(name)

	for _, prefix := range cardPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}

	// Some processors prepend the posting date as "MM/DD ".
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	return name
}

func isGeneric(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
