// Package rules owns category rules: deriving them from user
// categorizations and matching them against transaction descriptions.
package rules

import (
	"regexp"
	"strings"
)

var (
	cardMaskPattern  = regexp.MustCompile(`(?i)TARJ\.\s*\d{4}X+\d{4}`)
	bareMaskPattern  = regexp.MustCompile(`\b\d{4}X+\d{4}\b`)
	referencePattern = regexp.MustCompile(`(?i)\bREF[:\s]*\d+`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	keywordPattern   = regexp.MustCompile(`\b[A-Z]{3,}\b`)
)

// noiseWords are tokens that appear on statement rows without identifying
// the merchant: payment rails, card networks, currencies, legal suffixes.
// Rules are never learned from them.
var noiseWords = map[string]struct{}{
	"PAYMENT":    {},
	"PURCHASE":   {},
	"COMPRA":     {},
	"PAGO":       {},
	"ADEUDO":     {},
	"RECIBO":     {},
	"TARJ":       {},
	"CARD":       {},
	"POS":        {},
	"ATM":        {},
	"TRANSFER":   {},
	"VISA":       {},
	"MASTERCARD": {},
	"AMEX":       {},
	"DEBIT":      {},
	"DEBITO":     {},
	"CREDIT":     {},
	"CREDITO":    {},
	"WITHDRAWAL": {},
	"DEPOSIT":    {},
	"EUR":        {},
	"EUROS":      {},
	"USD":        {},
	"GBP":        {},
	"THE":        {},
	"AND":        {},
	"FOR":        {},
	"LLC":        {},
	"INC":        {},
	"LTD":        {},
	"CORP":       {},
	"SLU":        {},
	"WWW":        {},
	"COM":        {},
}

// Clean strips card-number masks and numeric reference tails from a
// statement description and collapses runs of whitespace. Case is preserved.
func Clean(text string) string {
	text = cardMaskPattern.ReplaceAllString(text, "")
	text = bareMaskPattern.ReplaceAllString(text, "")
	text = referencePattern.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Normalize returns the lower-cased cleaned description. Rule matching and
// fingerprinting both work on this form, so they are insensitive to case and
// incidental reference noise.
func Normalize(text string) string {
	return strings.ToLower(Clean(text))
}

// ExtractKeywords derives candidate rule keywords from a description:
// tokens of three or more letters, noise words removed, lower-cased,
// deduplicated preserving first appearance.
func ExtractKeywords(description string) []string {
	tokens := keywordPattern.FindAllString(strings.ToUpper(Clean(description)), -1)

	var keywords []string
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, noise := noiseWords[token]; noise {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, strings.ToLower(token))
	}
	return keywords
}
