// Package money converts between locale-formatted euro amounts and integer cents.
//
// Amounts use "." as thousands separator and "," as decimal separator
// ("1.258,70 €"). All arithmetic happens in cents; decimal is used only to
// round the parsed text without float drift.
package money

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AmountToCents parses text such as "1.258,70 €" into 125870.
// Empty or non-numeric input yields 0; callers decide whether zero is an error.
func AmountToCents(s string) int64 {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '€' || r == '.' {
			return -1
		}
		return r
	}, s)
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	if cleaned == "" {
		return 0
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	// Round is half away from zero.
	return d.Mul(hundred).Round(0).IntPart()
}

// CentsToDisplay renders cents as "1.258,70 €".
func CentsToDisplay(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	fixed := decimal.New(cents, -2).StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + groupThousands(intPart) + "," + frac + " €"
}

// ToEuros returns cents as a decimal euro value, for numeric spreadsheet cells.
func ToEuros(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
