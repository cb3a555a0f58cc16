// Package money provides exact signed amount arithmetic and calendar-day
// helpers shared by the reconciliation engine.
//
// Amounts are decimal.Decimal values; nothing in this package converts to
// float64. Two amounts are considered equal when they differ by less than
// one cent:
//
//	money.IsZero(a.Sub(b)) // |a-b| < 0.01
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the largest difference still treated as zero (one cent).
var Tolerance = decimal.RequireFromString("0.01")

// Hundred is used for percentage arithmetic.
var Hundred = decimal.NewFromInt(100)

// IsZero reports whether |d| is below Tolerance.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThan(Tolerance)
}

// Sum adds all amounts exactly.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders an amount with two decimal places, e.g. "-45.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseAmount parses amounts as they appear in bank exports.
//
// Accepted shapes include "1234.56", "-1,234.56", "1.234,56", "R$ 10,00",
// "+12" and "(12.34)" (parenthesised negatives). The separator that occurs
// last is taken as the decimal separator when both are present. "1.234" and
// "1,234" both read as one thousand two hundred thirty-four.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-':
			negative = !negative
		case r == '+', r == ' ', r == '\u00a0':
		default:
			// currency symbols and codes ("R$", "USD", "€") are dropped
			if r > 127 || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '$' {
				continue
			}
			return decimal.Zero, fmt.Errorf("invalid character %q in amount %q", r, raw)
		}
	}

	cleaned := normalizeSeparators(b.String())
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no digits in amount %q", raw)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites a digits-and-separators string so that "."
// is the only (optional) decimal separator. A lone separator followed by
// exactly three digits is a thousands group ("1.234", "1,234") unless the
// integer part is zero ("0.125").
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")

	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && !thousandsGroup(s, lastComma) {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")

	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || thousandsGroup(s, lastDot) {
			return strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

// thousandsGroup reports whether the separator at i splits a non-zero
// integer part of up to three digits from exactly three digits.
func thousandsGroup(s string, i int) bool {
	head, tail := s[:i], s[i+1:]
	if len(tail) != 3 || len(head) == 0 || len(head) > 3 {
		return false
	}
	return strings.TrimLeft(head, "0") != ""
}
