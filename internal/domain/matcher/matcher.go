// Package matcher scores ledger transactions as explanations for a bank
// statement line and ranks the plausible ones.
//
// Scoring starts at 100 and subtracts:
//   - 10 points per percent of amount mismatch (relative to the statement amount)
//   - 2 points per calendar day between the statement date and the transaction date
//
// then adds a 5 point bonus when both descriptions share a word longer than
// three letters, and clamps to [0, 100]. Only candidates scoring at least
// MinScore are returned by Rank.
//
// Example usage:
//
//	candidates := matcher.Rank(line, pool)
//	if len(candidates) == 0 {
//		// nothing plausible, offer to create a transaction instead
//	}
//
// Both functions are pure and safe for concurrent use.
package matcher

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

var (
	decMaxScore      = decimal.NewFromInt(maxScore)
	decAmountPenalty = decimal.NewFromInt(amountPenaltyPerPercent)
	decDatePenalty   = decimal.NewFromInt(datePenaltyPerDay)
	decNameBonus     = decimal.NewFromInt(nameBonus)
	decOnePercent    = decimal.NewFromInt(1)
)

// Score rates how well tx explains statement. The caller must not pass
// transfers.
func Score(statement ledger.StatementLine, tx ledger.Transaction) (int, []string) {
	reasons := make([]string, 0, 3)
	score := decMaxScore

	// Amount term
	amountDiff := statement.Amount.Sub(tx.Signed()).Abs()
	amountDiffPercent := money.Hundred // zero statement amount counts as a full mismatch
	if !statement.Amount.IsZero() {
		amountDiffPercent = amountDiff.Div(statement.Amount.Abs()).Mul(money.Hundred)
	}
	score = score.Sub(amountDiffPercent.Mul(decAmountPenalty))

	if amountDiff.LessThan(money.Tolerance) {
		reasons = append(reasons, ReasonExactAmount)
	} else if amountDiffPercent.LessThan(decOnePercent) {
		reasons = append(reasons, ReasonAmountWithin1)
	}

	// Date term
	daysDiff := money.DaysBetween(statement.Date, tx.EffectiveDate())
	score = score.Sub(decimal.NewFromInt(int64(daysDiff)).Mul(decDatePenalty))

	if daysDiff == 0 {
		reasons = append(reasons, ReasonSameDate)
	} else if daysDiff <= nearDateDays {
		reasons = append(reasons, fmt.Sprintf(reasonDaysOffPattern, daysDiff))
	}

	// Text bonus
	if sharesToken(statement.Description, tx.Description) {
		score = score.Add(decNameBonus)
		reasons = append(reasons, ReasonSimilarName)
	}

	return clamp(score), reasons
}

// clamp bounds the raw score to [0, maxScore] and rounds half away from zero.
func clamp(score decimal.Decimal) int {
	if score.IsNegative() {
		return 0
	}
	if score.GreaterThan(decMaxScore) {
		return maxScore
	}
	return int(score.Round(0).IntPart())
}

// sharesToken reports whether a and b have a common word of at least
// minTokenRunes letters.
func sharesToken(a, b string) bool {
	seen := make(map[string]bool)
	for _, tok := range tokenize(a) {
		if utf8.RuneCountInString(tok) >= minTokenRunes {
			seen[tok] = true
		}
	}
	if len(seen) == 0 {
		return false
	}

	for _, tok := range tokenize(b) {
		if seen[tok] {
			return true
		}
	}
	return false
}

// tokenize lower-cases s and splits it on whitespace, hyphens and underscores.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
}
