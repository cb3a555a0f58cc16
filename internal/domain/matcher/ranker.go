package matcher

import (
	"sort"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
)

// Rank scores every transaction in pool whose polarity matches statement
// (outflows against expenses, inflows against incomes), drops candidates
// below MinScore and returns the rest sorted by descending score. Ties keep
// pool order. An empty result is normal.
func Rank(statement ledger.StatementLine, pool []ledger.Transaction) []ledger.MatchCandidate {
	want := ledger.TypeIncome
	if statement.IsOutflow() {
		want = ledger.TypeExpense
	}

	candidates := make([]ledger.MatchCandidate, 0)
	for _, tx := range pool {
		if tx.Type != want {
			continue
		}

		score, reasons := Score(statement, tx)
		if score < MinScore {
			continue
		}

		candidates = append(candidates, ledger.MatchCandidate{
			Transaction: tx,
			Score:       score,
			Reasons:     reasons,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}
