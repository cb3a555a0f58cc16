package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-reconcile/internal/application/reconciliation"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

const ruleWidth = 72

// PrintImportReport prints the result of a statement import
func PrintImportReport(w io.Writer, file string, report *reconciliation.ImportReport) {
	fmt.Fprintf(w, "reconcile: import %s (%s) into %s\n", filepath.Base(file), report.Format, report.BankAccountID)
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	fmt.Fprintf(w, "Summary: Parsed=%d Inserted=%d Skipped=%d Warnings=%d\n",
		report.Parsed,
		report.Inserted,
		report.Skipped,
		len(report.Warnings))

	if len(report.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warning := range report.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}

// PrintStatementLines prints one row per line with a reconciled marker
func PrintStatementLines(w io.Writer, account string, month money.Month, lines []ledger.StatementLine, pendingOnly bool) {
	fmt.Fprintf(w, "reconcile: %s %s\n", account, month)
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))

	total := decimal.Zero
	shown, open := 0, 0
	for _, line := range lines {
		if !line.IsReconciled {
			open++
		} else if pendingOnly {
			continue
		}
		mark := " "
		if line.IsReconciled {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %s  %12s  %-36s  %s\n",
			mark,
			money.FormatDate(line.Date),
			money.Format(line.Amount),
			truncate(line.Description, 36),
			line.ID)
		total = total.Add(line.Amount)
		shown++
	}

	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	fmt.Fprintf(w, "Summary: Lines=%d Unreconciled=%d Net=%s\n", shown, open, money.Format(total))
}

// PrintCandidates prints ranked candidates best first
func PrintCandidates(w io.Writer, lineID string, candidates []ledger.MatchCandidate) {
	fmt.Fprintf(w, "reconcile: candidates for %s\n", lineID)
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No candidates scored high enough.")
		return
	}
	for _, c := range candidates {
		tx := c.Transaction
		fmt.Fprintf(w, "%3d  %s  %-7s %12s  %-30s  %s\n",
			c.Score,
			money.FormatDate(tx.EffectiveDate()),
			tx.Type,
			money.Format(tx.Amount),
			truncate(tx.Description, 30),
			tx.ID)
		if len(c.Reasons) > 0 {
			fmt.Fprintf(w, "     %s\n", strings.Join(c.Reasons, "; "))
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
