// Package metrics holds the Prometheus collectors for the reconciliation
// workflow. Collectors register with the default registry on init and are
// served by promhttp.Handler.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
)

const namespace = "reconcile"

// ─── Matching ───────────────────────────────────────────────────────────────

// CandidatesRanked counts candidates surfaced to the operator.
var CandidatesRanked = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "matcher",
	Name:      "candidates_ranked_total",
	Help:      "Total candidates that cleared the score threshold.",
})

// RankingsEmpty counts rankings that surfaced nothing.
var RankingsEmpty = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "matcher",
	Name:      "rankings_empty_total",
	Help:      "Total rankings with no candidate at or above the threshold.",
})

// CandidateScore is the distribution of surfaced candidate scores.
var CandidateScore = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "matcher",
	Name:      "candidate_score",
	Help:      "Score of candidates returned by the ranker.",
	Buckets:   []float64{90, 92, 94, 96, 98, 100},
})

// ─── Settlement ─────────────────────────────────────────────────────────────

// Resolutions counts Resolve calls by decision and outcome.
var Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "settlement",
	Name:      "resolutions_total",
	Help:      "Total resolve attempts by decision and outcome.",
}, []string{"decision", "outcome"})

// GapFillTransactions counts gap-fill transactions created.
var GapFillTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "settlement",
	Name:      "gap_fill_transactions_total",
	Help:      "Total gap-fill transactions created, by type.",
}, []string{"type"})

// CommitDuration is the time spent in CommitReconciliation.
var CommitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "store",
	Name:      "commit_duration_seconds",
	Help:      "Duration of reconciliation commits.",
	Buckets:   prometheus.DefBuckets,
})

// ─── Ingestion ──────────────────────────────────────────────────────────────

// StatementLinesImported counts imported lines by result.
var StatementLinesImported = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "import",
	Name:      "statement_lines_total",
	Help:      "Total statement lines seen by import, by result (inserted, skipped).",
}, []string{"result"})

// ImportWarnings counts degraded fields during import.
var ImportWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "import",
	Name:      "warnings_total",
	Help:      "Total fields replaced with defaults during import, by field.",
}, []string{"field"})

// OpenSessions is the number of sessions currently held by the service.
var OpenSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "session",
	Name:      "open",
	Help:      "Reconciliation sessions currently open.",
})

// Outcome labels for Resolutions
const (
	OutcomeCommitted  = "committed"
	OutcomeUnbalanced = "unbalanced"
	OutcomeNoGap      = "no_gap_to_fill"
	OutcomeConflict   = "conflict"
	OutcomeReconciled = "already_reconciled"
	OutcomeStoreError = "store_unavailable"
	OutcomeError      = "error"
)

// ObserveRanking records one ranker call.
func ObserveRanking(scores []int) {
	if len(scores) == 0 {
		RankingsEmpty.Inc()
		return
	}
	CandidatesRanked.Add(float64(len(scores)))
	for _, s := range scores {
		CandidateScore.Observe(float64(s))
	}
}

// ObserveResolution records one Resolve outcome.
func ObserveResolution(decision string, err error) {
	Resolutions.WithLabelValues(decision, Outcome(err)).Inc()
}

// ObserveCommit records commit latency since start.
func ObserveCommit(start time.Time) {
	CommitDuration.Observe(time.Since(start).Seconds())
}

// Outcome maps a Resolve error onto a Resolutions outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeCommitted
	case errors.Is(err, ledger.ErrUnbalancedReconciliation):
		return OutcomeUnbalanced
	case errors.Is(err, ledger.ErrNoGapToFill):
		return OutcomeNoGap
	case errors.Is(err, ledger.ErrAlreadyReconciled):
		return OutcomeReconciled
	case errors.Is(err, ledger.ErrConcurrentModification):
		return OutcomeConflict
	case errors.Is(err, ledger.ErrStoreUnavailable):
		return OutcomeStoreError
	default:
		return OutcomeError
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
