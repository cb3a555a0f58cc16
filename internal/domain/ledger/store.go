package ledger

import (
	"context"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

// CandidateSource supplies the data the engine scores against.
type CandidateSource interface {
	// FetchCandidatePool returns the transactions that may explain lines of
	// the given account and month. The engine does no date filtering of
	// its own.
	FetchCandidatePool(ctx context.Context, bankAccountID string, month money.Month) ([]Transaction, error)

	// FetchStatementLines returns the statement lines of an account dated
	// within month.
	FetchStatementLines(ctx context.Context, bankAccountID string, month money.Month) ([]StatementLine, error)
}

// Committer persists a reconciliation. CommitReconciliation must be all or
// nothing: links, transaction status changes, the statement line update and
// the optional new transaction either all land or none do. A lost race on
// the statement line or a transaction returns ErrConcurrentModification.
type Committer interface {
	CommitReconciliation(ctx context.Context, result *ReconciliationResult) error
}

// Store is the full contract the engine consumes.
type Store interface {
	CandidateSource
	Committer
}
