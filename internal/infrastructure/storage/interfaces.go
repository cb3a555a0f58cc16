package storage

import (
	"context"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
)

// Repository defines the complete storage interface.
// It is the reconciliation store contract plus the supporting operations
// the ingestion and ledger collaborators need, so the SQLite implementation
// and the in-memory mock can be swapped freely.
type Repository interface {
	ledger.Store
	StatementLineRepository
	TransactionRepository
	ReconciliationRepository
	Close() error
}

// StatementLineRepository handles imported statement lines
type StatementLineRepository interface {
	// SaveStatementLines inserts lines, skipping any whose external ref was
	// already imported for the same bank account
	SaveStatementLines(ctx context.Context, lines []ledger.StatementLine) (*ImportResult, error)

	// GetStatementLine retrieves a line by ID, or ledger.ErrNotFound
	GetStatementLine(ctx context.Context, id string) (*ledger.StatementLine, error)
}

// TransactionRepository handles ledger transactions owned by the ledger collaborator
type TransactionRepository interface {
	// SaveTransaction inserts or replaces an unreconciled transaction
	SaveTransaction(ctx context.Context, tx *ledger.Transaction) error

	// GetTransaction retrieves a transaction by ID, or ledger.ErrNotFound
	GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error)
}

// ReconciliationRepository reads committed reconciliations back
type ReconciliationRepository interface {
	// GetReconciliation rebuilds a committed result, or ledger.ErrNotFound
	GetReconciliation(ctx context.Context, id string) (*ledger.ReconciliationResult, error)

	// ListLinks returns the links of a reconciliation in commit order
	ListLinks(ctx context.Context, reconciliationID string) ([]ledger.Link, error)
}

// ImportResult reports what SaveStatementLines did
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	LineIDs  []string `json:"line_ids"` // IDs of inserted lines, in input order
}
