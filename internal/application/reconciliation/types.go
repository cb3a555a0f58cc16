package reconciliation

import (
	"errors"
	"fmt"

	"github.com/eshaffer321/ledger-reconcile/internal/adapters/statement"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/session"
)

var (
	// ErrSessionNotFound means no session is open for the statement line
	ErrSessionNotFound = fmt.Errorf("reconciliation session: %w", ledger.ErrNotFound)

	// ErrMissingBankAccount rejects a request without a bank account
	ErrMissingBankAccount = errors.New("bank account is required")

	// ErrInvalidTransaction rejects a ledger transaction that cannot be stored
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// SessionView is an open session together with the ranked candidates it was
// opened with.
type SessionView struct {
	session.Summary
	Candidates []ledger.MatchCandidate `json:"candidates"`
}

// ImportReport describes one ImportStatement call.
type ImportReport struct {
	BankAccountID string              `json:"bank_account_id"`
	Format        statement.Format    `json:"format"`
	Parsed        int                 `json:"parsed"`
	Inserted      int                 `json:"inserted"`
	Skipped       int                 `json:"skipped"`
	LineIDs       []string            `json:"line_ids"`
	Warnings      []statement.Warning `json:"warnings"`
}
