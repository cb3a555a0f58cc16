// Package settlement closes a reconciliation session: it checks that the
// statement line is explained, optionally creates a gap-fill transaction for
// the residual, and hands the whole result to the store in one commit.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/session"
)

// Resolver turns sessions into committed reconciliations.
type Resolver struct {
	committer ledger.Committer
	newID     func() string
	now       func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithIDGenerator replaces the uuid generator used for reconciliation, link
// and gap-fill transaction ids.
func WithIDGenerator(fn func() string) Option {
	return func(r *Resolver) {
		r.newID = fn
	}
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(r *Resolver) {
		r.now = fn
	}
}

// NewResolver creates a resolver that commits through committer.
func NewResolver(committer ledger.Committer, opts ...Option) *Resolver {
	r := &Resolver{
		committer: committer,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve validates s against decision, builds the reconciliation result
// and commits it. Nothing is written and s is left untouched when an error
// is returned.
//
// Errors:
//   - ledger.ErrAlreadyReconciled if the statement line was already linked
//   - *ledger.ResidualError (errors.Is ErrUnbalancedReconciliation) for None on an unbalanced session
//   - ledger.ErrNoGapToFill for CreateTransaction or AcceptUnbalanced on a balanced session
//   - whatever the committer returns, usually ErrConcurrentModification or ErrStoreUnavailable
func (r *Resolver) Resolve(ctx context.Context, s *session.Session, decision Decision) (*ledger.ReconciliationResult, error) {
	line := s.Statement()
	if line.IsReconciled {
		return nil, fmt.Errorf("statement line %s: %w", line.ID, ledger.ErrAlreadyReconciled)
	}

	residual := s.Residual()
	balanced := s.IsBalanced()

	switch decision.Kind {
	case DecisionNone:
		if !balanced {
			return nil, &ledger.ResidualError{Residual: residual}
		}
	case DecisionCreateTransaction, DecisionAcceptUnbalanced:
		if balanced {
			return nil, fmt.Errorf("%s: %w", decision.Kind, ledger.ErrNoGapToFill)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDecision, decision.Kind)
	}

	now := r.now()
	result := &ledger.ReconciliationResult{
		ReconciliationID: r.newID(),
		Adjustment:       s.Adjustment(),
		AdjustmentNet:    s.AdjustmentNet(),
		OpenDifference:   decimal.Zero,
		Status:           ledger.ResultBalanced,
		ReconciledAt:     now,
	}

	selected := s.Selected()
	result.Links = make([]ledger.Link, 0, len(selected)+1)
	result.ReconciledTransactions = make([]ledger.Transaction, 0, len(selected))
	for _, tx := range selected {
		result.Links = append(result.Links, r.link(result.ReconciliationID, line.ID, tx))

		tx.IsReconciled = true
		tx.Status = ledger.StatusReconciled
		result.ReconciledTransactions = append(result.ReconciledTransactions, tx)
	}

	switch decision.Kind {
	case DecisionCreateTransaction:
		gap := r.gapFill(line, residual, decision, now)
		result.CreatedTransaction = &gap
		result.Links = append(result.Links, r.link(result.ReconciliationID, line.ID, gap))
	case DecisionAcceptUnbalanced:
		result.Status = ledger.ResultOpenDifference
		result.OpenDifference = residual
	}

	line.IsReconciled = true
	line.ReconciliationID = result.ReconciliationID
	result.StatementLine = line

	if err := r.committer.CommitReconciliation(ctx, result); err != nil {
		return nil, fmt.Errorf("commit reconciliation for line %s: %w", line.ID, err)
	}

	s.MarkReconciled(result.ReconciliationID)
	return result, nil
}

func (r *Resolver) link(reconciliationID, lineID string, tx ledger.Transaction) ledger.Link {
	return ledger.Link{
		ID:               r.newID(),
		ReconciliationID: reconciliationID,
		StatementLineID:  lineID,
		TransactionID:    tx.ID,
		AmountAllocated:  tx.Signed(),
	}
}

// gapFill builds the transaction that absorbs residual. A positive residual
// is unexplained inflow and becomes income; a negative one becomes expense.
func (r *Resolver) gapFill(line ledger.StatementLine, residual decimal.Decimal, decision Decision, now time.Time) ledger.Transaction {
	txType := ledger.TypeExpense
	if residual.IsPositive() {
		txType = ledger.TypeIncome
	}

	description := decision.Description
	if description == "" {
		description = line.Description
	}

	date := money.Day(line.Date)
	paid := date
	return ledger.Transaction{
		ID:            r.newID(),
		BankAccountID: line.BankAccountID,
		Type:          txType,
		Amount:        residual.Abs(),
		Date:          date,
		LaunchDate:    date,
		DueDate:       date,
		PaymentDate:   &paid,
		Description:   description,
		CategoryID:    decision.CategoryID,
		Status:        ledger.StatusReconciled,
		IsReconciled:  true,
		CreatedAt:     now,
	}
}
