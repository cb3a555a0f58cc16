// Package session holds the working state of one in-progress
// reconciliation: a statement line, the transactions the operator has
// selected to explain it, and any interest/penalty/discount adjustment.
//
// All totals are derived on demand from that state:
//
//	residual = statement.amount - (selectedTotal + adjustmentNet)
//
// A Session is owned by a single workflow and is not safe for concurrent use.
package session

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

// Session binds one statement line to a mutable selection.
type Session struct {
	statement  ledger.StatementLine
	pool       map[string]ledger.Transaction
	selected   []string
	selectedIn map[string]bool
	adjustment ledger.Adjustment
}

// New creates a session for statement. pool holds the transactions the
// operator may select from; usually the same pool the candidates were
// ranked from.
func New(statement ledger.StatementLine, pool []ledger.Transaction) *Session {
	s := &Session{
		statement:  statement,
		pool:       make(map[string]ledger.Transaction, len(pool)),
		selectedIn: make(map[string]bool),
		adjustment: ledger.Adjustment{
			Interest: decimal.Zero,
			Penalty:  decimal.Zero,
			Discount: decimal.Zero,
		},
	}
	for _, tx := range pool {
		s.pool[tx.ID] = tx
	}
	return s
}

// Rebase swaps in a fresh statement snapshot and pool while keeping the
// adjustment and every selected transaction still in pool. Selected ids
// that left the pool are dropped and returned in selection order.
func (s *Session) Rebase(statement ledger.StatementLine, pool []ledger.Transaction) []string {
	s.statement = statement
	s.pool = make(map[string]ledger.Transaction, len(pool))
	for _, tx := range pool {
		s.pool[tx.ID] = tx
	}

	var dropped []string
	kept := s.selected[:0]
	for _, id := range s.selected {
		if _, ok := s.pool[id]; ok {
			kept = append(kept, id)
			continue
		}
		delete(s.selectedIn, id)
		dropped = append(dropped, id)
	}
	s.selected = kept
	return dropped
}

// Statement returns the statement line snapshot.
func (s *Session) Statement() ledger.StatementLine {
	return s.statement
}

// Select adds txID to the selection. Selecting an already selected id is a
// no-op.
func (s *Session) Select(txID string) error {
	if s.selectedIn[txID] {
		return nil
	}

	tx, ok := s.pool[txID]
	if !ok {
		return fmt.Errorf("select %s: %w", txID, ledger.ErrTransactionNotInPool)
	}
	if tx.BankAccountID != s.statement.BankAccountID {
		return fmt.Errorf("select %s: %w", txID, ledger.ErrBankAccountMismatch)
	}
	if !tx.Type.Matchable() {
		return fmt.Errorf("select %s: %w", txID, ledger.ErrTransferNotMatchable)
	}
	if tx.IsReconciled {
		return fmt.Errorf("select %s: %w", txID, ledger.ErrTransactionReconciled)
	}

	s.selected = append(s.selected, txID)
	s.selectedIn[txID] = true
	return nil
}

// Deselect removes txID from the selection. Unknown ids are ignored.
func (s *Session) Deselect(txID string) {
	if !s.selectedIn[txID] {
		return
	}
	delete(s.selectedIn, txID)

	for i, id := range s.selected {
		if id == txID {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			break
		}
	}
}

// Toggle flips txID in or out of the selection.
func (s *Session) Toggle(txID string) error {
	if s.selectedIn[txID] {
		s.Deselect(txID)
		return nil
	}
	return s.Select(txID)
}

// IsSelected reports whether txID is currently selected.
func (s *Session) IsSelected(txID string) bool {
	return s.selectedIn[txID]
}

// SelectedIDs returns the selection in the order it was made.
func (s *Session) SelectedIDs() []string {
	ids := make([]string, len(s.selected))
	copy(ids, s.selected)
	return ids
}

// Selected returns the selected transactions in selection order.
func (s *Session) Selected() []ledger.Transaction {
	txs := make([]ledger.Transaction, 0, len(s.selected))
	for _, id := range s.selected {
		txs = append(txs, s.pool[id])
	}
	return txs
}

// SetAdjustment replaces the adjustment. Negative values are rejected and
// leave the previous adjustment in place.
func (s *Session) SetAdjustment(interest, penalty, discount decimal.Decimal) error {
	inputs := []struct {
		name  string
		value decimal.Decimal
	}{
		{"interest", interest},
		{"penalty", penalty},
		{"discount", discount},
	}
	for _, in := range inputs {
		if in.value.IsNegative() {
			return fmt.Errorf("%s %s: %w", in.name, in.value.String(), ledger.ErrInvalidAdjustment)
		}
	}

	s.adjustment = ledger.Adjustment{
		Interest: interest,
		Penalty:  penalty,
		Discount: discount,
	}
	return nil
}

// Adjustment returns the current adjustment.
func (s *Session) Adjustment() ledger.Adjustment {
	return s.adjustment
}

// SelectedTotal is the signed sum of the selected transactions.
func (s *Session) SelectedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, id := range s.selected {
		total = total.Add(s.pool[id].Signed())
	}
	return total
}

// AdjustmentNet folds the adjustment into a signed amount. Interest and
// penalty grow the movement being explained; discount shrinks it. On the
// outflow side that means interest and penalty are negative.
func (s *Session) AdjustmentNet() decimal.Decimal {
	charges := s.adjustment.Interest.Add(s.adjustment.Penalty)
	if s.statement.IsOutflow() {
		return charges.Neg().Add(s.adjustment.Discount)
	}
	return charges.Sub(s.adjustment.Discount)
}

// Residual is the part of the statement amount not yet explained.
func (s *Session) Residual() decimal.Decimal {
	return s.statement.Amount.Sub(s.SelectedTotal().Add(s.AdjustmentNet()))
}

// IsBalanced reports whether |Residual()| is below one cent.
func (s *Session) IsBalanced() bool {
	return money.IsZero(s.Residual())
}

// MarkReconciled records a successful commit on the statement snapshot so
// the session cannot be resolved again.
func (s *Session) MarkReconciled(reconciliationID string) {
	s.statement.IsReconciled = true
	s.statement.ReconciliationID = reconciliationID
}

// Summary is a point-in-time view of the session.
type Summary struct {
	StatementLine ledger.StatementLine `json:"statement_line"`
	SelectedIDs   []string             `json:"selected_ids"`
	Adjustment    ledger.Adjustment    `json:"adjustment"`
	SelectedTotal decimal.Decimal      `json:"selected_total"`
	AdjustmentNet decimal.Decimal      `json:"adjustment_net"`
	Residual      decimal.Decimal      `json:"residual"`
	IsBalanced    bool                 `json:"is_balanced"`
	CalculatedAt  time.Time            `json:"calculated_at"`
}

// Summary computes every derived value once.
func (s *Session) Summary() Summary {
	return Summary{
		StatementLine: s.statement,
		SelectedIDs:   s.SelectedIDs(),
		Adjustment:    s.adjustment,
		SelectedTotal: s.SelectedTotal(),
		AdjustmentNet: s.AdjustmentNet(),
		Residual:      s.Residual(),
		IsBalanced:    s.IsBalanced(),
		CalculatedAt:  time.Now(),
	}
}
