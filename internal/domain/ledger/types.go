// Package ledger defines the records the reconciliation engine works with:
// imported bank statement lines, internal ledger transactions, and the
// links committed between them.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TypeIncome || t == TypeExpense || t == TypeTransfer
}

// Matchable reports whether transactions of this type take part in matching.
// Transfers never do.
func (t TransactionType) Matchable() bool {
	return t == TypeIncome || t == TypeExpense
}

// TransactionStatus is the lifecycle state of a ledger transaction.
type TransactionStatus string

const (
	StatusReconciled TransactionStatus = "reconciled"
	StatusPending    TransactionStatus = "pending"
	StatusScheduled  TransactionStatus = "scheduled"
	StatusOverdue    TransactionStatus = "overdue"
)

// StatementLine is one row imported from a bank statement.
type StatementLine struct {
	ID               string          `json:"id"`
	BankAccountID    string          `json:"bank_account_id"`
	Date             time.Time       `json:"date"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"` // negative = money left the account
	ExternalRef      string          `json:"external_ref,omitempty"`
	IsReconciled     bool            `json:"is_reconciled"`
	ReconciliationID string          `json:"reconciliation_id,omitempty"`
	ImportedAt       time.Time       `json:"imported_at"`
}

// IsOutflow reports whether the line is money leaving the account.
func (l StatementLine) IsOutflow() bool {
	return l.Amount.IsNegative()
}

// Transaction is an internal income, expense or transfer record.
// Amount is always an unsigned magnitude; the sign comes from Type.
type Transaction struct {
	ID            string            `json:"id"`
	BankAccountID string            `json:"bank_account_id"`
	Type          TransactionType   `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	Date          time.Time         `json:"date"`
	LaunchDate    time.Time         `json:"launch_date"`
	DueDate       time.Time         `json:"due_date"`
	PaymentDate   *time.Time        `json:"payment_date,omitempty"`
	Description   string            `json:"description"`
	CategoryID    string            `json:"category_id,omitempty"`
	Status        TransactionStatus `json:"status"`
	IsReconciled  bool              `json:"is_reconciled"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Signed returns the amount with its ledger sign: expenses are negative,
// everything else positive.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// EffectiveDate is the date used for matching: Date, falling back to
// LaunchDate when Date is unset.
func (t Transaction) EffectiveDate() time.Time {
	if t.Date.IsZero() {
		return money.Day(t.LaunchDate)
	}
	return money.Day(t.Date)
}

// MatchCandidate is a transaction scored against a statement line.
type MatchCandidate struct {
	Transaction Transaction `json:"transaction"`
	Score       int         `json:"score"`
	Reasons     []string    `json:"reasons"`
}

// Adjustment holds operator-supplied financial corrections. All values are
// unsigned magnitudes.
type Adjustment struct {
	Interest decimal.Decimal `json:"interest"`
	Penalty  decimal.Decimal `json:"penalty"`
	Discount decimal.Decimal `json:"discount"`
}

// IsZero reports whether no correction was supplied.
func (a Adjustment) IsZero() bool {
	return a.Interest.IsZero() && a.Penalty.IsZero() && a.Discount.IsZero()
}

// Link is the committed association between a statement line and one
// contributing ledger transaction.
type Link struct {
	ID               string          `json:"id"`
	ReconciliationID string          `json:"reconciliation_id"`
	StatementLineID  string          `json:"statement_line_id"`
	TransactionID    string          `json:"transaction_id"`
	AmountAllocated  decimal.Decimal `json:"amount_allocated"`
}

// ResultStatus describes how a reconciliation was closed.
type ResultStatus string

const (
	// ResultBalanced means the statement line is fully explained.
	ResultBalanced ResultStatus = "balanced"
	// ResultOpenDifference means the operator accepted a residual.
	ResultOpenDifference ResultStatus = "open_difference"
)

// ReconciliationResult is everything a commit writes: the statement line and
// transactions in their post-commit state, the links, and the optional
// gap-fill transaction.
type ReconciliationResult struct {
	ReconciliationID       string          `json:"reconciliation_id"`
	StatementLine          StatementLine   `json:"statement_line"`
	Links                  []Link          `json:"links"`
	CreatedTransaction     *Transaction    `json:"created_transaction,omitempty"`
	ReconciledTransactions []Transaction   `json:"reconciled_transactions"`
	Adjustment             Adjustment      `json:"adjustment"`
	AdjustmentNet          decimal.Decimal `json:"adjustment_net"`
	OpenDifference         decimal.Decimal `json:"open_difference"`
	Status                 ResultStatus    `json:"status"`
	ReconciledAt           time.Time       `json:"reconciled_at"`
}

// LinkedTotal is the signed sum of all link allocations.
func (r *ReconciliationResult) LinkedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Links {
		total = total.Add(l.AmountAllocated)
	}
	return total
}
