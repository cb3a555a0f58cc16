package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Session errors
	ErrInvalidAdjustment     = errors.New("adjustment values must not be negative")
	ErrTransactionNotInPool  = errors.New("transaction is not in the candidate pool")
	ErrBankAccountMismatch   = errors.New("transaction belongs to a different bank account")
	ErrTransferNotMatchable  = errors.New("transfers cannot be matched to a statement line")
	ErrTransactionReconciled = errors.New("transaction is already reconciled")

	// Settlement errors
	ErrUnbalancedReconciliation = errors.New("reconciliation is not balanced")
	ErrNoGapToFill              = errors.New("reconciliation is already balanced; nothing to fill")
	ErrAlreadyReconciled        = errors.New("statement line is already reconciled")

	// Store errors
	ErrConcurrentModification = errors.New("statement line or transaction was modified concurrently")
	ErrStoreUnavailable       = errors.New("reconciliation store unavailable")
	ErrNotFound               = errors.New("record not found")
	ErrConstraintViolation    = errors.New("record violates a store constraint")
)

// ResidualError reports an unbalanced commit attempt together with the
// residual the operator still has to explain.
type ResidualError struct {
	Residual decimal.Decimal
}

func (e *ResidualError) Error() string {
	return fmt.Sprintf("%s: residual %s", ErrUnbalancedReconciliation, e.Residual.StringFixed(2))
}

// Unwrap lets errors.Is match ErrUnbalancedReconciliation.
func (e *ResidualError) Unwrap() error {
	return ErrUnbalancedReconciliation
}
