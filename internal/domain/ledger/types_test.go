package ledger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_Signed(t *testing.T) {
	amount := decimal.RequireFromString("100.00")

	expense := Transaction{Type: TypeExpense, Amount: amount}
	income := Transaction{Type: TypeIncome, Amount: amount}

	assert.True(t, expense.Signed().Equal(decimal.RequireFromString("-100")))
	assert.True(t, income.Signed().Equal(amount))
}

func TestTransaction_EffectiveDate(t *testing.T) {
	launch := time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)
	date := time.Date(2025, 10, 5, 14, 0, 0, 0, time.UTC)

	t.Run("uses date when set", func(t *testing.T) {
		tx := Transaction{Date: date, LaunchDate: launch}
		assert.Equal(t, time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC), tx.EffectiveDate())
	})

	t.Run("falls back to launch date", func(t *testing.T) {
		tx := Transaction{LaunchDate: launch}
		assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), tx.EffectiveDate())
	})
}

func TestTransactionType(t *testing.T) {
	assert.True(t, TypeIncome.Matchable())
	assert.True(t, TypeExpense.Matchable())
	assert.False(t, TypeTransfer.Matchable())
	assert.True(t, TypeTransfer.IsValid())
	assert.False(t, TransactionType("refund").IsValid())
}

func TestResidualError(t *testing.T) {
	err := fmt.Errorf("resolve line-1: %w", &ResidualError{Residual: decimal.RequireFromString("-45")})

	assert.True(t, errors.Is(err, ErrUnbalancedReconciliation))

	var residualErr *ResidualError
	assert.True(t, errors.As(err, &residualErr))
	assert.Equal(t, "-45.00", residualErr.Residual.StringFixed(2))
	assert.Contains(t, err.Error(), "residual -45.00")
}

func TestReconciliationResult_LinkedTotal(t *testing.T) {
	result := &ReconciliationResult{
		Links: []Link{
			{AmountAllocated: decimal.RequireFromString("-100")},
			{AmountAllocated: decimal.RequireFromString("-45")},
		},
	}

	assert.True(t, result.LinkedTotal().Equal(decimal.RequireFromString("-145")))
}
