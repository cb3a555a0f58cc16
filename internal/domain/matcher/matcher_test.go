package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
)

var baseDate = time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)

// Helper to create a test statement line
func makeLine(amount string, date time.Time, description string) ledger.StatementLine {
	return ledger.StatementLine{
		ID:            "line-1",
		BankAccountID: "acc-1",
		Date:          date,
		Description:   description,
		Amount:        decimal.RequireFromString(amount),
	}
}

// Helper to create a test transaction
func makeTransaction(id string, txType ledger.TransactionType, amount string, date time.Time, description string) ledger.Transaction {
	return ledger.Transaction{
		ID:            id,
		BankAccountID: "acc-1",
		Type:          txType,
		Amount:        decimal.RequireFromString(amount),
		Date:          date,
		Description:   description,
		Status:        ledger.StatusPending,
	}
}

func TestScore_ExactMatchSameDaySimilarName(t *testing.T) {
	// Arrange
	line := makeLine("-100.00", baseDate, "PIX ENVIADO - Padaria Central")
	tx := makeTransaction("tx1", ledger.TypeExpense, "100.00", baseDate, "padaria central pão")

	// Act
	score, reasons := Score(line, tx)

	// Assert - 100 - 0 - 0 + 5, clamped
	assert.Equal(t, 100, score)
	assert.Equal(t, []string{ReasonExactAmount, ReasonSameDate, ReasonSimilarName}, reasons)
}

func TestScore_AmountMismatchBelowThreshold(t *testing.T) {
	// Arrange - 5/105 = 4.76% mismatch -> 47.6 point penalty
	line := makeLine("-105.00", baseDate, "Boleto Energia")
	tx := makeTransaction("tx1", ledger.TypeExpense, "100.00", baseDate, "energia outubro")

	// Act
	score, reasons := Score(line, tx)

	// Assert - 100 - 47.62 + 5 = 57.38
	assert.Equal(t, 57, score)
	assert.NotContains(t, reasons, ReasonExactAmount)
	assert.NotContains(t, reasons, ReasonAmountWithin1)
	assert.Contains(t, reasons, ReasonSameDate)
	assert.Contains(t, reasons, ReasonSimilarName)
}

func TestScore_AmountWithinOnePercent(t *testing.T) {
	line := makeLine("-100.00", baseDate, "x")
	tx := makeTransaction("tx1", ledger.TypeExpense, "100.50", baseDate, "y")

	score, reasons := Score(line, tx)

	// 0.5% -> 5 points
	assert.Equal(t, 95, score)
	assert.Equal(t, []string{ReasonAmountWithin1, ReasonSameDate}, reasons)
}

func TestScore_DatePenalty(t *testing.T) {
	tests := []struct {
		name       string
		days       int
		wantScore  int
		wantReason string
	}{
		{"one day", 1, 98, "1 days off"},
		{"three days", 3, 94, "3 days off"},
		{"four days has no date reason", 4, 92, ""},
		{"ten days", 10, 80, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := makeLine("250.00", baseDate, "TED RECEBIDA")
			tx := makeTransaction("tx1", ledger.TypeIncome, "250.00", baseDate.AddDate(0, 0, -tt.days), "cliente")

			score, reasons := Score(line, tx)

			assert.Equal(t, tt.wantScore, score)
			if tt.wantReason == "" {
				assert.Equal(t, []string{ReasonExactAmount}, reasons)
			} else {
				assert.Equal(t, []string{ReasonExactAmount, tt.wantReason}, reasons)
			}
		})
	}
}

func TestScore_UsesLaunchDateWhenDateMissing(t *testing.T) {
	line := makeLine("-80.00", baseDate, "x")
	tx := makeTransaction("tx1", ledger.TypeExpense, "80.00", time.Time{}, "y")
	tx.LaunchDate = baseDate.AddDate(0, 0, 2)

	score, reasons := Score(line, tx)

	assert.Equal(t, 96, score)
	assert.Contains(t, reasons, "2 days off")
}

func TestScore_ShortTokensDoNotCount(t *testing.T) {
	// "pix" and "ted" are only three letters
	line := makeLine("-10.00", baseDate, "PIX TED abc")
	tx := makeTransaction("tx1", ledger.TypeExpense, "10.00", baseDate, "pix ted abc")

	_, reasons := Score(line, tx)

	assert.NotContains(t, reasons, ReasonSimilarName)
}

func TestScore_TokenizesOnHyphenAndUnderscore(t *testing.T) {
	line := makeLine("-10.00", baseDate.AddDate(0, 0, 5), "pagamento-ALUGUEL_sala")
	tx := makeTransaction("tx1", ledger.TypeExpense, "10.00", baseDate, "Aluguel matriz")

	score, reasons := Score(line, tx)

	// 100 - 10 + 5
	assert.Equal(t, 95, score)
	assert.Contains(t, reasons, ReasonSimilarName)
}

func TestScore_ZeroAmountStatementIsFullMismatch(t *testing.T) {
	line := makeLine("0", baseDate, "tarifa")
	tx := makeTransaction("tx1", ledger.TypeIncome, "0", baseDate, "tarifa")

	score, _ := Score(line, tx)

	assert.Equal(t, 0, score)
}

func TestScore_Bounds(t *testing.T) {
	amounts := []string{"0", "0.01", "1", "99.99", "100", "100000"}
	offsets := []int{0, 1, 3, 30, 400}
	descriptions := []string{"", "mercado", "Mercado Livre"}

	for _, stmtAmount := range []string{"-100", "100", "0", "-0.01"} {
		for _, txAmount := range amounts {
			for _, offset := range offsets {
				for _, desc := range descriptions {
					line := makeLine(stmtAmount, baseDate, "mercado livre")
					tx := makeTransaction("tx", ledger.TypeExpense, txAmount, baseDate.AddDate(0, 0, offset), desc)

					score, _ := Score(line, tx)

					assert.GreaterOrEqual(t, score, 0)
					assert.LessOrEqual(t, score, 100)
				}
			}
		}
	}
}

func TestScore_MonotonicInAmountMismatch(t *testing.T) {
	line := makeLine("-1000.00", baseDate.AddDate(0, 0, 1), "fornecedor acme")

	previous := 101
	for _, amount := range []string{"1000", "1000.50", "1002", "1005", "1010", "1050", "1100", "1500", "3000"} {
		tx := makeTransaction("tx", ledger.TypeExpense, amount, baseDate, "acme ltda")

		score, _ := Score(line, tx)

		assert.LessOrEqual(t, score, previous, "amount %s increased the score", amount)
		previous = score
	}
}
