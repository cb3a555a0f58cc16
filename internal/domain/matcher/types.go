package matcher

// MinScore is the lowest score surfaced to the operator. The penalty
// coefficients below were tuned against this cutoff; change them together
// or not at all.
const MinScore = 90

const (
	maxScore = 100

	// 1% amount mismatch costs 10 points; 10% exhausts the budget
	amountPenaltyPerPercent = 10

	datePenaltyPerDay = 2
	nearDateDays      = 3

	// similar-name bonus for a shared token longer than minTokenRunes-1
	nameBonus     = 5
	minTokenRunes = 4
)

// Match signals, in the order Score emits them.
const (
	ReasonExactAmount    = "exact amount"
	ReasonAmountWithin1  = "amount within 1%"
	ReasonSameDate       = "same date"
	ReasonSimilarName    = "similar name"
	reasonDaysOffPattern = "%d days off"
)
