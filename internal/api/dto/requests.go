package dto

import "github.com/shopspring/decimal"

// SelectionRequest names one candidate transaction.
type SelectionRequest struct {
	TransactionID string `json:"transaction_id"`
}

// AdjustmentRequest replaces a session's adjustment. Missing values are zero.
// Amounts may be sent as JSON numbers or strings.
type AdjustmentRequest struct {
	Interest decimal.Decimal `json:"interest"`
	Penalty  decimal.Decimal `json:"penalty"`
	Discount decimal.Decimal `json:"discount"`
}

// ResolveRequest closes a session.
// Decision is "none" (default), "create_transaction" or "accept_unbalanced".
type ResolveRequest struct {
	Decision    string `json:"decision"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
}

// TransactionRequest records a ledger transaction. Dates are YYYY-MM-DD.
type TransactionRequest struct {
	ID          string          `json:"id,omitempty"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date,omitempty"`
	LaunchDate  string          `json:"launch_date,omitempty"`
	DueDate     string          `json:"due_date,omitempty"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id,omitempty"`
	Status      string          `json:"status,omitempty"`
}
