package dto

import (
	"time"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response with the current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// StatementLineListResponse is returned when listing an account's lines.
type StatementLineListResponse struct {
	BankAccountID string                 `json:"bank_account_id"`
	Month         string                 `json:"month"`
	Lines         []ledger.StatementLine `json:"lines"`
	TotalCount    int                    `json:"total_count"`
	Unreconciled  int                    `json:"unreconciled"`
}

// NewStatementLineListResponse counts the lines still open.
func NewStatementLineListResponse(bankAccountID, month string, lines []ledger.StatementLine) StatementLineListResponse {
	open := 0
	for _, l := range lines {
		if !l.IsReconciled {
			open++
		}
	}
	return StatementLineListResponse{
		BankAccountID: bankAccountID,
		Month:         month,
		Lines:         lines,
		TotalCount:    len(lines),
		Unreconciled:  open,
	}
}

// CandidateListResponse is returned for a line's ranked candidates.
type CandidateListResponse struct {
	StatementLineID string                  `json:"statement_line_id"`
	Candidates      []ledger.MatchCandidate `json:"candidates"`
	TotalCount      int                     `json:"total_count"`
}
