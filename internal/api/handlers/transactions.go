package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/ledger-reconcile/internal/api/dto"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

// TransactionsHandler records ledger transactions.
type TransactionsHandler struct {
	*Base
}

// NewTransactionsHandler creates a transactions handler.
func NewTransactionsHandler(base *Base) *TransactionsHandler {
	return &TransactionsHandler{Base: base}
}

// Create handles POST /api/accounts/{accountID}/transactions.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	tx := &ledger.Transaction{
		ID:            req.ID,
		BankAccountID: chi.URLParam(r, "accountID"),
		Type:          ledger.TransactionType(req.Type),
		Amount:        req.Amount,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		Status:        ledger.TransactionStatus(req.Status),
	}

	for _, field := range []struct {
		name string
		raw  string
		dst  *time.Time
	}{
		{"date", req.Date, &tx.Date},
		{"launch_date", req.LaunchDate, &tx.LaunchDate},
		{"due_date", req.DueDate, &tx.DueDate},
	} {
		if field.raw == "" {
			continue
		}
		parsed, err := money.ParseDate(field.raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(field.name+" must be YYYY-MM-DD"))
			return
		}
		*field.dst = parsed
	}

	if err := h.svc.RecordTransaction(r.Context(), tx); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, tx)
}
