package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eshaffer321/ledger-reconcile/internal/adapters/statement"
	"github.com/eshaffer321/ledger-reconcile/internal/api/dto"
	"github.com/eshaffer321/ledger-reconcile/internal/application/reconciliation"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/settlement"
)

// Base provides shared functionality for all handlers.
type Base struct {
	svc    *reconciliation.Service
	logger *slog.Logger
}

// NewBase creates a new base handler around the reconciliation service.
func NewBase(svc *reconciliation.Service, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{svc: svc, logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// validationErrors are caller mistakes reported as 422
var validationErrors = []error{
	ledger.ErrTransactionNotInPool,
	ledger.ErrBankAccountMismatch,
	ledger.ErrTransferNotMatchable,
	ledger.ErrTransactionReconciled,
	ledger.ErrConstraintViolation,
	settlement.ErrUnknownDecision,
	reconciliation.ErrInvalidTransaction,
	reconciliation.ErrMissingBankAccount,
	statement.ErrUnsupportedFormat,
	statement.ErrNoTransactions,
	statement.ErrHeaderNotFound,
}

// WriteServiceError maps an error from the reconciliation service onto a
// status code and error body.
func (b *Base) WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var residualErr *ledger.ResidualError
	switch {
	case errors.As(err, &residualErr):
		b.WriteError(w, http.StatusUnprocessableEntity,
			dto.UnbalancedError(err.Error(), money.Format(residualErr.Residual)))
	case errors.Is(err, ledger.ErrInvalidAdjustment):
		b.WriteError(w, http.StatusUnprocessableEntity, dto.NewAPIError(dto.ErrCodeInvalidAdjustment, err.Error()))
	case errors.Is(err, ledger.ErrNoGapToFill):
		b.WriteError(w, http.StatusUnprocessableEntity, dto.NewAPIError(dto.ErrCodeNoGapToFill, err.Error()))
	case isValidation(err):
		b.WriteError(w, http.StatusUnprocessableEntity, dto.ValidationError(err.Error()))
	case errors.Is(err, ledger.ErrAlreadyReconciled):
		b.WriteError(w, http.StatusConflict, dto.NewAPIError(dto.ErrCodeAlreadyReconciled, err.Error()))
	case errors.Is(err, ledger.ErrConcurrentModification):
		b.WriteError(w, http.StatusConflict, dto.NewAPIError(dto.ErrCodeConflict, err.Error()))
	case errors.Is(err, ledger.ErrNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NewAPIError(dto.ErrCodeNotFound, err.Error()))
	case errors.Is(err, ledger.ErrStoreUnavailable):
		b.logger.Error("store unavailable", "path", r.URL.Path, "error", err)
		b.WriteError(w, http.StatusServiceUnavailable, dto.NewAPIError(dto.ErrCodeStoreUnavailable, "reconciliation store unavailable"))
	default:
		b.logger.Error("request failed", "path", r.URL.Path, "error", err)
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func (b *Base) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}
