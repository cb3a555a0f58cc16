package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-reconcile/internal/adapters/statement"
	"github.com/eshaffer321/ledger-reconcile/internal/api/dto"
	"github.com/eshaffer321/ledger-reconcile/internal/api/handlers"
	"github.com/eshaffer321/ledger-reconcile/internal/application/reconciliation"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/settlement"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/logging"
)

func TestBase_WriteServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid adjustment", fmt.Errorf("interest -1: %w", ledger.ErrInvalidAdjustment), http.StatusUnprocessableEntity, dto.ErrCodeInvalidAdjustment},
		{"no gap", fmt.Errorf("create_transaction: %w", ledger.ErrNoGapToFill), http.StatusUnprocessableEntity, dto.ErrCodeNoGapToFill},
		{"not in pool", ledger.ErrTransactionNotInPool, http.StatusUnprocessableEntity, dto.ErrCodeValidation},
		{"transfer", ledger.ErrTransferNotMatchable, http.StatusUnprocessableEntity, dto.ErrCodeValidation},
		{"unknown decision", settlement.ErrUnknownDecision, http.StatusUnprocessableEntity, dto.ErrCodeValidation},
		{"invalid transaction", fmt.Errorf("%w: bad", reconciliation.ErrInvalidTransaction), http.StatusUnprocessableEntity, dto.ErrCodeValidation},
		{"bad statement", fmt.Errorf("parse: %w", statement.ErrNoTransactions), http.StatusUnprocessableEntity, dto.ErrCodeValidation},
		{"constraint", fmt.Errorf("%w: CHECK constraint failed", ledger.ErrConstraintViolation), http.StatusUnprocessableEntity, dto.ErrCodeValidation},
		{"already reconciled", ledger.ErrAlreadyReconciled, http.StatusConflict, dto.ErrCodeAlreadyReconciled},
		{"concurrent", fmt.Errorf("commit: %w", ledger.ErrConcurrentModification), http.StatusConflict, dto.ErrCodeConflict},
		{"not found", fmt.Errorf("line x: %w", ledger.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"session not found", reconciliation.ErrSessionNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"store unavailable", fmt.Errorf("%w: locked", ledger.ErrStoreUnavailable), http.StatusServiceUnavailable, dto.ErrCodeStoreUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternalError},
	}

	base := handlers.NewBase(nil, logging.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			base.WriteServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body dto.APIError
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
			assert.Empty(t, body.Residual)
		})
	}
}

func TestBase_WriteServiceError_Unbalanced(t *testing.T) {
	base := handlers.NewBase(nil, logging.Discard())
	rec := httptest.NewRecorder()

	err := &ledger.ResidualError{Residual: decimal.RequireFromString("-45")}
	base.WriteServiceError(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body dto.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, dto.ErrCodeUnbalanced, body.Code)
	assert.Equal(t, "-45.00", body.Residual)
}

func TestBase_StoreErrorsDoNotLeakDetail(t *testing.T) {
	base := handlers.NewBase(nil, logging.Discard())
	rec := httptest.NewRecorder()

	base.WriteServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil),
		fmt.Errorf("%w: open /var/lib/reconcile.db: permission denied", ledger.ErrStoreUnavailable))

	assert.NotContains(t, rec.Body.String(), "/var/lib")
}
