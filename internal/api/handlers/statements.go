package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/ledger-reconcile/internal/adapters/statement"
	"github.com/eshaffer321/ledger-reconcile/internal/api/dto"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

// StatementsHandler handles statement import and listing.
type StatementsHandler struct {
	*Base
	defaultFormat  statement.Format
	maxUploadBytes int64
}

// NewStatementsHandler creates a statements handler. Uploads larger than
// maxUploadBytes are rejected with 413.
func NewStatementsHandler(base *Base, defaultFormat statement.Format, maxUploadBytes int64) *StatementsHandler {
	return &StatementsHandler{
		Base:           base,
		defaultFormat:  defaultFormat,
		maxUploadBytes: maxUploadBytes,
	}
}

// List handles GET /api/accounts/{accountID}/statement-lines?month=YYYY-MM.
// The current month is used when month is omitted.
func (h *StatementsHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	month := money.MonthOf(time.Now())
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := money.ParseMonth(raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("month must be YYYY-MM"))
			return
		}
		month = parsed
	}

	lines, err := h.svc.ListStatementLines(r.Context(), accountID, month)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.NewStatementLineListResponse(accountID, month.String(), lines))
}

// Import handles POST /api/accounts/{accountID}/statements?format=ofx|xlsx.
// The request body is the raw statement file.
func (h *StatementsHandler) Import(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	format := h.defaultFormat
	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := statement.ParseFormat(raw)
		if err != nil {
			h.WriteServiceError(w, r, err)
			return
		}
		format = parsed
	}

	body := r.Body
	if h.maxUploadBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	report, err := h.svc.ImportStatement(r.Context(), accountID, format, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteError(w, http.StatusRequestEntityTooLarge,
				dto.NewAPIError(dto.ErrCodePayloadTooLarge, "statement file exceeds upload limit"))
			return
		}
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, report)
}
