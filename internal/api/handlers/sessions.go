package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/ledger-reconcile/internal/api/dto"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/session"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/settlement"
)

// SessionsHandler handles candidate ranking and the per-line session.
// Every route is keyed by the statement line ID in {id}.
type SessionsHandler struct {
	*Base
}

// NewSessionsHandler creates a sessions handler.
func NewSessionsHandler(base *Base) *SessionsHandler {
	return &SessionsHandler{Base: base}
}

// Candidates handles GET /api/statement-lines/{id}/candidates.
func (h *SessionsHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "id")

	candidates, err := h.svc.Candidates(r.Context(), lineID)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.CandidateListResponse{
		StatementLineID: lineID,
		Candidates:      candidates,
		TotalCount:      len(candidates),
	})
}

// Open handles POST /api/statement-lines/{id}/session.
func (h *SessionsHandler) Open(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.OpenSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

// Get handles GET /api/statement-lines/{id}/session.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Session(r.Context(), chi.URLParam(r, "id"))
	h.writeSummary(w, r, summary, err)
}

// Discard handles DELETE /api/statement-lines/{id}/session.
func (h *SessionsHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DiscardSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Select handles POST /api/statement-lines/{id}/session/select.
func (h *SessionsHandler) Select(w http.ResponseWriter, r *http.Request) {
	h.selection(w, r, h.svc.Select)
}

// Deselect handles POST /api/statement-lines/{id}/session/deselect.
func (h *SessionsHandler) Deselect(w http.ResponseWriter, r *http.Request) {
	h.selection(w, r, h.svc.Deselect)
}

// Toggle handles POST /api/statement-lines/{id}/session/toggle.
func (h *SessionsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.selection(w, r, h.svc.Toggle)
}

func (h *SessionsHandler) selection(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, lineID, txID string) (*session.Summary, error)) {
	var req dto.SelectionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.TransactionID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transaction_id is required"))
		return
	}

	summary, err := op(r.Context(), chi.URLParam(r, "id"), req.TransactionID)
	h.writeSummary(w, r, summary, err)
}

// Adjust handles PUT /api/statement-lines/{id}/session/adjustment.
func (h *SessionsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustmentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	summary, err := h.svc.SetAdjustment(r.Context(), chi.URLParam(r, "id"), req.Interest, req.Penalty, req.Discount)
	h.writeSummary(w, r, summary, err)
}

// Resolve handles POST /api/statement-lines/{id}/session/resolve.
func (h *SessionsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	kind, err := settlement.ParseDecisionKind(req.Decision)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	decision := settlement.Decision{
		Kind:        kind,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}

	result, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "id"), decision)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *SessionsHandler) writeSummary(w http.ResponseWriter, r *http.Request, summary *session.Summary, err error) {
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}
