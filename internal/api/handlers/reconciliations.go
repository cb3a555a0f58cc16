package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ReconciliationsHandler reads committed reconciliations.
type ReconciliationsHandler struct {
	*Base
}

// NewReconciliationsHandler creates a reconciliations handler.
func NewReconciliationsHandler(base *Base) *ReconciliationsHandler {
	return &ReconciliationsHandler{Base: base}
}

// Get handles GET /api/reconciliations/{id}.
func (h *ReconciliationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetReconciliation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}
