package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/session"
)

// Table ids are 1-4 digit numbers; anything else never reaches the manager.
var tableIDPattern = regexp.MustCompile(`^[0-9]{1,4}$`)

type Handler struct {
	Sessions *session.Manager
}

// OpenSession handles POST /api/v1/tables/{tableID}/session. Anonymous
// customers and logged-in staff both land here; the source tag on the order
// records which one opened it. 201 when a new order was opened, 200 when the
// existing one is reused.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableID")
	if !tableIDPattern.MatchString(tableID) {
		http.Error(w, "table id must be 1-4 digits", http.StatusBadRequest)
		return
	}

	order, created, err := h.Sessions.OpenOrGetOrder(r.Context(), tableID, auth.IsStaff(r.Context()))
	if err != nil {
		http.Error(w, "could not open session: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if created {
		w.WriteHeader(http.StatusCreated)
	}
	json.NewEncoder(w).Encode(order)
}

// CloseSession handles DELETE /api/v1/tables/{tableID}/session/{orderID}.
// Staff only (enforced by the route middleware). Idempotent.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableID")
	orderID := chi.URLParam(r, "orderID")
	if !tableIDPattern.MatchString(tableID) {
		http.Error(w, "table id must be 1-4 digits", http.StatusBadRequest)
		return
	}

	err := h.Sessions.CloseOrder(r.Context(), tableID, orderID)
	if errors.Is(err, session.ErrOrderNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not close order: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
