package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/ledger"
	"ms-ordering/internal/models"
)

type Handler struct {
	Ledger *ledger.Ledger
}

// AppendLines handles POST /api/v1/orders/{orderID}/lines: a submitted cart.
// All-or-nothing; an empty cart never leaves the client, but is rejected
// here too.
func (h *Handler) AppendLines(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req models.AppendLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "cart is empty", http.StatusBadRequest)
		return
	}

	lines, err := h.Ledger.AppendLines(r.Context(), orderID, req.Items)
	switch {
	case errors.Is(err, ledger.ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
		return
	case errors.Is(err, ledger.ErrOrderFinished):
		http.Error(w, "order already finished", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "could not append lines: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(lines)
}

// SetLineStatus handles PATCH /api/v1/orders/{orderID}/lines/{lineID}:
// a kitchen/bar button press moving one line through the state machine.
func (h *Handler) SetLineStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	lineID := chi.URLParam(r, "lineID")

	var req models.SetLineStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	status, err := models.ParseLineStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	line, err := h.Ledger.SetLineStatus(r.Context(), orderID, lineID, status)
	if errors.Is(err, ledger.ErrLineNotFound) {
		http.Error(w, "order line not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not update line status: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(line)
}

// GetOrder handles GET /api/v1/orders/{orderID}: the order header with its
// lines in added_at order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.Ledger.OrderWithLines(r.Context(), orderID)
	if errors.Is(err, ledger.ErrOrderNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not fetch order: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}
