package tables

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
)

var tableIDPattern = regexp.MustCompile(`^[0-9]{1,4}$`)

// Handler serves the admin table screens: the floor grid, table CRUD and the
// printable QR per table.
type Handler struct {
	DB *DB
	QR *QRGenerator
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.DB.ListTables(r.Context())
	if err != nil {
		http.Error(w, "could not list tables: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tables)
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableID")

	table, err := h.DB.GetTable(r.Context(), tableID)
	if errors.Is(err, ErrTableNotFound) {
		http.Error(w, "table not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not fetch table: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(table)
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableID string `json:"table_id"`
		Label   string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !tableIDPattern.MatchString(req.TableID) {
		http.Error(w, "table id must be 1-4 digits", http.StatusBadRequest)
		return
	}

	table, err := h.DB.CreateTable(r.Context(), req.TableID, req.Label)
	if err != nil {
		http.Error(w, "could not create table: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(table)
}

func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableID")

	var req struct {
		Label  *string `json:"label"`
		Active *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	table, err := h.DB.UpdateTable(r.Context(), tableID, req.Label, req.Active)
	if errors.Is(err, ErrTableNotFound) {
		http.Error(w, "table not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not update table: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(table)
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableID")

	err := h.DB.DeleteTable(r.Context(), tableID)
	if errors.Is(err, ErrTableNotFound) {
		http.Error(w, "table not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, ErrTableHasOpenOrder) {
		http.Error(w, "table has an open order", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "could not delete table: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTableQR returns the printable PNG for one table.
func (h *Handler) GetTableQR(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableID")

	if _, err := h.DB.GetTable(r.Context(), tableID); err != nil {
		if errors.Is(err, ErrTableNotFound) {
			http.Error(w, "table not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch table: "+err.Error(), http.StatusInternalServerError)
		return
	}

	png, err := h.QR.GenerateTableQR(tableID)
	if err != nil {
		http.Error(w, "could not generate QR code: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
