package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/ledger"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/sse"
)

// SSEHandler serves the kitchen/bar live feeds: every open order, and the
// lines of one order. Each stream starts with a snapshot so a reconnecting
// board repaints without a separate fetch, then pushes mutations as they
// commit.
type SSEHandler struct {
	Logger  *logger.Logger
	Emitter *sse.OrderFeedEmitter
	Ledger  *ledger.Ledger
}

func NewSSEHandler(log *logger.Logger, emitter *sse.OrderFeedEmitter, led *ledger.Ledger) *SSEHandler {
	return &SSEHandler{Logger: log, Emitter: emitter, Ledger: led}
}

// StreamOpenOrders handles GET /api/v1/kitchen/orders/stream.
func (h *SSEHandler) StreamOpenOrders(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	h.setupSSEHeaders(w)

	// Cancelled when the client disconnects; the emitter drops the
	// subscription through this context.
	ctx := r.Context()
	eventChan := h.Emitter.SubscribeToOrders(ctx)

	orders, err := h.Ledger.OpenOrders(ctx)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("open orders snapshot failed: %v", err))
		http.Error(w, "could not load open orders", http.StatusInternalServerError)
		return
	}

	snapshot, err := json.Marshal(orders)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("failed to serialize snapshot: %v", err))
		return
	}
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
	flusher.Flush()

	h.Logger.Info("SSE", "Client connected to open-orders feed")

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", "Open-orders channel closed")
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to serialize order event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", "Client disconnected from open-orders feed")
			return
		}
	}
}

// StreamOrderLines handles GET /api/v1/kitchen/orders/{orderID}/lines/stream.
// One subscription per order: the consumer drops it when the order closes.
func (h *SSEHandler) StreamOrderLines(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "order id is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.Emitter.SubscribeToOrderLines(ctx, orderID)

	lines, err := h.Ledger.Lines(ctx, orderID)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("line snapshot for %s failed: %v", orderID, err))
		http.Error(w, "could not load order lines", http.StatusInternalServerError)
		return
	}

	snapshot, err := json.Marshal(lines)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("failed to serialize line snapshot: %v", err))
		return
	}
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to line feed for order: %s", orderID))

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Line channel closed for order: %s", orderID))
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to serialize line event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from line feed for: %s", orderID))
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
