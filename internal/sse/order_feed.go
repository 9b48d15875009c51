package sse

import (
	"context"
	"sync"

	"ms-ordering/internal/models"
)

// Feed event types.
const (
	EventOrderOpened       = "order_opened"
	EventOrderClosed       = "order_closed"
	EventLinesAppended     = "lines_appended"
	EventLineStatusChanged = "line_status_changed"
)

// OrderEvent is pushed on the open-orders feed the kitchen board watches.
type OrderEvent struct {
	Type  string       `json:"type"`
	Order models.Order `json:"order"`
}

// LineEvent is pushed on a single order's line feed.
type LineEvent struct {
	Type    string             `json:"type"`
	OrderID string             `json:"order_id"`
	Lines   []models.OrderLine `json:"lines"`
}

// OrderFeedEmitter fans out order and line mutations to SSE subscribers.
// Every committed mutation reaches every active subscriber; subscriptions
// are cancelled through their context, one per order for line feeds so the
// consumer can tear down the feed of an order that just closed.
type OrderFeedEmitter struct {
	// Open-orders feed clients (kitchen board)
	orderClients     []chan OrderEvent
	orderClientMutex sync.RWMutex

	// Per-order line feed clients - key: orderID
	lineClients     map[string][]chan LineEvent
	lineClientMutex sync.RWMutex
}

func NewOrderFeedEmitter() *OrderFeedEmitter {
	return &OrderFeedEmitter{
		orderClients: []chan OrderEvent{},
		lineClients:  make(map[string][]chan LineEvent),
	}
}

// SubscribeToOrders adds a client to the open-orders feed.
func (e *OrderFeedEmitter) SubscribeToOrders(ctx context.Context) chan OrderEvent {
	clientChan := make(chan OrderEvent, 10)

	e.orderClientMutex.Lock()
	e.orderClients = append(e.orderClients, clientChan)
	e.orderClientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeOrderClient(clientChan)
	}()

	return clientChan
}

// SubscribeToOrderLines adds a client to one order's line feed.
func (e *OrderFeedEmitter) SubscribeToOrderLines(ctx context.Context, orderID string) chan LineEvent {
	clientChan := make(chan LineEvent, 10)

	e.lineClientMutex.Lock()
	if e.lineClients[orderID] == nil {
		e.lineClients[orderID] = []chan LineEvent{}
	}
	e.lineClients[orderID] = append(e.lineClients[orderID], clientChan)
	e.lineClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeLineClient(orderID, clientChan)
	}()

	return clientChan
}

func (e *OrderFeedEmitter) EmitOrderOpened(order models.Order) {
	e.broadcastOrder(OrderEvent{Type: EventOrderOpened, Order: order})
}

func (e *OrderFeedEmitter) EmitOrderClosed(order models.Order) {
	e.broadcastOrder(OrderEvent{Type: EventOrderClosed, Order: order})
}

func (e *OrderFeedEmitter) EmitLinesAppended(orderID string, lines []models.OrderLine) {
	e.broadcastLines(orderID, LineEvent{Type: EventLinesAppended, OrderID: orderID, Lines: lines})
}

func (e *OrderFeedEmitter) EmitLineStatusChanged(line models.OrderLine) {
	e.broadcastLines(line.OrderID, LineEvent{
		Type:    EventLineStatusChanged,
		OrderID: line.OrderID,
		Lines:   []models.OrderLine{line},
	})
}

func (e *OrderFeedEmitter) broadcastOrder(event OrderEvent) {
	e.orderClientMutex.RLock()
	clients := e.orderClients
	e.orderClientMutex.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send so a slow client cannot stall the emitter
		select {
		case clientChan <- event:
		default:
		}
	}
}

func (e *OrderFeedEmitter) broadcastLines(orderID string, event LineEvent) {
	e.lineClientMutex.RLock()
	clients := e.lineClients[orderID]
	e.lineClientMutex.RUnlock()

	for _, clientChan := range clients {
		select {
		case clientChan <- event:
		default:
		}
	}
}

func (e *OrderFeedEmitter) removeOrderClient(clientChan chan OrderEvent) {
	e.orderClientMutex.Lock()
	defer e.orderClientMutex.Unlock()

	for i, ch := range e.orderClients {
		if ch == clientChan {
			e.orderClients = append(e.orderClients[:i], e.orderClients[i+1:]...)
			close(clientChan)
			break
		}
	}
}

func (e *OrderFeedEmitter) removeLineClient(orderID string, clientChan chan LineEvent) {
	e.lineClientMutex.Lock()
	defer e.lineClientMutex.Unlock()

	clients := e.lineClients[orderID]
	for i, ch := range clients {
		if ch == clientChan {
			e.lineClients[orderID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.lineClients[orderID]) == 0 {
		delete(e.lineClients, orderID)
	}
}

// OrderClientCount returns the number of open-orders feed subscribers.
func (e *OrderFeedEmitter) OrderClientCount() int {
	e.orderClientMutex.RLock()
	defer e.orderClientMutex.RUnlock()
	return len(e.orderClients)
}

// LineClientCount returns the number of subscribers on one order's line feed.
func (e *OrderFeedEmitter) LineClientCount(orderID string) int {
	e.lineClientMutex.RLock()
	defer e.lineClientMutex.RUnlock()
	return len(e.lineClients[orderID])
}
