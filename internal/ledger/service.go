package ledger

import (
	"context"
	"errors"
	"fmt"

	"ms-ordering/internal/ledger/db"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

// Store sentinels re-exported for callers.
var (
	ErrOrderNotFound = db.ErrOrderNotFound
	ErrOrderFinished = db.ErrOrderFinished
	ErrLineNotFound  = db.ErrLineNotFound
)

// ErrEmptyBatch is returned for a cart with no items. The UI already refuses
// to submit an empty cart; this keeps a no-op batch out of the store anyway.
var ErrEmptyBatch = errors.New("empty line batch")

type DBLayer interface {
	AppendLines(ctx context.Context, orderID string, items []models.LineItem) ([]models.OrderLine, error)
	SetLineStatus(ctx context.Context, orderID, lineID string, status models.LineStatus) (*models.OrderLine, error)
	LinesByOrder(ctx context.Context, orderID string) ([]models.OrderLine, error)
	OpenOrders(ctx context.Context) ([]models.Order, error)
	GetOrderWithLines(ctx context.Context, orderID string) (*models.OrderWithLines, error)
}

type KafkaPublisher interface {
	PublishLinesAppended(orderID string, lines []models.OrderLine) error
	PublishLineStatusChanged(line models.OrderLine) error
}

type FeedEmitter interface {
	EmitLinesAppended(orderID string, lines []models.OrderLine)
	EmitLineStatusChanged(line models.OrderLine)
}

// Ledger is the append-only per-order line collection the kitchen works
// from. Lines are immutable after insert except for their status.
type Ledger struct {
	DB     DBLayer
	Kafka  KafkaPublisher
	Feed   FeedEmitter
	Logger *logger.Logger
}

func NewLedger(dbLayer DBLayer, kafka KafkaPublisher, feed FeedEmitter, log *logger.Logger) *Ledger {
	return &Ledger{DB: dbLayer, Kafka: kafka, Feed: feed, Logger: log}
}

// AppendLines lands a submitted cart as one all-or-nothing batch.
func (l *Ledger) AppendLines(ctx context.Context, orderID string, items []models.LineItem) ([]models.OrderLine, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return nil, fmt.Errorf("invalid line item (product %q, quantity %d)", item.ProductID, item.Quantity)
		}
	}

	lines, err := l.DB.AppendLines(ctx, orderID, items)
	if err != nil {
		return nil, fmt.Errorf("append lines to order %s: %w", orderID, err)
	}

	l.Logger.LogLedger("APPEND", orderID, fmt.Sprintf("%d line(s) added", len(lines)))
	if l.Kafka != nil {
		if err := l.Kafka.PublishLinesAppended(orderID, lines); err != nil {
			l.Logger.Error("KAFKA", fmt.Sprintf("publish lines appended: %v", err))
		}
	}
	if l.Feed != nil {
		l.Feed.EmitLinesAppended(orderID, lines)
	}
	return lines, nil
}

// SetLineStatus moves one line through the preparation state machine.
// Transitions are not forced forward-only: the kitchen sometimes backs a
// mis-tapped line out of "ready".
func (l *Ledger) SetLineStatus(ctx context.Context, orderID, lineID string, status models.LineStatus) (*models.OrderLine, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown line status %q", status)
	}

	line, err := l.DB.SetLineStatus(ctx, orderID, lineID, status)
	if err != nil {
		return nil, fmt.Errorf("set status of line %s: %w", lineID, err)
	}

	l.Logger.LogLedger("STATUS", orderID, fmt.Sprintf("line %s -> %s", lineID, status))
	if l.Kafka != nil {
		if err := l.Kafka.PublishLineStatusChanged(*line); err != nil {
			l.Logger.Error("KAFKA", fmt.Sprintf("publish line status: %v", err))
		}
	}
	if l.Feed != nil {
		l.Feed.EmitLineStatusChanged(*line)
	}
	return line, nil
}

// Lines returns an order's lines in added_at order.
func (l *Ledger) Lines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	return l.DB.LinesByOrder(ctx, orderID)
}

// OpenOrders returns the kitchen snapshot of every unfinished order.
func (l *Ledger) OpenOrders(ctx context.Context) ([]models.Order, error) {
	return l.DB.OpenOrders(ctx)
}

// OrderWithLines returns an order header plus lines for the detail screen.
func (l *Ledger) OrderWithLines(ctx context.Context, orderID string) (*models.OrderWithLines, error) {
	return l.DB.GetOrderWithLines(ctx, orderID)
}
