package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/session/db"
)

// ErrOrderNotFound mirrors the store sentinel so callers can check it without
// importing the db package.
var ErrOrderNotFound = db.ErrOrderNotFound

type DBLayer interface {
	OpenOrGetOrder(ctx context.Context, tableID, source string) (*models.Order, bool, error)
	CloseOrder(ctx context.Context, tableID, orderID string) (*models.Order, bool, error)
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
}

type TableLock interface {
	LockTable(ctx context.Context, tableID, token string) (bool, error)
	UnlockTable(ctx context.Context, tableID, token string) error
}

type KafkaPublisher interface {
	PublishOrderOpened(order models.Order) error
	PublishOrderClosed(order models.Order) error
}

type FeedEmitter interface {
	EmitOrderOpened(order models.Order)
	EmitOrderClosed(order models.Order)
}

// Manager owns the "at most one open order per table" invariant. The store
// transaction enforces it; the advisory lock in front only reduces retries
// when a whole table scans the same QR at once.
type Manager struct {
	DB     DBLayer
	Lock   TableLock
	Kafka  KafkaPublisher
	Feed   FeedEmitter
	Logger *logger.Logger
}

func NewManager(dbLayer DBLayer, lock TableLock, kafka KafkaPublisher, feed FeedEmitter, log *logger.Logger) *Manager {
	return &Manager{DB: dbLayer, Lock: lock, Kafka: kafka, Feed: feed, Logger: log}
}

// OpenOrGetOrder returns the table's open order, creating one when none
// exists. Safe to retry unconditionally: re-running either reuses the
// just-created order or opens a fresh one.
func (m *Manager) OpenOrGetOrder(ctx context.Context, tableID string, staff bool) (*models.Order, bool, error) {
	source := models.SourceClientQR
	if staff {
		source = models.SourceStaffTerminal
	}

	token := uuid.NewString()
	if m.Lock != nil {
		// Best effort: a held or unreachable lock never blocks the
		// transition, the transaction below is the real guard.
		locked, err := m.Lock.LockTable(ctx, tableID, token)
		if err != nil {
			m.Logger.Warn("SESSION", fmt.Sprintf("table lock unavailable for %s: %v", tableID, err))
		} else if locked {
			defer func() {
				if err := m.Lock.UnlockTable(context.Background(), tableID, token); err != nil {
					m.Logger.Warn("SESSION", fmt.Sprintf("failed to release table lock %s: %v", tableID, err))
				}
			}()
		}
	}

	order, created, err := m.DB.OpenOrGetOrder(ctx, tableID, source)
	if err != nil {
		return nil, false, fmt.Errorf("open session for table %s: %w", tableID, err)
	}

	if created {
		m.Logger.LogSession("OPEN", tableID, fmt.Sprintf("opened order %s (%s)", order.OrderID, order.Source))
		if m.Kafka != nil {
			if err := m.Kafka.PublishOrderOpened(*order); err != nil {
				m.Logger.Error("KAFKA", fmt.Sprintf("publish order opened: %v", err))
			}
		}
		if m.Feed != nil {
			m.Feed.EmitOrderOpened(*order)
		}
	} else {
		m.Logger.LogSession("REUSE", tableID, fmt.Sprintf("returning open order %s", order.OrderID))
	}

	return order, created, nil
}

// CloseOrder finishes the order and frees the table. Idempotent: closing an
// already-finished order succeeds without side effects. Authorization (staff
// only) is the caller's precondition.
func (m *Manager) CloseOrder(ctx context.Context, tableID, orderID string) error {
	order, closed, err := m.DB.CloseOrder(ctx, tableID, orderID)
	if err != nil {
		return fmt.Errorf("close order %s: %w", orderID, err)
	}

	if !closed {
		m.Logger.LogSession("CLOSE", tableID, fmt.Sprintf("order %s already finished", orderID))
		return nil
	}

	m.Logger.LogSession("CLOSE", tableID, fmt.Sprintf("closed order %s", orderID))
	if m.Kafka != nil {
		if err := m.Kafka.PublishOrderClosed(*order); err != nil {
			m.Logger.Error("KAFKA", fmt.Sprintf("publish order closed: %v", err))
		}
	}
	if m.Feed != nil {
		m.Feed.EmitOrderClosed(*order)
	}
	return nil
}

// GetOrder fetches one order by id.
func (m *Manager) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return m.DB.GetOrderByID(ctx, orderID)
}
