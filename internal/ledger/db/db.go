package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

var (
	// ErrOrderNotFound is returned when the target order id does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderFinished is returned when lines are appended to a closed order.
	ErrOrderFinished = errors.New("order already finished")
	// ErrLineNotFound is returned when the target line does not exist under
	// the given order.
	ErrLineNotFound = errors.New("order line not found")
)

type DB struct {
	Bun *bun.DB
}

// AppendLines writes a cart as one batch inside a transaction: either every
// line lands or none does, so the kitchen never sees a partial cart. The
// order's finished flag is re-checked inside the same transaction, closing
// the race between "order just closed" and "cart just submitted".
func (d *DB) AppendLines(ctx context.Context, orderID string, items []models.LineItem) ([]models.OrderLine, error) {
	var lines []models.OrderLine

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		var order models.Order
		err := tx.NewSelect().
			Model(&order).
			Where("order_id = ?", orderID).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if order.Finished {
			return ErrOrderFinished
		}

		now := time.Now().UTC()
		lines = make([]models.OrderLine, len(items))
		for i, item := range items {
			// Microsecond offsets keep added_at strictly increasing
			// inside a batch so the feed order is stable.
			lines[i] = models.OrderLine{
				LineID:    uuid.NewString(),
				OrderID:   orderID,
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
				Status:    models.StatusPending,
				AddedAt:   now.Add(time.Duration(i) * time.Microsecond),
			}
		}

		_, err = tx.NewInsert().Model(&lines).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// SetLineStatus updates the status field of a single line. Concurrent writers
// to the same line race last-write-wins, which is acceptable for a
// human-tapped button.
func (d *DB) SetLineStatus(ctx context.Context, orderID, lineID string, status models.LineStatus) (*models.OrderLine, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.OrderLine)(nil)).
		Set("status = ?", status).
		Where("line_id = ?", lineID).
		Where("order_id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrLineNotFound
	}

	var line models.OrderLine
	err = d.Bun.NewSelect().
		Model(&line).
		Where("line_id = ?", lineID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// LinesByOrder returns all lines of an order in stable FIFO order.
func (d *DB) LinesByOrder(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := d.Bun.NewSelect().
		Model(&lines).
		Where("order_id = ?", orderID).
		Order("added_at ASC", "line_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// OpenOrders returns every unfinished order, oldest first. This is the
// snapshot the kitchen view starts from.
func (d *DB) OpenOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("finished = ?", false).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrderWithLines returns the order header and its lines for the order
// detail screen.
func (d *DB) GetOrderWithLines(ctx context.Context, orderID string) (*models.OrderWithLines, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	lines, err := d.LinesByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []models.OrderLine{}
	}

	return &models.OrderWithLines{Order: order, Lines: lines}, nil
}
