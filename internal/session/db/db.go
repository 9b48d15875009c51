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

// ErrOrderNotFound is returned by CloseOrder when the order id does not exist.
var ErrOrderNotFound = errors.New("order not found")

type DB struct {
	Bun *bun.DB
}

// OpenOrGetOrder runs the table/order session transition as one serializable
// transaction: reuse the table's open order if it is still unfinished,
// otherwise create a fresh order and repoint the table at it. A stale pointer
// (order missing or already finished) is repaired in the same transaction.
//
// The bool result reports whether a new order was created.
func (d *DB) OpenOrGetOrder(ctx context.Context, tableID, source string) (*models.Order, bool, error) {
	var result models.Order
	created := false

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		created = false

		var table models.Table
		err := tx.NewSelect().
			Model(&table).
			Where("table_id = ?", tableID).
			Limit(1).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if err == nil && table.OpenOrderID != "" {
			var open models.Order
			err := tx.NewSelect().
				Model(&open).
				Where("order_id = ?", table.OpenOrderID).
				Limit(1).
				Scan(ctx)
			if err == nil && !open.Finished {
				// Idempotent re-entry: the common case for repeated
				// scans of the same table.
				result = open
				return nil
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			// Stale pointer: the referenced order is gone or already
			// finished. Fall through and open a fresh one.
		}

		order := models.Order{
			OrderID:   uuid.NewString(),
			TableID:   tableID,
			Finished:  false,
			Source:    source,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := tx.NewInsert().Model(&order).Exec(ctx); err != nil {
			return err
		}

		// Merge-style upsert: only the pointer moves, label/active on an
		// existing table row are left untouched.
		_, err = tx.NewInsert().
			Model(&models.Table{TableID: tableID, Active: true, OpenOrderID: order.OrderID}).
			On("CONFLICT (table_id) DO UPDATE").
			Set("open_order_id = EXCLUDED.open_order_id").
			Exec(ctx)
		if err != nil {
			return err
		}

		result = order
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

// CloseOrder marks the order finished and releases the table pointer, all in
// one transaction. Closing an already-finished order is a no-op. The table
// pointer is only cleared when it still references this order, so a newer
// session opened after a stale-reference repair is never clobbered.
//
// The bool result reports whether this call performed the transition.
func (d *DB) CloseOrder(ctx context.Context, tableID, orderID string) (*models.Order, bool, error) {
	var result models.Order
	closed := false

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		closed = false

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
			result = order
			return nil
		}

		now := time.Now().UTC()
		_, err = tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("finished = ?", true).
			Set("closed_at = ?", now).
			Where("order_id = ?", orderID).
			Exec(ctx)
		if err != nil {
			return err
		}
		order.Finished = true
		order.ClosedAt = now

		var table models.Table
		err = tx.NewSelect().
			Model(&table).
			Where("table_id = ?", tableID).
			Limit(1).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err == nil && table.OpenOrderID == orderID {
			_, err = tx.NewUpdate().
				Model((*models.Table)(nil)).
				Set("open_order_id = NULL").
				Where("table_id = ?", tableID).
				Exec(ctx)
			if err != nil {
				return err
			}
		}

		result = order
		closed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, closed, nil
}

// GetOrderByID fetches one order by its id.
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetTableByID fetches one table record.
func (d *DB) GetTableByID(ctx context.Context, tableID string) (*models.Table, error) {
	var table models.Table
	err := d.Bun.NewSelect().
		Model(&table).
		Where("table_id = ?", tableID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &table, nil
}
