package tables

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

var (
	// ErrTableNotFound is returned when the table id does not exist.
	ErrTableNotFound = errors.New("table not found")
	// ErrTableHasOpenOrder refuses deletion of a table with a live session.
	ErrTableHasOpenOrder = errors.New("table has an open order")
)

// DB is the admin-side table store. The open_order_id pointer is never
// written here; only the session manager moves it.
type DB struct {
	Bun *bun.DB
}

func (d *DB) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := d.Bun.NewSelect().
		Model(&tables).
		OrderExpr("CAST(table_id AS INTEGER) ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (d *DB) GetTable(ctx context.Context, tableID string) (*models.Table, error) {
	var table models.Table
	err := d.Bun.NewSelect().
		Model(&table).
		Where("table_id = ?", tableID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// CreateTable registers a new physical table. The open_order_id starts
// clear; merge-style conflict handling keeps an existing session pointer if
// an admin re-creates a table that already exists.
func (d *DB) CreateTable(ctx context.Context, tableID, label string) (*models.Table, error) {
	table := models.Table{TableID: tableID, Label: label, Active: true}
	_, err := d.Bun.NewInsert().
		Model(&table).
		On("CONFLICT (table_id) DO UPDATE").
		Set("label = EXCLUDED.label").
		Set("active = EXCLUDED.active").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return d.GetTable(ctx, tableID)
}

// UpdateTable changes label and/or active flag; nil fields are left as-is.
func (d *DB) UpdateTable(ctx context.Context, tableID string, label *string, active *bool) (*models.Table, error) {
	if label == nil && active == nil {
		return d.GetTable(ctx, tableID)
	}

	q := d.Bun.NewUpdate().
		Model((*models.Table)(nil)).
		Where("table_id = ?", tableID)
	if label != nil {
		q = q.Set("label = ?", *label)
	}
	if active != nil {
		q = q.Set("active = ?", *active)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrTableNotFound
	}
	return d.GetTable(ctx, tableID)
}

// DeleteTable removes a table, refusing while a session is open on it.
func (d *DB) DeleteTable(ctx context.Context, tableID string) error {
	table, err := d.GetTable(ctx, tableID)
	if err != nil {
		return err
	}
	if table.OpenOrderID != "" {
		return ErrTableHasOpenOrder
	}

	_, err = d.Bun.NewDelete().
		Model((*models.Table)(nil)).
		Where("table_id = ?", tableID).
		Where("open_order_id IS NULL").
		Exec(ctx)
	return err
}
