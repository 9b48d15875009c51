package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

// Bootstrap creates the order_lines table for dev/test setups; production
// uses the SQL migrations.
func Bootstrap(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.OrderLine)(nil)).IfNotExists().Exec(ctx)
	return err
}
