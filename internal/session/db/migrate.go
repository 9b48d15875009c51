package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

// Bootstrap creates the two session tables if they do not exist yet. The
// production path runs the SQL migrations instead; this covers dev setups and
// tests running against in-memory SQLite.
func Bootstrap(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*models.Table)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	if _, err := db.NewCreateTable().Model((*models.Order)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	return nil
}
