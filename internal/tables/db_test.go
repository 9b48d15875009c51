package tables_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-ordering/internal/models"
	"ms-ordering/internal/tables"
)

func setupTestDB(t *testing.T) (*tables.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = bunDB.NewCreateTable().Model((*models.Table)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create tables table: %v", err)
	}

	return &tables.DB{Bun: bunDB}, bunDB
}

func TestCreateAndGetTable(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	table, err := store.CreateTable(ctx, "12", "Window booth")
	require.NoError(t, err)
	assert.Equal(t, "12", table.TableID)
	assert.Equal(t, "Window booth", table.Label)
	assert.True(t, table.Active)
	assert.Empty(t, table.OpenOrderID)

	got, err := store.GetTable(ctx, "12")
	require.NoError(t, err)
	assert.Equal(t, "Window booth", got.Label)

	_, err = store.GetTable(ctx, "99")
	assert.ErrorIs(t, err, tables.ErrTableNotFound)
}

func TestCreateTable_ReCreateKeepsSessionPointer(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	orderID := uuid.NewString()
	_, err := bunDB.NewInsert().Model(&models.Table{
		TableID:     "5",
		Label:       "Old label",
		Active:      true,
		OpenOrderID: orderID,
	}).Exec(ctx)
	require.NoError(t, err)

	table, err := store.CreateTable(ctx, "5", "New label")
	require.NoError(t, err)
	assert.Equal(t, "New label", table.Label)
	assert.Equal(t, orderID, table.OpenOrderID, "re-creating a table must not drop its live session")
}

func TestUpdateTable(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	_, err := store.CreateTable(ctx, "3", "Terrace")
	require.NoError(t, err)

	inactive := false
	table, err := store.UpdateTable(ctx, "3", nil, &inactive)
	require.NoError(t, err)
	assert.False(t, table.Active)
	assert.Equal(t, "Terrace", table.Label, "nil label must be left alone")

	newLabel := "Terrace left"
	table, err = store.UpdateTable(ctx, "3", &newLabel, nil)
	require.NoError(t, err)
	assert.Equal(t, "Terrace left", table.Label)
	assert.False(t, table.Active)

	_, err = store.UpdateTable(ctx, "99", &newLabel, nil)
	assert.ErrorIs(t, err, tables.ErrTableNotFound)
}

func TestDeleteTable(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	_, err := store.CreateTable(ctx, "4", "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteTable(ctx, "4"))
	_, err = store.GetTable(ctx, "4")
	assert.ErrorIs(t, err, tables.ErrTableNotFound)

	assert.ErrorIs(t, store.DeleteTable(ctx, "4"), tables.ErrTableNotFound)
}

func TestDeleteTable_RefusedWhileSessionOpen(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	_, err := bunDB.NewInsert().Model(&models.Table{
		TableID:     "6",
		Active:      true,
		OpenOrderID: uuid.NewString(),
	}).Exec(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteTable(ctx, "6"), tables.ErrTableHasOpenOrder)

	// Still there
	_, err = store.GetTable(ctx, "6")
	require.NoError(t, err)
}

func TestListTables_NumericOrder(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	for _, id := range []string{"10", "2", "1"} {
		_, err := store.CreateTable(ctx, id, "")
		require.NoError(t, err)
	}

	list, err := store.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "1", list[0].TableID)
	assert.Equal(t, "2", list[1].TableID)
	assert.Equal(t, "10", list[2].TableID)
}
