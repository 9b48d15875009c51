package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// DB holds the menu catalog: plain last-write-wins documents with no
// ordering requirement, maintained from the admin screens.
type DB struct {
	Bun *bun.DB
}

// Bootstrap creates the catalog tables for dev/test setups.
func Bootstrap(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*models.Category)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	if _, err := db.NewCreateTable().Model((*models.Product)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	return nil
}

// ---------------- CATEGORIES ----------------

func (d *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := d.Bun.NewSelect().
		Model(&categories).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (d *DB) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	category := models.Category{CategoryID: uuid.NewString(), Name: name}
	if _, err := d.Bun.NewInsert().Model(&category).Exec(ctx); err != nil {
		return nil, err
	}
	return &category, nil
}

func (d *DB) UpdateCategory(ctx context.Context, id, name string) (*models.Category, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Category)(nil)).
		Set("name = ?", name).
		Where("category_id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrCategoryNotFound
	}
	return &models.Category{CategoryID: id, Name: name}, nil
}

func (d *DB) DeleteCategory(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Category)(nil)).
		Where("category_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// ---------------- PRODUCTS ----------------

func (d *DB) ListProducts(ctx context.Context, categoryID string) ([]models.Product, error) {
	var products []models.Product
	q := d.Bun.NewSelect().
		Model(&products).
		Order("name ASC")
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return products, nil
}

func (d *DB) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := d.Bun.NewSelect().
		Model(&product).
		Where("product_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (d *DB) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	product := models.Product{
		ProductID:  uuid.NewString(),
		CategoryID: req.CategoryID,
		Name:       req.Name,
		UnitPrice:  req.UnitPrice,
		Available:  true,
	}
	if req.Available != nil {
		product.Available = *req.Available
	}
	if _, err := d.Bun.NewInsert().Model(&product).Exec(ctx); err != nil {
		return nil, err
	}
	return &product, nil
}

func (d *DB) UpdateProduct(ctx context.Context, id string, req models.ProductRequest) (*models.Product, error) {
	if req.Name == "" && req.CategoryID == "" && req.UnitPrice <= 0 && req.Available == nil {
		return d.GetProduct(ctx, id)
	}

	q := d.Bun.NewUpdate().
		Model((*models.Product)(nil)).
		Where("product_id = ?", id)
	if req.Name != "" {
		q = q.Set("name = ?", req.Name)
	}
	if req.CategoryID != "" {
		q = q.Set("category_id = ?", req.CategoryID)
	}
	if req.UnitPrice > 0 {
		q = q.Set("unit_price = ?", req.UnitPrice)
	}
	if req.Available != nil {
		q = q.Set("available = ?", *req.Available)
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
		return nil, ErrProductNotFound
	}
	return d.GetProduct(ctx, id)
}

func (d *DB) DeleteProduct(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Product)(nil)).
		Where("product_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
