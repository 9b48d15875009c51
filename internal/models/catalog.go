package models

import (
	"github.com/uptrace/bun"
)

// Catalog documents are plain last-write-wins records maintained by the admin
// screens; no transactional requirements apply to them.

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	CategoryID string `bun:"category_id,pk" json:"category_id"`
	Name       string `bun:"name,notnull" json:"name"`
}

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ProductID  string  `bun:"product_id,pk" json:"product_id"`
	CategoryID string  `bun:"category_id,notnull" json:"category_id"`
	Name       string  `bun:"name,notnull" json:"name"`
	UnitPrice  float64 `bun:"unit_price,notnull" json:"unit_price"`
	Available  bool    `bun:"available,notnull,default:true" json:"available"`
}

type ProductRequest struct {
	CategoryID string  `json:"category_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Available  *bool   `json:"available"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}
