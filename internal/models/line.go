package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// LineStatus is the preparation state machine a kitchen/bar line moves through.
type LineStatus string

const (
	StatusPending   LineStatus = "pending"
	StatusPreparing LineStatus = "preparing"
	StatusReady     LineStatus = "ready"
	StatusServed    LineStatus = "served"
)

// Valid reports whether s is one of the four known statuses. Unknown values
// are rejected at the API boundary instead of being stored as free-form text.
func (s LineStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusServed:
		return true
	}
	return false
}

func ParseLineStatus(raw string) (LineStatus, error) {
	s := LineStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown line status %q", raw)
	}
	return s, nil
}

// OrderLine is one product line inside an order. Immutable after insert
// except for Status.
type OrderLine struct {
	bun.BaseModel `bun:"table:order_lines"`

	LineID    string     `bun:"line_id,pk" json:"line_id"`
	OrderID   string     `bun:"order_id,notnull" json:"order_id"`
	ProductID string     `bun:"product_id,notnull" json:"product_id"`
	Name      string     `bun:"name,notnull" json:"name"`
	UnitPrice float64    `bun:"unit_price,notnull" json:"unit_price"`
	Quantity  int        `bun:"quantity,notnull" json:"quantity"`
	Status    LineStatus `bun:"status,notnull,default:'pending'" json:"status"`
	AddedAt   time.Time  `bun:"added_at,notnull" json:"added_at"`
}

// LineItem is the cart entry submitted by a client; price and name come from
// the catalog at cart-build time.
type LineItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type AppendLinesRequest struct {
	Items []LineItem `json:"items"`
}

type SetLineStatusRequest struct {
	Status string `json:"status"`
}
