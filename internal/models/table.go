package models

import (
	"github.com/uptrace/bun"
)

// Table is a physical, numbered table in the venue. The document id is the
// table number itself ("1".."9999"), matching what the printed QR encodes.
type Table struct {
	bun.BaseModel `bun:"table:tables"`

	TableID     string `bun:"table_id,pk" json:"table_id"`
	Label       string `bun:"label,nullzero" json:"label,omitempty"`
	Active      bool   `bun:"active,notnull,default:true" json:"active"`
	OpenOrderID string `bun:"open_order_id,nullzero" json:"open_order_id,omitempty"`
}
