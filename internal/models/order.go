package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order sources. client_qr is an anonymous customer who scanned the table QR,
// staff_terminal is a logged-in server opening the table from the floor view.
const (
	SourceClientQR      = "client_qr"
	SourceStaffTerminal = "staff_terminal"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID   string    `bun:"order_id,pk" json:"order_id"`
	TableID   string    `bun:"table_id,notnull" json:"table_id"`
	Finished  bool      `bun:"finished,notnull,default:false" json:"finished"`
	Source    string    `bun:"source,notnull" json:"source"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	ClosedAt  time.Time `bun:"closed_at,nullzero" json:"closed_at,omitempty"`
}

type OrderResponse struct {
	OrderID   string    `json:"order_id"`
	TableID   string    `json:"table_id"`
	Finished  bool      `json:"finished"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderWithLines is what the kitchen view renders per open table: the order
// header plus its lines in added_at order.
type OrderWithLines struct {
	Order Order       `json:"order"`
	Lines []OrderLine `json:"lines"`
}
