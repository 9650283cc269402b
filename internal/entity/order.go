package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	for _, s := range Statuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid status: %q", raw)
}

// Valid reports whether the status is one of the enumerated values.
func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Order represents a sales order stored in the relational database.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           int64           `bun:",pk,autoincrement"`
	OrderNumber  string          `bun:"order_number"`
	CustomerName string          `bun:"customer_name"`
	ProductName  string          `bun:"product_name"`
	Quantity     int             `bun:"quantity"`
	Price        decimal.Decimal `bun:"price"`
	Total        decimal.Decimal `bun:"total"`
	Status       Status          `bun:"status"`
	OrderDate    time.Time       `bun:"order_date,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time       `bun:"updated_at,nullzero"`
	Notes        string          `bun:"notes"`
}
