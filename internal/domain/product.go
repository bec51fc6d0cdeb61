package domain

import (
	"time"
)

// Product statuses. The status is never accepted from a client; it is derived
// from the stock quantity on every write.
const (
	StatusInStock    = "In Stock"
	StatusOutOfStock = "Out of Stock"
)

// StatusForStock derives the display status from a stock quantity.
func StatusForStock(stock int) string {
	if stock > 0 {
		return StatusInStock
	}
	return StatusOutOfStock
}

// Product represents a catalog entry
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Unit        string    `json:"unit" db:"unit"`
	Category    string    `json:"category" db:"category"`
	Brand       string    `json:"brand" db:"brand"`
	Stock       int       `json:"stock" db:"stock"`
	Status      string    `json:"status" db:"status"`
	Image       string    `json:"image" db:"image"`
	Price       float64   `json:"price" db:"price"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// StockChangeRecord is one entry of a product's audit trail. Records are
// append-only; they are removed only when the owning product is deleted.
type StockChangeRecord struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	OldStock  int       `json:"old_stock" db:"old_stock"`
	NewStock  int       `json:"new_stock" db:"new_stock"`
	ChangedBy string    `json:"changed_by" db:"changed_by"`
	ChangedAt time.Time `json:"timestamp" db:"changed_at"`
}
