// AngelaMos | 2026
// entity.go

package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID         int64           `db:"id"`
	UserID     int64           `db:"user_id"`
	Status     Status          `db:"status"`
	TotalPrice decimal.Decimal `db:"total_price"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
	Items      []Item          `db:"-"`
}

// Item is one order line. PriceAtPurchase is the product price captured
// when the order was created and is never refreshed.
type Item struct {
	ID              int64           `db:"id"`
	OrderID         int64           `db:"order_id"`
	ProductID       int64           `db:"product_id"`
	ProductName     string          `db:"product_name"`
	Quantity        int             `db:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CalculateTotal sums every line with exact decimal arithmetic.
func CalculateTotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// RecalculateTotalFloat sums the lines in float64 and rounds the result
// to cents. Item quantity edits use this path; it can differ from
// CalculateTotal in the last cent for long orders.
func RecalculateTotalFloat(items []Item) decimal.Decimal {
	var total float64
	for _, item := range items {
		price, _ := item.PriceAtPurchase.Float64()
		total += price * float64(item.Quantity)
	}
	return decimal.NewFromFloat(total).Round(2)
}

var sortColumns = map[string]struct{}{
	"total_price": {},
	"created_at":  {},
}
