// AngelaMos | 2026
// entity.go

package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Stock     int             `db:"stock"`
	Unit      *string         `db:"unit"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// HasStock reports whether quantity units can be taken from the current
// stock level. Stock is never decremented by orders.
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

const (
	MaxNameLength = 180
	MaxUnitLength = 50
)

var sortColumns = map[string]struct{}{
	"name":       {},
	"price":      {},
	"stock":      {},
	"created_at": {},
}
