// AngelaMos | 2026
// dto.go

package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

// CreateProductRequest accepts price as a JSON number or string and stock
// as an integer or numeric string.
type CreateProductRequest struct {
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Stock *core.FlexInt    `json:"stock"`
	Unit  *string          `json:"unit"`
}

type UpdateProductRequest struct {
	Name  *string          `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Stock *core.FlexInt    `json:"stock"`
	Unit  *string          `json:"unit"`
}

type ListParams struct {
	Search string
	Sort   string
	Dir    string
}

func (p *ListParams) Normalize() {
	p.Sort, p.Dir = core.NormalizeSort(p.Sort, p.Dir, sortColumns, "created_at", "desc")
}

type ProductResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	Unit      *string   `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductListResponse struct {
	Items  []ProductResponse `json:"items"`
	Count  int               `json:"count"`
	Search string            `json:"search"`
	Sort   string            `json:"sort"`
	Dir    string            `json:"dir"`
}

func ToProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(2),
		Stock:     p.Stock,
		Unit:      p.Unit,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func ToProductResponseList(products []Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i]))
	}
	return responses
}
