// AngelaMos | 2026
// dto.go

package order

import (
	"time"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

type ItemInput struct {
	ProductID *core.FlexInt `json:"product_id"`
	Quantity  *core.FlexInt `json:"quantity"`
}

type CreateOrderRequest struct {
	Items []ItemInput `json:"items"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateItemRequest tracks key presence so a missing quantity and a null
// one report different errors.
type UpdateItemRequest struct {
	Quantity core.Optional[core.FlexInt] `json:"quantity"`
}

// ListParams holds raw query values. UserID and Status are validated by
// the service, and only for callers allowed to filter.
type ListParams struct {
	UserID string
	Status string
	Sort   string
	Dir    string
}

func (p *ListParams) Normalize() {
	p.Sort, p.Dir = core.NormalizeSort(
		p.Sort,
		p.Dir,
		sortColumns,
		"created_at",
		"desc",
	)
}

// Filter is the validated form of ListParams handed to the repository.
type Filter struct {
	UserID *int64
	Status *Status
	Sort   string
	Dir    string
}

type ItemResponse struct {
	ID              int64  `json:"id"`
	OrderID         int64  `json:"order_id"`
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
}

type OrderResponse struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"user_id"`
	Status     Status         `json:"status"`
	TotalPrice string         `json:"total_price"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Items      []ItemResponse `json:"items,omitempty"`
}

type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Count int             `json:"count"`
	Sort  string          `json:"sort"`
	Dir   string          `json:"dir"`
}

type ItemListResponse struct {
	Items   []ItemResponse `json:"items"`
	Count   int            `json:"count"`
	OrderID int64          `json:"orderId"`
}

type StatusResponse struct {
	ID     int64  `json:"id"`
	Status Status `json:"status"`
}

func ToItemResponse(item *Item) ItemResponse {
	return ItemResponse{
		ID:              item.ID,
		OrderID:         item.OrderID,
		ProductID:       item.ProductID,
		ProductName:     item.ProductName,
		Quantity:        item.Quantity,
		PriceAtPurchase: item.PriceAtPurchase.StringFixed(2),
	}
}

func ToItemResponseList(items []Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = ToItemResponse(&items[i])
	}
	return out
}

func ToOrderResponse(o *Order) OrderResponse {
	resp := OrderResponse{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice.StringFixed(2),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	if len(o.Items) > 0 {
		resp.Items = ToItemResponseList(o.Items)
	}
	return resp
}

func ToOrderResponseList(orders []Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}
