// AngelaMos | 2026
// service.go

package order

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/product"
)

type ProductFinder interface {
	FindAll(ctx context.Context, ids []int64) (map[int64]*product.Product, error)
	Get(ctx context.Context, id int64) (*product.Product, error)
}

// Recorder receives order lifecycle events. *metrics.Metrics satisfies it.
type Recorder interface {
	OrderCreated()
	StockRejected()
	StatusChanged(from, to string)
}

type nopRecorder struct{}

func (nopRecorder) OrderCreated()                 {}
func (nopRecorder) StockRejected()                {}
func (nopRecorder) StatusChanged(from, to string) {}

type Service struct {
	repo     Repository
	products ProductFinder
	recorder Recorder
}

func NewService(repo Repository, products ProductFinder, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{repo: repo, products: products, recorder: recorder}
}

// Create validates every line, checks all products exist in one batch,
// checks stock line by line and persists the order with its items
// atomically. Stock is checked but not reserved.
func (s *Service) Create(
	ctx context.Context,
	identity core.Identity,
	req CreateOrderRequest,
) (*Order, error) {
	ctx, span := core.StartSpan(ctx, "order.create",
		attribute.Int64("user.id", identity.UserID),
		attribute.Int("order.lines", len(req.Items)),
	)
	defer span.End()

	if len(req.Items) == 0 {
		return nil, core.ValidationError("items must be a non-empty array")
	}

	ids := make([]int64, 0, len(req.Items))
	quantities := make([]int, 0, len(req.Items))
	for _, in := range req.Items {
		if in.ProductID == nil {
			return nil, core.ValidationError("product_id must be an integer")
		}
		if in.Quantity == nil {
			return nil, core.ValidationError("quantity must be an integer")
		}
		if in.Quantity.Int() <= 0 {
			return nil, core.ValidationError("quantity must be > 0")
		}
		if in.Quantity.ExceedsCount() {
			return nil, core.CountTooLargeError("quantity")
		}
		ids = append(ids, in.ProductID.Int64())
		quantities = append(quantities, in.Quantity.Int())
	}

	products, err := s.products.FindAll(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(ids))
	for i, id := range ids {
		p := products[id]
		if !p.HasStock(quantities[i]) {
			s.recorder.StockRejected()
			core.AddSpanEvent(ctx, "stock.rejected",
				attribute.Int64("product.id", p.ID),
			)
			return nil, core.InsufficientStockError(p.Name)
		}

		items = append(items, Item{
			ProductID:       p.ID,
			ProductName:     p.Name,
			Quantity:        quantities[i],
			PriceAtPurchase: p.Price,
		})
	}

	order := &Order{
		UserID:     identity.UserID,
		Status:     StatusPending,
		TotalPrice: CalculateTotal(items),
		Items:      items,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.ConflictError(
				err,
				"duplicate product in order items is not allowed",
			)
		}
		core.SetSpanError(ctx, err)
		return nil, err
	}

	s.recorder.OrderCreated()
	slog.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total_price", order.TotalPrice.StringFixed(2),
	)

	return order, nil
}

// List applies the caller's visibility. Role user always sees only its
// own orders and its userId and status filters are ignored.
func (s *Service) List(
	ctx context.Context,
	identity core.Identity,
	params ListParams,
) ([]Order, Filter, error) {
	params.Normalize()
	filter := Filter{Sort: params.Sort, Dir: params.Dir}

	if identity.IsUser() {
		uid := identity.UserID
		filter.UserID = &uid
	} else {
		if raw := strings.TrimSpace(params.UserID); raw != "" {
			uid, err := core.ParseID(raw)
			if err != nil {
				return nil, filter, core.ValidationError("userId must be an integer")
			}
			filter.UserID = &uid
		}
		if raw := strings.TrimSpace(params.Status); raw != "" {
			status, ok := ParseStatus(raw)
			if !ok {
				return nil, filter, invalidStatusError()
			}
			filter.Status = &status
		}
	}

	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, filter, err
	}

	return orders, filter, nil
}

func (s *Service) Get(
	ctx context.Context,
	identity core.Identity,
	id int64,
) (*Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.CanAccessOwnedBy(order.UserID) {
		return nil, core.ForbiddenError("forbidden")
	}

	return order, nil
}

// Cancel moves the caller's own PENDING order to CANCELLED.
func (s *Service) Cancel(
	ctx context.Context,
	identity core.Identity,
	id int64,
) (*Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.UserID != identity.UserID {
		return nil, core.ForbiddenError("forbidden")
	}

	if err := CheckUserCancel(order.Status); err != nil {
		return nil, err
	}

	return order, s.setStatus(ctx, order, StatusCancelled)
}

// AdminUpdateStatus sets any status on a non-final order. Requesting the
// current status succeeds without a write.
func (s *Service) AdminUpdateStatus(
	ctx context.Context,
	id int64,
	rawStatus string,
) (*Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := ParseStatus(rawStatus)
	if !ok {
		return nil, invalidStatusError()
	}

	if err := CheckAdminTransition(order.Status, next); err != nil {
		return nil, err
	}

	if next == order.Status {
		return order, nil
	}

	return order, s.setStatus(ctx, order, next)
}

func (s *Service) setStatus(ctx context.Context, order *Order, next Status) error {
	prev := order.Status

	ctx, span := core.StartSpan(ctx, "order.set_status",
		attribute.Int64("order.id", order.ID),
		attribute.String("order.status.from", prev.String()),
		attribute.String("order.status.to", next.String()),
	)
	defer span.End()

	if err := s.repo.UpdateStatus(ctx, order, next); err != nil {
		core.SetSpanError(ctx, err)
		return err
	}

	s.recorder.StatusChanged(prev.String(), next.String())
	slog.InfoContext(ctx, "order status changed",
		"order_id", order.ID,
		"from", prev,
		"to", next,
	)
	return nil
}

// ListItems returns the lines of one order. rawOrderID comes straight
// from the query string.
func (s *Service) ListItems(
	ctx context.Context,
	identity core.Identity,
	rawOrderID string,
) (int64, []Item, error) {
	rawOrderID = strings.TrimSpace(rawOrderID)
	if rawOrderID == "" {
		return 0, nil, core.ValidationError("orderId query param is required")
	}

	orderID, err := core.ParseID(rawOrderID)
	if err != nil {
		return 0, nil, core.ValidationError("orderId must be an integer")
	}

	order, err := s.Get(ctx, identity, orderID)
	if err != nil {
		return 0, nil, err
	}

	return orderID, order.Items, nil
}

// UpdateItem changes one line's quantity and rewrites the order total.
// Checks run in a fixed order: item, order, ownership, final status,
// quantity, stock.
func (s *Service) UpdateItem(
	ctx context.Context,
	identity core.Identity,
	itemID int64,
	req UpdateItemRequest,
) (*Item, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.GetByID(ctx, item.OrderID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("order")
	}
	if err != nil {
		return nil, err
	}

	if !identity.CanAccessOwnedBy(order.UserID) {
		return nil, core.ForbiddenError("forbidden")
	}

	if err := CheckItemsEditable(order.Status); err != nil {
		return nil, err
	}

	if !req.Quantity.Set {
		return nil, core.ValidationError("quantity is required")
	}
	if req.Quantity.Value == nil {
		return nil, core.ValidationError("quantity must be an integer")
	}
	quantity := req.Quantity.Value.Int()
	if quantity <= 0 {
		return nil, core.ValidationError("quantity must be > 0")
	}
	if req.Quantity.Value.ExceedsCount() {
		return nil, core.CountTooLargeError("quantity")
	}

	p, err := s.products.Get(ctx, item.ProductID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}
	if p != nil && !p.HasStock(quantity) {
		s.recorder.StockRejected()
		return nil, core.InsufficientStockError(p.Name)
	}

	ctx, span := core.StartSpan(ctx, "order.update_item",
		attribute.Int64("order.id", order.ID),
		attribute.Int64("order.item.id", item.ID),
		attribute.Int("order.item.quantity", quantity),
	)
	defer span.End()

	total, err := s.repo.UpdateItemQuantity(ctx, item, quantity, RecalculateTotalFloat)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	slog.InfoContext(ctx, "order item updated",
		"order_id", order.ID,
		"item_id", item.ID,
		"quantity", quantity,
		"total_price", total.StringFixed(2),
	)

	return item, nil
}

// StatusCounts reports the number of orders in each status.
func (s *Service) StatusCounts(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}
