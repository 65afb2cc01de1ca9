// AngelaMos | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

// TotalFunc computes an order total from its full item list.
type TotalFunc func(items []Item) decimal.Decimal

type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, filter Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, order *Order, status Status) error

	ListItems(ctx context.Context, orderID int64) ([]Item, error)
	GetItem(ctx context.Context, id int64) (*Item, error)
	UpdateItemQuantity(
		ctx context.Context,
		item *Item,
		quantity int,
		total TotalFunc,
	) (decimal.Decimal, error)

	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, user_id, status, total_price, created_at, updated_at`

const itemSelect = `
	SELECT oi.id, oi.order_id, oi.product_id, p.name AS product_name,
	       oi.quantity, oi.price_at_purchase
	FROM order_items oi
	JOIN products p ON p.id = oi.product_id`

// Create writes the order row and all item rows in one transaction. A
// failure on any item leaves nothing behind.
func (r *repository) Create(ctx context.Context, order *Order) error {
	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO orders (user_id, status, total_price)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at`

		if err := tx.GetContext(ctx, order, query,
			order.UserID,
			order.Status,
			order.TotalPrice,
		); err != nil {
			return core.ClassifyError(err)
		}

		itemQuery := `
			INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
			VALUES ($1, $2, $3, $4)
			RETURNING id`

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID

			if err := tx.GetContext(ctx, &item.ID, itemQuery,
				item.OrderID,
				item.ProductID,
				item.Quantity,
				item.PriceAtPurchase,
			); err != nil {
				return core.ClassifyError(err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order Order
	err := r.db.GetContext(ctx, &order, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order by id: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Order, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	//nolint:gosec // G201: sort and dir come from an allow-list
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY %s %s, id %s`,
		orderColumns, where, filter.Sort, filter.Dir, filter.Dir,
	)

	var orders []Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return orders, nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	order *Order,
	status Status,
) error {
	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &order.UpdatedAt, query, order.ID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update order status: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	order.Status = status
	return nil
}

func (r *repository) ListItems(ctx context.Context, orderID int64) ([]Item, error) {
	query := itemSelect + ` WHERE oi.order_id = $1 ORDER BY oi.id ASC`

	var items []Item
	if err := r.db.SelectContext(ctx, &items, query, orderID); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	return items, nil
}

func (r *repository) GetItem(ctx context.Context, id int64) (*Item, error) {
	query := itemSelect + ` WHERE oi.id = $1`

	var item Item
	err := r.db.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order item: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order item: %w", err)
	}

	return &item, nil
}

// UpdateItemQuantity sets the line quantity and rewrites the parent order
// total from every line, both inside one transaction.
func (r *repository) UpdateItemQuantity(
	ctx context.Context,
	item *Item,
	quantity int,
	total TotalFunc,
) (decimal.Decimal, error) {
	var newTotal decimal.Decimal

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE order_items SET quantity = $2 WHERE id = $1`,
			item.ID, quantity,
		)
		if err != nil {
			return core.ClassifyError(err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return core.ErrNotFound
		}

		var items []Item
		if err := tx.SelectContext(ctx, &items,
			itemSelect+` WHERE oi.order_id = $1 ORDER BY oi.id ASC`,
			item.OrderID,
		); err != nil {
			return err
		}

		newTotal = total(items)

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET total_price = $2, updated_at = NOW() WHERE id = $1`,
			item.OrderID, newTotal,
		)
		return err
	})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("update order item: %w", err)
	}

	item.Quantity = quantity
	return newTotal, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}

	query := `SELECT status, COUNT(*) AS count FROM orders GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}

	counts := make(map[Status]int, len(AllStatuses))
	for _, status := range AllStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
