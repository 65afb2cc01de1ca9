// AngelaMos | 2026
// repository.go

package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

type Repository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, params ListParams) ([]Product, error)
	LowStock(ctx context.Context, threshold int) ([]Product, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const productColumns = `id, name, price, stock, unit, created_at, updated_at`

func (r *repository) Create(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products (name, price, stock, unit)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.GetContext(ctx, product, query,
		product.Name,
		product.Price,
		product.Stock,
		product.Unit,
	)
	if err != nil {
		return fmt.Errorf("create product: %w", core.ClassifyError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product Product
	err := r.db.GetContext(ctx, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &product, nil
}

// GetByIDs loads every product whose id is in ids with a single query.
// Missing ids are simply absent from the result.
func (r *repository) GetByIDs(
	ctx context.Context,
	ids []int64,
) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query, ids); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	return products, nil
}

func (r *repository) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products
		SET name = $2, price = $3, stock = $4, unit = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &product.UpdatedAt, query,
		product.ID,
		product.Name,
		product.Price,
		product.Stock,
		product.Unit,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update product: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update product: %w", core.ClassifyError(err))
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", core.ClassifyError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete product: %w", core.ErrNotFound)
	}

	return nil
}

// List expects params to be normalized. Sort and Dir are interpolated
// only after passing the whitelist in Normalize.
func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`

	var args []any
	if params.Search != "" {
		query += ` WHERE name ILIKE $1`
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
	}

	query += fmt.Sprintf(" ORDER BY %s %s, id %s", params.Sort, params.Dir, params.Dir)

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

func (r *repository) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE stock <= $1
		ORDER BY stock ASC, name ASC`

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, threshold); err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}

	return products, nil
}
