// AngelaMos | 2026
// service.go

package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(
	ctx context.Context,
	req CreateProductRequest,
) (*Product, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}

	if req.Price == nil {
		return nil, core.ValidationError("price must be a number > 0")
	}
	price, err := validatePrice(*req.Price)
	if err != nil {
		return nil, err
	}

	stock := 0
	if req.Stock != nil {
		if req.Stock.ExceedsCount() {
			return nil, core.CountTooLargeError("stock")
		}
		stock = req.Stock.Int()
	}
	if stock < 0 {
		return nil, core.ValidationError("stock must be >= 0")
	}

	unit, err := normalizeUnit(req.Unit)
	if err != nil {
		return nil, err
	}

	product := &Product{
		Name:  name,
		Price: price,
		Stock: stock,
		Unit:  unit,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, mapWriteError(err)
	}

	return product, nil
}

func (s *Service) Update(
	ctx context.Context,
	id int64,
	req UpdateProductRequest,
) (*Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := validateName(*req.Name)
		if err != nil {
			return nil, err
		}
		product.Name = name
	}

	if req.Price != nil {
		price, err := validatePrice(*req.Price)
		if err != nil {
			return nil, err
		}
		product.Price = price
	}

	if req.Stock != nil {
		if req.Stock.Int() < 0 {
			return nil, core.ValidationError("stock must be >= 0")
		}
		if req.Stock.ExceedsCount() {
			return nil, core.CountTooLargeError("stock")
		}
		product.Stock = req.Stock.Int()
	}

	if req.Unit != nil {
		unit, err := normalizeUnit(req.Unit)
		if err != nil {
			return nil, err
		}
		product.Unit = unit
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, mapWriteError(err)
	}

	return product, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, core.ErrReferenced) {
		return core.ConflictError(
			err,
			"product is used by a recipe or an order and cannot be deleted",
		)
	}
	return err
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]Product, ListParams, error) {
	params.Search = strings.TrimSpace(params.Search)
	params.Normalize()

	products, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, params, err
	}

	return products, params, nil
}

// LowStock lists products whose stock is at or below threshold, scarcest
// first.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	if threshold < 0 {
		return nil, core.ValidationError("threshold must be >= 0")
	}
	return s.repo.LowStock(ctx, threshold)
}

// FindAll resolves every id in ids to its product. If any id is unknown
// the whole lookup fails with a batch not-found error and no id is named.
func (s *Service) FindAll(
	ctx context.Context,
	ids []int64,
) (map[int64]*Product, error) {
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	products, err := s.repo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}

	byID := make(map[int64]*Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	if len(byID) != len(unique) {
		return nil, core.ProductsNotFoundError()
	}

	return byID, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", core.ValidationError("name is required")
	}
	if len([]rune(name)) > MaxNameLength {
		return "", core.ValidationError(
			fmt.Sprintf("name must be at most %d characters", MaxNameLength),
		)
	}
	return name, nil
}

// validatePrice rounds to cents first so a value that would be stored as
// 0.00 is rejected.
func validatePrice(raw decimal.Decimal) (decimal.Decimal, error) {
	price := raw.Round(2)
	if !price.IsPositive() {
		return decimal.Decimal{}, core.ValidationError("price must be a number > 0")
	}
	return price, nil
}

func normalizeUnit(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}

	unit := strings.TrimSpace(*raw)
	if unit == "" {
		return nil, nil
	}
	if len([]rune(unit)) > MaxUnitLength {
		return nil, core.ValidationError(
			fmt.Sprintf("unit must be at most %d characters", MaxUnitLength),
		)
	}
	return &unit, nil
}

func mapWriteError(err error) error {
	if errors.Is(err, core.ErrDuplicateKey) {
		return core.ConflictError(err, "product name must be unique")
	}
	return err
}
