// AngelaMos | 2026
// service.go

package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/product"
)

// ProductFinder resolves product ids in one batch. It fails with a
// batch not-found error if any id is unknown.
type ProductFinder interface {
	FindAll(ctx context.Context, ids []int64) (map[int64]*product.Product, error)
}

type Service struct {
	repo     Repository
	products ProductFinder
}

func NewService(repo Repository, products ProductFinder) *Service {
	return &Service{repo: repo, products: products}
}

func (s *Service) Create(
	ctx context.Context,
	identity core.Identity,
	req CreateRecipeRequest,
) (*Recipe, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}

	ingredients, err := s.resolveIngredients(ctx, req.Ingredients)
	if err != nil {
		return nil, err
	}

	recipe := &Recipe{
		Name:        name,
		Description: req.Description,
		CreatorID:   identity.UserID,
		Ingredients: ingredients,
	}

	if err := s.repo.Create(ctx, recipe); err != nil {
		return nil, mapWriteError(err)
	}

	return recipe, nil
}

func (s *Service) Update(
	ctx context.Context,
	id int64,
	req UpdateRecipeRequest,
) (*Recipe, error) {
	recipe, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name.Set {
		raw := ""
		if req.Name.Value != nil {
			raw = *req.Name.Value
		}
		name, err := validateName(raw)
		if err != nil {
			return nil, err
		}
		recipe.Name = name
	}

	if req.Description.Set {
		recipe.Description = req.Description.Value
	}

	if req.Ingredients.Set {
		var inputs []IngredientInput
		if req.Ingredients.Value != nil {
			inputs = *req.Ingredients.Value
		}
		ingredients, err := s.resolveIngredients(ctx, inputs)
		if err != nil {
			return nil, err
		}
		recipe.Ingredients = ingredients
	}

	if err := s.repo.Update(ctx, recipe, req.Ingredients.Set); err != nil {
		return nil, mapWriteError(err)
	}

	return recipe, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Recipe, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]Recipe, ListParams, error) {
	params.Search = strings.TrimSpace(params.Search)
	params.Normalize()

	recipes, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, params, err
	}

	return recipes, params, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListIngredients(
	ctx context.Context,
	recipeID *int64,
) ([]Ingredient, error) {
	return s.repo.ListIngredients(ctx, recipeID)
}

func (s *Service) GetIngredient(ctx context.Context, id int64) (*Ingredient, error) {
	return s.repo.GetIngredient(ctx, id)
}

func (s *Service) UpdateIngredient(
	ctx context.Context,
	id int64,
	req UpdateIngredientRequest,
) (*Ingredient, error) {
	ingredient, err := s.repo.GetIngredient(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ProductID.Set {
		if req.ProductID.Value == nil {
			return nil, core.ValidationError("product_id must be an integer")
		}
		productID := req.ProductID.Value.Int64()
		found, err := s.products.FindAll(ctx, []int64{productID})
		if err != nil {
			return nil, err
		}
		ingredient.ProductID = productID
		ingredient.ProductName = found[productID].Name
	}

	if req.Quantity.Set {
		if req.Quantity.Value == nil {
			return nil, core.ValidationError("quantity must be an integer")
		}
		qty := req.Quantity.Value.Int()
		if qty <= 0 {
			return nil, core.ValidationError("quantity must be > 0")
		}
		if req.Quantity.Value.ExceedsCount() {
			return nil, core.CountTooLargeError("quantity")
		}
		ingredient.Quantity = qty
	}

	if req.Unit.Set {
		unit := ""
		if req.Unit.Value != nil {
			unit = *req.Unit.Value
		}
		unit, err = validateUnit(unit)
		if err != nil {
			return nil, err
		}
		ingredient.Unit = unit
	}

	if err := s.repo.UpdateIngredient(ctx, ingredient); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.ConflictError(
				err,
				"duplicate product in same recipe is not allowed",
			)
		}
		return nil, err
	}

	return ingredient, nil
}

func (s *Service) DeleteIngredient(ctx context.Context, id int64) error {
	return s.repo.DeleteIngredient(ctx, id)
}

// resolveIngredients validates every line and checks that all referenced
// products exist before anything is written.
func (s *Service) resolveIngredients(
	ctx context.Context,
	inputs []IngredientInput,
) ([]Ingredient, error) {
	if len(inputs) == 0 {
		return nil, core.ValidationError("ingredients must be a non-empty array")
	}

	ingredients := make([]Ingredient, 0, len(inputs))
	ids := make([]int64, 0, len(inputs))

	for _, in := range inputs {
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

		unit := ""
		if in.Unit != nil {
			unit = *in.Unit
		}
		unit, err := validateUnit(unit)
		if err != nil {
			return nil, err
		}

		ingredients = append(ingredients, Ingredient{
			ProductID: in.ProductID.Int64(),
			Quantity:  in.Quantity.Int(),
			Unit:      unit,
		})
		ids = append(ids, in.ProductID.Int64())
	}

	products, err := s.products.FindAll(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range ingredients {
		ingredients[i].ProductName = products[ingredients[i].ProductID].Name
	}

	return ingredients, nil
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

func validateUnit(raw string) (string, error) {
	unit := strings.TrimSpace(raw)
	if len([]rune(unit)) > MaxUnitLength {
		return "", core.ValidationError(
			fmt.Sprintf("unit must be at most %d characters", MaxUnitLength),
		)
	}
	return unit, nil
}

func mapWriteError(err error) error {
	if errors.Is(err, core.ErrDuplicateKey) {
		return core.ConflictError(
			err,
			"recipe name must be unique and each product may appear once",
		)
	}
	return err
}
