// AngelaMos | 2026
// repository.go

package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

type Repository interface {
	Create(ctx context.Context, recipe *Recipe) error
	Update(ctx context.Context, recipe *Recipe, replaceIngredients bool) error
	GetByID(ctx context.Context, id int64) (*Recipe, error)
	List(ctx context.Context, params ListParams) ([]Recipe, error)
	Delete(ctx context.Context, id int64) error

	ListIngredients(ctx context.Context, recipeID *int64) ([]Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*Ingredient, error)
	UpdateIngredient(ctx context.Context, ingredient *Ingredient) error
	DeleteIngredient(ctx context.Context, id int64) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const ingredientSelect = `
	SELECT ri.id, ri.recipe_id, ri.product_id, p.name AS product_name,
	       ri.quantity, ri.unit
	FROM recipe_ingredients ri
	JOIN products p ON p.id = ri.product_id`

// Create inserts the recipe and its ingredient lines in one transaction.
func (r *repository) Create(ctx context.Context, recipe *Recipe) error {
	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO recipes (name, description, creator_id)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at`

		if err := tx.GetContext(ctx, recipe, query,
			recipe.Name,
			recipe.Description,
			recipe.CreatorID,
		); err != nil {
			return core.ClassifyError(err)
		}

		return insertIngredients(ctx, tx, recipe.ID, recipe.Ingredients)
	})
	if err != nil {
		return fmt.Errorf("create recipe: %w", err)
	}

	return nil
}

func (r *repository) Update(
	ctx context.Context,
	recipe *Recipe,
	replaceIngredients bool,
) error {
	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE recipes
			SET name = $2, description = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`

		err := tx.GetContext(ctx, &recipe.UpdatedAt, query,
			recipe.ID,
			recipe.Name,
			recipe.Description,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return core.ClassifyError(err)
		}

		if !replaceIngredients {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recipe_ingredients WHERE recipe_id = $1`,
			recipe.ID,
		); err != nil {
			return err
		}

		return insertIngredients(ctx, tx, recipe.ID, recipe.Ingredients)
	})
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}

	return nil
}

func insertIngredients(
	ctx context.Context,
	tx *sqlx.Tx,
	recipeID int64,
	ingredients []Ingredient,
) error {
	query := `
		INSERT INTO recipe_ingredients (recipe_id, product_id, quantity, unit)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	for i := range ingredients {
		ing := &ingredients[i]
		ing.RecipeID = recipeID

		if err := tx.GetContext(ctx, &ing.ID, query,
			recipeID,
			ing.ProductID,
			ing.Quantity,
			ing.Unit,
		); err != nil {
			return core.ClassifyError(err)
		}
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Recipe, error) {
	query := `
		SELECT id, name, description, creator_id, created_at, updated_at
		FROM recipes
		WHERE id = $1`

	var recipe Recipe
	err := r.db.GetContext(ctx, &recipe, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get recipe: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	ingredients, err := r.ListIngredients(ctx, &id)
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	recipe.Ingredients = ingredients

	return &recipe, nil
}

// List returns recipes without ingredients. Search matches the recipe's
// name, its description or the name of any ingredient product.
func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Recipe, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM recipe_ingredients f
			         WHERE f.recipe_id = r.id AND f.product_id = $%d)`,
			argIdx,
		))
		args = append(args, *params.ProductID)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			`(r.name ILIKE $%d OR r.description ILIKE $%d OR p.name ILIKE $%d)`,
			argIdx, argIdx, argIdx,
		))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
	}

	query := `
		SELECT DISTINCT r.id, r.name, r.description, r.creator_id,
		       r.created_at, r.updated_at
		FROM recipes r
		LEFT JOIN recipe_ingredients ri ON ri.recipe_id = r.id
		LEFT JOIN products p ON p.id = ri.product_id`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY r.name %s", params.Dir)

	recipes := []Recipe{}
	if err := r.db.SelectContext(ctx, &recipes, query, args...); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	return recipes, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", core.ClassifyError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete recipe: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListIngredients(
	ctx context.Context,
	recipeID *int64,
) ([]Ingredient, error) {
	query := ingredientSelect
	var args []any

	if recipeID != nil {
		query += ` WHERE ri.recipe_id = $1`
		args = append(args, *recipeID)
	}

	query += ` ORDER BY ri.id`

	ingredients := []Ingredient{}
	if err := r.db.SelectContext(ctx, &ingredients, query, args...); err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}

	return ingredients, nil
}

func (r *repository) GetIngredient(
	ctx context.Context,
	id int64,
) (*Ingredient, error) {
	var ingredient Ingredient
	err := r.db.GetContext(ctx, &ingredient, ingredientSelect+` WHERE ri.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get ingredient: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}

	return &ingredient, nil
}

func (r *repository) UpdateIngredient(
	ctx context.Context,
	ingredient *Ingredient,
) error {
	query := `
		UPDATE recipe_ingredients
		SET product_id = $2, quantity = $3, unit = $4
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		ingredient.ID,
		ingredient.ProductID,
		ingredient.Quantity,
		ingredient.Unit,
	)
	if err != nil {
		return fmt.Errorf("update ingredient: %w", core.ClassifyError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ingredient: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update ingredient: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) DeleteIngredient(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM recipe_ingredients WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete ingredient: %w", core.ErrNotFound)
	}

	return nil
}
