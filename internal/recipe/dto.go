// AngelaMos | 2026
// dto.go

package recipe

import (
	"time"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

// IngredientInput fields are pointers so a missing product_id or quantity
// can be told apart from zero.
type IngredientInput struct {
	ProductID *core.FlexInt `json:"product_id"`
	Quantity  *core.FlexInt `json:"quantity"`
	Unit      *string       `json:"unit"`
}

type CreateRecipeRequest struct {
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Ingredients []IngredientInput `json:"ingredients"`
}

// UpdateRecipeRequest is partial. When Ingredients is set the recipe's
// whole ingredient list is replaced.
type UpdateRecipeRequest struct {
	Name        core.Optional[string]            `json:"name"`
	Description core.Optional[string]            `json:"description"`
	Ingredients core.Optional[[]IngredientInput] `json:"ingredients"`
}

type UpdateIngredientRequest struct {
	ProductID core.Optional[core.FlexInt] `json:"product_id"`
	Quantity  core.Optional[core.FlexInt] `json:"quantity"`
	Unit      core.Optional[string]       `json:"unit"`
}

type ListParams struct {
	Search    string
	ProductID *int64
	Dir       string
}

var sortColumns = map[string]struct{}{"name": {}}

func (p *ListParams) Normalize() {
	_, p.Dir = core.NormalizeSort("name", p.Dir, sortColumns, "name", "asc")
}

type IngredientResponse struct {
	ID          int64  `json:"id"`
	RecipeID    int64  `json:"recipe_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit"`
}

type RecipeResponse struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Description *string              `json:"description"`
	CreatorID   int64                `json:"creator_id"`
	Ingredients []IngredientResponse `json:"ingredients"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type RecipeSummary struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type RecipeListResponse struct {
	Items     []RecipeSummary `json:"items"`
	Count     int             `json:"count"`
	Search    string          `json:"search"`
	Sort      string          `json:"sort"`
	Dir       string          `json:"dir"`
	ProductID *int64          `json:"productId"`
}

type IngredientListResponse struct {
	Items    []IngredientResponse `json:"items"`
	Count    int                  `json:"count"`
	RecipeID *int64               `json:"recipeId"`
}

func ToIngredientResponse(i *Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:          i.ID,
		RecipeID:    i.RecipeID,
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Quantity:    i.Quantity,
		Unit:        i.Unit,
	}
}

func ToIngredientResponseList(items []Ingredient) []IngredientResponse {
	responses := make([]IngredientResponse, 0, len(items))
	for i := range items {
		responses = append(responses, ToIngredientResponse(&items[i]))
	}
	return responses
}

func ToRecipeResponse(r *Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatorID:   r.CreatorID,
		Ingredients: ToIngredientResponseList(r.Ingredients),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func ToRecipeSummaryList(recipes []Recipe) []RecipeSummary {
	out := make([]RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, RecipeSummary{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
		})
	}
	return out
}
