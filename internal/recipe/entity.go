// AngelaMos | 2026
// entity.go

package recipe

import (
	"time"
)

type Recipe struct {
	ID          int64        `db:"id"`
	Name        string       `db:"name"`
	Description *string      `db:"description"`
	CreatorID   int64        `db:"creator_id"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	Ingredients []Ingredient `db:"-"`
}

// Ingredient is one product line of a recipe. ProductName is denormalized
// from products on read.
type Ingredient struct {
	ID          int64  `db:"id"`
	RecipeID    int64  `db:"recipe_id"`
	ProductID   int64  `db:"product_id"`
	ProductName string `db:"product_name"`
	Quantity    int    `db:"quantity"`
	Unit        string `db:"unit"`
}

const (
	MaxNameLength = 100
	MaxUnitLength = 50
)
