// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProfileUpdate changes the display name. An absent name leaves it as is.
type ProfileUpdate struct {
	Name *string `json:"name" validate:"omitempty,max=120"`
}

type RoleChange struct {
	Role string `json:"role" validate:"required"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      core.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter selects a page of accounts. Search matches email or name.
type ListFilter struct {
	Page     int
	PageSize int
	Search   string
	Role     core.Role
}

func (f ListFilter) clamped() ListFilter {
	f.Page = max(f.Page, 1)
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	f.PageSize = min(f.PageSize, maxPageSize)
	return f
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.PageSize
}

func responses(users []User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = users[i].response()
	}
	return out
}
