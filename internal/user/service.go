// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/recipe-shop/internal/auth"
	"github.com/carterperez-dev/recipe-shop/internal/core"
)

var _ auth.UserProvider = (*Service)(nil)

type Service struct {
	repo               Repository
	allowRoleSelection bool
}

// NewService builds the user service. When allowRoleSelection is true a
// role sent at registration is honoured, including admin.
func NewService(repo Repository, allowRoleSelection bool) *Service {
	return &Service{repo: repo, allowRoleSelection: allowRoleSelection}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) GetByID(ctx context.Context, id int64) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.credentials(), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return u.credentials(), nil
}

// Create stores a new account. The role is requested unless role
// selection is disabled; anything unrecognised becomes user.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name, requestedRole string,
) (*auth.UserInfo, error) {
	role := core.RoleUser
	if s.allowRoleSelection {
		if parsed, ok := core.ParseRole(requestedRole); ok {
			role = parsed
		}
	}

	u := &User{
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u.credentials(), nil
}

func (s *Service) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, int, ListFilter, error) {
	filter = filter.clamped()
	users, total, err := s.repo.List(ctx, filter)
	return users, total, filter, err
}

// UpdateProfile applies a profile change. With no name given it returns
// the account unchanged.
func (s *Service) UpdateProfile(ctx context.Context, id int64, req ProfileUpdate) (*User, error) {
	if req.Name == nil {
		return s.repo.GetByID(ctx, id)
	}

	name := strings.TrimSpace(*req.Name)
	if name == "" {
		return nil, core.ValidationError("name is required")
	}
	return s.repo.Rename(ctx, id, name)
}

// ChangeRole takes effect on the user's next login or refresh; access
// tokens already issued keep their role until they expire.
func (s *Service) ChangeRole(ctx context.Context, id int64, role string) (*User, error) {
	parsed, ok := core.ParseRole(role)
	if !ok {
		return nil, core.ValidationError("role must be one of: user, admin")
	}
	return s.repo.SetRole(ctx, id, parsed)
}

func (s *Service) Me(ctx context.Context, identity core.Identity) (*User, error) {
	if identity.UserID == 0 {
		return nil, fmt.Errorf("current user: %w", core.ErrUnauthorized)
	}
	return s.repo.GetByID(ctx, identity.UserID)
}

func (s *Service) UpdateMe(ctx context.Context, identity core.Identity, req ProfileUpdate) (*User, error) {
	if identity.UserID == 0 {
		return nil, fmt.Errorf("update current user: %w", core.ErrUnauthorized)
	}
	return s.UpdateProfile(ctx, identity.UserID, req)
}
