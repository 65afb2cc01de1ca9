// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Rename(ctx context.Context, id int64, name string) (*User, error)
	SetRole(ctx context.Context, id int64, role core.Role) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
}

const userColumns = `id, email, password_hash, name, role, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	err := r.db.GetContext(ctx, user, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		user.Email, user.PasswordHash, user.Name, user.Role,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", core.ClassifyError(err))
	}
	return nil
}

// get runs a single-row query returning userColumns.
func (r *repository) get(ctx context.Context, op, query string, args ...any) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.get(ctx, "get user",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.get(ctx, "get user by email",
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *repository) Rename(ctx context.Context, id int64, name string) (*User, error) {
	return r.get(ctx, "rename user", `
		UPDATE users SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, name)
}

func (r *repository) SetRole(ctx context.Context, id int64, role core.Role) (*User, error) {
	return r.get(ctx, "set user role", `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, role)
}

func (r *repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	return nil
}

// conditions builds a WHERE clause with positional arguments.
type conditions struct {
	parts []string
	args  []any
}

// add appends clause with every "?" bound to arg.
func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	c.parts = append(c.parts, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(c.args))))
}

func (c *conditions) where() string {
	if len(c.parts) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.parts, " AND ")
}

func (c *conditions) next() string {
	return "$" + strconv.Itoa(len(c.args)+1)
}

// List returns one page of users, newest first, plus the total matching
// count. Password hashes are not selected.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	filter = filter.clamped()

	var c conditions
	if filter.Search != "" {
		c.add("(email ILIKE ? OR name ILIKE ?)", "%"+core.EscapeLike(filter.Search)+"%")
	}
	if filter.Role != "" {
		c.add("role = ?", filter.Role)
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM users `+c.where(), c.args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limit := c.next()
	c.args = append(c.args, filter.PageSize)
	offset := c.next()
	c.args = append(c.args, filter.offset())

	users := []User{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT id, email, name, role, created_at, updated_at
		FROM users `+c.where()+`
		ORDER BY created_at DESC, id DESC
		LIMIT `+limit+` OFFSET `+offset, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}
