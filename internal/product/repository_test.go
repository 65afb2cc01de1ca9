// AngelaMos | 2026
// repository_test.go

package product

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepositoryDeleteReferenced(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "order_items_product_id_fkey"})

	err := repo.Delete(context.Background(), 1)

	assert.ErrorIs(t, err, core.ErrReferenced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 5), core.ErrNotFound)
}

func TestRepositoryListEscapesSearch(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE name ILIKE $1 ORDER BY price asc, id asc")).
		WithArgs(`%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "price", "stock", "unit", "created_at", "updated_at",
		}).AddRow(int64(1), "50% Cocoa", "3.20", 4, nil, now, now))

	params := ListParams{Search: "50%", Sort: "price", Dir: "asc"}
	products, err := repo.List(context.Background(), params)

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "3.20", products[0].Price.StringFixed(2))
	assert.Nil(t, products[0].Unit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "products_name_key"})

	err := repo.Create(context.Background(), &Product{Name: "Flour"})

	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestRepositoryLowStock(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE stock <= $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "price", "stock", "unit", "created_at", "updated_at",
		}).
			AddRow(int64(2), "Yeast", "0.80", 0, "g", now, now).
			AddRow(int64(1), "Flour", "2.50", 3, "kg", now, now))

	products, err := repo.LowStock(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Yeast", products[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
