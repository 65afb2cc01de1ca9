// AngelaMos | 2026
// repository_test.go

package order

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
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

func TestRepositoryCreateRollsBackOnDuplicateItem(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(int64(1), StatusPending, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(10), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(int64(10), int64(5), 1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(int64(10), int64(5), 2, sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			ConstraintName: "order_items_order_product_key",
		})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &Order{
		UserID:     1,
		Status:     StatusPending,
		TotalPrice: decimal.RequireFromString("7.50"),
		Items: []Item{
			{ProductID: 5, Quantity: 1, PriceAtPurchase: decimal.RequireFromString("2.50")},
			{ProductID: 5, Quantity: 2, PriceAtPurchase: decimal.RequireFromString("2.50")},
		},
	})

	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateCommits(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(3), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(30)))
	mock.ExpectCommit()

	o := &Order{
		UserID: 1,
		Status: StatusPending,
		Items:  []Item{{ProductID: 5, Quantity: 1}},
	}
	require.NoError(t, repo.Create(context.Background(), o))

	assert.Equal(t, int64(3), o.ID)
	assert.Equal(t, int64(30), o.Items[0].ID)
	assert.Equal(t, int64(3), o.Items[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 7)

	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateItemQuantityRewritesTotal(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE order_items SET quantity")).
		WithArgs(int64(30), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "product_name", "quantity", "price_at_purchase",
		}).
			AddRow(int64(30), int64(3), int64(5), "Flour", 4, "2.50").
			AddRow(int64(31), int64(3), int64(6), "Sugar", 1, "1.10"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET total_price")).
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item := &Item{ID: 30, OrderID: 3, Quantity: 1}
	total, err := repo.UpdateItemQuantity(context.Background(), item, 4, RecalculateTotalFloat)

	require.NoError(t, err)
	assert.Equal(t, "11.10", total.StringFixed(2))
	assert.Equal(t, 4, item.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCountByStatusFillsZeros(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("PENDING", 4))

	counts, err := repo.CountByStatus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, counts[StatusPending])
	assert.Equal(t, 0, counts[StatusPaid])
	assert.Len(t, counts, len(AllStatuses))
}
