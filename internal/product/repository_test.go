package product

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_DecrementStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET stock = GREATEST\(stock - \$2, 0\), available = \(stock - \$2 > 0\), updated_at = now\(\) WHERE id = \$1`).
			WithArgs(uint(7), 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DecrementStock(ctx, 7, 1))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET stock = .*`).
			WithArgs(uint(99), 1).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DecrementStock(ctx, 99, 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET stock = .*`).
			WillReturnError(errors.New("db error"))

		assert.Error(t, repo.DecrementStock(ctx, 7, 1))
	})
}

func TestRepository_GetStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT stock, available FROM products WHERE id = \$1`).
			WithArgs(uint(7)).
			WillReturnRows(sqlmock.NewRows([]string{"stock", "available"}).AddRow(2, true))

		stock, available, err := repo.GetStock(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, 2, stock)
		assert.True(t, available)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT stock, available FROM products WHERE id = \$1`).
			WithArgs(uint(99)).
			WillReturnRows(sqlmock.NewRows([]string{"stock", "available"}))

		_, _, err := repo.GetStock(context.Background(), 99)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}
