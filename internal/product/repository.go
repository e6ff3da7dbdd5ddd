package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	// DecrementStock reduces stock by the ordered quantity, floored at
	// zero; hitting zero flips the availability flag off. One statement
	// so concurrent settlements stay consistent.
	DecrementStock(ctx context.Context, productID uint, quantity int) error

	GetStock(ctx context.Context, productID uint) (stock int, available bool, err error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) DecrementStock(ctx context.Context, productID uint, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = GREATEST(stock - $2, 0),
		    available = (stock - $2 > 0),
		    updated_at = now()
		WHERE id = $1
	`, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) GetStock(ctx context.Context, productID uint) (int, bool, error) {
	var stock int
	var available bool
	err := r.db.QueryRowContext(ctx, `
		SELECT stock, available FROM products WHERE id = $1
	`, productID).Scan(&stock, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, ErrProductNotFound
	}
	if err != nil {
		return 0, false, fmt.Errorf("get stock: %w", err)
	}
	return stock, available, nil
}
