package commission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrSellerNotFound = errors.New("seller not found")

type Repository interface {
	SellerByToken(ctx context.Context, token string) (*Seller, error)

	// Create inserts the commission entry for an order; the unique
	// constraint on order_id makes a duplicate insert a silent no-op.
	// Returns whether a row was actually created.
	Create(ctx context.Context, entry *Entry) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SellerByToken(ctx context.Context, token string) (*Seller, error) {
	var s Seller
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, referral_token
		FROM sellers WHERE referral_token = $1
	`, token).Scan(&s.ID, &s.Name, &s.Email, &s.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSellerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("seller by token: %w", err)
	}
	return &s, nil
}

func (r *repository) Create(ctx context.Context, entry *Entry) (bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO commissions (order_id, seller_id, base_amount, rate, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO NOTHING
		RETURNING id
	`, entry.OrderID, entry.SellerID, entry.BaseAmount, entry.Rate, entry.Amount).Scan(&entry.ID)
	if errors.Is(err, sql.ErrNoRows) {
		// Duplicate settlement signal already created the entry.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert commission: %w", err)
	}
	return true, nil
}
