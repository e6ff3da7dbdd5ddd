package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"festora-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, ord *Order) error
	GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Order, error)

	// SettleIfPending is the atomic conditional writeback: the status
	// flips only if the row is still pending. Returns whether this
	// caller won the write; a lost race means a concurrent channel
	// already settled the order.
	SettleIfPending(ctx context.Context, merchantOrderID string, status PaymentStatus, transactionID string) (bool, error)

	// MarkFailed flips a still-pending order to failed; settled orders
	// are never downgraded.
	MarkFailed(ctx context.Context, merchantOrderID string) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, code, merchant_order_id, transaction_id,
	customer_name, customer_email, customer_phone,
	addr_line1, addr_line2, addr_city, addr_state, addr_pincode, addr_lat, addr_lng,
	payment_method, payment_status,
	total_amount, upfront_amount, remaining_amount,
	seller_token, coupon_code, scheduled_for,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, ord *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			code, merchant_order_id,
			customer_name, customer_email, customer_phone,
			addr_line1, addr_line2, addr_city, addr_state, addr_pincode, addr_lat, addr_lng,
			payment_method, payment_status,
			total_amount, upfront_amount, remaining_amount,
			seller_token, coupon_code, scheduled_for
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at
	`,
		ord.Code, ord.MerchantOrderID,
		ord.CustomerName, ord.CustomerEmail, ord.CustomerPhone,
		ord.Address.Line1, ord.Address.Line2, ord.Address.City, ord.Address.State,
		ord.Address.Pincode, ord.Address.Lat, ord.Address.Lng,
		ord.PaymentMethod, ord.PaymentStatus,
		ord.TotalAmount, ord.UpfrontAmount, ord.RemainingAmount,
		ord.SellerToken, ord.CouponCode, ord.ScheduledFor,
	).Scan(&ord.ID, &ord.CreatedAt, &ord.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range ord.Items {
		it := &ord.Items[i]
		it.OrderID = ord.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, price, quantity, image_url)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, ord.ID, it.ProductID, it.Name, it.Price, it.Quantity, it.ImageURL).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *repository) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE merchant_order_id = $1
	`, merchantOrderID)
	return r.scanOrder(ctx, row)
}

func (r *repository) GetByTransactionID(ctx context.Context, transactionID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE transaction_id = $1
	`, transactionID)
	return r.scanOrder(ctx, row)
}

func (r *repository) scanOrder(ctx context.Context, row *sql.Row) (*Order, error) {
	var ord Order
	err := row.Scan(
		&ord.ID, &ord.Code, &ord.MerchantOrderID, &ord.TransactionID,
		&ord.CustomerName, &ord.CustomerEmail, &ord.CustomerPhone,
		&ord.Address.Line1, &ord.Address.Line2, &ord.Address.City, &ord.Address.State,
		&ord.Address.Pincode, &ord.Address.Lat, &ord.Address.Lng,
		&ord.PaymentMethod, &ord.PaymentStatus,
		&ord.TotalAmount, &ord.UpfrontAmount, &ord.RemainingAmount,
		&ord.SellerToken, &ord.CouponCode, &ord.ScheduledFor,
		&ord.CreatedAt, &ord.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	items, err := r.loadItems(ctx, ord.ID)
	if err != nil {
		return nil, err
	}
	ord.Items = items
	return &ord, nil
}

func (r *repository) loadItems(ctx context.Context, orderID uint) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, price, quantity, image_url
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.ImageURL); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) SettleIfPending(ctx context.Context, merchantOrderID string, status PaymentStatus, transactionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2, transaction_id = $3, updated_at = now()
		WHERE merchant_order_id = $1 AND payment_status = 'pending'
	`, merchantOrderID, status, transactionID)
	if err != nil {
		return false, fmt.Errorf("settle order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		logger.FromCtx(ctx).Info("order settle skipped, not pending",
			zap.String("merchant_order_id", merchantOrderID),
		)
	}
	return n > 0, nil
}

func (r *repository) MarkFailed(ctx context.Context, merchantOrderID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = 'failed', updated_at = now()
		WHERE merchant_order_id = $1 AND payment_status = 'pending'
	`, merchantOrderID)
	if err != nil {
		return false, fmt.Errorf("mark order failed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
