package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xenking/storefront/internal/domain/order"
)

const orderSelect = `SELECT id, owner, lines, items_price, shipping_price, discount_amount,
	total_price, promotion_code, shipping_address, payment_method, status,
	is_paid, paid_at, is_delivered, delivered_at, created_at
	FROM orders`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// scanOrder reads one order row. Lines and the shipping address are JSONB
// snapshots deserialized back into domain types.
func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o            order.Order
		linesJSON    []byte
		addressJSON  []byte
		statusString string
	)
	err := row.Scan(
		&o.ID, &o.Owner, &linesJSON, &o.ItemsPrice, &o.ShippingPrice, &o.DiscountAmount,
		&o.TotalPrice, &o.PromotionCode, &addressJSON, &o.PaymentMethod, &statusString,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("scanning order: %w", err)
	}

	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return nil, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshaling shipping address: %w", err)
	}

	o.Status, err = order.ParseStatus(statusString)
	if err != nil {
		return nil, fmt.Errorf("scanning order status: %w", err)
	}
	return &o, nil
}

func insertOrder(ctx context.Context, q execer, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}
	addressJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshaling shipping address: %w", err)
	}

	_, err = q.Exec(ctx,
		`INSERT INTO orders (id, owner, lines, items_price, shipping_price, discount_amount,
			total_price, promotion_code, shipping_address, payment_method, status,
			is_paid, paid_at, is_delivered, delivered_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		o.ID, o.Owner, linesJSON, o.ItemsPrice, o.ShippingPrice, o.DiscountAmount,
		o.TotalPrice, o.PromotionCode, addressJSON, o.PaymentMethod, string(o.Status),
		o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// updateOrder writes only the lifecycle fields; line snapshots and pricing
// are immutable after creation.
func updateOrder(ctx context.Context, q execer, o *order.Order) error {
	tag, err := q.Exec(ctx,
		`UPDATE orders
		 SET status = $2, is_paid = $3, paid_at = $4, is_delivered = $5, delivered_at = $6
		 WHERE id = $1`,
		o.ID, string(o.Status), o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}
