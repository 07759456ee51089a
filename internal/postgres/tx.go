package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/promo"
)

// storeTx binds the order.Tx operations to one pgx transaction.
type storeTx struct {
	tx pgx.Tx
}

var _ order.Tx = (*storeTx)(nil)

func (t *storeTx) ProductByID(ctx context.Context, id string) (*product.Product, error) {
	row := t.tx.QueryRow(ctx, productSelect+` WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return p, nil
}

// DecrementStock performs the conditional reservation: the row only changes
// when enough stock remains, so two requests for the last unit cannot both
// succeed.
func (t *storeTx) DecrementStock(ctx context.Context, productID string, quantity int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("decrementing stock for %q: %w", productID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var available int
	err = t.tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.ErrNotFound
		}
		return fmt.Errorf("reading stock for %q: %w", productID, err)
	}
	return &product.InsufficientStockError{
		ProductID: productID,
		Requested: quantity,
		Available: available,
	}
}

func (t *storeTx) IncrementStock(ctx context.Context, productID string, quantity int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = stock + $2 WHERE id = $1`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("incrementing stock for %q: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (t *storeTx) PromotionByCode(ctx context.Context, code string) (*promo.Promotion, error) {
	row := t.tx.QueryRow(ctx, promotionSelect+` WHERE code = UPPER($1)`, code)
	p, err := scanPromotion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, fmt.Errorf("finding promotion by code %q: %w", code, err)
	}
	return p, nil
}

// RedeemPromotion consumes one usage slot. The guard repeats the validity
// checks so a concurrent redemption that exhausted the limit after our read
// fails here instead of over-counting.
func (t *storeTx) RedeemPromotion(ctx context.Context, code string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE promotions
		 SET used_count = used_count + 1
		 WHERE code = UPPER($1)
		   AND active
		   AND (usage_limit = 0 OR used_count < usage_limit)`,
		code)
	if err != nil {
		return fmt.Errorf("redeeming promotion %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrUsageLimitReached
	}
	return nil
}

func (t *storeTx) InsertOrder(ctx context.Context, o *order.Order) error {
	return insertOrder(ctx, t.tx, o)
}

func (t *storeTx) OrderByID(ctx context.Context, id string) (*order.Order, error) {
	// FOR UPDATE serializes concurrent lifecycle transitions on one order.
	return scanOrder(t.tx.QueryRow(ctx, orderSelect+` WHERE id = $1 FOR UPDATE`, id))
}

func (t *storeTx) UpdateOrder(ctx context.Context, o *order.Order) error {
	return updateOrder(ctx, t.tx, o)
}

func (t *storeTx) DeleteCartLines(ctx context.Context, owner string, refs []cart.LineRef) error {
	for _, ref := range refs {
		_, err := t.tx.Exec(ctx,
			`DELETE FROM cart_lines WHERE owner = $1 AND ref_kind = $2 AND ref_id = $3`,
			owner, int16(ref.Kind), ref.ID)
		if err != nil {
			return fmt.Errorf("deleting cart line %q for %q: %w", ref.ID, owner, err)
		}
	}
	if len(refs) == 0 {
		return nil
	}
	if _, err := t.tx.Exec(ctx, touchCart, owner); err != nil {
		return fmt.Errorf("touching cart for %q: %w", owner, err)
	}
	return nil
}
