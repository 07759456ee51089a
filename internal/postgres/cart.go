package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Lines are
// keyed by (owner, ref kind, ref id) so the tagged reference is the identity.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetOrCreate returns the owner's cart, inserting an empty one on first
// access. "No cart yet" and "empty cart" are indistinguishable to callers.
func (r *CartRepository) GetOrCreate(ctx context.Context, owner string) (*cart.Cart, error) {
	c := &cart.Cart{Owner: owner}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO carts (owner) VALUES ($1)
		 ON CONFLICT (owner) DO UPDATE SET owner = EXCLUDED.owner
		 RETURNING updated_at`,
		owner).Scan(&c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ensuring cart for %q: %w", owner, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ref_kind, ref_id, name, price, image, quantity
		 FROM cart_lines WHERE owner = $1
		 ORDER BY ref_kind, ref_id`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines for %q: %w", owner, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l    cart.Line
			kind int16
		)
		if err := rows.Scan(&kind, &l.Ref.ID, &l.Name, &l.Price, &l.Image, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scanning cart line: %w", err)
		}
		l.Ref.Kind = cart.RefKind(kind)
		c.Lines = append(c.Lines, l)
	}
	return c, rows.Err()
}

// SaveLine upserts one line by its tagged reference and touches the cart's
// updated_at.
func (r *CartRepository) SaveLine(ctx context.Context, owner string, line cart.Line) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cart_lines (owner, ref_kind, ref_id, name, price, image, quantity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (owner, ref_kind, ref_id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			image = EXCLUDED.image,
			quantity = EXCLUDED.quantity`,
		owner, int16(line.Ref.Kind), line.Ref.ID, line.Name, line.Price, line.Image, line.Quantity)
	if err != nil {
		return fmt.Errorf("saving cart line %q for %q: %w", line.Ref.ID, owner, err)
	}
	return r.touch(ctx, owner)
}

// DeleteLine removes one line by its tagged reference.
func (r *CartRepository) DeleteLine(ctx context.Context, owner string, ref cart.LineRef) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cart_lines WHERE owner = $1 AND ref_kind = $2 AND ref_id = $3`,
		owner, int16(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("deleting cart line %q for %q: %w", ref.ID, owner, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return r.touch(ctx, owner)
}

// Clear removes every line from the owner's cart.
func (r *CartRepository) Clear(ctx context.Context, owner string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE owner = $1`, owner)
	if err != nil {
		return fmt.Errorf("clearing cart for %q: %w", owner, err)
	}
	return r.touch(ctx, owner)
}

// touchCart is shared with the order transaction, which clears consumed
// lines and must move updated_at like any other cart mutation.
const touchCart = `UPDATE carts SET updated_at = now() WHERE owner = $1`

func (r *CartRepository) touch(ctx context.Context, owner string) error {
	_, err := r.pool.Exec(ctx, touchCart, owner)
	if err != nil {
		return fmt.Errorf("touching cart for %q: %w", owner, err)
	}
	return nil
}
