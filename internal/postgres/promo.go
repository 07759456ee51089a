package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/promo"
)

const promotionSelect = `SELECT id, code, kind, value, min_order_value, max_discount,
	usage_limit, used_count, starts_at, ends_at, active, product_ids, description
	FROM promotions`

var _ promo.Repository = (*PromotionRepository)(nil)

// PromotionRepository implements promo.Repository backed by PostgreSQL.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// FindByCode looks up a promotion by its normalized code.
func (r *PromotionRepository) FindByCode(ctx context.Context, code string) (*promo.Promotion, error) {
	p, err := scanPromotion(r.pool.QueryRow(ctx, promotionSelect+` WHERE code = UPPER($1)`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, fmt.Errorf("finding promotion by code %q: %w", code, err)
	}
	return p, nil
}

// Redeem consumes one usage slot via a conditional increment; concurrent
// redemptions serialize on the row and can never exceed the limit.
func (r *PromotionRepository) Redeem(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx,
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

// Upsert inserts or replaces a promotion's rule. Used by the ingest and seed
// tools, not the request path.
func (r *PromotionRepository) Upsert(ctx context.Context, p *promo.Promotion) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO promotions (id, code, kind, value, min_order_value, max_discount,
			usage_limit, used_count, starts_at, ends_at, active, product_ids, description)
		 VALUES ($1, UPPER($2), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (code) DO UPDATE SET
			kind = EXCLUDED.kind,
			value = EXCLUDED.value,
			min_order_value = EXCLUDED.min_order_value,
			max_discount = EXCLUDED.max_discount,
			usage_limit = EXCLUDED.usage_limit,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			active = EXCLUDED.active,
			product_ids = EXCLUDED.product_ids,
			description = EXCLUDED.description`,
		p.ID, p.Code, string(p.Kind), p.Value, p.MinOrderValue, p.MaxDiscount,
		p.UsageLimit, p.UsedCount, p.StartsAt, p.EndsAt, p.Active, p.ProductIDs, p.Description)
	if err != nil {
		return fmt.Errorf("upserting promotion %q: %w", p.Code, err)
	}
	return nil
}

func scanPromotion(row pgx.Row) (*promo.Promotion, error) {
	var (
		p    promo.Promotion
		kind string
	)
	err := row.Scan(
		&p.ID, &p.Code, &kind, &p.Value, &p.MinOrderValue, &p.MaxDiscount,
		&p.UsageLimit, &p.UsedCount, &p.StartsAt, &p.EndsAt, &p.Active, &p.ProductIDs, &p.Description,
	)
	if err != nil {
		return nil, err
	}
	p.Kind = promo.Kind(kind)
	return &p, nil
}
