package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/product"
)

const productSelect = `SELECT id, name, price, stock, category,
	image_thumbnail, image_mobile, image_tablet, image_desktop
	FROM products`

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, productSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, productSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return p, nil
}

// GetByIDs returns the products matching the given identifiers in one query.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, productSelect+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// Upsert inserts or updates a catalog product. Used by seeding tools.
func (r *ProductRepository) Upsert(ctx context.Context, p product.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, price, stock, category,
			image_thumbnail, image_mobile, image_tablet, image_desktop)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			category = EXCLUDED.category,
			image_thumbnail = EXCLUDED.image_thumbnail,
			image_mobile = EXCLUDED.image_mobile,
			image_tablet = EXCLUDED.image_tablet,
			image_desktop = EXCLUDED.image_desktop`,
		p.ID, p.Name, p.Price, p.Stock, p.Category,
		p.Image.Thumbnail, p.Image.Mobile, p.Image.Tablet, p.Image.Desktop,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Stock, &p.Category,
		&p.Image.Thumbnail, &p.Image.Mobile, &p.Image.Tablet, &p.Image.Desktop,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
