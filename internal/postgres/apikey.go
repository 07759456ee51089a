package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/auth"
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository provides API key lookups backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up an active API key by its HMAC-SHA256 hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	var info auth.APIKeyInfo
	err := r.pool.QueryRow(ctx,
		`SELECT id, key_hash, name, scopes FROM api_keys WHERE key_hash = $1 AND active`,
		hash).Scan(&info.ID, &info.KeyHash, &info.Name, &info.Scopes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("api key not found: %w", err)
		}
		return nil, fmt.Errorf("finding api key by hash: %w", err)
	}
	return &info, nil
}

// Insert stores an API key, replacing any previous key with the same id.
// Used by the seed tool.
func (r *APIKeyRepository) Insert(ctx context.Context, info *auth.APIKeyInfo) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO api_keys (id, key_hash, name, scopes)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
			key_hash = EXCLUDED.key_hash,
			name = EXCLUDED.name,
			scopes = EXCLUDED.scopes,
			active = TRUE`,
		info.ID, info.KeyHash, info.Name, info.Scopes)
	if err != nil {
		return fmt.Errorf("inserting api key %q: %w", info.Name, err)
	}
	return nil
}
