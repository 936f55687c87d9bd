package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/techgear-labs/storefront/pkg/blobstore"
)

const (
	getBlobSQL = `SELECT value FROM blobs WHERE key = $1`

	upsertBlobSQL = `INSERT INTO blobs (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	deleteBlobSQL = `DELETE FROM blobs WHERE key = $1`
)

var _ blobstore.Store = (*Blobs)(nil)
var _ blobstore.Pinger = (*Blobs)(nil)

// Blobs implements blobstore.Store on a single-table JSONB key/value schema.
type Blobs struct {
	pool *pgxpool.Pool
}

// NewBlobs returns a Blobs store that uses the given pool.
func NewBlobs(pool *pgxpool.Pool) *Blobs {
	return &Blobs{pool: pool}
}

// Get returns the value stored under key, or blobstore.ErrNotFound.
func (b *Blobs) Get(ctx context.Context, key string) ([]byte, error) {
	rows, err := b.pool.Query(ctx, getBlobSQL, key)
	if err != nil {
		return nil, fmt.Errorf("getting blob %q: %w", key, err)
	}

	value, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[[]byte])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("getting blob %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (b *Blobs) Set(ctx context.Context, key string, value []byte) error {
	if _, err := b.pool.Exec(ctx, upsertBlobSQL, key, value); err != nil {
		return fmt.Errorf("setting blob %q: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key. Absent keys are a no-op.
func (b *Blobs) Delete(ctx context.Context, key string) error {
	if _, err := b.pool.Exec(ctx, deleteBlobSQL, key); err != nil {
		return fmt.Errorf("deleting blob %q: %w", key, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (b *Blobs) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}
