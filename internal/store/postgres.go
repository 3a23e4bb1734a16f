package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Backend for deployments that share one snapshot database,
// e.g. several `tvminder serve` instances behind a proxy.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres backend from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Put(ctx context.Context, kind, scope string, payload []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO snapshots (kind, scope, payload, saved_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (kind, scope) DO UPDATE SET payload = EXCLUDED.payload, saved_at = now()`,
		kind, scope, string(payload),
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", kind, scope, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, kind, scope string) ([]byte, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload::text FROM snapshots WHERE kind = $1 AND scope = $2`, kind, scope,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", kind, scope, err)
	}
	return payload, nil
}

func (p *Postgres) Delete(ctx context.Context, kind, scope string) error {
	if _, err := p.pool.Exec(ctx,
		`DELETE FROM snapshots WHERE kind = $1 AND scope = $2`, kind, scope,
	); err != nil {
		return fmt.Errorf("delete %s/%s: %w", kind, scope, err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
