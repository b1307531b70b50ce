package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gastos/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the ledger document as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunPostgresMigrations(url); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (*core.Ledger, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM ledger_document WHERE id = 1`).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select ledger document: %w", err)
	}
	return decodeLedger(body)
}

func (s *PostgresStore) Save(ctx context.Context, l *core.Ledger) error {
	b, err := encodeLedger(l)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ledger_document (id, body, version, updated_at)
		VALUES (1, $1, 1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			body = EXCLUDED.body,
			version = ledger_document.version + 1,
			updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query, b); err != nil {
		return fmt.Errorf("upsert ledger document: %w", err)
	}
	slog.DebugContext(ctx, "Ledger saved to Postgres", "records", l.Len())
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
