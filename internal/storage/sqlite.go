package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gastos/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the ledger document in a single-row table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes them anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*core.Ledger, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM ledger_document WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select ledger document: %w", err)
	}
	return decodeLedger([]byte(body))
}

func (s *SQLiteStore) Save(ctx context.Context, l *core.Ledger) error {
	b, err := encodeLedger(l)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_document (id, body, version, updated_at)
		VALUES (1, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			body = excluded.body,
			version = ledger_document.version + 1,
			updated_at = CURRENT_TIMESTAMP`, string(b))
	if err != nil {
		return fmt.Errorf("upsert ledger document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger document: %w", err)
	}

	slog.DebugContext(ctx, "Ledger saved to SQLite", "records", l.Len())
	return nil
}

// Version returns how many times the document was written, 0 if never.
func (s *SQLiteStore) Version(ctx context.Context) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM ledger_document WHERE id = 1`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select ledger version: %w", err)
	}
	return v, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
