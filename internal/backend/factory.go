package backend

import (
	"context"
	"fmt"

	"gastos/internal/log"
	gsheet "gastos/internal/sheets/google"
	"gastos/internal/sheets/memory"
	"gastos/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	return &DefaultFactory{logger: logger}
}

// CreateStore opens the ledger store for config.Type.
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.Store
		err   error
	)
	switch config.Type {
	case MemoryBackend:
		store = storage.NewMemoryStore()
		f.logger.Warn("Using in-memory ledger, records are lost on exit")
	case FileBackend:
		store, err = storage.NewFileStore(config.LedgerFile)
		if err == nil {
			f.logger.Info("Initialized file backend", "path", config.LedgerFile)
		}
	case SQLiteBackend:
		var s *storage.SQLiteStore
		s, err = storage.NewSQLiteStore(config.SQLiteDBPath)
		if err == nil {
			store = s
			f.logSQLite(ctx, config.SQLiteDBPath, s)
		}
	case PostgresBackend:
		store, err = storage.NewPostgresStore(ctx, config.DatabaseURL)
		if err == nil {
			f.logger.Info("Initialized Postgres backend")
		}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", config.Type, err)
	}

	return &StoreResult{Store: store, Cleanup: store.Close}, nil
}

// logSQLite reports which schema migration and document revision the
// database opened at.
func (f *DefaultFactory) logSQLite(ctx context.Context, path string, s *storage.SQLiteStore) {
	attrs := []any{"db_path", path}
	if v, dirty, err := storage.SchemaVersion(path); err != nil {
		f.logger.WarnContext(ctx, "Failed to read schema version", log.FieldError, err)
	} else {
		attrs = append(attrs, "schema_version", v, "schema_dirty", dirty)
	}
	if v, err := s.Version(ctx); err != nil {
		f.logger.WarnContext(ctx, "Failed to read document version", log.FieldError, err)
	} else {
		attrs = append(attrs, "document_version", v)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend", attrs...)
}

// CreateMirror returns the Google Sheets mirror, or an in-process one when
// no spreadsheet is configured.
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (*MirrorResult, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring to memory only")
		return &MirrorResult{Mirror: memory.New()}, nil
	}

	cli, err := gsheet.Open(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets mirror", "sheet", cli.SheetName())
	return &MirrorResult{Mirror: cli, Remote: true}, nil
}
