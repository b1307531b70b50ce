package backend

import (
	"context"

	"gastos/internal/sheets"
	"gastos/internal/storage"
)

// CleanupFunc releases whatever a factory call opened.
type CleanupFunc func() error

// StoreResult contains the ledger store and its cleanup function.
type StoreResult struct {
	Store   storage.Store
	Cleanup CleanupFunc
}

// MirrorResult contains the spreadsheet mirror. Remote is false when the
// in-process mirror was used because no spreadsheet is configured.
type MirrorResult struct {
	Mirror sheets.LedgerMirror
	Remote bool
}

// Factory creates persistence backends from configuration.
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateMirror(ctx context.Context, config Config) (*MirrorResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	LedgerFile   string
	SQLiteDBPath string
	DatabaseURL  string

	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType names where the ledger document lives.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
