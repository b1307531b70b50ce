package backend

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"gastos/internal/config"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.ErrorContains(t, err, "invalid backend type")

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:         "sqlite",
		SQLiteDBPath:        "/tmp/gastos.db",
		GoogleSpreadsheetID: "sheet",
		GoogleSheetName:     "Casa",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "/tmp/gastos.db", cfg.SQLiteDBPath)
	assert.Equal(t, "Casa", cfg.GoogleSheetName)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file ok", Config{Type: FileBackend, LedgerFile: "gastos.json"}, false},
		{"file missing path", Config{Type: FileBackend}, true},
		{"sqlite missing path", Config{Type: SQLiteBackend}, true},
		{"postgres missing url", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"memory", "file", "sqlite", "postgres"}, GetBackendTypeStrings())
}

func TestCreateStore(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(log.Discard())
	dir := t.TempDir()

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateStore(ctx, Config{Type: MemoryBackend})
		require.NoError(t, err)
		assert.IsType(t, &storage.MemoryStore{}, res.Store)
		assert.NoError(t, res.Cleanup())
	})

	t.Run("file", func(t *testing.T) {
		res, err := f.CreateStore(ctx, Config{Type: FileBackend, LedgerFile: filepath.Join(dir, "gastos.json")})
		require.NoError(t, err)
		defer res.Cleanup()

		l, err := res.Store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, l.Len())
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateStore(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "gastos.db")})
		require.NoError(t, err)
		defer res.Cleanup()

		l := core.NewLedger()
		l.Append(core.Record{ID: "a", Category: core.CategoryMarket})
		require.NoError(t, res.Store.Save(ctx, l))
		got, err := res.Store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Len())
	})

	t.Run("sqlite logs versions", func(t *testing.T) {
		var buf bytes.Buffer
		logged := NewFactory(log.New(log.Config{Level: slog.LevelInfo, Output: &buf}))
		path := filepath.Join(dir, "versions.db")

		res, err := logged.CreateStore(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		require.NoError(t, err)
		require.NoError(t, res.Store.Save(ctx, core.NewLedger()))
		require.NoError(t, res.Cleanup())
		assert.Contains(t, buf.String(), "document_version=0")

		buf.Reset()
		res, err = logged.CreateStore(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		require.NoError(t, err)
		defer res.Cleanup()

		out := buf.String()
		assert.Contains(t, out, "Initialized SQLite backend")
		assert.Contains(t, out, "schema_version=1")
		assert.Contains(t, out, "schema_dirty=false")
		assert.Contains(t, out, "document_version=1")
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := f.CreateStore(ctx, Config{Type: PostgresBackend})
		assert.Error(t, err)
	})
}

func TestCreateMirror_FallsBackToMemory(t *testing.T) {
	res, err := NewFactory(log.Discard()).CreateMirror(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.False(t, res.Remote)
	assert.NoError(t, res.Mirror.Replace(context.Background(), [][]any{{"x"}}))
}
