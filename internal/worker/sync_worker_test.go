package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/sheets/memory"
	"gastos/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingMirror struct{ err error }

func (f failingMirror) Replace(context.Context, [][]any) error { return f.err }

func seededStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore()
	l := core.NewLedger()
	r, err := core.BuildRecord(core.Draft{
		Owner:    core.OwnerLissa,
		Category: core.CategoryMarket,
		Amount:   decimal.NewFromInt(80),
	}, time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	l.Append(r)
	require.NoError(t, store.Save(context.Background(), l))
	return store
}

func TestSyncWorker_HandleLedgerEvent(t *testing.T) {
	mirror := memory.New()
	w := NewSyncWorker(seededStore(t), mirror, log.Discard())

	ev := amqp.NewLedgerEvent(amqp.EventRecordAdded, "id", "2025-10")
	require.NoError(t, w.HandleLedgerEvent(context.Background(), ev))

	rows := mirror.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Owner", rows[0][0])
	assert.Equal(t, "Lissa", rows[1][0])
}

func TestSyncWorker_SkipsEventsOlderThanLastSync(t *testing.T) {
	mirror := memory.New()
	w := NewSyncWorker(seededStore(t), mirror, log.Discard())
	base := time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return base }

	require.NoError(t, w.Sync(context.Background()))

	old := &amqp.LedgerEvent{Kind: amqp.EventRecordAdded, Timestamp: base.Add(-time.Second)}
	require.NoError(t, w.HandleLedgerEvent(context.Background(), old))
	assert.Equal(t, 1, mirror.Replaces())

	fresh := &amqp.LedgerEvent{Kind: amqp.EventRecordDeleted, Timestamp: base.Add(time.Second)}
	require.NoError(t, w.HandleLedgerEvent(context.Background(), fresh))
	assert.Equal(t, 2, mirror.Replaces())
}

func TestSyncWorker_MirrorFailureIsReturned(t *testing.T) {
	boom := errors.New("quota exceeded")
	w := NewSyncWorker(seededStore(t), failingMirror{err: boom}, log.Discard())

	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventMonthClosed, "", "2025-10"))
	assert.ErrorIs(t, err, boom)

	// startup sync only logs
	w.StartupSync(context.Background())
}
