package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/log"
	"gastos/internal/report"
	"gastos/internal/sheets"
	"gastos/internal/storage"
)

// SyncWorker rewrites the Sheets mirror from the stored ledger whenever a
// ledger event arrives. Events carry no data, so a burst of them collapses
// into the first sync that starts after the last one was published.
type SyncWorker struct {
	store  storage.Store
	mirror sheets.LedgerMirror
	logger *log.Logger

	mu         sync.Mutex
	lastSynced time.Time
	now        func() time.Time
}

func NewSyncWorker(store storage.Store, mirror sheets.LedgerMirror, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &SyncWorker{store: store, mirror: mirror, logger: logger, now: time.Now}
}

// HandleLedgerEvent is the AMQP handler. A returned error requeues the event.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	w.mu.Lock()
	stale := !w.lastSynced.IsZero() && ev.Timestamp.Before(w.lastSynced)
	w.mu.Unlock()
	if stale {
		w.logger.DebugContext(ctx, "Ledger event already covered by a later sync",
			log.FieldEventKind, string(ev.Kind),
			log.FieldRecordID, ev.RecordID)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldEventKind, string(ev.Kind),
		log.FieldRecordID, ev.RecordID,
		log.FieldPeriod, ev.Period)
	return w.Sync(ctx)
}

// Sync mirrors the current ledger unconditionally.
func (w *SyncWorker) Sync(ctx context.Context) error {
	started := w.now()

	l, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	// Read-only view; the bot persists repairs.
	l.Normalize()
	if err := w.mirror.Replace(ctx, report.Rows(l)); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}

	w.mu.Lock()
	if started.After(w.lastSynced) {
		w.lastSynced = started
	}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Ledger mirrored", log.FieldRecords, l.Len())
	return nil
}

// StartupSync mirrors once before consuming so the sheet reflects changes
// made while the worker was down. Failures are logged only.
func (w *SyncWorker) StartupSync(ctx context.Context) {
	if err := w.Sync(ctx); err != nil {
		w.logger.WarnContext(ctx, "Startup sync failed", log.FieldError, err)
	}
}
