package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"

	"github.com/shopspring/decimal"
)

// EventPublisher announces ledger changes. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// LedgerService serializes every load, mutate and save cycle on the ledger
// and publishes a change event after each successful save.
type LedgerService struct {
	mu       sync.Mutex
	store    storage.Store
	events   EventPublisher
	location *time.Location
	now      func() time.Time
	logger   *log.Logger
}

type Option func(*LedgerService)

// WithLocation sets the zone period keys are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *LedgerService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

// WithEvents enables change events. A nil publisher leaves them off.
func WithEvents(p EventPublisher) Option {
	return func(s *LedgerService) { s.events = p }
}

func NewLedgerService(store storage.Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:    store,
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default(log.ComponentLedger)
	}
	return s
}

// Now returns the current time in the ledger's zone.
func (s *LedgerService) Now() time.Time {
	return s.now().In(s.location)
}

func (s *LedgerService) Period() core.PeriodKey {
	return core.PeriodOf(s.Now())
}

func (s *LedgerService) Location() *time.Location {
	return s.location
}

// Snapshot returns the stored ledger. Repairs made while loading are saved
// first so ids handed out in a listing survive until the next edit.
func (s *LedgerService) Snapshot(ctx context.Context) (*core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, _, err := s.load(ctx)
	return l, err
}

func (s *LedgerService) Get(ctx context.Context, id string) (core.Record, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return core.Record{}, err
	}
	return l.Get(id)
}

// Summary lists the ledger for the current period.
func (s *LedgerService) Summary(ctx context.Context) (core.MonthOverview, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return core.MonthOverview{}, err
	}
	return core.Summarize(l, s.Period()), nil
}

// load reads the ledger and normalizes it. When normalizing changed
// anything the repaired document is written back before returning.
// Callers hold s.mu.
func (s *LedgerService) load(ctx context.Context) (*core.Ledger, int, error) {
	l, err := s.store.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load ledger: %w", err)
	}
	repaired := l.Normalize()
	if repaired == 0 {
		return l, 0, nil
	}
	if err := s.store.Save(ctx, l); err != nil {
		return nil, 0, fmt.Errorf("save repaired ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger records repaired", log.FieldRecords, repaired)
	return l, repaired, nil
}

// update runs fn on the loaded ledger and saves it when fn reports a change.
// repaired is how many records load had to fix.
func (s *LedgerService) update(ctx context.Context, fn func(l *core.Ledger, repaired int) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, repaired, err := s.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(l, repaired)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.store.Save(ctx, l); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// AddEntry builds a record from d and appends it to the ledger.
func (s *LedgerService) AddEntry(ctx context.Context, d core.Draft) (core.Record, error) {
	rec, err := core.BuildRecord(d, s.Now())
	if err != nil {
		return core.Record{}, err
	}
	err = s.update(ctx, func(l *core.Ledger, _ int) (bool, error) {
		l.Append(rec)
		return true, nil
	})
	if err != nil {
		return core.Record{}, err
	}

	s.logger.InfoContext(ctx, "Expense registered",
		log.NewFields().
			WithRecord(rec.ID, string(rec.Owner), string(rec.Category), rec.Amount.String()).
			WithOperation(log.OpCreate).
			ToSlice()...)
	s.publish(ctx, amqp.EventRecordAdded, rec.ID)
	return rec, nil
}

func (s *LedgerService) UpdateAmount(ctx context.Context, id string, amount decimal.Decimal) (core.Record, error) {
	var rec core.Record
	err := s.update(ctx, func(l *core.Ledger, _ int) (bool, error) {
		var err error
		rec, err = l.UpdateAmount(id, amount)
		return err == nil, err
	})
	if err != nil {
		return core.Record{}, err
	}

	s.logger.InfoContext(ctx, "Expense amount updated",
		log.FieldRecordID, rec.ID,
		log.FieldAmount, rec.Amount.String(),
		log.FieldOperation, log.OpUpdate)
	s.publish(ctx, amqp.EventRecordUpdated, rec.ID)
	return rec, nil
}

// Delete removes exactly the record with the given id.
func (s *LedgerService) Delete(ctx context.Context, id string) (core.Record, error) {
	var rec core.Record
	err := s.update(ctx, func(l *core.Ledger, _ int) (bool, error) {
		var err error
		rec, err = l.Delete(id)
		return err == nil, err
	})
	if err != nil {
		return core.Record{}, err
	}

	s.logger.InfoContext(ctx, "Expense deleted",
		log.FieldRecordID, rec.ID,
		log.FieldOperation, log.OpDelete)
	s.publish(ctx, amqp.EventRecordDeleted, rec.ID)
	return rec, nil
}

// Rollover applies the installment rollover for the current period and
// saves only when something changed.
func (s *LedgerService) Rollover(ctx context.Context) (RolloverResult, error) {
	res, err := s.rollover(ctx)
	if err != nil {
		return res, err
	}
	if res.Changed() {
		s.publish(ctx, amqp.EventRolledOver, "")
	}
	return res, nil
}

// CloseMonth is the user-confirmed month close. It runs the same rollover
// and always announces the close.
func (s *LedgerService) CloseMonth(ctx context.Context) (RolloverResult, error) {
	res, err := s.rollover(ctx)
	if err != nil {
		return res, err
	}
	s.publish(ctx, amqp.EventMonthClosed, "")
	return res, nil
}

func (s *LedgerService) rollover(ctx context.Context) (RolloverResult, error) {
	period := s.Period()
	var res RolloverResult
	err := s.update(ctx, func(l *core.Ledger, repaired int) (bool, error) {
		res = Rollover(l, period)
		saveNeeded := res.Changed()
		res.Repaired += repaired
		return saveNeeded, nil
	})
	if err != nil {
		return RolloverResult{Period: period}, fmt.Errorf("rollover %s: %w", period, err)
	}

	if res.Changed() {
		s.logger.InfoContext(ctx, "Rollover applied",
			log.FieldPeriod, string(period),
			"decremented", res.Decremented,
			"pruned", res.Pruned,
			"repaired", res.Repaired)
	} else {
		s.logger.DebugContext(ctx, "Rollover found nothing to do", log.FieldPeriod, string(period))
	}
	return res, nil
}

// publish never fails the caller; the ledger is already saved.
func (s *LedgerService) publish(ctx context.Context, kind amqp.EventKind, recordID string) {
	if s.events == nil {
		return
	}
	ev := amqp.NewLedgerEvent(kind, recordID, string(s.Period()))
	if err := s.events.PublishLedgerEvent(ctx, ev); err != nil {
		msg := "Failed to publish ledger event"
		if errors.Is(err, amqp.ErrCircuitOpen) {
			msg = "Ledger event dropped, broker unavailable"
		}
		s.logger.WarnContext(ctx, msg,
			log.FieldEventKind, string(kind),
			log.FieldRecordID, recordID,
			log.FieldError, err)
	}
}

// Close releases the store.
func (s *LedgerService) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
