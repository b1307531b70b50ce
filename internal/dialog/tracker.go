// Package dialog drives the per-user conversation that turns a typed amount
// into a ledger record, and the single-step edit dialog.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gastos/internal/core"
	"gastos/internal/log"

	"github.com/shopspring/decimal"
)

// Ledger is what the tracker needs to finish a dialog.
type Ledger interface {
	AddEntry(ctx context.Context, d core.Draft) (core.Record, error)
	UpdateAmount(ctx context.Context, id string, amount decimal.Decimal) (core.Record, error)
	Get(ctx context.Context, id string) (core.Record, error)
}

// Step is the outcome of one user event. State is the dialog after the
// event; Record is set when the event created or edited a record.
type Step struct {
	State  State
	Record *core.Record
	Edited bool
}

// Tracker advances dialogs. Events of the same user are serialized.
type Tracker struct {
	sessions *Sessions
	ledger   Ledger
	logger   *log.Logger

	locksMu sync.Mutex
	locks   map[int64]*userLock
}

// userLock is dropped from Tracker.locks once nobody holds or waits on it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewTracker(sessions *Sessions, ledger Ledger, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.Default(log.ComponentDialog)
	}
	return &Tracker{sessions: sessions, ledger: ledger, logger: logger, locks: make(map[int64]*userLock)}
}

func (t *Tracker) lock(userID int64) func() {
	t.locksMu.Lock()
	ul, ok := t.locks[userID]
	if !ok {
		ul = &userLock{}
		t.locks[userID] = ul
	}
	ul.refs++
	t.locksMu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		t.locksMu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(t.locks, userID)
		}
		t.locksMu.Unlock()
	}
}

func (t *Tracker) lockCount() int {
	t.locksMu.Lock()
	defer t.locksMu.Unlock()
	return len(t.locks)
}

// State returns the user's current dialog.
func (t *Tracker) State(userID int64) State {
	defer t.lock(userID)()
	return t.sessions.Get(userID)
}

// Reset drops whatever dialog the user had open.
func (t *Tracker) Reset(userID int64) {
	defer t.lock(userID)()
	t.sessions.Clear(userID)
}

// Text handles free text that is not a command.
func (t *Tracker) Text(ctx context.Context, userID int64, text string) (Step, error) {
	defer t.lock(userID)()

	st := t.sessions.Get(userID)
	text = strings.TrimSpace(text)

	switch st.Stage {
	case StageIdle, StageAwaitingOwner, StageAwaitingCategory:
		amount, err := core.ParseAmount(text)
		if err != nil {
			return Step{State: st}, err
		}
		// a new amount always starts over
		next := State{Stage: StageAwaitingOwner, Amount: amount}
		t.sessions.Put(userID, next)
		t.logger.DebugContext(ctx, "Amount received", log.FieldUserID, userID, log.FieldAmount, amount.String())
		return Step{State: next}, nil

	case StageAwaitingFixedLabel:
		if text == "" {
			return Step{State: st}, core.ErrEmptyLabel
		}
		st.Label = text
		return t.finish(ctx, userID, st, st.draft())

	case StageAwaitingInstallmentLabel:
		if text == "" {
			return Step{State: st}, core.ErrEmptyLabel
		}
		st.Label = core.NormalizeLabel(text)
		st.Stage = StageAwaitingInstallmentCount
		t.sessions.Put(userID, st)
		return Step{State: st}, nil

	case StageAwaitingInstallmentCount:
		n, err := core.ParseInstallmentCount(text)
		if err != nil {
			return Step{State: st}, err
		}
		d := st.draft()
		d.Installments = n
		return t.finish(ctx, userID, st, d)

	case StageEditing:
		amount, err := core.ParseAmount(text)
		if err != nil {
			return Step{State: st}, err
		}
		rec, err := t.ledger.UpdateAmount(ctx, st.EditID, amount)
		if errors.Is(err, core.ErrRecordNotFound) {
			t.sessions.Clear(userID)
			return Step{}, err
		}
		if err != nil {
			return Step{State: st}, fmt.Errorf("update amount: %w", err)
		}
		t.sessions.Clear(userID)
		return Step{Record: &rec, Edited: true}, nil
	}

	t.sessions.Clear(userID)
	return Step{}, fmt.Errorf("%w: unexpected stage %s", core.ErrMissingPrecondition, st.Stage)
}

// SelectOwner records who spent the pending amount.
func (t *Tracker) SelectOwner(ctx context.Context, userID int64, owner core.Owner) (Step, error) {
	defer t.lock(userID)()

	st := t.sessions.Get(userID)
	if (st.Stage != StageAwaitingOwner && st.Stage != StageAwaitingCategory) || !st.Amount.IsPositive() {
		t.sessions.Clear(userID)
		return Step{}, fmt.Errorf("%w: owner selected at %s", core.ErrMissingPrecondition, st.Stage)
	}
	if err := owner.Validate(); err != nil {
		return Step{State: st}, err
	}

	st.Owner = owner
	st.Stage = StageAwaitingCategory
	t.sessions.Put(userID, st)
	return Step{State: st}, nil
}

// SelectCategory classifies the pending amount. Simple categories finish
// the dialog right away.
func (t *Tracker) SelectCategory(ctx context.Context, userID int64, category core.Category) (Step, error) {
	defer t.lock(userID)()

	st := t.sessions.Get(userID)
	if st.Stage != StageAwaitingCategory || !st.Amount.IsPositive() || st.Owner == "" {
		t.sessions.Clear(userID)
		return Step{}, fmt.Errorf("%w: category selected at %s", core.ErrMissingPrecondition, st.Stage)
	}
	if err := category.Validate(); err != nil {
		return Step{State: st}, err
	}

	st.Category = category
	switch {
	case category.IsFixed():
		st.Stage = StageAwaitingFixedLabel
	case category.IsInstallment():
		st.Stage = StageAwaitingInstallmentLabel
	default:
		return t.finish(ctx, userID, st, st.draft())
	}
	t.sessions.Put(userID, st)
	return Step{State: st}, nil
}

// BeginEdit opens the edit dialog for a record and returns it so the caller
// can show the current amount.
func (t *Tracker) BeginEdit(ctx context.Context, userID int64, id string) (core.Record, error) {
	defer t.lock(userID)()

	rec, err := t.ledger.Get(ctx, id)
	if err != nil {
		t.sessions.Clear(userID)
		return core.Record{}, err
	}
	t.sessions.Put(userID, State{Stage: StageEditing, EditID: id})
	return rec, nil
}

// finish appends the record. On failure the dialog stays where it was so
// the user can answer again.
func (t *Tracker) finish(ctx context.Context, userID int64, st State, d core.Draft) (Step, error) {
	rec, err := t.ledger.AddEntry(ctx, d)
	if err != nil {
		t.sessions.Put(userID, st)
		return Step{State: st}, err
	}
	t.sessions.Clear(userID)
	t.logger.InfoContext(ctx, "Dialog completed",
		log.FieldUserID, userID,
		log.FieldRecordID, rec.ID,
		log.FieldCategory, string(rec.Category))
	return Step{Record: &rec}, nil
}
