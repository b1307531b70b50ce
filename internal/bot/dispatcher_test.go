package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"gastos/internal/core"
	"gastos/internal/dialog"
	"gastos/internal/log"
	"gastos/internal/report"
	"gastos/internal/services"
	"gastos/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user int64 = 7

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	d     *Dispatcher
	svc   *services.LedgerService
	clock *testClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := &testClock{now: time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)}
	svc := services.NewLedgerService(storage.NewMemoryStore(),
		services.WithClock(clk.Now),
		services.WithLogger(log.Discard()))
	tracker := dialog.NewTracker(dialog.NewSessions(10, time.Hour), svc, log.Discard())
	return fixture{d: NewDispatcher(svc, tracker, log.Discard()), svc: svc, clock: clk}
}

func (f fixture) records(t *testing.T) []core.Record {
	t.Helper()
	l, err := f.svc.Snapshot(context.Background())
	require.NoError(t, err)
	return l.Records
}

func optionData(r Reply) []string {
	var out []string
	for _, row := range r.Options {
		for _, o := range row {
			out = append(out, o.Data)
		}
	}
	return out
}

func TestDispatcher_InstallmentScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	r := f.d.HandleText(ctx, user, "150")
	assert.Contains(t, r.Text, "R$ 150.00")
	assert.Equal(t, []string{"owner:lissa", "owner:leonardo", "owner:nosso"}, optionData(r))

	r = f.d.HandleSelection(ctx, user, "owner:leonardo")
	assert.Contains(t, r.Text, "*Leonardo*")
	assert.Len(t, r.Options, len(core.Categories))

	r = f.d.HandleSelection(ctx, user, "category:shopping")
	assert.Equal(t, "Digite o nome do produto para 🛍️ Compras:", r.Text)

	r = f.d.HandleText(ctx, user, "tv")
	assert.Equal(t, msgInstallmentCount, r.Text)

	r = f.d.HandleText(ctx, user, "3")
	assert.True(t, r.Markdown)
	assert.Contains(t, r.Text, "3x de R$ 50.00")
	assert.Contains(t, r.Text, "*TV*")

	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].InstallmentsRemaining)

	r = f.d.HandleText(ctx, user, "info")
	assert.Contains(t, r.Text, "R$ 50.00 (parcela do mês) (3 restantes)")
	assert.Equal(t, []string{"edit:" + recs[0].ID, "delete:" + recs[0].ID}, optionData(r))
}

func TestDispatcher_SimpleScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.d.HandleText(ctx, user, "45.50")
	f.d.HandleSelection(ctx, user, "owner:lissa")
	r := f.d.HandleSelection(ctx, user, "category:fuel")

	assert.Contains(t, r.Text, "Gasto registrado!")
	assert.Contains(t, r.Text, "R$ 45.50")
	require.Len(t, f.records(t), 1)
}

func TestDispatcher_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup []string // text messages sent first
		event func(d *Dispatcher) Reply
		want  string
	}{
		{
			name:  "invalid amount",
			event: func(d *Dispatcher) Reply { return d.HandleText(ctx, user, "abc") },
			want:  msgInvalidAmount,
		},
		{
			name:  "category before amount",
			event: func(d *Dispatcher) Reply { return d.HandleSelection(ctx, user, "category:market") },
			want:  msgMissingState,
		},
		{
			name:  "unknown owner tag",
			setup: []string{"10"},
			event: func(d *Dispatcher) Reply { return d.HandleSelection(ctx, user, "owner:bob") },
			want:  msgInvalidOption,
		},
		{
			name:  "unknown selection",
			event: func(d *Dispatcher) Reply { return d.HandleSelection(ctx, user, "editar_0") },
			want:  msgInvalidOption,
		},
		{
			name:  "delete missing record",
			event: func(d *Dispatcher) Reply { return d.HandleSelection(ctx, user, "delete:nope") },
			want:  msgNotFound,
		},
		{
			name:  "edit missing record",
			event: func(d *Dispatcher) Reply { return d.HandleSelection(ctx, user, "edit:nope") },
			want:  msgNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, s := range tt.setup {
				f.d.HandleText(ctx, user, s)
			}
			r := tt.event(f.d)
			assert.Equal(t, tt.want, r.Text)
			assert.Empty(t, f.records(t))
		})
	}
}

func TestDispatcher_InvalidInstallmentCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.d.HandleText(ctx, user, "100")
	f.d.HandleSelection(ctx, user, "owner:nosso")
	f.d.HandleSelection(ctx, user, "category:virtual")
	f.d.HandleText(ctx, user, "curso")

	for _, in := range []string{"0", "-2", "dois"} {
		r := f.d.HandleText(ctx, user, in)
		assert.Equal(t, msgInvalidInstallment, r.Text, in)
	}
	assert.Empty(t, f.records(t))

	r := f.d.HandleText(ctx, user, "4")
	assert.Contains(t, r.Text, "4x de R$ 25.00")
}

func TestDispatcher_Commands(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, cmd := range []string{"ajuda", " AJUDA ", "help"} {
		r := f.d.HandleText(ctx, user, cmd)
		assert.True(t, r.Markdown)
		assert.Equal(t, report.Help(), r.Text)
	}

	r := f.d.HandleText(ctx, user, "Fechamento")
	assert.Equal(t, report.MsgNoExpenses, r.Text)
	assert.Empty(t, r.Options)

	r = f.d.HandleText(ctx, user, "gerar resumo")
	require.NotNil(t, r.Document)
	assert.Equal(t, "resumo_gastos.xlsx", r.Document.Name)
	assert.NotEmpty(t, r.Document.Data)

	r = f.d.HandleText(ctx, user, "generate summary")
	require.NotNil(t, r.Document)

	r = f.d.HandleStart(ctx, user)
	assert.Equal(t, report.MsgGreeting, r.Text)
}

func TestDispatcher_EditAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.d.HandleText(ctx, user, "80")
	f.d.HandleSelection(ctx, user, "owner:lissa")
	f.d.HandleSelection(ctx, user, "category:market")
	f.d.HandleText(ctx, user, "20")
	f.d.HandleSelection(ctx, user, "owner:leonardo")
	f.d.HandleSelection(ctx, user, "category:snacks")

	recs := f.records(t)
	require.Len(t, recs, 2)

	r := f.d.HandleSelection(ctx, user, "edit:"+recs[0].ID)
	assert.Equal(t, "Digite o novo valor para gasto (atual R$ 80.00):", r.Text)
	r = f.d.HandleText(ctx, user, "85,90")
	assert.Equal(t, msgUpdated, r.Text)

	r = f.d.HandleSelection(ctx, user, "delete:"+recs[1].ID)
	assert.Equal(t, msgDeleted, r.Text)

	recs = f.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "85.9", recs[0].Amount.String())
}

func TestDispatcher_CloseMonth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.d.HandleText(ctx, user, "150")
	f.d.HandleSelection(ctx, user, "owner:leonardo")
	f.d.HandleSelection(ctx, user, "category:shopping")
	f.d.HandleText(ctx, user, "tv")
	f.d.HandleText(ctx, user, "3")

	r := f.d.HandleText(ctx, user, "fechamento")
	assert.Contains(t, r.Text, "FECHAMENTO DO MÊS")
	assert.Equal(t, []string{CloseConfirm, CloseCancel}, optionData(r))

	r = f.d.HandleSelection(ctx, user, CloseCancel)
	assert.Equal(t, msgCloseCancelled, r.Text)

	// Closing within the creation month changes nothing.
	r = f.d.HandleSelection(ctx, user, CloseConfirm)
	assert.Equal(t, msgClosed, r.Text)
	assert.Equal(t, 3, f.records(t)[0].InstallmentsRemaining)

	// Next month: /start and the close both run, only one decrement lands.
	f.clock.advance(31 * 24 * time.Hour)
	f.d.HandleStart(ctx, user)
	f.d.HandleSelection(ctx, user, CloseConfirm)
	assert.Equal(t, 2, f.records(t)[0].InstallmentsRemaining)
}

func TestDispatcher_SummaryEscapesLabels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.d.HandleText(ctx, user, "50")
	f.d.HandleSelection(ctx, user, "owner:nosso")
	f.d.HandleSelection(ctx, user, "category:fixed")
	f.d.HandleText(ctx, user, "luz_agua")

	r := f.d.HandleText(ctx, user, "info")
	assert.True(t, strings.Contains(r.Text, `LUZ\_AGUA`), r.Text)
}

func TestDispatcher_StartDropsDialog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.d.HandleText(ctx, user, "80")
	require.Equal(t, dialog.StageAwaitingOwner, f.d.tracker.State(user).Stage)

	r := f.d.HandleStart(ctx, user)
	assert.Equal(t, report.MsgGreeting, r.Text)
	assert.Equal(t, dialog.StageIdle, f.d.tracker.State(user).Stage)

	r = f.d.HandleSelection(ctx, user, "owner:lissa")
	assert.Equal(t, msgMissingState, r.Text)
	assert.Empty(t, f.records(t))
}

func TestDispatcher_SummaryIsPaged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const n = 130
	for i := 0; i < n; i++ {
		_, err := f.svc.AddEntry(ctx, core.Draft{
			Owner:    core.OwnerJoint,
			Category: core.CategoryMarket,
			Amount:   decimal.NewFromInt(int64(i + 1)),
			Label:    strings.Repeat("mercado ", 8),
		})
		require.NoError(t, err)
	}

	r := f.d.HandleText(ctx, user, "info")
	pages := append([]Reply{r}, r.More...)
	require.Greater(t, len(pages), 1)

	var data []string
	for i, p := range pages {
		assert.True(t, p.Markdown)
		assert.LessOrEqual(t, utf8.RuneCountInString(p.Text), report.MaxMessageRunes, "page %d", i)
		assert.LessOrEqual(t, len(optionData(p)), 100, "page %d", i)
		assert.Empty(t, p.More, "page %d", i)
		data = append(data, optionData(p)...)
	}
	assert.Len(t, data, 2*n)

	recs := f.records(t)
	assert.Equal(t, "edit:"+recs[0].ID, data[0])
	assert.Equal(t, "delete:"+recs[n-1].ID, data[len(data)-1])
	assert.Contains(t, pages[len(pages)-1].Text, "*TOTAL DO MÊS:*")
}
