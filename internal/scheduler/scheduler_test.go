package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityLens/internal/collector"
	"EquityLens/internal/config"
	"EquityLens/internal/dashboard"
	"EquityLens/internal/model"
)

type stubLoader struct {
	data *collector.Data
	err  error
}

func (s *stubLoader) Load(context.Context) (*collector.Data, error) {
	return s.data, s.err
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingSender) SendWithRetry(_ context.Context, text string, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, text)
	return nil
}

func fixtureData() *collector.Data {
	return &collector.Data{
		Datasets: []model.Dataset{{
			ID:        "s1",
			Label:     "Strat",
			PnLColumn: "pnl_usd_100",
			Rows: []model.Row{
				{"market_end_time_utc": "2025-01-01T21:00:00Z", "asset": "spx", "stake_usd": "100", "base_pnl_usd": "50"},
				{"market_end_time_utc": "2025-01-15T21:00:00Z", "asset": "ndx", "stake_usd": "100", "base_pnl_usd": "-20"},
			},
		}},
		MonteCarlo: model.MonteCarloData{
			Stats: []model.Row{{"median_return_pct": "10"}},
			Percentiles: []model.Row{
				{"day": "1", "p50": "10000"},
				{"day": "2", "p50": "10100"},
			},
		},
	}
}

func newTestScheduler(t *testing.T, l dashboard.Loader, load bool) (*Scheduler, *recordingSender) {
	t.Helper()
	m := dashboard.NewManager(l, dashboard.Options{
		Defaults: config.BuiltinSettings(),
		Now:      func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
	})
	if load {
		require.NoError(t, m.Reload(context.Background()))
	}
	rs := &recordingSender{}
	return NewScheduler(context.Background(), m, rs), rs
}

func TestHandleCommand_Summary(t *testing.T) {
	s, _ := newTestScheduler(t, &stubLoader{data: fixtureData()}, true)

	out := s.HandleCommand("/summary")
	assert.Contains(t, out, "Ending equity: $10,030.00")
	assert.Contains(t, out, "Historical Backtest")
	assert.Equal(t, out, s.HandleCommand("/summary@EquityLensBot"))
}

func TestHandleCommand_Settings(t *testing.T) {
	s, _ := newTestScheduler(t, &stubLoader{data: fixtureData()}, true)

	assert.Contains(t, s.HandleCommand("/bet 200"), "Ending equity: $10,060.00")
	assert.Equal(t, 200.0, s.Manager.Settings().BetSize)

	assert.Contains(t, s.HandleCommand("/bet $100"), "Ending equity: $10,030.00")
	assert.Contains(t, s.HandleCommand("/asset SPX"), "Ending equity: $10,050.00")
	assert.Contains(t, s.HandleCommand("/capital 20000"), "Ending equity: $20,050.00")

	assert.Contains(t, s.HandleCommand("/bet abc"), "invalid amount &#34;abc&#34;")
	assert.Contains(t, s.HandleCommand("/bet <b>"), "invalid amount &#34;&lt;b&gt;&#34;")
	assert.Contains(t, s.HandleCommand("/bet"), "usage: /bet VALUE")

	out := s.HandleCommand("/scenario bogus")
	assert.Contains(t, out, "reverted to default: scenario")
	assert.Contains(t, s.HandleCommand("/settings"), "Asset: spx")
}

func TestHandleCommand_MonthlyAndMC(t *testing.T) {
	s, _ := newTestScheduler(t, &stubLoader{data: fixtureData()}, true)

	out := s.HandleCommand("/monthly")
	assert.Contains(t, out, "<b>2025</b>")
	assert.Contains(t, out, "Jan: +0.30%")

	out = s.HandleCommand("/mc")
	assert.Contains(t, out, "Median return: +10.00%")
	assert.Contains(t, out, "Path p50")
}

func TestHandleCommand_HelpAndNotLoaded(t *testing.T) {
	s, _ := newTestScheduler(t, &stubLoader{err: collector.ErrNoBacktestData}, false)

	assert.Contains(t, s.HandleCommand("hello"), "Commands:")
	assert.Contains(t, s.HandleCommand(""), "Commands:")
	assert.Contains(t, s.HandleCommand("/summary"), dashboard.ErrNotLoaded.Error())
}

func TestRefreshTask(t *testing.T) {
	loader := &stubLoader{data: fixtureData()}
	s, rs := newTestScheduler(t, loader, true)

	loader.data, loader.err = nil, errors.New("network down")
	s.refreshTask()
	assert.Empty(t, rs.msgs)
	assert.Contains(t, s.HandleCommand("/summary"), "$10,030.00")

	cold, coldSender := newTestScheduler(t, &stubLoader{err: errors.New("network down")}, false)
	cold.refreshTask()
	require.Len(t, coldSender.msgs, 1)
	assert.Contains(t, coldSender.msgs[0], "data refresh failed")
}

func TestDigest(t *testing.T) {
	s, rs := newTestScheduler(t, &stubLoader{data: fixtureData()}, true)
	s.RunDigestNow()
	require.Len(t, rs.msgs, 1)
	assert.Contains(t, rs.msgs[0], "$10,030.00")

	s.Notifier = nil
	assert.NotPanics(t, s.RunDigestNow)
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t, &stubLoader{data: fixtureData()}, false)
	require.NoError(t, s.RegisterAll("0 5 0 * * *", ""))
	assert.Len(t, s.Cron.Entries(), 1)
	require.NoError(t, s.RegisterAll("0 5 0 * * *", "0 0 8 * * 1"))
	assert.Len(t, s.Cron.Entries(), 3)

	err := s.RegisterAll("not a cron", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register refresh task")
}
