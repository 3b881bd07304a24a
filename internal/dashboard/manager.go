package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"EquityLens/internal/analytics"
	"EquityLens/internal/calculator"
	"EquityLens/internal/collector"
	"EquityLens/internal/config"
	"EquityLens/internal/logger"
	"EquityLens/internal/model"
)

// ErrNotLoaded is returned before the first successful load.
var ErrNotLoaded = errors.New("dashboard data not loaded")

// Loader fetches the source data.
type Loader interface {
	Load(ctx context.Context) (*collector.Data, error)
}

// Snapshot is one wholesale computation pass. It is never modified after
// being published.
type Snapshot struct {
	ID           string
	ComputedAt   time.Time
	Settings     config.Settings
	Window       analytics.Window
	Backtests    []model.MetricsResult
	Sources      map[analytics.Scenario]model.MetricsResult
	DatasetStart string
	DatasetEnd   string
	MCSummary    model.MCSummary
	Fan          []model.FanPoint
}

// Options configure a Manager.
type Options struct {
	PerformanceStart string
	MCAnchor         time.Time
	Defaults         config.Settings
	Now              func() time.Time
}

// Manager owns the loaded data, the active settings and the current snapshot.
type Manager struct {
	mu       sync.RWMutex
	loader   Loader
	opts     Options
	data     *collector.Data
	settings config.Settings
	snap     *Snapshot
}

// NewManager creates a Manager. Nothing is loaded until Reload.
func NewManager(loader Loader, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PerformanceStart == "" {
		opts.PerformanceStart = analytics.PerformanceStart
	}
	if opts.MCAnchor.IsZero() {
		opts.MCAnchor, _ = calculator.ParseIsoDate(analytics.PerformanceStart)
	}
	settings := opts.Defaults
	settings.Normalize(config.BuiltinSettings())
	opts.Defaults = settings
	return &Manager{loader: loader, opts: opts, settings: settings}
}

// Reload fetches all sources and recomputes. On failure the previous data
// stays active.
func (m *Manager) Reload(ctx context.Context) error {
	data, err := m.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.snap = m.compute(data, m.settings)
	logger.WithField("snapshot", m.snap.ID).Infof("recomputed %d backtest(s)", len(m.snap.Backtests))
	return nil
}

// Refresh recomputes with the current settings, rolling the window to today.
func (m *Manager) Refresh() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return ErrNotLoaded
	}
	m.snap = m.compute(m.data, m.settings)
	return nil
}

// Apply validates s, recomputes and publishes a new snapshot. Invalid fields
// are reverted to defaults and reported.
func (m *Manager) Apply(s config.Settings) (Snapshot, []string, error) {
	reverted := s.Normalize(m.opts.Defaults)
	if len(reverted) > 0 {
		logger.Warnf("reverted invalid settings: %v", reverted)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	if m.data == nil {
		return Snapshot{}, reverted, ErrNotLoaded
	}
	m.snap = m.compute(m.data, s)
	return *m.snap, reverted, nil
}

// Settings returns the active settings.
func (m *Manager) Settings() config.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Snapshot returns the current snapshot.
func (m *Manager) Snapshot() (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return Snapshot{}, ErrNotLoaded
	}
	return *m.snap, nil
}

// Source returns the result for a scenario, falling back to the backtest.
func (s Snapshot) Source(sc analytics.Scenario) model.MetricsResult {
	if res, ok := s.Sources[sc]; ok {
		return res
	}
	return s.Sources[analytics.ScenarioBacktest]
}

// Active returns the result for the scenario the snapshot was computed with.
func (s Snapshot) Active() model.MetricsResult {
	return s.Source(s.Settings.Scenario)
}

// Source returns the result for a scenario, falling back to the backtest.
func (m *Manager) Source(sc analytics.Scenario) (model.MetricsResult, error) {
	snap, err := m.Snapshot()
	if err != nil {
		return model.MetricsResult{}, err
	}
	return snap.Source(sc), nil
}

// Active returns the result for the selected scenario.
func (m *Manager) Active() (model.MetricsResult, error) {
	snap, err := m.Snapshot()
	if err != nil {
		return model.MetricsResult{}, err
	}
	return snap.Active(), nil
}

// PathStats summarizes a percentile path. An empty pathKey uses the active
// setting, an empty start the window start and an empty end today.
func (m *Manager) PathStats(pathKey, startIso, endIso string) (model.PathStats, error) {
	m.mu.RLock()
	data, settings := m.data, m.settings
	m.mu.RUnlock()
	if data == nil {
		return model.PathStats{}, ErrNotLoaded
	}
	if pathKey == "" {
		pathKey = settings.MCPathKey
	}
	if startIso == "" {
		startIso = m.opts.PerformanceStart
	}
	if endIso == "" {
		endIso = calculator.IsoDate(m.opts.Now())
	}
	return analytics.PathStats(data.MonteCarlo.Percentiles, pathKey, startIso, endIso, m.opts.MCAnchor)
}

func (m *Manager) compute(data *collector.Data, s config.Settings) *Snapshot {
	w := analytics.NewWindow(m.opts.PerformanceStart, m.opts.Now())
	params := analytics.Params{StartingEquity: s.StartingCapital, BetSize: s.BetSize, Window: w}
	backtests := analytics.ComputeBacktests(data.Datasets, s.AssetFilter, params)

	snap := &Snapshot{
		ID:         uuid.NewString(),
		ComputedAt: m.opts.Now().UTC(),
		Settings:   s,
		Window:     w,
		Backtests:  backtests,
		Sources:    map[analytics.Scenario]model.MetricsResult{},
		MCSummary:  analytics.MCSummary(data.MonteCarlo.Stats),
		Fan:        analytics.FanChart(data.MonteCarlo.Paths),
	}
	snap.DatasetStart, snap.DatasetEnd = analytics.DatasetWindow(backtests)
	if len(backtests) > 0 {
		snap.Sources = analytics.BuildSources(backtests[0], data.MonteCarlo.Paths, m.opts.MCAnchor, w)
	}
	return snap
}
