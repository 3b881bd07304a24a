package collector

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"EquityLens/internal/logger"
	"EquityLens/internal/model"
)

// MockFetcher serves fixed payloads for development and testing.
type MockFetcher struct {
	mu     sync.Mutex
	Files  map[string]string
	Errors map[string]error
	Calls  []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, location string) ([]byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, location)
	m.mu.Unlock()
	if err, ok := m.Errors[location]; ok {
		return nil, err
	}
	body, ok := m.Files[location]
	if !ok {
		return nil, fmt.Errorf("mock: %s not found", location)
	}
	return []byte(body), nil
}

// Source is one configured backtest trade file.
type Source struct {
	ID         string
	Label      string
	Location   string
	PnLColumns []string
}

// Sources lists everything the dashboard loads.
type Sources struct {
	Backtests     []Source
	MCStats       string
	MCPaths       string
	MCPercentiles string
}

// Data is the result of one load pass.
type Data struct {
	Datasets   []model.Dataset
	MonteCarlo model.MonteCarloData
}

// Collector fetches and parses every configured source.
type Collector struct {
	Fetcher Fetcher
	Sources Sources
	// Parallelism caps concurrent fetches; 0 means unlimited.
	Parallelism int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, sources Sources) *Collector {
	return &Collector{Fetcher: fetcher, Sources: sources, Parallelism: 4}
}

// Load fetches all sources concurrently. A failing backtest source is
// dropped and a failing Monte-Carlo file yields no rows; only an empty set
// of backtest datasets is an error.
func (c *Collector) Load(ctx context.Context) (*Data, error) {
	g, gctx := errgroup.WithContext(ctx)
	if c.Parallelism > 0 {
		g.SetLimit(c.Parallelism)
	}

	datasets := make([]*model.Dataset, len(c.Sources.Backtests))
	for i, src := range c.Sources.Backtests {
		i, src := i, src
		g.Go(func() error {
			ds, err := c.loadBacktest(gctx, src)
			if err != nil {
				logger.WithField("source", src.Label).Warnf("skipping strategy: %v", err)
				return nil
			}
			datasets[i] = ds
			return nil
		})
	}

	var mc model.MonteCarloData
	mcTargets := []struct {
		location string
		dst      *[]model.Row
	}{
		{c.Sources.MCStats, &mc.Stats},
		{c.Sources.MCPaths, &mc.Paths},
		{c.Sources.MCPercentiles, &mc.Percentiles},
	}
	for _, tgt := range mcTargets {
		tgt := tgt
		*tgt.dst = []model.Row{}
		if tgt.location == "" {
			continue
		}
		g.Go(func() error {
			rows, err := c.loadRows(gctx, tgt.location)
			if err != nil {
				logger.WithField("source", tgt.location).Warnf("monte-carlo file unavailable: %v", err)
				return nil
			}
			*tgt.dst = rows
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Data{MonteCarlo: mc}
	for _, ds := range datasets {
		if ds != nil {
			out.Datasets = append(out.Datasets, *ds)
		}
	}
	if len(out.Datasets) == 0 {
		return nil, ErrNoBacktestData
	}
	logger.Infof("loaded %d backtest dataset(s), %d mc path rows", len(out.Datasets), len(mc.Paths))
	return out, nil
}

func (c *Collector) loadRows(ctx context.Context, location string) ([]model.Row, error) {
	body, err := c.Fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, &SourceError{Source: location, Op: "fetch", Err: err}
	}
	rows, err := ParseCSV(body)
	if err != nil {
		return nil, &SourceError{Source: location, Op: "parse", Err: err}
	}
	return rows, nil
}

func (c *Collector) loadBacktest(ctx context.Context, src Source) (*model.Dataset, error) {
	rows, err := c.loadRows(ctx, src.Location)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &SourceError{Source: src.Location, Op: "load", Err: ErrEmptySource}
	}
	header := Header(rows)
	pnlColumn := ""
	for _, col := range src.PnLColumns {
		if header[col] {
			pnlColumn = col
			break
		}
	}
	if pnlColumn == "" {
		return nil, &SourceError{Source: src.Location, Op: "load", Err: ErrNoPnLColumn}
	}
	return &model.Dataset{ID: src.ID, Label: src.Label, PnLColumn: pnlColumn, Rows: rows}, nil
}
