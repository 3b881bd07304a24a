package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityLens/internal/model"
)

func day(iso string) time.Time {
	t, _ := time.Parse("2006-01-02", iso)
	return t
}

func TestComputeSeriesStats_TooFewPoints(t *testing.T) {
	stats := ComputeSeriesStats([]model.EquityPoint{
		{Date: day("2025-01-01"), Equity: 100},
		{Date: day("2025-01-02"), Equity: math.NaN()},
		{Equity: 50},
	})
	assert.Equal(t, 0, stats.Trades)
	assert.True(t, math.IsNaN(stats.EndingEquity))
	assert.True(t, math.IsNaN(stats.CAGRPct))
	assert.True(t, math.IsNaN(stats.MaxDrawdown.Pct))
	assert.Empty(t, stats.MonthlyReturns)
}

func TestComputeSeriesStats_Unordered(t *testing.T) {
	stats := ComputeSeriesStats([]model.EquityPoint{
		{Date: day("2025-02-10"), Equity: 1100},
		{Date: day("2025-01-01"), Equity: 1000},
		{Date: day("2025-01-20"), Equity: 1200},
	})
	assert.Equal(t, 2, stats.Trades)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 2.0, stats.ProfitFactor, 1e-9)
	assert.Equal(t, 1100.0, stats.EndingEquity)
	assert.InDelta(t, 100.0/1200*100, stats.MaxDrawdown.Pct, 1e-9)
	assert.Equal(t, "2025-01-20", stats.MaxDrawdown.Start)
	assert.Equal(t, "2025-02-10", stats.MaxDrawdown.End)
	assert.Equal(t, 21.0, stats.MaxDrawdown.DurationDays)

	require.Len(t, stats.MonthlyReturns, 2)
	assert.Equal(t, "2025-01", stats.MonthlyReturns[0].MonthKey)
	assert.InDelta(t, 200.0, stats.MonthlyReturns[0].PnL, 1e-9)
	assert.Equal(t, 1200.0, stats.MonthlyReturns[1].StartEquity)
	assert.Equal(t, "2025-01-01", stats.PeriodStart)
	assert.Equal(t, "2025-02-10", stats.PeriodEnd)
	assert.Len(t, stats.DrawdownPct, 3)
}

func TestComputeSeriesStats_AgreesWithBacktest(t *testing.T) {
	res := ComputeBacktest("Strat", sampleRows(), "new_total_pnl_usd", testParams(time.Date(2025, 6, 30, 8, 0, 0, 0, time.UTC)))
	stats := ComputeSeriesStats(EquityPoints(res))

	assert.Equal(t, res.Trades, stats.Trades)
	assert.Equal(t, res.Wins, stats.Wins)
	assert.Equal(t, res.Losses, stats.Losses)
	assert.InDelta(t, res.ProfitFactor, stats.ProfitFactor, 1e-9)
	assert.InDelta(t, res.CAGRPct, stats.CAGRPct, 1e-9)
	assert.InDelta(t, res.EndingEquity, stats.EndingEquity, 1e-9)
	assert.InDelta(t, res.MaxDrawdown.Pct, stats.MaxDrawdown.Pct, 1e-9)

	require.Len(t, stats.MonthlyReturns, len(res.MonthlyReturns))
	for i := range res.MonthlyReturns {
		assert.Equal(t, res.MonthlyReturns[i].MonthKey, stats.MonthlyReturns[i].MonthKey)
		assert.InDelta(t, res.MonthlyReturns[i].PnL, stats.MonthlyReturns[i].PnL, 1e-9)
	}
}

func TestComputeSeriesStats_AgreesWithStitched(t *testing.T) {
	hist, w := stitchFixture(t)
	res := Stitch(hist, mcSeries(), "Sim", w)
	require.True(t, res.Anchored)

	points := EquityPoints(res)
	require.Len(t, points, len(res.Equity))
	stats := ComputeSeriesStats(points)

	assert.Equal(t, 10, res.Trades)
	assert.Equal(t, res.Trades, stats.Trades)
	assert.Equal(t, res.Wins, stats.Wins)
	assert.Equal(t, res.Losses, stats.Losses)
	assert.InDelta(t, res.EndingEquity, stats.EndingEquity, 1e-9)
	assert.InDelta(t, res.MaxDrawdown.Pct, stats.MaxDrawdown.Pct, 1e-9)
}

func TestEquityPoints_Anchor(t *testing.T) {
	res := model.MetricsResult{
		StartingEquity: 500,
		Labels:         []string{"2025-01-05", "bad", "2025-01-06"},
		Equity:         []float64{510, 520, 490},
	}
	points := EquityPoints(res)
	require.Len(t, points, 3)
	assert.Equal(t, 500.0, points[0].Equity)
	assert.True(t, points[0].Date.Equal(day("2025-01-05")))
	assert.Equal(t, 490.0, points[2].Equity)
}
