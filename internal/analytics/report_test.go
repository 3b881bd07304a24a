package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityLens/internal/model"
)

func TestMonthlyMatrix(t *testing.T) {
	rows := MonthlyMatrix([]model.MonthlyReturn{
		{MonthKey: "2025-01", StartEquity: 10000, PnL: 100, ReturnPct: 1},
		{MonthKey: "2025-03", StartEquity: 10100, PnL: -50, ReturnPct: -50.0 / 10100 * 100},
		{MonthKey: "2024-12", StartEquity: 9000, PnL: 90, ReturnPct: 1},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "2024", rows[0].Year)
	assert.Equal(t, 1.0, rows[0].Months[11])
	assert.True(t, math.IsNaN(rows[0].Months[0]))

	assert.Equal(t, "2025", rows[1].Year)
	assert.Equal(t, 1.0, rows[1].Months[0])
	assert.True(t, math.IsNaN(rows[1].Months[1]))
	assert.InDelta(t, 0.5, rows[1].YTDPct, 1e-9)
}

func TestComputeKPIs(t *testing.T) {
	k := ComputeKPIs(model.MetricsResult{
		StartingEquity: 10000,
		EndingEquity:   10500,
		NetPnL:         500,
		PeriodStart:    "2025-01-01",
		PeriodEnd:      "2025-03-01",
		MonthlyReturns: []model.MonthlyReturn{{ReturnPct: 2}, {ReturnPct: -1}, {ReturnPct: 0}},
	})
	assert.Equal(t, 1, k.ProfitableMonths)
	assert.Equal(t, 3, k.TotalMonths)
	assert.InDelta(t, 5.0, k.NetProfitPct, 1e-9)
	assert.Equal(t, "Cumulative Return", k.Return.Label)
}

func TestPageTrades(t *testing.T) {
	log := make([]model.TradeLogEntry, 60)
	for i := range log {
		log[i].PnLUSD = float64(i)
	}

	p := PageTrades(log, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 3, p.TotalPages)
	assert.Len(t, p.Entries, TradeLogPageSize)

	p = PageTrades(log, 9)
	assert.Equal(t, 3, p.Page)
	assert.Len(t, p.Entries, 10)
	assert.Equal(t, 50.0, p.Entries[0].PnLUSD)

	empty := PageTrades(nil, 4)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Empty(t, empty.Entries)
}

func TestDatasetWindow(t *testing.T) {
	start, end := DatasetWindow([]model.MetricsResult{
		{PeriodStart: "2025-01-01", PeriodEnd: "2025-04-01"},
		{PeriodStart: "2024-06-01", PeriodEnd: "2025-03-01"},
		{},
	})
	assert.Equal(t, "2024-06-01", start)
	assert.Equal(t, "2025-04-01", end)
}

func TestFilterRows(t *testing.T) {
	rows := []model.Row{{"asset": "SPX"}, {"asset": "ndx "}, {}}
	assert.Len(t, FilterRows(rows, "both"), 3)
	assert.Len(t, FilterRows(rows, "NDX"), 1)
	assert.Len(t, FilterRows(rows, "spx"), 1)
}
