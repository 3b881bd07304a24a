package analytics

import (
	"math"
	"sort"

	"EquityLens/internal/calculator"
	"EquityLens/internal/model"
)

// SeriesStats are the summary statistics re-derived from equity points.
type SeriesStats struct {
	Points         []model.EquityPoint
	Trades         int
	Wins           int
	Losses         int
	NetPnL         float64
	ProfitFactor   float64
	WinRatePct     float64
	MaxDrawdown    model.Drawdown
	EndingEquity   float64
	CAGRPct        float64
	MonthlyReturns []model.MonthlyReturn
	DrawdownPct    []float64
	PeriodStart    string
	PeriodEnd      string
}

func emptySeriesStats() SeriesStats {
	dd := model.NoDrawdown()
	dd.Pct = math.NaN()
	return SeriesStats{
		Points:         []model.EquityPoint{},
		ProfitFactor:   math.NaN(),
		WinRatePct:     math.NaN(),
		MaxDrawdown:    dd,
		EndingEquity:   math.NaN(),
		CAGRPct:        math.NaN(),
		MonthlyReturns: []model.MonthlyReturn{},
		DrawdownPct:    []float64{},
	}
}

// CleanPoints drops points with a zero date or non-finite equity and sorts
// the rest by date, keeping the input order for equal dates.
func CleanPoints(points []model.EquityPoint) []model.EquityPoint {
	out := make([]model.EquityPoint, 0, len(points))
	for _, p := range points {
		if p.Date.IsZero() || !calculator.Finite(p.Equity) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ComputeSeriesStats treats each point-to-point equity change as one trade
// and derives the same statistics ComputeBacktest reports.
func ComputeSeriesStats(points []model.EquityPoint) SeriesStats {
	clean := CleanPoints(points)
	if len(clean) < 2 {
		return emptySeriesStats()
	}

	first, last := clean[0], clean[len(clean)-1]
	dd := newDrawdownTracker(first.Equity, calculator.IsoDate(first.Date))
	var months monthTracker
	var outcomes outcomeTally

	equity := make([]float64, 0, len(clean))
	equity = append(equity, first.Equity)
	for i := 1; i < len(clean); i++ {
		prev, curr := clean[i-1], clean[i]
		iso := calculator.IsoDate(curr.Date)
		dd.observe(curr.Equity, iso)

		pnl := curr.Equity - prev.Equity
		months.add(monthKey(iso), prev.Equity, pnl)
		outcomes.add(pnl)
		equity = append(equity, curr.Equity)
	}

	return SeriesStats{
		Points:         clean,
		Trades:         outcomes.trades(),
		Wins:           outcomes.wins,
		Losses:         outcomes.losses,
		NetPnL:         last.Equity - first.Equity,
		ProfitFactor:   outcomes.profitFactor(),
		WinRatePct:     outcomes.winRatePct(),
		MaxDrawdown:    dd.max,
		EndingEquity:   last.Equity,
		CAGRPct:        calculator.CAGR(first.Date, last.Date, first.Equity, last.Equity),
		MonthlyReturns: months.result(),
		DrawdownPct:    calculator.UnderwaterPct(equity, first.Equity),
		PeriodStart:    calculator.IsoDate(first.Date),
		PeriodEnd:      calculator.IsoDate(last.Date),
	}
}

// EquityPoints converts a result into equity points. Unless the series is
// already anchored, the starting equity is prepended on the first trade day.
func EquityPoints(res model.MetricsResult) []model.EquityPoint {
	points := make([]model.EquityPoint, 0, len(res.Labels)+1)
	for i, label := range res.Labels {
		if i >= len(res.Equity) {
			break
		}
		d, ok := calculator.ParseIsoDate(label)
		if !ok {
			continue
		}
		if len(points) == 0 && !res.Anchored {
			points = append(points, model.EquityPoint{Date: d, Equity: res.StartingEquity})
		}
		points = append(points, model.EquityPoint{Date: d, Equity: res.Equity[i]})
	}
	return CleanPoints(points)
}
