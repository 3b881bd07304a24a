package analytics

import (
	"errors"
	"math"
	"time"

	"EquityLens/internal/calculator"
	"EquityLens/internal/model"
)

// ErrInvalidRange is returned for unparseable or reversed date ranges.
var ErrInvalidRange = errors.New("invalid date range")

// MCSummary reads the first row of the stats file.
func MCSummary(stats []model.Row) model.MCSummary {
	row := model.Row{}
	if len(stats) > 0 {
		row = stats[0]
	}
	return model.MCSummary{
		MedianReturnPct:    calculator.ParseNumber(row["median_return_pct"]),
		P05ReturnPct:       calculator.ParseNumber(row["p05_return_pct"]),
		P95ReturnPct:       calculator.ParseNumber(row["p95_return_pct"]),
		ProbabilityLossPct: calculator.ParseNumber(row["probability_loss_pct"]),
	}
}

func interpolate(lo, hi, f float64) float64 {
	if !calculator.Finite(lo) || !calculator.Finite(hi) {
		return math.NaN()
	}
	return lo + f*(hi-lo)
}

// FanChart builds the percentile fan; P25, P50 and P75 are interpolated
// between the P5 and P95 paths.
func FanChart(paths []model.Row) []model.FanPoint {
	out := make([]model.FanPoint, 0, len(paths))
	for _, r := range paths {
		step := calculator.ParseNumber(r["trade_number"])
		if !calculator.Finite(step) {
			continue
		}
		p5 := calculator.ParseNumber(r[pathP5])
		p95 := calculator.ParseNumber(r[pathP95])
		out = append(out, model.FanPoint{
			Step: int(step),
			P1:   calculator.ParseNumber(r[pathP1]),
			P5:   p5,
			P25:  interpolate(p5, p95, 0.25),
			P50:  interpolate(p5, p95, 0.5),
			P75:  interpolate(p5, p95, 0.75),
			P95:  p95,
		})
	}
	return out
}

// PathStats summarizes one percentile column between two days inclusive.
// Rows are read in file order with day n at anchor + (n-1) days. A range
// with no data yields DaysUsed 0 and NaN figures.
func PathStats(rows []model.Row, pathKey, startIso, endIso string, anchor time.Time) (model.PathStats, error) {
	start, ok1 := calculator.ParseIsoDate(startIso)
	end, ok2 := calculator.ParseIsoDate(endIso)
	if !ok1 || !ok2 {
		return model.PathStats{}, ErrInvalidRange
	}
	end = end.Add(24*time.Hour - time.Second)
	if start.After(end) {
		return model.PathStats{}, ErrInvalidRange
	}

	out := model.PathStats{
		PathKey:        pathKey,
		Start:          startIso,
		End:            endIso,
		StartEquity:    math.NaN(),
		EndEquity:      math.NaN(),
		ReturnPct:      math.NaN(),
		MaxDrawdownPct: math.NaN(),
		CAGRPct:        math.NaN(),
	}

	var points []model.EquityPoint
	for _, r := range rows {
		dayNum := calculator.ParseNumber(r["day"])
		eq := calculator.ParseNumber(r[pathKey])
		if !calculator.Finite(dayNum) || !calculator.Finite(eq) {
			continue
		}
		d := stepDate(anchor, dayNum)
		if d.Before(start) || d.After(end) {
			continue
		}
		points = append(points, model.EquityPoint{Date: d, Equity: eq})
	}
	if len(points) == 0 {
		return out, nil
	}

	first, last := points[0], points[len(points)-1]
	equity := make([]float64, len(points))
	for i, p := range points {
		equity[i] = p.Equity
	}
	out.StartEquity = first.Equity
	out.EndEquity = last.Equity
	if first.Equity != 0 {
		out.ReturnPct = (last.Equity - first.Equity) / first.Equity * 100
	}
	out.MaxDrawdownPct = calculator.MaxDrawdownPct(equity)
	out.CAGRPct = calculator.CAGR(first.Date, last.Date, first.Equity, last.Equity)
	out.DaysUsed = len(points)
	return out, nil
}
