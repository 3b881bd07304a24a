package calculator

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// DayDiff returns the whole calendar days from start to end, clamped at 0.
// NaN when either date is not a valid YYYY-MM-DD day.
func DayDiff(startIso, endIso string) float64 {
	start, ok1 := ParseIsoDate(startIso)
	end, ok2 := ParseIsoDate(endIso)
	if !ok1 || !ok2 {
		return math.NaN()
	}
	return math.Max(math.Round(end.Sub(start).Hours()/24), 0)
}

func spanDays(start, end time.Time) float64 {
	if start.IsZero() || end.IsZero() {
		return 1
	}
	return math.Max(float64(end.Sub(start))/float64(day), 1)
}

// CAGR is the compound annual growth in percent between two dates. The span
// is floored at one day; NaN when growth is not positive.
func CAGR(start, end time.Time, startEquity, endEquity float64) float64 {
	if startEquity <= 0 {
		return math.NaN()
	}
	growth := endEquity / startEquity
	if !Finite(growth) || growth <= 0 {
		return math.NaN()
	}
	return (math.Pow(growth, 365/spanDays(start, end)) - 1) * 100
}

// CAGRIso is CAGR over two YYYY-MM-DD dates. Unparseable dates count as a one-day span.
func CAGRIso(startIso, endIso string, startEquity, endEquity float64) float64 {
	start, _ := ParseIsoDate(startIso)
	end, _ := ParseIsoDate(endIso)
	if start.IsZero() || end.IsZero() {
		start, end = time.Time{}, time.Time{}
	}
	return CAGR(start, end, startEquity, endEquity)
}

// DisplayReturn is the headline return figure with its caption.
type DisplayReturn struct {
	Label    string
	ValuePct float64
}

// ComputeDisplayReturn picks a simple cumulative return below one year and a
// compounded annualized return from one year on.
func ComputeDisplayReturn(startIso, endIso string, startEquity, endEquity float64) DisplayReturn {
	start, _ := ParseIsoDate(startIso)
	end, _ := ParseIsoDate(endIso)
	if start.IsZero() || end.IsZero() {
		start, end = time.Time{}, time.Time{}
	}
	days := spanDays(start, end)
	if !Finite(startEquity) || !Finite(endEquity) || startEquity <= 0 {
		return DisplayReturn{Label: "Rate of Return", ValuePct: math.NaN()}
	}
	if days < 365 {
		return DisplayReturn{
			Label:    "Cumulative Return",
			ValuePct: (endEquity - startEquity) / startEquity * 100,
		}
	}
	years := days / 365
	return DisplayReturn{
		Label:    "Annualized Return (Compounded)",
		ValuePct: (math.Pow(endEquity/startEquity, 1/years) - 1) * 100,
	}
}
