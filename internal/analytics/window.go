package analytics

import (
	"time"

	"EquityLens/internal/calculator"
)

const (
	DefaultStartingEquity = 10000.0
	DefaultBetSize        = calculator.DefaultBetSize
	// PerformanceStart is the first day of the reporting window.
	PerformanceStart = "2025-01-01"
	// TradeLogPageSize is the number of trade log rows per page.
	TradeLogPageSize = 25
)

// Window is the inclusive reporting range [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds the window from startIso to the last second of now's UTC day.
// An invalid startIso falls back to PerformanceStart.
func NewWindow(startIso string, now time.Time) Window {
	start, ok := calculator.ParseIsoDate(startIso)
	if !ok {
		start, _ = calculator.ParseIsoDate(PerformanceStart)
	}
	now = now.UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)
	return Window{Start: start, End: end}
}

// StartIso is the first day of the window.
func (w Window) StartIso() string { return calculator.IsoDate(w.Start) }

// EndIso is the last day of the window.
func (w Window) EndIso() string { return calculator.IsoDate(w.End) }

// Contains reports whether iso lies within the window.
func (w Window) Contains(iso string) bool {
	return iso >= w.StartIso() && iso <= w.EndIso()
}

// Days calls fn for every calendar day of the window in order.
func (w Window) Days(fn func(day time.Time)) {
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}
