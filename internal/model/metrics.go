package model

import (
	"math"
	"time"
)

// EquityPoint is the account equity after the close of Date.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// MonthlyReturn is one calendar month bucket.
type MonthlyReturn struct {
	MonthKey    string // YYYY-MM
	StartEquity float64
	PnL         float64
	ReturnPct   float64
}

// Drawdown describes the deepest peak-to-trough decline.
type Drawdown struct {
	AmountUSD    float64
	Pct          float64
	Start        string
	End          string
	DurationDays float64
}

// NoDrawdown is the zero-trade drawdown value.
func NoDrawdown() Drawdown {
	return Drawdown{DurationDays: math.NaN()}
}

// MetricsResult is the full analytics output for one strategy or scenario.
type MetricsResult struct {
	Label          string
	ScenarioLabel  string
	StartingEquity float64
	BetSizeUSD     float64

	Trades       int
	Wins         int
	Losses       int
	NetPnL       float64
	ProfitFactor float64
	WinRatePct   float64
	MaxDrawdown  Drawdown
	EndingEquity float64
	CAGRPct      float64

	Equity      []float64
	Labels      []string
	DrawdownPct []float64 // underwater curve, values <= 0
	// Anchored is set when Equity[0] is the starting equity rather than the
	// result of the first trade.
	Anchored bool

	MonthlyReturns    []MonthlyReturn
	TradeLog          []TradeLogEntry
	AddTriggerPattern []AddTrigger

	PeriodStart string
	PeriodEnd   string
}
