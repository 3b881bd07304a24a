package model

// MCSummary is the single-row Monte-Carlo stats file.
type MCSummary struct {
	MedianReturnPct    float64
	P05ReturnPct       float64
	P95ReturnPct       float64
	ProbabilityLossPct float64
}

// FanPoint is one simulated step of the percentile fan.
type FanPoint struct {
	Step int
	P1   float64
	P5   float64
	P25  float64
	P50  float64
	P75  float64
	P95  float64
}

// PathStats summarizes one percentile path over a date sub-range.
type PathStats struct {
	PathKey        string
	Start          string
	End            string
	StartEquity    float64
	EndEquity      float64
	ReturnPct      float64
	MaxDrawdownPct float64
	CAGRPct        float64
	DaysUsed       int
}

// MonteCarloData holds the three simulation files as parsed rows.
type MonteCarloData struct {
	Stats       []Row
	Paths       []Row
	Percentiles []Row
}

// Dataset is one loaded backtest strategy.
type Dataset struct {
	ID        string
	Label     string
	PnLColumn string
	Rows      []Row
}
