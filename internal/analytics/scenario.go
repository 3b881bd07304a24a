package analytics

import (
	"strings"
	"time"

	"EquityLens/internal/calculator"
	"EquityLens/internal/model"
)

// Scenario selects which equity series the dashboard reports.
type Scenario string

const (
	ScenarioBacktest Scenario = "backtest"
	ScenarioMCP95    Scenario = "mc_p95"
	ScenarioMCP50    Scenario = "mc_p50"
	ScenarioMCP1     Scenario = "mc_p1"
)

// Scenarios lists every scenario in display order.
var Scenarios = []Scenario{ScenarioBacktest, ScenarioMCP95, ScenarioMCP50, ScenarioMCP1}

var scenarioLabels = map[Scenario]string{
	ScenarioBacktest: "Historical Backtest",
	ScenarioMCP95:    "95% Percentile MC Sim (Optimistic)",
	ScenarioMCP50:    "50% Percentile MC Sim (Middle Ground)",
	ScenarioMCP1:     "1% Percentile MC Sim (Pessimistic)",
}

// Label is the human caption of the scenario.
func (s Scenario) Label() string {
	if l, ok := scenarioLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseScenario accepts a scenario id in any case.
func ParseScenario(raw string) (Scenario, bool) {
	s := Scenario(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := scenarioLabels[s]
	return s, ok
}

const (
	pathP1  = "equity_p1_path"
	pathP5  = "equity_p5_path"
	pathP95 = "equity_p95_path"
)

// stepDate maps simulated step n to anchor + (n-1) days.
func stepDate(anchor time.Time, step float64) time.Time {
	return anchor.Add(time.Duration((step - 1) * float64(24*time.Hour)))
}

// MCSeriesFromPaths reads one path column as a daily equity series.
func MCSeriesFromPaths(rows []model.Row, key string, anchor time.Time) []model.EquityPoint {
	points := make([]model.EquityPoint, 0, len(rows))
	for _, r := range rows {
		step := calculator.ParseNumber(r["trade_number"])
		eq := calculator.ParseNumber(r[key])
		if !calculator.Finite(step) || !calculator.Finite(eq) {
			continue
		}
		points = append(points, model.EquityPoint{Date: stepDate(anchor, step), Equity: eq})
	}
	return CleanPoints(points)
}

// MCSeriesFromMidpoint reads the midpoint of two path columns.
func MCSeriesFromMidpoint(rows []model.Row, lowKey, highKey string, anchor time.Time) []model.EquityPoint {
	points := make([]model.EquityPoint, 0, len(rows))
	for _, r := range rows {
		step := calculator.ParseNumber(r["trade_number"])
		lo := calculator.ParseNumber(r[lowKey])
		hi := calculator.ParseNumber(r[highKey])
		if !calculator.Finite(step) || !calculator.Finite(lo) || !calculator.Finite(hi) {
			continue
		}
		points = append(points, model.EquityPoint{Date: stepDate(anchor, step), Equity: lo + (hi-lo)*0.5})
	}
	return CleanPoints(points)
}

// BuildSources computes every scenario for one historical result.
func BuildSources(hist model.MetricsResult, pathRows []model.Row, anchor time.Time, w Window) map[Scenario]model.MetricsResult {
	backtest := hist
	backtest.ScenarioLabel = ScenarioBacktest.Label()
	return map[Scenario]model.MetricsResult{
		ScenarioBacktest: backtest,
		ScenarioMCP95:    Stitch(hist, MCSeriesFromPaths(pathRows, pathP95, anchor), ScenarioMCP95.Label(), w),
		ScenarioMCP50:    Stitch(hist, MCSeriesFromMidpoint(pathRows, pathP5, pathP95, anchor), ScenarioMCP50.Label(), w),
		ScenarioMCP1:     Stitch(hist, MCSeriesFromPaths(pathRows, pathP1, anchor), ScenarioMCP1.Label(), w),
	}
}
