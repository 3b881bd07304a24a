package notifier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"EquityLens/internal/analytics"
	"EquityLens/internal/calculator"
	"EquityLens/internal/config"
	"EquityLens/internal/model"
)

func TestFormatUSD(t *testing.T) {
	cases := map[float64]string{
		0:          "$0.00",
		12.345:     "$12.35",
		999.994:    "$999.99",
		1000:       "$1,000.00",
		10030:      "$10,030.00",
		-1234567.5: "-$1,234,567.50",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatUSD(in), "input %v", in)
	}
	assert.Equal(t, "-", FormatUSD(math.NaN()))
	assert.Equal(t, "-", FormatUSD(math.Inf(1)))
}

func TestFormatPct(t *testing.T) {
	assert.Equal(t, "+0.30%", FormatPct(0.3))
	assert.Equal(t, "-12.00%", FormatPct(-12))
	assert.Equal(t, "-", FormatPct(math.NaN()))
}

func TestFormatSummary(t *testing.T) {
	res := model.MetricsResult{
		Label:          "Strat",
		ScenarioLabel:  "Historical Backtest",
		StartingEquity: 10000,
		EndingEquity:   10030,
		NetPnL:         30,
		Trades:         2,
		Wins:           1,
		Losses:         1,
		WinRatePct:     50,
		ProfitFactor:   2.5,
		MaxDrawdown:    model.Drawdown{AmountUSD: 20, Pct: 0.2, Start: "2025-01-01", End: "2025-01-15"},
		PeriodStart:    "2025-01-01",
		PeriodEnd:      "2025-01-15",
	}
	k := analytics.KPIs{
		ProfitableMonths: 1,
		TotalMonths:      1,
		NetProfitPct:     0.3,
		Return:           calculator.DisplayReturn{Label: "Cumulative Return", ValuePct: 0.3},
	}
	out := FormatSummary(res, k)
	assert.Contains(t, out, "<b>Strat</b> | Historical Backtest")
	assert.Contains(t, out, "Ending equity: $10,030.00")
	assert.Contains(t, out, "Net P&amp;L: $30.00 (+0.30%)")
	assert.Contains(t, out, "Cumulative Return: +0.30%")
	assert.Contains(t, out, "Trades: 2 (W 1 / L 1)")
	assert.Contains(t, out, "Profit factor: 2.50")
	assert.Contains(t, out, "2025-01-01 → 2025-01-15")
	assert.Contains(t, out, "Profitable months: 1/1")

	res.ProfitFactor = math.Inf(1)
	assert.Contains(t, FormatSummary(res, k), "Profit factor: ∞")
}

func TestFormatSummary_UndefinedAndEscaped(t *testing.T) {
	res := model.MetricsResult{
		Label:          "Fade <open> & hold",
		ScenarioLabel:  "Historical Backtest",
		StartingEquity: 10000,
		EndingEquity:   10000,
		ProfitFactor:   math.NaN(),
		WinRatePct:     math.NaN(),
		MaxDrawdown:    model.NoDrawdown(),
	}
	res.MaxDrawdown.Pct = math.NaN()
	out := FormatSummary(res, analytics.ComputeKPIs(res))

	assert.Contains(t, out, "<b>Fade &lt;open&gt; &amp; hold</b>")
	assert.Contains(t, out, "Win rate: -\n")
	assert.Contains(t, out, "Max drawdown: - ($0.00)")
	assert.Contains(t, out, "Profit factor: -")
	assert.NotContains(t, out, "NaN")
}

func TestFormatMonthlyMatrix(t *testing.T) {
	rows := analytics.MonthlyMatrix([]model.MonthlyReturn{
		{MonthKey: "2025-01", StartEquity: 10000, PnL: 100, ReturnPct: 1},
		{MonthKey: "2025-03", StartEquity: 10100, PnL: -50, ReturnPct: -0.5},
	})
	out := FormatMonthlyMatrix(rows)
	assert.Contains(t, out, "<b>2025</b> (YTD +0.50%)")
	assert.Contains(t, out, "Jan: +1.00%")
	assert.Contains(t, out, "Mar: -0.50%")
	assert.NotContains(t, out, "Feb")

	assert.Contains(t, FormatMonthlyMatrix(nil), "No trades in window.")
}

func TestFormatMCSummary(t *testing.T) {
	s := model.MCSummary{MedianReturnPct: 10, P05ReturnPct: -3, P95ReturnPct: 25, ProbabilityLossPct: 12.5}
	out := FormatMCSummary(s, nil)
	assert.Contains(t, out, "Median return: +10.00%")
	assert.Contains(t, out, "P5 / P95 return: -3.00% / +25.00%")
	assert.NotContains(t, out, "Path")
	assert.Contains(t, out, "Probability of loss: 12.5%")
	assert.Contains(t, FormatMCSummary(model.MCSummary{ProbabilityLossPct: math.NaN()}, nil), "Probability of loss: -")

	ps := &model.PathStats{PathKey: "p50", Start: "2025-01-01", End: "2025-01-03", StartEquity: 10000, EndEquity: 10100, ReturnPct: 1, CAGRPct: math.NaN(), DaysUsed: 3}
	out = FormatMCSummary(s, ps)
	assert.Contains(t, out, "Path p50</b> | 2025-01-01 → 2025-01-03 (3 days)")
	assert.Contains(t, out, "Return: +1.00% | CAGR: -")
	assert.Contains(t, out, "Max drawdown: 0.00%")
}

func TestFormatSettings(t *testing.T) {
	out := FormatSettings(config.BuiltinSettings())
	assert.Contains(t, out, "Starting capital: $10,000.00")
	assert.Contains(t, out, "Bet size: $100.00")
	assert.Contains(t, out, "Scenario: Historical Backtest")
}

func TestFormatHelp_ListsEveryCommand(t *testing.T) {
	help := FormatHelp()
	for _, cmd := range []string{"/summary", "/monthly", "/mc", "/settings", "/scenario", "/bet", "/capital", "/asset", "/path", "/refresh", "/help"} {
		assert.Contains(t, help, cmd)
	}
}
