package notifier

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"EquityLens/internal/analytics"
	"EquityLens/internal/config"
	"EquityLens/internal/model"
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// FormatUSD renders v as "$1,234.56". Non-finite values render as "-".
func FormatUSD(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	whole, frac := fixed[:len(fixed)-3], fixed[len(fixed)-3:]
	return sign + "$" + groupThousands(whole) + frac
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPct renders v with a sign and two decimals. Non-finite values render as "-".
func FormatPct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", v)
}

// formatShare renders an unsigned percentage. Non-finite values render as "-".
func formatShare(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', prec, 64) + "%"
}

func formatRatio(v float64) string {
	switch {
	case math.IsNaN(v):
		return "-"
	case math.IsInf(v, 1):
		return "∞"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatSummary formats the headline figures of one result.
func FormatSummary(res model.MetricsResult, k analytics.KPIs) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n", html.EscapeString(res.Label), html.EscapeString(res.ScenarioLabel)))
	b.WriteString(fmt.Sprintf("%s → %s\n\n", res.PeriodStart, res.PeriodEnd))

	b.WriteString(fmt.Sprintf("Starting equity: %s\n", FormatUSD(res.StartingEquity)))
	b.WriteString(fmt.Sprintf("Ending equity: %s\n", FormatUSD(res.EndingEquity)))
	b.WriteString(fmt.Sprintf("Net P&amp;L: %s (%s)\n", FormatUSD(res.NetPnL), FormatPct(k.NetProfitPct)))
	b.WriteString(fmt.Sprintf("%s: %s\n\n", html.EscapeString(k.Return.Label), FormatPct(k.Return.ValuePct)))

	b.WriteString(fmt.Sprintf("Trades: %d (W %d / L %d)\n", res.Trades, res.Wins, res.Losses))
	b.WriteString(fmt.Sprintf("Win rate: %s\n", formatShare(res.WinRatePct, 1)))
	b.WriteString(fmt.Sprintf("Profit factor: %s\n", formatRatio(res.ProfitFactor)))
	b.WriteString(fmt.Sprintf("Max drawdown: %s (%s)\n", formatShare(res.MaxDrawdown.Pct, 2), FormatUSD(res.MaxDrawdown.AmountUSD)))
	if res.MaxDrawdown.Start != "" {
		b.WriteString(fmt.Sprintf("  %s → %s\n", res.MaxDrawdown.Start, res.MaxDrawdown.End))
	}
	b.WriteString(fmt.Sprintf("Profitable months: %d/%d\n", k.ProfitableMonths, k.TotalMonths))
	return b.String()
}

// FormatMonthlyMatrix formats per-year monthly returns. Empty months are skipped.
func FormatMonthlyMatrix(rows []analytics.YearRow) string {
	var b strings.Builder
	b.WriteString("📅 <b>Monthly returns</b>\n")
	if len(rows) == 0 {
		b.WriteString("\nNo trades in window.\n")
		return b.String()
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("\n<b>%s</b> (YTD %s)\n", row.Year, FormatPct(row.YTDPct)))
		for i, v := range row.Months {
			if math.IsNaN(v) {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s: %s\n", monthNames[i], FormatPct(v)))
		}
	}
	return b.String()
}

// FormatMCSummary formats the Monte-Carlo stats and the selected path summary.
// ps may be nil when the path could not be summarized.
func FormatMCSummary(s model.MCSummary, ps *model.PathStats) string {
	var b strings.Builder
	b.WriteString("🎲 <b>Monte-Carlo</b>\n\n")
	b.WriteString(fmt.Sprintf("Median return: %s\n", FormatPct(s.MedianReturnPct)))
	b.WriteString(fmt.Sprintf("P5 / P95 return: %s / %s\n", FormatPct(s.P05ReturnPct), FormatPct(s.P95ReturnPct)))
	b.WriteString(fmt.Sprintf("Probability of loss: %s\n", formatShare(s.ProbabilityLossPct, 1)))
	if ps != nil {
		b.WriteString(fmt.Sprintf("\n<b>Path %s</b> | %s → %s (%d days)\n", html.EscapeString(ps.PathKey), ps.Start, ps.End, ps.DaysUsed))
		b.WriteString(fmt.Sprintf("Equity: %s → %s\n", FormatUSD(ps.StartEquity), FormatUSD(ps.EndEquity)))
		b.WriteString(fmt.Sprintf("Return: %s | CAGR: %s\n", FormatPct(ps.ReturnPct), FormatPct(ps.CAGRPct)))
		b.WriteString(fmt.Sprintf("Max drawdown: %s\n", formatShare(ps.MaxDrawdownPct, 2)))
	}
	return b.String()
}

// FormatSettings formats the active settings.
func FormatSettings(s config.Settings) string {
	var b strings.Builder
	b.WriteString("⚙️ <b>Settings</b>\n\n")
	b.WriteString(fmt.Sprintf("Starting capital: %s\n", FormatUSD(s.StartingCapital)))
	b.WriteString(fmt.Sprintf("Bet size: %s\n", FormatUSD(s.BetSize)))
	b.WriteString(fmt.Sprintf("Asset: %s\n", html.EscapeString(s.AssetFilter)))
	b.WriteString(fmt.Sprintf("Scenario: %s\n", html.EscapeString(s.Scenario.Label())))
	b.WriteString(fmt.Sprintf("MC path: %s\n", html.EscapeString(s.MCPathKey)))
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Commands:\n" +
		"/summary - headline figures for the active scenario\n" +
		"/monthly - monthly returns matrix\n" +
		"/mc - Monte-Carlo summary\n" +
		"/settings - active settings\n" +
		"/scenario backtest|mc_p95|mc_p50|mc_p1\n" +
		"/bet N - bet size in USD\n" +
		"/capital N - starting capital in USD\n" +
		"/asset both|spx|ndx\n" +
		"/path KEY - percentile column for MC path stats, e.g. p50\n" +
		"/refresh - reload all sources\n" +
		"/help - this message"
}
