package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"EquityLens/internal/calculator"
	"EquityLens/internal/model"
)

// triggerCycle repeats the historical add-leg trigger pattern, one entry per
// synthetic trade.
type triggerCycle struct {
	pattern []model.AddTrigger
	n       int
}

func (c *triggerCycle) next() model.AddTrigger {
	if len(c.pattern) == 0 {
		return model.AddTrigger{}
	}
	t := c.pattern[c.n%len(c.pattern)]
	c.n++
	return t
}

func stakeMultiplier(t model.AddTrigger) float64 {
	m := 1.0
	if t.Add1230 {
		m += calculator.AddFraction
	}
	if t.Add1430 {
		m += calculator.AddFraction
	}
	return m
}

// backfillTemplate holds the sizing used for synthetic trades.
type backfillTemplate struct {
	betSize    float64
	entryPrice float64
}

func newBackfillTemplate(res model.MetricsResult) backfillTemplate {
	sum, n := 0.0, 0
	for _, t := range res.TradeLog {
		if calculator.Finite(t.EntryPrice) {
			sum += t.EntryPrice
			n++
		}
	}
	avg := 0.5
	if n > 0 {
		avg = sum / float64(n)
	}
	return backfillTemplate{
		betSize:    math.Max(res.BetSizeUSD, 1),
		entryPrice: clamp(avg, 0.01, 0.99),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// dailyDeltas maps each day of an equity series to its change from the
// previous point.
func dailyDeltas(series []model.EquityPoint) map[string]float64 {
	clean := CleanPoints(series)
	out := make(map[string]float64, len(clean))
	for i := 1; i < len(clean); i++ {
		delta := clean[i].Equity - clean[i-1].Equity
		if calculator.Finite(delta) {
			out[calculator.IsoDate(clean[i].Date)] = delta
		}
	}
	return out
}

// Stitch replays the historical trades day by day across the window and
// fills days before the first historical trade with Monte-Carlo deltas.
func Stitch(hist model.MetricsResult, mc []model.EquityPoint, source string, w Window) model.MetricsResult {
	if len(mc) < 2 {
		out := hist
		out.Label = fmt.Sprintf("%s + %s", hist.Label, source)
		out.ScenarioLabel = source
		return out
	}

	deltas := dailyDeltas(mc)

	historical := make([]model.TradeLogEntry, 0, len(hist.TradeLog))
	for _, t := range hist.TradeLog {
		if _, ok := calculator.ParseIsoDate(t.Date); ok {
			historical = append(historical, t)
		}
	}
	sort.SliceStable(historical, func(i, j int) bool { return historical[i].Date < historical[j].Date })
	firstHistorical := ""
	if len(historical) > 0 {
		firstHistorical = historical[0].Date
	}
	byDate := make(map[string][]model.TradeLogEntry)
	for _, t := range historical {
		byDate[t.Date] = append(byDate[t.Date], t)
	}

	tmpl := newBackfillTemplate(hist)
	cycle := &triggerCycle{pattern: hist.AddTriggerPattern}
	equity := hist.StartingEquity
	points := []model.EquityPoint{{Date: w.Start, Equity: equity}}
	combined := make([]model.TradeLogEntry, 0, len(historical))

	w.Days(func(day time.Time) {
		iso := calculator.IsoDate(day)
		if trades := byDate[iso]; len(trades) > 0 {
			for _, t := range trades {
				if !calculator.Finite(t.PnLUSD) {
					continue
				}
				equity += t.PnLUSD
				points = append(points, model.EquityPoint{Date: day, Equity: equity})
				combined = append(combined, t)
			}
			return
		}

		if firstHistorical == "" || iso >= firstHistorical {
			return
		}
		raw, ok := deltas[iso]
		if !ok {
			return
		}

		mult := stakeMultiplier(cycle.next())
		bet := tmpl.betSize * mult
		delta := math.Max(raw*mult, -bet)
		equity += delta
		points = append(points, model.EquityPoint{Date: day, Equity: equity})
		combined = append(combined, syntheticTrade(iso, source, bet, delta, tmpl))
	})

	stats := ComputeSeriesStats(points)
	sortTradeLogDesc(combined)

	var outcomes outcomeTally
	for _, t := range combined {
		switch t.Result {
		case model.ResultWin:
			outcomes.wins++
		case model.ResultLoss:
			outcomes.losses++
		}
		if calculator.Finite(t.PnLUSD) {
			if t.PnLUSD >= 0 {
				outcomes.grossProfit += t.PnLUSD
			} else {
				outcomes.grossLoss += math.Abs(t.PnLUSD)
			}
		}
	}

	labels := make([]string, len(points))
	series := make([]float64, len(points))
	for i, p := range points {
		labels[i] = calculator.IsoDate(p.Date)
		series[i] = p.Equity
	}

	out := hist
	out.Label = fmt.Sprintf("%s + %s", hist.Label, source)
	out.ScenarioLabel = source
	out.Trades = outcomes.trades()
	out.Wins = outcomes.wins
	out.Losses = outcomes.losses
	out.NetPnL = equity - hist.StartingEquity
	out.ProfitFactor = outcomes.profitFactor()
	out.WinRatePct = outcomes.winRatePct()
	out.MaxDrawdown = stats.MaxDrawdown
	out.EndingEquity = equity
	out.CAGRPct = stats.CAGRPct
	out.Equity = series
	out.Labels = labels
	out.Anchored = true
	out.DrawdownPct = calculator.UnderwaterPct(series, hist.StartingEquity)
	out.MonthlyReturns = stats.MonthlyReturns
	out.TradeLog = combined
	out.PeriodStart = labels[0]
	out.PeriodEnd = labels[len(labels)-1]
	return out
}

func syntheticTrade(iso, source string, bet, delta float64, tmpl backfillTemplate) model.TradeLogEntry {
	t := model.TradeLogEntry{
		Date:       iso,
		Market:     fmt.Sprintf("MC Backfill (%s)", source),
		Direction:  "Up",
		BetSizeUSD: bet,
		EntryPrice: tmpl.entryPrice,
		Result:     model.ResultWin,
		PnLUSD:     delta,
		Synthetic:  true,
	}
	if delta >= 0 && bet > 0 {
		t.EntryPrice = clamp(bet/(bet+delta), 0.01, 0.99)
	}
	if delta < 0 {
		t.Direction = "Down"
		t.Result = model.ResultLoss
	}
	return t
}
