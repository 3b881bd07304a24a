package analytics

import (
	"sort"
	"strings"

	"EquityLens/internal/calculator"
	"EquityLens/internal/model"
)

// Params are the sizing inputs shared by every computation pass.
type Params struct {
	StartingEquity float64
	BetSize        float64
	Window         Window
}

type boundedTrade struct {
	trade  model.Trade
	scaled model.ScaledTrade
}

// foldState is the accumulator threaded through the backtest walk.
type foldState struct {
	equity   float64
	drawdown *drawdownTracker
	months   monthTracker
	outcomes outcomeTally

	equitySeries []float64
	labels       []string
	ddSeries     []float64
	pattern      []model.AddTrigger
}

func newFoldState(p Params) *foldState {
	return &foldState{
		equity:       p.StartingEquity,
		drawdown:     newDrawdownTracker(p.StartingEquity, p.Window.StartIso()),
		equitySeries: []float64{},
		labels:       []string{},
		ddSeries:     []float64{},
		pattern:      []model.AddTrigger{},
	}
}

func (s *foldState) step(bt boundedTrade) {
	pnl := bt.scaled.PnLUSD
	if !calculator.Finite(pnl) {
		return
	}
	date := bt.trade.Date
	s.pattern = append(s.pattern, model.AddTrigger{
		Add1230: bt.trade.Add1230.Triggered,
		Add1430: bt.trade.Add1430.Triggered,
	})

	s.months.add(monthKey(date), s.equity, pnl)
	s.equity += pnl
	ddPct := s.drawdown.observe(s.equity, date)
	s.outcomes.add(pnl)

	s.labels = append(s.labels, date)
	s.equitySeries = append(s.equitySeries, s.equity)
	underwater := 0.0
	if ddPct > 0 {
		underwater = -ddPct
	}
	s.ddSeries = append(s.ddSeries, underwater)
}

// ComputeBacktest folds a strategy's rows into its metrics for the window.
func ComputeBacktest(label string, rows []model.Row, pnlColumn string, p Params) model.MetricsResult {
	// Step a: normalize, order by (date, asset) and bound to the window
	bounded := boundTrades(rows, pnlColumn, p)

	// Step b: walk the contributing trades
	st := newFoldState(p)
	for _, bt := range bounded {
		st.step(bt)
	}

	// Step c: derive ratios
	ending := p.StartingEquity
	if n := len(st.equitySeries); n > 0 {
		ending = st.equitySeries[n-1]
	}
	firstIso, lastIso := p.Window.StartIso(), p.Window.EndIso()
	if n := len(bounded); n > 0 {
		firstIso = bounded[0].trade.Date
		lastIso = bounded[n-1].trade.Date
	}

	return model.MetricsResult{
		Label:             label,
		StartingEquity:    p.StartingEquity,
		BetSizeUSD:        p.BetSize,
		Trades:            st.outcomes.trades(),
		Wins:              st.outcomes.wins,
		Losses:            st.outcomes.losses,
		NetPnL:            st.outcomes.grossProfit - st.outcomes.grossLoss,
		ProfitFactor:      st.outcomes.profitFactor(),
		WinRatePct:        st.outcomes.winRatePct(),
		MaxDrawdown:       st.drawdown.max,
		EndingEquity:      ending,
		CAGRPct:           calculator.CAGRIso(firstIso, lastIso, p.StartingEquity, ending),
		Equity:            st.equitySeries,
		Labels:            st.labels,
		DrawdownPct:       st.ddSeries,
		MonthlyReturns:    st.months.result(),
		TradeLog:          buildTradeLog(bounded),
		AddTriggerPattern: st.pattern,
		PeriodStart:       p.Window.StartIso(),
		PeriodEnd:         lastIso,
	}
}

func boundTrades(rows []model.Row, pnlColumn string, p Params) []boundedTrade {
	trades := make([]model.Trade, 0, len(rows))
	for _, r := range rows {
		trades = append(trades, calculator.NormalizeTrade(r))
	}
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].Date != trades[j].Date {
			return trades[i].Date < trades[j].Date
		}
		return trades[i].Asset < trades[j].Asset
	})

	out := make([]boundedTrade, 0, len(trades))
	for _, t := range trades {
		if _, ok := calculator.ParseIsoDate(t.Date); !ok || !p.Window.Contains(t.Date) {
			continue
		}
		out = append(out, boundedTrade{
			trade:  t,
			scaled: calculator.ScaleTrade(t, pnlColumn, p.BetSize),
		})
	}
	return out
}

// buildTradeLog lists every bounded trade, including those without a usable
// P&L, most recent first.
func buildTradeLog(bounded []boundedTrade) []model.TradeLogEntry {
	log := make([]model.TradeLogEntry, 0, len(bounded))
	for _, bt := range bounded {
		direction := bt.trade.Signal
		if direction == "" {
			direction = "-"
		}
		log = append(log, model.TradeLogEntry{
			Date:       bt.trade.Date,
			Market:     calculator.MarketName(bt.trade),
			Direction:  direction,
			BetSizeUSD: bt.scaled.TotalStakeUSD,
			EntryPrice: bt.scaled.EntryPrice,
			Result:     classify(bt.trade, bt.scaled.PnLUSD),
			PnLUSD:     bt.scaled.PnLUSD,
		})
	}
	sortTradeLogDesc(log)
	return log
}

func classify(t model.Trade, pnl float64) model.TradeResult {
	if t.Signal != "" && t.ResolvedLabel != "" {
		if strings.EqualFold(t.Signal, t.ResolvedLabel) {
			return model.ResultWin
		}
		return model.ResultLoss
	}
	if calculator.Finite(pnl) {
		if pnl >= 0 {
			return model.ResultWin
		}
		return model.ResultLoss
	}
	return model.ResultOpen
}

func sortTradeLogDesc(log []model.TradeLogEntry) {
	sort.SliceStable(log, func(i, j int) bool { return log[i].Date > log[j].Date })
}
