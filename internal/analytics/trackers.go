package analytics

import (
	"math"

	"EquityLens/internal/calculator"
	"EquityLens/internal/model"
)

// monthTracker buckets P&L by calendar month. A bucket opens with the
// equity seen at its first contribution.
type monthTracker struct {
	current string
	start   float64
	pnl     float64
	out     []model.MonthlyReturn
}

func (m *monthTracker) add(monthKey string, equityBefore, pnl float64) {
	switch {
	case m.current == "":
		m.current = monthKey
		m.start = equityBefore
		m.pnl = 0
	case monthKey != m.current:
		m.flush()
		m.current = monthKey
		m.start = equityBefore
		m.pnl = 0
	}
	m.pnl += pnl
}

func (m *monthTracker) flush() {
	if m.current == "" {
		return
	}
	ret := math.NaN()
	if m.start != 0 {
		ret = m.pnl / m.start * 100
	}
	m.out = append(m.out, model.MonthlyReturn{
		MonthKey:    m.current,
		StartEquity: m.start,
		PnL:         m.pnl,
		ReturnPct:   ret,
	})
}

func (m *monthTracker) result() []model.MonthlyReturn {
	m.flush()
	m.current = ""
	if m.out == nil {
		return []model.MonthlyReturn{}
	}
	return m.out
}

// drawdownTracker follows the running peak. Ties move the peak date forward;
// the first maximum drawdown reached is kept.
type drawdownTracker struct {
	peak     float64
	peakDate string
	max      model.Drawdown
}

func newDrawdownTracker(startEquity float64, startDate string) *drawdownTracker {
	return &drawdownTracker{peak: startEquity, peakDate: startDate, max: model.NoDrawdown()}
}

// observe records equity at date and returns the current drawdown percent.
func (d *drawdownTracker) observe(equity float64, date string) float64 {
	if equity >= d.peak {
		d.peak = equity
		if date != "" {
			d.peakDate = date
		}
	}
	amount := d.peak - equity
	pct := 0.0
	if d.peak > 0 {
		pct = amount / d.peak * 100
	}
	if pct > d.max.Pct {
		d.max.Pct = pct
		d.max.AmountUSD = amount
		d.max.Start = d.peakDate
		d.max.End = date
		d.max.DurationDays = calculator.DayDiff(d.peakDate, date)
	}
	return pct
}

// outcomeTally counts wins (pnl >= 0) and losses with their gross totals.
type outcomeTally struct {
	wins        int
	losses      int
	grossProfit float64
	grossLoss   float64
}

func (o *outcomeTally) add(pnl float64) {
	if pnl >= 0 {
		o.wins++
		o.grossProfit += pnl
		return
	}
	o.losses++
	o.grossLoss += math.Abs(pnl)
}

func (o outcomeTally) trades() int { return o.wins + o.losses }

func (o outcomeTally) profitFactor() float64 {
	if o.grossLoss > 0 {
		return o.grossProfit / o.grossLoss
	}
	return math.NaN()
}

func (o outcomeTally) winRatePct() float64 {
	if n := o.trades(); n > 0 {
		return float64(o.wins) / float64(n) * 100
	}
	return math.NaN()
}

func monthKey(iso string) string {
	if len(iso) < 7 {
		return iso
	}
	return iso[:7]
}
