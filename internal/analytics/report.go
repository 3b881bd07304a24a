package analytics

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"EquityLens/internal/calculator"
	"EquityLens/internal/model"
)

// AssetBoth disables the asset filter.
const AssetBoth = "both"

// FilterRows keeps rows whose asset matches filter case-insensitively.
func FilterRows(rows []model.Row, filter string) []model.Row {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" || filter == AssetBoth {
		return rows
	}
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if strings.ToLower(strings.TrimSpace(r["asset"])) == filter {
			out = append(out, r)
		}
	}
	return out
}

// ComputeBacktests runs ComputeBacktest over every dataset after filtering.
func ComputeBacktests(datasets []model.Dataset, assetFilter string, p Params) []model.MetricsResult {
	out := make([]model.MetricsResult, 0, len(datasets))
	for _, ds := range datasets {
		out = append(out, ComputeBacktest(ds.Label, FilterRows(ds.Rows, assetFilter), ds.PnLColumn, p))
	}
	return out
}

// DatasetWindow is the earliest start and latest end across results.
func DatasetWindow(results []model.MetricsResult) (start, end string) {
	for _, r := range results {
		if s := r.PeriodStart; s != "" && (start == "" || s < start) {
			start = s
		}
		if e := r.PeriodEnd; e != "" && e > end {
			end = e
		}
	}
	return start, end
}

// YearRow is one line of the monthly return matrix.
type YearRow struct {
	Year   string
	Months [12]float64 // NaN where the month has no trades
	YTDPct float64
}

// MonthlyMatrix arranges monthly returns by year. YTD is the year's summed
// P&L over the starting equity of its first month.
func MonthlyMatrix(returns []model.MonthlyReturn) []YearRow {
	type acc struct {
		row   YearRow
		pnl   float64
		start float64
	}
	byYear := map[string]*acc{}
	var years []string
	for _, m := range returns {
		parts := strings.SplitN(m.MonthKey, "-", 2)
		year := parts[0]
		a, ok := byYear[year]
		if !ok {
			a = &acc{row: YearRow{Year: year}, start: m.StartEquity}
			for i := range a.row.Months {
				a.row.Months[i] = math.NaN()
			}
			byYear[year] = a
			years = append(years, year)
		}
		if len(parts) == 2 {
			if idx, err := strconv.Atoi(parts[1]); err == nil && idx >= 1 && idx <= 12 {
				a.row.Months[idx-1] = m.ReturnPct
			}
		}
		a.pnl += m.PnL
	}

	sort.SliceStable(years, func(i, j int) bool {
		yi, _ := strconv.Atoi(years[i])
		yj, _ := strconv.Atoi(years[j])
		return yi < yj
	})
	out := make([]YearRow, 0, len(years))
	for _, y := range years {
		a := byYear[y]
		a.row.YTDPct = math.NaN()
		if a.start != 0 {
			a.row.YTDPct = a.pnl / a.start * 100
		}
		out = append(out, a.row)
	}
	return out
}

// KPIs are the headline figures derived from a result.
type KPIs struct {
	ProfitableMonths int
	TotalMonths      int
	NetProfitPct     float64
	Return           calculator.DisplayReturn
}

// ComputeKPIs derives the headline figures of res.
func ComputeKPIs(res model.MetricsResult) KPIs {
	k := KPIs{
		TotalMonths:  len(res.MonthlyReturns),
		NetProfitPct: math.NaN(),
		Return:       calculator.ComputeDisplayReturn(res.PeriodStart, res.PeriodEnd, res.StartingEquity, res.EndingEquity),
	}
	for _, m := range res.MonthlyReturns {
		if m.ReturnPct > 0 {
			k.ProfitableMonths++
		}
	}
	if res.StartingEquity > 0 {
		k.NetProfitPct = res.NetPnL / res.StartingEquity * 100
	}
	return k
}

// TradePage is one page of the trade log.
type TradePage struct {
	Page       int
	TotalPages int
	TotalRows  int
	Entries    []model.TradeLogEntry
}

// PageTrades returns page (1-based, clamped) of log.
func PageTrades(log []model.TradeLogEntry, page int) TradePage {
	total := len(log)
	pages := (total + TradeLogPageSize - 1) / TradeLogPageSize
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * TradeLogPageSize
	end := start + TradeLogPageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return TradePage{Page: page, TotalPages: pages, TotalRows: total, Entries: log[start:end]}
}
