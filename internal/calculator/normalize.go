package calculator

import (
	"math"
	"strconv"
	"strings"
	"time"

	"EquityLens/internal/model"
)

// IsoLayout is the calendar-day layout used for every date label.
const IsoLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	IsoLayout,
}

// ParseNumber converts a raw field to a finite float. Anything else is NaN.
func ParseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return math.NaN()
	}
	return v
}

// ParseBool accepts true, 1 and yes in any case.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Lookup returns the value of the first key present in the row, even when
// that value is empty.
func Lookup(row model.Row, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			return v
		}
	}
	return ""
}

// FirstNonEmpty returns the first non-empty value among keys.
func FirstNonEmpty(row model.Row, keys ...string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}

// ParseTimestamp parses a UTC timestamp. A space separator is accepted in
// place of 'T' and values without a zone are read as UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if !strings.Contains(s, "T") {
		s = strings.Replace(s, " ", "T", 1)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseIsoDate parses a YYYY-MM-DD calendar day at midnight UTC.
func ParseIsoDate(iso string) (time.Time, bool) {
	if len(iso) != len(IsoLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(IsoLayout, iso, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsoDate renders t as a calendar day in UTC, "" for the zero time.
func IsoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(IsoLayout)
}

// RowIsoDate is the resolution day of a row: market end time, else entry time.
func RowIsoDate(row model.Row) string {
	raw := FirstNonEmpty(row, "market_end_time_utc", "entry_time_utc")
	if len(raw) > 10 {
		raw = raw[:10]
	}
	return raw
}

func leg(row model.Row, prefix string) model.Leg {
	return model.Leg{
		Triggered:  ParseBool(row[prefix+"_triggered"]),
		Stake:      ParseNumber(row[prefix+"_stake_usd"]),
		PnL:        ParseNumber(row[prefix+"_pnl_usd"]),
		EntryPrice: ParseNumber(row[prefix+"_entry_price"]),
	}
}

// NormalizeTrade converts a raw row into typed fields. It never fails; bad
// values become NaN, empty strings or zero times.
func NormalizeTrade(row model.Row) model.Trade {
	t := model.Trade{
		Row:           row,
		Date:          RowIsoDate(row),
		Asset:         strings.TrimSpace(row["asset"]),
		Signal:        strings.TrimSpace(row["signal"]),
		ResolvedLabel: strings.TrimSpace(row["resolved_label"]),
		Slug:          row["slug"],
		MarketID:      row["market_id"],
		Base: model.Leg{
			Triggered:  true,
			Stake:      ParseNumber(Lookup(row, "base_stake_usd", "stake_usd")),
			PnL:        ParseNumber(row["base_pnl_usd"]),
			EntryPrice: ParseNumber(row["entry_price"]),
		},
		Add1230: leg(row, "add20_1230"),
		Add1430: leg(row, "add20_1430"),
	}
	t.EnteredAt, _ = ParseTimestamp(row["entry_time_utc"])
	t.ResolvedAt, _ = ParseTimestamp(row["market_end_time_utc"])
	return t
}

// MarketName renders the traded market, e.g. "SPX Up or Down on January 2, 2025".
func MarketName(t model.Trade) string {
	asset := strings.ToUpper(t.Asset)
	raw := FirstNonEmpty(t.Row, "market_end_time_utc", "entry_time_utc")
	pretty := ""
	if ts, ok := ParseTimestamp(raw); ok {
		pretty = ts.Format("January 2, 2006")
	} else if len(raw) > 10 {
		pretty = raw[:10]
	} else {
		pretty = raw
	}
	if asset != "" && pretty != "" {
		return asset + " Up or Down on " + pretty
	}
	if t.Slug != "" {
		return t.Slug
	}
	if name := strings.TrimSpace(asset + " " + t.MarketID); name != "" {
		return name
	}
	return "Unknown"
}
