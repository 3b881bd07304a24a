package calculator

import "math"

// MaxDrawdownPct scans an equity series and returns the deepest decline from
// a running peak, in percent. Non-finite values are skipped and peaks at or
// below zero are ignored.
func MaxDrawdownPct(equity []float64) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, v := range equity {
		if !Finite(v) {
			continue
		}
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// UnderwaterPct converts an equity series into its drawdown curve: the
// percent below the running peak, as values <= 0. The peak starts at start.
func UnderwaterPct(equity []float64, start float64) []float64 {
	out := make([]float64, 0, len(equity))
	peak := start
	for _, v := range equity {
		if v >= peak {
			peak = v
		}
		if peak > 0 && v < peak {
			out = append(out, -(peak-v)/peak*100)
			continue
		}
		out = append(out, 0)
	}
	return out
}
