package calculator

import (
	"math"

	"EquityLens/internal/model"
)

const (
	// AddFraction is the share of the target bet staked by each triggered add leg.
	AddFraction = 0.2
	// DefaultBetSize is the stake assumed when a row carries no usable stake.
	DefaultBetSize = 100.0
)

// ScaleTrade resizes a trade's realized P&L to targetBet. Each leg with a
// finite P&L and a positive stake is scaled on its own. When no leg is
// usable the aggregate pnlColumn is scaled by targetBet over the recorded
// total stake, or over DefaultBetSize when that stake is unusable.
func ScaleTrade(t model.Trade, pnlColumn string, targetBet float64) model.ScaledTrade {
	add1230Stake := legTargetStake(t.Add1230, targetBet)
	add1430Stake := legTargetStake(t.Add1430, targetBet)

	out := model.ScaledTrade{
		Mode:          model.ScaleByLeg,
		TotalStakeUSD: targetBet + add1230Stake + add1430Stake,
	}

	pnl, used := 0.0, false
	if v, ok := scaleLeg(t.Base, targetBet); ok {
		pnl += v
		used = true
	}
	if t.Add1230.Triggered {
		if v, ok := scaleLeg(t.Add1230, add1230Stake); ok {
			pnl += v
			used = true
		}
	}
	if t.Add1430.Triggered {
		if v, ok := scaleLeg(t.Add1430, add1430Stake); ok {
			pnl += v
			used = true
		}
	}

	if used {
		out.PnLUSD = pnl
	} else {
		rawPnL := ParseNumber(t.Row[pnlColumn])
		rawStake := ParseNumber(Lookup(t.Row, "new_total_stake_usd", "base_stake_usd", "stake_usd"))
		if Finite(rawStake) && rawStake > 0 {
			out.Mode = model.ScaleByTotalStake
			out.Scale = targetBet / rawStake
		} else {
			out.Mode = model.ScaleByDefaultBet
			out.Scale = targetBet / DefaultBetSize
		}
		out.PnLUSD = math.NaN()
		if Finite(rawPnL) {
			out.PnLUSD = rawPnL * out.Scale
		}
	}

	out.EntryPrice = blendedEntry(t, targetBet, add1230Stake, add1430Stake)
	return out
}

func legTargetStake(l model.Leg, targetBet float64) float64 {
	if !l.Triggered {
		return 0
	}
	return targetBet * AddFraction
}

func scaleLeg(l model.Leg, targetStake float64) (float64, bool) {
	if !Finite(l.PnL) || !Finite(l.Stake) || l.Stake <= 0 {
		return 0, false
	}
	return l.PnL * (targetStake / l.Stake), true
}

func blendedEntry(t model.Trade, baseStake, add1230Stake, add1430Stake float64) float64 {
	var priceSum, stakeSum float64
	weigh := func(price, stake float64) {
		if stake > 0 && Finite(price) {
			priceSum += price * stake
			stakeSum += stake
		}
	}
	weigh(t.Base.EntryPrice, baseStake)
	weigh(t.Add1230.EntryPrice, add1230Stake)
	weigh(t.Add1430.EntryPrice, add1430Stake)
	if stakeSum > 0 {
		return priceSum / stakeSum
	}
	return t.Base.EntryPrice
}
