// Package burn computes the deflationary burns applied to KeeperCoin
// transfers: a balance-tiered dynamic burn on every transfer and a
// lazily triggered annual supply burn.
package burn

import (
	"math/big"
	"time"
)

// Interval is the spacing between annual supply burns.
const Interval = 365 * 24 * time.Hour

// Tiers holds the dynamic-burn schedule: three descending balance
// thresholds and the per-mille rates at the band edges.
type Tiers struct {
	Tier1 *big.Int
	Tier2 *big.Int
	Tier3 *big.Int

	// Per-mille rates, MinRate < MidRate < MaxRate.
	MinRate uint64
	MidRate uint64
	MaxRate uint64
}

// Rate returns the per-mille burn rate for a sender with the given
// pre-transfer balance. The rate interpolates linearly between the
// band-edge rates and is exact at the tier boundaries: Rate(Tier1) ==
// MinRate, Rate(Tier2) == MidRate, Rate(Tier3) == MaxRate. All
// arithmetic truncates.
func Rate(balance *big.Int, t Tiers) *big.Int {
	minRate := new(big.Int).SetUint64(t.MinRate)
	midRate := new(big.Int).SetUint64(t.MidRate)
	maxRate := new(big.Int).SetUint64(t.MaxRate)

	switch {
	case balance.Cmp(t.Tier1) >= 0:
		return minRate
	case balance.Cmp(t.Tier2) >= 0:
		// minRate + (tier1 - balance) * (midRate - minRate) / (tier1 - tier2)
		span := new(big.Int).Sub(t.Tier1, t.Tier2)
		step := new(big.Int).Sub(t.Tier1, balance)
		step.Mul(step, new(big.Int).Sub(midRate, minRate))
		step.Div(step, span)
		return step.Add(step, minRate)
	case balance.Cmp(t.Tier3) >= 0:
		// midRate + (tier2 - balance) * (maxRate - midRate) / (tier2 - tier3)
		span := new(big.Int).Sub(t.Tier2, t.Tier3)
		step := new(big.Int).Sub(t.Tier2, balance)
		step.Mul(step, new(big.Int).Sub(maxRate, midRate))
		step.Div(step, span)
		return step.Add(step, midRate)
	default:
		return maxRate
	}
}

// Amount returns the dynamic burn for a transfer of amount by a sender
// with the given pre-transfer balance: amount * rate / 1000, floored.
func Amount(amount, balance *big.Int, t Tiers) *big.Int {
	out := new(big.Int).Mul(amount, Rate(balance, t))
	return out.Div(out, big.NewInt(1000))
}

// AnnualAmount returns the annual burn: rate percent of total supply,
// capped at the reserve balance the burn is debited from.
func AnnualAmount(totalSupply, reserveBalance *big.Int, rate uint64) *big.Int {
	out := new(big.Int).Mul(totalSupply, new(big.Int).SetUint64(rate))
	out.Div(out, big.NewInt(100))
	if out.Cmp(reserveBalance) > 0 {
		out.Set(reserveBalance)
	}
	return out
}

// Engine tracks when the next annual burn falls due. The check is
// lazy: callers ask Due from the transfer path, there is no timer.
type Engine struct {
	next time.Time
}

// NewEngine schedules the first annual burn one interval after
// deployment.
func NewEngine(deployedAt time.Time) *Engine {
	return &Engine{next: deployedAt.Add(Interval)}
}

// Due reports whether an annual burn should fire at now.
func (e *Engine) Due(now time.Time) bool {
	return !now.Before(e.next)
}

// NextBurnTime returns when the next annual burn becomes due.
func (e *Engine) NextBurnTime() time.Time {
	return e.next
}

// Reset reschedules the next annual burn one interval after now.
func (e *Engine) Reset(now time.Time) {
	e.next = now.Add(Interval)
}
