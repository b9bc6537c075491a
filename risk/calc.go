package risk

import (
	"github.com/rustyeddy/riskbook/market"
	"github.com/shopspring/decimal"
)

// PipValuePerLot is the fixed USD value of one pip on one standard forex lot.
// It is applied to every forex pair, JPY quotes included, and is not
// converted through cross rates.
var PipValuePerLot = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// MaxRiskPercent is the largest share of the balance a trade may risk.
var MaxRiskPercent = hundred

// RiskAmount returns balance * pct / 100, or zero for a non-positive pct.
func RiskAmount(balance, pct decimal.Decimal) decimal.Decimal {
	if !pct.IsPositive() {
		return decimal.Zero
	}
	return balance.Mul(pct).Div(hundred)
}

// Pips converts a price move into pips of the instrument. For crypto the move
// is returned unchanged.
func Pips(in market.Instrument, move decimal.Decimal) decimal.Decimal {
	if in.IsCrypto() {
		return move
	}
	return move.Div(in.PipSize())
}

// ValuePerLot is the USD lost per 1.0 lot if price moves from entry to stop.
//
//	crypto: |entry - stop|          (1 lot = 1 coin)
//	forex:  pips(|entry - stop|) * $10
func ValuePerLot(in market.Instrument, entry, stop decimal.Decimal) decimal.Decimal {
	dist := entry.Sub(stop).Abs()
	if in.IsCrypto() {
		return dist
	}
	return Pips(in, dist).Mul(PipValuePerLot)
}

// ProfitLoss is the realized USD result of moving lots from entry to exit in
// the given direction (+1 long, -1 short). It uses the same per-lot
// convention as ValuePerLot, so closing at the stop loses exactly the
// planned risk amount.
func ProfitLoss(in market.Instrument, sign int, entry, exit, lots decimal.Decimal) decimal.Decimal {
	delta := exit.Sub(entry).Mul(decimal.NewFromInt(int64(sign)))
	if in.IsCrypto() {
		return delta.Mul(lots)
	}
	return Pips(in, delta).Mul(PipValuePerLot).Mul(lots)
}

// RR returns reward/risk for a target, zero when entry equals stop.
func RR(entry, stop, target decimal.Decimal) decimal.Decimal {
	r := entry.Sub(stop).Abs()
	if r.IsZero() {
		return decimal.Zero
	}
	return target.Sub(entry).Abs().Div(r)
}
