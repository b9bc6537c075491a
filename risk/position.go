package risk

import (
	"github.com/shopspring/decimal"
)

// PositionSize returns the lot size that risks RiskAmount if the stop is hit.
// Invalid inputs yield zero, never an error.
func PositionSize(in Inputs) decimal.Decimal {
	return Calculate(in).PositionSize
}

// Calculate computes every reactive output for in. When the guard fails all
// fields are zero. A risk percent above MaxRiskPercent is out of range and
// fails the guard too.
func Calculate(in Inputs) Result {
	if !in.RiskPercent.IsPositive() || in.RiskPercent.GreaterThan(MaxRiskPercent) ||
		!in.EntryPrice.IsPositive() ||
		!in.StopPrice.IsPositive() || !in.Instrument.Valid() {
		return Result{
			RiskAmount:   decimal.Zero,
			StopDistance: decimal.Zero,
			StopPips:     decimal.Zero,
			ValuePerLot:  decimal.Zero,
			PositionSize: decimal.Zero,
		}
	}

	dist := in.EntryPrice.Sub(in.StopPrice).Abs()
	res := Result{
		RiskAmount:   RiskAmount(in.Balance, in.RiskPercent),
		StopDistance: dist,
		StopPips:     Pips(in.Instrument, dist),
		ValuePerLot:  ValuePerLot(in.Instrument, in.EntryPrice, in.StopPrice),
		PositionSize: decimal.Zero,
	}
	if res.ValuePerLot.IsPositive() && res.RiskAmount.IsPositive() {
		res.PositionSize = res.RiskAmount.Div(res.ValuePerLot)
	}
	return res
}

// RoundLots rounds a position size to the given number of decimals, the way
// a lot size is displayed and recorded.
func RoundLots(size decimal.Decimal, places int32) decimal.Decimal {
	return size.Round(places)
}
