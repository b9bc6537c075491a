package risk

import (
	"github.com/rustyeddy/riskbook/market"
	"github.com/shopspring/decimal"
)

// Inputs are the user supplied risk parameters. They carry no identity and
// are recomputed on every change.
type Inputs struct {
	Balance     decimal.Decimal
	RiskPercent decimal.Decimal // 1 means 1%, valid range (0, 100]
	EntryPrice  decimal.Decimal
	StopPrice   decimal.Decimal
	Instrument  market.Instrument
}

// Result is what the presentation layer shows for a set of Inputs.
type Result struct {
	RiskAmount   decimal.Decimal
	StopDistance decimal.Decimal
	StopPips     decimal.Decimal // raw price distance for crypto
	ValuePerLot  decimal.Decimal
	PositionSize decimal.Decimal
}
