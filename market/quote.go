package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the last price seen for an instrument. Spread is invalid when the
// source did not report a bid/ask.
type Quote struct {
	Instrument Instrument
	Price      decimal.Decimal
	Spread     decimal.NullDecimal
	Time       time.Time
}

// QuoteFromBidAsk builds a mid-priced quote with a known spread.
func QuoteFromBidAsk(in Instrument, bid, ask decimal.Decimal, t time.Time) Quote {
	return Quote{
		Instrument: in,
		Price:      bid.Add(ask).Div(decimal.NewFromInt(2)),
		Spread:     decimal.NewNullDecimal(ask.Sub(bid)),
		Time:       t,
	}
}

// SpreadPips expresses the spread in pips of the instrument, the raw spread
// for crypto.
func (q Quote) SpreadPips() (decimal.Decimal, bool) {
	if !q.Spread.Valid {
		return decimal.Zero, false
	}
	return q.Spread.Decimal.Div(q.Instrument.PipSize()), true
}

func (q Quote) Valid() bool {
	return q.Instrument.Valid() && q.Price.IsPositive()
}
