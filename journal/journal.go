// journal/journal.go
package journal

import (
	"github.com/rustyeddy/riskbook/ledger"
	"github.com/shopspring/decimal"
)

// Summary aggregates a ledger for display.
type Summary struct {
	Balance        decimal.Decimal
	InitialBalance decimal.Decimal
	Open           int
	Closed         int
	Wins           int
	Losses         int
	RealizedPL     decimal.Decimal
	GrossProfit    decimal.Decimal
	GrossLoss      decimal.Decimal // positive
}

// WinRate is wins / closed, zero with no closed trades.
func (s Summary) WinRate() decimal.Decimal {
	if s.Closed == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Wins)).Div(decimal.NewFromInt(int64(s.Closed)))
}

// ProfitFactor is gross profit / gross loss, zero when nothing was lost.
func (s Summary) ProfitFactor() decimal.Decimal {
	if s.GrossLoss.IsZero() {
		return decimal.Zero
	}
	return s.GrossProfit.Div(s.GrossLoss)
}

func Summarize(snap ledger.Snapshot) Summary {
	s := Summary{
		Balance:        snap.Balance,
		InitialBalance: snap.InitialBalance(),
		RealizedPL:     decimal.Zero,
		GrossProfit:    decimal.Zero,
		GrossLoss:      decimal.Zero,
	}
	for _, t := range snap.Trades {
		if t.IsOpen() {
			s.Open++
			continue
		}
		s.Closed++
		pl := t.PL()
		s.RealizedPL = s.RealizedPL.Add(pl)
		switch {
		case pl.IsPositive():
			s.Wins++
			s.GrossProfit = s.GrossProfit.Add(pl)
		case pl.IsNegative():
			s.Losses++
			s.GrossLoss = s.GrossLoss.Add(pl.Neg())
		}
	}
	return s
}
