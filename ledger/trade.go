package ledger

import (
	"fmt"
	"time"

	"github.com/rustyeddy/riskbook/market"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// DirectionFor is BUY when the stop sits below entry, SELL otherwise.
func DirectionFor(entry, stop decimal.Decimal) Direction {
	if entry.GreaterThan(stop) {
		return Buy
	}
	return Sell
}

// Sign is +1 for BUY and -1 for SELL.
func (d Direction) Sign() int {
	if d == Buy {
		return 1
	}
	return -1
}

func (d Direction) Valid() bool { return d == Buy || d == Sell }

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Trade is one journal entry. ExitPrice, ProfitLoss and ClosedAt are set
// exactly when Status is CLOSED.
type Trade struct {
	ID            string            `json:"id"`
	Instrument    market.Instrument `json:"instrument"`
	Direction     Direction         `json:"direction"`
	EntryPrice    decimal.Decimal   `json:"entryPrice"`
	StopLossPrice decimal.Decimal   `json:"stopLossPrice"`
	LotSize       decimal.Decimal   `json:"lotSize"`
	Status        Status            `json:"status"`
	ExitPrice     *decimal.Decimal  `json:"exitPrice,omitempty"`
	ProfitLoss    *decimal.Decimal  `json:"profitLoss,omitempty"`
	OpenedAt      time.Time         `json:"openedAt"`
	ClosedAt      *time.Time        `json:"closedAt,omitempty"`
}

func (t Trade) IsOpen() bool { return t.Status == StatusOpen }

// PL returns the realized profit or loss, zero while open.
func (t Trade) PL() decimal.Decimal {
	if t.ProfitLoss == nil {
		return decimal.Zero
	}
	return *t.ProfitLoss
}

// Validate checks the field invariants of a single trade.
func (t Trade) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("trade has no id")
	}
	if !t.Instrument.Valid() {
		return fmt.Errorf("trade %s: %w: %q", t.ID, market.ErrUnknownInstrument, string(t.Instrument))
	}
	if !t.Direction.Valid() {
		return fmt.Errorf("trade %s: bad direction %q", t.ID, t.Direction)
	}
	if !t.LotSize.IsPositive() {
		return fmt.Errorf("trade %s: lot size must be positive", t.ID)
	}
	switch t.Status {
	case StatusOpen:
		if t.ExitPrice != nil || t.ProfitLoss != nil {
			return fmt.Errorf("trade %s: open trade carries exit or profit/loss", t.ID)
		}
	case StatusClosed:
		if t.ExitPrice == nil || t.ProfitLoss == nil {
			return fmt.Errorf("trade %s: closed trade is missing exit or profit/loss", t.ID)
		}
	default:
		return fmt.Errorf("trade %s: bad status %q", t.ID, t.Status)
	}
	return nil
}

func (t Trade) clone() Trade {
	c := t
	if t.ExitPrice != nil {
		v := *t.ExitPrice
		c.ExitPrice = &v
	}
	if t.ProfitLoss != nil {
		v := *t.ProfitLoss
		c.ProfitLoss = &v
	}
	if t.ClosedAt != nil {
		v := *t.ClosedAt
		c.ClosedAt = &v
	}
	return c
}
