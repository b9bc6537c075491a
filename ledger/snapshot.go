package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Snapshot is the unit of persistence: the balance and every trade, newest
// first. It is always written as a whole.
type Snapshot struct {
	Balance decimal.Decimal `json:"balance"`
	Trades  []Trade         `json:"trades"`
}

// DefaultSnapshot is used when the store has nothing yet.
func DefaultSnapshot(initialBalance decimal.Decimal) Snapshot {
	return Snapshot{Balance: initialBalance, Trades: []Trade{}}
}

// Validate rejects snapshots whose trades break their invariants or repeat an id.
func (s Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Trades))
	for _, t := range s.Trades {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate trade id %s", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// RealizedPL sums the profit/loss of every closed trade.
func (s Snapshot) RealizedPL() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range s.Trades {
		if t.Status == StatusClosed {
			sum = sum.Add(t.PL())
		}
	}
	return sum
}

// InitialBalance recovers the starting balance: balance minus every realized
// result still in the ledger.
func (s Snapshot) InitialBalance() decimal.Decimal {
	return s.Balance.Sub(s.RealizedPL())
}

func (s Snapshot) clone() Snapshot {
	c := Snapshot{Balance: s.Balance, Trades: make([]Trade, len(s.Trades))}
	for i, t := range s.Trades {
		c.Trades[i] = t.clone()
	}
	return c
}
