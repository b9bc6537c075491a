package journal

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/rustyeddy/riskbook/ledger"
)

var csvHeader = []string{
	"trade_id", "instrument", "direction", "entry_price", "stop_loss_price",
	"lot_size", "status", "exit_price", "profit_loss", "opened_at", "closed_at",
}

// WriteCSV writes trades in the given order. Open trades leave the exit and
// result columns empty.
func WriteCSV(w io.Writer, trades []ledger.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range trades {
		exit, pl, closed := "", "", ""
		if t.ExitPrice != nil {
			exit = t.ExitPrice.String()
		}
		if t.ProfitLoss != nil {
			pl = t.ProfitLoss.StringFixed(2)
		}
		if t.ClosedAt != nil {
			closed = t.ClosedAt.UTC().Format(time.RFC3339)
		}
		if err := cw.Write([]string{
			t.ID,
			t.Instrument.String(),
			string(t.Direction),
			t.EntryPrice.String(),
			t.StopLossPrice.String(),
			t.LotSize.StringFixed(2),
			string(t.Status),
			exit,
			pl,
			t.OpenedAt.UTC().Format(time.RFC3339),
			closed,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
