package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/riskbook/ledger"
)

// FormatTradeOrg renders a trade as an Org-mode block suitable for pasting
// into a journal. Structured facts go in a PROPERTIES drawer; the headings
// below are left for notes.
func FormatTradeOrg(t ledger.Trade) string {
	heading := fmt.Sprintf("** %s %s %s (%s)", t.Status, t.Direction, t.Instrument, shortID(t.ID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":INSTRUMENT: %s\n", t.Instrument))
	b.WriteString(fmt.Sprintf(":DIRECTION: %s\n", t.Direction))
	b.WriteString(fmt.Sprintf(":LOTS: %s\n", t.LotSize.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %s\n", t.EntryPrice))
	b.WriteString(fmt.Sprintf(":STOP_LOSS: %s\n", t.StopLossPrice))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", t.OpenedAt.UTC().Format(time.RFC3339)))
	if t.Status == ledger.StatusClosed {
		b.WriteString(fmt.Sprintf(":EXIT_PRICE: %s\n", t.ExitPrice))
		if t.ClosedAt != nil {
			b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", t.ClosedAt.UTC().Format(time.RFC3339)))
		}
		b.WriteString(fmt.Sprintf(":REALIZED_PL: %s\n", t.ProfitLoss.StringFixed(2)))
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []ledger.Trade) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
