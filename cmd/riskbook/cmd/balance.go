package cmd

import (
	"fmt"

	"github.com/rustyeddy/riskbook/journal"
	"github.com/spf13/cobra"
)

func newBalanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the account balance and journal summary",
		Args:  cobra.NoArgs,
		RunE: withApp(app, func(cmd *cobra.Command, args []string) error {
			s := journal.Summarize(app.Engine.Snapshot())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Balance:        $%s %s\n", s.Balance.StringFixed(2), app.Config.Account.Currency)
			fmt.Fprintf(out, "Initial:        $%s\n", s.InitialBalance.StringFixed(2))
			fmt.Fprintf(out, "Realized P/L:   $%s\n", s.RealizedPL.StringFixed(2))
			fmt.Fprintf(out, "Open trades:    %d\n", s.Open)
			fmt.Fprintf(out, "Closed trades:  %d (%d won, %d lost)\n", s.Closed, s.Wins, s.Losses)
			fmt.Fprintf(out, "Win rate:       %s%%\n", s.WinRate().Shift(2).StringFixed(1))
			fmt.Fprintf(out, "Profit factor:  %s\n", s.ProfitFactor().StringFixed(2))
			return nil
		}),
	}
}
