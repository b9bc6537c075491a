package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rustyeddy/riskbook/ledger"
	"github.com/rustyeddy/riskbook/risk"
	"github.com/spf13/cobra"
)

func newCloseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "close ID EXIT",
		Short: "Close an open trade at an exit price",
		Long: `Close an open trade and credit its profit or loss to the balance.

Example:
  riskbook close 01J9Z3K8QW 1.10100`,
		Args: cobra.ExactArgs(2),
		RunE: withApp(app, func(cmd *cobra.Command, args []string) error {
			exit, v := risk.ParsePositive("exit", args[1])
			if !v.Valid {
				return fmt.Errorf("close trade %s: %w: %s", args[0], ledger.ErrInvalidExitPrice, v.Reason())
			}
			t, err := app.Engine.CloseTrade(cmd.Context(), args[0], exit)
			if t.ID == "" {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Closed %s at %s, P/L $%s, balance $%s\n",
				t.ID, exit, t.PL().StringFixed(2), app.Engine.Balance().StringFixed(2))
			return notPersisted(err)
		}),
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a trade",
		Long: `Remove a trade from the journal. Deleting a closed trade takes its
profit or loss back out of the balance.

Example:
  riskbook delete 01J9Z3K8QW --yes`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(app, func(cmd *cobra.Command, args []string) error {
			id := args[0]
			t, ok := app.Engine.Trade(id)
			if !ok {
				return fmt.Errorf("delete trade %s: %w", id, ledger.ErrTradeNotFound)
			}
			if !yes && !confirm(cmd, app, fmt.Sprintf("Delete %s %s %s (%s)?", t.Direction, t.Instrument, t.LotSize.StringFixed(2), t.Status)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			t, err := app.Engine.DeleteTrade(cmd.Context(), id)
			if t.ID == "" {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s, balance $%s\n", t.ID, app.Engine.Balance().StringFixed(2))
			return notPersisted(err)
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirm(cmd *cobra.Command, app *App, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(app.In).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newTradesCmd(app *App) *cobra.Command {
	var openOnly bool
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List trades, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(app, func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPAIR\tDIR\tENTRY\tSTOP\tLOTS\tSTATUS\tEXIT\tP/L")
			for _, t := range app.Engine.Trades() {
				if openOnly && !t.IsOpen() {
					continue
				}
				exit, pl := "-", "-"
				if t.ExitPrice != nil {
					exit = t.ExitPrice.String()
				}
				if t.ProfitLoss != nil {
					pl = t.ProfitLoss.StringFixed(2)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Instrument, t.Direction, t.EntryPrice, t.StopLossPrice,
					t.LotSize.StringFixed(2), t.Status, exit, pl)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().BoolVar(&openOnly, "open", false, "only show open trades")
	return cmd
}
