package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd wires every subcommand to app. Commands that touch the ledger
// or prices initialise app first.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "riskbook",
		Short: "Position sizing calculator and trade journal",
		Long: `Riskbook sizes positions from account risk and keeps a journal of trades.

It provides tools for:
  - Fetching current prices for major forex and crypto pairs
  - Sizing a position from risk percent, entry and stop-loss
  - Logging, closing and deleting trades against a running balance
  - Exporting the journal as CSV or Org-mode`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", "", "config file (default ./riskbook.yaml if present)")

	root.AddCommand(
		newPriceCmd(app),
		newSizeCmd(app),
		newLogCmd(app),
		newCloseCmd(app),
		newDeleteCmd(app),
		newTradesCmd(app),
		newBalanceCmd(app),
		newExportCmd(app),
		newConfigCmd(app),
		newVersionCmd(),
	)
	return root
}

// withApp initialises app before running fn and closes it afterwards.
func withApp(app *App, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := app.Init(cmd.Context()); err != nil {
			return err
		}
		defer app.Close()
		return fn(cmd, args)
	}
}

// Execute runs the CLI with a fresh App.
func Execute() error {
	return NewRootCmd(&App{}).Execute()
}
