package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rustyeddy/riskbook/journal"
	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the journal as CSV or Org-mode",
		Long: `Write every trade, newest first, to stdout or a file.

Examples:
  riskbook export --format csv -o trades.csv
  riskbook export --format org`,
		Args: cobra.NoArgs,
		RunE: withApp(app, func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				defer f.Close()
				w = f
			}

			trades := app.Engine.Trades()
			switch format {
			case "csv":
				if err := journal.WriteCSV(w, trades); err != nil {
					return fmt.Errorf("export: %w", err)
				}
			case "org":
				if _, err := io.WriteString(w, journal.FormatTradesOrg(trades)); err != nil {
					return fmt.Errorf("export: %w", err)
				}
			default:
				return fmt.Errorf("export: unknown format %q (want csv or org)", format)
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d trades to %s\n", len(trades), output)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or org")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
