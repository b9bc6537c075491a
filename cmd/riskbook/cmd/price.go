package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/riskbook/config"
	"github.com/rustyeddy/riskbook/market"
	"github.com/rustyeddy/riskbook/pricing"
	"github.com/spf13/cobra"
)

func newPriceCmd(app *App) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "price [PAIR...]",
		Short: "Fetch current prices",
		Long: `Fetch the latest price for the given pairs, or every supported pair.
With --watch the table is refreshed at the configured interval until interrupted.

Examples:
  riskbook price
  riskbook price EUR/USD BTC/USD --watch`,
		RunE: withApp(app, func(cmd *cobra.Command, args []string) error {
			ins := market.All()
			if len(args) > 0 {
				ins = make([]market.Instrument, 0, len(args))
				for _, a := range args {
					in, err := market.Parse(a)
					if err != nil {
						return err
					}
					ins = append(ins, in)
				}
			}

			if err := refreshAndPrint(cmd, app, ins); err != nil || !watch {
				return err
			}

			every, err := app.Config.Pricing.RefreshDuration()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watchPrices(ctx, cmd, app, ins, every)
		}),
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing at the configured interval")
	return cmd
}

func watchPrices(ctx context.Context, cmd *cobra.Command, app *App, ins []market.Instrument, every time.Duration) error {
	if every <= 0 {
		every = config.DefaultRefresh
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			fmt.Fprintln(cmd.OutOrStdout())
			if err := refreshAndPrint(cmd, app, ins); err != nil {
				return err
			}
		}
	}
}

func refreshAndPrint(cmd *cobra.Command, app *App, ins []market.Instrument) error {
	entries := app.Prices.Refresh(cmd.Context(), ins)
	if _, err := app.Prices.Status(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "price source error: %v\n", err)
	}
	return printPrices(cmd.OutOrStdout(), ins, entries)
}

func printPrices(out io.Writer, ins []market.Instrument, entries map[market.Instrument]pricing.Entry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAIR\tPRICE\tSPREAD")
	for _, in := range ins {
		e := entries[in]
		price, spread := "unavailable", "N/A"
		if e.Available {
			price = e.Quote.Price.StringFixed(5)
			if pips, ok := e.Quote.SpreadPips(); ok {
				spread = pips.StringFixed(1)
			}
			if e.Stale {
				price += " (stale)"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", in, price, spread)
	}
	return w.Flush()
}
