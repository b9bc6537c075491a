package cmd

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/riskbook/ledger"
	"github.com/rustyeddy/riskbook/market"
	"github.com/rustyeddy/riskbook/risk"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type riskFlags struct {
	pair  string
	risk  string
	entry string
	stop  string
}

func (f *riskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.pair, "pair", "p", "", "instrument, e.g. EUR/USD (default from config)")
	cmd.Flags().StringVarP(&f.risk, "risk", "r", "", "risk percent of balance (default from config)")
	cmd.Flags().StringVarP(&f.entry, "entry", "e", "", "entry price (default current price)")
	cmd.Flags().StringVarP(&f.stop, "stop", "s", "", "stop-loss price")
	cmd.MarkFlagRequired("stop")
}

// inputs resolves flags against config defaults and the price source. The
// entry falls back to the freshly fetched price of the pair.
func (f *riskFlags) inputs(cmd *cobra.Command, app *App) (risk.Inputs, risk.Validation) {
	pair := f.pair
	if pair == "" {
		pair = app.Config.Risk.DefaultPair
	}
	pct := f.risk
	if pct == "" {
		pct = decimal.NewFromFloat(app.Config.Risk.DefaultPercent).String()
	}
	entry := f.entry
	if entry == "" {
		if in, err := market.Parse(pair); err == nil {
			app.Prices.Refresh(cmd.Context(), []market.Instrument{in})
			if q, ok := app.Prices.Price(in); ok {
				entry = q.Price.String()
				fmt.Fprintf(cmd.OutOrStdout(), "Entry from current price: %s\n", entry)
			}
		}
	}
	return risk.ParseInputs(app.Engine.Balance(), pair, pct, entry, f.stop)
}

func printResult(cmd *cobra.Command, in risk.Inputs, res risk.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Balance:       $%s\n", in.Balance.StringFixed(2))
	fmt.Fprintf(out, "Risk amount:   $%s\n", res.RiskAmount.StringFixed(2))
	if in.Instrument.IsCrypto() {
		fmt.Fprintf(out, "Stop distance: %s\n", res.StopDistance)
	} else {
		fmt.Fprintf(out, "Stop distance: %s pips\n", res.StopPips.StringFixed(1))
	}
	fmt.Fprintf(out, "Lot size:      %s\n", res.PositionSize.StringFixed(2))
}

func newSizeCmd(app *App) *cobra.Command {
	var f riskFlags
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Compute a position size",
		Long: `Compute the lot size that risks the given percent of the balance.

Example:
  riskbook size --pair EUR/USD --risk 1 --entry 1.10000 --stop 1.09900`,
		Args: cobra.NoArgs,
		RunE: withApp(app, func(cmd *cobra.Command, args []string) error {
			in, v := f.inputs(cmd, app)
			if !v.Valid {
				fmt.Fprintf(cmd.ErrOrStderr(), "invalid input: %s\n", v.Reason())
			}
			printResult(cmd, in, app.Engine.Calculate(in))
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newLogCmd(app *App) *cobra.Command {
	var f riskFlags
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Size and log a new open trade",
		Long: `Size a position from the risk parameters and record it as an open trade.
Direction is BUY when entry is above the stop, SELL otherwise.

Example:
  riskbook log --pair BTC/USD --risk 0.5 --entry 60000 --stop 59000`,
		Args: cobra.NoArgs,
		RunE: withApp(app, func(cmd *cobra.Command, args []string) error {
			in, v := f.inputs(cmd, app)
			res := app.Engine.Calculate(in)
			printResult(cmd, in, res)
			if !v.Valid {
				return fmt.Errorf("log trade: %w: %s", ledger.ErrInsufficientRisk, v.Reason())
			}

			t, err := app.Engine.LogTrade(cmd.Context(), in, res.PositionSize)
			if t.ID == "" {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged %s %s %s lots (id %s)\n", t.Direction, t.Instrument, t.LotSize.StringFixed(2), t.ID)
			return notPersisted(err)
		}),
	}
	f.register(cmd)
	return cmd
}

// notPersisted reports a change that was applied in memory but not saved.
func notPersisted(err error) error {
	if err == nil || !errors.Is(err, ledger.ErrNotPersisted) {
		return err
	}
	return fmt.Errorf("change applied but %w", err)
}
