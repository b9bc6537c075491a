package cmd

import (
	"fmt"

	"github.com/rustyeddy/riskbook/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage riskbook configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  riskbook config init -o riskbook.yaml
  riskbook config validate -f riskbook.yaml`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(out, "\nAPI keys are read from the environment or a .env file:")
			fmt.Fprintln(out, "  TWELVEDATA_API_KEY, OANDA_TOKEN, BINANCE_API_KEY, BINANCE_SECRET_KEY")
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", defaultConfigFile, "output config file path")

	var path string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = app.ConfigPath
			}
			if path == "" {
				path = defaultConfigFile
			}
			if err := config.LoadDotEnv(app.EnvFiles...); err != nil {
				return err
			}
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(out, "  Account: $%.2f %s\n", cfg.Account.InitialBalance, cfg.Account.Currency)
			fmt.Fprintf(out, "  Risk: %.2f%% on %s\n", cfg.Risk.DefaultPercent, cfg.Risk.DefaultPair)
			fmt.Fprintf(out, "  Pricing: %s\n", cfg.Pricing.Provider)
			fmt.Fprintf(out, "  Store: %s\n", cfg.Store.Type)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (default --config or ./riskbook.yaml)")

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
