package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/riskbook/config"
	"github.com/rustyeddy/riskbook/internal/logger"
	"github.com/rustyeddy/riskbook/ledger"
	"github.com/rustyeddy/riskbook/pricing"
	"github.com/rustyeddy/riskbook/store"
)

// App carries everything a command needs. Fields left nil are built from
// the configuration in Init; tests fill Store and Source directly.
type App struct {
	ConfigPath string
	EnvFiles   []string

	Config *config.Config
	Store  ledger.Store
	Source pricing.Source
	Engine *ledger.Engine
	Prices *pricing.Adapter
	Log    zerolog.Logger
	In     io.Reader
	LogOut io.Writer

	closers []func() error
}

// Init loads configuration and opens the ledger and price adapter.
func (a *App) Init(ctx context.Context) error {
	if err := config.LoadDotEnv(a.EnvFiles...); err != nil {
		return err
	}
	if a.Config == nil {
		cfg, err := a.loadConfig()
		if err != nil {
			return err
		}
		a.Config = cfg
	}
	a.Log = logger.Setup(a.Config.Log.Level, a.LogOut)
	if a.In == nil {
		a.In = os.Stdin
	}

	if a.Store == nil {
		st, closeFn, err := store.Open(a.Config.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		a.Store = st
		a.closers = append(a.closers, closeFn)
	}
	eng, err := ledger.Open(ctx, a.Store, a.Config.Account.Balance(),
		ledger.WithLogger(a.Log.With().Str("component", "ledger").Logger()),
		ledger.WithLotPlaces(int32(a.Config.Risk.LotPrecision)),
	)
	if err != nil {
		return err
	}
	a.Engine = eng

	if a.Source == nil {
		src, err := pricing.FromConfig(a.Config.Pricing)
		if err != nil {
			return fmt.Errorf("pricing: %w", err)
		}
		a.Source = src
	}
	a.Prices = pricing.NewAdapter(a.Source,
		pricing.WithLogger(a.Log.With().Str("component", "pricing").Logger()))
	return nil
}

func (a *App) loadConfig() (*config.Config, error) {
	path := a.ConfigPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			cfg := config.Default()
			cfg.ApplyEnv()
			return cfg, cfg.Validate()
		}
		path = defaultConfigFile
	}
	return config.LoadFromFile(path)
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

const defaultConfigFile = "riskbook.yaml"
