package pricing

import (
	"fmt"
	"net/http"

	"github.com/rustyeddy/riskbook/config"
	"github.com/rustyeddy/riskbook/market"
	"github.com/rustyeddy/riskbook/pricing/binance"
	"github.com/rustyeddy/riskbook/pricing/oanda"
	"github.com/rustyeddy/riskbook/pricing/twelvedata"
)

// FromConfig builds the Source named by cfg.Provider. "router" quotes forex
// from OANDA when a token is set, Twelve Data otherwise, and crypto from Binance.
func FromConfig(cfg config.PricingConfig) (Source, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: timeout}

	td := func() Source {
		c := twelvedata.NewClient(cfg.TwelveDataKey, cfg.RatePerMinute).WithBaseURL(cfg.BaseURL)
		if timeout > 0 {
			c.WithHTTPClient(httpClient)
		}
		return c
	}
	oa := func() (Source, error) {
		base := cfg.BaseURL
		if base == "" {
			if base, err = oanda.BaseURL(cfg.OANDAEnv); err != nil {
				return nil, err
			}
		}
		c := oanda.NewClient(base, cfg.OANDAToken, cfg.OANDAAccount)
		if timeout > 0 {
			c.HTTP = httpClient
		}
		return c, nil
	}
	bn := func() Source {
		return binance.NewSource(cfg.BinanceKey, cfg.BinanceSecret).WithBaseURL(cfg.BaseURL)
	}

	switch cfg.Provider {
	case "twelvedata":
		return td(), nil
	case "oanda":
		return oa()
	case "binance":
		return bn(), nil
	case "router":
		// provider URL overrides do not apply across several hosts
		cfg.BaseURL = ""
		forex := td()
		if cfg.OANDAToken != "" && cfg.OANDAAccount != "" {
			if forex, err = oa(); err != nil {
				return nil, err
			}
		}
		return &Router{Routes: map[market.Family]Source{
			market.Forex:  forex,
			market.Crypto: bn(),
		}}, nil
	default:
		return nil, fmt.Errorf("unknown pricing provider %q", cfg.Provider)
	}
}
