package binance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rustyeddy/riskbook/market"
	"github.com/shopspring/decimal"
)

// Source quotes crypto instruments from Binance spot tickers. USD pairs are
// priced from their USDT market.
type Source struct {
	client *binance.Client
}

// NewSource builds a source. Public ticker endpoints accept empty keys.
func NewSource(apiKey, secretKey string) *Source {
	return &Source{client: binance.NewClient(apiKey, secretKey)}
}

// WithBaseURL points the client at another host, used by tests.
func (s *Source) WithBaseURL(u string) *Source {
	if u != "" {
		s.client.BaseURL = u
	}
	return s
}

// FetchQuotes asks for each crypto instrument in turn. It fails only when
// every request fails.
func (s *Source) FetchQuotes(ctx context.Context, ins []market.Instrument) (map[market.Instrument]market.Quote, error) {
	out := make(map[market.Instrument]market.Quote, len(ins))
	var errs []error
	for _, in := range ins {
		if !in.IsCrypto() {
			continue
		}
		q, err := s.quote(ctx, in)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", in.Binance(), err))
			continue
		}
		out[in] = q
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (s *Source) quote(ctx context.Context, in market.Instrument) (market.Quote, error) {
	prices, err := s.client.NewListPricesService().Symbol(in.Binance()).Do(ctx)
	if err != nil {
		return market.Quote{}, err
	}
	for _, p := range prices {
		if p.Symbol != in.Binance() {
			continue
		}
		v, err := decimal.NewFromString(p.Price)
		if err != nil {
			return market.Quote{}, fmt.Errorf("parse price %q: %w", p.Price, err)
		}
		return market.Quote{Instrument: in, Price: v, Time: time.Now().UTC()}, nil
	}
	return market.Quote{}, errors.New("symbol missing from response")
}
