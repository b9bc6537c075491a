package pricing

import (
	"context"
	"errors"

	"github.com/rustyeddy/riskbook/market"
)

// Router sends each instrument family to its own source, e.g. forex to
// OANDA and crypto to Binance. The call succeeds if any family does.
type Router struct {
	Routes map[market.Family]Source
}

func (r *Router) FetchQuotes(ctx context.Context, ins []market.Instrument) (map[market.Instrument]market.Quote, error) {
	groups := make(map[market.Family][]market.Instrument)
	for _, in := range ins {
		groups[in.Family()] = append(groups[in.Family()], in)
	}

	out := make(map[market.Instrument]market.Quote, len(ins))
	var errs []error
	ok := false
	for fam, group := range groups {
		src, found := r.Routes[fam]
		if !found {
			errs = append(errs, errors.New("no price source for "+fam.String()))
			continue
		}
		quotes, err := src.FetchQuotes(ctx, group)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ok = true
		for k, v := range quotes {
			out[k] = v
		}
	}
	if !ok && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
