package pricing

import (
	"context"

	"github.com/rustyeddy/riskbook/market"
)

// Source fetches the latest quotes for a set of instruments in one attempt.
// A source may return a subset of the requested instruments.
type Source interface {
	FetchQuotes(ctx context.Context, ins []market.Instrument) (map[market.Instrument]market.Quote, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, ins []market.Instrument) (map[market.Instrument]market.Quote, error)

func (f SourceFunc) FetchQuotes(ctx context.Context, ins []market.Instrument) (map[market.Instrument]market.Quote, error) {
	return f(ctx, ins)
}
