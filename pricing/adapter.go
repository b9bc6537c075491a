package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/riskbook/market"
)

// Adapter sits between a Source and the rest of the program. It never
// returns an error: failures leave the cache as it was and are reported
// through Status.
type Adapter struct {
	source Source
	cache  *Cache
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	lastErr error
	lastAt  time.Time
}

type AdapterOption func(*Adapter)

func WithLogger(l zerolog.Logger) AdapterOption { return func(a *Adapter) { a.log = l } }

func WithClock(now func() time.Time) AdapterOption { return func(a *Adapter) { a.now = now } }

func NewAdapter(src Source, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		source: src,
		cache:  NewCache(),
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Adapter) Cache() *Cache { return a.cache }

// Price returns the cached quote for in.
func (a *Adapter) Price(in market.Instrument) (market.Quote, bool) {
	return a.cache.Price(in)
}

// Status reports the time and error of the most recent refresh.
func (a *Adapter) Status() (time.Time, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAt, a.lastErr
}

// Refresh fetches ins once and returns the cache view for each of them.
// Quotes for instruments that were not requested, or that carry a
// non-positive price, are discarded.
func (a *Adapter) Refresh(ctx context.Context, ins []market.Instrument) map[market.Instrument]Entry {
	requested := make(map[market.Instrument]bool, len(ins))
	valid := make([]market.Instrument, 0, len(ins))
	for _, in := range ins {
		if !in.Valid() {
			a.log.Warn().Str("instrument", string(in)).Msg("skipping unknown instrument")
			continue
		}
		if !requested[in] {
			requested[in] = true
			valid = append(valid, in)
		}
	}

	quotes, err := a.fetch(ctx, valid)
	at := a.now()
	a.record(at, err)
	if err != nil {
		a.log.Warn().Err(err).Int("instruments", len(valid)).Msg("price fetch failed")
		return a.cache.view(valid, nil)
	}

	fresh := make(map[market.Instrument]bool, len(quotes))
	for in, q := range quotes {
		q.Instrument = in
		if !requested[in] || !q.Valid() {
			a.log.Debug().Str("instrument", string(in)).Str("price", q.Price.String()).Msg("dropping quote")
			continue
		}
		if q.Time.IsZero() {
			q.Time = at
		}
		a.cache.put(q, at)
		fresh[in] = true
	}
	if missing := len(valid) - len(fresh); missing > 0 {
		a.log.Debug().Int("missing", missing).Msg("partial price response")
	}
	return a.cache.view(valid, fresh)
}

// fetch shields Refresh from a panicking source.
func (a *Adapter) fetch(ctx context.Context, ins []market.Instrument) (quotes map[market.Instrument]market.Quote, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("price source panic: %v", r)
		}
	}()
	if len(ins) == 0 {
		return nil, nil
	}
	return a.source.FetchQuotes(ctx, ins)
}

func (a *Adapter) record(at time.Time, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastAt = at
	a.lastErr = err
}

// Go starts a single refresh in the background. done, when not nil, is
// called with the result.
func (a *Adapter) Go(ctx context.Context, ins []market.Instrument, done func(map[market.Instrument]Entry)) {
	go func() {
		res := a.Refresh(ctx, ins)
		if done != nil {
			done(res)
		}
	}()
}

// Run refreshes ins immediately and then every interval until ctx is done.
func (a *Adapter) Run(ctx context.Context, ins []market.Instrument, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()

	a.Refresh(ctx, ins)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.Refresh(ctx, ins)
		}
	}
}
