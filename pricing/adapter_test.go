package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/riskbook/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func q(in market.Instrument, price string) market.Quote {
	return market.Quote{Instrument: in, Price: d(price)}
}

// scripted returns one canned response per call.
type scripted struct {
	mu    sync.Mutex
	steps []func([]market.Instrument) (map[market.Instrument]market.Quote, error)
	calls [][]market.Instrument
}

func (s *scripted) FetchQuotes(_ context.Context, ins []market.Instrument) (map[market.Instrument]market.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ins)
	step := s.steps[0]
	if len(s.steps) > 1 {
		s.steps = s.steps[1:]
	}
	return step(ins)
}

func returns(quotes ...market.Quote) func([]market.Instrument) (map[market.Instrument]market.Quote, error) {
	return func([]market.Instrument) (map[market.Instrument]market.Quote, error) {
		out := map[market.Instrument]market.Quote{}
		for _, x := range quotes {
			out[x.Instrument] = x
		}
		return out, nil
	}
}

func fails(err error) func([]market.Instrument) (map[market.Instrument]market.Quote, error) {
	return func([]market.Instrument) (map[market.Instrument]market.Quote, error) { return nil, err }
}

var fixed = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newAdapter(src Source) *Adapter {
	return NewAdapter(src, WithClock(func() time.Time { return fixed }))
}

func TestRefreshUpdatesCache(t *testing.T) {
	t.Parallel()

	src := &scripted{steps: []func([]market.Instrument) (map[market.Instrument]market.Quote, error){
		returns(q("EUR_USD", "1.0850"), q("BTC_USD", "60000")),
	}}
	a := newAdapter(src)

	got := a.Refresh(context.Background(), []market.Instrument{"EUR_USD", "BTC_USD"})
	require.Len(t, got, 2)
	assert.True(t, got["EUR_USD"].Available)
	assert.False(t, got["EUR_USD"].Stale)
	assert.True(t, d("1.0850").Equal(got["EUR_USD"].Quote.Price))
	assert.Equal(t, fixed, got["BTC_USD"].Quote.Time)

	p, ok := a.Price("BTC_USD")
	require.True(t, ok)
	assert.True(t, d("60000").Equal(p.Price))

	at, err := a.Status()
	assert.NoError(t, err)
	assert.Equal(t, fixed, at)
}

func TestRefreshPartialKeepsPrevious(t *testing.T) {
	t.Parallel()

	src := &scripted{steps: []func([]market.Instrument) (map[market.Instrument]market.Quote, error){
		returns(q("EUR_USD", "1.0850"), q("USD_JPY", "150.10")),
		returns(q("EUR_USD", "1.0900")),
	}}
	a := newAdapter(src)
	ins := []market.Instrument{"EUR_USD", "USD_JPY", "ETH_USD"}

	first := a.Refresh(context.Background(), ins)
	assert.False(t, first["ETH_USD"].Available)

	second := a.Refresh(context.Background(), ins)
	assert.True(t, d("1.0900").Equal(second["EUR_USD"].Quote.Price))
	assert.False(t, second["EUR_USD"].Stale)

	assert.True(t, second["USD_JPY"].Available)
	assert.True(t, second["USD_JPY"].Stale)
	assert.True(t, d("150.10").Equal(second["USD_JPY"].Quote.Price))

	assert.False(t, second["ETH_USD"].Available)
	_, ok := a.Price("ETH_USD")
	assert.False(t, ok)
}

func TestRefreshTotalFailureLeavesCacheUntouched(t *testing.T) {
	t.Parallel()

	boom := errors.New("api error: 429")
	src := &scripted{steps: []func([]market.Instrument) (map[market.Instrument]market.Quote, error){
		returns(q("EUR_USD", "1.0850")),
		fails(boom),
	}}
	a := newAdapter(src)
	ins := []market.Instrument{"EUR_USD", "GBP_USD"}

	a.Refresh(context.Background(), ins)
	before := a.Cache().Snapshot()

	got := a.Refresh(context.Background(), ins)
	assert.Equal(t, before, a.Cache().Snapshot())
	assert.True(t, got["EUR_USD"].Available)
	assert.True(t, got["EUR_USD"].Stale)
	assert.False(t, got["GBP_USD"].Available)
	assert.True(t, got["GBP_USD"].Quote.Price.IsZero())

	_, err := a.Status()
	assert.ErrorIs(t, err, boom)
}

func TestRefreshDropsInvalidQuotes(t *testing.T) {
	t.Parallel()

	src := &scripted{steps: []func([]market.Instrument) (map[market.Instrument]market.Quote, error){
		returns(q("EUR_USD", "0"), q("GBP_USD", "-1"), q("USD_CHF", "0.91"), q("AUD_USD", "0.66")),
	}}
	a := newAdapter(src)

	got := a.Refresh(context.Background(), []market.Instrument{"EUR_USD", "GBP_USD", "USD_CHF", "NOPE"})
	assert.False(t, got["EUR_USD"].Available)
	assert.False(t, got["GBP_USD"].Available)
	assert.True(t, got["USD_CHF"].Available)
	assert.NotContains(t, got, market.Instrument("NOPE"))

	// not requested
	_, ok := a.Price("AUD_USD")
	assert.False(t, ok)

	require.Len(t, src.calls, 1)
	assert.Equal(t, []market.Instrument{"EUR_USD", "GBP_USD", "USD_CHF"}, src.calls[0])
}

func TestRefreshRecoversFromPanickingSource(t *testing.T) {
	t.Parallel()

	a := newAdapter(SourceFunc(func(context.Context, []market.Instrument) (map[market.Instrument]market.Quote, error) {
		panic("bad decoder")
	}))

	var got map[market.Instrument]Entry
	assert.NotPanics(t, func() {
		got = a.Refresh(context.Background(), []market.Instrument{"EUR_USD"})
	})
	assert.False(t, got["EUR_USD"].Available)
	_, err := a.Status()
	assert.ErrorContains(t, err, "bad decoder")
}

func TestRefreshNoInstrumentsSkipsSource(t *testing.T) {
	t.Parallel()

	src := &scripted{steps: []func([]market.Instrument) (map[market.Instrument]market.Quote, error){fails(errors.New("unused"))}}
	a := newAdapter(src)

	assert.Empty(t, a.Refresh(context.Background(), nil))
	assert.Empty(t, src.calls)
}

func TestGoRunsInBackground(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	a := newAdapter(SourceFunc(func(context.Context, []market.Instrument) (map[market.Instrument]market.Quote, error) {
		<-release
		return map[market.Instrument]market.Quote{"EUR_USD": q("EUR_USD", "1.1")}, nil
	}))

	done := make(chan map[market.Instrument]Entry, 1)
	a.Go(context.Background(), []market.Instrument{"EUR_USD"}, func(m map[market.Instrument]Entry) { done <- m })

	// reads do not wait on the fetch in flight
	_, ok := a.Price("EUR_USD")
	assert.False(t, ok)

	close(release)
	select {
	case m := <-done:
		assert.True(t, m["EUR_USD"].Available)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never finished")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0
	a := newAdapter(SourceFunc(func(context.Context, []market.Instrument) (map[market.Instrument]market.Quote, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		a.Run(ctx, []market.Instrument{"EUR_USD"}, 5*time.Millisecond)
		close(finished)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 2)
}

func TestRouter(t *testing.T) {
	t.Parallel()

	var forexAsked, cryptoAsked []market.Instrument
	r := &Router{Routes: map[market.Family]Source{
		market.Forex: SourceFunc(func(_ context.Context, ins []market.Instrument) (map[market.Instrument]market.Quote, error) {
			forexAsked = ins
			return map[market.Instrument]market.Quote{"EUR_USD": q("EUR_USD", "1.1")}, nil
		}),
		market.Crypto: SourceFunc(func(_ context.Context, ins []market.Instrument) (map[market.Instrument]market.Quote, error) {
			cryptoAsked = ins
			return nil, errors.New("binance down")
		}),
	}}

	got, err := r.FetchQuotes(context.Background(), []market.Instrument{"EUR_USD", "BTC_USD", "USD_JPY"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []market.Instrument{"EUR_USD", "USD_JPY"}, forexAsked)
	assert.Equal(t, []market.Instrument{"BTC_USD"}, cryptoAsked)

	_, err = r.FetchQuotes(context.Background(), []market.Instrument{"ETH_USD"})
	assert.ErrorContains(t, err, "binance down")

	empty := &Router{}
	_, err = empty.FetchQuotes(context.Background(), []market.Instrument{"EUR_USD"})
	assert.ErrorContains(t, err, "no price source for forex")
}
