package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/riskbook/market"
	"github.com/rustyeddy/riskbook/risk"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg ...interface{}) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s %v", want, got, msg)
}

// memStore is a Store that keeps the last saved snapshot and can be told to fail.
type memStore struct {
	mu    sync.Mutex
	snap  *Snapshot
	fail  error
	saves int
}

func (m *memStore) Load(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return m.snap.clone(), nil
}

func (m *memStore) Save(ctx context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	c := s.clone()
	m.snap = &c
	m.saves++
	return nil
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("T%03d", n)
	}
}

func newTestEngine(t *testing.T, balance string) (*Engine, *memStore) {
	t.Helper()
	st := &memStore{}
	clock := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	e, err := Open(context.Background(), st, d(balance),
		WithIDs(seqIDs()),
		WithClock(func() time.Time { return clock }),
	)
	require.NoError(t, err)
	return e, st
}

func eurusd(entry, stop string) risk.Inputs {
	return risk.Inputs{
		RiskPercent: d("1"),
		EntryPrice:  d(entry),
		StopPrice:   d(stop),
		Instrument:  "EUR_USD",
	}
}

func TestOpenEmptyStoreUsesInitialBalance(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, "5000")
	assertDec(t, "5000", e.Balance())
	assert.Empty(t, e.Trades())
	assert.Equal(t, 0, st.saves)
}

func TestOpenPropagatesLoadError(t *testing.T) {
	t.Parallel()

	st := &failingLoad{err: errors.New("disk gone")}
	_, err := Open(context.Background(), st, d("5000"))
	assert.ErrorContains(t, err, "disk gone")
}

type failingLoad struct{ err error }

func (f *failingLoad) Load(context.Context) (Snapshot, error) { return Snapshot{}, f.err }
func (f *failingLoad) Save(context.Context, Snapshot) error    { return nil }

func TestOpenRejectsCorruptSnapshot(t *testing.T) {
	t.Parallel()

	pl := d("10")
	st := &memStore{snap: &Snapshot{
		Balance: d("5010"),
		Trades: []Trade{{
			ID: "X", Instrument: "EUR_USD", Direction: Buy, LotSize: d("1"),
			Status: StatusOpen, ProfitLoss: &pl,
		}},
	}}
	_, err := Open(context.Background(), st, d("5000"))
	assert.ErrorContains(t, err, "corrupt snapshot")
}

func TestLogTrade(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, "5000")
	in := eurusd("1.10000", "1.09900")

	res := e.Calculate(in)
	assertDec(t, "0.5", res.PositionSize)

	tr, err := e.LogTrade(context.Background(), in, res.PositionSize)
	require.NoError(t, err)

	assert.Equal(t, "T001", tr.ID)
	assert.Equal(t, Buy, tr.Direction)
	assert.Equal(t, StatusOpen, tr.Status)
	assertDec(t, "0.5", tr.LotSize)
	assert.Nil(t, tr.ExitPrice)
	assert.Nil(t, tr.ProfitLoss)
	assert.Equal(t, 1, st.saves)
	assertDec(t, "5000", e.Balance())
}

func TestLogTradeNewestFirst(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, "5000")
	ctx := context.Background()

	_, err := e.LogNew(ctx, eurusd("1.10000", "1.09900"))
	require.NoError(t, err)
	_, err = e.LogNew(ctx, eurusd("1.09000", "1.09500"))
	require.NoError(t, err)

	trades := e.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, "T002", trades[0].ID)
	assert.Equal(t, Sell, trades[0].Direction)
	assert.Equal(t, "T001", trades[1].ID)
}

func TestLogTradeRejectsZeroSize(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, "5000")
	ctx := context.Background()

	tests := []struct {
		name string
		in   risk.Inputs
		lots decimal.Decimal
	}{
		{"zero lots", eurusd("1.1", "1.09"), decimal.Zero},
		{"negative lots", eurusd("1.1", "1.09"), d("-1")},
		{"rounds to zero", eurusd("1.1", "1.09"), d("0.004")},
		{"no instrument", risk.Inputs{RiskPercent: d("1"), EntryPrice: d("1"), StopPrice: d("0.9")}, d("1")},
		{"risk over 100", risk.Inputs{RiskPercent: d("250"), EntryPrice: d("1.1"), StopPrice: d("1.099"), Instrument: "EUR_USD"}, d("125")},
	}
	for _, tt := range tests {
		_, err := e.LogTrade(ctx, tt.in, tt.lots)
		assert.ErrorIs(t, err, ErrInsufficientRisk, tt.name)
	}

	zeroRisk := eurusd("1.1", "1.09")
	zeroRisk.RiskPercent = decimal.Zero
	_, err := e.LogNew(ctx, zeroRisk)
	assert.ErrorIs(t, err, ErrInsufficientRisk)

	assert.Empty(t, e.Trades())
	assert.Equal(t, 0, st.saves)
}

func TestLogTradeRoundsLots(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, "5000")
	tr, err := e.LogTrade(context.Background(), eurusd("1.1", "1.09"), d("0.3333333"))
	require.NoError(t, err)
	assertDec(t, "0.33", tr.LotSize)
}

func TestCloseTradeForexBuy(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, "5000")
	ctx := context.Background()

	tr, err := e.LogTrade(ctx, eurusd("1.10000", "1.09900"), d("0.5"))
	require.NoError(t, err)

	closed, err := e.CloseTrade(ctx, tr.ID, d("1.10100"))
	require.NoError(t, err)

	assert.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.ExitPrice)
	require.NotNil(t, closed.ProfitLoss)
	require.NotNil(t, closed.ClosedAt)
	assertDec(t, "1.101", *closed.ExitPrice)
	assertDec(t, "50", *closed.ProfitLoss)
	assertDec(t, "5050", e.Balance())
	assert.Equal(t, 2, st.saves)
	assertDec(t, "5050", st.snap.Balance)
}

func TestCloseTradeSellAndCrypto(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, "5000")
	ctx := context.Background()

	sell, err := e.LogTrade(ctx, risk.Inputs{
		RiskPercent: d("1"), EntryPrice: d("150.00"), StopPrice: d("150.50"), Instrument: "USD_JPY",
	}, d("1"))
	require.NoError(t, err)
	require.Equal(t, Sell, sell.Direction)

	btc, err := e.LogTrade(ctx, risk.Inputs{
		RiskPercent: d("1"), EntryPrice: d("60000"), StopPrice: d("59000"), Instrument: "BTC_USD",
	}, d("0.05"))
	require.NoError(t, err)

	c1, err := e.CloseTrade(ctx, sell.ID, d("149.80"))
	require.NoError(t, err)
	assertDec(t, "200", *c1.ProfitLoss)

	c2, err := e.CloseTrade(ctx, btc.ID, d("59500"))
	require.NoError(t, err)
	assertDec(t, "-25", *c2.ProfitLoss)

	assertDec(t, "5175", e.Balance())
}

func TestCloseTradeRejections(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, "5000")
	ctx := context.Background()

	tr, err := e.LogTrade(ctx, eurusd("1.1", "1.09"), d("1"))
	require.NoError(t, err)

	_, err = e.CloseTrade(ctx, tr.ID, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidExitPrice)
	_, err = e.CloseTrade(ctx, tr.ID, d("-1.2"))
	assert.ErrorIs(t, err, ErrInvalidExitPrice)
	_, err = e.CloseTrade(ctx, "missing", d("1.2"))
	assert.ErrorIs(t, err, ErrTradeNotFound)

	got, ok := e.Trade(tr.ID)
	require.True(t, ok)
	assert.Equal(t, StatusOpen, got.Status)
	assertDec(t, "5000", e.Balance())
	assert.Equal(t, 1, st.saves)
}

func TestCloseTradeTwiceRejected(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, "5000")
	ctx := context.Background()

	tr, err := e.LogTrade(ctx, eurusd("1.10000", "1.09900"), d("0.5"))
	require.NoError(t, err)
	_, err = e.CloseTrade(ctx, tr.ID, d("1.10100"))
	require.NoError(t, err)

	_, err = e.CloseTrade(ctx, tr.ID, d("1.20000"))
	assert.ErrorIs(t, err, ErrTradeClosed)
	assertDec(t, "5050", e.Balance())

	got, _ := e.Trade(tr.ID)
	assertDec(t, "1.101", *got.ExitPrice)
	assert.Equal(t, 2, st.saves)
}

func TestDeleteOpenTrade(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, "5000")
	ctx := context.Background()

	tr, err := e.LogTrade(ctx, eurusd("1.1", "1.09"), d("1"))
	require.NoError(t, err)

	deleted, err := e.DeleteTrade(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, deleted.ID)
	assert.Empty(t, e.Trades())
	assertDec(t, "5000", e.Balance())
	assert.Equal(t, 2, st.saves)
}

func TestDeleteClosedTradeReversesBalance(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, "5000")
	ctx := context.Background()

	keep, err := e.LogTrade(ctx, eurusd("1.20000", "1.19000"), d("1"))
	require.NoError(t, err)
	tr, err := e.LogTrade(ctx, eurusd("1.10000", "1.09900"), d("0.5"))
	require.NoError(t, err)

	_, err = e.CloseTrade(ctx, keep.ID, d("1.19500"))
	require.NoError(t, err)
	afterFirst := e.Balance()
	assertDec(t, "4500", afterFirst)

	closed, err := e.CloseTrade(ctx, tr.ID, d("1.09800"))
	require.NoError(t, err)
	assertDec(t, "-100", *closed.ProfitLoss)
	assertDec(t, "4400", e.Balance())

	_, err = e.DeleteTrade(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, afterFirst.Equal(e.Balance()))

	trades := e.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, keep.ID, trades[0].ID)

	snap := e.Snapshot()
	assertDec(t, "5000", snap.InitialBalance())
}

func TestCloseThenDeleteRestoresBalance(t *testing.T) {
	t.Parallel()

	for _, in := range []risk.Inputs{
		eurusd("1.10000", "1.09900"),
		{RiskPercent: d("2"), EntryPrice: d("151.20"), StopPrice: d("151.90"), Instrument: "USD_JPY"},
		{RiskPercent: d("0.5"), EntryPrice: d("145.3"), StopPrice: d("140.1"), Instrument: "SOL_USD"},
	} {
		e, _ := newTestEngine(t, "5000")
		ctx := context.Background()

		tr, err := e.LogNew(ctx, in)
		require.NoError(t, err, in.Instrument)
		_, err = e.CloseTrade(ctx, tr.ID, in.StopPrice)
		require.NoError(t, err)
		assert.False(t, e.Balance().Equal(d("5000")))

		_, err = e.DeleteTrade(ctx, tr.ID)
		require.NoError(t, err)
		assertDec(t, "5000", e.Balance(), in.Instrument)
		assert.Empty(t, e.Trades())
	}
}

func TestDeleteMissingTrade(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, "5000")
	_, err := e.DeleteTrade(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTradeNotFound)
	assert.Equal(t, 0, st.saves)

	tr, err := e.LogTrade(context.Background(), eurusd("1.1", "1.09"), d("1"))
	require.NoError(t, err)
	_, err = e.DeleteTrade(context.Background(), tr.ID)
	require.NoError(t, err)
	_, err = e.DeleteTrade(context.Background(), tr.ID)
	assert.ErrorIs(t, err, ErrTradeNotFound)
	_, err = e.CloseTrade(context.Background(), tr.ID, d("1.2"))
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, "5000")
	ctx := context.Background()

	tr, err := e.LogTrade(ctx, eurusd("1.10000", "1.09900"), d("0.5"))
	require.NoError(t, err)

	st.fail = errors.New("quota exceeded")
	closed, err := e.CloseTrade(ctx, tr.ID, d("1.10100"))
	assert.ErrorIs(t, err, ErrNotPersisted)
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Equal(t, StatusClosed, closed.Status)
	assertDec(t, "5050", e.Balance())

	// store still holds the pre-close snapshot, untorn
	assertDec(t, "5000", st.snap.Balance)
	assert.Equal(t, StatusOpen, st.snap.Trades[0].Status)

	st.fail = nil
	require.NoError(t, e.Flush(ctx))
	assertDec(t, "5050", st.snap.Balance)
	assert.Equal(t, StatusClosed, st.snap.Trades[0].Status)
}

func TestReturnedTradesAreCopies(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, "5000")
	ctx := context.Background()
	tr, err := e.LogTrade(ctx, eurusd("1.1", "1.09"), d("1"))
	require.NoError(t, err)
	_, err = e.CloseTrade(ctx, tr.ID, d("1.2"))
	require.NoError(t, err)

	list := e.Trades()
	*list[0].ProfitLoss = d("999999")
	list[0].Status = StatusOpen

	got, _ := e.Trade(tr.ID)
	assert.Equal(t, StatusClosed, got.Status)
	assertDec(t, "10000", *got.ProfitLoss)
}

func TestReopenFromStore(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, "5000")
	ctx := context.Background()

	a, err := e.LogTrade(ctx, eurusd("1.10000", "1.09900"), d("0.5"))
	require.NoError(t, err)
	_, err = e.LogTrade(ctx, risk.Inputs{EntryPrice: d("3000"), StopPrice: d("3100"), Instrument: market.Instrument("ETH_USD")}, d("0.25"))
	require.NoError(t, err)
	_, err = e.CloseTrade(ctx, a.ID, d("1.10100"))
	require.NoError(t, err)

	again, err := Open(ctx, st, d("1"))
	require.NoError(t, err)
	assert.True(t, e.Balance().Equal(again.Balance()))
	assert.Equal(t, len(e.Trades()), len(again.Trades()))
	for i, tr := range e.Trades() {
		assert.Equal(t, tr.ID, again.Trades()[i].ID)
	}
}

func TestOpenOrdersIDsAfterStoredTrades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := &memStore{}
	later := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)
	first, err := Open(ctx, st, d("5000"), WithClock(func() time.Time { return later }))
	require.NoError(t, err)
	old, err := first.LogTrade(ctx, eurusd("1.10000", "1.09900"), d("0.5"))
	require.NoError(t, err)

	// reopen with a clock an hour behind the stored id
	second, err := Open(ctx, st, d("5000"), WithClock(func() time.Time { return later.Add(-time.Hour) }))
	require.NoError(t, err)
	tr, err := second.LogTrade(ctx, eurusd("1.10000", "1.09900"), d("0.5"))
	require.NoError(t, err)

	assert.Greater(t, tr.ID, old.ID)
	trades := second.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, tr.ID, trades[0].ID)
}
