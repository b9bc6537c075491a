package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/riskbook/internal/id"
	"github.com/rustyeddy/riskbook/risk"
	"github.com/shopspring/decimal"
)

// DefaultLotPlaces is the precision a lot size is recorded with.
const DefaultLotPlaces int32 = 2

// Engine owns the account balance and the trade list. Mutations are
// serialized and each one persists a full snapshot before returning.
type Engine struct {
	mu        sync.Mutex
	balance   decimal.Decimal
	trades    []Trade // newest first
	store     Store
	newID     func() string
	now       func() time.Time
	lotPlaces int32
	log       zerolog.Logger
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithIDs(newID func() string) Option { return func(e *Engine) { e.newID = newID } }

func WithLotPlaces(places int32) Option { return func(e *Engine) { e.lotPlaces = places } }

// NewEngine starts from snap without touching the store.
func NewEngine(snap Snapshot, store Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		lotPlaces: DefaultLotPlaces,
		log:       zerolog.Nop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(e)
	}
	s := snap.clone()
	e.balance = s.Balance
	e.trades = s.Trades
	if e.newID == nil {
		g := id.NewGenerator(e.now)
		for _, t := range e.trades {
			g.After(t.ID)
		}
		e.newID = g.New
	}
	return e
}

// Open reads the snapshot from store once. An empty store yields a fresh
// ledger holding initialBalance and no trades.
func Open(ctx context.Context, store Store, initialBalance decimal.Decimal, opts ...Option) (*Engine, error) {
	snap, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		snap = DefaultSnapshot(initialBalance)
	case err != nil:
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("open ledger: corrupt snapshot: %w", err)
	}
	return NewEngine(snap, store, opts...), nil
}

func (e *Engine) Balance() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

// Trades returns a copy of the trade list, newest first.
func (e *Engine) Trades() []Trade {
	return e.Snapshot().Trades
}

func (e *Engine) Trade(id string) (Trade, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.index(id); i >= 0 {
		return e.trades[i].clone(), true
	}
	return Trade{}, false
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Calculate computes risk outputs for in against the current account balance.
func (e *Engine) Calculate(in risk.Inputs) risk.Result {
	in.Balance = e.Balance()
	return risk.Calculate(in)
}

// LogNew sizes a position from in and logs it.
func (e *Engine) LogNew(ctx context.Context, in risk.Inputs) (Trade, error) {
	return e.LogTrade(ctx, in, e.Calculate(in).PositionSize)
}

// LogTrade records an OPEN trade at the head of the list. The lot size is
// rounded to the configured precision first and must remain positive, and
// the risk percent may not exceed risk.MaxRiskPercent.
func (e *Engine) LogTrade(ctx context.Context, in risk.Inputs, lotSize decimal.Decimal) (Trade, error) {
	lots := risk.RoundLots(lotSize, e.lotPlaces)
	if !lots.IsPositive() || !in.Instrument.Valid() || in.RiskPercent.GreaterThan(risk.MaxRiskPercent) ||
		!in.EntryPrice.IsPositive() || !in.StopPrice.IsPositive() {
		return Trade{}, fmt.Errorf("log trade: %w (lot size %s)", ErrInsufficientRisk, lots.StringFixed(e.lotPlaces))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t := Trade{
		ID:            e.newID(),
		Instrument:    in.Instrument,
		Direction:     DirectionFor(in.EntryPrice, in.StopPrice),
		EntryPrice:    in.EntryPrice,
		StopLossPrice: in.StopPrice,
		LotSize:       lots,
		Status:        StatusOpen,
		OpenedAt:      e.now(),
	}
	e.trades = append([]Trade{t}, e.trades...)

	e.log.Info().
		Str("trade", t.ID).
		Str("instrument", t.Instrument.String()).
		Str("direction", string(t.Direction)).
		Str("lots", t.LotSize.String()).
		Msg("trade logged")

	return t.clone(), e.persistLocked(ctx, "log trade "+t.ID)
}

// CloseTrade closes an OPEN trade at exit and credits its profit/loss to the
// balance. A trade closes at most once.
func (e *Engine) CloseTrade(ctx context.Context, id string, exit decimal.Decimal) (Trade, error) {
	if !exit.IsPositive() {
		return Trade{}, fmt.Errorf("close trade %s: %w: %s", id, ErrInvalidExitPrice, exit)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.index(id)
	if i < 0 {
		return Trade{}, fmt.Errorf("close trade %s: %w", id, ErrTradeNotFound)
	}
	t := &e.trades[i]
	if t.Status != StatusOpen {
		return Trade{}, fmt.Errorf("close trade %s: %w", id, ErrTradeClosed)
	}

	pl := risk.ProfitLoss(t.Instrument, t.Direction.Sign(), t.EntryPrice, exit, t.LotSize)
	closedAt := e.now()
	t.Status = StatusClosed
	t.ExitPrice = &exit
	t.ProfitLoss = &pl
	t.ClosedAt = &closedAt
	e.balance = e.balance.Add(pl)

	e.log.Info().
		Str("trade", id).
		Str("exit", exit.String()).
		Str("pl", pl.StringFixed(2)).
		Str("balance", e.balance.StringFixed(2)).
		Msg("trade closed")

	return t.clone(), e.persistLocked(ctx, "close trade "+id)
}

// DeleteTrade removes a trade in either state. A CLOSED trade has its
// profit/loss taken back out of the balance before it is removed, so the
// balance always equals the initial balance plus the P/L of the closed
// trades that remain.
func (e *Engine) DeleteTrade(ctx context.Context, id string) (Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.index(id)
	if i < 0 {
		return Trade{}, fmt.Errorf("delete trade %s: %w", id, ErrTradeNotFound)
	}
	t := e.trades[i]
	if t.Status == StatusClosed {
		e.balance = e.balance.Sub(t.PL())
	}
	e.trades = append(e.trades[:i:i], e.trades[i+1:]...)

	e.log.Info().
		Str("trade", id).
		Str("status", string(t.Status)).
		Str("balance", e.balance.StringFixed(2)).
		Msg("trade deleted")

	return t, e.persistLocked(ctx, "delete trade "+id)
}

// Flush writes the current state again, used to retry after ErrNotPersisted.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persistLocked(ctx, "flush")
}

func (e *Engine) index(id string) int {
	for i := range e.trades {
		if e.trades[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{Balance: e.balance, Trades: e.trades}.clone()
}

func (e *Engine) persistLocked(ctx context.Context, op string) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(ctx, e.snapshotLocked()); err != nil {
		e.log.Error().Err(err).Str("op", op).Msg("snapshot not persisted")
		return fmt.Errorf("%s: %w: %w", op, ErrNotPersisted, err)
	}
	return nil
}
