package pricing

import (
	"sync"
	"time"

	"github.com/rustyeddy/riskbook/market"
)

// Entry is the cached view of one instrument. Available is false when no
// price was ever fetched; Stale is set when the most recent refresh did not
// produce a new quote and the value is left over from an earlier one.
type Entry struct {
	Quote     market.Quote
	Available bool
	Stale     bool
	FetchedAt time.Time
}

// Cache is the last known quote per instrument.
type Cache struct {
	mu      sync.RWMutex
	entries map[market.Instrument]Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[market.Instrument]Entry)}
}

func (c *Cache) Get(in market.Instrument) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[in]
	return e, ok
}

// Price returns the cached price or false when unavailable.
func (c *Cache) Price(in market.Instrument) (market.Quote, bool) {
	e, ok := c.Get(in)
	if !ok || !e.Available {
		return market.Quote{}, false
	}
	return e.Quote, true
}

func (c *Cache) put(q market.Quote, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[q.Instrument] = Entry{Quote: q, Available: true, FetchedAt: at}
}

// view returns an entry for every requested instrument. Instruments missing
// from fresh are marked stale, or unavailable when never cached.
func (c *Cache) view(ins []market.Instrument, fresh map[market.Instrument]bool) map[market.Instrument]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[market.Instrument]Entry, len(ins))
	for _, in := range ins {
		e, ok := c.entries[in]
		if !ok {
			out[in] = Entry{Quote: market.Quote{Instrument: in}}
			continue
		}
		e.Stale = !fresh[in]
		out[in] = e
	}
	return out
}

// Snapshot copies every cached entry.
func (c *Cache) Snapshot() map[market.Instrument]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[market.Instrument]Entry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
