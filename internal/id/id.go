package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out ULID strings. ulid.Monotonic keeps ids generated within
// the same millisecond strictly increasing, so string order is creation order.
type Generator struct {
	mu   sync.Mutex
	mono io.Reader
	now  func() time.Time
	last uint64
}

// NewGenerator returns a generator reading time from now. A nil now uses time.Now.
func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		mono: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
		now:  now,
	}
}

// New returns the next id. A clock that moves backwards is clamped to the
// last issued timestamp so ordering still holds.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := ulid.Timestamp(g.now().UTC())
	if ms < g.last {
		ms = g.last
	}
	g.last = ms

	id, err := ulid.New(ms, g.mono)
	if err != nil {
		// Monotonic entropy overflows only after 2^80 ids in one millisecond.
		panic(err)
	}
	return id.String()
}

// After makes every later id sort above prev, which is typically the newest
// id already on disk. The clock floor moves to one millisecond past prev.
// Strings that are not ULIDs are ignored.
func (g *Generator) After(prev string) {
	id, err := ulid.ParseStrict(prev)
	if err != nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if floor := id.Time() + 1; floor > g.last {
		g.last = floor
	}
}

// Time extracts the creation time encoded in an id.
func Time(s string) (time.Time, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()), nil
}

var std = NewGenerator(nil)

// New returns a ULID string from the process-wide generator.
func New() string {
	return std.New()
}
