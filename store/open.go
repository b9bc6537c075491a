package store

import (
	"fmt"

	"github.com/rustyeddy/riskbook/config"
	"github.com/rustyeddy/riskbook/ledger"
)

// Open builds the slot named by cfg.Type and wraps it in a ledger store
// under cfg.Key. The returned close func releases any connection.
func Open(cfg config.StoreConfig) (ledger.Store, func() error, error) {
	noop := func() error { return nil }

	var slot ledger.Slot
	closer := noop
	switch cfg.Type {
	case "file":
		f, err := NewFile(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		slot = f
	case "sqlite":
		s, err := NewSQLite(cfg.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		slot, closer = s, s.Close
	case "redis":
		r := NewRedis(cfg.Addr, cfg.Password, cfg.DB)
		slot, closer = r, r.Close
	case "memory":
		slot = NewMemory()
	default:
		return nil, noop, fmt.Errorf("unknown store type %q", cfg.Type)
	}
	return ledger.NewBlobStore(slot, cfg.Key), closer, nil
}
