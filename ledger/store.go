package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Store persists the whole ledger in one named slot.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// Slot is an opaque key/value blob store. Get returns ErrNoSnapshot when the
// key was never written.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// BlobStore serializes snapshots as JSON into a single Slot key.
type BlobStore struct {
	Slot Slot
	Key  string
}

func NewBlobStore(slot Slot, key string) *BlobStore {
	return &BlobStore{Slot: slot, Key: key}
}

func (b *BlobStore) Load(ctx context.Context) (Snapshot, error) {
	data, err := b.Slot.Get(ctx, b.Key)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("load %s: %w", b.Key, err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", b.Key, err)
	}
	if s.Trades == nil {
		s.Trades = []Trade{}
	}
	return s, nil
}

func (b *BlobStore) Save(ctx context.Context, s Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode %s: %w", b.Key, err)
	}
	if err := b.Slot.Put(ctx, b.Key, data); err != nil {
		return fmt.Errorf("save %s: %w", b.Key, err)
	}
	return nil
}
