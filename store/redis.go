package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rustyeddy/riskbook/ledger"
)

// Redis keeps each slot as a plain string key, optionally namespaced by Prefix.
type Redis struct {
	client *redis.Client
	Prefix string
}

func NewRedis(addr, password string, db int) *Redis {
	return &Redis{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// NewRedisClient wraps an existing client.
func NewRedisClient(c *redis.Client) *Redis {
	return &Redis{client: c}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ledger.ErrNoSnapshot
	}
	return b, err
}

// Put writes the whole blob with a single SET, so readers see either the old
// or the new snapshot.
func (r *Redis) Put(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.Prefix+key, data, 0).Err()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
