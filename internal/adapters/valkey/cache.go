package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// clientCacheTTL bounds how long a key may be served from the client-side
// cache. Membership sets are read on every location sample, so even a few
// seconds of local caching removes most round trips.
const clientCacheTTL = 5 * time.Second

// Cache implements ports.CacheService using Valkey (Redis-compatible). It
// holds vault read-through entries and per-device membership sets.
type Cache struct {
	client valkey.Client
}

// New creates a new Valkey cache client.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client}, nil
}

// Get retrieves a value by key. Reads go through valkey-go's client-side
// cache; server-assisted invalidation keeps writes visible.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.DoCache(ctx, c.client.B().Get().Key(key).Cache(), clientCacheTTL)
	if cmd.Error() != nil {
		return nil, cmd.Error()
	}
	return cmd.AsBytes()
}

// Set stores a value. ttlSeconds <= 0 stores without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	b := c.client.B().Set().Key(key).Value(string(value))
	var cmd valkey.Completed
	if ttlSeconds > 0 {
		cmd = b.Ex(time.Duration(ttlSeconds) * time.Second).Build()
	} else {
		cmd = b.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

// IsNilReply reports whether err is a Valkey nil reply, i.e. a missing key
// rather than a broken connection.
func IsNilReply(err error) bool {
	return valkey.IsValkeyNil(err)
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
