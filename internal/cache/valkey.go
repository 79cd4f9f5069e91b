// Package cache provides the response cache that sits between the HTTP
// handlers and the data store, with a Valkey (Redis-compatible) backend
// for multi-instance deployments and an in-memory backend otherwise.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// respKeyPrefix is the Valkey key prefix for cached responses.
	respKeyPrefix = "resp:"

	// tagKeyPrefix prefixes the sets that list the keys stored under a tag.
	tagKeyPrefix = "tag:"
)

// ConnectValkey creates a Valkey client and verifies the connection with a ping.
func ConnectValkey(host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	slog.Info("valkey connected", "addr", fmt.Sprintf("%s:%s", host, port))
	return client, nil
}

// ValkeyBackend stores entries as hashes with the payload and the time it
// was stored. Each tag is a set of the response keys written under it.
type ValkeyBackend struct {
	client *redis.Client
}

// NewValkeyBackend creates a backend on the given Valkey client.
func NewValkeyBackend(client *redis.Client) *ValkeyBackend {
	return &ValkeyBackend{client: client}
}

// Get returns the entry stored under key. A miss and a Valkey error both
// report false; errors are logged.
func (b *ValkeyBackend) Get(ctx context.Context, key string) (Entry, bool) {
	vals, err := b.client.HGetAll(ctx, respKeyPrefix+key).Result()
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return Entry{}, false
	}
	data, ok := vals["data"]
	if !ok {
		return Entry{}, false
	}
	nanos, err := strconv.ParseInt(vals["stored_at"], 10, 64)
	if err != nil {
		slog.Warn("response cache entry corrupt", "key", key, "error", err)
		return Entry{}, false
	}
	return Entry{Data: []byte(data), StoredAt: time.Unix(0, nanos)}, true
}

// Set stores an entry, records it under tag and expires both after ttl.
func (b *ValkeyBackend) Set(ctx context.Context, key, tag string, e Entry, ttl time.Duration) {
	full := respKeyPrefix + key
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, full, "data", e.Data, "stored_at", e.StoredAt.UnixNano())
		pipe.Expire(ctx, full, ttl)
		if tag != "" {
			pipe.SAdd(ctx, tagKeyPrefix+tag, key)
			pipe.Expire(ctx, tagKeyPrefix+tag, ttl)
		}
		return nil
	})
	if err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// InvalidateTag removes every entry stored under tag along with the tag set.
func (b *ValkeyBackend) InvalidateTag(ctx context.Context, tag string) int {
	keys, err := b.client.SMembers(ctx, tagKeyPrefix+tag).Result()
	if err != nil {
		slog.Warn("response cache tag lookup error", "tag", tag, "error", err)
		return 0
	}

	del := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		del = append(del, respKeyPrefix+k)
	}
	del = append(del, tagKeyPrefix+tag)

	if err := b.client.Del(ctx, del...).Err(); err != nil {
		slog.Warn("response cache tag delete error", "tag", tag, "error", err)
		return 0
	}
	return len(keys)
}

// InvalidateAll removes all cached responses and tag sets by scanning for
// their prefixes.
func (b *ValkeyBackend) InvalidateAll(ctx context.Context) int {
	var deleted int
	for _, pattern := range []string{respKeyPrefix + "*", tagKeyPrefix + "*"} {
		var cursor uint64
		for {
			keys, next, err := b.client.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				slog.Warn("response cache scan error", "error", err)
				return deleted
			}
			if len(keys) > 0 {
				if err := b.client.Del(ctx, keys...).Err(); err != nil {
					slog.Warn("response cache bulk delete error", "error", err)
				}
				if pattern != tagKeyPrefix+"*" {
					deleted += len(keys)
				}
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}
	return deleted
}
