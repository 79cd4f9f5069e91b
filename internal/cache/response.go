// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// response.go implements a stale-while-revalidate cache for JSON responses.
// Entries younger than the revalidate window are served as-is. Older
// entries are still served, and a single background load per key replaces
// them. Entries are dropped by the backend after four windows.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"newsmap/internal/metrics"
)

const (
	// DefaultRevalidate is how long an entry is served without a refresh.
	DefaultRevalidate = 15 * time.Minute

	// hardExpiryFactor multiplies the revalidate window to get the backend TTL.
	hardExpiryFactor = 4

	// loadTimeout bounds a shared load. Loads are detached from the request
	// that started them because other callers may be waiting on the result.
	loadTimeout = 30 * time.Second
)

// Entry is one cached payload and the time it was stored.
type Entry struct {
	Data     []byte
	StoredAt time.Time
}

// Backend stores entries. Implementations treat errors as misses.
type Backend interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key, tag string, e Entry, ttl time.Duration)
	InvalidateTag(ctx context.Context, tag string) int
	InvalidateAll(ctx context.Context) int
}

// LoadFunc produces the fresh payload for a key.
type LoadFunc func(ctx context.Context) ([]byte, error)

// ResponseCache coalesces loads per key and serves stale entries while a
// refresh is in flight.
type ResponseCache struct {
	backend    Backend
	revalidate time.Duration
	group      singleflight.Group
	now        func() time.Time

	// vmu guards the invalidation counters. A load stores its result only
	// if neither its tag nor the epoch moved while it ran.
	vmu      sync.RWMutex
	versions map[string]uint64
	epoch    uint64
}

// generation identifies the invalidation state a load started under.
type generation struct {
	epoch, tag uint64
}

// NewResponseCache creates a cache over backend. A non-positive revalidate
// window selects DefaultRevalidate.
func NewResponseCache(backend Backend, revalidate time.Duration) *ResponseCache {
	if revalidate <= 0 {
		revalidate = DefaultRevalidate
	}
	return &ResponseCache{backend: backend, revalidate: revalidate, now: time.Now, versions: map[string]uint64{}}
}

// Revalidate returns the configured revalidate window.
func (c *ResponseCache) Revalidate() time.Duration {
	return c.revalidate
}

// Fetch returns the payload for key, loading it on a miss. Load errors are
// returned and nothing is stored.
func (c *ResponseCache) Fetch(ctx context.Context, key, tag string, load LoadFunc) ([]byte, error) {
	if e, ok := c.backend.Get(ctx, key); ok {
		if c.now().Sub(e.StoredAt) < c.revalidate {
			metrics.CacheLookups.WithLabelValues(tag, "hit").Inc()
			return e.Data, nil
		}
		metrics.CacheLookups.WithLabelValues(tag, "stale").Inc()
		c.refresh(ctx, key, tag, load)
		return e.Data, nil
	}

	metrics.CacheLookups.WithLabelValues(tag, "miss").Inc()
	return c.wait(ctx, c.shared(ctx, key, tag, load))
}

// Warm loads key unconditionally and stores the result.
func (c *ResponseCache) Warm(ctx context.Context, key, tag string, load LoadFunc) error {
	_, err := c.wait(ctx, c.shared(ctx, key, tag, load))
	return err
}

// refresh reloads key in the background. Concurrent stale reads of the same
// key share one load.
func (c *ResponseCache) refresh(ctx context.Context, key, tag string, load LoadFunc) {
	ch := c.shared(ctx, key, tag, load)
	go func() {
		if res := <-ch; res.Err != nil {
			slog.Warn("response cache refresh failed", "key", key, "error", res.Err)
		}
	}()
}

// shared starts or joins the load for key. The load keeps running when the
// caller that started it goes away.
func (c *ResponseCache) shared(ctx context.Context, key, tag string, load LoadFunc) <-chan singleflight.Result {
	detached := context.WithoutCancel(ctx)
	return c.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(detached, loadTimeout)
		defer cancel()
		return c.loadAndStore(ctx, key, tag, load)
	})
}

// wait returns the shared result, or ctx's error if the caller gives up first.
func (c *ResponseCache) wait(ctx context.Context, ch <-chan singleflight.Result) ([]byte, error) {
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *ResponseCache) loadAndStore(ctx context.Context, key, tag string, load LoadFunc) ([]byte, error) {
	gen := c.generation(tag)
	data, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.vmu.RLock()
	defer c.vmu.RUnlock()
	if c.generationLocked(tag) != gen {
		slog.Debug("response invalidated during load, not caching", "key", key, "tag", tag)
		return data, nil
	}
	c.backend.Set(ctx, key, tag, Entry{Data: data, StoredAt: c.now()}, c.revalidate*hardExpiryFactor)
	slog.Debug("response cached", "key", key, "tag", tag, "bytes", len(data))
	return data, nil
}

func (c *ResponseCache) generation(tag string) generation {
	c.vmu.RLock()
	defer c.vmu.RUnlock()
	return c.generationLocked(tag)
}

func (c *ResponseCache) generationLocked(tag string) generation {
	return generation{epoch: c.epoch, tag: c.versions[tag]}
}

// InvalidateTag drops every entry stored under tag.
func (c *ResponseCache) InvalidateTag(ctx context.Context, tag string) int {
	c.vmu.Lock()
	c.versions[tag]++
	n := c.backend.InvalidateTag(ctx, tag)
	c.vmu.Unlock()
	slog.Info("response cache tag invalidated", "tag", tag, "deleted", n)
	return n
}

// InvalidateAll drops every entry.
func (c *ResponseCache) InvalidateAll(ctx context.Context) int {
	c.vmu.Lock()
	c.epoch++
	n := c.backend.InvalidateAll(ctx)
	c.vmu.Unlock()
	slog.Info("response cache cleared", "deleted", n)
	return n
}

// FetchJSON caches the JSON encoding of the value load returns and decodes
// it for the caller.
func FetchJSON[T any](ctx context.Context, c *ResponseCache, key, tag string, load func(context.Context) (T, error)) (T, error) {
	var out T
	data, err := c.Fetch(ctx, key, tag, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return out, nil
}
