// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type memoryEntry struct {
	Entry
	tag       string
	expiresAt time.Time
}

// MemoryBackend is a concurrency-safe in-process backend. It is used when
// no Valkey host is configured and in tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the entry stored under key unless it has expired.
func (b *MemoryBackend) Get(_ context.Context, key string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[key]
	if !ok || !b.now().Before(e.expiresAt) {
		return Entry{}, false
	}
	return e.Entry, true
}

// Set stores an entry under key and tag until ttl elapses.
func (b *MemoryBackend) Set(_ context.Context, key, tag string, e Entry, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = memoryEntry{Entry: e, tag: tag, expiresAt: b.now().Add(ttl)}
	b.sweepLocked()
}

// InvalidateTag removes every entry stored under tag.
func (b *MemoryBackend) InvalidateTag(_ context.Context, tag string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int
	for k, e := range b.entries {
		if e.tag == tag {
			delete(b.entries, k)
			n++
		}
	}
	slog.Debug("memory cache tag invalidated", "tag", tag, "deleted", n)
	return n
}

// InvalidateAll clears the backend.
func (b *MemoryBackend) InvalidateAll(_ context.Context) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.entries)
	b.entries = make(map[string]memoryEntry)
	return n
}

// sweepLocked drops expired entries. Callers hold the write lock.
func (b *MemoryBackend) sweepLocked() {
	now := b.now()
	for k, e := range b.entries {
		if !now.Before(e.expiresAt) {
			delete(b.entries, k)
		}
	}
}
