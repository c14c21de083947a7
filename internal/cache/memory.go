// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryEntry is a node in the recency list.
type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero means no expiry
	prev      *memoryEntry
	next      *memoryEntry
}

// Stats reports MemoryStore activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
}

// MemoryStore is a thread-safe LRU cache with per-entry TTL.
//
// Lookups, inserts and evictions are O(1) via a hashmap plus a doubly-linked
// list whose head is the most recently used entry. Expired entries are
// removed lazily on access, or in bulk by PurgeExpired.
type MemoryStore struct {
	mu       sync.Mutex
	clock    Clock
	capacity int
	items    map[string]*memoryEntry
	head     *memoryEntry
	tail     *memoryEntry
	stats    Stats
}

// NewMemoryStore creates a MemoryStore holding at most capacity entries.
// A nil clock uses the wall clock.
func NewMemoryStore(capacity int, clock Clock) *MemoryStore {
	if capacity <= 0 {
		capacity = 10000
	}
	if clock == nil {
		clock = SystemClock{}
	}
	s := &MemoryStore{
		clock:    clock,
		capacity: capacity,
		items:    make(map[string]*memoryEntry),
		head:     &memoryEntry{},
		tail:     &memoryEntry{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		s.stats.Misses++
		return nil, ErrNotFound
	}
	if s.expired(e) {
		s.remove(e)
		s.stats.Misses++
		s.stats.Evictions++
		return nil, ErrNotFound
	}
	s.moveToFront(e)
	s.stats.Hits++

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.clock.Now().Add(ttl)
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	if e, ok := s.items[key]; ok {
		e.value = stored
		e.expiresAt = expiresAt
		s.moveToFront(e)
		return nil
	}

	e := &memoryEntry{key: key, value: stored, expiresAt: expiresAt}
	s.items[key] = e
	s.pushFront(e)

	for len(s.items) > s.capacity {
		s.remove(s.tail.prev)
		s.stats.Evictions++
	}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if e, ok := s.items[k]; ok {
			s.remove(e)
		}
	}
	return nil
}

// DeletePrefix implements Store.
func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.items {
		if strings.HasPrefix(k, prefix) {
			s.remove(e)
		}
	}
	return nil
}

// PurgeExpired drops every expired entry and returns how many were removed.
func (s *MemoryStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.items {
		if s.expired(e) {
			s.remove(e)
			n++
		}
	}
	s.stats.Evictions += int64(n)
	return n
}

// Stats returns a snapshot of cache statistics.
func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Keys = len(s.items)
	return st
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) expired(e *memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt)
}

func (s *MemoryStore) pushFront(e *memoryEntry) {
	e.prev = s.head
	e.next = s.head.next
	s.head.next.prev = e
	s.head.next = e
}

func (s *MemoryStore) moveToFront(e *memoryEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	s.pushFront(e)
}

func (s *MemoryStore) remove(e *memoryEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(s.items, e.key)
}

var _ Store = (*MemoryStore)(nil)
