// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package cache

import (
	"sync"
	"time"
)

// seenEntry is a node in the recency list.
type seenEntry struct {
	id        string
	seenAt    time.Time
	expiresAt time.Time
	prev      *seenEntry
	next      *seenEntry
}

// SeenSet remembers recently claimed ids for a bounded time and a bounded count.
// It is the in-process layer of the notification idempotency guard: a hit here
// short-circuits without a store round trip.
//
// The set is an LRU keyed by id with lazy TTL expiry:
//   - O(1) Claim, Release and Seen
//   - O(1) eviction of the least recently claimed id at capacity
//   - safe for concurrent use
type SeenSet struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*seenEntry

	// head.next is the most recently claimed id, tail.prev the least.
	head *seenEntry
	tail *seenEntry

	hits      int64
	misses    int64
	evictions int64
}

// NewSeenSet creates a set holding at most capacity ids for ttl each.
func NewSeenSet(capacity int, ttl time.Duration) *SeenSet {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	s := &SeenSet{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*seenEntry, capacity),
		head:     &seenEntry{},
		tail:     &seenEntry{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// Claim records id and reports whether this call was the first within the TTL.
// A false return means id was already claimed and has not expired.
func (s *SeenSet) Claim(id string) bool {
	return s.ClaimFor(id, s.ttl)
}

// ClaimFor is Claim with a per-entry ttl. A non-positive ttl uses the set default.
func (s *SeenSet) ClaimFor(id string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = s.ttl
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if entry, ok := s.items[id]; ok {
		if now.Before(entry.expiresAt) {
			s.moveToFront(entry)
			s.hits++
			return false
		}
		s.unlink(entry)
	}

	entry := &seenEntry{id: id, seenAt: now, expiresAt: now.Add(ttl)}
	s.pushFront(entry)
	s.items[id] = entry

	for len(s.items) > s.capacity {
		s.evictOldest()
	}

	s.misses++
	return true
}

// Release forgets id so it can be claimed again. Reports whether id was present.
func (s *SeenSet) Release(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.items[id]; ok {
		s.unlink(entry)
		return true
	}
	return false
}

// Seen reports whether id is claimed and unexpired, without touching recency.
func (s *SeenSet) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[id]
	return ok && s.now().Before(entry.expiresAt)
}

// Len returns the number of ids held, including expired ones not yet swept.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// CleanupExpired drops every expired id and returns how many were removed.
func (s *SeenSet) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0

	// Oldest first.
	for entry := s.tail.prev; entry != s.head; {
		prev := entry.prev
		if !now.Before(entry.expiresAt) {
			s.unlink(entry)
			removed++
		}
		entry = prev
	}
	return removed
}

// SeenStats is a snapshot of set activity.
type SeenStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// Stats returns hit, miss and eviction counts.
func (s *SeenSet) Stats() SeenStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SeenStats{
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Size:      len(s.items),
	}
}

// Internal methods (must be called with lock held)

func (s *SeenSet) pushFront(entry *seenEntry) {
	entry.prev = s.head
	entry.next = s.head.next
	s.head.next.prev = entry
	s.head.next = entry
}

func (s *SeenSet) moveToFront(entry *seenEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	s.pushFront(entry)
}

func (s *SeenSet) unlink(entry *seenEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(s.items, entry.id)
}

func (s *SeenSet) evictOldest() {
	oldest := s.tail.prev
	if oldest == s.head {
		return
	}
	s.unlink(oldest)
	s.evictions++
}
