package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/qubicdash/qubicdash/pkg/types"
)

// SnapshotEntry is a network snapshot together with the time it was stored.
type SnapshotEntry struct {
	Snapshot  *types.NetworkSnapshot
	UpdatedAt time.Time
}

// PriceEntry is a price quote together with the time it was stored.
type PriceEntry struct {
	Quote     types.PriceQuote
	UpdatedAt time.Time
}

// Store is a thread-safe holder for the latest snapshot and one quote per
// asset/currency pair. A background goroutine (Run) periodically evicts
// entries that have not been updated within the configured TTL.
type Store struct {
	mu       sync.RWMutex
	snapshot *SnapshotEntry
	prices   map[string]*PriceEntry
	ttl      time.Duration
	now      func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		prices: make(map[string]*PriceEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

// PutSnapshot replaces the current snapshot.
// Callers must not modify snap after calling PutSnapshot.
func (s *Store) PutSnapshot(snap *types.NetworkSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = &SnapshotEntry{Snapshot: snap, UpdatedAt: s.now()}
}

// Snapshot returns the current snapshot if it is within the TTL.
func (s *Store) Snapshot() (*SnapshotEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil || !s.live(s.snapshot.UpdatedAt) {
		return nil, false
	}
	return s.snapshot, true
}

// PutPrice stores or replaces the quote for q's pair.
func (s *Store) PutPrice(q types.PriceQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[q.Key()] = &PriceEntry{Quote: q, UpdatedAt: s.now()}
}

// Price returns the live quote for asset in currency.
func (s *Store) Price(asset, currency string) (*PriceEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.prices[types.PairKey(asset, currency)]
	if !ok || !s.live(e.UpdatedAt) {
		return nil, false
	}
	return e, true
}

// Prices returns every live quote ordered by pair key.
func (s *Store) Prices() []*PriceEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*PriceEntry, 0, len(s.prices))
	for _, e := range s.prices {
		if s.live(e.UpdatedAt) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quote.Key() < out[j].Quote.Key() })
	return out
}

// live reports whether an entry updated at t is within the TTL.
// Callers must hold s.mu.
func (s *Store) live(t time.Time) bool {
	return t.After(s.now().Add(-s.ttl))
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.prices)
	if s.snapshot != nil {
		n++
	}
	return n
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	if s.snapshot != nil && !s.snapshot.UpdatedAt.After(cutoff) {
		s.snapshot = nil
		removed++
	}
	for key, e := range s.prices {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.prices, key)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale entries", "count", n)
			}
		}
	}
}
