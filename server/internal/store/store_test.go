package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/qubicdash/qubicdash/pkg/types"
)

func snap(avg float64) *types.NetworkSnapshot {
	return &types.NetworkSnapshot{AverageScore: avg, EstimatedIts: 1000}
}

func quote(asset string, price float64) types.PriceQuote {
	return types.PriceQuote{Asset: asset, Currency: "usd", Price: price}
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutAndGetSnapshot(t *testing.T) {
	st := New(5 * time.Minute)
	st.PutSnapshot(snap(100))

	e, ok := st.Snapshot()
	if !ok {
		t.Fatal("Snapshot: expected entry, got none")
	}
	if e.Snapshot.AverageScore != 100 {
		t.Errorf("AverageScore: got %v, want 100", e.Snapshot.AverageScore)
	}
}

func TestSnapshot_Empty(t *testing.T) {
	st := New(5 * time.Minute)
	if _, ok := st.Snapshot(); ok {
		t.Fatal("Snapshot on empty store: expected false, got true")
	}
}

func TestPutSnapshot_Overwrites(t *testing.T) {
	st := New(5 * time.Minute)
	st.PutSnapshot(snap(100))
	st.PutSnapshot(snap(150))

	e, ok := st.Snapshot()
	if !ok {
		t.Fatal("Snapshot: expected entry after two Puts")
	}
	if e.Snapshot.AverageScore != 150 {
		t.Errorf("AverageScore: got %v, want 150", e.Snapshot.AverageScore)
	}
}

func TestSnapshot_ExcludesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.PutSnapshot(snap(100))

	st.now = fixedClock(base)
	if _, ok := st.Snapshot(); ok {
		t.Error("Snapshot: stale entry returned")
	}
	if n := st.Count(); n != 1 {
		t.Errorf("Count: got %d, want 1 (stale not yet evicted)", n)
	}
}

func TestPrice_PerPair(t *testing.T) {
	st := New(5 * time.Minute)
	st.PutPrice(quote("qubic-network", 0.000002))
	st.PutPrice(types.PriceQuote{Asset: "qubic-network", Currency: "eur", Price: 0.0000018})

	e, ok := st.Price("qubic-network", "usd")
	if !ok {
		t.Fatal("Price usd: expected entry")
	}
	if e.Quote.Price != 0.000002 {
		t.Errorf("Price usd: got %v, want 2e-06", e.Quote.Price)
	}
	if _, ok := st.Price("qubic-network", "jpy"); ok {
		t.Error("Price jpy: expected none")
	}
	if n := len(st.Prices()); n != 2 {
		t.Errorf("Prices: got %d, want 2", n)
	}
}

func TestPrices_ExcludesStaleAndSorted(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.PutPrice(quote("old", 1))

	st.now = fixedClock(base)
	st.PutPrice(quote("zeta", 3))
	st.PutPrice(quote("alpha", 2))

	entries := st.Prices()
	if len(entries) != 2 {
		t.Fatalf("Prices: got %d entries, want 2", len(entries))
	}
	if entries[0].Quote.Asset != "alpha" || entries[1].Quote.Asset != "zeta" {
		t.Errorf("Prices order: got %s, %s", entries[0].Quote.Asset, entries[1].Quote.Asset)
	}
}

func TestEvict_RemovesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.PutSnapshot(snap(100))
	st.PutPrice(quote("old", 1))

	st.now = fixedClock(base)
	st.PutPrice(quote("live", 2))

	removed := st.Evict(base)
	if removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	if st.Count() != 1 {
		t.Errorf("Count after evict: got %d, want 1", st.Count())
	}
}

func TestEvict_NoOp_AllLive(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base)
	st.PutSnapshot(snap(100))
	st.PutPrice(quote("q", 1))

	if removed := st.Evict(base); removed != 0 {
		t.Errorf("Evict on live entries: removed %d, want 0", removed)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := New(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(5 * time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			st.PutSnapshot(snap(float64(n)))
		}(i)
		go func() {
			defer wg.Done()
			st.PutPrice(quote("q", 1))
		}()
		go func() {
			defer wg.Done()
			st.Snapshot()
			st.Prices()
		}()
	}
	wg.Wait()

	if st.Count() != 2 {
		t.Errorf("Count after concurrent puts: got %d, want 2", st.Count())
	}
}
