package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"token-safety-oracle/internal/domain"
	"token-safety-oracle/internal/storage"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sampleResult(score int) domain.SafetyResult {
	checks := domain.Checks{}
	checks.Set(domain.CheckLiquidity, domain.CheckPass, "", 50_000.0)
	return domain.SafetyResult{
		Safe:         score >= 60,
		SafetyScore:  score,
		Chain:        "ethereum",
		TokenAddress: "0xabc",
		Checks:       checks,
	}
}

func TestResultCache_StoreAndLookup(t *testing.T) {
	clock := newFakeClock()
	cache := NewResultCache(WithClock(clock.Now))
	ctx := context.Background()

	if err := cache.Store(ctx, "ethereum", "0xabc", sampleResult(90)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	clock.Advance(299 * time.Second)

	got, ok := cache.Lookup(ctx, "ethereum", "0xabc")
	if !ok {
		t.Fatal("expected hit within TTL")
	}
	if got.SafetyScore != 90 {
		t.Errorf("SafetyScore mismatch: got %d, want 90", got.SafetyScore)
	}
	if got.Checks[domain.CheckLiquidity].Status != domain.CheckPass {
		t.Errorf("checks not preserved: %+v", got.Checks)
	}
}

func TestResultCache_ExpiresAtTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewResultCache(WithClock(clock.Now))
	ctx := context.Background()

	if err := cache.Store(ctx, "solana", "Mint1", sampleResult(70)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	clock.Advance(storage.ResultTTL)

	if _, ok := cache.Lookup(ctx, "solana", "Mint1"); ok {
		t.Fatal("expected miss once age reaches TTL")
	}
	if n := cache.Len(); n != 0 {
		t.Errorf("expected stale entry evicted, Len=%d", n)
	}
}

func TestResultCache_StaleEntryKeptUntilRead(t *testing.T) {
	clock := newFakeClock()
	cache := NewResultCache(WithClock(clock.Now))
	ctx := context.Background()

	_ = cache.Store(ctx, "solana", "A", sampleResult(70))
	_ = cache.Store(ctx, "solana", "B", sampleResult(70))

	clock.Advance(time.Hour)

	if n := cache.Len(); n != 2 {
		t.Fatalf("no background sweep expected, Len=%d", n)
	}

	cache.Lookup(ctx, "solana", "A")

	if n := cache.Len(); n != 1 {
		t.Errorf("expected only the read key evicted, Len=%d", n)
	}
}

func TestResultCache_StoreOverwrites(t *testing.T) {
	clock := newFakeClock()
	cache := NewResultCache(WithClock(clock.Now))
	ctx := context.Background()

	_ = cache.Store(ctx, "base", "0x1", sampleResult(40))
	clock.Advance(200 * time.Second)
	_ = cache.Store(ctx, "base", "0x1", sampleResult(85))
	clock.Advance(200 * time.Second)

	got, ok := cache.Lookup(ctx, "base", "0x1")
	if !ok {
		t.Fatal("overwrite should reset the entry age")
	}
	if got.SafetyScore != 85 {
		t.Errorf("expected latest result, got score %d", got.SafetyScore)
	}
	if n := cache.Len(); n != 1 {
		t.Errorf("expected one entry per key, Len=%d", n)
	}
}

func TestResultCache_KeysAreExact(t *testing.T) {
	cache := NewResultCache()
	ctx := context.Background()

	_ = cache.Store(ctx, "ethereum", "0xABC", sampleResult(90))

	if _, ok := cache.Lookup(ctx, "ethereum", "0xabc"); ok {
		t.Error("cache must not normalize address case")
	}
	if _, ok := cache.Lookup(ctx, "base", "0xABC"); ok {
		t.Error("different chain must miss")
	}
}

func TestResultCache_ReturnsCopies(t *testing.T) {
	cache := NewResultCache()
	ctx := context.Background()

	original := sampleResult(90)
	_ = cache.Store(ctx, "ethereum", "0xabc", original)
	original.Checks.Set(domain.CheckLiquidity, domain.CheckFail, "mutated", 0.0)

	first, _ := cache.Lookup(ctx, "ethereum", "0xabc")
	if first.Checks[domain.CheckLiquidity].Status != domain.CheckPass {
		t.Fatal("mutating the stored value leaked into the cache")
	}

	first.Checks.Set(domain.CheckLiquidity, domain.CheckFail, "mutated", 0.0)
	second, _ := cache.Lookup(ctx, "ethereum", "0xabc")
	if second.Checks[domain.CheckLiquidity].Status != domain.CheckPass {
		t.Error("mutating a looked-up value leaked into the cache")
	}
}

func TestResultCache_InvalidKey(t *testing.T) {
	cache := NewResultCache()
	ctx := context.Background()

	if err := cache.Store(ctx, "", "0x1", sampleResult(1)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty chain, got %v", err)
	}
	if err := cache.Store(ctx, "ethereum", "", sampleResult(1)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty address, got %v", err)
	}
}

func TestResultCache_ConcurrentAccess(t *testing.T) {
	cache := NewResultCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				addr := fmt.Sprintf("0x%d", i%20)
				_ = cache.Store(ctx, "ethereum", addr, sampleResult(w))
				cache.Lookup(ctx, "ethereum", addr)
			}
		}(w)
	}
	wg.Wait()

	if n := cache.Len(); n != 20 {
		t.Errorf("expected 20 keys, got %d", n)
	}
}
