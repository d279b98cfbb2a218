package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testKey(minute int) Key {
	return Key{
		DoctorID:    uuid.MustParse("4f9c27d4-9e71-4b1e-bb1e-0a4e2b8f3c11"),
		Date:        time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		StartMinute: minute,
	}
}

func TestMemoryGuardReserveRelease(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()
	key := testKey(600)

	if err := g.TryReserve(ctx, key); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := g.TryReserve(ctx, key); !errors.Is(err, ErrKeyReserved) {
		t.Fatalf("second reserve err = %v, want ErrKeyReserved", err)
	}

	if err := g.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := g.TryReserve(ctx, key); err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
}

func TestMemoryGuardReleaseIdempotent(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()
	key := testKey(600)

	// Releasing a key that was never held is a no-op.
	if err := g.Release(ctx, key); err != nil {
		t.Fatalf("release of free key: %v", err)
	}

	if err := g.TryReserve(ctx, key); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := g.Release(ctx, key); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := g.Release(ctx, key); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestMemoryGuardIndependentKeys(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	if err := g.TryReserve(ctx, testKey(600)); err != nil {
		t.Fatalf("reserve 10:00: %v", err)
	}
	if err := g.TryReserve(ctx, testKey(630)); err != nil {
		t.Fatalf("reserve 10:30: %v", err)
	}

	other := testKey(600)
	other.DoctorID = uuid.MustParse("b3de11a0-52c7-4a39-8d0e-7f1a9c64e522")
	if err := g.TryReserve(ctx, other); err != nil {
		t.Fatalf("reserve same time, other doctor: %v", err)
	}
}

func TestMemoryGuardConcurrentSingleWinner(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()
	key := testKey(600)

	const attempts = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.TryReserve(ctx, key); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Errorf("winners = %d, want exactly 1", won)
	}
}

func TestMemoryGuardManyKeys(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	// More keys than shards: every key still reserves independently.
	for i := 0; i < 200; i++ {
		key := testKey(540 + i*30)
		if err := g.TryReserve(ctx, key); err != nil {
			t.Fatalf("reserve key %d: %v", i, err)
		}
	}
	for i := 0; i < 200; i++ {
		key := testKey(540 + i*30)
		if err := g.TryReserve(ctx, key); !errors.Is(err, ErrKeyReserved) {
			t.Fatalf("re-reserve key %d err = %v, want ErrKeyReserved", i, err)
		}
	}
}

func TestKeyString(t *testing.T) {
	key := testKey(630)
	want := fmt.Sprintf("%s:2026-09-15:0630", key.DoctorID)
	if got := key.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
