package nonce

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func Test_MemoryClaimOnce(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ok, err := m.Claim(ctx, "svc:n1:1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("First claim should succeed: ok=%v err=%v", ok, err)
	}

	ok, err = m.Claim(ctx, "svc:n1:1", time.Minute)
	if err != nil || ok {
		t.Fatalf("Second claim should be rejected: ok=%v err=%v", ok, err)
	}

	ok, _ = m.Claim(ctx, "svc:n2:1", time.Minute)
	if !ok {
		t.Errorf("A different nonce should be accepted")
	}
}

func Test_MemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	if ok, _ := m.Claim(ctx, "k", time.Second); !ok {
		t.Fatalf("First claim should succeed")
	}

	now = now.Add(2 * time.Second)

	if ok, _ := m.Claim(ctx, "k", time.Second); !ok {
		t.Errorf("Claim after expiry should succeed")
	}

	now = now.Add(2 * time.Minute)
	m.Claim(ctx, "other", time.Second)

	if n := m.Len(); n != 1 {
		t.Errorf("Expired entries should be collected, got %d live", n)
	}
}

func Test_MemoryConcurrentClaims(t *testing.T) {
	m := NewMemory()

	var wins atomic.Int32
	var wg sync.WaitGroup

	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Claim(context.Background(), "same", time.Minute); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("Exactly one concurrent claim should win, got %d", wins.Load())
	}
}
