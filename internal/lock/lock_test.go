package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocalSerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "owner-1:driver", time.Second)
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxSeen)
	}
}

func TestLocalDifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	r1, err := l.Acquire(context.Background(), "a", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	r2, err := l.Acquire(ctx, "b", time.Second)
	if err != nil {
		t.Fatalf("acquire b: %v", err)
	}
	r2()
}

func TestLocalHonoursContext(t *testing.T) {
	l := NewLocal()
	release, _ := l.Acquire(context.Background(), "k", time.Second)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "k", time.Second); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
}

func TestLocalReleaseIsIdempotent(t *testing.T) {
	l := NewLocal()
	release, _ := l.Acquire(context.Background(), "k", time.Second)
	release()
	release()

	again, err := l.Acquire(context.Background(), "k", time.Second)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	again()
}
