// Package lock serializes check-then-write sequences per key, such as the
// listing quota check for one owner and role.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotAcquired = errors.New("lock not acquired")

type Locker interface {
	// Acquire blocks until the key is held or ctx is done. The returned
	// release func must be called exactly once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Local is an in-process Locker, used when Redis is not configured and in tests.
type Local struct {
	mu   sync.Mutex
	keys map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{keys: map[string]chan struct{}{}}
}

func (l *Local) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	for {
		l.mu.Lock()
		ch, held := l.keys[key]
		if !held {
			ch = make(chan struct{})
			l.keys[key] = ch
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.keys, key)
					l.mu.Unlock()
					close(ch)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		}
	}
}
