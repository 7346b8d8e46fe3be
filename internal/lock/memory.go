package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker is an in-process Locker with the same retry and lease
// semantics as RedisLocker.  It only serialises callers inside one
// process, which is enough for single-instance deployments and tests.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryGrant
	opts  Options
	nowFn func() time.Time
}

type memoryGrant struct {
	token   string
	expires time.Time
}

// NewMemoryLocker returns an empty in-process locker.
func NewMemoryLocker(opts Options) *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]memoryGrant),
		opts:  opts.normalize(),
		nowFn: time.Now,
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	token := uuid.NewString()
	err := retry(ctx, l.opts, func(context.Context) (bool, error) {
		return l.tryAcquire(key, token), nil
	})
	if err != nil {
		return nil, err
	}
	return &memoryLease{locker: l, key: key, token: token}, nil
}

func (l *MemoryLocker) tryAcquire(key, token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	if g, ok := l.held[key]; ok && now.Before(g.expires) {
		return false
	}
	l.held[key] = memoryGrant{token: token, expires: now.Add(l.opts.Lease)}
	return true
}

// Held reports whether key is currently granted.
func (l *MemoryLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.held[key]
	return ok && l.nowFn().Before(g.expires)
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	token  string
}

func (m *memoryLease) Key() string { return m.key }

func (m *memoryLease) Refresh(context.Context) error {
	l := m.locker
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	g, ok := l.held[m.key]
	if !ok || g.token != m.token || !now.Before(g.expires) {
		return ErrLeaseLost
	}
	g.expires = now.Add(l.opts.Lease)
	l.held[m.key] = g
	return nil
}

func (m *memoryLease) Release(context.Context) error {
	l := m.locker
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.held[m.key]
	if !ok || g.token != m.token {
		return ErrLeaseLost
	}
	delete(l.held, m.key)
	return nil
}
