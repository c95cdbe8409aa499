package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Allower admits or rejects requests per key, typically a client IP.
type Allower interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Keyed keeps one in-memory Limiter per key.
type Keyed struct {
	mu       sync.Mutex
	rules    []Rule
	limiters map[string]*keyedEntry
	idle     time.Duration
	now      func() time.Time
}

type keyedEntry struct {
	limiter  *Limiter
	lastSeen time.Time
}

// NewKeyed creates a keyed limiter applying rules to every key. Keys unseen
// for longer than the longest window are dropped by Cleanup.
func NewKeyed(rules ...Rule) *Keyed {
	idle := time.Minute
	for _, r := range rules {
		if r.Window > idle {
			idle = r.Window
		}
	}
	return &Keyed{
		rules:    rules,
		limiters: make(map[string]*keyedEntry),
		idle:     idle,
		now:      time.Now,
	}
}

// Allow implements Allower. It never returns an error.
func (k *Keyed) Allow(_ context.Context, key string) (Result, error) {
	return k.get(key).Allow(), nil
}

// Status reports the state of key without recording a request.
func (k *Keyed) Status(key string) Result {
	return k.get(key).Status()
}

// Reset forgets key.
func (k *Keyed) Reset(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.limiters, key)
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

func (k *Keyed) get(key string) *Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	entry, ok := k.limiters[key]
	if !ok {
		l := New(k.rules...)
		l.now = k.now
		entry = &keyedEntry{limiter: l}
		k.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Cleanup drops keys idle for longer than the longest window.
func (k *Keyed) Cleanup() {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := k.now().Add(-k.idle)
	for key, entry := range k.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(k.limiters, key)
		}
	}
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (k *Keyed) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Cleanup()
		}
	}
}
