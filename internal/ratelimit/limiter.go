// Package ratelimit implements sliding-window request limiting: a local
// multi-window limiter used to pace outgoing Riot API calls, and keyed
// limiters (in-memory or Redis backed) used to throttle incoming clients.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Rule allows Limit requests in any sliding Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Result describes the state of a limiter after a check.
type Result struct {
	Allowed    bool          `json:"allowed"`
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"resetAt"`
	RetryAfter time.Duration `json:"retryAfter,omitempty"`
}

type window struct {
	rule   Rule
	stamps []time.Time
}

// prune drops timestamps that fell out of the window.
func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.rule.Window)
	keep := 0
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			w.stamps[keep] = ts
			keep++
		}
	}
	w.stamps = w.stamps[:keep]
}

func (w *window) status(now time.Time) Result {
	r := Result{Limit: w.rule.Limit, ResetAt: now.Add(w.rule.Window)}
	if len(w.stamps) > 0 {
		// stamps are appended in time order
		r.ResetAt = w.stamps[0].Add(w.rule.Window)
	}
	if len(w.stamps) >= w.rule.Limit {
		r.RetryAfter = r.ResetAt.Sub(now)
		if r.RetryAfter < 0 {
			r.RetryAfter = 0
		}
		return r
	}
	r.Allowed = true
	r.Remaining = w.rule.Limit - len(w.stamps)
	return r
}

// Limiter enforces every rule at once: a request is admitted only when each
// window has room, and is then recorded in all of them.
type Limiter struct {
	mu      sync.Mutex
	windows []*window
	now     func() time.Time
}

// New creates a limiter enforcing rules.
func New(rules ...Rule) *Limiter {
	l := &Limiter{now: time.Now}
	for _, rule := range rules {
		l.windows = append(l.windows, &window{rule: rule})
	}
	return l
}

// PerMinute allows limit requests per sliding minute.
func PerMinute(limit int) *Limiter {
	return New(Rule{Limit: limit, Window: time.Minute})
}

// Allow admits and records a request if every window has room.
func (l *Limiter) Allow() Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	r := l.statusLocked(now)
	if !r.Allowed {
		return r
	}

	for _, w := range l.windows {
		w.stamps = append(w.stamps, now)
	}
	if r.Remaining > 0 {
		r.Remaining--
	}
	return r
}

// Status reports the limiter state without recording a request.
func (l *Limiter) Status() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statusLocked(l.now())
}

// statusLocked merges the windows: the most restrictive one decides.
func (l *Limiter) statusLocked(now time.Time) Result {
	merged := Result{Allowed: true, Remaining: -1}
	for _, w := range l.windows {
		w.prune(now)
		r := w.status(now)
		if !r.Allowed {
			if merged.Allowed || r.RetryAfter > merged.RetryAfter {
				merged = r
			}
			continue
		}
		if !merged.Allowed {
			continue
		}
		if merged.Remaining < 0 || r.Remaining < merged.Remaining {
			merged.Limit = r.Limit
			merged.Remaining = r.Remaining
			merged.ResetAt = r.ResetAt
		}
	}
	if merged.Remaining < 0 {
		// no rules: unlimited
		merged.Remaining = 0
		merged.ResetAt = now
	}
	return merged
}

// Wait blocks until a request is admitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		r := l.Allow()
		if r.Allowed {
			return nil
		}

		wait := r.RetryAfter
		if wait <= 0 {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Reset forgets every recorded request.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.windows {
		w.stamps = nil
	}
}
