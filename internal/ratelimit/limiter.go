// Package ratelimit provides a node-local fixed-window request limiter.
//
// State lives in process memory. Replicas enforce their limits independently
// and entries are never evicted.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Defaults used when a Limiter is built with zero values.
const (
	DefaultLimit  = 30
	DefaultWindow = 60 * time.Second
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter admits at most limit calls per key in each window.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// New creates a limiter. Non-positive arguments fall back to the defaults.
func New(limit int, windowLen time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if windowLen <= 0 {
		windowLen = DefaultWindow
	}
	return &Limiter{
		limit:   limit,
		window:  windowLen,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Admit counts a call for key and reports whether it is within the limit.
// The first call for a key, or the first call after resetAt has passed,
// opens a new window.
func (l *Limiter) Admit(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(l.window)}
		return true
	}

	w.count++
	return w.count <= l.limit
}

// Limit returns the number of calls admitted per window.
func (l *Limiter) Limit() int {
	return l.limit
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// ClientKey derives the limiter key for a request from its remote address.
// Proxy headers must already have been folded into RemoteAddr (chi's RealIP
// middleware does this).
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
