// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit enforces fixed-window request quotas on top of the
// memo store's atomic counters.
// Implements: prd001-cache (R3.1-R3.4).
package ratelimit

import (
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/research-agent/internal/memostore"
)

// Limiter admits or rejects a unit of work per identifier using a fixed
// window: the first request in a window starts a counter with a TTL equal
// to the window length, and the window resets entirely when the TTL lapses.
type Limiter struct {
	store *memostore.Store
	w     io.Writer
}

// New returns a Limiter backed by store. Warnings are written to w.
func New(store *memostore.Store, w io.Writer) *Limiter {
	return &Limiter{store: store, w: w}
}

// Decision is the outcome of one admission check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Remaining is the number of requests left in the current window.
	Remaining int

	// Reset is how long until the window expires and the quota refills.
	Reset time.Duration
}

// CheckAndConsume consumes one request from identifier's quota and returns
// the admission decision. When the counter reaches maxRequests before the
// window expires, further calls are rejected until expiry (R3.2).
//
// On store failure the limiter fails open: availability of the research
// function is prioritized over strict quota enforcement (R3.4).
func (l *Limiter) CheckAndConsume(identifier string, maxRequests int, window time.Duration) Decision {
	key := "rate_limit:" + identifier

	count, err := l.store.Increment(key, 1, window)
	if err != nil {
		if l.w != nil {
			fmt.Fprintf(l.w, "warning: rate limit check for %s failed, allowing request: %v\n", identifier, err)
		}
		return Decision{Allowed: true, Remaining: maxRequests, Reset: 0}
	}

	reset, ok := l.store.TTL(key)
	if !ok {
		reset = window
	}

	if count > int64(maxRequests) {
		return Decision{Allowed: false, Remaining: 0, Reset: reset}
	}

	remaining := maxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining, Reset: reset}
}
