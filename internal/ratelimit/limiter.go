// Package ratelimit implements per-team admission control for the ingestion
// and query paths.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// teamWindow tracks the sliding request log for a single team
type teamWindow struct {
	timestamps []time.Time
	mu         sync.Mutex
	// retired is set under mu when cleanup drops this window from the map;
	// a request that grabbed the pointer before the delete must not record
	// into it.
	retired bool
}

// Limiter is a sliding-log rate limiter keyed by team ID. Each team gets at
// most maxRequests admissions per window; the log is exact, not an
// approximation. Window state lives in memory only, so a process restart
// resets every team's quota.
//
// Each team's window carries its own mutex, so concurrent requests for
// different teams never serialize against each other.
type Limiter struct {
	windows     map[string]*teamWindow
	mu          sync.RWMutex
	window      time.Duration
	maxRequests int
	logger      *zap.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewLimiter creates a Limiter admitting maxRequests per team per window.
// A cleanup goroutine periodically drops teams that have gone idle.
func NewLimiter(window time.Duration, maxRequests int, logger *zap.Logger) *Limiter {
	l := &Limiter{
		windows:     make(map[string]*teamWindow),
		window:      window,
		maxRequests: maxRequests,
		logger:      logger,
		now:         time.Now,
	}

	go l.cleanupIdleTeams()

	return l
}

// Allow reports whether a request for teamID may proceed. It prunes
// timestamps older than the window, then admits and records the request iff
// the remaining count is below the limit. A denied request is not recorded.
//
// An empty teamID is its own independent bucket; callers must reject missing
// team identifiers before admission control, otherwise anonymous traffic
// shares one quota.
func (l *Limiter) Allow(teamID string) bool {
	var w *teamWindow
	for {
		l.mu.Lock()
		var ok bool
		w, ok = l.windows[teamID]
		if !ok {
			w = &teamWindow{}
			l.windows[teamID] = w
		}
		l.mu.Unlock()

		w.mu.Lock()
		if !w.retired {
			break
		}
		// Cleanup dropped this window between the map lookup and the
		// window lock; start over against the fresh entry.
		w.mu.Unlock()
	}
	defer w.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept

	if len(w.timestamps) >= l.maxRequests {
		return false
	}

	w.timestamps = append(w.timestamps, now)
	return true
}

// cleanupIdleTeams removes teams whose entire window has expired
func (l *Limiter) cleanupIdleTeams() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.sweepIdle()
	}
}

func (l *Limiter) sweepIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for teamID, w := range l.windows {
		w.mu.Lock()
		idle := len(w.timestamps) == 0 ||
			w.timestamps[len(w.timestamps)-1].Before(cutoff)
		if idle {
			// Retire under the window lock so an Allow holding the stale
			// pointer sees it and re-fetches from the map.
			w.retired = true
			delete(l.windows, teamID)
		}
		w.mu.Unlock()
		if idle {
			l.logger.Debug("cleaned up idle team from rate limiter",
				zap.String("team_id", teamID),
			)
		}
	}
}
