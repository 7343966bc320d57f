package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Config holds the per-client admission thresholds
type Config struct {
	MinInterval       time.Duration // minimum gap between two accepted requests
	RequestsPerMinute int           // sliding 60s window cap
	DailyLimit        int           // requests per calendar day
	TokenLimit        int           // hard session token ceiling
	WarnFraction      float64       // soft warning threshold as a fraction of TokenLimit
	IdleEviction      time.Duration // drop a client record after this much inactivity
}

// DefaultConfig returns the limits used in production
func DefaultConfig() Config {
	return Config{
		MinInterval:       1500 * time.Millisecond,
		RequestsPerMinute: 20,
		DailyLimit:        100,
		TokenLimit:        20000,
		WarnFraction:      0.6,
		IdleEviction:      6 * time.Hour,
	}
}

// record tracks one client's request history. All fields are guarded by the
// limiter's mutex.
type record struct {
	window       []time.Time // accepted requests inside the sliding window
	day          string      // calendar date the daily counter applies to
	dayCount     int
	lastAccepted time.Time
	lastSeen     time.Time
	tokens       int
}

// Limiter admits or rejects requests per client key. Keys are opaque; the
// transport layer passes client IPs.
type Limiter struct {
	mu        sync.Mutex
	records   map[string]*record
	cfg       Config
	lastSweep time.Time

	now func() time.Time
}

// NewLimiter creates a limiter with the given thresholds
func NewLimiter(cfg Config) *Limiter {
	return &Limiter{
		records: make(map[string]*record),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Admit decides whether a request from key may proceed. The checks run in a
// fixed order and short-circuit: minimum interval, daily cap, sliding-window
// RPM, session token ceiling. On acceptance the record is updated in place.
func (l *Limiter) Admit(key string) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeSweep(now)

	rec, ok := l.records[key]
	if !ok {
		rec = &record{}
		l.records[key] = rec
	}
	rec.lastSeen = now

	// 1. Minimum interval between requests
	if !rec.lastAccepted.IsZero() && now.Sub(rec.lastAccepted) < l.cfg.MinInterval {
		return false, "You're sending messages too quickly. Wait a moment and try again."
	}

	// 2. Daily cap, reset lazily when the calendar date changes
	today := now.Format("2006-01-02")
	if rec.day != today {
		rec.day = today
		rec.dayCount = 0
	}
	if rec.dayCount >= l.cfg.DailyLimit {
		return false, "Daily request limit reached. Please come back tomorrow."
	}

	// 3. Sliding-window requests per minute
	cutoff := now.Add(-time.Minute)
	valid := rec.window[:0]
	for _, t := range rec.window {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	rec.window = valid
	if len(rec.window) >= l.cfg.RequestsPerMinute {
		wait := int(time.Minute.Seconds() - now.Sub(rec.window[0]).Seconds())
		if wait < 1 {
			wait = 1
		}
		return false, fmt.Sprintf("Too many requests. Please wait %d seconds.", wait)
	}

	// 4. Session token ceiling
	if rec.tokens >= l.cfg.TokenLimit {
		return false, "Session token budget exhausted. Refresh the page to start a new session."
	}

	rec.window = append(rec.window, now)
	rec.dayCount++
	rec.lastAccepted = now
	return true, ""
}

// AddTokens charges estimated token usage to a client after generation
func (l *Limiter) AddTokens(key string, n int) {
	if n <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		rec = &record{}
		l.records[key] = rec
	}
	rec.tokens += n
	rec.lastSeen = l.now()
}

// NearTokenLimit reports whether a client has crossed the soft warning
// threshold without exceeding the hard ceiling.
func (l *Limiter) NearTokenLimit(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		return false
	}
	return float64(rec.tokens) >= l.cfg.WarnFraction*float64(l.cfg.TokenLimit)
}

// Reset drops a client's record entirely
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.records, key)
}

// maybeSweep evicts records idle longer than IdleEviction. Runs at most
// once per ten minutes, piggybacked on Admit, so no timer goroutine is
// needed. Caller holds the mutex.
func (l *Limiter) maybeSweep(now time.Time) {
	if l.cfg.IdleEviction <= 0 || now.Sub(l.lastSweep) < 10*time.Minute {
		return
	}
	l.lastSweep = now

	for key, rec := range l.records {
		if now.Sub(rec.lastSeen) > l.cfg.IdleEviction {
			delete(l.records, key)
		}
	}
}
