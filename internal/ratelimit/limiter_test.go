package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(cfg Config) (*Limiter, *time.Time) {
	l := NewLimiter(cfg)
	current := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func permissive() Config {
	return Config{
		MinInterval:       0,
		RequestsPerMinute: 1000,
		DailyLimit:        1000,
		TokenLimit:        1 << 30,
		WarnFraction:      0.6,
	}
}

func TestMinIntervalDeniesRapidSecondRequest(t *testing.T) {
	cfg := permissive()
	cfg.MinInterval = 1500 * time.Millisecond
	l, now := newTestLimiter(cfg)

	ok, _ := l.Admit("1.2.3.4")
	require.True(t, ok)

	*now = now.Add(500 * time.Millisecond)
	ok, reason := l.Admit("1.2.3.4")
	assert.False(t, ok)
	assert.Contains(t, reason, "too quickly")

	*now = now.Add(2 * time.Second)
	ok, _ = l.Admit("1.2.3.4")
	assert.True(t, ok)
}

func TestDailyLimitAdmitsExactlyTheCap(t *testing.T) {
	cfg := permissive()
	cfg.DailyLimit = 5
	l, now := newTestLimiter(cfg)

	admitted := 0
	var lastReason string
	for i := 0; i < 6; i++ {
		ok, reason := l.Admit("client")
		if ok {
			admitted++
		} else {
			lastReason = reason
		}
		// Stay inside the same calendar day but outside the RPM window.
		*now = now.Add(2 * time.Minute)
	}

	assert.Equal(t, 5, admitted)
	assert.Contains(t, lastReason, "Daily request limit")
}

func TestDailyCounterResetsOnNewCalendarDay(t *testing.T) {
	cfg := permissive()
	cfg.DailyLimit = 1
	l, now := newTestLimiter(cfg)

	ok, _ := l.Admit("client")
	require.True(t, ok)

	*now = now.Add(2 * time.Minute)
	ok, _ = l.Admit("client")
	require.False(t, ok)

	*now = now.Add(24 * time.Hour)
	ok, _ = l.Admit("client")
	assert.True(t, ok, "lazy reset on date change should re-admit")
}

func TestSlidingWindowDeniesWithWaitSeconds(t *testing.T) {
	cfg := permissive()
	cfg.RequestsPerMinute = 20
	l, now := newTestLimiter(cfg)

	for i := 0; i < 20; i++ {
		ok, reason := l.Admit("client")
		require.True(t, ok, "request %d should be admitted: %s", i+1, reason)
		*now = now.Add(time.Second)
	}

	ok, reason := l.Admit("client")
	require.False(t, ok)

	var wait int
	_, err := fmt.Sscanf(reason, "Too many requests. Please wait %d seconds.", &wait)
	require.NoError(t, err, "reason should state the wait: %q", reason)
	assert.Greater(t, wait, 0)
	assert.LessOrEqual(t, wait, 60)
}

func TestSlidingWindowFreesUpAsTimestampsAge(t *testing.T) {
	cfg := permissive()
	cfg.RequestsPerMinute = 2
	l, now := newTestLimiter(cfg)

	ok, _ := l.Admit("client")
	require.True(t, ok)
	ok, _ = l.Admit("client")
	require.True(t, ok)
	ok, _ = l.Admit("client")
	require.False(t, ok)

	*now = now.Add(61 * time.Second)
	ok, _ = l.Admit("client")
	assert.True(t, ok)
}

func TestTokenCapDeniesAndWarns(t *testing.T) {
	cfg := permissive()
	cfg.TokenLimit = 1000
	cfg.WarnFraction = 0.6
	l, _ := newTestLimiter(cfg)

	assert.False(t, l.NearTokenLimit("client"))

	l.AddTokens("client", 500)
	assert.False(t, l.NearTokenLimit("client"))

	l.AddTokens("client", 150)
	assert.True(t, l.NearTokenLimit("client"), "60% soft threshold crossed")

	ok, _ := l.Admit("client")
	assert.True(t, ok, "warning threshold alone must not deny")

	l.AddTokens("client", 400)
	ok, reason := l.Admit("client")
	assert.False(t, ok)
	assert.Contains(t, reason, "Refresh")
}

func TestClientsAreIndependent(t *testing.T) {
	cfg := permissive()
	cfg.DailyLimit = 1
	l, now := newTestLimiter(cfg)

	ok, _ := l.Admit("a")
	require.True(t, ok)
	*now = now.Add(2 * time.Minute)
	ok, _ = l.Admit("a")
	require.False(t, ok)

	ok, _ = l.Admit("b")
	assert.True(t, ok, "another client must be unaffected")
}

func TestIdleRecordsAreEvicted(t *testing.T) {
	cfg := permissive()
	cfg.IdleEviction = time.Hour
	l, now := newTestLimiter(cfg)

	ok, _ := l.Admit("stale")
	require.True(t, ok)
	require.Len(t, l.records, 1)

	*now = now.Add(2 * time.Hour)
	ok, _ = l.Admit("fresh")
	require.True(t, ok)

	_, staleKept := l.records["stale"]
	assert.False(t, staleKept, "idle record should be swept")
	_, freshKept := l.records["fresh"]
	assert.True(t, freshKept)
}

func TestResetDropsRecord(t *testing.T) {
	l, _ := newTestLimiter(permissive())

	l.AddTokens("client", 100)
	l.Reset("client")
	assert.False(t, l.NearTokenLimit("client"))
	assert.Empty(t, l.records)
}
