package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, window time.Duration, maxHits, maxKeys int) *Limiter {
	t.Helper()
	l, err := New(window, maxHits, maxKeys)
	require.NoError(t, err)
	return l
}

func TestHit_AllowsUpToMax(t *testing.T) {
	l := newTestLimiter(t, time.Minute, 3, 16)

	assert.True(t, l.Hit("user-1", "start"))
	assert.True(t, l.Hit("user-1", "start"))
	assert.True(t, l.Hit("user-1", "start"))
	assert.False(t, l.Hit("user-1", "start"), "fourth hit inside the window should be rejected")
}

func TestHit_KeysAreIndependent(t *testing.T) {
	l := newTestLimiter(t, time.Minute, 1, 16)

	assert.True(t, l.Hit("user-1", "start"))
	assert.False(t, l.Hit("user-1", "start"))

	assert.True(t, l.Hit("user-2", "start"), "other actors keep their own allowance")
	assert.True(t, l.Hit("user-1", "help"), "other actions keep their own allowance")
}

func TestHit_WindowEvictsOldEntries(t *testing.T) {
	l := newTestLimiter(t, 30*time.Millisecond, 2, 16)

	assert.True(t, l.Hit("user-1", "start"))
	assert.True(t, l.Hit("user-1", "start"))
	assert.False(t, l.Hit("user-1", "start"))

	time.Sleep(40 * time.Millisecond)

	assert.True(t, l.Hit("user-1", "start"), "hits outside the window must not count")
}

func TestHit_KeySpaceIsBounded(t *testing.T) {
	l := newTestLimiter(t, time.Minute, 1, 2)

	assert.True(t, l.Hit("a", "x"))
	assert.True(t, l.Hit("b", "x"))
	// Touching a third key evicts the oldest; "a" starts fresh afterwards.
	assert.True(t, l.Hit("c", "x"))
	assert.True(t, l.Hit("a", "x"))
}
