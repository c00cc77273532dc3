package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionLookup_ExpiresIdleSessions(t *testing.T) {
	clock := time.Now()
	o := &Orchestrator{
		now:      func() time.Time { return clock },
		sessions: make(map[string]*Session),
	}
	o.sessions["s1"] = &Session{ID: "s1", State: StateCollectingShipping, touched: clock}

	session, err := o.session("s1")
	assert.NoError(t, err)
	assert.Equal(t, "s1", session.ID)

	// An idle session past the TTL is gone, and its map entry with it.
	clock = clock.Add(SessionTTL + time.Minute)
	_, err = o.session("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, o.sessions)
}

func TestSessionLookup_TouchSlidesTheWindow(t *testing.T) {
	clock := time.Now()
	o := &Orchestrator{
		now:      func() time.Time { return clock },
		sessions: make(map[string]*Session),
	}
	o.sessions["s1"] = &Session{ID: "s1", State: StateCollectingPayment, touched: clock}

	// Half a TTL later the session is touched, which restarts the window.
	clock = clock.Add(SessionTTL / 2)
	_, err := o.session("s1")
	assert.NoError(t, err)

	clock = clock.Add(SessionTTL - time.Minute)
	_, err = o.session("s1")
	assert.NoError(t, err)
}

func TestSweepExpired(t *testing.T) {
	clock := time.Now()
	o := &Orchestrator{
		now:      func() time.Time { return clock },
		sessions: make(map[string]*Session),
	}
	o.sessions["stale"] = &Session{ID: "stale", State: StateSucceeded, touched: clock.Add(-2 * SessionTTL)}
	o.sessions["live"] = &Session{ID: "live", State: StateCollectingShipping, touched: clock}

	o.mu.Lock()
	o.sweepExpiredLocked()
	o.mu.Unlock()

	_, stale := o.sessions["stale"]
	assert.False(t, stale)
	_, live := o.sessions["live"]
	assert.True(t, live)
}
