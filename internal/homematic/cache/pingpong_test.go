package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

type firedEvent struct {
	eventType homematic.EventType
	data      map[string]any
}

type eventRecorder struct {
	mu     sync.Mutex
	events []firedEvent
}

func (r *eventRecorder) fire(eventType homematic.EventType, data map[string]any) {
	r.mu.Lock()
	r.events = append(r.events, firedEvent{eventType: eventType, data: data})
	r.mu.Unlock()
}

func (r *eventRecorder) all() []firedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]firedEvent(nil), r.events...)
}

func mismatchCount(t *testing.T, e firedEvent) int {
	t.Helper()
	data, ok := e.data[homematic.EventKeyData].(map[string]any)
	require.True(t, ok)
	count, ok := data[homematic.EventKeyPongMismatchCount].(int)
	require.True(t, ok)
	return count
}

func newPingPong(t *testing.T, delta int) (*PingPongCache, *eventRecorder, *recordingLogger, *fakeClock) {
	t.Helper()
	rec := &eventRecorder{}
	log := &recordingLogger{}
	c, err := NewPingPongCache(PingPongConfig{
		InterfaceID:  "ccu-HmIP-RF",
		InstanceName: "ccu",
		AllowedDelta: delta,
		TTL:          homematic.PingPongMismatchTTL,
		FireEvent:    rec.fire,
		Logger:       log,
	})
	require.NoError(t, err)
	clock := newFakeClock()
	c.SetClock(clock.Now)
	return c, rec, log, clock
}

func TestNewPingPongCache_Validation(t *testing.T) {
	noop := func(homematic.EventType, map[string]any) {}

	_, err := NewPingPongCache(PingPongConfig{TTL: -time.Second, FireEvent: noop})
	assert.ErrorIs(t, err, ErrInvalidTTL)

	_, err = NewPingPongCache(PingPongConfig{AllowedDelta: -1, FireEvent: noop})
	assert.ErrorIs(t, err, ErrInvalidDelta)

	_, err = NewPingPongCache(PingPongConfig{})
	assert.ErrorIs(t, err, ErrNoFireEvent)

	c, err := NewPingPongCache(PingPongConfig{FireEvent: noop})
	require.NoError(t, err)
	assert.Equal(t, 0, c.allowedDelta, "delta is used as given")
	assert.Equal(t, homematic.PingPongMismatchTTL, c.ttl)
}

func TestPingPongCache_ZeroDelta(t *testing.T) {
	c, rec, log, clock := newPingPong(t, 0)

	c.HandleSendPing(clock.Now())
	assert.True(t, c.HighPendingPongs(), "first mismatch is high with a zero delta")
	assert.False(t, c.LowPendingPongs())
	assert.Equal(t, 1, log.warnCount())

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, 1, mismatchCount(t, events[0]))
}

func TestPingPongCache_MatchedPongs(t *testing.T) {
	c, _, _, clock := newPingPong(t, 15)

	var sent []time.Time
	for i := 0; i < 5; i++ {
		ts := clock.Now()
		sent = append(sent, ts)
		c.HandleSendPing(ts)
		clock.Advance(time.Second)
	}
	assert.Equal(t, 5, c.PendingPongCount())

	for _, ts := range sent {
		c.HandleReceivedPong(ts)
	}
	assert.Equal(t, 0, c.PendingPongCount())
	assert.Equal(t, 0, c.UnknownPongCount())
}

func TestPingPongCache_ParsedPongMatches(t *testing.T) {
	c, _, _, _ := newPingPong(t, 15)

	ping := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.Local)
	c.HandleSendPing(ping)

	parsed, err := time.ParseInLocation(homematic.PingTimestampFormat, ping.Format(homematic.PingTimestampFormat), time.Local)
	require.NoError(t, err)
	c.HandleReceivedPong(parsed)

	assert.Equal(t, 0, c.PendingPongCount())
	assert.Equal(t, 0, c.UnknownPongCount())
}

func TestPingPongCache_UnknownPong(t *testing.T) {
	c, _, _, clock := newPingPong(t, 15)

	c.HandleReceivedPong(clock.Now())
	assert.Equal(t, 1, c.UnknownPongCount())
	assert.Equal(t, 0, c.PendingPongCount())
}

func TestPingPongCache_TTLExpiry(t *testing.T) {
	c, _, _, clock := newPingPong(t, 15)

	c.HandleSendPing(clock.Now())
	c.HandleReceivedPong(clock.Now().Add(-time.Hour))
	clock.Advance(homematic.PingPongMismatchTTL)
	assert.Equal(t, 1, c.PendingPongCount(), "entry at exactly ttl is kept")

	clock.Advance(time.Second)
	assert.Equal(t, 0, c.PendingPongCount())
	assert.Equal(t, 0, c.UnknownPongCount())
	assert.True(t, c.LowPendingPongs())
}

func TestPingPongCache_PendingThreshold(t *testing.T) {
	const delta = 4
	c, rec, log, clock := newPingPong(t, delta)

	var sent []time.Time
	for i := 0; i < delta+1; i++ {
		ts := clock.Now()
		sent = append(sent, ts)
		c.HandleSendPing(ts)
		clock.Advance(time.Second)
	}

	assert.True(t, c.HighPendingPongs())
	assert.False(t, c.LowPendingPongs())
	assert.Equal(t, 1, log.warnCount())

	events := rec.all()
	// Counts 1 is low (< 2) and fires a recovery event; 2..4 are in band;
	// 5 is high.
	require.Len(t, events, 2)
	assert.Equal(t, 0, mismatchCount(t, events[0]))
	last := events[len(events)-1]
	assert.Equal(t, homematic.EventInterface, last.eventType)
	assert.Equal(t, homematic.InterfacePendingPong, last.data[homematic.EventKeyType])
	assert.Equal(t, "ccu-HmIP-RF", last.data[homematic.EventKeyInterfaceID])
	assert.Equal(t, delta+1, mismatchCount(t, last))

	// Another ping while high fires again but does not warn again.
	c.HandleSendPing(clock.Now())
	assert.Len(t, rec.all(), 3)
	assert.Equal(t, 1, log.warnCount())

	// Acknowledge until the count drops below delta/2.
	for _, ts := range sent {
		c.HandleReceivedPong(ts)
	}
	events = rec.all()
	last = events[len(events)-1]
	assert.Equal(t, 0, mismatchCount(t, last))
	assert.False(t, c.pendingLogged)
	assert.True(t, c.LowPendingPongs())
}

func TestPingPongCache_UnknownThreshold(t *testing.T) {
	const delta = 3
	c, rec, log, clock := newPingPong(t, delta)

	for i := 0; i < 2*delta; i++ {
		c.HandleReceivedPong(clock.Now())
		clock.Advance(time.Second)
	}

	assert.True(t, c.HighUnknownPongs())
	assert.Equal(t, 2*delta, c.UnknownPongCount())
	assert.Equal(t, 1, log.warnCount(), "warned once per excursion")
	assert.True(t, c.unknownLogged)
	assert.Empty(t, rec.all(), "unknown pongs are logged, never fired")

	// Recovery clears the flag and fires nothing either.
	clock.Advance(homematic.PingPongMismatchTTL + time.Second)
	c.HandleReceivedPong(clock.Now())
	assert.False(t, c.unknownLogged)
	assert.Empty(t, rec.all())

	// A second excursion warns again.
	for i := 0; i < delta; i++ {
		c.HandleReceivedPong(clock.Now())
		clock.Advance(time.Second)
	}
	assert.Equal(t, 2, log.warnCount())
	assert.Empty(t, rec.all())
}

func TestPingPongCache_Clear(t *testing.T) {
	c, _, _, clock := newPingPong(t, 1)
	c.HandleSendPing(clock.Now())
	clock.Advance(time.Millisecond)
	c.HandleSendPing(clock.Now())
	c.HandleReceivedPong(clock.Now().Add(time.Hour))
	require.True(t, c.pendingLogged)

	c.Clear()
	assert.Equal(t, 0, c.PendingPongCount())
	assert.Equal(t, 0, c.UnknownPongCount())
	assert.False(t, c.pendingLogged)
	assert.False(t, c.unknownLogged)
}
