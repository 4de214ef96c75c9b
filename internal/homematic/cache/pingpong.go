package cache

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

// PingPongConfig configures a PingPongCache.
type PingPongConfig struct {
	InterfaceID  string
	InstanceName string

	// AllowedDelta is the mismatch count above which a count is high.
	// It is used as given, so zero flags the first mismatch; callers
	// wanting the CCU default pass homematic.PingPongMismatchCount.
	// Negative values are rejected.
	AllowedDelta int

	// TTL is how long a timestamp is tracked. Zero selects
	// homematic.PingPongMismatchTTL; negative values are rejected.
	TTL time.Duration

	FireEvent homematic.EventFunc
	Logger    homematic.Logger
}

// PingPongCache tracks pings awaiting a pong and pongs nobody asked for.
//
// A high pending count means events from the backend are not reaching us;
// it fires PENDING_PONG interface events, and a recovery event with count 0
// once the count falls below half the delta. A high unknown count means
// another instance with the same name is pinging the same backend; it is
// only logged, once per excursion.
type PingPongCache struct {
	mu            sync.Mutex
	interfaceID   string
	instanceName  string
	allowedDelta  int
	ttl           time.Duration
	fire          homematic.EventFunc
	logger        homematic.Logger
	now           func() time.Time
	pending       map[int64]time.Time
	unknown       map[int64]time.Time
	pendingLogged bool
	unknownLogged bool
}

// NewPingPongCache creates a ping-pong cache for one interface.
func NewPingPongCache(cfg PingPongConfig) (*PingPongCache, error) {
	if cfg.TTL == 0 {
		cfg.TTL = homematic.PingPongMismatchTTL
	}
	if cfg.TTL < 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.FireEvent == nil {
		return nil, ErrNoFireEvent
	}
	if cfg.AllowedDelta < 0 {
		return nil, ErrInvalidDelta
	}
	return &PingPongCache{
		interfaceID:  cfg.InterfaceID,
		instanceName: cfg.InstanceName,
		allowedDelta: cfg.AllowedDelta,
		ttl:          cfg.TTL,
		fire:         cfg.FireEvent,
		logger:       homematic.LoggerOrNop(cfg.Logger),
		now:          time.Now,
		pending:      make(map[int64]time.Time),
		unknown:      make(map[int64]time.Time),
	}, nil
}

// SetClock replaces the time source.
func (c *PingPongCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// HandleSendPing records a sent ping.
func (c *PingPongCache) HandleSendPing(ts time.Time) {
	c.mu.Lock()
	c.pending[tsKey(ts)] = ts
	fire := c.evaluateLocked(homematic.InterfacePendingPong)
	count := len(c.pending)
	c.mu.Unlock()

	c.logger.Debug("ping pong cache: pending ping added",
		"interface_id", c.interfaceID,
		"pending", count,
		"ts", ts,
	)
	fire()
}

// HandleReceivedPong matches a pong against the pending pings. An unmatched
// pong is recorded as unknown.
func (c *PingPongCache) HandleReceivedPong(ts time.Time) {
	key := tsKey(ts)

	c.mu.Lock()
	if _, ok := c.pending[key]; ok {
		delete(c.pending, key)
		fire := c.evaluateLocked(homematic.InterfacePendingPong)
		count := len(c.pending)
		c.mu.Unlock()

		c.logger.Debug("ping pong cache: pending ping acknowledged",
			"interface_id", c.interfaceID,
			"pending", count,
			"ts", ts,
		)
		fire()
		return
	}

	c.unknown[key] = ts
	fire := c.evaluateLocked(homematic.InterfaceUnknownPong)
	count := len(c.unknown)
	c.mu.Unlock()

	c.logger.Debug("ping pong cache: unknown pong added",
		"interface_id", c.interfaceID,
		"unknown", count,
		"ts", ts,
	)
	fire()
}

// PendingPongCount returns the number of unacknowledged pings.
func (c *PingPongCache) PendingPongCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked(c.pending)
	return len(c.pending)
}

// UnknownPongCount returns the number of unsolicited pongs.
func (c *PingPongCache) UnknownPongCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked(c.unknown)
	return len(c.unknown)
}

// HighPendingPongs reports whether pending pings exceed the allowed delta.
func (c *PingPongCache) HighPendingPongs() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highLocked(c.pending)
}

// LowPendingPongs reports whether pending pings are below half the delta.
func (c *PingPongCache) LowPendingPongs() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lowLocked(c.pending)
}

// HighUnknownPongs reports whether unknown pongs exceed the allowed delta.
func (c *PingPongCache) HighUnknownPongs() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highLocked(c.unknown)
}

// LowUnknownPongs reports whether unknown pongs are below half the delta.
func (c *PingPongCache) LowUnknownPongs() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lowLocked(c.unknown)
}

// Clear forgets every timestamp and resets the warning flags.
func (c *PingPongCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = make(map[int64]time.Time)
	c.unknown = make(map[int64]time.Time)
	c.pendingLogged = false
	c.unknownLogged = false
}

// evaluateLocked applies the event policy for kind and returns the deferred
// event fire, to be called after the lock is released.
func (c *PingPongCache) evaluateLocked(kind homematic.InterfaceEventType) func() {
	set := c.pending
	if kind == homematic.InterfaceUnknownPong {
		set = c.unknown
	}

	if c.lowLocked(set) {
		if kind == homematic.InterfacePendingPong {
			c.pendingLogged = false
			return c.eventFunc(kind, 0)
		}
		c.unknownLogged = false
		return func() {}
	}

	if !c.highLocked(set) {
		return func() {}
	}

	count := len(set)
	if kind == homematic.InterfaceUnknownPong {
		if !c.unknownLogged {
			c.logger.Warn("unknown pong mismatch: pongs received that were never sent, another instance may share this instance name",
				"interface_id", c.interfaceID,
				"count", count,
			)
			c.unknownLogged = true
		}
		return func() {}
	}

	if !c.pendingLogged {
		c.logger.Warn("pending pong mismatch: pings sent without matching pongs, events from the backend may not arrive",
			"interface_id", c.interfaceID,
			"count", count,
		)
		c.pendingLogged = true
	}
	return c.eventFunc(kind, count)
}

func (c *PingPongCache) eventFunc(kind homematic.InterfaceEventType, count int) func() {
	data := map[string]any{
		homematic.EventKeyInterfaceID: c.interfaceID,
		homematic.EventKeyType:        kind,
		homematic.EventKeyData: map[string]any{
			homematic.EventKeyInstanceName:      c.instanceName,
			homematic.EventKeyPongMismatchCount: count,
		},
	}
	return func() { c.fire(homematic.EventInterface, data) }
}

func (c *PingPongCache) highLocked(set map[int64]time.Time) bool {
	c.expireLocked(set)
	return len(set) > c.allowedDelta
}

func (c *PingPongCache) lowLocked(set map[int64]time.Time) bool {
	c.expireLocked(set)
	return float64(len(set)) < float64(c.allowedDelta)/2
}

func (c *PingPongCache) expireLocked(set map[int64]time.Time) {
	now := c.now()
	for key, ts := range set {
		if now.Sub(ts) > c.ttl {
			delete(set, key)
		}
	}
}

// tsKey identifies a timestamp independent of location and monotonic clock.
// Pong timestamps are parsed back from text, so microseconds are the finest
// resolution both sides share.
func tsKey(ts time.Time) int64 {
	return ts.UnixMicro()
}
