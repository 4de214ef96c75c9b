package entity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/cache"
)

// DefaultOrder is the collector order used when a write has no ordering need.
const DefaultOrder = 50

// GenericEntity is a single parameter of a single channel.
//
// A nil *GenericEntity stands for a field the device does not have: its
// accessors return zero values and writes are dropped.
type GenericEntity struct {
	mu             sync.RWMutex
	device         *Device
	uniqueID       string
	channelAddress string
	channelNo      int
	paramsetKey    homematic.ParamsetKey
	parameter      string
	desc           homematic.ParameterDescription
	usage          homematic.Usage
	value          any
	lastUpdated    time.Time
	lastRefreshed  time.Time
	stateUncertain bool
	callbacks      []func()
}

func newGenericEntity(d *Device, channelAddress string, key homematic.ParamsetKey, parameter string, desc homematic.ParameterDescription) *GenericEntity {
	no, _ := homematic.ChannelNo(channelAddress)
	return &GenericEntity{
		device:         d,
		uniqueID:       GenerateUniqueID(channelAddress, parameter),
		channelAddress: channelAddress,
		channelNo:      no,
		paramsetKey:    key,
		parameter:      parameter,
		desc:           desc,
		usage:          homematic.UsageEntity,
		stateUncertain: true,
	}
}

// GenerateUniqueID builds a lower-case id from an address and optional
// parameter, e.g. "vcu0000001_3_level".
func GenerateUniqueID(address, parameter string) string {
	id := strings.ReplaceAll(address, ":", "_")
	if parameter != "" {
		id += "_" + parameter
	}
	return strings.ToLower(id)
}

// UniqueID returns the entity id.
func (g *GenericEntity) UniqueID() string { return g.uniqueID }

// ChannelAddress returns the address of the channel the parameter lives on.
func (g *GenericEntity) ChannelAddress() string { return g.channelAddress }

// ChannelNo returns the channel number.
func (g *GenericEntity) ChannelNo() int { return g.channelNo }

// Parameter returns the parameter name.
func (g *GenericEntity) Parameter() string { return g.parameter }

// ParamsetKey returns the paramset the parameter belongs to.
func (g *GenericEntity) ParamsetKey() homematic.ParamsetKey { return g.paramsetKey }

// Description returns the parameter description.
func (g *GenericEntity) Description() homematic.ParameterDescription { return g.desc }

// Usage returns how the entity should be exposed.
func (g *GenericEntity) Usage() homematic.Usage {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.usage
}

// SetUsage overrides the usage.
func (g *GenericEntity) SetUsage(u homematic.Usage) {
	g.mu.Lock()
	g.usage = u
	g.mu.Unlock()
}

// Readable reports whether the value can be loaded from the backend.
func (g *GenericEntity) Readable() bool {
	return g != nil && g.desc.Readable()
}

// Writable reports whether the value can be written.
func (g *GenericEntity) Writable() bool {
	return g != nil && g.desc.Writable()
}

// Value returns the current value, converted to the parameter type.
func (g *GenericEntity) Value() any {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Float returns the value as float64.
func (g *GenericEntity) Float() (float64, bool) {
	v := g.Value()
	if v == nil {
		return 0, false
	}
	f, err := toFloat(v)
	return f, err == nil
}

// Int returns the value as int.
func (g *GenericEntity) Int() (int, bool) {
	f, ok := g.Float()
	return int(f), ok
}

// Bool returns the value as bool.
func (g *GenericEntity) Bool() (bool, bool) {
	b, ok := g.Value().(bool)
	return b, ok
}

// Enum returns the value list entry of an ENUM value.
func (g *GenericEntity) Enum() (string, bool) {
	idx, ok := g.Value().(int)
	if !ok || idx < 0 || idx >= len(g.desc.ValueList) {
		return "", false
	}
	return g.desc.ValueList[idx], true
}

// ValueList returns the value list of an ENUM parameter.
func (g *GenericEntity) ValueList() []string {
	if g == nil {
		return nil
	}
	return g.desc.ValueList
}

// StateUncertain reports whether the value may not match the backend.
// A missing entity is never uncertain.
func (g *GenericEntity) StateUncertain() bool {
	if g == nil {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stateUncertain
}

// LastUpdated returns when the value last changed through an event or load.
func (g *GenericEntity) LastUpdated() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastUpdated
}

// LastRefreshed returns when the value was last confirmed.
func (g *GenericEntity) LastRefreshed() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastRefreshed
}

// OnUpdate registers a callback fired after every value update.
func (g *GenericEntity) OnUpdate(fn func()) {
	if g == nil || fn == nil {
		return
	}
	g.mu.Lock()
	g.callbacks = append(g.callbacks, fn)
	g.mu.Unlock()
}

// Event applies a value pushed by the backend.
func (g *GenericEntity) Event(value any) {
	g.update(value, true)
}

// LoadEntityValue reads the value through the device value cache. It does
// nothing for unreadable parameters or values refreshed within MaxCacheAge.
func (g *GenericEntity) LoadEntityValue(ctx context.Context) error {
	if !g.Readable() {
		return nil
	}
	if cache.ChangedWithin(g.LastRefreshed(), homematic.MaxCacheAge, g.device.now()) {
		return nil
	}
	value, found, err := g.device.getValue(ctx, g.channelAddress, g.paramsetKey, g.parameter)
	if err != nil {
		return fmt.Errorf("loading %s: %w", g.uniqueID, err)
	}
	g.update(value, found)
	return nil
}

func (g *GenericEntity) update(value any, found bool) {
	g.mu.Lock()
	if !found {
		// A value we once had is gone: keep it but flag it.
		if g.lastRefreshed.IsZero() {
			g.mu.Unlock()
			return
		}
		g.stateUncertain = true
	} else {
		converted, err := convertValue(g.desc, value)
		if err != nil {
			g.mu.Unlock()
			g.device.logger.Debug("dropping unconvertible value",
				"entity", g.uniqueID,
				"value", value,
				"error", err,
			)
			return
		}
		now := g.device.now()
		g.value = converted
		g.stateUncertain = false
		g.lastUpdated = now
		g.lastRefreshed = now
	}
	callbacks := append([]func(){}, g.callbacks...)
	g.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// IsStateChange reports whether writing value would change anything.
func (g *GenericEntity) IsStateChange(value any) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return value != g.value || g.stateUncertain
}

// SendValue writes value with the default collector order.
func (g *GenericEntity) SendValue(ctx context.Context, value any, collector *Collector) error {
	return g.SendValueOrdered(ctx, value, collector, DefaultOrder)
}

// SendValueOrdered writes value, or queues it on collector under order.
//
// Values that fail conversion or range validation are logged and dropped:
// nothing is written and the current value is left untouched. Without a
// collector an unchanged value is not written.
func (g *GenericEntity) SendValueOrdered(ctx context.Context, value any, collector *Collector, order int) error {
	return g.send(ctx, value, collector, order, true)
}

// sendUnchecked writes value without range validation.
func (g *GenericEntity) sendUnchecked(ctx context.Context, value any, collector *Collector) error {
	return g.send(ctx, value, collector, DefaultOrder, false)
}

func (g *GenericEntity) send(ctx context.Context, value any, collector *Collector, order int, check bool) error {
	if g == nil {
		return nil
	}
	if !g.desc.Writable() {
		g.device.logger.Error("writing to non-writable entity is not possible",
			"entity", g.uniqueID,
			"error", ErrNotWritable,
		)
		return nil
	}

	converted, err := convertValue(g.desc, value)
	if err == nil && check {
		err = validate(g.desc, converted)
	}
	if err != nil {
		g.device.logger.Warn("rejected value",
			"entity", g.uniqueID,
			"value", value,
			"error", err,
		)
		return nil
	}

	if collector != nil {
		collector.Add(g, converted, order)
		return nil
	}
	if !g.IsStateChange(converted) {
		return nil
	}
	if err := g.device.backend.SetValue(ctx, g.channelAddress, g.paramsetKey, g.parameter, converted); err != nil {
		return fmt.Errorf("setting %s: %w", g.uniqueID, err)
	}
	return nil
}
