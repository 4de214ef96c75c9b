package entity

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

// Field names a role a parameter plays in a custom entity.
type Field string

// Fields used by custom entities.
const (
	FieldChannelColor         Field = "channel_color"
	FieldChannelLevel         Field = "channel_level"
	FieldChannelLevel2        Field = "channel_level_2"
	FieldChannelOperationMode Field = "channel_operation_mode"
	FieldChannelState         Field = "channel_state"
	FieldColor                Field = "color"
	FieldColorBehaviour       Field = "color_behaviour"
	FieldColorLevel           Field = "color_level"
	FieldColorTemperature     Field = "color_temperature"
	FieldCombinedParameter    Field = "combined_parameter"
	FieldDeviceOperation      Field = "device_operation_mode"
	FieldDirection            Field = "direction"
	FieldDoorCommand          Field = "door_command"
	FieldDoorState            Field = "door_state"
	FieldEffect               Field = "effect"
	FieldHue                  Field = "hue"
	FieldLevel                Field = "level"
	FieldLevel2               Field = "level_2"
	FieldLevelCombined        Field = "level_combined"
	FieldOnTimeUnit           Field = "on_time_unit"
	FieldOnTimeValue          Field = "on_time_value"
	FieldProgram              Field = "program"
	FieldRampTimeToOffUnit    Field = "ramp_time_to_off_unit"
	FieldRampTimeToOffVal     Field = "ramp_time_to_off_value"
	FieldRampTimeUnit         Field = "ramp_time_unit"
	FieldRampTimeValue        Field = "ramp_time_value"
	FieldSaturation           Field = "saturation"
	FieldSection              Field = "section"
	FieldState                Field = "state"
	FieldStop                 Field = "stop"
)

// ErrNoDevice is returned when a custom entity is created without a device.
var ErrNoDevice = errors.New("entity: custom entity device is required")

// CustomConfig describes a custom entity to create. Fields maps each role
// to its resolved generic entity; roles the device lacks are left out.
type CustomConfig struct {
	Device    *Device
	ChannelNo int
	Usage     homematic.Usage
	Fields    map[Field]*GenericEntity
}

// customEntity is the state shared by custom entities.
type customEntity struct {
	mu             sync.RWMutex
	device         *Device
	uniqueID       string
	channelAddress string
	channelNo      int
	usage          homematic.Usage
	fields         map[Field]*GenericEntity
	onTime         *OnTime
	callbacks      []func()
}

func newCustomEntity(cfg CustomConfig) (customEntity, error) {
	if cfg.Device == nil {
		return customEntity{}, ErrNoDevice
	}
	address := homematic.ChannelAddress(cfg.Device.Address(), cfg.ChannelNo)
	usage := cfg.Usage
	if usage == "" {
		usage = homematic.UsageCEPrimary
	}
	fields := make(map[Field]*GenericEntity, len(cfg.Fields))
	for f, e := range cfg.Fields {
		if e != nil {
			fields[f] = e
		}
	}
	return customEntity{
		device:         cfg.Device,
		uniqueID:       GenerateUniqueID(address, ""),
		channelAddress: address,
		channelNo:      cfg.ChannelNo,
		usage:          usage,
		fields:         fields,
		onTime:         NewOnTime(cfg.Device.now),
	}, nil
}

// bindFields forwards field updates to the entity callbacks. It must run
// once the entity has its final address.
func (c *customEntity) bindFields() {
	for _, e := range c.fields {
		e.OnUpdate(c.fireUpdate)
	}
}

func (c *customEntity) fireUpdate() {
	c.mu.RLock()
	callbacks := append([]func(){}, c.callbacks...)
	c.mu.RUnlock()
	for _, fn := range callbacks {
		fn()
	}
}

// field returns the entity behind f, or nil.
func (c *customEntity) field(f Field) *GenericEntity {
	return c.fields[f]
}

// UniqueID returns the entity id, derived from the channel address.
func (c *customEntity) UniqueID() string { return c.uniqueID }

// Name returns the channel name.
func (c *customEntity) Name() string { return c.device.ChannelName(c.channelAddress) }

// ChannelNo returns the channel number.
func (c *customEntity) ChannelNo() int { return c.channelNo }

// ChannelAddress returns the channel address.
func (c *customEntity) ChannelAddress() string { return c.channelAddress }

// Device returns the device the entity belongs to.
func (c *customEntity) Device() *Device { return c.device }

// Usage returns how the entity should be exposed.
func (c *customEntity) Usage() homematic.Usage { return c.usage }

// Fields returns the roles the entity has, sorted.
func (c *customEntity) Fields() []Field {
	out := make([]Field, 0, len(c.fields))
	for f := range c.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// OnUpdate registers a callback fired when any field updates.
func (c *customEntity) OnUpdate(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.callbacks = append(c.callbacks, fn)
	c.mu.Unlock()
}

// SetOnTime stores an on-time used by the next turn-on without one.
func (c *customEntity) SetOnTime(seconds float64) {
	c.onTime.Set(seconds)
}

// readableFields returns the readable field entities.
func (c *customEntity) readableFields() []*GenericEntity {
	out := make([]*GenericEntity, 0, len(c.fields))
	for _, f := range c.Fields() {
		if e := c.fields[f]; e.Readable() {
			out = append(out, e)
		}
	}
	return out
}

// uncertain reports whether any of entities is uncertain.
func uncertain(entities []*GenericEntity) bool {
	for _, e := range entities {
		if e.StateUncertain() {
			return true
		}
	}
	return false
}

// LoadEntityValue loads every readable field.
func (c *customEntity) LoadEntityValue(ctx context.Context) error {
	var errs []error
	for _, e := range c.readableFields() {
		if err := e.LoadEntityValue(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
