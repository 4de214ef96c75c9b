package entity

import "context"

// Switch is a switch actuator channel.
type Switch struct {
	customEntity
}

// NewSwitch creates a switch from cfg.
func NewSwitch(cfg CustomConfig) (*Switch, error) {
	base, err := newCustomEntity(cfg)
	if err != nil {
		return nil, err
	}
	s := &Switch{customEntity: base}
	s.bindFields()
	return s, nil
}

// Platform returns PlatformSwitch.
func (s *Switch) Platform() Platform { return PlatformSwitch }

// Value returns STATE. ok is false until a value is known.
func (s *Switch) Value() (on bool, ok bool) {
	return s.field(FieldState).Bool()
}

// IsOn reports whether STATE is true.
func (s *Switch) IsOn() bool {
	on, _ := s.Value()
	return on
}

// ChannelValue returns the state reported by the channel itself.
func (s *Switch) ChannelValue() (bool, bool) {
	return s.field(FieldChannelState).Bool()
}

// StateUncertain reports whether any readable field is uncertain.
func (s *Switch) StateUncertain() bool {
	return uncertain(s.readableFields())
}

// IsOnStateChange reports whether TurnOn would change anything.
func (s *Switch) IsOnStateChange(onTime *float64) bool {
	if onTime != nil {
		return true
	}
	if on, ok := s.Value(); !ok || !on {
		return true
	}
	return s.StateUncertain()
}

// IsOffStateChange reports whether TurnOff would change anything.
func (s *Switch) IsOffStateChange() bool {
	if on, ok := s.Value(); !ok || on {
		return true
	}
	return s.StateUncertain()
}

// TurnOn switches on, for onTime seconds when given or when an on-time was
// set just before.
func (s *Switch) TurnOn(ctx context.Context, onTime *float64, collector *Collector) error {
	return bindCollector(ctx, s.device.backend, collector, func(c *Collector) error {
		if !s.IsOnStateChange(onTime) {
			return nil
		}
		seconds, ok := 0.0, onTime != nil
		if ok {
			seconds = *onTime
		} else {
			seconds, ok = s.onTime.TakeAndClear()
			ok = ok && seconds != 0
		}
		if ok {
			if err := s.field(FieldOnTimeValue).SendValue(ctx, seconds, c); err != nil {
				return err
			}
		}
		return s.field(FieldState).SendValue(ctx, true, c)
	})
}

// TurnOff switches off.
func (s *Switch) TurnOff(ctx context.Context, collector *Collector) error {
	return bindCollector(ctx, s.device.backend, collector, func(c *Collector) error {
		if !s.IsOffStateChange() {
			return nil
		}
		return s.field(FieldState).SendValue(ctx, false, c)
	})
}

// State returns a snapshot of the switch for publishing.
func (s *Switch) State() map[string]any {
	state := map[string]any{
		"on":        s.IsOn(),
		"uncertain": s.StateUncertain(),
	}
	if v, ok := s.ChannelValue(); ok {
		state["channel_on"] = v
	}
	return state
}
