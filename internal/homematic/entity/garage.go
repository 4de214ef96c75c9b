package entity

import "context"

// DOOR_STATE values.
const (
	DoorStateClosed      = "CLOSED"
	DoorStateOpen        = "OPEN"
	DoorStateVentilation = "VENTILATION_POSITION"
)

// DOOR_COMMAND values.
const (
	doorCommandOpen        = "OPEN"
	doorCommandStop        = "STOP"
	doorCommandClose       = "CLOSE"
	doorCommandPartialOpen = "PARTIAL_OPEN"
)

// SECTION values while the door moves.
const (
	sectionOpening = 2
	sectionClosing = 5
)

// Garage is a garage door driven through DOOR_COMMAND.
type Garage struct {
	customEntity
}

// NewGarage creates a garage door from cfg.
func NewGarage(cfg CustomConfig) (*Garage, error) {
	base, err := newCustomEntity(cfg)
	if err != nil {
		return nil, err
	}
	g := &Garage{customEntity: base}
	g.bindFields()
	return g, nil
}

// Platform returns PlatformCover.
func (g *Garage) Platform() Platform { return PlatformCover }

// DoorState returns DOOR_STATE.
func (g *Garage) DoorState() (string, bool) {
	return enumText(g.field(FieldDoorState))
}

// Position maps DOOR_STATE to open, vent or closed. ok is false for any
// other state.
func (g *Garage) Position() (position int, ok bool) {
	state, _ := g.DoorState()
	switch state {
	case DoorStateOpen:
		return PositionOpen, true
	case DoorStateVentilation:
		return PositionVent, true
	case DoorStateClosed:
		return PositionClosed, true
	}
	return 0, false
}

// IsClosed reports whether the door is closed. ok is false while the door
// state is unknown.
func (g *Garage) IsClosed() (closed bool, ok bool) {
	state, ok := g.DoorState()
	return state == DoorStateClosed, ok
}

// IsOpening reports whether SECTION shows the door opening.
func (g *Garage) IsOpening() (opening bool, ok bool) {
	section, ok := g.field(FieldSection).Int()
	return section == sectionOpening, ok
}

// IsClosing reports whether SECTION shows the door closing.
func (g *Garage) IsClosing() (closing bool, ok bool) {
	section, ok := g.field(FieldSection).Int()
	return section == sectionClosing, ok
}

// StateUncertain reports whether any readable field is uncertain.
func (g *Garage) StateUncertain() bool {
	return uncertain(g.readableFields())
}

// isStateChange reports whether moving to target would change anything.
func (g *Garage) isStateChange(target int) bool {
	if pos, ok := g.Position(); !ok || pos != target {
		return true
	}
	return g.StateUncertain()
}

func (g *Garage) command(ctx context.Context, command string, target int, col *Collector) error {
	if !g.isStateChange(target) {
		return nil
	}
	return g.field(FieldDoorCommand).SendValue(ctx, command, col)
}

// SetPosition opens the door above 50%, vents it above 10% and closes it
// otherwise. Positions outside 0..100 are ignored.
func (g *Garage) SetPosition(ctx context.Context, args CoverPositionArgs, collector *Collector) error {
	return bindCollector(ctx, g.device.backend, collector, func(col *Collector) error {
		if args.Position == nil {
			return nil
		}
		switch p := *args.Position; {
		case p > 50 && p <= 100:
			return g.command(ctx, doorCommandOpen, PositionOpen, col)
		case p > 10 && p <= 50:
			return g.command(ctx, doorCommandPartialOpen, PositionVent, col)
		case p >= 0 && p <= 10:
			return g.command(ctx, doorCommandClose, PositionClosed, col)
		}
		return nil
	})
}

// Open opens the door.
func (g *Garage) Open(ctx context.Context, collector *Collector) error {
	return bindCollector(ctx, g.device.backend, collector, func(col *Collector) error {
		return g.command(ctx, doorCommandOpen, PositionOpen, col)
	})
}

// Close closes the door.
func (g *Garage) Close(ctx context.Context, collector *Collector) error {
	return bindCollector(ctx, g.device.backend, collector, func(col *Collector) error {
		return g.command(ctx, doorCommandClose, PositionClosed, col)
	})
}

// Vent moves the door to the ventilation position.
func (g *Garage) Vent(ctx context.Context, collector *Collector) error {
	return bindCollector(ctx, g.device.backend, collector, func(col *Collector) error {
		return g.command(ctx, doorCommandPartialOpen, PositionVent, col)
	})
}

// Stop halts the door.
func (g *Garage) Stop(ctx context.Context, collector *Collector) error {
	return bindCollector(ctx, g.device.backend, collector, func(col *Collector) error {
		return g.field(FieldDoorCommand).SendValue(ctx, doorCommandStop, col)
	})
}

// State returns a snapshot of the door for publishing.
func (g *Garage) State() map[string]any {
	state := map[string]any{"uncertain": g.StateUncertain()}
	if pos, ok := g.Position(); ok {
		state["position"] = pos
	}
	if s, ok := g.DoorState(); ok {
		state["door_state"] = s
		state["closed"] = s == DoorStateClosed
	}
	if v, ok := g.IsOpening(); ok {
		state["opening"] = v
	}
	if v, ok := g.IsClosing(); ok {
		state["closing"] = v
	}
	return state
}
