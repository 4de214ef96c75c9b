package entity

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

// CoverKind selects how a cover maps positions onto LEVEL parameters.
type CoverKind int

// Cover kinds.
const (
	CoverKindShutter CoverKind = iota
	CoverKindWindowDrive
	CoverKindBlind
	CoverKindIPBlind
)

var coverKindNames = map[CoverKind]string{
	CoverKindShutter:     "shutter",
	CoverKindWindowDrive: "window_drive",
	CoverKindBlind:       "blind",
	CoverKindIPBlind:     "ip_blind",
}

// String returns the kind name.
func (k CoverKind) String() string {
	if name, ok := coverKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Levels written to LEVEL. A window drive at 0.0 stands open by a gap; it
// is locked at windowDriveClosedLevel, which lies below the declared range.
const (
	coverClosedLevel       = 0.0
	coverOpenLevel         = 1.0
	windowDriveClosedLevel = -0.005
	windowDriveGapLevel    = 0.01
)

// Cover positions in percent.
const (
	PositionOpen   = 100
	PositionVent   = 10
	PositionClosed = 0
)

// Movement reported by DIRECTION or ACTIVITY_STATE.
const (
	directionUp   = "UP"
	directionDown = "DOWN"
)

type combinedModel int

// Combined level models: none, LEVEL_COMBINED as hex bytes of the doubled
// percentage, or COMBINED_PARAMETER as "L2=<tilt>,L=<level>".
const (
	combinedNone combinedModel = iota
	combinedHex
	combinedIP
)

type coverCapabilities struct {
	closedLevel float64
	tilt        bool
	combined    combinedModel
	// moveTilt makes Open and Close drive the slats as well.
	moveTilt    bool
	windowDrive bool
}

var coverKindCapabilities = map[CoverKind]coverCapabilities{
	CoverKindShutter:     {closedLevel: coverClosedLevel},
	CoverKindWindowDrive: {closedLevel: windowDriveClosedLevel, windowDrive: true},
	CoverKindBlind:       {closedLevel: coverClosedLevel, tilt: true, combined: combinedHex},
	CoverKindIPBlind:     {closedLevel: coverClosedLevel, tilt: true, combined: combinedIP, moveTilt: true},
}

// CoverPositionArgs are the optional arguments of SetPosition. Positions are
// percentages, clamped to 0..100.
type CoverPositionArgs struct {
	Position     *int `json:"position,omitempty"`
	TiltPosition *int `json:"tilt_position,omitempty"`
}

// CoverEntity is implemented by covers and garage doors.
type CoverEntity interface {
	CustomEntity
	Open(ctx context.Context, collector *Collector) error
	Close(ctx context.Context, collector *Collector) error
	Stop(ctx context.Context, collector *Collector) error
	SetPosition(ctx context.Context, args CoverPositionArgs, collector *Collector) error
}

// coverChange is a requested movement, checked against the current state.
type coverChange struct {
	open, close         bool
	tiltOpen, tiltClose bool
	position, tilt      *int
}

// Cover is a roller shutter, blind or window drive.
type Cover struct {
	customEntity
	kind CoverKind
	caps coverCapabilities
}

// NewCover creates a cover of kind from cfg.
func NewCover(kind CoverKind, cfg CustomConfig) (*Cover, error) {
	base, err := newCustomEntity(cfg)
	if err != nil {
		return nil, err
	}
	c := &Cover{customEntity: base, kind: kind, caps: coverKindCapabilities[kind]}
	c.bindFields()
	return c, nil
}

// Kind returns the cover kind.
func (c *Cover) Kind() CoverKind { return c.kind }

// Platform returns PlatformCover.
func (c *Cover) Platform() Platform { return PlatformCover }

// HasTilt reports whether the cover has slats.
func (c *Cover) HasTilt() bool { return c.caps.tilt }

// levelOf prefers the level reported by the channel itself on primary
// entities, then the entity's own level, then closed.
func (c *Cover) levelOf(channel, own Field) float64 {
	if level, ok := c.field(channel).Float(); ok && c.usage == homematic.UsageCEPrimary {
		return level
	}
	if level, ok := c.field(own).Float(); ok {
		return level
	}
	return c.caps.closedLevel
}

func (c *Cover) channelLevel() float64 { return c.levelOf(FieldChannelLevel, FieldLevel) }

func (c *Cover) channelTiltLevel() float64 { return c.levelOf(FieldChannelLevel2, FieldLevel2) }

// Position returns the position in percent, 0 being closed.
func (c *Cover) Position() int {
	if !c.caps.windowDrive {
		return int(c.channelLevel() * 100)
	}
	level, ok := c.field(FieldLevel).Float()
	if !ok {
		level = windowDriveClosedLevel
	}
	switch level {
	case windowDriveClosedLevel:
		level = coverClosedLevel
	case coverClosedLevel:
		level = windowDriveGapLevel
	}
	return int(level * 100)
}

// TiltPosition returns the slat position in percent. ok is false for covers
// without slats.
func (c *Cover) TiltPosition() (position int, ok bool) {
	if !c.caps.tilt {
		return 0, false
	}
	return int(c.channelTiltLevel() * 100), true
}

// IsClosed reports whether the cover sits at its closed level.
func (c *Cover) IsClosed() bool {
	return c.channelLevel() == c.caps.closedLevel
}

// IsOpening reports whether the cover moves up. ok is false while the
// direction is unknown.
func (c *Cover) IsOpening() (opening bool, ok bool) {
	dir, ok := enumText(c.field(FieldDirection))
	return dir == directionUp, ok
}

// IsClosing reports whether the cover moves down.
func (c *Cover) IsClosing() (closing bool, ok bool) {
	dir, ok := enumText(c.field(FieldDirection))
	return dir == directionDown, ok
}

// ChannelOperationMode returns CHANNEL_OPERATION_MODE, e.g. SHUTTER or BLIND.
func (c *Cover) ChannelOperationMode() (string, bool) {
	return enumText(c.field(FieldChannelOperationMode))
}

// StateUncertain reports whether any readable field is uncertain.
func (c *Cover) StateUncertain() bool {
	return uncertain(c.readableFields())
}

func (c *Cover) isStateChange(ch coverChange) bool {
	level := c.channelLevel()
	if ch.open && level != coverOpenLevel {
		return true
	}
	if ch.close && level != c.caps.closedLevel {
		return true
	}
	if ch.position != nil && *ch.position != c.Position() {
		return true
	}
	if tilt, ok := c.TiltPosition(); ok {
		if ch.tilt != nil && *ch.tilt != tilt {
			return true
		}
		if ch.tiltOpen && tilt != PositionOpen {
			return true
		}
		if ch.tiltClose && tilt != PositionClosed {
			return true
		}
	}
	return c.StateUncertain()
}

// percentToLevel clamps a percentage and scales it to 0..1.
func percentToLevel(p *int) *float64 {
	if p == nil {
		return nil
	}
	level := min(100.0, max(0.0, float64(*p))) / 100
	return &level
}

// SetPosition moves the cover, and the slats of a blind, to the given
// percentages. Missing positions keep their current value.
func (c *Cover) SetPosition(ctx context.Context, args CoverPositionArgs, collector *Collector) error {
	return bindCollector(ctx, c.device.backend, collector, func(col *Collector) error {
		change := coverChange{position: args.Position}
		if c.caps.tilt {
			change.tilt = args.TiltPosition
		} else {
			args.TiltPosition = nil
		}
		if !c.isStateChange(change) {
			return nil
		}
		return c.setLevel(ctx, percentToLevel(args.Position), percentToLevel(args.TiltPosition), col)
	})
}

// Open moves the cover fully open. An IP blind opens its slats too.
func (c *Cover) Open(ctx context.Context, collector *Collector) error {
	return bindCollector(ctx, c.device.backend, collector, func(col *Collector) error {
		if !c.isStateChange(coverChange{open: true, tiltOpen: c.caps.moveTilt}) {
			return nil
		}
		return c.moveTo(ctx, coverOpenLevel, col)
	})
}

// Close moves the cover fully closed. An IP blind closes its slats too.
func (c *Cover) Close(ctx context.Context, collector *Collector) error {
	return bindCollector(ctx, c.device.backend, collector, func(col *Collector) error {
		if !c.isStateChange(coverChange{close: true, tiltClose: c.caps.moveTilt}) {
			return nil
		}
		return c.moveTo(ctx, c.caps.closedLevel, col)
	})
}

func (c *Cover) moveTo(ctx context.Context, level float64, col *Collector) error {
	var tilt *float64
	if c.caps.moveTilt {
		tilt = &level
	}
	return c.setLevel(ctx, &level, tilt, col)
}

// Stop halts any movement.
func (c *Cover) Stop(ctx context.Context, collector *Collector) error {
	return bindCollector(ctx, c.device.backend, collector, func(col *Collector) error {
		return c.field(FieldStop).SendValue(ctx, true, col)
	})
}

// OpenTilt opens the slats.
func (c *Cover) OpenTilt(ctx context.Context, collector *Collector) error {
	return c.tiltTo(ctx, coverOpenLevel, coverChange{tiltOpen: true}, collector)
}

// CloseTilt closes the slats.
func (c *Cover) CloseTilt(ctx context.Context, collector *Collector) error {
	return c.tiltTo(ctx, coverClosedLevel, coverChange{tiltClose: true}, collector)
}

// StopTilt halts the slats. STOP covers both motions.
func (c *Cover) StopTilt(ctx context.Context, collector *Collector) error {
	if !c.caps.tilt {
		return fmt.Errorf("%w: %s", ErrNoTilt, c.uniqueID)
	}
	return c.Stop(ctx, collector)
}

func (c *Cover) tiltTo(ctx context.Context, tilt float64, change coverChange, collector *Collector) error {
	if !c.caps.tilt {
		return fmt.Errorf("%w: %s", ErrNoTilt, c.uniqueID)
	}
	return bindCollector(ctx, c.device.backend, collector, func(col *Collector) error {
		if !c.isStateChange(change) {
			return nil
		}
		return c.setLevel(ctx, nil, &tilt, col)
	})
}

func (c *Cover) setLevel(ctx context.Context, level, tilt *float64, col *Collector) error {
	if !c.caps.tilt {
		return c.sendLevel(ctx, level, col)
	}

	l := float64(c.Position()) / 100
	if level != nil {
		l = *level
	}
	t := 0.0
	if tilt != nil {
		t = *tilt
	} else if pos, ok := c.TiltPosition(); ok {
		t = float64(pos) / 100
	}

	if combined, value := c.combined(l, t); combined != nil {
		return combined.SendValue(ctx, value, col)
	}
	if err := c.field(FieldLevel2).SendValue(ctx, t, col); err != nil {
		return err
	}
	return c.sendLevel(ctx, &l, col)
}

// sendLevel writes LEVEL. A window drive is locked below the declared LEVEL
// range, so its writes skip validation.
func (c *Cover) sendLevel(ctx context.Context, level *float64, col *Collector) error {
	if level == nil {
		return nil
	}
	if !c.caps.windowDrive {
		return c.field(FieldLevel).SendValue(ctx, *level, col)
	}
	wd := *level
	switch {
	case wd == coverClosedLevel:
		wd = windowDriveClosedLevel
	case wd > coverClosedLevel && wd <= windowDriveGapLevel:
		wd = coverClosedLevel
	}
	return c.field(FieldLevel).sendUnchecked(ctx, wd, col)
}

// combined returns the combined level entity and the value to write to it,
// or nil when the channel takes separate levels.
func (c *Cover) combined(level, tilt float64) (*GenericEntity, string) {
	switch c.caps.combined {
	case combinedHex:
		if e := c.field(FieldLevelCombined); e != nil {
			return e, fmt.Sprintf("0x%02x,0x%02x", int(level*100*2), int(tilt*100*2))
		}
	case combinedIP:
		if e := c.field(FieldCombinedParameter); e != nil {
			return e, fmt.Sprintf("L2=%d,L=%d", int(tilt*100), int(level*100))
		}
	}
	return nil, ""
}

// State returns a snapshot of the cover for publishing.
func (c *Cover) State() map[string]any {
	state := map[string]any{
		"position":  c.Position(),
		"closed":    c.IsClosed(),
		"uncertain": c.StateUncertain(),
	}
	if tilt, ok := c.TiltPosition(); ok {
		state["tilt_position"] = tilt
	}
	if v, ok := c.IsOpening(); ok {
		state["opening"] = v
	}
	if v, ok := c.IsClosing(); ok {
		state["closing"] = v
	}
	if mode, ok := c.ChannelOperationMode(); ok {
		state["operation_mode"] = mode
	}
	return state
}

// enumText returns an ENUM value as its value list entry, or any other
// value as text.
func enumText(e *GenericEntity) (string, bool) {
	if s, ok := e.Enum(); ok {
		return s, true
	}
	switch v := e.Value().(type) {
	case nil:
		return "", false
	case string:
		return v, true
	default:
		return fmt.Sprint(v), true
	}
}
