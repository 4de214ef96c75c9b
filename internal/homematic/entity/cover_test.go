package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

var (
	stopParam     = homematic.ParameterDescription{Type: homematic.TypeAction, Operations: wo}
	combinedParam = homematic.ParameterDescription{Type: homematic.TypeString, Operations: wo}
	activityState = enumParam(ro, "UNKNOWN", "UP", "DOWN", "STABLE")
	rfDirection   = enumParam(ro, "NONE", "UP", "DOWN", "UNDEFINED")
)

func newIPShutter(t *testing.T, usage homematic.Usage) (*fixture, *Cover) {
	t.Helper()
	f := newFixture(t, "VCU8537918", "HmIP-BROLL", channelParams{
		3: {"LEVEL": floatParam(ro, 0, 1), "ACTIVITY_STATE": activityState},
		4: {"LEVEL": lvl, "STOP": stopParam},
	})
	c, err := NewCover(CoverKindShutter, CustomConfig{
		Device:    f.device,
		ChannelNo: 4,
		Usage:     usage,
		Fields: merge(
			f.fields(4, map[Field]string{FieldLevel: "LEVEL", FieldStop: "STOP"}),
			f.fields(3, map[Field]string{FieldChannelLevel: "LEVEL", FieldDirection: "ACTIVITY_STATE"}),
		),
	})
	require.NoError(t, err)
	return f, c
}

func TestCoverShutter(t *testing.T) {
	ctx := context.Background()
	f, c := newIPShutter(t, "")
	const addr = "VCU8537918:4"

	assert.Equal(t, PlatformCover, c.Platform())
	assert.Equal(t, homematic.UsageCEPrimary, c.Usage())
	assert.Equal(t, 0, c.Position())
	assert.True(t, c.IsClosed())
	_, ok := c.TiltPosition()
	assert.False(t, ok)

	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{Position: Ptr(81)}, nil))
	assert.Equal(t, setValueCall(addr, "LEVEL", 0.81), f.backend.lastCall(t))
	assert.Equal(t, 81, c.Position())
	assert.False(t, c.IsClosed())

	require.NoError(t, c.Open(ctx, nil))
	assert.Equal(t, setValueCall(addr, "LEVEL", 1.0), f.backend.lastCall(t))
	assert.Equal(t, 100, c.Position())

	require.NoError(t, c.Close(ctx, nil))
	assert.Equal(t, setValueCall(addr, "LEVEL", 0.0), f.backend.lastCall(t))
	assert.Equal(t, 0, c.Position())

	require.NoError(t, c.Stop(ctx, nil))
	assert.Equal(t, setValueCall(addr, "STOP", true), f.backend.lastCall(t))

	_, ok = c.IsOpening()
	assert.False(t, ok, "direction unknown")
	f.event(3, "ACTIVITY_STATE", 1)
	opening, ok := c.IsOpening()
	assert.True(t, ok)
	assert.True(t, opening)
	f.event(3, "ACTIVITY_STATE", 2)
	closing, _ := c.IsClosing()
	assert.True(t, closing)
	f.event(3, "ACTIVITY_STATE", 0)

	f.event(3, "LEVEL", 0.5)
	assert.Equal(t, 50, c.Position())

	tests := []struct {
		name    string
		level   float64
		command func() error
	}{
		{"close when closed", 0.0, func() error { return c.Close(ctx, nil) }},
		{"open when open", 1.0, func() error { return c.Open(ctx, nil) }},
		{"same position", 0.4, func() error { return c.SetPosition(ctx, CoverPositionArgs{Position: Ptr(40)}, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.event(3, "LEVEL", tt.level)
			n := f.backend.callCount()
			require.NoError(t, tt.command())
			assert.Equal(t, n, f.backend.callCount())
		})
	}
}

func TestCoverClampsPosition(t *testing.T) {
	f, c := newIPShutter(t, "")

	require.NoError(t, c.SetPosition(context.Background(), CoverPositionArgs{Position: Ptr(150)}, nil))
	assert.Equal(t, setValueCall("VCU8537918:4", "LEVEL", 1.0), f.backend.lastCall(t))
}

func TestCoverSecondaryIgnoresChannelLevel(t *testing.T) {
	f, c := newIPShutter(t, homematic.UsageCESecondary)

	f.event(3, "LEVEL", 0.5)
	f.event(4, "LEVEL", 0.2)
	assert.Equal(t, 20, c.Position())
}

func TestCoverWindowDrive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "VCU0000350", "HM-Sec-Win", channelParams{
		1: {"LEVEL": lvl, "STOP": stopParam, "DIRECTION": rfDirection},
	})
	c, err := NewCover(CoverKindWindowDrive, CustomConfig{
		Device:    f.device,
		ChannelNo: 1,
		Fields:    f.fields(1, map[Field]string{FieldLevel: "LEVEL", FieldStop: "STOP", FieldDirection: "DIRECTION"}),
	})
	require.NoError(t, err)
	const addr = "VCU0000350:1"

	assert.Equal(t, 0, c.Position())
	assert.True(t, c.IsClosed())

	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{Position: Ptr(81)}, nil))
	assert.Equal(t, setValueCall(addr, "LEVEL", 0.81), f.backend.lastCall(t))
	assert.Equal(t, 81, c.Position())
	assert.False(t, c.IsClosed())

	require.NoError(t, c.Open(ctx, nil))
	assert.Equal(t, setValueCall(addr, "LEVEL", 1.0), f.backend.lastCall(t))
	assert.Equal(t, 100, c.Position())

	// Locking writes below the LEVEL range.
	require.NoError(t, c.Close(ctx, nil))
	assert.Equal(t, setValueCall(addr, "LEVEL", windowDriveClosedLevel), f.backend.lastCall(t))
	assert.Equal(t, 0, c.Position())
	assert.True(t, c.IsClosed())

	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{Position: Ptr(1)}, nil))
	assert.Equal(t, setValueCall(addr, "LEVEL", 0.0), f.backend.lastCall(t))
	assert.Equal(t, 1, c.Position())
	assert.False(t, c.IsClosed())

	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{Position: Ptr(0)}, nil))
	assert.Equal(t, setValueCall(addr, "LEVEL", windowDriveClosedLevel), f.backend.lastCall(t))
	assert.Equal(t, 0, c.Position())
	assert.True(t, c.IsClosed())
}

func newRFBlind(t *testing.T, combined bool) (*fixture, *Cover) {
	t.Helper()
	params := map[string]homematic.ParameterDescription{
		"LEVEL":       lvl,
		"LEVEL_SLATS": lvl,
		"STOP":        stopParam,
		"DIRECTION":   rfDirection,
	}
	roles := map[Field]string{
		FieldLevel:     "LEVEL",
		FieldLevel2:    "LEVEL_SLATS",
		FieldStop:      "STOP",
		FieldDirection: "DIRECTION",
	}
	if combined {
		params["LEVEL_COMBINED"] = combinedParam
		roles[FieldLevelCombined] = "LEVEL_COMBINED"
	}
	f := newFixture(t, "VCU0000145", "HM-LC-JaX", channelParams{1: params})
	c, err := NewCover(CoverKindBlind, CustomConfig{
		Device:    f.device,
		ChannelNo: 1,
		Fields:    f.fields(1, roles),
	})
	require.NoError(t, err)
	return f, c
}

func TestCoverBlindCombined(t *testing.T) {
	ctx := context.Background()
	f, c := newRFBlind(t, true)
	const addr = "VCU0000145:1"
	combined := func(v string) backendCall { return setValueCall(addr, "LEVEL_COMBINED", v) }
	tilt := func() int {
		pos, ok := c.TiltPosition()
		require.True(t, ok)
		return pos
	}

	assert.True(t, c.HasTilt())
	assert.Equal(t, 0, c.Position())
	assert.Equal(t, 0, tilt())

	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{Position: Ptr(81)}, nil))
	assert.Equal(t, combined("0xa2,0x00"), f.backend.lastCall(t))
	f.event(1, "LEVEL", 0.81)
	assert.Equal(t, 81, c.Position())
	assert.Equal(t, 0, tilt())

	require.NoError(t, c.Open(ctx, nil))
	assert.Equal(t, combined("0xc8,0x00"), f.backend.lastCall(t))
	f.event(1, "LEVEL", 1.0)

	require.NoError(t, c.Close(ctx, nil))
	assert.Equal(t, combined("0x00,0x00"), f.backend.lastCall(t))
	f.event(1, "LEVEL", 0.0)

	require.NoError(t, c.OpenTilt(ctx, nil))
	assert.Equal(t, combined("0x00,0xc8"), f.backend.lastCall(t))
	f.event(1, "LEVEL_SLATS", 1.0)
	assert.Equal(t, 0, c.Position())
	assert.Equal(t, 100, tilt())

	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{TiltPosition: Ptr(45)}, nil))
	assert.Equal(t, combined("0x00,0x5a"), f.backend.lastCall(t))
	f.event(1, "LEVEL_SLATS", 0.45)
	assert.Equal(t, 45, tilt())

	require.NoError(t, c.CloseTilt(ctx, nil))
	assert.Equal(t, combined("0x00,0x00"), f.backend.lastCall(t))
	f.event(1, "LEVEL_SLATS", 0.0)

	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{Position: Ptr(10), TiltPosition: Ptr(20)}, nil))
	assert.Equal(t, combined("0x14,0x28"), f.backend.lastCall(t))
	f.event(1, "LEVEL", 0.1)
	f.event(1, "LEVEL_SLATS", 0.2)
	assert.Equal(t, 10, c.Position())
	assert.Equal(t, 20, tilt())

	require.NoError(t, c.Stop(ctx, nil))
	assert.Equal(t, setValueCall(addr, "STOP", true), f.backend.lastCall(t))
	n := f.backend.callCount()
	require.NoError(t, c.StopTilt(ctx, nil))
	assert.Equal(t, n+1, f.backend.callCount(), "stop is never deduplicated")

	f.event(1, "LEVEL_SLATS", 1.0)
	n = f.backend.callCount()
	require.NoError(t, c.OpenTilt(ctx, nil))
	assert.Equal(t, n, f.backend.callCount())

	f.event(1, "LEVEL_SLATS", 0.4)
	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{TiltPosition: Ptr(40)}, nil))
	assert.Equal(t, n, f.backend.callCount())
}

func TestCoverBlindSeparateLevels(t *testing.T) {
	f, c := newRFBlind(t, false)

	require.NoError(t, c.SetPosition(context.Background(), CoverPositionArgs{Position: Ptr(10), TiltPosition: Ptr(20)}, nil))
	assert.Equal(t, putParamsetCall("VCU0000145:1", map[string]any{"LEVEL": 0.1, "LEVEL_SLATS": 0.2}), f.backend.lastCall(t))
	assert.Equal(t, 10, c.Position())
	tilt, _ := c.TiltPosition()
	assert.Equal(t, 20, tilt)
}

func TestCoverIPBlind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "VCU1223813", "HmIP-FBL", channelParams{
		3: {
			"LEVEL":                  floatParam(ro, 0, 1),
			"LEVEL_2":                floatParam(ro, 0, 1),
			"ACTIVITY_STATE":         activityState,
			"CHANNEL_OPERATION_MODE": enumParam(ro, "SHUTTER", "BLIND"),
		},
		4: {"LEVEL": lvl, "LEVEL_2": lvl, "STOP": stopParam, "COMBINED_PARAMETER": combinedParam},
	})
	c, err := NewCover(CoverKindIPBlind, CustomConfig{
		Device:    f.device,
		ChannelNo: 4,
		Fields: merge(
			f.fields(4, map[Field]string{
				FieldLevel:             "LEVEL",
				FieldLevel2:            "LEVEL_2",
				FieldStop:              "STOP",
				FieldCombinedParameter: "COMBINED_PARAMETER",
			}),
			f.fields(3, map[Field]string{
				FieldChannelLevel:         "LEVEL",
				FieldChannelLevel2:        "LEVEL_2",
				FieldDirection:            "ACTIVITY_STATE",
				FieldChannelOperationMode: "CHANNEL_OPERATION_MODE",
			}),
		),
	})
	require.NoError(t, err)
	const addr = "VCU1223813:4"
	combined := func(v string) backendCall { return setValueCall(addr, "COMBINED_PARAMETER", v) }
	levels := func(level, tilt float64) {
		f.event(4, "LEVEL", level)
		f.event(4, "LEVEL_2", tilt)
	}

	f.event(3, "CHANNEL_OPERATION_MODE", "BLIND")
	mode, ok := c.ChannelOperationMode()
	require.True(t, ok)
	assert.Equal(t, "BLIND", mode)

	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{Position: Ptr(81)}, nil))
	assert.Equal(t, combined("L2=0,L=81"), f.backend.lastCall(t))
	levels(0.81, 0)

	// Open and close move the slats too.
	require.NoError(t, c.Open(ctx, nil))
	assert.Equal(t, combined("L2=100,L=100"), f.backend.lastCall(t))
	levels(1, 1)
	assert.Equal(t, 100, c.Position())

	require.NoError(t, c.Close(ctx, nil))
	assert.Equal(t, combined("L2=0,L=0"), f.backend.lastCall(t))
	levels(0, 0)

	require.NoError(t, c.OpenTilt(ctx, nil))
	assert.Equal(t, combined("L2=100,L=0"), f.backend.lastCall(t))
	levels(0, 1)

	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{TiltPosition: Ptr(45)}, nil))
	assert.Equal(t, combined("L2=45,L=0"), f.backend.lastCall(t))
	levels(0, 0.45)

	require.NoError(t, c.CloseTilt(ctx, nil))
	assert.Equal(t, combined("L2=0,L=0"), f.backend.lastCall(t))
	levels(0, 0)

	require.NoError(t, c.SetPosition(ctx, CoverPositionArgs{Position: Ptr(10), TiltPosition: Ptr(20)}, nil))
	assert.Equal(t, combined("L2=20,L=10"), f.backend.lastCall(t))

	// The channel's own levels win on the primary entity.
	f.event(3, "LEVEL", 0.5)
	f.event(3, "LEVEL_2", 0.8)
	assert.Equal(t, 50, c.Position())
	tilt, _ := c.TiltPosition()
	assert.Equal(t, 80, tilt)

	state := c.State()
	assert.Equal(t, 50, state["position"])
	assert.Equal(t, 80, state["tilt_position"])
	assert.Equal(t, "BLIND", state["operation_mode"])
}

func TestCoverTiltWithoutSlats(t *testing.T) {
	_, c := newIPShutter(t, "")
	assert.ErrorIs(t, c.OpenTilt(context.Background(), nil), ErrNoTilt)
	assert.ErrorIs(t, c.StopTilt(context.Background(), nil), ErrNoTilt)
}

func TestCoverRequiresDevice(t *testing.T) {
	_, err := NewCover(CoverKindShutter, CustomConfig{})
	assert.ErrorIs(t, err, ErrNoDevice)
	_, err = NewGarage(CustomConfig{})
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestCoverKindString(t *testing.T) {
	assert.Equal(t, "ip_blind", CoverKindIPBlind.String())
	assert.Equal(t, "unknown", CoverKind(99).String())
}

func newGarage(t *testing.T) (*fixture, *Garage) {
	t.Helper()
	f := newFixture(t, "VCU3574044", "HmIP-MOD-HO", channelParams{
		1: {
			"DOOR_STATE":   enumParam(ro, "CLOSED", "OPEN", "VENTILATION_POSITION", "POSITION_UNKNOWN"),
			"DOOR_COMMAND": enumParam(wo, "NOP", "OPEN", "STOP", "CLOSE", "PARTIAL_OPEN"),
			"SECTION":      homematic.ParameterDescription{Type: homematic.TypeInteger, Operations: ro, Min: 0, Max: 15},
		},
	})
	g, err := NewGarage(CustomConfig{
		Device:    f.device,
		ChannelNo: 1,
		Fields: f.fields(1, map[Field]string{
			FieldDoorState:   "DOOR_STATE",
			FieldDoorCommand: "DOOR_COMMAND",
			FieldSection:     "SECTION",
		}),
	})
	require.NoError(t, err)
	return f, g
}

func TestGarage(t *testing.T) {
	ctx := context.Background()
	f, g := newGarage(t)
	const addr = "VCU3574044:1"
	command := func(v int) backendCall { return setValueCall(addr, "DOOR_COMMAND", v) }

	assert.Equal(t, PlatformCover, g.Platform())
	_, ok := g.Position()
	assert.False(t, ok)

	require.NoError(t, g.SetPosition(ctx, CoverPositionArgs{Position: Ptr(81)}, nil))
	assert.Equal(t, command(1), f.backend.lastCall(t))
	f.event(1, "DOOR_STATE", 1)
	pos, ok := g.Position()
	require.True(t, ok)
	assert.Equal(t, PositionOpen, pos)

	require.NoError(t, g.Close(ctx, nil))
	assert.Equal(t, command(3), f.backend.lastCall(t))
	f.event(1, "DOOR_STATE", 0)
	closed, ok := g.IsClosed()
	assert.True(t, ok)
	assert.True(t, closed)

	require.NoError(t, g.SetPosition(ctx, CoverPositionArgs{Position: Ptr(11)}, nil))
	assert.Equal(t, command(4), f.backend.lastCall(t))
	f.event(1, "DOOR_STATE", 2)
	pos, _ = g.Position()
	assert.Equal(t, PositionVent, pos)

	require.NoError(t, g.SetPosition(ctx, CoverPositionArgs{Position: Ptr(5)}, nil))
	assert.Equal(t, command(3), f.backend.lastCall(t))
	f.event(1, "DOOR_STATE", 0)

	require.NoError(t, g.Open(ctx, nil))
	assert.Equal(t, command(1), f.backend.lastCall(t))
	require.NoError(t, g.Stop(ctx, nil))
	assert.Equal(t, command(2), f.backend.lastCall(t))

	f.event(1, "SECTION", sectionOpening)
	opening, _ := g.IsOpening()
	assert.True(t, opening)
	f.event(1, "SECTION", sectionClosing)
	closing, _ := g.IsClosing()
	assert.True(t, closing)
	f.event(1, "SECTION", nil)
	_, ok = g.IsOpening()
	assert.False(t, ok)
	f.event(1, "DOOR_STATE", nil)
	_, ok = g.IsClosed()
	assert.False(t, ok)
	assert.NotContains(t, g.State(), "position")
}

func TestGarageSkipsCurrentPosition(t *testing.T) {
	ctx := context.Background()
	f, g := newGarage(t)

	tests := []struct {
		name    string
		state   int
		command func() error
	}{
		{"close when closed", 0, func() error { return g.Close(ctx, nil) }},
		{"open when open", 1, func() error { return g.Open(ctx, nil) }},
		{"vent when vented", 2, func() error { return g.Vent(ctx, nil) }},
		{"out of range", 1, func() error { return g.SetPosition(ctx, CoverPositionArgs{Position: Ptr(120)}, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.event(1, "DOOR_STATE", tt.state)
			n := f.backend.callCount()
			require.NoError(t, tt.command())
			assert.Equal(t, n, f.backend.callCount())
		})
	}
}
