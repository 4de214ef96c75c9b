package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"
)

type nopBackend struct{}

func (nopBackend) InterfaceID() string { return "CentralTest-HmIP-RF" }
func (nopBackend) SetValue(context.Context, string, homematic.ParamsetKey, string, any) error {
	return nil
}
func (nopBackend) PutParamset(context.Context, string, homematic.ParamsetKey, map[string]any) error {
	return nil
}
func (nopBackend) GetValue(context.Context, string, homematic.ParamsetKey, string) (any, error) {
	return nil, nil
}

var (
	rw = homematic.OperationRead | homematic.OperationWrite | homematic.OperationEvent
	ro = homematic.OperationRead | homematic.OperationEvent
)

func desc(t homematic.ParameterType, ops homematic.Operations, values ...string) homematic.ParameterDescription {
	return homematic.ParameterDescription{Type: t, Operations: ops, Min: 0, Max: 1, ValueList: values}
}

func newDevice(t *testing.T, address, model string, params map[int][]string) *entity.Device {
	t.Helper()
	d, err := entity.NewDevice(entity.DeviceConfig{
		Address:   address,
		Model:     model,
		Interface: homematic.InterfaceHmIPRF,
		Backend:   nopBackend{},
	})
	require.NoError(t, err)
	for no, names := range params {
		ch := d.AddChannel(no)
		for _, name := range names {
			d.AddGenericEntity(ch, homematic.ParamsetValues, name, desc(homematic.TypeFloat, rw))
		}
	}
	return d
}

func TestLookup(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		model string
		want  int
	}{
		{"HmIP-BSL", 2},
		{"hmip-bsl", 2},
		{"HmIP-PS", 1},
		{"HmIP-PS-2", 1},
		{"HmIP-PCBS2", 1},
		{"HM-LC-Bl1-FM-2", 1},
		{"zel stg rm fep 230v", 1},
		{"HmIP-SWDO", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Len(t, r.Lookup(tt.model), tt.want)
		})
	}
}

func TestLookupPrefersLongestPrefix(t *testing.T) {
	r := NewRegistry()
	r.Register("HmIP-P", ipSwitch(9))
	cfgs := r.Lookup("HmIP-PSM-CH")
	require.Len(t, cfgs, 1)
	assert.Equal(t, []int{2}, cfgs[0].Channels, "HmIP-PS is longer than HmIP-P")
}

func TestBuildFixedColorLightAndSwitch(t *testing.T) {
	d := newDevice(t, "VCU3716619", "HmIP-BSL", map[int][]string{
		0: {"UNREACH"},
		3: {"STATE"},
		4: {"STATE", "ON_TIME"},
		7: {"COLOR", "LEVEL"},
		8: {"COLOR", "LEVEL", "DURATION_VALUE", "DURATION_UNIT", "RAMP_TIME_VALUE", "RAMP_TIME_UNIT"},
		9: {"COLOR", "LEVEL"},
	})

	built, err := NewRegistry().Build(d)
	require.NoError(t, err)
	require.Len(t, built, 3)
	assert.Equal(t, built, d.CustomEntities())

	sw, ok := built[0].(*entity.Switch)
	require.True(t, ok)
	assert.Equal(t, 4, sw.ChannelNo())
	assert.Equal(t, homematic.UsageCEPrimary, sw.Usage())
	assert.Equal(t, []entity.Field{entity.FieldChannelState, entity.FieldOnTimeValue, entity.FieldState}, sw.Fields())

	primary, ok := built[1].(*entity.Light)
	require.True(t, ok)
	assert.Equal(t, "vcu3716619_8", primary.UniqueID())
	assert.Equal(t, entity.KindFixedColorLight, primary.Kind())
	assert.Equal(t, homematic.UsageCEPrimary, primary.Usage())
	assert.Contains(t, primary.Fields(), entity.FieldChannelColor)
	assert.Contains(t, primary.Fields(), entity.FieldOnTimeUnit)

	secondary := built[2].(*entity.Light)
	assert.Equal(t, 9, secondary.ChannelNo())
	assert.Equal(t, homematic.UsageCESecondary, secondary.Usage())

	assert.Equal(t, homematic.UsageCEVisible, d.GenericEntity("VCU3716619:7", "COLOR").Usage())
	assert.Equal(t, homematic.UsageNoCreate, d.GenericEntity("VCU3716619:8", "LEVEL").Usage())
	assert.Equal(t, homematic.UsageNoCreate, d.GenericEntity("VCU3716619:0", "UNREACH").Usage())
	assert.True(t, d.HasCustomDefinition())
}

func TestBuildAdditionalEntities(t *testing.T) {
	d := newDevice(t, "VCU0000350", "HmIP-DRDI3", map[int][]string{
		0: {"ACTUAL_TEMPERATURE", "UNREACH"},
		4: {"LEVEL"},
		5: {"LEVEL", "ON_TIME", "RAMP_TIME"},
	})
	built, err := NewRegistry().Build(d)
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, 5, built[0].ChannelNo())
	assert.Equal(t, homematic.UsageEntity, d.GenericEntity("VCU0000350:0", "ACTUAL_TEMPERATURE").Usage())
	assert.Equal(t, homematic.UsageNoCreate, d.GenericEntity("VCU0000350:0", "UNREACH").Usage())
}

func TestBuildFixedChannel(t *testing.T) {
	d := newDevice(t, "VCU5864966", "HBW-LC-RGBWW-IN6-DR", map[int][]string{
		9:  {"LEVEL", "ON_TIME", "RAMP_TIME"},
		15: {},
	})
	d.AddGenericEntity("VCU5864966:15", homematic.ParamsetValues, "COLOR",
		homematic.ParameterDescription{Type: homematic.TypeInteger, Operations: rw, Min: 0, Max: 200})

	built, err := NewRegistry().Build(d)
	require.NoError(t, err)
	require.Len(t, built, 1)

	l := built[0].(*entity.Light)
	assert.Equal(t, entity.KindColorDimmer, l.Kind())
	d.Event("VCU5864966:15", "COLOR", 100)
	hs, ok := l.HSColor()
	require.True(t, ok)
	assert.Equal(t, entity.HSColor{Hue: 180, Saturation: 100}, hs)
}

func TestBuildRelativeFields(t *testing.T) {
	d := newDevice(t, "VCU0000115", "HM-LC-DW-WM", map[int][]string{
		1: {"LEVEL"},
		2: {"LEVEL"},
		3: {"LEVEL"},
		4: {"LEVEL"},
	})
	built, err := NewRegistry().Build(d)
	require.NoError(t, err)
	require.Len(t, built, 2, "group 5 has no channels")

	l := built[1].(*entity.Light)
	assert.Equal(t, 3, l.ChannelNo())
	assert.Equal(t, []entity.Field{entity.FieldColorLevel, entity.FieldLevel}, l.Fields())
	d.Event("VCU0000115:4", "LEVEL", 1.0)
	ct, _ := l.ColorTemp()
	assert.Equal(t, 153, ct)
}

func TestBuildUnknownModel(t *testing.T) {
	d := newDevice(t, "VCU0000001", "HmIP-SWDO", map[int][]string{1: {"STATE"}})
	built, err := NewRegistry().Build(d)
	require.NoError(t, err)
	assert.Empty(t, built)
	assert.False(t, d.HasCustomDefinition())
}

func TestBuildUnknownProfile(t *testing.T) {
	r := NewRegistry()
	r.Register("HmIP-TEST", ModelConfig{Profile: "NOPE", Platform: entity.PlatformLight, Channels: []int{1}})
	d := newDevice(t, "VCU0000001", "HmIP-TEST", map[int][]string{1: {"LEVEL"}})
	_, err := r.Build(d)
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestEveryModelNamesAKnownProfile(t *testing.T) {
	for model, cfgs := range builtinModels {
		for _, cfg := range cfgs {
			_, ok := Lookup(cfg.Profile)
			assert.True(t, ok, "%s uses %s", model, cfg.Profile)
			assert.NotEmpty(t, cfg.Channels, model)
		}
	}
}

func TestBuildIPCover(t *testing.T) {
	d := newDevice(t, "VCU8537918", "HmIP-BROLL", map[int][]string{
		3: {"LEVEL", "ACTIVITY_STATE"},
		4: {"LEVEL", "STOP"},
		5: {"LEVEL", "STOP"},
		6: {"LEVEL", "STOP"},
	})

	built, err := NewRegistry().Build(d)
	require.NoError(t, err)
	require.Len(t, built, 3)

	c, ok := built[0].(*entity.Cover)
	require.True(t, ok)
	assert.Equal(t, entity.PlatformCover, c.Platform())
	assert.Equal(t, entity.CoverKindShutter, c.Kind())
	assert.Equal(t, 4, c.ChannelNo())
	assert.Equal(t, homematic.UsageCEPrimary, c.Usage())
	assert.Equal(t, []entity.Field{entity.FieldChannelLevel, entity.FieldDirection, entity.FieldLevel, entity.FieldStop}, c.Fields())

	assert.Equal(t, homematic.UsageCESecondary, built[1].Usage())
	assert.Equal(t, 6, built[2].ChannelNo())
	assert.Equal(t, homematic.UsageCEVisible, d.GenericEntity("VCU8537918:3", "LEVEL").Usage())
	assert.Equal(t, homematic.UsageNoCreate, d.GenericEntity("VCU8537918:3", "ACTIVITY_STATE").Usage())
}

func TestBuildCoverKinds(t *testing.T) {
	tests := []struct {
		model    string
		channels map[int][]string
		want     entity.CoverKind
	}{
		{"HM-LC-JaX", map[int][]string{1: {"LEVEL", "LEVEL_SLATS", "LEVEL_COMBINED", "STOP"}}, entity.CoverKindBlind},
		{"HmIP-FBL", map[int][]string{3: {"LEVEL"}, 4: {"LEVEL", "LEVEL_2", "COMBINED_PARAMETER"}}, entity.CoverKindIPBlind},
		{"HM-LC-Bl1-FM", map[int][]string{1: {"LEVEL", "STOP"}}, entity.CoverKindShutter},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			built, err := NewRegistry().Build(newDevice(t, "VCU0000145", tt.model, tt.channels))
			require.NoError(t, err)
			require.Len(t, built, 1)
			c, ok := built[0].(*entity.Cover)
			require.True(t, ok)
			assert.Equal(t, tt.want, c.Kind())
		})
	}
}

func TestBuildWindowDrive(t *testing.T) {
	d := newDevice(t, "VCU0000350", "HM-Sec-Win", map[int][]string{
		1: {"LEVEL", "STOP", "DIRECTION", "WORKING", "ERROR"},
		2: {"LEVEL", "STATUS"},
	})

	built, err := NewRegistry().Build(d)
	require.NoError(t, err)
	require.Len(t, built, 1)
	c, ok := built[0].(*entity.Cover)
	require.True(t, ok)
	assert.Equal(t, entity.CoverKindWindowDrive, c.Kind())
	assert.Equal(t, homematic.UsageEntity, d.GenericEntity("VCU0000350:1", "WORKING").Usage())
	assert.Equal(t, homematic.UsageEntity, d.GenericEntity("VCU0000350:2", "LEVEL").Usage())
}

func TestBuildGarage(t *testing.T) {
	d := newDevice(t, "VCU3574044", "HmIP-MOD-HO", map[int][]string{
		1: {"DOOR_STATE", "DOOR_COMMAND", "SECTION", "STATE"},
	})

	built, err := NewRegistry().Build(d)
	require.NoError(t, err)
	require.Len(t, built, 1)
	g, ok := built[0].(*entity.Garage)
	require.True(t, ok)
	assert.Equal(t, entity.PlatformCover, g.Platform())
	assert.Equal(t, []entity.Field{entity.FieldDoorCommand, entity.FieldDoorState, entity.FieldSection}, g.Fields())
	assert.Equal(t, homematic.UsageCEVisible, d.GenericEntity("VCU3574044:1", "DOOR_STATE").Usage())
	assert.Equal(t, homematic.UsageEntity, d.GenericEntity("VCU3574044:1", "STATE").Usage())
}
