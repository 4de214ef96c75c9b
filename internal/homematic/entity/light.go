package entity

import (
	"context"
	"slices"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

// Kind selects the parameter layout and colour model of a light.
type Kind int

// Light kinds.
const (
	KindDimmer Kind = iota
	KindColorDimmer
	KindColorDimmerEffect
	KindColorTempDimmer
	KindFixedColorLight
	KindFixedColorLightWired
	KindRGBWLight
)

var kindNames = map[Kind]string{
	KindDimmer:               "dimmer",
	KindColorDimmer:          "color_dimmer",
	KindColorDimmerEffect:    "color_dimmer_effect",
	KindColorTempDimmer:      "color_temp_dimmer",
	KindFixedColorLight:      "fixed_color_light",
	KindFixedColorLightWired: "fixed_color_light_wired",
	KindRGBWLight:            "rgbw_light",
}

// String returns the kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

type colorModel int

// Colour models: COLOR code 0..200, COLOR enum of FixedColor, or HUE plus
// SATURATION.
const (
	colorNone colorModel = iota
	colorCode
	colorFixed
	colorHueSat
)

type tempModel int

// Colour temperature models: COLOR_LEVEL 0..1 or COLOR_TEMPERATURE in
// Kelvin.
const (
	tempNone tempModel = iota
	tempColorLevel
	tempKelvin
)

type effectModel int

// Effect models: PROGRAM index into programEffects, COLOR_BEHAVIOUR enum or
// EFFECT enum.
const (
	effectNone effectModel = iota
	effectProgram
	effectBehaviour
	effectList
)

type capabilities struct {
	color         colorModel
	temp          tempModel
	effect        effectModel
	timerUnits    bool
	operationMode bool
}

var kindCapabilities = map[Kind]capabilities{
	KindDimmer:               {},
	KindColorDimmer:          {color: colorCode},
	KindColorDimmerEffect:    {color: colorCode, effect: effectProgram},
	KindColorTempDimmer:      {temp: tempColorLevel},
	KindFixedColorLight:      {color: colorFixed, timerUnits: true},
	KindFixedColorLightWired: {color: colorFixed, effect: effectBehaviour, timerUnits: true},
	KindRGBWLight:            {color: colorHueSat, temp: tempKelvin, effect: effectList, timerUnits: true, operationMode: true},
}

// programEffects are the PROGRAM values of colour dimmers, by index.
var programEffects = []string{
	"Off",
	"Slow color change",
	"Medium color change",
	"Fast color change",
	"Campfire",
	"Waterfall",
	"TV simulation",
}

const effectOff = "Off"

// Collector orders of PROGRAM writes: a reset goes out before the level,
// a new program after it.
const (
	orderProgramReset = 5
	orderProgramSet   = 95
)

// COLOR_BEHAVIOUR values that are not offered as effects.
var excludedBehaviours = []string{"DO_NOT_CARE", "OFF", "OLD_VALUE"}

const behaviourOn = "ON"

// RGBW operation modes.
const (
	OperationModeRGBW         = "RGBW"
	OperationModeRGB          = "RGB"
	OperationModeTunableWhite = "2_TUNABLE_WHITE"
	OperationModePWM          = "4_PWM"
)

const dimmerOff = 0.0

// LightOnArgs are the optional arguments of Light.TurnOn.
type LightOnArgs struct {
	Brightness *int     `json:"brightness,omitempty"`
	ColorTemp  *int     `json:"color_temp,omitempty"`
	Effect     *string  `json:"effect,omitempty"`
	HSColor    *HSColor `json:"hs_color,omitempty"`
	OnTime     *float64 `json:"on_time,omitempty"`
	RampTime   *float64 `json:"ramp_time,omitempty"`
}

func (a LightOnArgs) empty() bool {
	return a.Brightness == nil && a.ColorTemp == nil && a.Effect == nil &&
		a.HSColor == nil && a.OnTime == nil && a.RampTime == nil
}

// LightOffArgs are the optional arguments of Light.TurnOff.
type LightOffArgs struct {
	RampTime *float64 `json:"ramp_time,omitempty"`
}

// Ptr returns a pointer to v, for filling optional arguments.
func Ptr[T any](v T) *T { return &v }

// truthy reports whether an optional number is set and non-zero.
func truthy(v *float64) bool { return v != nil && *v != 0 }

// Light is a dimmable light, optionally with colour, colour temperature and
// effects depending on its Kind.
type Light struct {
	customEntity
	kind Kind
	caps capabilities
}

// NewLight creates a light of kind from cfg.
func NewLight(kind Kind, cfg CustomConfig) (*Light, error) {
	base, err := newCustomEntity(cfg)
	if err != nil {
		return nil, err
	}
	l := &Light{customEntity: base, kind: kind, caps: kindCapabilities[kind]}
	l.bindFields()
	return l, nil
}

// Kind returns the light kind.
func (l *Light) Kind() Kind { return l.kind }

// Platform returns PlatformLight.
func (l *Light) Platform() Platform { return PlatformLight }

// Usage returns the entity usage. RGBW channels made redundant by the
// operation mode are not created.
func (l *Light) Usage() homematic.Usage {
	if !l.caps.operationMode {
		return l.usage
	}
	switch mode := l.OperationMode(); {
	case (mode == OperationModeRGB || mode == OperationModeRGBW) && l.channelNo >= 2 && l.channelNo <= 4:
		return homematic.UsageNoCreate
	case mode == OperationModeTunableWhite && l.channelNo >= 3 && l.channelNo <= 4:
		return homematic.UsageNoCreate
	}
	return l.usage
}

// OperationMode returns DEVICE_OPERATION_MODE of an RGBW light.
func (l *Light) OperationMode() string {
	mode, _ := l.field(FieldDeviceOperation).Enum()
	return mode
}

func (l *Light) level() float64 {
	level, _ := l.field(FieldLevel).Float()
	return level
}

// IsOn reports whether the level is above zero.
func (l *Light) IsOn() bool {
	level, ok := l.field(FieldLevel).Float()
	return ok && level > dimmerOff
}

// Brightness returns the brightness (0..255).
func (l *Light) Brightness() int { return LevelToBrightness(l.level()) }

// BrightnessPct returns the brightness in percent.
func (l *Light) BrightnessPct() int { return LevelToPercent(l.level()) }

// ChannelBrightness returns the brightness reported by the channel itself.
func (l *Light) ChannelBrightness() (int, bool) {
	level, ok := l.field(FieldChannelLevel).Float()
	if !ok {
		return 0, false
	}
	return LevelToBrightness(level), true
}

// HSColor returns the current colour. ok is false if the light has none.
func (l *Light) HSColor() (HSColor, bool) {
	switch l.caps.color {
	case colorCode:
		code, ok := l.field(FieldColor).Int()
		if !ok {
			return HSColor{}, true
		}
		return ColorCodeToHS(code), true
	case colorFixed:
		name, _ := l.field(FieldColor).Enum()
		return FixedColorToHS(FixedColor(name)), true
	case colorHueSat:
		hue, okHue := l.field(FieldHue).Float()
		sat, okSat := l.field(FieldSaturation).Float()
		if !okHue || !okSat {
			return HSColor{}, false
		}
		return HSColor{Hue: hue, Saturation: sat * 100}, true
	}
	return HSColor{}, false
}

// ChannelHSColor returns the colour reported by a fixed-colour channel.
func (l *Light) ChannelHSColor() (HSColor, bool) {
	name, ok := l.ChannelColorName()
	if !ok {
		return HSColor{}, false
	}
	return FixedColorToHS(FixedColor(name)), true
}

// ColorName returns the fixed colour of the light.
func (l *Light) ColorName() (string, bool) {
	if l.caps.color != colorFixed {
		return "", false
	}
	return l.field(FieldColor).Enum()
}

// ChannelColorName returns the fixed colour reported by the channel.
func (l *Light) ChannelColorName() (string, bool) {
	if l.caps.color != colorFixed {
		return "", false
	}
	return l.field(FieldChannelColor).Enum()
}

// ColorTemp returns the colour temperature in mireds.
func (l *Light) ColorTemp() (int, bool) {
	switch l.caps.temp {
	case tempColorLevel:
		level, _ := l.field(FieldColorLevel).Float()
		return ColorLevelToMireds(level), true
	case tempKelvin:
		kelvin, ok := l.field(FieldColorTemperature).Int()
		if !ok || kelvin == 0 {
			return 0, false
		}
		return KelvinToMireds(kelvin), true
	}
	return 0, false
}

// Effects returns the effects the light offers.
func (l *Light) Effects() []string {
	switch l.caps.effect {
	case effectProgram:
		return programEffects
	case effectBehaviour:
		var out []string
		for _, v := range l.field(FieldColorBehaviour).ValueList() {
			if !slices.Contains(excludedBehaviours, v) {
				out = append(out, v)
			}
		}
		return out
	case effectList:
		return l.field(FieldEffect).ValueList()
	}
	return nil
}

// Effect returns the running effect.
func (l *Light) Effect() (string, bool) {
	switch l.caps.effect {
	case effectProgram:
		idx, ok := l.field(FieldProgram).Int()
		if !ok || idx < 0 || idx >= len(programEffects) {
			return "", false
		}
		return programEffects[idx], true
	case effectBehaviour:
		v, ok := l.field(FieldColorBehaviour).Enum()
		if !ok || !slices.Contains(l.Effects(), v) {
			return "", false
		}
		return v, true
	case effectList:
		return l.field(FieldEffect).Enum()
	}
	return "", false
}

// SupportsBrightness reports whether the light has a level.
func (l *Light) SupportsBrightness() bool { return l.field(FieldLevel) != nil }

// SupportsTransition reports whether the light accepts a ramp time.
func (l *Light) SupportsTransition() bool {
	return l.caps.operationMode || l.field(FieldRampTimeValue) != nil
}

// SupportsHS reports whether the light takes a colour.
func (l *Light) SupportsHS() bool {
	if l.caps.operationMode {
		mode := l.OperationMode()
		return mode == OperationModeRGBW || mode == OperationModeRGB
	}
	_, ok := l.HSColor()
	return ok
}

// SupportsColorTemp reports whether the light takes a colour temperature.
func (l *Light) SupportsColorTemp() bool {
	if l.caps.operationMode {
		return l.OperationMode() == OperationModeTunableWhite
	}
	_, ok := l.ColorTemp()
	return ok
}

// SupportsEffects reports whether the light offers effects.
func (l *Light) SupportsEffects() bool {
	if l.caps.operationMode && l.OperationMode() == OperationModePWM {
		return false
	}
	return len(l.Effects()) > 0
}

// relevantFields are the fields whose uncertainty makes the light state
// uncertain.
func (l *Light) relevantFields() []*GenericEntity {
	if !l.caps.operationMode {
		return l.readableFields()
	}
	var fields []Field
	switch l.OperationMode() {
	case OperationModeRGBW:
		fields = []Field{FieldHue, FieldLevel, FieldSaturation, FieldColorTemperature}
	case OperationModeRGB:
		fields = []Field{FieldHue, FieldLevel, FieldSaturation}
	case OperationModeTunableWhite:
		fields = []Field{FieldLevel, FieldColorTemperature}
	default:
		fields = []Field{FieldLevel}
	}
	out := make([]*GenericEntity, 0, len(fields))
	for _, f := range fields {
		if e := l.field(f); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// StateUncertain reports whether any relevant field is uncertain.
func (l *Light) StateUncertain() bool {
	return uncertain(l.relevantFields())
}

// IsOnStateChange reports whether TurnOn with args would change anything.
func (l *Light) IsOnStateChange(args LightOnArgs) bool {
	if args.empty() && !l.IsOn() {
		return true
	}
	return l.argsChange(args)
}

// IsOffStateChange reports whether TurnOff with args would change anything.
func (l *Light) IsOffStateChange(args LightOffArgs) bool {
	if args.RampTime == nil && l.IsOn() {
		return true
	}
	return l.argsChange(LightOnArgs{RampTime: args.RampTime})
}

func (l *Light) argsChange(args LightOnArgs) bool {
	if args.Brightness != nil && *args.Brightness != l.Brightness() {
		return true
	}
	if args.HSColor != nil {
		if hs, ok := l.HSColor(); !ok || hs != *args.HSColor {
			return true
		}
	}
	if args.ColorTemp != nil {
		if ct, ok := l.ColorTemp(); !ok || ct != *args.ColorTemp {
			return true
		}
	}
	if args.Effect != nil {
		if effect, ok := l.Effect(); !ok || effect != *args.Effect {
			return true
		}
	}
	if args.RampTime != nil || args.OnTime != nil {
		return true
	}
	return l.StateUncertain()
}

// TurnOn switches the light on. With a nil collector the writes are sent
// as one batch before returning.
func (l *Light) TurnOn(ctx context.Context, args LightOnArgs, collector *Collector) error {
	return bindCollector(ctx, l.device.backend, collector, func(c *Collector) error {
		if !l.IsOnStateChange(args) {
			return nil
		}
		if err := l.sendColor(ctx, args, c); err != nil {
			return err
		}
		if err := l.sendEffect(ctx, args, c); err != nil {
			return err
		}
		return l.sendLevelOn(ctx, args, c)
	})
}

func (l *Light) sendColor(ctx context.Context, args LightOnArgs, c *Collector) error {
	switch l.caps.color {
	case colorCode:
		if args.HSColor != nil {
			return l.field(FieldColor).SendValue(ctx, HSToColorCode(*args.HSColor), c)
		}
	case colorFixed:
		name, _ := l.ColorName()
		if args.HSColor != nil {
			return l.field(FieldColor).SendValue(ctx, string(HSToFixedColor(*args.HSColor)), c)
		} else if isNoColor(FixedColor(name)) {
			return l.field(FieldColor).SendValue(ctx, string(ColorWhite), c)
		}
	case colorHueSat:
		if args.HSColor != nil {
			if err := l.field(FieldHue).SendValue(ctx, int(args.HSColor.Hue), c); err != nil {
				return err
			}
			if err := l.field(FieldSaturation).SendValue(ctx, args.HSColor.Saturation/100, c); err != nil {
				return err
			}
		}
	}

	switch l.caps.temp {
	case tempColorLevel:
		if args.ColorTemp != nil {
			return l.field(FieldColorLevel).SendValue(ctx, MiredsToColorLevel(*args.ColorTemp), c)
		}
	case tempKelvin:
		if args.ColorTemp != nil && *args.ColorTemp != 0 {
			if err := l.field(FieldColorTemperature).SendValue(ctx, MiredsToKelvin(*args.ColorTemp), c); err != nil {
				return err
			}
		}
		if args.OnTime == nil && truthy(args.RampTime) {
			return l.sendOnTime(ctx, TimerNotUsed, c)
		}
	}
	return nil
}

func (l *Light) sendEffect(ctx context.Context, args LightOnArgs, c *Collector) error {
	switch l.caps.effect {
	case effectProgram:
		if args.Effect == nil {
			if effect, ok := l.Effect(); l.SupportsEffects() && (!ok || effect != effectOff) {
				return l.field(FieldProgram).SendValueOrdered(ctx, 0, c, orderProgramReset)
			}
			return nil
		}
		idx := slices.Index(programEffects, *args.Effect)
		if idx < 0 {
			l.device.logger.Debug("ignoring unknown effect",
				"entity", l.uniqueID,
				"effect", *args.Effect,
				"error", ErrUnknownEffect,
			)
			return nil
		}
		return l.field(FieldProgram).SendValueOrdered(ctx, idx, c, orderProgramSet)
	case effectBehaviour:
		behaviour := l.field(FieldColorBehaviour)
		current, _ := behaviour.Enum()
		effects := l.Effects()
		switch {
		case args.Effect != nil && slices.Contains(effects, *args.Effect):
			return behaviour.SendValue(ctx, *args.Effect, c)
		case !slices.Contains(effects, current):
			return behaviour.SendValue(ctx, behaviourOn, c)
		default:
			return behaviour.SendValue(ctx, current, c)
		}
	case effectList:
		if l.SupportsEffects() && args.Effect != nil {
			return l.field(FieldEffect).SendValue(ctx, *args.Effect, c)
		}
	}
	return nil
}

func (l *Light) sendLevelOn(ctx context.Context, args LightOnArgs, c *Collector) error {
	if truthy(args.RampTime) {
		if err := l.sendRampTimeOn(ctx, *args.RampTime, c); err != nil {
			return err
		}
	}
	var onTime float64
	var ok bool
	if truthy(args.OnTime) {
		onTime, ok = *args.OnTime, true
	} else {
		onTime, ok = l.onTime.TakeAndClear()
		ok = ok && onTime != 0
	}
	if ok {
		if err := l.sendOnTime(ctx, onTime, c); err != nil {
			return err
		}
	}

	brightness := l.Brightness()
	if args.Brightness != nil {
		brightness = *args.Brightness
	}
	if brightness == 0 {
		brightness = int(maxBrightness)
	}
	return l.field(FieldLevel).SendValue(ctx, BrightnessToLevel(brightness), c)
}

// TurnOff switches the light off.
func (l *Light) TurnOff(ctx context.Context, args LightOffArgs, collector *Collector) error {
	return bindCollector(ctx, l.device.backend, collector, func(c *Collector) error {
		if !l.IsOffStateChange(args) {
			return nil
		}
		if truthy(args.RampTime) {
			if err := l.sendRampTimeOff(ctx, *args.RampTime, c); err != nil {
				return err
			}
		}
		return l.field(FieldLevel).SendValue(ctx, dimmerOff, c)
	})
}

func (l *Light) sendOnTime(ctx context.Context, seconds float64, c *Collector) error {
	return l.sendTimer(ctx, FieldOnTimeValue, FieldOnTimeUnit, seconds, c)
}

func (l *Light) sendRampTimeOn(ctx context.Context, seconds float64, c *Collector) error {
	return l.sendTimer(ctx, FieldRampTimeValue, FieldRampTimeUnit, seconds, c)
}

func (l *Light) sendRampTimeOff(ctx context.Context, seconds float64, c *Collector) error {
	if l.caps.operationMode {
		return l.sendTimer(ctx, FieldRampTimeToOffVal, FieldRampTimeToOffUnit, seconds, c)
	}
	return l.sendRampTimeOn(ctx, seconds, c)
}

// sendTimer writes a timer value, with a unit where the light has one.
// Seconds are the default unit and never written.
func (l *Light) sendTimer(ctx context.Context, valueField, unitField Field, seconds float64, c *Collector) error {
	if !l.caps.timerUnits {
		return l.field(valueField).SendValue(ctx, seconds, c)
	}
	value, unit, ok := RecalcUnitTimer(seconds)
	if ok && unit != TimeUnitSeconds {
		if err := l.field(unitField).SendValue(ctx, int(unit), c); err != nil {
			return err
		}
	}
	return l.field(valueField).SendValue(ctx, value, c)
}

// State returns a snapshot of the light for publishing.
func (l *Light) State() map[string]any {
	state := map[string]any{
		"on":         l.IsOn(),
		"brightness": l.Brightness(),
		"kind":       l.kind.String(),
		"uncertain":  l.StateUncertain(),
	}
	if b, ok := l.ChannelBrightness(); ok {
		state["channel_brightness"] = b
	}
	if l.SupportsHS() {
		if hs, ok := l.HSColor(); ok {
			state["hs_color"] = hs
		}
	}
	if name, ok := l.ColorName(); ok {
		state["color_name"] = name
	}
	if l.SupportsColorTemp() {
		if ct, ok := l.ColorTemp(); ok {
			state["color_temp"] = ct
		}
	}
	if l.SupportsEffects() {
		state["effects"] = l.Effects()
		if effect, ok := l.Effect(); ok {
			state["effect"] = effect
		}
	}
	return state
}
