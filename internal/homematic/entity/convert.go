package entity

import (
	"encoding/json"
	"fmt"
	"math"
)

// Light value ranges.
const (
	maxBrightness = 255.0
	minMireds     = 153
	maxMireds     = 500

	// whiteColorCode is the COLOR value of white on continuous-colour dimmers.
	whiteColorCode = 200

	// maxTimerValue is the largest timer value a unit can carry.
	maxTimerValue = 16343
)

// TimerNotUsed is the reserved timer value meaning "no timer". It is written
// as is, without a unit.
const TimerNotUsed = 111600

// brightnessEpsilon absorbs float error when scaling a level back to 0..255.
const brightnessEpsilon = 1e-9

// LevelToBrightness converts a backend level (0..1) to a brightness (0..255).
func LevelToBrightness(level float64) int {
	return int(level*maxBrightness + brightnessEpsilon)
}

// LevelToPercent converts a backend level (0..1) to a percentage.
func LevelToPercent(level float64) int {
	return int(level*100 + brightnessEpsilon)
}

// BrightnessToLevel converts a brightness (0..255) to a backend level.
func BrightnessToLevel(brightness int) float64 {
	return float64(brightness) / maxBrightness
}

// HSColor is a hue (0..360) and saturation (0..100) pair. It encodes to
// JSON as [hue, saturation].
type HSColor struct {
	Hue        float64
	Saturation float64
}

// MarshalJSON implements json.Marshaler.
func (c HSColor) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Hue, c.Saturation})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *HSColor) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: hs color needs two values, got %d", ErrInvalidValue, len(pair))
	}
	c.Hue, c.Saturation = pair[0], pair[1]
	return nil
}

// ColorCodeToHS decodes a continuous-colour COLOR value (0..199, 200 white).
func ColorCodeToHS(code int) HSColor {
	if code >= whiteColorCode {
		return HSColor{}
	}
	return HSColor{Hue: float64(code) / whiteColorCode * 360, Saturation: 100}
}

// HSToColorCode encodes hs as a continuous-colour COLOR value.
func HSToColorCode(hs HSColor) int {
	hue := hs.Hue / 360
	if hs.Saturation/100 < 0.1 {
		return whiteColorCode
	}
	return int(math.RoundToEven(math.Max(math.Min(hue, 1), 0) * 199))
}

// FixedColor is a colour of an eight-colour light.
type FixedColor string

// Fixed colours.
const (
	ColorBlack     FixedColor = "BLACK"
	ColorBlue      FixedColor = "BLUE"
	ColorDoNotCare FixedColor = "DO_NOT_CARE"
	ColorGreen     FixedColor = "GREEN"
	ColorOldValue  FixedColor = "OLD_VALUE"
	ColorPurple    FixedColor = "PURPLE"
	ColorRed       FixedColor = "RED"
	ColorTurquoise FixedColor = "TURQUOISE"
	ColorWhite     FixedColor = "WHITE"
	ColorYellow    FixedColor = "YELLOW"
)

var fixedColorHS = map[FixedColor]HSColor{
	ColorWhite:     {0, 0},
	ColorRed:       {0, 100},
	ColorYellow:    {60, 100},
	ColorGreen:     {120, 100},
	ColorTurquoise: {180, 100},
	ColorBlue:      {240, 100},
	ColorPurple:    {300, 100},
}

// FixedColorToHS returns the hs value of a fixed colour. Colours without one
// (BLACK, OLD_VALUE, DO_NOT_CARE, unknown) map to 0,0.
func FixedColorToHS(c FixedColor) HSColor {
	return fixedColorHS[c]
}

// isNoColor reports whether c leaves the light without a visible colour.
func isNoColor(c FixedColor) bool {
	return c == ColorBlack || c == ColorDoNotCare || c == ColorOldValue
}

// HSToFixedColor buckets hs into the nearest fixed colour. Hue bands are 60
// degrees wide, centred on the palette hues; hue and saturation are
// truncated to integers first.
func HSToFixedColor(hs HSColor) FixedColor {
	hue := int(hs.Hue)
	if int(hs.Saturation) < 5 {
		return ColorWhite
	}
	switch {
	case 30 < hue && hue <= 90:
		return ColorYellow
	case 90 < hue && hue <= 150:
		return ColorGreen
	case 150 < hue && hue <= 210:
		return ColorTurquoise
	case 210 < hue && hue <= 270:
		return ColorBlue
	case 270 < hue && hue <= 330:
		return ColorPurple
	default:
		return ColorRed
	}
}

// ColorLevelToMireds converts a COLOR_LEVEL (0..1) to mireds.
func ColorLevelToMireds(level float64) int {
	return int(maxMireds - (maxMireds-minMireds)*level)
}

// MiredsToColorLevel converts mireds to a COLOR_LEVEL.
func MiredsToColorLevel(mireds int) float64 {
	return float64(maxMireds-mireds) / float64(maxMireds-minMireds)
}

// KelvinToMireds converts a colour temperature in Kelvin to mireds.
func KelvinToMireds(kelvin int) int {
	return int(math.Floor(1_000_000 / float64(kelvin)))
}

// MiredsToKelvin converts mireds to Kelvin.
func MiredsToKelvin(mireds int) int {
	return int(math.Floor(1_000_000 / float64(mireds)))
}

// TimeUnit is the unit of a timer value.
type TimeUnit int

// Timer units, as written to *_UNIT parameters.
const (
	TimeUnitSeconds TimeUnit = iota
	TimeUnitMinutes
	TimeUnitHours
)

// RecalcUnitTimer rescales seconds into the largest unit needed to stay
// within the timer range. ok is false for TimerNotUsed, which carries no
// unit.
func RecalcUnitTimer(seconds float64) (value float64, unit TimeUnit, ok bool) {
	if seconds == TimerNotUsed {
		return seconds, TimeUnitSeconds, false
	}
	value, unit = seconds, TimeUnitSeconds
	if value > maxTimerValue {
		value /= 60
		unit = TimeUnitMinutes
	}
	if value > maxTimerValue {
		value /= 60
		unit = TimeUnitHours
	}
	return value, unit, true
}
