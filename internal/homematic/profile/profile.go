package profile

import "github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"

// Profile names a device profile.
type Profile string

// Device profiles.
const (
	IPCover                      Profile = "IP_COVER"
	IPDimmer                     Profile = "IP_DIMMER"
	IPFixedColorLight            Profile = "IP_FIXED_COLOR_LIGHT"
	IPGarage                     Profile = "IP_GARAGE"
	IPSimpleFixedColorLightWired Profile = "IP_SIMPLE_FIXED_COLOR_LIGHT_WIRED"
	IPRGBWLight                  Profile = "IP_RGBW_LIGHT"
	IPSwitch                     Profile = "IP_SWITCH"
	RFCover                      Profile = "RF_COVER"
	RFDimmer                     Profile = "RF_DIMMER"
	RFDimmerColor                Profile = "RF_DIMMER_COLOR"
	RFDimmerColorTemp            Profile = "RF_DIMMER_COLOR_TEMP"
	RFDimmerWithVirtChannel      Profile = "RF_DIMMER_WITH_VIRT_CHANNEL"
)

// Fields maps field roles to parameter names.
type Fields map[entity.Field]string

// Definition lists the parameters of one channel group. Channel numbers in
// Fields and VisibleFields, and the primary and secondary channels, are
// relative to the group base channel.
type Definition struct {
	PrimaryChannel          int
	SecondaryChannels       []int
	RepeatableFields        Fields
	VisibleRepeatableFields Fields
	Fields                  map[int]Fields
	VisibleFields           map[int]Fields
}

var rfDimmerFields = Fields{
	entity.FieldLevel:         "LEVEL",
	entity.FieldOnTimeValue:   "ON_TIME",
	entity.FieldRampTimeValue: "RAMP_TIME",
}

var definitions = map[Profile]Definition{
	IPCover: {
		PrimaryChannel:    1,
		SecondaryChannels: []int{2, 3},
		RepeatableFields: Fields{
			entity.FieldCombinedParameter: "COMBINED_PARAMETER",
			entity.FieldLevel:             "LEVEL",
			entity.FieldLevel2:            "LEVEL_2",
			entity.FieldStop:              "STOP",
		},
		Fields: map[int]Fields{
			0: {
				entity.FieldChannelOperationMode: "CHANNEL_OPERATION_MODE",
				entity.FieldDirection:            "ACTIVITY_STATE",
			},
		},
		VisibleFields: map[int]Fields{
			0: {
				entity.FieldChannelLevel:  "LEVEL",
				entity.FieldChannelLevel2: "LEVEL_2",
			},
		},
	},
	IPDimmer: {
		PrimaryChannel:    1,
		SecondaryChannels: []int{2, 3},
		RepeatableFields:  rfDimmerFields,
		VisibleFields: map[int]Fields{
			0: {entity.FieldChannelLevel: "LEVEL"},
		},
	},
	IPFixedColorLight: {
		PrimaryChannel:    1,
		SecondaryChannels: []int{2, 3},
		RepeatableFields: Fields{
			entity.FieldColor:         "COLOR",
			entity.FieldLevel:         "LEVEL",
			entity.FieldOnTimeUnit:    "DURATION_UNIT",
			entity.FieldOnTimeValue:   "DURATION_VALUE",
			entity.FieldRampTimeUnit:  "RAMP_TIME_UNIT",
			entity.FieldRampTimeValue: "RAMP_TIME_VALUE",
		},
		VisibleFields: map[int]Fields{
			0: {
				entity.FieldChannelColor: "COLOR",
				entity.FieldChannelLevel: "LEVEL",
			},
		},
	},
	IPGarage: {
		PrimaryChannel: 0,
		RepeatableFields: Fields{
			entity.FieldDoorCommand: "DOOR_COMMAND",
			entity.FieldSection:     "SECTION",
		},
		VisibleRepeatableFields: Fields{
			entity.FieldDoorState: "DOOR_STATE",
		},
	},
	IPSimpleFixedColorLightWired: {
		PrimaryChannel: 0,
		RepeatableFields: Fields{
			entity.FieldColor:          "COLOR",
			entity.FieldColorBehaviour: "COLOR_BEHAVIOUR",
			entity.FieldLevel:          "LEVEL",
			entity.FieldOnTimeUnit:     "DURATION_UNIT",
			entity.FieldOnTimeValue:    "DURATION_VALUE",
			entity.FieldRampTimeUnit:   "RAMP_TIME_UNIT",
			entity.FieldRampTimeValue:  "RAMP_TIME_VALUE",
		},
	},
	IPRGBWLight: {
		PrimaryChannel:    1,
		SecondaryChannels: []int{2, 3, 4},
		RepeatableFields: Fields{
			entity.FieldColorTemperature:  "COLOR_TEMPERATURE",
			entity.FieldDirection:         "DIRECTION",
			entity.FieldEffect:            "EFFECT",
			entity.FieldHue:               "HUE",
			entity.FieldLevel:             "LEVEL",
			entity.FieldOnTimeUnit:        "DURATION_UNIT",
			entity.FieldOnTimeValue:       "DURATION_VALUE",
			entity.FieldRampTimeToOffUnit: "RAMP_TIME_TO_OFF_UNIT",
			entity.FieldRampTimeToOffVal:  "RAMP_TIME_TO_OFF_VALUE",
			entity.FieldRampTimeUnit:      "RAMP_TIME_UNIT",
			entity.FieldRampTimeValue:     "RAMP_TIME_VALUE",
			entity.FieldSaturation:        "SATURATION",
		},
		Fields: map[int]Fields{
			0: {entity.FieldDeviceOperation: "DEVICE_OPERATION_MODE"},
		},
	},
	IPSwitch: {
		PrimaryChannel: 1,
		RepeatableFields: Fields{
			entity.FieldState:       "STATE",
			entity.FieldOnTimeValue: "ON_TIME",
		},
		VisibleFields: map[int]Fields{
			0: {entity.FieldChannelState: "STATE"},
		},
	},
	RFCover: {
		PrimaryChannel: 0,
		RepeatableFields: Fields{
			entity.FieldDirection:     "DIRECTION",
			entity.FieldLevel:         "LEVEL",
			entity.FieldLevel2:        "LEVEL_SLATS",
			entity.FieldLevelCombined: "LEVEL_COMBINED",
			entity.FieldStop:          "STOP",
		},
	},
	RFDimmer: {
		PrimaryChannel:   0,
		RepeatableFields: rfDimmerFields,
	},
	RFDimmerColor: {
		PrimaryChannel:   0,
		RepeatableFields: rfDimmerFields,
		Fields: map[int]Fields{
			1: {entity.FieldColor: "COLOR"},
			2: {entity.FieldProgram: "PROGRAM"},
		},
	},
	RFDimmerColorTemp: {
		PrimaryChannel:   0,
		RepeatableFields: rfDimmerFields,
		Fields: map[int]Fields{
			1: {entity.FieldColorLevel: "LEVEL"},
		},
	},
	RFDimmerWithVirtChannel: {
		PrimaryChannel:    0,
		SecondaryChannels: []int{1, 2},
		RepeatableFields:  rfDimmerFields,
	},
}

// Lookup returns the definition of p.
func Lookup(p Profile) (Definition, bool) {
	def, ok := definitions[p]
	return def, ok
}
