package profile

import "github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"

// Extended adds model-specific parameters to a profile.
type Extended struct {
	// FixedChannels maps absolute channel numbers to extra fields.
	FixedChannels map[int]Fields
	// AdditionalEntities lists generic entities, by absolute channel, that
	// stay exposed next to the custom entity.
	AdditionalEntities map[int][]string
}

// ModelConfig binds a model to a profile and the base channels of its
// channel groups.
type ModelConfig struct {
	Profile   Profile
	Platform  entity.Platform
	Kind      entity.Kind
	CoverKind entity.CoverKind
	Channels  []int
	Extended  *Extended
}

func light(p Profile, kind entity.Kind, channels ...int) ModelConfig {
	return ModelConfig{Profile: p, Platform: entity.PlatformLight, Kind: kind, Channels: channels}
}

func ipSwitch(channels ...int) ModelConfig {
	return ModelConfig{Profile: IPSwitch, Platform: entity.PlatformSwitch, Channels: channels}
}

func cover(p Profile, kind entity.CoverKind, channels ...int) ModelConfig {
	return ModelConfig{Profile: p, Platform: entity.PlatformCover, CoverKind: kind, Channels: channels}
}

// ipGarage doors keep the STATE of their first channel exposed.
func ipGarage(channels ...int) ModelConfig {
	return ModelConfig{Profile: IPGarage, Platform: entity.PlatformCover, Channels: channels}.with(Extended{
		AdditionalEntities: map[int][]string{1: {"STATE"}},
	})
}

func (m ModelConfig) with(ext Extended) ModelConfig {
	m.Extended = &ext
	return m
}

var actualTemperature = Extended{AdditionalEntities: map[int][]string{0: {"ACTUAL_TEMPERATURE"}}}

var hbwButtons = func() Extended {
	params := []string{"PRESS_LONG", "PRESS_SHORT", "SENSOR"}
	ext := Extended{AdditionalEntities: map[int][]string{}}
	for ch := 1; ch <= 6; ch++ {
		ext.AdditionalEntities[ch] = params
	}
	return ext
}()

// Model names are matched case-insensitively. HomeBrew (HB-) devices report
// themselves as HM-.
var builtinModels = map[string][]ModelConfig{
	"263 132": {light(RFDimmer, entity.KindDimmer, 1)},
	"263 133": {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"263 134": {light(RFDimmer, entity.KindDimmer, 1)},
	"HBW-LC-RGBWW-IN6-DR": {
		light(RFDimmer, entity.KindDimmer, 7, 8).with(hbwButtons),
		light(RFDimmerColor, entity.KindColorDimmer, 9, 10, 11).with(Extended{
			FixedChannels: map[int]Fields{15: {entity.FieldColor: "COLOR"}},
		}),
		light(RFDimmerColor, entity.KindColorDimmer, 12, 13, 14).with(Extended{
			FixedChannels: map[int]Fields{16: {entity.FieldColor: "COLOR"}},
		}),
	},
	"HM-DW-WM":            {light(RFDimmer, entity.KindDimmer, 1, 2, 3, 4)},
	"HM-LC-AO-SM":         {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-DW-WM":         {light(RFDimmerColorTemp, entity.KindColorTempDimmer, 1, 3, 5)},
	"HM-LC-Dim1L-CV":      {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1L-CV-2":    {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1L-Pl":      {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1L-Pl-2":    {light(RFDimmer, entity.KindDimmer, 1)},
	"HM-LC-Dim1L-Pl-3":    {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1PWM-CV":    {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1PWM-CV-2":  {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1T-CV":      {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1T-CV-2":    {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1T-DR":      {light(RFDimmer, entity.KindDimmer, 1, 2, 3)},
	"HM-LC-Dim1T-FM":      {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1T-FM-2":    {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1T-FM-LF":   {light(RFDimmer, entity.KindDimmer, 1)},
	"HM-LC-Dim1T-Pl":      {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1T-Pl-2":    {light(RFDimmer, entity.KindDimmer, 1)},
	"HM-LC-Dim1T-Pl-3":    {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1TPBU-FM":   {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim1TPBU-FM-2": {light(RFDimmerWithVirtChannel, entity.KindDimmer, 1)},
	"HM-LC-Dim2L-CV":      {light(RFDimmer, entity.KindDimmer, 1, 2)},
	"HM-LC-Dim2L-SM":      {light(RFDimmer, entity.KindDimmer, 1, 2)},
	"HM-LC-Dim2L-SM-2":    {light(RFDimmer, entity.KindDimmer, 1, 2, 3, 4, 5, 6)},
	"HM-LC-Dim2T-SM":      {light(RFDimmer, entity.KindDimmer, 1, 2)},
	"HM-LC-Dim2T-SM-2":    {light(RFDimmer, entity.KindDimmer, 1, 2, 3, 4, 5, 6)},
	"HM-LC-RGBW-WM":       {light(RFDimmerColor, entity.KindColorDimmerEffect, 1)},
	"HMW-LC-Dim1L-DR":     {light(RFDimmer, entity.KindDimmer, 3)},
	"HSS-DX":              {light(RFDimmer, entity.KindDimmer, 1)},
	"HmIP-BDT":            {light(IPDimmer, entity.KindDimmer, 3)},
	"HmIP-BSL": {
		ipSwitch(3),
		light(IPFixedColorLight, entity.KindFixedColorLight, 7, 11),
	},
	"HmIP-DRDI3": {light(IPDimmer, entity.KindDimmer, 4, 8, 12).with(actualTemperature)},
	"HmIP-FDT":   {light(IPDimmer, entity.KindDimmer, 1)},
	"HmIP-PDT":   {light(IPDimmer, entity.KindDimmer, 2)},
	"HmIP-RGBW":  {light(IPRGBWLight, entity.KindRGBWLight, 0)},
	"HmIP-SCTH230": {
		ipSwitch(7),
		light(IPDimmer, entity.KindDimmer, 11).with(Extended{
			AdditionalEntities: map[int][]string{
				1: {"CONCENTRATION"},
				4: {"HUMIDITY", "ACTUAL_TEMPERATURE"},
			},
		}),
	},
	"HmIPW-DRD3":        {light(IPDimmer, entity.KindDimmer, 1, 5, 9).with(actualTemperature)},
	"HmIPW-WRC6":        {light(IPSimpleFixedColorLightWired, entity.KindFixedColorLightWired, 7, 8, 9, 10, 11, 12, 13)},
	"OLIGO.smart.iq.HM": {light(RFDimmer, entity.KindDimmer, 1, 2, 3, 4, 5, 6)},

	"ELV-SH-BS2":    {ipSwitch(3, 7)},
	"HmIP-BS2":      {ipSwitch(3, 7)},
	"HmIP-BSM":      {ipSwitch(3)},
	"HmIP-DRSI1":    {ipSwitch(2).with(actualTemperature)},
	"HmIP-DRSI4":    {ipSwitch(5, 9, 13, 17).with(actualTemperature)},
	"HmIP-FSI":      {ipSwitch(2)},
	"HmIP-FSM":      {ipSwitch(1)},
	"HmIP-MOD-OC8":  {ipSwitch(9, 13, 17, 21, 25, 29, 33, 37)},
	"HmIP-PCBS":     {ipSwitch(2)},
	"HmIP-PCBS-BAT": {ipSwitch(2)},
	"HmIP-PCBS2":    {ipSwitch(3, 7)},
	"HmIP-PS":       {ipSwitch(2)},
	"HmIP-USBSM":    {ipSwitch(2)},
	"HmIP-WGC":      {ipSwitch(2)},
	"HmIP-WHS2":     {ipSwitch(1, 5)},
	"HmIPW-DRS":     {ipSwitch(1, 5, 9, 13, 17, 21, 25, 29).with(actualTemperature)},
	"HmIPW-FIO6":    {ipSwitch(7, 11, 15, 19, 23, 27)},

	"263 146":             {cover(RFCover, entity.CoverKindShutter, 1)},
	"263 147":             {cover(RFCover, entity.CoverKindShutter, 1)},
	"HM-LC-Bl1-FM":        {cover(RFCover, entity.CoverKindShutter, 1)},
	"HM-LC-Bl1-FM-2":      {cover(RFCover, entity.CoverKindShutter, 1)},
	"HM-LC-Bl1-PB-FM":     {cover(RFCover, entity.CoverKindShutter, 1)},
	"HM-LC-Bl1-SM":        {cover(RFCover, entity.CoverKindShutter, 1)},
	"HM-LC-Bl1-SM-2":      {cover(RFCover, entity.CoverKindShutter, 1)},
	"HM-LC-Bl1-Velux":     {cover(RFCover, entity.CoverKindShutter, 1)},
	"HM-LC-Bl1PBU-FM":     {cover(RFCover, entity.CoverKindShutter, 1)},
	"HM-LC-BlX":           {cover(RFCover, entity.CoverKindShutter, 1)},
	"HM-LC-Ja1PBU-FM":     {cover(RFCover, entity.CoverKindBlind, 1)},
	"HM-LC-JaX":           {cover(RFCover, entity.CoverKindBlind, 1)},
	"HMW-LC-Bl1":          {cover(RFCover, entity.CoverKindShutter, 3)},
	"HmIP-BBL":            {cover(IPCover, entity.CoverKindIPBlind, 3)},
	"HmIP-BROLL":          {cover(IPCover, entity.CoverKindShutter, 3)},
	"HmIP-DRBLI4":         {cover(IPCover, entity.CoverKindIPBlind, 9, 13, 17, 21).with(actualTemperature)},
	"HmIP-FBL":            {cover(IPCover, entity.CoverKindIPBlind, 3)},
	"HmIP-FROLL":          {cover(IPCover, entity.CoverKindShutter, 3)},
	"HmIP-HDM":            {cover(IPCover, entity.CoverKindIPBlind, 0)},
	"HmIP-MOD-HO":         {ipGarage(1)},
	"HmIP-MOD-TM":         {ipGarage(1)},
	"HmIPW-DRBL4":         {cover(IPCover, entity.CoverKindIPBlind, 1, 5, 9, 13).with(actualTemperature)},
	"ZEL STG RM FEP 230V": {cover(RFCover, entity.CoverKindShutter, 1)},
	"HM-Sec-Win": {
		cover(RFCover, entity.CoverKindWindowDrive, 1).with(Extended{
			AdditionalEntities: map[int][]string{
				1: {"DIRECTION", "WORKING", "ERROR"},
				2: {"LEVEL", "STATUS"},
			},
		}),
	},
}
