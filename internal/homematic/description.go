package homematic

// ParameterDescription describes one parameter of a channel paramset.
type ParameterDescription struct {
	Type       ParameterType      `yaml:"type" json:"type"`
	Operations Operations         `yaml:"operations" json:"operations"`
	Min        float64            `yaml:"min" json:"min"`
	Max        float64            `yaml:"max" json:"max"`
	Default    any                `yaml:"default" json:"default,omitempty"`
	Unit       string             `yaml:"unit" json:"unit,omitempty"`
	ValueList  []string           `yaml:"value_list" json:"value_list,omitempty"`
	Special    map[string]float64 `yaml:"special" json:"special,omitempty"`
}

// Readable reports whether the parameter can be read from the backend.
func (d ParameterDescription) Readable() bool {
	return d.Operations.Has(OperationRead)
}

// Writable reports whether the parameter can be written.
func (d ParameterDescription) Writable() bool {
	return d.Operations.Has(OperationWrite)
}

// IsSpecial reports whether v is one of the special values that are
// accepted even outside Min..Max.
func (d ParameterDescription) IsSpecial(v float64) bool {
	for _, s := range d.Special {
		if s == v {
			return true
		}
	}
	return false
}

// DeviceDescription describes a device or one of its channels, as listed by
// the backend.
type DeviceDescription struct {
	Address   string        `yaml:"address" json:"address"`
	Type      string        `yaml:"type" json:"type"`
	Parent    string        `yaml:"parent" json:"parent,omitempty"`
	Children  []string      `yaml:"children" json:"children,omitempty"`
	Paramsets []ParamsetKey `yaml:"paramsets" json:"paramsets,omitempty"`
	Firmware  string        `yaml:"firmware" json:"firmware,omitempty"`
}

// IsChannel reports whether the description belongs to a channel.
func (d DeviceDescription) IsChannel() bool {
	return d.Parent != ""
}

// ParamsetDescriptions maps paramset key to parameter name to description.
type ParamsetDescriptions map[ParamsetKey]map[string]ParameterDescription
