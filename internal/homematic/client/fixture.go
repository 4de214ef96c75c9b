package client

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

// Fixture is the on-disk description of the devices a Local backend serves.
//
//	devices:
//	  - address: VCU0000001
//	    type: HmIP-BSL
//	    name: Hallway light
//	    channels:
//	      - no: 8
//	        rooms: [Hallway]
//	        paramsets:
//	          VALUES:
//	            LEVEL: {type: FLOAT, operations: 7, min: 0, max: 1}
//	        values:
//	          LEVEL: 0
type Fixture struct {
	Devices []FixtureDevice `yaml:"devices"`
}

// FixtureDevice is one device of a fixture.
type FixtureDevice struct {
	Address  string           `yaml:"address"`
	Type     string           `yaml:"type"`
	Firmware string           `yaml:"firmware"`
	Name     string           `yaml:"name"`
	Channels []FixtureChannel `yaml:"channels"`
}

// FixtureChannel is one channel of a fixture device.
type FixtureChannel struct {
	No        int                            `yaml:"no"`
	Name      string                         `yaml:"name"`
	Rooms     []string                       `yaml:"rooms"`
	Functions []string                       `yaml:"functions"`
	Paramsets homematic.ParamsetDescriptions `yaml:"paramsets"`
	Values    map[string]any                 `yaml:"values"`
	Master    map[string]any                 `yaml:"master"`
}

// ParseFixture decodes and checks a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	for i := range f.Devices {
		if err := f.Devices[i].validate(); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return ParseFixture(data)
}

func (d FixtureDevice) validate() error {
	if d.Address == "" {
		return fmt.Errorf("%w: device without address", ErrInvalidFixture)
	}
	if homematic.IsChannelAddress(d.Address) {
		return fmt.Errorf("%w: device address %q contains a channel", ErrInvalidFixture, d.Address)
	}
	if d.Type == "" {
		return fmt.Errorf("%w: device %s has no type", ErrInvalidFixture, d.Address)
	}
	seen := make(map[int]struct{}, len(d.Channels))
	for _, ch := range d.Channels {
		if ch.No < 0 {
			return fmt.Errorf("%w: device %s has negative channel %d", ErrInvalidFixture, d.Address, ch.No)
		}
		if _, dup := seen[ch.No]; dup {
			return fmt.Errorf("%w: device %s repeats channel %d", ErrInvalidFixture, d.Address, ch.No)
		}
		seen[ch.No] = struct{}{}
		for param := range ch.Values {
			if _, ok := ch.Paramsets[homematic.ParamsetValues][param]; !ok {
				return fmt.Errorf("%w: value for undescribed parameter %s on %s:%d",
					ErrInvalidFixture, param, d.Address, ch.No)
			}
		}
	}
	return nil
}
