package entity

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/cache"
)

// Backend is the part of a backend client a device needs.
type Backend interface {
	Sender
	InterfaceID() string
	GetValue(ctx context.Context, channelAddress string, paramsetKey homematic.ParamsetKey, parameter string) (any, error)
}

// DataSource looks up bulk-loaded parameter values.
type DataSource interface {
	GetData(iface, channelAddress, parameter string) (any, bool)
}

// CustomEntity is a model-aware entity spanning several parameters.
type CustomEntity interface {
	UniqueID() string
	Name() string
	Platform() Platform
	ChannelNo() int
	ChannelAddress() string
	Usage() homematic.Usage
	StateUncertain() bool
	State() map[string]any
	LoadEntityValue(ctx context.Context) error
	OnUpdate(fn func())
}

// Platform names the kind of thing a custom entity presents as.
type Platform string

// Platforms.
const (
	PlatformCover  Platform = "cover"
	PlatformLight  Platform = "light"
	PlatformSwitch Platform = "switch"
)

// DeviceConfig describes a device to create.
type DeviceConfig struct {
	Address   string
	Model     string
	Interface string
	Firmware  string
	Backend   Backend
	Data      DataSource
	Logger    homematic.Logger
	Now       func() time.Time
}

// ErrNoBackend is returned when a device is created without a backend.
var ErrNoBackend = errors.New("entity: device backend is required")

// ErrNoAddress is returned when a device is created without an address.
var ErrNoAddress = errors.New("entity: device address is required")

type paramKey struct {
	channelAddress string
	paramsetKey    homematic.ParamsetKey
	parameter      string
}

// Device is a physical device with its channels and entities.
type Device struct {
	mu           sync.RWMutex
	address      string
	model        string
	iface        string
	firmware     string
	name         string
	backend      Backend
	data         DataSource
	logger       homematic.Logger
	now          func() time.Time
	channels     map[int]string
	channelNames map[string]string
	generic      map[paramKey]*GenericEntity
	custom       []CustomEntity
	hasCustomDef bool
	valueCache   map[paramKey]cache.Entry[any]
}

// NewDevice creates a device without channels.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	if cfg.Address == "" {
		return nil, ErrNoAddress
	}
	if cfg.Backend == nil {
		return nil, ErrNoBackend
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Device{
		address:      cfg.Address,
		model:        cfg.Model,
		iface:        cfg.Interface,
		firmware:     cfg.Firmware,
		name:         cfg.Model + "_" + cfg.Address,
		backend:      cfg.Backend,
		data:         cfg.Data,
		logger:       homematic.LoggerOrNop(cfg.Logger),
		now:          now,
		channels:     make(map[int]string),
		channelNames: make(map[string]string),
		generic:      make(map[paramKey]*GenericEntity),
		valueCache:   make(map[paramKey]cache.Entry[any]),
	}, nil
}

// Address returns the device address.
func (d *Device) Address() string { return d.address }

// Model returns the device type, e.g. "HmIP-BSL".
func (d *Device) Model() string { return d.model }

// Interface returns the interface name, e.g. "HmIP-RF".
func (d *Device) Interface() string { return d.iface }

// InterfaceID returns the id of the client the device belongs to.
func (d *Device) InterfaceID() string { return d.backend.InterfaceID() }

// Firmware returns the firmware version.
func (d *Device) Firmware() string { return d.firmware }

// Backend returns the client the device writes through.
func (d *Device) Backend() Backend { return d.backend }

// Name returns the device name.
func (d *Device) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

// SetName renames the device.
func (d *Device) SetName(name string) {
	d.mu.Lock()
	d.name = name
	d.mu.Unlock()
}

// AddChannel registers channel no.
func (d *Device) AddChannel(no int) string {
	address := homematic.ChannelAddress(d.address, no)
	d.mu.Lock()
	d.channels[no] = address
	d.mu.Unlock()
	return address
}

// ChannelAddresses returns the addresses of all channels, in channel order.
func (d *Device) ChannelAddresses() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	nos := make([]int, 0, len(d.channels))
	for no := range d.channels {
		nos = append(nos, no)
	}
	sort.Ints(nos)
	out := make([]string, 0, len(nos))
	for _, no := range nos {
		out = append(out, d.channels[no])
	}
	return out
}

// SetChannelName names a channel.
func (d *Device) SetChannelName(channelAddress, name string) {
	d.mu.Lock()
	d.channelNames[channelAddress] = name
	d.mu.Unlock()
}

// ChannelName returns the name of a channel, falling back to the device
// name with the channel number.
func (d *Device) ChannelName(channelAddress string) string {
	d.mu.RLock()
	name, ok := d.channelNames[channelAddress]
	d.mu.RUnlock()
	if ok {
		return name
	}
	no, _ := homematic.ChannelNo(channelAddress)
	return d.Name() + " ch" + strconv.Itoa(no)
}

// HasChannel reports whether channel no exists.
func (d *Device) HasChannel(no int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.channels[no]
	return ok
}

// AddGenericEntity creates the entity for one parameter.
func (d *Device) AddGenericEntity(channelAddress string, key homematic.ParamsetKey, parameter string, desc homematic.ParameterDescription) *GenericEntity {
	e := newGenericEntity(d, channelAddress, key, parameter, desc)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasCustomDef {
		e.usage = homematic.UsageNoCreate
	}
	d.generic[paramKey{channelAddress, key, parameter}] = e
	return e
}

// GenericEntity returns the VALUES entity of parameter on channelAddress,
// or nil.
func (d *Device) GenericEntity(channelAddress, parameter string) *GenericEntity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.generic[paramKey{channelAddress, homematic.ParamsetValues, parameter}]
}

// GenericEntities returns every generic entity, ordered by unique id.
func (d *Device) GenericEntities() []*GenericEntity {
	d.mu.RLock()
	out := make([]*GenericEntity, 0, len(d.generic))
	for _, e := range d.generic {
		out = append(out, e)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].uniqueID < out[j].uniqueID })
	return out
}

// MarkCustomDefinition flags the device as covered by a device profile.
// Generic entities created so far and later default to NO_CREATE.
func (d *Device) MarkCustomDefinition() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasCustomDef = true
	for _, e := range d.generic {
		if e.Usage() == homematic.UsageEntity {
			e.SetUsage(homematic.UsageNoCreate)
		}
	}
}

// HasCustomDefinition reports whether a device profile covers the device.
func (d *Device) HasCustomDefinition() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hasCustomDef
}

// AddCustomEntity attaches a custom entity.
func (d *Device) AddCustomEntity(e CustomEntity) {
	d.mu.Lock()
	d.custom = append(d.custom, e)
	d.mu.Unlock()
}

// CustomEntities returns the custom entities in creation order.
func (d *Device) CustomEntities() []CustomEntity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]CustomEntity(nil), d.custom...)
}

// CustomEntity returns the custom entity on channel no, or nil.
func (d *Device) CustomEntity(no int) CustomEntity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.custom {
		if e.ChannelNo() == no {
			return e
		}
	}
	return nil
}

// Event routes a backend event to the matching generic entity. It reports
// whether an entity took it.
func (d *Device) Event(channelAddress, parameter string, value any) bool {
	e := d.GenericEntity(channelAddress, parameter)
	if e == nil {
		return false
	}
	d.mu.Lock()
	delete(d.valueCache, paramKey{channelAddress, homematic.ParamsetValues, parameter})
	d.mu.Unlock()
	e.Event(value)
	return true
}

// LoadEntityValues loads every readable generic entity of the device.
func (d *Device) LoadEntityValues(ctx context.Context) error {
	var errs []error
	for _, e := range d.GenericEntities() {
		if err := e.LoadEntityValue(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// getValue resolves a parameter value: bulk data first for VALUES, then the
// device value cache, then the backend.
func (d *Device) getValue(ctx context.Context, channelAddress string, key homematic.ParamsetKey, parameter string) (any, bool, error) {
	if key == homematic.ParamsetValues && d.data != nil {
		if v, ok := d.data.GetData(d.iface, channelAddress, parameter); ok {
			return v, true, nil
		}
	}

	pk := paramKey{channelAddress, key, parameter}
	now := d.now()
	d.mu.RLock()
	entry, ok := d.valueCache[pk]
	d.mu.RUnlock()
	if ok && entry.Valid(homematic.MaxCacheAge, now) {
		return entry.Value, true, nil
	}

	v, err := d.backend.GetValue(ctx, channelAddress, key, parameter)
	if err != nil {
		return nil, false, err
	}
	d.mu.Lock()
	d.valueCache[pk] = cache.NewEntry(v, now)
	d.mu.Unlock()
	return v, true, nil
}
