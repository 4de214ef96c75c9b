package client

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/cache"
)

// ModelLocal is the backend model reported by Local.
const ModelLocal = "PyDevCCU"

// LocalConfig configures a Local backend.
type LocalConfig struct {
	// InterfaceID identifies the client within its central. Required.
	InterfaceID string

	// Interface is the interface name, e.g. "HmIP-RF". Defaults to Local.
	Interface string

	// InstanceName is the central name, reported in ping-pong events.
	InstanceName string

	// Fixture optionally seeds the backend with devices.
	Fixture *Fixture

	// DisablePingPong turns the ping-pong check off.
	DisablePingPong bool

	// PingPongAllowedDelta is the mismatch threshold of the ping-pong
	// cache. Nil selects homematic.PingPongMismatchCount; zero is kept.
	PingPongAllowedDelta *int

	// Sink receives device details, bulk data and events. Required.
	Sink Sink

	// FireEvent receives the interface events of the ping-pong cache.
	FireEvent homematic.EventFunc

	Logger homematic.Logger
	Now    func() time.Time
}

type localChannel struct {
	name      string
	id        string
	rooms     []string
	functions []string
	paramsets homematic.ParamsetDescriptions
	values    map[string]any
	master    map[string]any
}

// Local is an in-memory backend. It is safe for concurrent use.
type Local struct {
	mu          sync.RWMutex
	interfaceID string
	iface       string
	sink        Sink
	logger      homematic.Logger
	now         func() time.Time
	pingPong    *cache.PingPongCache
	devices     map[string]homematic.DeviceDescription
	deviceNames map[string]string
	channels    map[string]*localChannel
	sysvars     map[string]any
	nextID      int
	connected   bool
	answerPings bool
}

// NewLocal creates a Local backend.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.InterfaceID == "" {
		return nil, ErrNoInterfaceID
	}
	if cfg.Sink == nil {
		return nil, ErrNoSink
	}
	if cfg.Interface == "" {
		cfg.Interface = homematic.InterfaceLocal
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	l := &Local{
		interfaceID: cfg.InterfaceID,
		iface:       cfg.Interface,
		sink:        cfg.Sink,
		logger:      homematic.LoggerOrNop(cfg.Logger),
		now:         now,
		devices:     make(map[string]homematic.DeviceDescription),
		deviceNames: make(map[string]string),
		channels:    make(map[string]*localChannel),
		sysvars:     make(map[string]any),
		nextID:      1000,
		connected:   true,
		answerPings: true,
	}

	if !cfg.DisablePingPong {
		fire := cfg.FireEvent
		if fire == nil {
			fire = func(homematic.EventType, map[string]any) {}
		}
		delta := homematic.PingPongMismatchCount
		if cfg.PingPongAllowedDelta != nil {
			delta = *cfg.PingPongAllowedDelta
		}
		pp, err := cache.NewPingPongCache(cache.PingPongConfig{
			InterfaceID:  cfg.InterfaceID,
			InstanceName: cfg.InstanceName,
			AllowedDelta: delta,
			FireEvent:    fire,
			Logger:       cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating ping pong cache: %w", err)
		}
		pp.SetClock(now)
		l.pingPong = pp
	}

	if cfg.Fixture != nil {
		for _, d := range cfg.Fixture.Devices {
			if err := l.AddDevice(d); err != nil {
				return nil, err
			}
		}
	}
	return l, nil
}

// AddDevice adds a device and its channels. Adding an address twice
// replaces the earlier device.
func (l *Local) AddDevice(d FixtureDevice) error {
	if err := d.validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.removeLocked(d.Address)

	children := make([]string, 0, len(d.Channels))
	for _, ch := range d.Channels {
		children = append(children, homematic.ChannelAddress(d.Address, ch.No))
	}
	l.devices[d.Address] = homematic.DeviceDescription{
		Address:  d.Address,
		Type:     d.Type,
		Firmware: d.Firmware,
		Children: children,
	}
	if d.Name != "" {
		l.deviceNames[d.Address] = d.Name
	}
	for _, ch := range d.Channels {
		address := homematic.ChannelAddress(d.Address, ch.No)
		keys := make([]homematic.ParamsetKey, 0, len(ch.Paramsets))
		for key := range ch.Paramsets {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
		l.devices[address] = homematic.DeviceDescription{
			Address:   address,
			Type:      d.Type,
			Parent:    d.Address,
			Paramsets: keys,
		}
		l.channels[address] = &localChannel{
			name:      ch.Name,
			id:        strconv.Itoa(l.nextID),
			rooms:     append([]string(nil), ch.Rooms...),
			functions: append([]string(nil), ch.Functions...),
			paramsets: ch.Paramsets,
			values:    copyValues(ch.Values),
			master:    copyValues(ch.Master),
		}
		l.nextID++
	}
	return nil
}

// RemoveDevice drops a device and its channels.
func (l *Local) RemoveDevice(address string) {
	l.mu.Lock()
	l.removeLocked(address)
	l.mu.Unlock()
}

func (l *Local) removeLocked(address string) {
	desc, ok := l.devices[address]
	if !ok {
		return
	}
	for _, child := range desc.Children {
		delete(l.devices, child)
		delete(l.channels, child)
	}
	delete(l.devices, address)
	delete(l.deviceNames, address)
}

// InterfaceID returns the client's interface id.
func (l *Local) InterfaceID() string { return l.interfaceID }

// Interface returns the interface name.
func (l *Local) Interface() string { return l.iface }

// Model returns ModelLocal.
func (l *Local) Model() string { return ModelLocal }

// SupportsPingPong reports whether the ping-pong check is enabled.
func (l *Local) SupportsPingPong() bool { return l.pingPong != nil }

// PingPong returns the ping-pong cache, or nil.
func (l *Local) PingPong() *cache.PingPongCache { return l.pingPong }

// SetConnected simulates the backend going away or coming back.
func (l *Local) SetConnected(connected bool) {
	l.mu.Lock()
	l.connected = connected
	l.mu.Unlock()
}

// SetAnswerPings controls whether pings are answered with a PONG event.
func (l *Local) SetAnswerPings(answer bool) {
	l.mu.Lock()
	l.answerPings = answer
	l.mu.Unlock()
}

// IsConnected reports whether the backend is reachable.
func (l *Local) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}

// ListDevices returns the descriptions of every device and channel,
// ordered by address.
func (l *Local) ListDevices(ctx context.Context) ([]homematic.DeviceDescription, error) {
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	l.mu.RLock()
	out := make([]homematic.DeviceDescription, 0, len(l.devices))
	for _, d := range l.devices {
		d.Children = append([]string(nil), d.Children...)
		d.Paramsets = append([]homematic.ParamsetKey(nil), d.Paramsets...)
		out = append(out, d)
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

// GetParamsetDescriptions returns the paramset descriptions of a channel.
func (l *Local) GetParamsetDescriptions(ctx context.Context, address string) (homematic.ParamsetDescriptions, error) {
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	ch, ok := l.channels[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAddress, address)
	}
	out := make(homematic.ParamsetDescriptions, len(ch.paramsets))
	for key, params := range ch.paramsets {
		copied := make(map[string]homematic.ParameterDescription, len(params))
		for name, desc := range params {
			copied[name] = desc
		}
		out[key] = copied
	}
	return out, nil
}

// FetchDeviceDetails pushes names, interfaces and channel ids to the sink.
func (l *Local) FetchDeviceDetails(ctx context.Context) error {
	if err := l.check(ctx); err != nil {
		return err
	}

	type detail struct{ address, name, id string }
	var details []detail

	l.mu.RLock()
	for address, d := range l.devices {
		if d.IsChannel() {
			continue
		}
		details = append(details, detail{address: address, name: l.deviceNames[address]})
	}
	for address, ch := range l.channels {
		details = append(details, detail{address: address, name: ch.name, id: ch.id})
	}
	l.mu.RUnlock()

	sort.Slice(details, func(i, j int) bool { return details[i].address < details[j].address })
	for _, d := range details {
		if d.name != "" {
			l.sink.AddName(d.address, d.name)
		}
		l.sink.AddInterface(d.address, l.iface)
		if d.id != "" {
			l.sink.AddDeviceChannelID(d.address, d.id)
		}
	}
	return nil
}

// FetchAllDeviceData pushes every VALUES parameter value to the sink.
func (l *Local) FetchAllDeviceData(ctx context.Context) error {
	if err := l.check(ctx); err != nil {
		return err
	}
	data := make(map[string]any)
	l.mu.RLock()
	for address, ch := range l.channels {
		for param, value := range ch.values {
			data[cache.DataKey(l.iface, address, param)] = value
		}
	}
	l.mu.RUnlock()
	l.sink.AddData(data)
	return nil
}

// GetAllRooms returns the rooms of every channel that has any.
func (l *Local) GetAllRooms(ctx context.Context) (map[string][]string, error) {
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string][]string)
	for address, ch := range l.channels {
		if len(ch.rooms) > 0 {
			out[address] = append([]string(nil), ch.rooms...)
		}
	}
	return out, nil
}

// GetAllFunctions returns the functions of every channel that has any.
func (l *Local) GetAllFunctions(ctx context.Context) (map[string][]string, error) {
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string][]string)
	for address, ch := range l.channels {
		if len(ch.functions) > 0 {
			out[address] = append([]string(nil), ch.functions...)
		}
	}
	return out, nil
}

// GetValue returns the current value of a parameter, or its default when
// none was ever set.
func (l *Local) GetValue(ctx context.Context, channelAddress string, paramsetKey homematic.ParamsetKey, parameter string) (any, error) {
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	ch, desc, err := l.lookupLocked(channelAddress, paramsetKey, parameter)
	if err != nil {
		return nil, err
	}
	if v, ok := ch.store(paramsetKey)[parameter]; ok {
		return v, nil
	}
	return desc.Default, nil
}

// SetValue stores a value. VALUES writes are echoed to the sink as events.
func (l *Local) SetValue(ctx context.Context, channelAddress string, paramsetKey homematic.ParamsetKey, parameter string, value any) error {
	return l.PutParamset(ctx, channelAddress, paramsetKey, map[string]any{parameter: value})
}

// PutParamset stores several values of one channel at once. Nothing is
// stored when any parameter is unknown.
func (l *Local) PutParamset(ctx context.Context, address string, paramsetKey homematic.ParamsetKey, values map[string]any) error {
	if err := l.check(ctx); err != nil {
		return err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	l.mu.Lock()
	for _, name := range names {
		if _, _, err := l.lookupLocked(address, paramsetKey, name); err != nil {
			l.mu.Unlock()
			return err
		}
	}
	ch := l.channels[address]
	store := ch.store(paramsetKey)
	for _, name := range names {
		store[name] = values[name]
	}
	l.mu.Unlock()

	l.logger.Debug("local backend write",
		"interface_id", l.interfaceID,
		"address", address,
		"paramset_key", paramsetKey,
		"values", values,
	)

	if paramsetKey != homematic.ParamsetValues {
		return nil
	}
	for _, name := range names {
		l.sink.Event(l.interfaceID, address, name, values[name])
	}
	return nil
}

// SetSystemVariable stores a system variable.
func (l *Local) SetSystemVariable(ctx context.Context, name string, value any) error {
	if err := l.check(ctx); err != nil {
		return err
	}
	l.mu.Lock()
	l.sysvars[name] = value
	l.mu.Unlock()
	return nil
}

// SystemVariable returns a stored system variable.
func (l *Local) SystemVariable(name string) (any, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.sysvars[name]
	return v, ok
}

// CheckConnectionAvailability reports whether the backend is connected.
// With handlePingPong set it also sends a ping, answered by a PONG event
// unless SetAnswerPings(false) was called.
func (l *Local) CheckConnectionAvailability(ctx context.Context, handlePingPong bool) bool {
	if err := l.check(ctx); err != nil {
		return false
	}
	if !handlePingPong || l.pingPong == nil {
		return true
	}

	ts := l.now()
	l.pingPong.HandleSendPing(ts)

	l.mu.RLock()
	answer := l.answerPings
	l.mu.RUnlock()
	if answer {
		l.sink.Event(l.interfaceID, "", homematic.PongParameter, PongPayload(l.interfaceID, ts))
	}
	return true
}

func (l *Local) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !l.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

func (l *Local) lookupLocked(address string, key homematic.ParamsetKey, parameter string) (*localChannel, homematic.ParameterDescription, error) {
	ch, ok := l.channels[address]
	if !ok {
		return nil, homematic.ParameterDescription{}, fmt.Errorf("%w: %s", ErrUnknownAddress, address)
	}
	desc, ok := ch.paramsets[key][parameter]
	if !ok {
		return nil, homematic.ParameterDescription{}, fmt.Errorf("%w: %s %s.%s", ErrUnknownParameter, address, key, parameter)
	}
	return ch, desc, nil
}

func (c *localChannel) store(key homematic.ParamsetKey) map[string]any {
	if key == homematic.ParamsetMaster {
		return c.master
	}
	return c.values
}

func copyValues(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
