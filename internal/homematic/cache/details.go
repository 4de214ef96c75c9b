package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

// DetailsClient is the part of a backend client the details cache loads from.
// FetchDeviceDetails pushes names, interfaces and channel ids back through
// the cache's DetailsSink methods while it runs.
type DetailsClient interface {
	FetchDeviceDetails(ctx context.Context) error
	GetAllRooms(ctx context.Context) (map[string][]string, error)
	GetAllFunctions(ctx context.Context) (map[string][]string, error)
}

// DetailsSink receives device details from a backend client.
type DetailsSink interface {
	AddName(address, name string)
	AddInterface(address, iface string)
	AddDeviceChannelID(address, channelID string)
}

// Device is anything with a device address and channel addresses.
type Device interface {
	Address() string
	ChannelAddresses() []string
}

// DeviceDetailsCache caches names, rooms, functions and interfaces.
//
// Names, rooms and functions are rebuilt on every load. Channel ids and
// interfaces survive Clear and only ever grow.
type DeviceDetailsCache struct {
	mu               sync.RWMutex
	primary          func() DetailsClient
	logger           homematic.Logger
	now              func() time.Time
	names            map[string]string
	channelRooms     map[string][]string
	functions        map[string][]string
	deviceChannelIDs map[string]string
	interfaces       map[string]string
	lastRefreshed    time.Time
}

// NewDeviceDetailsCache creates a details cache loading from the client
// returned by primary. primary may return nil while no client is connected.
func NewDeviceDetailsCache(primary func() DetailsClient, logger homematic.Logger) *DeviceDetailsCache {
	return &DeviceDetailsCache{
		primary:          primary,
		logger:           homematic.LoggerOrNop(logger),
		now:              time.Now,
		names:            make(map[string]string),
		channelRooms:     make(map[string][]string),
		functions:        make(map[string][]string),
		deviceChannelIDs: make(map[string]string),
		interfaces:       make(map[string]string),
	}
}

// SetClock replaces the time source.
func (c *DeviceDetailsCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Load refreshes the cache from the primary client. It is a no-op when the
// previous load finished less than half of MaxCacheAge ago.
func (c *DeviceDetailsCache) Load(ctx context.Context) error {
	c.mu.RLock()
	fresh := ChangedWithin(c.lastRefreshed, homematic.MaxCacheAge/2, c.now())
	c.mu.RUnlock()
	if fresh {
		return nil
	}

	c.Clear()

	var client DetailsClient
	if c.primary != nil {
		client = c.primary()
	}
	if client == nil {
		c.logger.Debug("device details load skipped, no primary client")
		c.mu.Lock()
		c.lastRefreshed = c.now()
		c.mu.Unlock()
		return nil
	}

	if err := client.FetchDeviceDetails(ctx); err != nil {
		return fmt.Errorf("fetching device details: %w", err)
	}
	rooms, err := client.GetAllRooms(ctx)
	if err != nil {
		return fmt.Errorf("fetching rooms: %w", err)
	}
	functions, err := client.GetAllFunctions(ctx)
	if err != nil {
		return fmt.Errorf("fetching functions: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelRooms = normaliseSets(rooms)
	c.functions = normaliseSets(functions)
	c.lastRefreshed = c.now()
	return nil
}

// AddName stores the name of an address unless one is already known.
func (c *DeviceDetailsCache) AddName(address, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.names[address]; !ok {
		c.names[address] = name
	}
}

// GetName returns the name of a device or channel.
func (c *DeviceDetailsCache) GetName(address string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[address]
	return name, ok
}

// AddInterface records the interface of an address. The first writer wins.
func (c *DeviceDetailsCache) AddInterface(address, iface string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.interfaces[address]; !ok {
		c.interfaces[address] = iface
	}
}

// GetInterface returns the interface of address, or the default interface.
func (c *DeviceDetailsCache) GetInterface(address string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if iface, ok := c.interfaces[address]; ok {
		return iface
	}
	return homematic.DefaultInterface
}

// AddDeviceChannelID maps an address to its backend channel id.
func (c *DeviceDetailsCache) AddDeviceChannelID(address, channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deviceChannelIDs[address] = channelID
}

// DeviceChannelIDs returns a copy of the address to channel id map.
func (c *DeviceDetailsCache) DeviceChannelIDs() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make(map[string]string, len(c.deviceChannelIDs))
	for k, v := range c.deviceChannelIDs {
		ids[k] = v
	}
	return ids
}

// GetDeviceRooms returns the sorted union of the rooms of every channel whose
// address starts with deviceAddress.
func (c *DeviceDetailsCache) GetDeviceRooms(deviceAddress string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	for address, rooms := range c.channelRooms {
		if !strings.HasPrefix(address, deviceAddress) {
			continue
		}
		for _, room := range rooms {
			seen[room] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for room := range seen {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// GetChannelRooms returns the rooms of a single channel.
func (c *DeviceDetailsCache) GetChannelRooms(channelAddress string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.channelRooms[channelAddress]...)
}

// GetFunctionText returns the functions of address joined with commas.
func (c *DeviceDetailsCache) GetFunctionText(address string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	functions := c.functions[address]
	if len(functions) == 0 {
		return "", false
	}
	return strings.Join(functions, ","), true
}

// RemoveDevice drops the names of a device and its channels.
// Rooms, functions, interfaces and channel ids are left alone.
func (c *DeviceDetailsCache) RemoveDevice(device Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.names, device.Address())
	for _, address := range device.ChannelAddresses() {
		delete(c.names, address)
	}
}

// Clear drops names, rooms and functions and resets the refresh time.
func (c *DeviceDetailsCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = make(map[string]string)
	c.channelRooms = make(map[string][]string)
	c.functions = make(map[string][]string)
	c.lastRefreshed = time.Time{}
}

// normaliseSets de-duplicates each value list, keeping first-seen order.
func normaliseSets(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for key, values := range in {
		var set []string
		for _, v := range values {
			set = appendUnique(set, v)
		}
		out[key] = set
	}
	return out
}

func appendUnique(set []string, v string) []string {
	for _, existing := range set {
		if existing == v {
			return set
		}
	}
	return append(set, v)
}
