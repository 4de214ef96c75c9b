package central

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/cache"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/client"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/profile"
)

// DefaultConnectionCheckInterval is used when Config leaves it zero.
const DefaultConnectionCheckInterval = 15 * time.Second

// Config configures a Central.
type Config struct {
	// Name identifies the central, e.g. "ccu". Required.
	Name string

	// ConnectionCheckInterval is the period of the connection checker.
	ConnectionCheckInterval time.Duration

	// Registry maps device models to custom entities. Required.
	Registry *profile.Registry

	Logger homematic.Logger
	Now    func() time.Time
}

// Central is the hub between backend clients and entities.
// It is safe for concurrent use.
type Central struct {
	name     string
	interval time.Duration
	registry *profile.Registry
	logger   homematic.Logger
	now      func() time.Time

	details *cache.DeviceDetailsCache
	data    *cache.CentralDataCache

	mu             sync.RWMutex
	clients        map[string]client.Client
	clientOrder    []string
	devices        map[string]*entity.Device
	available      map[string]bool
	eventHandlers  []homematic.EventFunc
	updateHandlers []func(entity.CustomEntity)
	started        bool
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// New creates a central without clients.
func New(cfg Config) (*Central, error) {
	if cfg.Name == "" {
		return nil, ErrNoName
	}
	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}
	if cfg.ConnectionCheckInterval <= 0 {
		cfg.ConnectionCheckInterval = DefaultConnectionCheckInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	c := &Central{
		name:      cfg.Name,
		interval:  cfg.ConnectionCheckInterval,
		registry:  cfg.Registry,
		logger:    homematic.LoggerOrNop(cfg.Logger),
		now:       now,
		clients:   make(map[string]client.Client),
		devices:   make(map[string]*entity.Device),
		available: make(map[string]bool),
	}
	c.details = cache.NewDeviceDetailsCache(c.primaryDetailsClient, c.logger)
	c.details.SetClock(now)
	c.data = cache.NewCentralDataCache(cache.DataCacheConfig{
		Clients:          c.dataClients,
		ReadableEntities: c.readableEntities,
		Logger:           c.logger,
	})
	c.data.SetClock(now)
	return c, nil
}

// Name returns the central name.
func (c *Central) Name() string { return c.name }

// DeviceDetails returns the shared device details cache.
func (c *Central) DeviceDetails() *cache.DeviceDetailsCache { return c.details }

// DataCache returns the shared bulk data cache.
func (c *Central) DataCache() *cache.CentralDataCache { return c.data }

// AddClient registers a backend client. The first client added is the
// primary one the device details are loaded from.
func (c *Central) AddClient(cl client.Client) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	id := cl.InterfaceID()
	if _, dup := c.clients[id]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateClient, id)
	}
	c.clients[id] = cl
	c.clientOrder = append(c.clientOrder, id)
	c.available[id] = true
	return nil
}

// Client returns the client with the given interface id.
func (c *Central) Client(interfaceID string) (client.Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cl, ok := c.clients[interfaceID]
	return cl, ok
}

// Clients returns every client in the order they were added.
func (c *Central) Clients() []client.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]client.Client, 0, len(c.clientOrder))
	for _, id := range c.clientOrder {
		out = append(out, c.clients[id])
	}
	return out
}

// PrimaryClient returns the first client added, or nil.
func (c *Central) PrimaryClient() client.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.clientOrder) == 0 {
		return nil
	}
	return c.clients[c.clientOrder[0]]
}

// Start loads device details, creates all devices, loads their values and
// starts the connection checker. Failures of single clients are logged and
// do not stop the others.
func (c *Central) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	if err := c.details.Load(ctx); err != nil {
		c.logger.Warn("loading device details failed", "central", c.name, "error", err)
	}

	for _, cl := range c.Clients() {
		if err := c.createDevices(ctx, cl); err != nil {
			c.logger.Error("creating devices failed",
				"central", c.name,
				"interface_id", cl.InterfaceID(),
				"error", err,
			)
		}
	}
	c.updateNames()

	c.LoadAndRefreshEntityData(ctx, homematic.ParamsetValues)

	checkCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	c.wg.Add(1)
	go c.runConnectionChecker(checkCtx)

	c.logger.Info("central started",
		"central", c.name,
		"clients", len(c.Clients()),
		"devices", len(c.Devices()),
	)
	return nil
}

// Stop halts the connection checker and waits for it to exit.
func (c *Central) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	c.wg.Wait()
	c.logger.Info("central stopped", "central", c.name)
}

// LoadAndRefreshEntityData reloads entity values. For VALUES the bulk data
// cache is loaded first when it is empty. MASTER values always come from
// the backend one by one.
func (c *Central) LoadAndRefreshEntityData(ctx context.Context, paramsetKey homematic.ParamsetKey) {
	if paramsetKey != homematic.ParamsetMaster && c.data.IsEmpty() {
		c.data.Load(ctx)
	}
	c.data.RefreshEntityData(ctx, paramsetKey)
}

// ClearCaches empties the details and data caches and every ping-pong cache.
func (c *Central) ClearCaches() {
	c.details.Clear()
	c.data.Clear()
	for _, cl := range c.Clients() {
		if pp := cl.PingPong(); pp != nil {
			pp.Clear()
		}
	}
}

// SetSystemVariable writes a system variable through the primary client.
func (c *Central) SetSystemVariable(ctx context.Context, name string, value any) error {
	cl := c.PrimaryClient()
	if cl == nil {
		return ErrNoClient
	}
	if err := cl.SetSystemVariable(ctx, name, value); err != nil {
		return fmt.Errorf("setting system variable %s: %w", name, err)
	}
	return nil
}

func (c *Central) createDevices(ctx context.Context, cl client.Client) error {
	descs, err := cl.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}

	var errs []error
	for _, desc := range descs {
		if desc.IsChannel() {
			continue
		}
		if err := c.createDevice(ctx, cl, desc); err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", desc.Address, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Central) createDevice(ctx context.Context, cl client.Client, desc homematic.DeviceDescription) error {
	c.mu.RLock()
	_, exists := c.devices[desc.Address]
	c.mu.RUnlock()
	if exists {
		return nil
	}

	d, err := entity.NewDevice(entity.DeviceConfig{
		Address:   desc.Address,
		Model:     desc.Type,
		Interface: cl.Interface(),
		Firmware:  desc.Firmware,
		Backend:   cl,
		Data:      c.data,
		Logger:    c.logger,
		Now:       c.now,
	})
	if err != nil {
		return err
	}

	for _, child := range desc.Children {
		no, ok := homematic.ChannelNo(child)
		if !ok {
			continue
		}
		address := d.AddChannel(no)
		paramsets, err := cl.GetParamsetDescriptions(ctx, address)
		if err != nil {
			return fmt.Errorf("fetching paramset descriptions of %s: %w", address, err)
		}
		for name, pd := range paramsets[homematic.ParamsetValues] {
			d.AddGenericEntity(address, homematic.ParamsetValues, name, pd)
		}
	}

	customs, err := c.registry.Build(d)
	if err != nil {
		c.logger.Warn("building custom entities failed",
			"device", d.Address(),
			"model", d.Model(),
			"error", err,
		)
	}
	for _, e := range customs {
		e.OnUpdate(func() { c.entityUpdated(e) })
	}

	c.mu.Lock()
	c.devices[d.Address()] = d
	c.mu.Unlock()

	c.logger.Debug("device created",
		"device", d.Address(),
		"model", d.Model(),
		"interface_id", cl.InterfaceID(),
		"custom_entities", len(customs),
	)
	return nil
}

func (c *Central) updateNames() {
	for _, d := range c.Devices() {
		if name, ok := c.details.GetName(d.Address()); ok {
			d.SetName(name)
		}
		for _, address := range d.ChannelAddresses() {
			if name, ok := c.details.GetName(address); ok {
				d.SetChannelName(address, name)
			}
		}
	}
}

// RemoveDevice forgets a device and its details.
func (c *Central) RemoveDevice(address string) error {
	c.mu.Lock()
	d, ok := c.devices[address]
	delete(c.devices, address)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, address)
	}
	c.details.RemoveDevice(d)
	c.logger.Info("device removed", "device", address)
	return nil
}

// Device returns the device with the given address.
func (c *Central) Device(address string) (*entity.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.devices[address]
	return d, ok
}

// Devices returns every device ordered by address.
func (c *Central) Devices() []*entity.Device {
	c.mu.RLock()
	out := make([]*entity.Device, 0, len(c.devices))
	for _, d := range c.devices {
		out = append(out, d)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Address() < out[j].Address() })
	return out
}

// Entities returns the custom entities of every device, ordered by device
// address and then creation order.
func (c *Central) Entities() []entity.CustomEntity {
	var out []entity.CustomEntity
	for _, d := range c.Devices() {
		out = append(out, d.CustomEntities()...)
	}
	return out
}

// Entity returns the custom entity with the given unique id.
func (c *Central) Entity(uniqueID string) (entity.CustomEntity, error) {
	for _, e := range c.Entities() {
		if e.UniqueID() == uniqueID {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, uniqueID)
}

func (c *Central) primaryDetailsClient() cache.DetailsClient {
	cl := c.PrimaryClient()
	if cl == nil {
		return nil
	}
	return cl
}

func (c *Central) dataClients() []cache.DataClient {
	clients := c.Clients()
	out := make([]cache.DataClient, 0, len(clients))
	for _, cl := range clients {
		out = append(out, cl)
	}
	return out
}

func (c *Central) readableEntities(paramsetKey homematic.ParamsetKey) []cache.ReadableEntity {
	var out []cache.ReadableEntity
	for _, d := range c.Devices() {
		for _, e := range d.GenericEntities() {
			if !e.Readable() {
				continue
			}
			if paramsetKey != "" && e.ParamsetKey() != paramsetKey {
				continue
			}
			out = append(out, e)
		}
	}
	return out
}
