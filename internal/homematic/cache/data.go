package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

// DataClient is a backend client that can push all device data at once.
// It hands the data back through CentralDataCache.AddData.
type DataClient interface {
	FetchAllDeviceData(ctx context.Context) error
}

// ReadableEntity is a generic entity whose value can be loaded.
type ReadableEntity interface {
	UniqueID() string
	LoadEntityValue(ctx context.Context) error
}

// DataCacheConfig wires a CentralDataCache to its central.
type DataCacheConfig struct {
	// Clients returns every connected client.
	Clients func() []DataClient

	// ReadableEntities returns readable generic entities, optionally
	// filtered by paramset key. An empty key means no filter.
	ReadableEntities func(paramsetKey homematic.ParamsetKey) []ReadableEntity

	Logger homematic.Logger
}

// CentralDataCache holds the last known raw values of all channels.
type CentralDataCache struct {
	mu            sync.Mutex
	cfg           DataCacheConfig
	logger        homematic.Logger
	now           func() time.Time
	values        map[string]any
	lastRefreshed time.Time
}

// NewCentralDataCache creates an empty data cache.
func NewCentralDataCache(cfg DataCacheConfig) *CentralDataCache {
	return &CentralDataCache{
		cfg:    cfg,
		logger: homematic.LoggerOrNop(cfg.Logger),
		now:    time.Now,
		values: make(map[string]any),
	}
}

// SetClock replaces the time source.
func (c *CentralDataCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// DataKey builds the cache key of a parameter value.
func DataKey(iface, channelAddress, parameter string) string {
	return iface + "." + strings.ReplaceAll(channelAddress, ":", "%3A") + "." + parameter
}

// IsEmpty reports whether the cache holds no usable data. A stale cache is
// cleared and reported empty.
func (c *CentralDataCache) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isEmptyLocked()
}

func (c *CentralDataCache) isEmptyLocked() bool {
	if len(c.values) == 0 {
		return true
	}
	if !ChangedWithin(c.lastRefreshed, homematic.MaxCacheAge, c.now()) {
		c.clearLocked()
		return true
	}
	return false
}

// Load clears the cache and asks every client for all device data. It is a
// no-op when data arrived less than half of MaxCacheAge ago.
func (c *CentralDataCache) Load(ctx context.Context) {
	c.mu.Lock()
	if ChangedWithin(c.lastRefreshed, homematic.MaxCacheAge/2, c.now()) {
		c.mu.Unlock()
		return
	}
	c.clearLocked()
	c.mu.Unlock()

	if c.cfg.Clients == nil {
		return
	}
	for _, client := range c.cfg.Clients() {
		if err := client.FetchAllDeviceData(ctx); err != nil {
			c.logger.Warn("fetching all device data failed", "error", err)
		}
	}
}

// RefreshEntityData reloads every readable generic entity, one at a time.
// A failing entity is logged and the loop carries on.
func (c *CentralDataCache) RefreshEntityData(ctx context.Context, paramsetKey homematic.ParamsetKey) {
	if c.cfg.ReadableEntities == nil {
		return
	}
	for _, e := range c.cfg.ReadableEntities(paramsetKey) {
		if err := e.LoadEntityValue(ctx); err != nil {
			c.logger.Warn("refreshing entity data failed",
				"entity", e.UniqueID(),
				"error", err,
			)
		}
	}
}

// AddData merges data into the cache and stamps the refresh time.
func (c *CentralDataCache) AddData(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range data {
		c.values[k] = v
	}
	c.lastRefreshed = c.now()
}

// GetData returns the cached value of a parameter. ok is false when there is
// no entry or the cache is stale.
func (c *CentralDataCache) GetData(iface, channelAddress, parameter string) (value any, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isEmptyLocked() {
		return nil, false
	}
	value, ok = c.values[DataKey(iface, channelAddress, parameter)]
	return value, ok
}

// Len returns the number of cached values.
func (c *CentralDataCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// Clear empties the cache.
func (c *CentralDataCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *CentralDataCache) clearLocked() {
	c.values = make(map[string]any)
	c.lastRefreshed = time.Time{}
}
