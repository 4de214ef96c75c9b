package central

import (
	"slices"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/client"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"
)

var _ client.Sink = (*Central)(nil)

// AddName records a device or channel name reported by a client.
func (c *Central) AddName(address, name string) { c.details.AddName(address, name) }

// AddInterface records the interface of an address.
func (c *Central) AddInterface(address, iface string) { c.details.AddInterface(address, iface) }

// AddDeviceChannelID records the backend id of an address.
func (c *Central) AddDeviceChannelID(address, channelID string) {
	c.details.AddDeviceChannelID(address, channelID)
}

// AddData merges bulk values into the data cache.
func (c *Central) AddData(data map[string]any) { c.data.AddData(data) }

// Event handles a parameter event from a backend client.
//
// A PONG is matched against the ping-pong cache of the client it names,
// but only when that is the client the event arrived on; pongs meant for
// another interface are dropped. Other events go to the device owning
// channelAddress.
func (c *Central) Event(interfaceID, channelAddress, parameter string, value any) {
	if parameter == homematic.PongParameter {
		c.handlePong(interfaceID, value)
		return
	}

	d, ok := c.Device(homematic.DeviceAddress(channelAddress))
	if !ok {
		c.logger.Debug("event for unknown device",
			"interface_id", interfaceID,
			"address", channelAddress,
			"parameter", parameter,
		)
		return
	}
	if !d.Event(channelAddress, parameter, value) {
		c.logger.Debug("event for unknown parameter",
			"address", channelAddress,
			"parameter", parameter,
		)
	}
}

func (c *Central) handlePong(interfaceID string, value any) {
	pongInterfaceID, ts, err := client.ParsePongPayload(value)
	if err != nil {
		c.logger.Debug("ignoring pong", "interface_id", interfaceID, "error", err)
		return
	}
	if pongInterfaceID != interfaceID {
		return
	}
	cl, ok := c.Client(interfaceID)
	if !ok || !cl.SupportsPingPong() || cl.PingPong() == nil {
		return
	}
	cl.PingPong().HandleReceivedPong(ts)
}

// AddEventHandler registers fn for every event fired by the central, the
// ping-pong caches included when they fire through FireEvent.
func (c *Central) AddEventHandler(fn homematic.EventFunc) {
	c.mu.Lock()
	c.eventHandlers = append(c.eventHandlers, fn)
	c.mu.Unlock()
}

// AddEntityUpdateHandler registers fn to run whenever a custom entity
// changes state.
func (c *Central) AddEntityUpdateHandler(fn func(entity.CustomEntity)) {
	c.mu.Lock()
	c.updateHandlers = append(c.updateHandlers, fn)
	c.mu.Unlock()
}

// FireEvent hands an event to every registered handler.
func (c *Central) FireEvent(eventType homematic.EventType, data map[string]any) {
	c.mu.RLock()
	handlers := append([]homematic.EventFunc(nil), c.eventHandlers...)
	c.mu.RUnlock()
	for _, fn := range handlers {
		fn(eventType, data)
	}
}

func (c *Central) entityUpdated(e entity.CustomEntity) {
	c.mu.RLock()
	handlers := slices.Clone(c.updateHandlers)
	c.mu.RUnlock()
	for _, fn := range handlers {
		fn(e)
	}
}
