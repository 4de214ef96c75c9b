package central

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

func (c *Central) runConnectionChecker(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckConnections(ctx)
		}
	}
}

// CheckConnections checks every client once. A client that comes back
// after being unavailable gets its ping-pong cache cleared and its entity
// data reloaded. Availability changes are fired as interface events.
func (c *Central) CheckConnections(ctx context.Context) {
	recovered := false
	for _, cl := range c.Clients() {
		id := cl.InterfaceID()
		ok := cl.CheckConnectionAvailability(ctx, true)

		c.mu.Lock()
		was := c.available[id]
		c.available[id] = ok
		c.mu.Unlock()

		if ok == was {
			continue
		}
		if ok {
			c.logger.Info("connection restored", "interface_id", id)
			if pp := cl.PingPong(); pp != nil {
				pp.Clear()
			}
			recovered = true
		} else {
			c.logger.Warn("connection lost", "interface_id", id)
		}
		c.FireEvent(homematic.EventInterface, map[string]any{
			homematic.EventKeyInterfaceID: id,
			homematic.EventKeyType:        homematic.InterfaceProxy,
			homematic.EventKeyData: map[string]any{
				homematic.EventKeyAvailable: ok,
			},
		})
	}
	if recovered {
		c.data.Clear()
		c.LoadAndRefreshEntityData(ctx, homematic.ParamsetValues)
	}
}

// Available reports whether the last connection check of a client succeeded.
func (c *Central) Available(interfaceID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available[interfaceID]
}
