package influxdb

import (
	"sort"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementEntityState     = "homematic_entity_state"
	MeasurementInterfaceHealth = "homematic_interface_health"
)

// WriteEntityState records a snapshot of a custom entity.
//
// Parameters:
//   - entityID: The custom entity id (e.g., "vcu0000001_4")
//   - platform: light, switch or cover; stored as a tag
//   - state: The entity's State() map
//
// Scalar state values (bool, integers, floats, strings) become fields.
// Composite values such as colours and effect lists are skipped. Nothing is
// written when no scalar value remains.
//
//	client.WriteEntityState("vcu0000001_4", "light", e.State())
func (c *Client) WriteEntityState(entityID, platform string, state map[string]any) {
	if !c.IsConnected() {
		return
	}

	fields := scalarFields(state)
	if len(fields) == 0 {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementEntityState,
		map[string]string{
			"entity_id": entityID,
			"platform":  platform,
		},
		fields,
		c.now(),
	))
}

// WriteInterfaceEvent records an interface event such as a pong mismatch
// or a change of availability.
//
// Parameters:
//   - interfaceID: The client interface id (e.g., "ccu-HmIP-RF")
//   - eventType: PENDING_PONG, UNKNOWN_PONG or PROXY
//   - fields: The event data (e.g., pong_mismatch_count, available)
func (c *Client) WriteInterfaceEvent(interfaceID, eventType string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}

	scalars := scalarFields(fields)
	if len(scalars) == 0 {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementInterfaceHealth,
		map[string]string{
			"interface_id": interfaceID,
			"type":         eventType,
		},
		scalars,
		c.now(),
	))
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, c.now())
}

// WritePointWithTime writes a custom point with a specific timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}

// scalarFields keeps the values InfluxDB can store as fields.
func scalarFields(values map[string]any) map[string]any {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]any, len(values))
	for _, k := range keys {
		switch v := values[k].(type) {
		case bool, string, float64, float32, int, int64, int32, uint, uint64:
			fields[k] = v
		}
	}
	return fields
}
