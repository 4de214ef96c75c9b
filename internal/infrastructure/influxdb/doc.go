// Package influxdb records Homematic telemetry in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library. Two measurements are
// written:
//   - homematic_entity_state: scalar state of lights, switches and covers,
//     tagged by entity_id and platform
//   - homematic_interface_health: pong mismatch counts and availability
//     changes, tagged by interface_id and event type
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteEntityState(e.UniqueID(), string(e.Platform()), e.State())
//
// Writes are non-blocking and batched (batch_size, flush_interval). Write
// errors are delivered to the callback set with SetOnError.
package influxdb
