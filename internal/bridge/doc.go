// Package bridge connects a Homematic central to the Gray Logic MQTT bus.
//
// The bridge:
//   - Receives entity commands on graylogic/command/homematic/{entity_id}
//     and runs them against lights, switches and covers
//   - Acknowledges every command on graylogic/ack/homematic/{entity_id}
//   - Publishes retained entity state on graylogic/state/homematic/{entity_id}
//     whenever a custom entity changes
//   - Publishes interface events (pong mismatches, availability) on
//     graylogic/event/homematic/{interface_id}
//   - Reports its health on graylogic/health/homematic
//
// # Commands
//
//	{"id": "…", "command": "turn_on", "parameters": {"brightness": 128, "ramp_time": 2}}
//	{"id": "…", "command": "turn_off"}
//	{"id": "…", "command": "set_position", "parameters": {"position": 40, "tilt_position": 80}}
//	{"id": "…", "command": "refresh"}
//
// Lights accept brightness, hs_color, color_temp, effect, on_time and
// ramp_time on turn_on and ramp_time on turn_off. Switches accept on_time.
// Covers take open, close, stop and set_position; blinds add open_tilt,
// close_tilt and stop_tilt, garage doors add vent.
//
// State and interface events can optionally be recorded in InfluxDB through
// a Recorder.
package bridge
