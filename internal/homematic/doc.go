// Package homematic holds the shared vocabulary of the Homematic integration:
// interface names, paramset keys, parameter descriptions, event types and the
// address helpers used by every other package under internal/homematic.
//
// # Addresses
//
// A device address is the serial of a physical device (e.g. "VCU0000001").
// Channel addresses append the channel number with a colon:
//
//	VCU0000001:3
//
// Device addresses are therefore a string prefix of their channel addresses.
//
// # Package Layout
//
//   - cache: TTL primitive, device details, central data and ping-pong caches
//   - entity: generic entities, collector, lights, switches and covers
//   - profile: the immutable device-model registry
//   - client: backend client contract and the in-memory local backend
//   - central: the CentralUnit tying clients, caches and devices together
package homematic
