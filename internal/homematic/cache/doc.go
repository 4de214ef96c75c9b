// Package cache provides the in-memory caches of a Homematic central.
//
// # Caches
//
//   - DeviceDetailsCache: names, rooms, functions and interfaces of devices
//     and channels, refreshed from the primary client
//   - CentralDataCache: last known raw parameter values of all channels,
//     fetched in bulk from every client
//   - PingPongCache: per-interface keep-alive tracker that fires
//     PENDING_PONG and UNKNOWN_PONG interface events
//
// DeviceDetailsCache and CentralDataCache skip a load that happens within
// half of homematic.MaxCacheAge of the previous one. This is a time gate, not
// a lock: concurrent callers inside the window may both reach the backend.
//
// Expiry is lazy. Nothing runs in the background; stale data is evicted when
// an accessor observes it.
//
// Thread Safety: all caches are safe for concurrent use. Backend calls and
// event callbacks run without holding the cache lock.
package cache
