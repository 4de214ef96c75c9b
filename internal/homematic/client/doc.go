// Package client defines the contract between the central and a Homematic
// backend, and provides Local, an in-memory backend.
//
// A client pushes what it learns back into a Sink: names, interfaces and
// channel ids during FetchDeviceDetails, bulk values during
// FetchAllDeviceData, and parameter events whenever the backend reports a
// change. The central is the Sink in production.
//
// Local loads its devices from a YAML fixture (see Fixture) or from
// AddDevice. It echoes every write back as an event and answers pings with
// a PONG event, so the caches and entities above it behave the same way they
// would against a CCU.
package client
