// Package entity maps Homematic channel parameters onto entities.
//
// A GenericEntity wraps exactly one parameter of one channel. Custom
// entities (Light, Switch, Cover, Garage) group several generic entities
// under logical field names and translate intents such as "turn on at 40%
// brightness, ramping over 5 seconds" into parameter writes.
//
// # Writes
//
// Custom entity commands never talk to the backend directly. Each command
// queues its writes on a Collector, which flushes them in ascending order
// key, grouped per channel:
//
//	one parameter on a channel   → SetValue
//	several parameters           → PutParamset(channel, VALUES, values)
//
// Passing a nil collector to a command creates one, runs the command and
// flushes it.
//
// # Deduplication
//
// Every TurnOn/TurnOff and every cover movement first asks IsStateChange.
// A request that would not change anything writes nothing, unless the
// current state is uncertain. Stop commands always write.
//
// # Light Variants
//
// Lights are a single Light type tagged with a Kind. Per-kind behaviour
// (colour encoding, colour temperature, effects, timer units, operation-mode
// gating) comes from a capability table rather than a type hierarchy. The
// mapping from device models to kinds and field maps lives in package
// profile.
//
// Covers follow the same pattern with a CoverKind: shutters write LEVEL,
// blinds add slats through LEVEL_2 or a combined parameter, and window
// drives lock at a level below zero. Garage doors are a separate type
// driven by DOOR_COMMAND.
package entity
