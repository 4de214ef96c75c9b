// Package profile maps device models to custom entities.
//
// A device profile names the parameters that make up one custom entity of a
// channel group: fields repeated on the entity's own channel, fields on
// channels relative to the group base, and visible companion fields. Model
// configs bind a model name to a profile, the group base channels and any
// extra fixed channels or additional entities.
//
// Registry.Build resolves all of that against a device's generic entities and
// attaches the resulting lights, switches and covers to the device:
//
//	reg := profile.NewRegistry()
//	entities, err := reg.Build(device)
package profile
