// Package config loads engine parameters from CUE or YAML files.
//
// Both formats describe a single top-level "engine" object whose fields
// mirror engine.Parameters. Fields left out inherit their value from
// engine.DefaultParameters, so a file may override only what differs from
// the reference engine:
//
//	engine: {
//		eccentric_advance: 115
//		lands: top: [1.06, 2.40]
//	}
//
// CUE files are unified with an embedded #Engine schema that rejects unknown
// fields and non-positive dimensions with positioned errors. YAML files are
// decoded strictly. Loading is read-only; geometric consistency is checked by
// the engine when the parameters are applied.
package config
