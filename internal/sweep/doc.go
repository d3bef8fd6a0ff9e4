// Package sweep samples an engine over a range of crank angles.
//
// Sweep produces evenly spaced samples of piston displacement, valve offset
// and the phase of both cylinder ends. Segments walks the phase boundaries of
// one cylinder end to produce the arcs drawn on a cycle diagram. A Recorder
// bundles a sweep with the parameters it was computed from into a Run that
// can be exported.
//
// All functions read from an engine.Snapshot, so a concurrent parameter
// update never mixes two geometries into one result.
package sweep
