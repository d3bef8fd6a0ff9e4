// Package engine models a double-acting, slide-valve reciprocating steam engine.
//
// The engine answers three questions for any crankshaft angle:
//   - how far the piston has travelled from top dead center
//   - how far the slide valve sits from its neutral position
//   - which cycle phase (intake, expansion, exhaust, compression) each end
//     of the cylinder is in
//
// ARCHITECTURE:
//
// Parameters and critical points form a single immutable snapshot. The eight
// critical points (inlet, cutoff, release and compression for each stroke
// direction) are derived from the port and land geometry whenever parameters
// change and are never mutated on their own.
//
// Single Writer:
// SetParameters is the only mutator. It validates, derives critical points,
// and then swaps the snapshot in one atomic store. Readers load the snapshot
// once per query and never observe parameters paired with stale points.
//
// Angles:
// Every public angle is in degrees. Radians are used internally by the motion
// equations only. No caller-supplied angle is assumed to be normalized.
//
// Phase Classification:
// Crank angle and critical points live on a circle. Phase lookup normalizes
// the angle into [0,360) and picks the most recently passed critical point by
// signed distance, so no sorting is needed per query. Boundaries are
// half-open: a critical point belongs to the phase it starts.
package engine
