// Package harness runs conformance scenarios against the engine.
//
// A scenario is a YAML file naming a parameter set and the behaviour expected
// of it:
//
//	name: default-engine
//	description: Reference engine events and phases
//	parameters: ../engines/default.cue   # optional, relative to the scenario
//	overrides:                            # optional, applied on top
//	  eccentric_advance: 115
//	checks:
//	  - angle: 90
//	    forward: intake
//	    return: exhaust
//	    displacement: 4.6812
//	    tolerance: 1e-4
//	assertions:
//	  - type: cycle_order
//	  - type: cutoff_fraction
//	    direction: forward
//	    min: 0.75
//	    max: 0.80
//
// Scenarios that set expect_invalid instead assert that the engine rejects
// the parameters with the listed validation codes.
//
// Each run builds a fresh engine, so scenarios are isolated from each other.
// RunWithGolden additionally compares a canonical report of the derived
// critical points against testdata/golden/<name>.golden.
package harness
