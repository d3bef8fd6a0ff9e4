// Package chart renders cycle diagrams.
//
// CycleDiagram draws the volume of each cylinder end against crank angle,
// coloured by the phase that end is in: intake dark green, expansion light
// green, exhaust light blue and compression red. The default range runs from
// -180 to 440 degrees so a full cycle is visible with margin on both sides.
//
// ASCII and PhaseStrip produce the same information for a terminal.
package chart
