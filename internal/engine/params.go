package engine

import (
	"fmt"
	"math"
)

// Ports holds fixed port edge offsets measured from valve neutral, positive
// toward the head end. Index 0 is the edge nearer neutral, index 1 the outer
// edge; the exhaust port is [lower, upper].
type Ports struct {
	Top     [2]float64 `json:"top" yaml:"top"`
	Bottom  [2]float64 `json:"bottom" yaml:"bottom"`
	Exhaust [2]float64 `json:"exhaust" yaml:"exhaust"`
}

// Lands holds the slide valve's sealing land edges measured from the slide
// center. Index 0 is the inside (exhaust cavity) edge, index 1 the outside
// (steam chest) edge.
type Lands struct {
	Top    [2]float64 `json:"top" yaml:"top"`
	Bottom [2]float64 `json:"bottom" yaml:"bottom"`
}

// Parameters is the mechanical description of the engine. It is a plain
// value; copies never alias engine state.
type Parameters struct {
	Bore             float64 `json:"bore" yaml:"bore"`
	Stroke           float64 `json:"stroke" yaml:"stroke"`
	ConRod           float64 `json:"con_rod" yaml:"con_rod"`
	ValveTravel      float64 `json:"valve_travel" yaml:"valve_travel"`
	ValveConRod      float64 `json:"valve_con_rod" yaml:"valve_con_rod"`
	EccentricAdvance float64 `json:"eccentric_advance" yaml:"eccentric_advance"` // degrees
	Ports            Ports   `json:"ports" yaml:"ports"`
	Lands            Lands   `json:"lands" yaml:"lands"`
}

// DefaultParameters returns a known-good parameter set.
func DefaultParameters() Parameters {
	return Parameters{
		Bore:             7,
		Stroke:           8.54,
		ConRod:           22.375,
		ValveTravel:      2.282,
		ValveConRod:      22,
		EccentricAdvance: 120.0,
		Ports: Ports{
			Top:     [2]float64{1.07, 1.725},
			Bottom:  [2]float64{-1.07, -1.725},
			Exhaust: [2]float64{-0.55, 0.55},
		},
		Lands: Lands{
			Top:    [2]float64{1.06, 2.33},
			Bottom: [2]float64{-0.9, -2.33},
		},
	}
}

// Laps are the valve offsets at which each port edge meets its land edge.
// Steam laps gate admission and cutoff, exhaust laps gate release and
// compression.
type Laps struct {
	TopSteam      float64 `json:"top_steam"`
	TopExhaust    float64 `json:"top_exhaust"`
	BottomSteam   float64 `json:"bottom_steam"`
	BottomExhaust float64 `json:"bottom_exhaust"`
}

// Laps returns the event offsets for p.
func (p Parameters) Laps() Laps {
	return Laps{
		TopSteam:      p.Ports.Top[1] - p.Lands.Top[1],
		TopExhaust:    p.Ports.Top[0] - p.Lands.Top[0],
		BottomSteam:   p.Ports.Bottom[1] - p.Lands.Bottom[1],
		BottomExhaust: p.Ports.Bottom[0] - p.Lands.Bottom[0],
	}
}

// Validate checks p for geometric consistency. It returns every violation
// found rather than stopping at the first.
//
// Critical point derivation can still fail for a set that passes Validate;
// New and SetParameters run both.
func Validate(p Parameters) []ValidationError {
	var errs []ValidationError

	scalars := []struct {
		field string
		value float64
	}{
		{"bore", p.Bore},
		{"stroke", p.Stroke},
		{"con_rod", p.ConRod},
		{"valve_travel", p.ValveTravel},
		{"valve_con_rod", p.ValveConRod},
	}
	for _, s := range scalars {
		switch {
		case math.IsNaN(s.value) || math.IsInf(s.value, 0):
			errs = append(errs, ValidationError{Field: s.field, Message: "must be finite", Code: ErrCodeNonFinite})
		case s.value <= 0:
			errs = append(errs, ValidationError{
				Field:   s.field,
				Message: fmt.Sprintf("must be positive, got %g", s.value),
				Code:    ErrCodeNonPositive,
			})
		}
	}

	offsets := []struct {
		field string
		value float64
	}{
		{"eccentric_advance", p.EccentricAdvance},
		{"ports.top[0]", p.Ports.Top[0]},
		{"ports.top[1]", p.Ports.Top[1]},
		{"ports.bottom[0]", p.Ports.Bottom[0]},
		{"ports.bottom[1]", p.Ports.Bottom[1]},
		{"ports.exhaust[0]", p.Ports.Exhaust[0]},
		{"ports.exhaust[1]", p.Ports.Exhaust[1]},
		{"lands.top[0]", p.Lands.Top[0]},
		{"lands.top[1]", p.Lands.Top[1]},
		{"lands.bottom[0]", p.Lands.Bottom[0]},
		{"lands.bottom[1]", p.Lands.Bottom[1]},
	}
	for _, o := range offsets {
		if math.IsNaN(o.value) || math.IsInf(o.value, 0) {
			errs = append(errs, ValidationError{Field: o.field, Message: "must be finite", Code: ErrCodeNonFinite})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if p.ConRod <= p.Stroke {
		errs = append(errs, ValidationError{
			Field:   "con_rod",
			Message: fmt.Sprintf("connecting rod %g must be longer than stroke %g", p.ConRod, p.Stroke),
			Code:    ErrCodeRodTooShort,
		})
	}
	if p.ValveConRod <= p.ValveTravel {
		errs = append(errs, ValidationError{
			Field:   "valve_con_rod",
			Message: fmt.Sprintf("valve rod %g must be longer than valve travel %g", p.ValveConRod, p.ValveTravel),
			Code:    ErrCodeValveRodTooShort,
		})
	}

	if !(0 < p.Ports.Top[0] && p.Ports.Top[0] < p.Ports.Top[1]) {
		errs = append(errs, ValidationError{
			Field:   "ports.top",
			Message: fmt.Sprintf("edges must satisfy 0 < inner < outer, got %v", p.Ports.Top),
			Code:    ErrCodePortReversed,
		})
	}
	if !(p.Ports.Bottom[1] < p.Ports.Bottom[0] && p.Ports.Bottom[0] < 0) {
		errs = append(errs, ValidationError{
			Field:   "ports.bottom",
			Message: fmt.Sprintf("edges must satisfy outer < inner < 0, got %v", p.Ports.Bottom),
			Code:    ErrCodePortReversed,
		})
	}
	if !(p.Ports.Exhaust[0] < p.Ports.Exhaust[1]) {
		errs = append(errs, ValidationError{
			Field:   "ports.exhaust",
			Message: fmt.Sprintf("edges must satisfy lower < upper, got %v", p.Ports.Exhaust),
			Code:    ErrCodePortReversed,
		})
	}

	if w := p.Ports.Top[0] - p.Ports.Exhaust[1]; w <= 0 {
		errs = append(errs, ValidationError{
			Field:   "ports.top",
			Message: fmt.Sprintf("bridge between top and exhaust port has width %g", w),
			Code:    ErrCodeBridgeWidth,
		})
	}
	if w := p.Ports.Exhaust[0] - p.Ports.Bottom[0]; w <= 0 {
		errs = append(errs, ValidationError{
			Field:   "ports.bottom",
			Message: fmt.Sprintf("bridge between exhaust and bottom port has width %g", w),
			Code:    ErrCodeBridgeWidth,
		})
	}

	if !(p.Lands.Top[0] < p.Lands.Top[1]) {
		errs = append(errs, ValidationError{
			Field:   "lands.top",
			Message: fmt.Sprintf("inside edge must be below outside edge, got %v", p.Lands.Top),
			Code:    ErrCodeLandReversed,
		})
	}
	if !(p.Lands.Bottom[1] < p.Lands.Bottom[0]) {
		errs = append(errs, ValidationError{
			Field:   "lands.bottom",
			Message: fmt.Sprintf("inside edge must be above outside edge, got %v", p.Lands.Bottom),
			Code:    ErrCodeLandReversed,
		})
	}
	if !(p.Lands.Bottom[0] < p.Lands.Top[0]) {
		errs = append(errs, ValidationError{
			Field:   "lands",
			Message: fmt.Sprintf("exhaust cavity is closed: bottom inside edge %g not below top inside edge %g", p.Lands.Bottom[0], p.Lands.Top[0]),
			Code:    ErrCodeLandReversed,
		})
	}

	return errs
}
