package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/slidevalve/internal/engine"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the encoding to change without collisions.
const (
	DomainParameters = "slidevalve/parameters/v1"
	DomainPoints     = "slidevalve/points/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ParametersObject converts p to the map form used for canonical encoding.
// Keys match the JSON tags of engine.Parameters.
func ParametersObject(p engine.Parameters) map[string]any {
	return map[string]any{
		"bore":              p.Bore,
		"stroke":            p.Stroke,
		"con_rod":           p.ConRod,
		"valve_travel":      p.ValveTravel,
		"valve_con_rod":     p.ValveConRod,
		"eccentric_advance": p.EccentricAdvance,
		"ports": map[string]any{
			"top":     p.Ports.Top[:],
			"bottom":  p.Ports.Bottom[:],
			"exhaust": p.Ports.Exhaust[:],
		},
		"lands": map[string]any{
			"top":    p.Lands.Top[:],
			"bottom": p.Lands.Bottom[:],
		},
	}
}

// PointsObject converts critical points to their canonical map form, keyed by
// direction and event name.
func PointsObject(cp engine.CriticalPoints) map[string]any {
	obj := make(map[string]any, 2)
	for _, dir := range engine.Directions {
		pts := cp.For(dir)
		events := make(map[string]any, len(pts))
		for _, ev := range engine.Events {
			events[ev.String()] = pts[ev]
		}
		obj[dir.String()] = events
	}
	return obj
}

// ParametersID returns the content-addressed identity of p.
func ParametersID(p engine.Parameters) (string, error) {
	data, err := Marshal(ParametersObject(p))
	if err != nil {
		return "", fmt.Errorf("ParametersID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainParameters, data), nil
}

// PointsID returns the content-addressed identity of a critical point set.
func PointsID(cp engine.CriticalPoints) (string, error) {
	data, err := Marshal(PointsObject(cp))
	if err != nil {
		return "", fmt.Errorf("PointsID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPoints, data), nil
}

// MustParametersID is like ParametersID but panics on error.
// Use only when p has passed validation.
func MustParametersID(p engine.Parameters) string {
	id, err := ParametersID(p)
	if err != nil {
		panic(err)
	}
	return id
}
