package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/slidevalve/internal/canon"
	"github.com/roach88/slidevalve/internal/engine"
)

// timeLayout keeps created_at sortable as TEXT.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// marshalParameters converts Parameters to canonical JSON TEXT for storage.
func marshalParameters(p engine.Parameters) (string, error) {
	data, err := canon.Marshal(canon.ParametersObject(p))
	if err != nil {
		return "", fmt.Errorf("marshal parameters: %w", err)
	}
	return string(data), nil
}

// marshalPoints converts CriticalPoints to canonical JSON TEXT. Arrays are
// indexed by event, matching the JSON form of engine.CriticalPoints.
func marshalPoints(cp engine.CriticalPoints) (string, error) {
	data, err := canon.Marshal(map[string]any{
		"forward": cp.Forward[:],
		"return":  cp.Return[:],
	})
	if err != nil {
		return "", fmt.Errorf("marshal points: %w", err)
	}
	return string(data), nil
}

// unmarshalParameters parses canonical JSON TEXT to Parameters.
func unmarshalParameters(data string) (engine.Parameters, error) {
	var p engine.Parameters
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return engine.Parameters{}, fmt.Errorf("unmarshal parameters: %w", err)
	}
	return p, nil
}

// unmarshalPoints parses canonical JSON TEXT to CriticalPoints.
func unmarshalPoints(data string) (engine.CriticalPoints, error) {
	var cp engine.CriticalPoints
	if err := json.Unmarshal([]byte(data), &cp); err != nil {
		return engine.CriticalPoints{}, fmt.Errorf("unmarshal points: %w", err)
	}
	return cp, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at: %w", err)
	}
	return t, nil
}
