package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go-circuit-lab/internal/models"
)

// outputKeys are engine-written fields that callers may never set
var outputKeys = map[string]bool{
	"current":          true,
	"glowing":          true,
	"spinning":         true,
	"charging":         true,
	"blown":            true,
	"sourcing":         true,
	"secondaryVoltage": true,
}

// UpdateComponentProperty sets one input property by key. The key/value pair
// is decoded into a typed command and applied; output fields and unknown keys
// are rejected.
func (s *Simulator) UpdateComponentProperty(id, key string, value any) error {
	comp, ok := s.components[id]
	if !ok {
		return fmt.Errorf("%w: component %q", ErrNotFound, id)
	}

	cmd, err := propertyCommand(comp, key, value)
	if err != nil {
		return err
	}
	return s.Apply(cmd)
}

// propertyCommand maps a loose property assignment onto a typed command
func propertyCommand(comp *models.Component, key string, value any) (Command, error) {
	if outputKeys[key] {
		return nil, models.NewValidationError(key, value, "is a read-only output")
	}

	switch key {
	case "position":
		pos, err := toPosition(value)
		if err != nil {
			return nil, err
		}
		return SetPosition{ID: comp.ID, Position: pos}, nil
	case "rotation":
		f, err := toFloat(key, value)
		if err != nil {
			return nil, err
		}
		return SetRotation{ID: comp.ID, Degrees: f}, nil
	case "voltage":
		// A capacitor or LED voltage is derived, not configured
		if comp.Type != models.TypeBattery {
			return nil, models.NewValidationError(key, value, "is a read-only output")
		}
		f, err := toFloat(key, value)
		if err != nil {
			return nil, err
		}
		return SetVoltage{ID: comp.ID, Volts: f}, nil
	case "primaryVoltage":
		if comp.Type != models.TypeInductor {
			return nil, wrongType(comp, key)
		}
		f, err := toFloat(key, value)
		if err != nil {
			return nil, err
		}
		return SetVoltage{ID: comp.ID, Volts: f}, nil
	case "resistance":
		f, err := toFloat(key, value)
		if err != nil {
			return nil, err
		}
		return SetResistance{ID: comp.ID, Ohms: f}, nil
	case "internalResistance":
		f, err := toFloat(key, value)
		if err != nil {
			return nil, err
		}
		return SetInternalResistance{ID: comp.ID, Ohms: f}, nil
	case "forwardVoltage":
		f, err := toFloat(key, value)
		if err != nil {
			return nil, err
		}
		return SetForwardVoltage{ID: comp.ID, Volts: f}, nil
	case "maxCurrent":
		f, err := toFloat(key, value)
		if err != nil {
			return nil, err
		}
		return SetMaxCurrent{ID: comp.ID, Amps: f}, nil
	case "capacitance":
		f, err := toFloat(key, value)
		if err != nil {
			return nil, err
		}
		return SetCapacitance{ID: comp.ID, Farads: f}, nil
	case "primaryTurns", "secondaryTurns":
		p, ok := comp.Params.(*models.InductorParams)
		if !ok {
			return nil, wrongType(comp, key)
		}
		f, err := toFloat(key, value)
		if err != nil {
			return nil, err
		}
		cmd := SetTurns{
			ID:        comp.ID,
			Primary:   orValue(p.PrimaryTurns, models.DefaultPrimaryTurns),
			Secondary: orValue(p.SecondaryTurns, models.DefaultSecondaryTurns),
		}
		if key == "primaryTurns" {
			cmd.Primary = f
		} else {
			cmd.Secondary = f
		}
		return cmd, nil
	case "wiper":
		f, err := toFloat(key, value)
		if err != nil {
			return nil, err
		}
		return SetWiper{ID: comp.ID, Position: f}, nil
	case "closed":
		b, err := toBool(key, value)
		if err != nil {
			return nil, err
		}
		return SetSwitch{ID: comp.ID, Closed: b}, nil
	case "health":
		if h, ok := value.(string); ok && models.Health(h) == models.HealthNormal {
			return ResetHealth{ID: comp.ID}, nil
		}
		return nil, models.NewValidationError(key, value, "only a reset to normal is allowed")
	}
	return nil, models.NewValidationError("property", key, "unknown property")
}

func orValue(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// toFloat coerces loosely typed numbers from JSON, Lua and MCP callers
func toFloat(field string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, models.NewValidationError(field, v, "not a number")
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, models.NewValidationError(field, v, "not a number")
		}
		return f, nil
	}
	return 0, models.NewValidationError(field, v, "not a number")
}

func toBool(field string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "on", "closed":
			return true, nil
		case "false", "off", "open":
			return false, nil
		}
	}
	return false, models.NewValidationError(field, v, "not a boolean")
}

func toPosition(v any) (models.Position, error) {
	switch p := v.(type) {
	case models.Position:
		return p, nil
	case *models.Position:
		if p != nil {
			return *p, nil
		}
	case map[string]any:
		x, err := toFloat("position.x", p["x"])
		if err != nil {
			return models.Position{}, err
		}
		y, err := toFloat("position.y", p["y"])
		if err != nil {
			return models.Position{}, err
		}
		return models.Position{X: x, Y: y}, nil
	}
	return models.Position{}, models.NewValidationError("position", v, "expected {x, y}")
}
