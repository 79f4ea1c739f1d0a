package models

import (
	"fmt"
	"sort"
	"strings"
)

// ComponentType is the electrical kind of a component
type ComponentType string

const (
	TypeBattery       ComponentType = "battery"
	TypeResistor      ComponentType = "resistor"
	TypeBulb          ComponentType = "bulb"
	TypeLED           ComponentType = "led"
	TypeSwitch        ComponentType = "switch"
	TypeCapacitor     ComponentType = "capacitor"
	TypeGround        ComponentType = "ground"
	TypeInductor      ComponentType = "inductor"
	TypeDiode         ComponentType = "diode"
	TypePotentiometer ComponentType = "potentiometer"
	TypeFuse          ComponentType = "fuse"
	TypeMotor         ComponentType = "motor"
)

// AliasTransformer selects the transformer variant of the inductor
const AliasTransformer = "transformer"

// typeInfo holds the registry entry for a component type
type typeInfo struct {
	newParams func() Params
	// failureLimit is the default failure threshold in amperes when MaxCurrent is unset
	failureLimit float64
}

// Default failure thresholds in amperes used when a component has no MaxCurrent
const (
	DefaultFailureLimit     = 0.1
	DefaultHighCurrentLimit = 1.0
)

var registry = map[ComponentType]typeInfo{
	TypeBattery:       {newParams: func() Params { return &BatteryParams{} }, failureLimit: DefaultHighCurrentLimit},
	TypeResistor:      {newParams: func() Params { return &ResistorParams{} }, failureLimit: DefaultFailureLimit},
	TypeBulb:          {newParams: func() Params { return &BulbParams{} }, failureLimit: DefaultFailureLimit},
	TypeLED:           {newParams: func() Params { return &LEDParams{} }, failureLimit: DefaultFailureLimit},
	TypeSwitch:        {newParams: func() Params { return &SwitchParams{} }, failureLimit: DefaultFailureLimit},
	TypeCapacitor:     {newParams: func() Params { return &CapacitorParams{} }, failureLimit: DefaultFailureLimit},
	TypeGround:        {newParams: func() Params { return &GroundParams{} }, failureLimit: DefaultFailureLimit},
	TypeInductor:      {newParams: func() Params { return &InductorParams{} }, failureLimit: DefaultFailureLimit},
	TypeDiode:         {newParams: func() Params { return &DiodeParams{} }, failureLimit: DefaultFailureLimit},
	TypePotentiometer: {newParams: func() Params { return &PotentiometerParams{} }, failureLimit: DefaultFailureLimit},
	TypeFuse:          {newParams: func() Params { return &FuseParams{} }, failureLimit: DefaultFuseTripCurrent},
	TypeMotor:         {newParams: func() Params { return &MotorParams{} }, failureLimit: DefaultHighCurrentLimit},
}

// aliases maps decorative names onto electrical types
var aliases = map[string]ComponentType{
	"lightbulb":      TypeBulb,
	"light":          TypeBulb,
	"lamp":           TypeBulb,
	"cell":           TypeBattery,
	"power":          TypeBattery,
	AliasTransformer: TypeInductor,
	"rheostat":       TypePotentiometer,
	"buzzer":         TypeMotor,
}

// ResolveType maps a type name or alias onto its electrical type.
// The returned alias is the lower-cased name when it was not a canonical type.
func ResolveType(name string) (ComponentType, string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := registry[ComponentType(key)]; ok {
		return ComponentType(key), "", nil
	}
	if t, ok := aliases[key]; ok {
		return t, key, nil
	}
	return "", "", fmt.Errorf("%w: unknown component type %q", ErrInvalidComponent, name)
}

// IsValid reports whether the type is registered
func (t ComponentType) IsValid() bool {
	_, ok := registry[t]
	return ok
}

// NewParams returns zero-valued params for the type, or nil for unknown types
func (t ComponentType) NewParams() Params {
	info, ok := registry[t]
	if !ok {
		return nil
	}
	return info.newParams()
}

// FailureLimit returns the default failure threshold of the type
func (t ComponentType) FailureLimit() float64 {
	if info, ok := registry[t]; ok {
		return info.failureLimit
	}
	return DefaultFailureLimit
}

// ComponentTypes returns all registered types sorted by name
func ComponentTypes() []ComponentType {
	types := make([]ComponentType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Aliases returns a copy of the alias table
func Aliases() map[string]ComponentType {
	out := make(map[string]ComponentType, len(aliases))
	for k, v := range aliases {
		out[k] = v
	}
	return out
}
