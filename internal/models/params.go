package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Default parameter values applied when a field is zero
const (
	DefaultBatteryVoltage      = 9.0
	DefaultInternalResistance  = 0.1
	DefaultResistance          = 1000.0
	DefaultBulbResistance      = 240.0
	DefaultBulbPower           = 60.0
	DefaultLEDForwardVoltage   = 2.1
	DefaultDiodeForwardVoltage = 0.7
	DefaultPotentiometerRange  = 10000.0
	DefaultMotorResistance     = 50.0
	DefaultCapacitance         = 0.001
	DefaultFuseResistance      = 0.1
	DefaultFuseTripCurrent     = 1.0
	DefaultPrimaryTurns        = 100.0
	DefaultSecondaryTurns      = 50.0
	DefaultInductance          = 0.01
	DefaultWiper               = 1.0
	DefaultLEDColor            = "red"
)

// Params is the typed input configuration of a component.
// Zero-valued fields mean "use the default".
type Params interface {
	Type() ComponentType
	Validate() error
	Clone() Params
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func checkNonNegative(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return NewValidationError(field, v, "must be a finite non-negative number")
	}
	return nil
}

// BatteryParams configures a battery. A nil Voltage means the default;
// an explicit zero is a dead cell.
type BatteryParams struct {
	Voltage            *float64 `json:"voltage,omitempty"`
	InternalResistance float64  `json:"internalResistance,omitempty"`
}

func (p *BatteryParams) Type() ComponentType { return TypeBattery }

func (p *BatteryParams) Validate() error {
	if p.Voltage != nil && (math.IsNaN(*p.Voltage) || math.IsInf(*p.Voltage, 0)) {
		return NewValidationError("voltage", *p.Voltage, "must be finite")
	}
	return checkNonNegative("internalResistance", p.InternalResistance)
}

func (p *BatteryParams) Clone() Params {
	c := *p
	if p.Voltage != nil {
		v := *p.Voltage
		c.Voltage = &v
	}
	return &c
}

// EMF returns the battery voltage with the default applied
func (p *BatteryParams) EMF() float64 {
	if p.Voltage == nil {
		return DefaultBatteryVoltage
	}
	return *p.Voltage
}

// SetEMF sets an explicit battery voltage
func (p *BatteryParams) SetEMF(v float64) { p.Voltage = &v }

// Internal returns the internal resistance with the default applied
func (p *BatteryParams) Internal() float64 {
	return orDefault(p.InternalResistance, DefaultInternalResistance)
}

// ResistorParams configures a fixed resistor
type ResistorParams struct {
	Resistance float64 `json:"resistance,omitempty"`
}

func (p *ResistorParams) Type() ComponentType { return TypeResistor }
func (p *ResistorParams) Validate() error     { return checkNonNegative("resistance", p.Resistance) }
func (p *ResistorParams) Clone() Params       { c := *p; return &c }

// Ohms returns the resistance with the default applied
func (p *ResistorParams) Ohms() float64 { return orDefault(p.Resistance, DefaultResistance) }

// BulbParams configures an incandescent bulb
type BulbParams struct {
	Resistance float64 `json:"resistance,omitempty"`
	Power      float64 `json:"power,omitempty"`
}

func (p *BulbParams) Type() ComponentType { return TypeBulb }

func (p *BulbParams) Validate() error {
	if err := checkNonNegative("resistance", p.Resistance); err != nil {
		return err
	}
	return checkNonNegative("power", p.Power)
}

func (p *BulbParams) Clone() Params { c := *p; return &c }

// Ohms returns the filament resistance with the default applied
func (p *BulbParams) Ohms() float64 { return orDefault(p.Resistance, DefaultBulbResistance) }

// Watts returns the nominal power rating
func (p *BulbParams) Watts() float64 { return orDefault(p.Power, DefaultBulbPower) }

// LEDParams configures a light-emitting diode
type LEDParams struct {
	ForwardVoltage float64 `json:"forwardVoltage,omitempty"`
	Color          string  `json:"color,omitempty"`
}

func (p *LEDParams) Type() ComponentType { return TypeLED }
func (p *LEDParams) Validate() error     { return checkNonNegative("forwardVoltage", p.ForwardVoltage) }
func (p *LEDParams) Clone() Params       { c := *p; return &c }

// Vf returns the forward voltage with the default applied
func (p *LEDParams) Vf() float64 { return orDefault(p.ForwardVoltage, DefaultLEDForwardVoltage) }

// DiodeParams configures a rectifier diode
type DiodeParams struct {
	ForwardVoltage float64 `json:"forwardVoltage,omitempty"`
}

func (p *DiodeParams) Type() ComponentType { return TypeDiode }
func (p *DiodeParams) Validate() error     { return checkNonNegative("forwardVoltage", p.ForwardVoltage) }
func (p *DiodeParams) Clone() Params       { c := *p; return &c }

// Vf returns the forward voltage with the default applied
func (p *DiodeParams) Vf() float64 { return orDefault(p.ForwardVoltage, DefaultDiodeForwardVoltage) }

// PotentiometerParams configures a variable resistor
type PotentiometerParams struct {
	Resistance float64 `json:"resistance,omitempty"`
	Wiper      float64 `json:"wiper,omitempty"`
}

func (p *PotentiometerParams) Type() ComponentType { return TypePotentiometer }

func (p *PotentiometerParams) Validate() error {
	if err := checkNonNegative("resistance", p.Resistance); err != nil {
		return err
	}
	if p.Wiper < 0 || p.Wiper > 1 || math.IsNaN(p.Wiper) {
		return NewValidationError("wiper", p.Wiper, "must be within (0, 1]")
	}
	return nil
}

func (p *PotentiometerParams) Clone() Params { c := *p; return &c }

// Ohms returns the effective track resistance at the wiper position
func (p *PotentiometerParams) Ohms() float64 {
	return orDefault(p.Resistance, DefaultPotentiometerRange) * orDefault(p.Wiper, DefaultWiper)
}

// MotorParams configures a DC motor (or buzzer)
type MotorParams struct {
	Resistance float64 `json:"resistance,omitempty"`
}

func (p *MotorParams) Type() ComponentType { return TypeMotor }
func (p *MotorParams) Validate() error     { return checkNonNegative("resistance", p.Resistance) }
func (p *MotorParams) Clone() Params       { c := *p; return &c }

// Ohms returns the winding resistance with the default applied
func (p *MotorParams) Ohms() float64 { return orDefault(p.Resistance, DefaultMotorResistance) }

// CapacitorParams configures a capacitor
type CapacitorParams struct {
	Capacitance float64 `json:"capacitance,omitempty"`
}

func (p *CapacitorParams) Type() ComponentType { return TypeCapacitor }
func (p *CapacitorParams) Validate() error     { return checkNonNegative("capacitance", p.Capacitance) }
func (p *CapacitorParams) Clone() Params       { c := *p; return &c }

// Farads returns the capacitance with the default applied
func (p *CapacitorParams) Farads() float64 { return orDefault(p.Capacitance, DefaultCapacitance) }

// SwitchParams configures a switch. A nil Closed means closed.
type SwitchParams struct {
	Closed *bool `json:"closed,omitempty"`
}

func (p *SwitchParams) Type() ComponentType { return TypeSwitch }
func (p *SwitchParams) Validate() error     { return nil }

func (p *SwitchParams) Clone() Params {
	c := SwitchParams{}
	if p.Closed != nil {
		v := *p.Closed
		c.Closed = &v
	}
	return &c
}

// IsClosed reports whether the switch is closed
func (p *SwitchParams) IsClosed() bool { return p.Closed == nil || *p.Closed }

// FuseParams configures a fuse. The trip current is the component MaxCurrent.
type FuseParams struct {
	Resistance float64 `json:"resistance,omitempty"`
}

func (p *FuseParams) Type() ComponentType { return TypeFuse }
func (p *FuseParams) Validate() error     { return checkNonNegative("resistance", p.Resistance) }
func (p *FuseParams) Clone() Params       { c := *p; return &c }

// Ohms returns the element resistance with the default applied
func (p *FuseParams) Ohms() float64 { return orDefault(p.Resistance, DefaultFuseResistance) }

// InductorParams configures an inductor or, with Transformer set, a transformer
type InductorParams struct {
	Inductance     float64 `json:"inductance,omitempty"`
	PrimaryTurns   float64 `json:"primaryTurns,omitempty"`
	SecondaryTurns float64 `json:"secondaryTurns,omitempty"`
	PrimaryVoltage float64 `json:"primaryVoltage,omitempty"`
	Transformer    bool    `json:"transformer,omitempty"`
}

func (p *InductorParams) Type() ComponentType { return TypeInductor }

func (p *InductorParams) Validate() error {
	if err := checkNonNegative("inductance", p.Inductance); err != nil {
		return err
	}
	if err := checkNonNegative("primaryTurns", p.PrimaryTurns); err != nil {
		return err
	}
	return checkNonNegative("secondaryTurns", p.SecondaryTurns)
}

func (p *InductorParams) Clone() Params { c := *p; return &c }

// TurnsRatio returns secondary/primary turns with defaults applied
func (p *InductorParams) TurnsRatio() float64 {
	return orDefault(p.SecondaryTurns, DefaultSecondaryTurns) / orDefault(p.PrimaryTurns, DefaultPrimaryTurns)
}

// GroundParams has no configuration
type GroundParams struct{}

func (p *GroundParams) Type() ComponentType { return TypeGround }
func (p *GroundParams) Validate() error     { return nil }
func (p *GroundParams) Clone() Params       { return &GroundParams{} }

// DecodeParams builds typed params for t from a loose property map.
// Unknown keys are rejected.
func DecodeParams(t ComponentType, alias string, props map[string]any) (Params, error) {
	params := t.NewParams()
	if params == nil {
		return nil, fmt.Errorf("%w: unknown component type %q", ErrInvalidComponent, t)
	}

	if len(props) > 0 {
		data, err := json.Marshal(props)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode properties: %v", ErrInvalidComponent, err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(params); err != nil {
			return nil, fmt.Errorf("%w: properties for %s: %v", ErrInvalidComponent, t, err)
		}
		if err := checkGivenPositive(data); err != nil {
			return nil, err
		}
	}

	// Transformer alias enables the turns ratio
	if ip, ok := params.(*InductorParams); ok && alias == AliasTransformer {
		ip.Transformer = true
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// positiveKeys must be strictly positive when present. Only an absent key
// selects the default, matching the rules of the property commands.
var positiveKeys = []string{
	"resistance",
	"internalResistance",
	"capacitance",
	"inductance",
	"primaryTurns",
	"secondaryTurns",
	"wiper",
}

func checkGivenPositive(data []byte) error {
	var given map[string]json.RawMessage
	if err := json.Unmarshal(data, &given); err != nil {
		return nil
	}
	for _, key := range positiveKeys {
		raw, ok := given[key]
		if !ok || string(raw) == "null" {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if !(v > 0) {
			return NewValidationError(key, v, "must be a finite positive number")
		}
	}
	return nil
}

// EncodeParams converts typed params back into a property map
func EncodeParams(p Params) map[string]any {
	out := map[string]any{}
	if p == nil {
		return out
	}
	data, err := json.Marshal(p)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}
