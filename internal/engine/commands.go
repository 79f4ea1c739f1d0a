package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"go-circuit-lab/internal/models"
)

// Command is a typed mutation of a single component. Each command validates
// its own arguments before the simulator touches any state.
type Command interface {
	Target() string
	Validate() error
	apply(c *models.Component) error
}

// Apply validates and applies a command, then recomputes the circuit.
// The component is left untouched when the command is rejected.
func (s *Simulator) Apply(cmd Command) error {
	if cmd == nil {
		return models.NewValidationError("command", nil, "must not be nil")
	}
	if err := cmd.Validate(); err != nil {
		return err
	}

	comp, ok := s.components[cmd.Target()]
	if !ok {
		return fmt.Errorf("%w: component %q", ErrNotFound, cmd.Target())
	}

	// Apply to a copy so a rejected command leaves no trace
	next := comp.Clone()
	if err := cmd.apply(next); err != nil {
		return err
	}
	s.components[next.ID] = next
	s.recompute()
	return nil
}

func requireID(id string) error {
	if id == "" {
		return models.NewValidationError("id", id, "component id is required")
	}
	return nil
}

func requirePositive(field string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return models.NewValidationError(field, v, "must be a finite positive number")
	}
	return nil
}

func wrongType(c *models.Component, field string) error {
	return models.NewValidationError(field, c.Type, fmt.Sprintf("not supported by %s %q", c.Type, c.ID))
}

// SetVoltage sets a battery's voltage or a transformer's primary voltage
type SetVoltage struct {
	ID    string  `json:"id"`
	Volts float64 `json:"volts"`
}

func (c SetVoltage) Target() string { return c.ID }

func (c SetVoltage) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	if math.IsNaN(c.Volts) || math.IsInf(c.Volts, 0) {
		return models.NewValidationError("voltage", c.Volts, "must be finite")
	}
	return nil
}

func (c SetVoltage) apply(comp *models.Component) error {
	switch p := comp.Params.(type) {
	case *models.BatteryParams:
		p.SetEMF(c.Volts)
	case *models.InductorParams:
		p.PrimaryVoltage = c.Volts
	default:
		return wrongType(comp, "voltage")
	}
	return nil
}

// SetResistance sets the resistance of a resistive component
type SetResistance struct {
	ID   string  `json:"id"`
	Ohms float64 `json:"ohms"`
}

func (c SetResistance) Target() string { return c.ID }

func (c SetResistance) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	return requirePositive("resistance", c.Ohms)
}

func (c SetResistance) apply(comp *models.Component) error {
	switch p := comp.Params.(type) {
	case *models.ResistorParams:
		p.Resistance = c.Ohms
	case *models.BulbParams:
		p.Resistance = c.Ohms
	case *models.PotentiometerParams:
		p.Resistance = c.Ohms
	case *models.MotorParams:
		p.Resistance = c.Ohms
	case *models.FuseParams:
		p.Resistance = c.Ohms
	default:
		return wrongType(comp, "resistance")
	}
	return nil
}

// SetInternalResistance sets a battery's internal resistance
type SetInternalResistance struct {
	ID   string  `json:"id"`
	Ohms float64 `json:"ohms"`
}

func (c SetInternalResistance) Target() string { return c.ID }

func (c SetInternalResistance) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	return requirePositive("internalResistance", c.Ohms)
}

func (c SetInternalResistance) apply(comp *models.Component) error {
	p, ok := comp.Params.(*models.BatteryParams)
	if !ok {
		return wrongType(comp, "internalResistance")
	}
	p.InternalResistance = c.Ohms
	return nil
}

// SetForwardVoltage sets the forward voltage of an LED or diode.
// Zero selects the type default.
type SetForwardVoltage struct {
	ID    string  `json:"id"`
	Volts float64 `json:"volts"`
}

func (c SetForwardVoltage) Target() string { return c.ID }

func (c SetForwardVoltage) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	if c.Volts < 0 || math.IsNaN(c.Volts) || math.IsInf(c.Volts, 0) {
		return models.NewValidationError("forwardVoltage", c.Volts, "must be a finite non-negative number")
	}
	return nil
}

func (c SetForwardVoltage) apply(comp *models.Component) error {
	switch p := comp.Params.(type) {
	case *models.LEDParams:
		p.ForwardVoltage = c.Volts
	case *models.DiodeParams:
		p.ForwardVoltage = c.Volts
	default:
		return wrongType(comp, "forwardVoltage")
	}
	return nil
}

// SetMaxCurrent sets the failure threshold (and fuse trip current)
type SetMaxCurrent struct {
	ID   string  `json:"id"`
	Amps float64 `json:"amps"`
}

func (c SetMaxCurrent) Target() string { return c.ID }

func (c SetMaxCurrent) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	return requirePositive("maxCurrent", c.Amps)
}

func (c SetMaxCurrent) apply(comp *models.Component) error {
	comp.MaxCurrent = c.Amps
	return nil
}

// SetCapacitance sets a capacitor's capacitance
type SetCapacitance struct {
	ID     string  `json:"id"`
	Farads float64 `json:"farads"`
}

func (c SetCapacitance) Target() string { return c.ID }

func (c SetCapacitance) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	return requirePositive("capacitance", c.Farads)
}

func (c SetCapacitance) apply(comp *models.Component) error {
	p, ok := comp.Params.(*models.CapacitorParams)
	if !ok {
		return wrongType(comp, "capacitance")
	}
	p.Capacitance = c.Farads
	return nil
}

// SetTurns sets the primary and secondary winding turns of an inductor
type SetTurns struct {
	ID        string  `json:"id"`
	Primary   float64 `json:"primary"`
	Secondary float64 `json:"secondary"`
}

func (c SetTurns) Target() string { return c.ID }

func (c SetTurns) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	if err := requirePositive("primaryTurns", c.Primary); err != nil {
		return err
	}
	return requirePositive("secondaryTurns", c.Secondary)
}

func (c SetTurns) apply(comp *models.Component) error {
	p, ok := comp.Params.(*models.InductorParams)
	if !ok {
		return wrongType(comp, "turns")
	}
	p.PrimaryTurns = c.Primary
	p.SecondaryTurns = c.Secondary
	return nil
}

// SetWiper moves a potentiometer's wiper; 1 selects the full track
type SetWiper struct {
	ID       string  `json:"id"`
	Position float64 `json:"position"`
}

func (c SetWiper) Target() string { return c.ID }

func (c SetWiper) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	if !(c.Position > 0 && c.Position <= 1) {
		return models.NewValidationError("wiper", c.Position, "must be within (0, 1]")
	}
	return nil
}

func (c SetWiper) apply(comp *models.Component) error {
	p, ok := comp.Params.(*models.PotentiometerParams)
	if !ok {
		return wrongType(comp, "wiper")
	}
	p.Wiper = c.Position
	return nil
}

// SetSwitch opens or closes a switch
type SetSwitch struct {
	ID     string `json:"id"`
	Closed bool   `json:"closed"`
}

func (c SetSwitch) Target() string  { return c.ID }
func (c SetSwitch) Validate() error { return requireID(c.ID) }

func (c SetSwitch) apply(comp *models.Component) error {
	p, ok := comp.Params.(*models.SwitchParams)
	if !ok {
		return wrongType(comp, "closed")
	}
	closed := c.Closed
	p.Closed = &closed
	return nil
}

// ToggleSwitch flips a switch
type ToggleSwitch struct {
	ID string `json:"id"`
}

func (c ToggleSwitch) Target() string  { return c.ID }
func (c ToggleSwitch) Validate() error { return requireID(c.ID) }

func (c ToggleSwitch) apply(comp *models.Component) error {
	p, ok := comp.Params.(*models.SwitchParams)
	if !ok {
		return wrongType(comp, "closed")
	}
	closed := !p.IsClosed()
	p.Closed = &closed
	return nil
}

// SetPosition replaces a component's canvas position
type SetPosition struct {
	ID       string          `json:"id"`
	Position models.Position `json:"position"`
}

func (c SetPosition) Target() string { return c.ID }

func (c SetPosition) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	if math.IsNaN(c.Position.X) || math.IsNaN(c.Position.Y) {
		return models.NewValidationError("position", c.Position, "coordinates must be numbers")
	}
	return nil
}

func (c SetPosition) apply(comp *models.Component) error {
	comp.Position = c.Position
	return nil
}

// SetRotation sets a component's rotation in degrees
type SetRotation struct {
	ID      string  `json:"id"`
	Degrees float64 `json:"degrees"`
}

func (c SetRotation) Target() string { return c.ID }

func (c SetRotation) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	if math.IsNaN(c.Degrees) || math.IsInf(c.Degrees, 0) {
		return models.NewValidationError("rotation", c.Degrees, "must be finite")
	}
	return nil
}

func (c SetRotation) apply(comp *models.Component) error {
	comp.Rotation = c.Degrees
	return nil
}

// ResetHealth restores a blown component to normal operation
type ResetHealth struct {
	ID string `json:"id"`
}

func (c ResetHealth) Target() string  { return c.ID }
func (c ResetHealth) Validate() error { return requireID(c.ID) }

func (c ResetHealth) apply(comp *models.Component) error {
	comp.Health = models.HealthNormal
	return nil
}

// commandFactories maps wire names onto command constructors
var commandFactories = map[string]func() Command{
	"setVoltage":            func() Command { return &SetVoltage{} },
	"setResistance":         func() Command { return &SetResistance{} },
	"setInternalResistance": func() Command { return &SetInternalResistance{} },
	"setForwardVoltage":     func() Command { return &SetForwardVoltage{} },
	"setMaxCurrent":         func() Command { return &SetMaxCurrent{} },
	"setCapacitance":        func() Command { return &SetCapacitance{} },
	"setTurns":              func() Command { return &SetTurns{} },
	"setWiper":              func() Command { return &SetWiper{} },
	"setSwitch":             func() Command { return &SetSwitch{} },
	"toggleSwitch":          func() Command { return &ToggleSwitch{} },
	"setPosition":           func() Command { return &SetPosition{} },
	"setRotation":           func() Command { return &SetRotation{} },
	"resetHealth":           func() Command { return &ResetHealth{} },
}

// DecodeCommand builds a typed command from its name and JSON arguments
func DecodeCommand(name string, args json.RawMessage) (Command, error) {
	factory, ok := commandFactories[name]
	if !ok {
		return nil, models.NewValidationError("command", name, "unknown command")
	}
	cmd := factory()
	if len(args) > 0 {
		if err := json.Unmarshal(args, cmd); err != nil {
			return nil, fmt.Errorf("%w: command %s: %v", ErrValidation, name, err)
		}
	}
	return cmd, nil
}

// CommandNames returns the names accepted by DecodeCommand
func CommandNames() []string {
	names := make([]string, 0, len(commandFactories))
	for name := range commandFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
