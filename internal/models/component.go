package models

import (
	"fmt"
	"strings"
)

// Health is the operational state of a component
type Health string

const (
	HealthNormal Health = "normal"
	HealthBlown  Health = "blown"
)

// Terminal indexes one side of a two-terminal component
type Terminal int

const (
	// TerminalLeft is the positive reference terminal
	TerminalLeft Terminal = 0
	// TerminalRight is the negative reference terminal
	TerminalRight Terminal = 1
)

// ParseTerminal accepts "left"/"right", "positive"/"negative", "+"/"-" or "0"/"1"
func ParseTerminal(s string) (Terminal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "positive", "+", "0", "a", "anode":
		return TerminalLeft, nil
	case "right", "negative", "-", "1", "b", "cathode":
		return TerminalRight, nil
	default:
		return 0, NewValidationError("terminal", s, "expected left or right")
	}
}

// String returns the terminal name
func (t Terminal) String() string {
	if t == TerminalRight {
		return "right"
	}
	return "left"
}

// Output holds the engine-written results of the last recompute
type Output struct {
	Current          float64 `json:"current"`
	Voltage          float64 `json:"voltage"`
	Glowing          bool    `json:"glowing,omitempty"`
	Spinning         bool    `json:"spinning,omitempty"`
	Charging         bool    `json:"charging,omitempty"`
	Closed           bool    `json:"closed,omitempty"`
	Blown            bool    `json:"blown,omitempty"`
	Sourcing         bool    `json:"sourcing,omitempty"`
	SecondaryVoltage float64 `json:"secondaryVoltage,omitempty"`
}

// Component represents a placed two-terminal circuit element
type Component struct {
	ID         string        `json:"id"`
	Type       ComponentType `json:"type"`
	Alias      string        `json:"alias,omitempty"`
	Terminals  [2]NodeID     `json:"terminals"`
	Position   Position      `json:"position"`
	Rotation   float64       `json:"rotation"`
	MaxCurrent float64       `json:"maxCurrent,omitempty"`
	Params     Params        `json:"params"`
	Output     Output        `json:"output"`
	Health     Health        `json:"health"`
}

// NewComponent creates a healthy component
func NewComponent(id string, t ComponentType, params Params, left, right NodeID) *Component {
	if params == nil {
		params = t.NewParams()
	}
	return &Component{
		ID:        id,
		Type:      t,
		Terminals: [2]NodeID{left, right},
		Params:    params,
		Health:    HealthNormal,
	}
}

// FailureLimit returns the current above which the component fails
func (c *Component) FailureLimit() float64 {
	if c.MaxCurrent > 0 {
		return c.MaxCurrent
	}
	return c.Type.FailureLimit()
}

// IsHealthy reports whether the component is operating normally
func (c *Component) IsHealthy() bool {
	return c.Health == HealthNormal
}

// Terminal returns the node attached to the given terminal
func (c *Component) Terminal(t Terminal) NodeID {
	return c.Terminals[t]
}

// HasTerminalOn reports whether either terminal sits on node
func (c *Component) HasTerminalOn(node NodeID) bool {
	return c.Terminals[0] == node || c.Terminals[1] == node
}

// Clone creates a deep copy of the component
func (c *Component) Clone() *Component {
	clone := *c
	if c.Params != nil {
		clone.Params = c.Params.Clone()
	}
	return &clone
}

// String returns a string representation of the component
func (c *Component) String() string {
	return fmt.Sprintf("Component{ID: %s, Type: %s, Terminals: [%d %d], Health: %s}",
		c.ID, c.Type, c.Terminals[0], c.Terminals[1], c.Health)
}

// ComponentSpec describes a component to insert, with terminals named by node label
type ComponentSpec struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Nodes      []string       `json:"nodes"`
	Position   *Position      `json:"position,omitempty"`
	Rotation   float64        `json:"rotation,omitempty"`
	MaxCurrent float64        `json:"maxCurrent,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Health     Health         `json:"health,omitempty"`
}
