package engine

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"go-circuit-lab/internal/models"
)

// State is a deep-copied snapshot of a simulator
type State struct {
	Components []*models.Component  `json:"components"`
	Nodes      []*models.Node       `json:"nodes"`
	Wires      []*models.Wire       `json:"wires"`
	Conflicts  []Conflict           `json:"conflicts"`
	Semantics  models.SemanticState `json:"semantics"`
	Revision   uint64               `json:"revision"`
}

// State returns a snapshot of the whole circuit. Mutating it has no effect on
// the simulator.
func (s *Simulator) State() *State {
	state := &State{
		Components: make([]*models.Component, 0, len(s.order)),
		Nodes:      make([]*models.Node, 0, len(s.nodes)),
		Wires:      make([]*models.Wire, 0, len(s.wires)),
		Conflicts:  append([]Conflict{}, s.conflicts...),
		Semantics:  s.semantics.Clone(),
		Revision:   s.revision,
	}
	for _, id := range s.order {
		state.Components = append(state.Components, s.components[id].Clone())
	}
	for _, n := range s.nodes {
		state.Nodes = append(state.Nodes, n.Clone())
	}
	for _, w := range s.wires {
		state.Wires = append(state.Wires, w.Clone())
	}
	return state
}

// Semantics returns the semantic state of the last recompute
func (s *Simulator) Semantics() models.SemanticState {
	return s.semantics.Clone()
}

// Component returns a copy of a component
func (s *Simulator) Component(id string) (*models.Component, error) {
	comp, ok := s.components[id]
	if !ok {
		return nil, fmt.Errorf("%w: component %q", ErrNotFound, id)
	}
	return comp.Clone(), nil
}

// Node returns a copy of a node by label
func (s *Simulator) Node(label string) (*models.Node, error) {
	id, err := s.lookupNode(label)
	if err != nil {
		return nil, err
	}
	return s.nodes[id].Clone(), nil
}

// Conflicts returns the propagation conflicts of the last recompute
func (s *Simulator) Conflicts() []Conflict {
	return append([]Conflict{}, s.conflicts...)
}

// ComponentIDs returns component ids in insertion order
func (s *Simulator) ComponentIDs() []string {
	return append([]string{}, s.order...)
}

// Counts returns the number of nodes, components and wires
func (s *Simulator) Counts() (nodes, components, wires int) {
	return len(s.nodes), len(s.components), len(s.wires)
}

// Measurements summarises the magnitudes of the last recompute.
// TotalCurrent sums every component, SourceCurrent only the batteries and
// LoadCurrent everything else.
type Measurements struct {
	TotalCurrent  float64 `json:"totalCurrent"`
	SourceCurrent float64 `json:"sourceCurrent"`
	LoadCurrent   float64 `json:"loadCurrent"`
	MinVoltage    float64 `json:"minVoltage"`
	MaxVoltage    float64 `json:"maxVoltage"`
	Components    int     `json:"components"`
	Nodes         int     `json:"nodes"`
	Wires         int     `json:"wires"`
}

// Measurements computes current and voltage levels of the circuit
func (s *Simulator) Measurements() Measurements {
	m := Measurements{
		Components: len(s.components),
		Nodes:      len(s.nodes),
		Wires:      len(s.wires),
	}

	var sources, loads []float64
	for _, id := range s.order {
		comp := s.components[id]
		if comp.Type == models.TypeBattery {
			sources = append(sources, comp.Output.Current)
			continue
		}
		loads = append(loads, comp.Output.Current)
	}
	if len(sources) > 0 {
		m.SourceCurrent = floats.Sum(sources)
	}
	if len(loads) > 0 {
		m.LoadCurrent = floats.Sum(loads)
	}
	m.TotalCurrent = m.SourceCurrent + m.LoadCurrent

	if len(s.nodes) > 0 {
		voltages := make([]float64, len(s.nodes))
		for i, n := range s.nodes {
			voltages[i] = n.Voltage
		}
		m.MinVoltage = floats.Min(voltages)
		m.MaxVoltage = floats.Max(voltages)
	}
	return m
}
