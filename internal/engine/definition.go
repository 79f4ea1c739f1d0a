package engine

import (
	"fmt"

	"go-circuit-lab/internal/models"
)

// Load replaces the circuit with a parsed definition. Nodes, components and
// wires are inserted in document order with a single recompute at the end.
// On error the simulator is left unchanged.
func (s *Simulator) Load(def *models.CircuitDefinitionJSON) error {
	staged := NewSimulator(WithLogger(s.logger), WithIDGenerator(s.newID))
	staged.deferred = true

	for _, n := range def.Nodes {
		pos := models.Position{}
		if n.Position != nil {
			pos = *n.Position
		}
		if _, err := staged.AddNode(n.Label, pos); err != nil {
			return fmt.Errorf("failed to add node %q: %w", n.Label, err)
		}
	}

	for _, c := range def.Components {
		if err := staged.AddComponent(c); err != nil {
			return fmt.Errorf("failed to add component %q: %w", c.ID, err)
		}
	}

	for i, w := range def.Wires {
		if _, err := staged.AddWire(w); err != nil {
			return fmt.Errorf("failed to add wire %d: %w", i, err)
		}
	}

	// Swap the staged graph in
	s.nodes = staged.nodes
	s.nodeIndex = staged.nodeIndex
	s.components = staged.components
	s.order = staged.order
	s.wires = staged.wires
	s.recompute()
	return nil
}

// AddWire inserts a wire from its definition form, keeping its id if given
func (s *Simulator) AddWire(w models.WireJSON) (string, error) {
	if w.ID != "" {
		for _, existing := range s.wires {
			if existing.ID == w.ID {
				return "", models.NewValidationError("id", w.ID, "wire already exists")
			}
		}
	}

	var (
		id  string
		err error
	)
	if w.ByTerminals() {
		var from, to models.Terminal
		if from, err = models.ParseTerminal(w.FromTerminal); err != nil {
			return "", err
		}
		if to, err = models.ParseTerminal(w.ToTerminal); err != nil {
			return "", err
		}
		id, err = s.ConnectTerminals(w.FromComponent, from, w.ToComponent, to)
	} else {
		id, err = s.Connect(w.From, w.To)
	}
	if err != nil {
		return "", err
	}
	if w.ID != "" {
		s.wires[len(s.wires)-1].ID = w.ID
		id = w.ID
	}
	return id, nil
}

// Export converts the circuit back into its definition form
func (s *Simulator) Export(id, name, description string) *models.CircuitDefinitionJSON {
	def := &models.CircuitDefinitionJSON{
		ID:          id,
		Name:        name,
		Description: description,
		Nodes:       make([]models.NodeJSON, 0, len(s.nodes)),
		Components:  make([]models.ComponentSpec, 0, len(s.order)),
		Wires:       make([]models.WireJSON, 0, len(s.wires)),
	}

	for _, n := range s.nodes {
		pos := n.Position
		def.Nodes = append(def.Nodes, models.NodeJSON{Label: n.Label, Position: &pos})
	}

	for _, cid := range s.order {
		c := s.components[cid]
		typeName := string(c.Type)
		if c.Alias != "" {
			typeName = c.Alias
		}
		props := models.EncodeParams(c.Params)
		// The transformer alias re-derives this flag
		if c.Alias == models.AliasTransformer {
			delete(props, "transformer")
		}
		pos := c.Position
		def.Components = append(def.Components, models.ComponentSpec{
			ID:         c.ID,
			Type:       typeName,
			Nodes:      []string{s.nodes[c.Terminals[0]].Label, s.nodes[c.Terminals[1]].Label},
			Position:   &pos,
			Rotation:   c.Rotation,
			MaxCurrent: c.MaxCurrent,
			Properties: props,
			Health:     c.Health,
		})
	}

	for _, w := range s.wires {
		def.Wires = append(def.Wires, models.WireJSON{
			ID:   w.ID,
			From: s.nodes[w.From].Label,
			To:   s.nodes[w.To].Label,
		})
	}
	return def
}
