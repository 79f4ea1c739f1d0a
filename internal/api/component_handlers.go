package api

import (
	"encoding/json"
	"net/http"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/models"
)

// Request structures for graph editing

type AddNodeRequest struct {
	CircuitID string          `json:"circuitId"`
	Label     string          `json:"label"`
	Position  models.Position `json:"position"`
}

type AddComponentRequest struct {
	CircuitID string `json:"circuitId"`
	models.ComponentSpec
}

type UpdateComponentRequest struct {
	CircuitID   string      `json:"circuitId"`
	ComponentID string      `json:"componentId"`
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
}

type CommandRequest struct {
	CircuitID string          `json:"circuitId"`
	Command   string          `json:"command"`
	Args      json.RawMessage `json:"args"`
}

type ConnectRequest struct {
	CircuitID string `json:"circuitId"`
	models.WireJSON
}

type DisconnectRequest struct {
	CircuitID     string `json:"circuitId"`
	WireID        string `json:"wireId,omitempty"`
	FromComponent string `json:"fromComponent,omitempty"`
	FromTerminal  string `json:"fromTerminal,omitempty"`
	ToComponent   string `json:"toComponent,omitempty"`
	ToTerminal    string `json:"toTerminal,omitempty"`
}

// selector converts the request into a wire selector
func (r DisconnectRequest) selector() (engine.WireSelector, error) {
	if r.WireID != "" {
		return engine.WireSelector{WireID: r.WireID}, nil
	}
	from, err := models.ParseTerminal(r.FromTerminal)
	if err != nil {
		return engine.WireSelector{}, err
	}
	to, err := models.ParseTerminal(r.ToTerminal)
	if err != nil {
		return engine.WireSelector{}, err
	}
	return engine.WireSelector{
		FromComponent: r.FromComponent,
		FromTerminal:  from,
		ToComponent:   r.ToComponent,
		ToTerminal:    to,
	}, nil
}

type ComponentTypesResponse struct {
	Types    []models.ComponentType          `json:"types"`
	Aliases  map[string]models.ComponentType `json:"aliases"`
	Commands []string                        `json:"commands"`
}

func (s *Server) requireCircuit(w http.ResponseWriter, circuitID string) bool {
	if circuitID == "" {
		s.writeError(w, http.StatusBadRequest, "missing_parameter", "Circuit ID is required")
		return false
	}
	return true
}

// AddNode adds a junction node to a circuit
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req AddNodeRequest
	if !s.decodeBody(w, r, &req) || !s.requireCircuit(w, req.CircuitID) {
		return
	}

	var node *models.Node
	err := s.manager.Mutate(r.Context(), req.CircuitID, func(sim *engine.Simulator) error {
		if _, err := sim.AddNode(req.Label, req.Position); err != nil {
			return err
		}
		var err error
		node, err = sim.Node(req.Label)
		return err
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, node, "Node added successfully")
}

// AddComponent adds or replaces a component
func (s *Server) AddComponent(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req AddComponentRequest
	if !s.decodeBody(w, r, &req) || !s.requireCircuit(w, req.CircuitID) {
		return
	}

	var comp *models.Component
	err := s.manager.Mutate(r.Context(), req.CircuitID, func(sim *engine.Simulator) error {
		if err := sim.AddComponent(req.ComponentSpec); err != nil {
			return err
		}
		var err error
		comp, err = sim.Component(req.ID)
		return err
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, comp, "Component added successfully")
}

// RemoveComponent deletes a component and every wire on its terminals.
// Query: id (circuit) and component.
func (s *Server) RemoveComponent(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodDelete) {
		return
	}
	id, ok := s.circuitID(w, r)
	if !ok {
		return
	}
	componentID := r.URL.Query().Get("component")
	if componentID == "" {
		s.writeError(w, http.StatusBadRequest, "missing_parameter", "Component ID is required")
		return
	}

	var sem models.SemanticState
	err := s.manager.Mutate(r.Context(), id, func(sim *engine.Simulator) error {
		if err := sim.RemoveComponent(componentID); err != nil {
			return err
		}
		sem = sim.Semantics()
		return nil
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, sem, "Component removed successfully")
}

// UpdateComponent sets one property of a component by key
func (s *Server) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req UpdateComponentRequest
	if !s.decodeBody(w, r, &req) || !s.requireCircuit(w, req.CircuitID) {
		return
	}

	var comp *models.Component
	err := s.manager.Mutate(r.Context(), req.CircuitID, func(sim *engine.Simulator) error {
		if err := sim.UpdateComponentProperty(req.ComponentID, req.Key, req.Value); err != nil {
			return err
		}
		var err error
		comp, err = sim.Component(req.ComponentID)
		return err
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, comp, "Component updated successfully")
}

// CommandComponent applies a typed command such as setResistance
func (s *Server) CommandComponent(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req CommandRequest
	if !s.decodeBody(w, r, &req) || !s.requireCircuit(w, req.CircuitID) {
		return
	}

	cmd, err := engine.DecodeCommand(req.Command, req.Args)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var comp *models.Component
	err = s.manager.Mutate(r.Context(), req.CircuitID, func(sim *engine.Simulator) error {
		if err := sim.Apply(cmd); err != nil {
			return err
		}
		var err error
		comp, err = sim.Component(cmd.Target())
		return err
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, comp, "Command applied successfully")
}

// ListComponentTypes returns the supported types, their aliases and the
// command names accepted by CommandComponent
func (s *Server) ListComponentTypes(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	s.writeSuccess(w, ComponentTypesResponse{
		Types:    models.ComponentTypes(),
		Aliases:  models.Aliases(),
		Commands: engine.CommandNames(),
	}, "")
}

// ConnectWire wires two nodes, or two component terminals
func (s *Server) ConnectWire(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req ConnectRequest
	if !s.decodeBody(w, r, &req) || !s.requireCircuit(w, req.CircuitID) {
		return
	}

	var wireID string
	err := s.manager.Mutate(r.Context(), req.CircuitID, func(sim *engine.Simulator) error {
		var err error
		wireID, err = sim.AddWire(req.WireJSON)
		return err
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, map[string]string{"wireId": wireID}, "Wire connected successfully")
}

// DisconnectWire removes wires by id or by terminal pair. Components stay.
func (s *Server) DisconnectWire(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req DisconnectRequest
	if !s.decodeBody(w, r, &req) || !s.requireCircuit(w, req.CircuitID) {
		return
	}
	sel, err := req.selector()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var removed int
	err = s.manager.Mutate(r.Context(), req.CircuitID, func(sim *engine.Simulator) error {
		var err error
		removed, err = sim.Disconnect(sel)
		return err
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, map[string]int{"removed": removed}, "Wires disconnected successfully")
}
