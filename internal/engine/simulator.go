package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"go-circuit-lab/internal/models"
)

// Simulator owns a circuit graph and keeps its derived state current.
// Every successful mutation triggers a full recompute before returning.
// A Simulator is not safe for concurrent use.
type Simulator struct {
	nodes      []*models.Node
	nodeIndex  map[string]models.NodeID
	components map[string]*models.Component
	order      []string
	wires      []*models.Wire
	conflicts  []Conflict
	semantics  models.SemanticState
	revision   uint64

	// deferred suppresses recompute while a definition is being loaded
	deferred bool

	logger *slog.Logger
	newID  func() string
}

// Option configures a Simulator
type Option func(*Simulator)

// WithLogger sets the logger used for failure and conflict diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator overrides how wire ids are generated
func WithIDGenerator(fn func() string) Option {
	return func(s *Simulator) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewSimulator creates an empty simulator in the idle state
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		nodeIndex:  make(map[string]models.NodeID),
		components: make(map[string]*models.Component),
		semantics:  models.IdleSemantics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddNode creates a new junction with a unique label
func (s *Simulator) AddNode(label string, pos models.Position) (models.NodeID, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.InvalidNode, models.NewValidationError("label", label, "must not be empty")
	}
	if _, exists := s.nodeIndex[label]; exists {
		return models.InvalidNode, models.NewValidationError("label", label, "node already exists")
	}

	id := models.NodeID(len(s.nodes))
	s.nodes = append(s.nodes, models.NewNode(id, label, pos))
	s.nodeIndex[label] = id
	s.recompute()
	return id, nil
}

// AddComponent inserts a component, or replaces one with the same id while
// keeping its original insertion position.
func (s *Simulator) AddComponent(spec models.ComponentSpec) error {
	comp, err := s.buildComponent(spec)
	if err != nil {
		return err
	}

	if _, exists := s.components[comp.ID]; !exists {
		s.order = append(s.order, comp.ID)
	}
	s.components[comp.ID] = comp
	s.recompute()
	return nil
}

// buildComponent validates a spec and resolves it into a component
func (s *Simulator) buildComponent(spec models.ComponentSpec) (*models.Component, error) {
	id := strings.TrimSpace(spec.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: component id is required", ErrInvalidComponent)
	}

	t, alias, err := models.ResolveType(spec.Type)
	if err != nil {
		return nil, err
	}

	if len(spec.Nodes) != 2 {
		return nil, fmt.Errorf("%w: component %q needs exactly 2 terminals, got %d", ErrInvalidComponent, id, len(spec.Nodes))
	}
	var terminals [2]models.NodeID
	for i, label := range spec.Nodes {
		node, ok := s.nodeIndex[label]
		if !ok {
			return nil, fmt.Errorf("%w: component %q references unknown node %q", ErrInvalidComponent, id, label)
		}
		terminals[i] = node
	}

	// maxCurrent is accepted inside the property bag as well
	props := make(map[string]any, len(spec.Properties))
	maxCurrent := spec.MaxCurrent
	for k, v := range spec.Properties {
		if k == "maxCurrent" {
			f, err := toFloat("maxCurrent", v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidComponent, err)
			}
			if err := requirePositive("maxCurrent", f); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidComponent, err)
			}
			maxCurrent = f
			continue
		}
		props[k] = v
	}
	if maxCurrent < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidComponent, models.NewValidationError("maxCurrent", maxCurrent, "must be positive"))
	}

	params, err := models.DecodeParams(t, alias, props)
	if err != nil {
		if errors.Is(err, ErrInvalidComponent) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: component %q: %w", ErrInvalidComponent, id, err)
	}

	comp := models.NewComponent(id, t, params, terminals[0], terminals[1])
	comp.Alias = alias
	comp.MaxCurrent = maxCurrent
	comp.Rotation = spec.Rotation
	if spec.Position != nil {
		comp.Position = *spec.Position
	}
	if spec.Health == models.HealthBlown {
		comp.Health = models.HealthBlown
	}
	return comp, nil
}

// Connect adds a wire between two nodes and returns its id.
// Duplicate wires are allowed.
func (s *Simulator) Connect(nodeA, nodeB string) (string, error) {
	a, err := s.lookupNode(nodeA)
	if err != nil {
		return "", err
	}
	b, err := s.lookupNode(nodeB)
	if err != nil {
		return "", err
	}

	wire := models.NewWire(s.newID(), a, b)
	s.wires = append(s.wires, wire)
	s.recompute()
	return wire.ID, nil
}

// ConnectTerminals wires a terminal of one component to a terminal of another
func (s *Simulator) ConnectTerminals(compA string, termA models.Terminal, compB string, termB models.Terminal) (string, error) {
	a, err := s.terminalNode(compA, termA)
	if err != nil {
		return "", err
	}
	b, err := s.terminalNode(compB, termB)
	if err != nil {
		return "", err
	}

	wire := models.NewWire(s.newID(), a, b)
	s.wires = append(s.wires, wire)
	s.recompute()
	return wire.ID, nil
}

// WireSelector chooses wires to remove. Either WireID is set, or both
// component/terminal pairs are set.
type WireSelector struct {
	WireID        string
	FromComponent string
	FromTerminal  models.Terminal
	ToComponent   string
	ToTerminal    models.Terminal
}

// Disconnect removes every wire matched by the selector and returns how many
// were removed. Components are never touched.
func (s *Simulator) Disconnect(sel WireSelector) (int, error) {
	var match func(w *models.Wire) bool
	if sel.WireID != "" {
		match = func(w *models.Wire) bool { return w.ID == sel.WireID }
	} else {
		a, err := s.terminalNode(sel.FromComponent, sel.FromTerminal)
		if err != nil {
			return 0, err
		}
		b, err := s.terminalNode(sel.ToComponent, sel.ToTerminal)
		if err != nil {
			return 0, err
		}
		match = func(w *models.Wire) bool { return w.Joins(a, b) }
	}

	kept := s.wires[:0:0]
	removed := 0
	for _, w := range s.wires {
		if match(w) {
			removed++
			continue
		}
		kept = append(kept, w)
	}
	if removed == 0 {
		return 0, fmt.Errorf("%w: no matching wire", ErrNotFound)
	}

	s.wires = kept
	s.recompute()
	return removed, nil
}

// RemoveComponent deletes a component and every wire touching its terminals
func (s *Simulator) RemoveComponent(id string) error {
	comp, ok := s.components[id]
	if !ok {
		return fmt.Errorf("%w: component %q", ErrNotFound, id)
	}

	kept := s.wires[:0:0]
	for _, w := range s.wires {
		if comp.HasTerminalOn(w.From) || comp.HasTerminalOn(w.To) {
			continue
		}
		kept = append(kept, w)
	}
	s.wires = kept

	delete(s.components, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.recompute()
	return nil
}

// Reset empties the circuit and returns to the idle state
func (s *Simulator) Reset() {
	s.nodes = nil
	s.nodeIndex = make(map[string]models.NodeID)
	s.components = make(map[string]*models.Component)
	s.order = nil
	s.wires = nil
	s.recompute()
}

// Revision returns the number of recomputes performed so far
func (s *Simulator) Revision() uint64 {
	return s.revision
}

func (s *Simulator) lookupNode(label string) (models.NodeID, error) {
	id, ok := s.nodeIndex[label]
	if !ok {
		return models.InvalidNode, fmt.Errorf("%w: node %q", ErrNotFound, label)
	}
	return id, nil
}

func (s *Simulator) terminalNode(compID string, t models.Terminal) (models.NodeID, error) {
	comp, ok := s.components[compID]
	if !ok {
		return models.InvalidNode, fmt.Errorf("%w: component %q", ErrNotFound, compID)
	}
	if t != models.TerminalLeft && t != models.TerminalRight {
		return models.InvalidNode, models.NewValidationError("terminal", int(t), "expected 0 or 1")
	}
	return comp.Terminal(t), nil
}
