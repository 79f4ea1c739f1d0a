package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CircuitParser handles parsing of circuit definitions from JSON format
type CircuitParser struct {
	schema *jsonschema.Schema
}

// NewCircuitParser creates a new circuit parser with the definition schema compiled
func NewCircuitParser() (*CircuitParser, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(circuitSchemaURL, strings.NewReader(circuitSchema)); err != nil {
		return nil, fmt.Errorf("failed to add circuit schema: %w", err)
	}
	schema, err := compiler.Compile(circuitSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile circuit schema: %w", err)
	}
	return &CircuitParser{schema: schema}, nil
}

// CircuitDefinitionJSON represents the JSON structure for circuit definitions
type CircuitDefinitionJSON struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Nodes       []NodeJSON      `json:"nodes"`
	Components  []ComponentSpec `json:"components"`
	Wires       []WireJSON      `json:"wires"`
}

// NodeJSON represents the JSON structure for nodes
type NodeJSON struct {
	Label    string    `json:"id"`
	Position *Position `json:"position,omitempty"`
}

// WireJSON represents a wire either by node labels or by component terminals
type WireJSON struct {
	ID            string `json:"id,omitempty"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
	FromComponent string `json:"fromComponent,omitempty"`
	FromTerminal  string `json:"fromTerminal,omitempty"`
	ToComponent   string `json:"toComponent,omitempty"`
	ToTerminal    string `json:"toTerminal,omitempty"`
}

// ByTerminals reports whether the wire is expressed as component terminals
func (w WireJSON) ByTerminals() bool {
	return w.From == "" && w.To == "" && w.FromComponent != ""
}

// ParseCircuit validates a JSON document against the schema and decodes it
func (p *CircuitParser) ParseCircuit(data []byte) (*CircuitDefinitionJSON, error) {
	// Schema validation works on the generic decoded form
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if err := p.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: circuit definition: %v", ErrValidation, err)
	}

	var def CircuitDefinitionJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to decode circuit definition: %w", err)
	}

	if err := p.CheckDefinition(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// CheckDefinition performs the cross-reference checks the schema cannot express
func (p *CircuitParser) CheckDefinition(def *CircuitDefinitionJSON) error {
	labels := make(map[string]bool, len(def.Nodes))
	for _, n := range def.Nodes {
		if labels[n.Label] {
			return fmt.Errorf("%w: duplicate node %q", ErrValidation, n.Label)
		}
		labels[n.Label] = true
	}

	ids := make(map[string]bool, len(def.Components))
	for _, c := range def.Components {
		if ids[c.ID] {
			return fmt.Errorf("%w: duplicate component %q", ErrInvalidComponent, c.ID)
		}
		ids[c.ID] = true

		if _, _, err := ResolveType(c.Type); err != nil {
			return fmt.Errorf("component %q: %w", c.ID, err)
		}
		// Check terminal nodes
		for _, label := range c.Nodes {
			if !labels[label] {
				return fmt.Errorf("%w: component %q references unknown node %q", ErrInvalidComponent, c.ID, label)
			}
		}
	}

	for i, w := range def.Wires {
		if w.ByTerminals() {
			if !ids[w.FromComponent] || !ids[w.ToComponent] {
				return fmt.Errorf("%w: wire %d references unknown component", ErrNotFound, i)
			}
			if _, err := ParseTerminal(w.FromTerminal); err != nil {
				return fmt.Errorf("wire %d: %w", i, err)
			}
			if _, err := ParseTerminal(w.ToTerminal); err != nil {
				return fmt.Errorf("wire %d: %w", i, err)
			}
			continue
		}
		if !labels[w.From] || !labels[w.To] {
			return fmt.Errorf("%w: wire %d references unknown node", ErrNotFound, i)
		}
	}
	return nil
}

// CircuitToJSON converts a definition to indented JSON
func (p *CircuitParser) CircuitToJSON(def *CircuitDefinitionJSON) ([]byte, error) {
	return json.MarshalIndent(def, "", "  ")
}
