package models

import (
	"errors"
	"strings"
	"testing"
)

const seriesCircuitJSON = `{
  "id": "demo",
  "name": "Series bulb",
  "nodes": [
    {"id": "bp", "position": {"x": 0, "y": 0}},
    {"id": "bn"},
    {"id": "l1"},
    {"id": "l2"}
  ],
  "components": [
    {"id": "b1", "type": "battery", "nodes": ["bp", "bn"], "properties": {"voltage": 9}},
    {"id": "bulb", "type": "lamp", "nodes": ["l1", "l2"], "maxCurrent": 0.5}
  ],
  "wires": [
    {"id": "w1", "from": "bp", "to": "l1"},
    {"fromComponent": "bulb", "fromTerminal": "right", "toComponent": "b1", "toTerminal": "negative"}
  ]
}`

func newTestParser(t *testing.T) *CircuitParser {
	t.Helper()
	parser, err := NewCircuitParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	return parser
}

func TestParseCircuit(t *testing.T) {
	parser := newTestParser(t)

	def, err := parser.ParseCircuit([]byte(seriesCircuitJSON))
	if err != nil {
		t.Fatalf("Failed to parse circuit: %v", err)
	}
	if def.ID != "demo" || def.Name != "Series bulb" {
		t.Errorf("Unexpected header: %s / %s", def.ID, def.Name)
	}
	if len(def.Nodes) != 4 || len(def.Components) != 2 || len(def.Wires) != 2 {
		t.Fatalf("Unexpected sizes: %d nodes, %d components, %d wires", len(def.Nodes), len(def.Components), len(def.Wires))
	}
	if def.Nodes[0].Position == nil || def.Nodes[1].Position != nil {
		t.Error("Node positions should be optional")
	}
	if def.Components[1].MaxCurrent != 0.5 {
		t.Errorf("Expected maxCurrent 0.5, got %f", def.Components[1].MaxCurrent)
	}
	if !def.Wires[1].ByTerminals() || def.Wires[0].ByTerminals() {
		t.Error("Wire forms were not recognised")
	}

	out, err := parser.CircuitToJSON(def)
	if err != nil {
		t.Fatalf("Failed to encode circuit: %v", err)
	}
	if _, err := parser.ParseCircuit(out); err != nil {
		t.Errorf("Encoded circuit should parse again: %v", err)
	}
}

func TestParseCircuitSchemaErrors(t *testing.T) {
	parser := newTestParser(t)

	cases := map[string]string{
		"three terminals": `{"nodes":[{"id":"a"},{"id":"b"},{"id":"c"}],"components":[{"id":"r","type":"resistor","nodes":["a","b","c"]}]}`,
		"missing type":    `{"nodes":[{"id":"a"},{"id":"b"}],"components":[{"id":"r","nodes":["a","b"]}]}`,
		"half wire":       `{"nodes":[{"id":"a"}],"wires":[{"from":"a"}]}`,
		"extra field":     `{"nodes":[{"id":"a","voltage":3}]}`,
		"bad health":      `{"nodes":[{"id":"a"},{"id":"b"}],"components":[{"id":"r","type":"resistor","nodes":["a","b"],"health":"melted"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parser.ParseCircuit([]byte(doc)); !errors.Is(err, ErrValidation) {
				t.Errorf("Expected schema validation error, got %v", err)
			}
		})
	}

	if _, err := parser.ParseCircuit([]byte(`{not json`)); err == nil {
		t.Error("Expected malformed JSON to fail")
	}
}

func TestParseCircuitReferenceErrors(t *testing.T) {
	parser := newTestParser(t)

	unknownNode := strings.Replace(seriesCircuitJSON, `"nodes": ["l1", "l2"]`, `"nodes": ["l1", "l9"]`, 1)
	if _, err := parser.ParseCircuit([]byte(unknownNode)); !errors.Is(err, ErrInvalidComponent) {
		t.Errorf("Expected unknown node to be rejected, got %v", err)
	}

	unknownType := strings.Replace(seriesCircuitJSON, `"lamp"`, `"lava"`, 1)
	if _, err := parser.ParseCircuit([]byte(unknownType)); !errors.Is(err, ErrInvalidComponent) {
		t.Errorf("Expected unknown type to be rejected, got %v", err)
	}

	duplicateNode := strings.Replace(seriesCircuitJSON, `{"id": "bn"}`, `{"id": "bp"}`, 1)
	if _, err := parser.ParseCircuit([]byte(duplicateNode)); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected duplicate node to be rejected, got %v", err)
	}

	ghostWire := strings.Replace(seriesCircuitJSON, `"toComponent": "b1"`, `"toComponent": "b9"`, 1)
	if _, err := parser.ParseCircuit([]byte(ghostWire)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected unknown wire component to be rejected, got %v", err)
	}
}
