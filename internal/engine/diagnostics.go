package engine

import "go-circuit-lab/internal/models"

// Violation represents a wiring problem found by Diagnose
type Violation struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Diagnose inspects the current graph for common wiring mistakes.
// None of these are errors; the circuit still simulates.
func (s *Simulator) Diagnose() []Violation {
	violations := []Violation{}

	// No source at all
	hasBattery := false
	for _, id := range s.order {
		if s.components[id].Type == models.TypeBattery {
			hasBattery = true
			break
		}
	}
	if len(s.order) > 0 && !hasBattery {
		violations = append(violations, Violation{Code: "no_source", Message: "Circuit has no battery"})
	}

	// Terminals sitting on nodes nothing else reaches
	attached := make([]int, len(s.nodes))
	for _, id := range s.order {
		for _, n := range s.components[id].Terminals {
			attached[n]++
		}
	}
	for _, w := range s.wires {
		attached[w.From]++
		attached[w.To]++
	}
	for _, id := range s.order {
		comp := s.components[id]
		for i, n := range comp.Terminals {
			if attached[n] <= 1 {
				violations = append(violations, Violation{Code: "floating_terminal", Message: "Component terminal is not connected", Context: map[string]interface{}{"componentId": id, "terminal": models.Terminal(i).String(), "node": s.nodes[n].Label}})
			}
		}
	}

	// Wires that loop onto themselves or repeat another wire
	for i, w := range s.wires {
		if w.From == w.To {
			violations = append(violations, Violation{Code: "self_loop", Message: "Wire connects a node to itself", Context: map[string]interface{}{"wireId": w.ID}})
			continue
		}
		for _, prev := range s.wires[:i] {
			if prev.Joins(w.From, w.To) {
				violations = append(violations, Violation{Code: "duplicate_wire", Message: "Wire duplicates an existing wire", Context: map[string]interface{}{"wireId": w.ID, "duplicateOf": prev.ID}})
				break
			}
		}
	}

	// Batteries whose terminals are wired together
	net := nets(s.adjacency())
	for _, id := range s.order {
		comp := s.components[id]
		if comp.Type == models.TypeBattery && net[comp.Terminals[0]] == net[comp.Terminals[1]] {
			violations = append(violations, Violation{Code: "dead_short", Message: "Battery terminals are wired together", Context: map[string]interface{}{"componentId": id}})
		}
	}

	for _, c := range s.conflicts {
		violations = append(violations, Violation{Code: "voltage_conflict", Message: "Node is driven by two sources", Context: map[string]interface{}{"node": c.Label, "kept": c.Kept, "rejected": c.Rejected, "source": c.Source}})
	}
	return violations
}
