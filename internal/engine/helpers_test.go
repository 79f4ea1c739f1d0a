package engine

import (
	"fmt"
	"math"
	"testing"

	"go-circuit-lab/internal/models"
)

const tolerance = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

// newTestSimulator returns a simulator with deterministic wire ids
func newTestSimulator() *Simulator {
	n := 0
	return NewSimulator(WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("w%d", n)
	}))
}

func mustNodes(t *testing.T, s *Simulator, labels ...string) {
	t.Helper()
	for _, label := range labels {
		if _, err := s.AddNode(label, models.Position{}); err != nil {
			t.Fatalf("Failed to add node %s: %v", label, err)
		}
	}
}

func mustComponent(t *testing.T, s *Simulator, spec models.ComponentSpec) {
	t.Helper()
	if err := s.AddComponent(spec); err != nil {
		t.Fatalf("Failed to add component %s: %v", spec.ID, err)
	}
}

func mustConnect(t *testing.T, s *Simulator, a, b string) string {
	t.Helper()
	id, err := s.Connect(a, b)
	if err != nil {
		t.Fatalf("Failed to connect %s-%s: %v", a, b, err)
	}
	return id
}

func mustComponentState(t *testing.T, s *Simulator, id string) *models.Component {
	t.Helper()
	comp, err := s.Component(id)
	if err != nil {
		t.Fatalf("Failed to get component %s: %v", id, err)
	}
	return comp
}

// seriesCircuit builds battery b1 (bp, bn) wired to a single load (l1, l2)
func seriesCircuit(t *testing.T, volts float64, load models.ComponentSpec) *Simulator {
	t.Helper()
	s := newTestSimulator()
	mustNodes(t, s, "bp", "bn", "l1", "l2")
	mustComponent(t, s, models.ComponentSpec{
		ID:         "b1",
		Type:       "battery",
		Nodes:      []string{"bp", "bn"},
		Properties: map[string]any{"voltage": volts},
	})
	if load.Nodes == nil {
		load.Nodes = []string{"l1", "l2"}
	}
	mustComponent(t, s, load)
	mustConnect(t, s, "bp", "l1")
	mustConnect(t, s, "l2", "bn")
	return s
}
