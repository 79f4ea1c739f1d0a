package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/events"
	"go-circuit-lab/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.SemanticsChanged
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.SemanticsChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func buildSeries(sim *engine.Simulator) error {
	for _, label := range []string{"bp", "bn", "l1", "l2"} {
		if _, err := sim.AddNode(label, models.Position{}); err != nil {
			return err
		}
	}
	if err := sim.AddComponent(models.ComponentSpec{ID: "b1", Type: "battery", Nodes: []string{"bp", "bn"}}); err != nil {
		return err
	}
	if err := sim.AddComponent(models.ComponentSpec{ID: "bulb", Type: "bulb", Nodes: []string{"l1", "l2"}}); err != nil {
		return err
	}
	if _, err := sim.Connect("bp", "l1"); err != nil {
		return err
	}
	_, err := sim.Connect("l2", "bn")
	return err
}

func TestCreateAndList(t *testing.T) {
	m := NewManager(nil, nil)

	info, err := m.Create("bench", "Bench", "")
	if err != nil {
		t.Fatalf("Failed to create circuit: %v", err)
	}
	if info.ID != "bench" || !info.Semantics.OpenCircuit {
		t.Errorf("Unexpected info: %+v", info)
	}

	generated, err := m.Create("", "", "")
	if err != nil {
		t.Fatalf("Failed to create circuit: %v", err)
	}
	if generated.ID == "" || generated.Name != generated.ID {
		t.Errorf("Expected generated id to double as name, got %+v", generated)
	}

	if _, err := m.Create("bench", "", ""); !errors.Is(err, ErrExists) {
		t.Errorf("Expected ErrExists, got %v", err)
	}
	if _, err := m.Create("bad id!", "", ""); !errors.Is(err, engine.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}

	list := m.List()
	if len(list) != 2 || list[0].ID != "bench" {
		t.Errorf("Expected creation order, got %v", list)
	}
	if m.Count() != 2 {
		t.Errorf("Expected 2 circuits, got %d", m.Count())
	}
}

func TestMutatePublishesSemantics(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(pub, nil)
	if _, err := m.Create("demo", "", ""); err != nil {
		t.Fatalf("Failed to create circuit: %v", err)
	}

	if err := m.Mutate(context.Background(), "demo", buildSeries); err != nil {
		t.Fatalf("Failed to mutate circuit: %v", err)
	}
	if pub.count() != 1 {
		t.Fatalf("Expected 1 event, got %d", pub.count())
	}
	ev := pub.events[0]
	if ev.CircuitID != "demo" || !ev.Semantics.PowerFlowActive || ev.Topology != models.TopologyClosed {
		t.Errorf("Unexpected event: %+v", ev)
	}

	// A read-only callback publishes nothing
	if err := m.Mutate(context.Background(), "demo", func(*engine.Simulator) error { return nil }); err != nil {
		t.Fatalf("Failed to mutate circuit: %v", err)
	}
	if pub.count() != 1 {
		t.Errorf("Expected no event without a recompute, got %d", pub.count())
	}

	// Failed mutations publish nothing
	err := m.Mutate(context.Background(), "demo", func(sim *engine.Simulator) error {
		return sim.RemoveComponent("ghost")
	})
	if !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if pub.count() != 1 {
		t.Errorf("Expected no event after a failure, got %d", pub.count())
	}
}

func TestMutateIgnoresPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	m := NewManager(pub, nil)
	if _, err := m.Create("demo", "", ""); err != nil {
		t.Fatalf("Failed to create circuit: %v", err)
	}
	if err := m.Mutate(context.Background(), "demo", buildSeries); err != nil {
		t.Errorf("Publish failures should not fail the mutation: %v", err)
	}
}

func TestUnknownCircuit(t *testing.T) {
	m := NewManager(nil, nil)

	if _, err := m.Get("ghost"); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Get, got %v", err)
	}
	if err := m.Delete("ghost"); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Delete, got %v", err)
	}
	if err := m.View("ghost", func(*engine.Simulator) error { return nil }); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from View, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	m := NewManager(nil, nil)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := m.Create(id, "", ""); err != nil {
			t.Fatalf("Failed to create circuit: %v", err)
		}
	}
	if err := m.Delete("b"); err != nil {
		t.Fatalf("Failed to delete circuit: %v", err)
	}
	list := m.List()
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "c" {
		t.Errorf("Expected [a c], got %v", list)
	}
}

func TestLoadAndExport(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(pub, nil)
	if _, err := m.Create("src", "Source", "series bulb"); err != nil {
		t.Fatalf("Failed to create circuit: %v", err)
	}
	if err := m.Mutate(context.Background(), "src", buildSeries); err != nil {
		t.Fatalf("Failed to build circuit: %v", err)
	}

	def, err := m.Export("src")
	if err != nil {
		t.Fatalf("Failed to export circuit: %v", err)
	}
	if def.Name != "Source" || len(def.Components) != 2 {
		t.Errorf("Unexpected export: %+v", def)
	}

	def.ID = "copy"
	info, err := m.Load(context.Background(), def)
	if err != nil {
		t.Fatalf("Failed to load circuit: %v", err)
	}
	if info.ID != "copy" || info.Components != 2 || info.Wires != 2 {
		t.Errorf("Unexpected loaded info: %+v", info)
	}
	if !info.Semantics.PowerFlowActive {
		t.Error("Loaded circuit should carry power")
	}

	// Loading over an existing circuit replaces it
	def.Components = def.Components[:1]
	def.Wires = nil
	info, err = m.Load(context.Background(), def)
	if err != nil {
		t.Fatalf("Failed to reload circuit: %v", err)
	}
	if info.Components != 1 || m.Count() != 2 {
		t.Errorf("Expected replacement in place, got %+v (%d circuits)", info, m.Count())
	}
}

func TestConcurrentMutations(t *testing.T) {
	m := NewManager(nil, nil)
	if _, err := m.Create("demo", "", ""); err != nil {
		t.Fatalf("Failed to create circuit: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Mutate(context.Background(), "demo", func(sim *engine.Simulator) error {
				_, err := sim.AddNode(string(rune('a'+i)), models.Position{})
				return err
			})
			_, _ = m.Get("demo")
		}(i)
	}
	wg.Wait()

	info, err := m.Get("demo")
	if err != nil {
		t.Fatalf("Failed to get circuit: %v", err)
	}
	if info.Nodes != 20 {
		t.Errorf("Expected 20 nodes, got %d", info.Nodes)
	}
}

func TestConcurrentMutationsPublishInOrder(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(pub, nil)
	if _, err := m.Create("demo", "", ""); err != nil {
		t.Fatalf("Failed to create circuit: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Mutate(context.Background(), "demo", func(sim *engine.Simulator) error {
				_, err := sim.AddNode(string(rune('a'+i)), models.Position{})
				return err
			})
		}(i)
	}
	wg.Wait()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 20 {
		t.Fatalf("Expected 20 events, got %d", len(pub.events))
	}
	for i := 1; i < len(pub.events); i++ {
		if pub.events[i].Revision <= pub.events[i-1].Revision {
			t.Errorf("Event %d has revision %d after %d", i, pub.events[i].Revision, pub.events[i-1].Revision)
		}
	}
}
