package engine

import (
	"fmt"

	"go-circuit-lab/internal/models"
)

// Conflict records a node that two sources tried to drive to different voltages.
// The first writer's value is kept.
type Conflict struct {
	Node     models.NodeID `json:"node"`
	Label    string        `json:"label"`
	Kept     float64       `json:"kept"`
	Rejected float64       `json:"rejected"`
	Source   string        `json:"source"`
}

// String returns a string representation of the conflict
func (c Conflict) String() string {
	return fmt.Sprintf("Conflict{Node: %s, Kept: %.3f, Rejected: %.3f, Source: %s}", c.Label, c.Kept, c.Rejected, c.Source)
}

// propagation is the settled result of one flood pass
type propagation struct {
	written []bool
	// net labels each node with its wire-connected net
	net []int
	// regions holds, per sourcing battery, the nodes written by its positive flood
	regions map[string][]models.NodeID
}

// adjacency builds the undirected wire adjacency in wire insertion order
func (s *Simulator) adjacency() [][]models.NodeID {
	adj := make([][]models.NodeID, len(s.nodes))
	for _, w := range s.wires {
		adj[w.From] = append(adj[w.From], w.To)
		if w.To != w.From {
			adj[w.To] = append(adj[w.To], w.From)
		}
	}
	return adj
}

// nets labels every node with the index of its wire-connected net
func nets(adj [][]models.NodeID) []int {
	label := make([]int, len(adj))
	for i := range label {
		label[i] = -1
	}
	next := 0
	for start := range adj {
		if label[start] >= 0 {
			continue
		}
		label[start] = next
		queue := []models.NodeID{models.NodeID(start)}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			for _, m := range adj[n] {
				if label[m] < 0 {
					label[m] = next
					queue = append(queue, m)
				}
			}
		}
		next++
	}
	return label
}

// propagate resets node voltages and floods each healthy battery's terminal
// voltages across wires. First writer wins; later disagreements become conflicts.
func (s *Simulator) propagate() *propagation {
	adj := s.adjacency()
	p := &propagation{
		written: make([]bool, len(s.nodes)),
		net:     nets(adj),
		regions: make(map[string][]models.NodeID),
	}
	s.conflicts = nil

	for _, n := range s.nodes {
		n.Voltage = 0
	}

	seen := map[Conflict]bool{}
	for _, id := range s.order {
		comp := s.components[id]
		if comp.Type != models.TypeBattery || !comp.IsHealthy() {
			continue
		}
		battery := comp.Params.(*models.BatteryParams)
		comp.Output.Sourcing = true

		p.regions[id] = s.flood(p, adj, comp.Terminals[0], battery.EMF(), id, seen)
		s.flood(p, adj, comp.Terminals[1], 0, id, seen)
	}
	return p
}

// flood writes v into seed and every unwritten node reachable over wires.
// It returns the nodes it wrote.
func (s *Simulator) flood(p *propagation, adj [][]models.NodeID, seed models.NodeID, v float64, source string, seen map[Conflict]bool) []models.NodeID {
	if p.written[seed] {
		s.conflict(seed, v, source, seen)
		return nil
	}

	p.written[seed] = true
	s.nodes[seed].Voltage = v
	region := []models.NodeID{seed}
	queue := []models.NodeID{seed}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range adj[n] {
			if p.written[m] {
				s.conflict(m, v, source, seen)
				continue
			}
			p.written[m] = true
			s.nodes[m].Voltage = v
			region = append(region, m)
			queue = append(queue, m)
		}
	}
	return region
}

// conflict records a rejected write when it disagrees with the kept voltage
func (s *Simulator) conflict(node models.NodeID, rejected float64, source string, seen map[Conflict]bool) {
	kept := s.nodes[node].Voltage
	if kept == rejected {
		return
	}
	c := Conflict{
		Node:     node,
		Label:    s.nodes[node].Label,
		Kept:     kept,
		Rejected: rejected,
		Source:   source,
	}
	if seen[c] {
		return
	}
	seen[c] = true
	s.conflicts = append(s.conflicts, c)
	s.logger.Debug("voltage conflict", "node", c.Label, "kept", kept, "rejected", rejected, "source", source)
}
