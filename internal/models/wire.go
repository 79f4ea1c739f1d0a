package models

import "fmt"

// Wire is an undirected ideal conductor between two nodes
type Wire struct {
	ID      string  `json:"id"`
	From    NodeID  `json:"from"`
	To      NodeID  `json:"to"`
	Current float64 `json:"current"`
}

// NewWire creates a new wire between two nodes
func NewWire(id string, from, to NodeID) *Wire {
	return &Wire{
		ID:   id,
		From: from,
		To:   to,
	}
}

// Touches reports whether either end of the wire is the given node
func (w *Wire) Touches(node NodeID) bool {
	return w.From == node || w.To == node
}

// Joins reports whether the wire connects a and b in either orientation
func (w *Wire) Joins(a, b NodeID) bool {
	return (w.From == a && w.To == b) || (w.From == b && w.To == a)
}

// Other returns the opposite end of the wire
func (w *Wire) Other(node NodeID) NodeID {
	if w.From == node {
		return w.To
	}
	return w.From
}

// Clone creates a copy of the wire
func (w *Wire) Clone() *Wire {
	clone := *w
	return &clone
}

// String returns a string representation of the wire
func (w *Wire) String() string {
	return fmt.Sprintf("Wire{ID: %s, From: %d, To: %d}", w.ID, w.From, w.To)
}
