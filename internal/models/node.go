package models

import "fmt"

// NodeID is an opaque handle into the simulator's node arena
type NodeID int

// InvalidNode is the zero handle for unresolved terminals
const InvalidNode NodeID = -1

// Node represents an electrical junction shared by component terminals and wire ends
type Node struct {
	ID       NodeID   `json:"id"`
	Label    string   `json:"label"`
	Voltage  float64  `json:"voltage"`
	Current  float64  `json:"current"`
	Position Position `json:"position"`
}

// NewNode creates a node with zero voltage
func NewNode(id NodeID, label string, pos Position) *Node {
	return &Node{
		ID:       id,
		Label:    label,
		Position: pos,
	}
}

// Clone creates a copy of the node
func (n *Node) Clone() *Node {
	clone := *n
	return &clone
}

// String returns a string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("Node{ID: %d, Label: %s, Voltage: %.3f}", n.ID, n.Label, n.Voltage)
}
