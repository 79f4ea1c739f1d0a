package models

// Position represents a 2D canvas coordinate for rendering
// Used by Node and Component; never read by the simulation
// JSON: { "x": 80, "y": 160 }
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
