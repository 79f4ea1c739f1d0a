package models

// RiskLevel grades the safety risk of the current circuit state
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Topology summarises how the circuit is closed
type Topology string

const (
	TopologyOpen   Topology = "open"
	TopologyShort  Topology = "short"
	TopologyClosed Topology = "closed"
)

// SemanticState is the derived, high-level summary of a circuit
type SemanticState struct {
	PowerFlowActive         bool      `json:"powerFlowActive"`
	OpenCircuit             bool      `json:"openCircuit"`
	ShortCircuit            bool      `json:"shortCircuit"`
	ReversePolarityDetected bool      `json:"reversePolarityDetected"`
	OvercurrentDetected     bool      `json:"overcurrentDetected"`
	CapacitorCharging       bool      `json:"capacitorCharging"`
	ComponentFailure        []string  `json:"componentFailure"`
	SafetyRiskLevel         RiskLevel `json:"safetyRiskLevel"`
}

// IdleSemantics returns the state of an empty circuit
func IdleSemantics() SemanticState {
	return SemanticState{
		OpenCircuit:      true,
		ComponentFailure: []string{},
		SafetyRiskLevel:  RiskNone,
	}
}

// Tags returns the snake_case names of every active flag
func (s SemanticState) Tags() []string {
	tags := []string{}
	if s.PowerFlowActive {
		tags = append(tags, "power_flow_active")
	}
	if s.OpenCircuit {
		tags = append(tags, "open_circuit")
	}
	if s.ShortCircuit {
		tags = append(tags, "short_circuit")
	}
	if s.ReversePolarityDetected {
		tags = append(tags, "reverse_polarity")
	}
	if s.OvercurrentDetected {
		tags = append(tags, "overcurrent")
	}
	if s.CapacitorCharging {
		tags = append(tags, "capacitor_charging")
	}
	if len(s.ComponentFailure) > 0 {
		tags = append(tags, "component_failure")
	}
	return tags
}

// Topology classifies the circuit; a short wins over an open reading
func (s SemanticState) Topology() Topology {
	switch {
	case s.ShortCircuit:
		return TopologyShort
	case s.OpenCircuit:
		return TopologyOpen
	default:
		return TopologyClosed
	}
}

// Clone creates a deep copy of the semantic state
func (s SemanticState) Clone() SemanticState {
	clone := s
	clone.ComponentFailure = append([]string{}, s.ComponentFailure...)
	return clone
}
