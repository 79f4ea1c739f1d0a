package engine

import "go-circuit-lab/internal/models"

// deriveSemantics summarises the settled circuit
func (s *Simulator) deriveSemantics() models.SemanticState {
	state := models.SemanticState{
		ComponentFailure: []string{},
		SafetyRiskLevel:  models.RiskNone,
	}

	// Any wire plus two components reads as closed
	state.OpenCircuit = len(s.wires) == 0 || len(s.components) < 2

	sourcing := false
	for _, id := range s.order {
		comp := s.components[id]
		out := comp.Output

		// Batteries are never blown by their own current, so a short
		// persists for as long as the wiring does
		if comp.Type == models.TypeBattery && out.Sourcing && comp.IsHealthy() {
			sourcing = true
			if out.Current > shortCircuitCurrent {
				state.ShortCircuit = true
			}
		}
		if out.Current > comp.FailureLimit() {
			state.OvercurrentDetected = true
		}
		if comp.Type == models.TypeCapacitor && out.Charging {
			state.CapacitorCharging = true
		}
		if comp.Type == models.TypeLED && out.Voltage < 0 {
			state.ReversePolarityDetected = true
		}
		if !comp.IsHealthy() {
			state.ComponentFailure = append(state.ComponentFailure, id)
		}
	}

	state.PowerFlowActive = sourcing && !state.OpenCircuit && !state.ShortCircuit

	switch {
	case state.ShortCircuit:
		state.SafetyRiskLevel = models.RiskHigh
	case len(state.ComponentFailure) > 0:
		state.SafetyRiskLevel = models.RiskMedium
	}
	return state
}
