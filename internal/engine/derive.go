package engine

import (
	"math"

	"go-circuit-lab/internal/models"
)

// Thresholds used when deriving visual state
const (
	// bulbGlowCurrent is the current above which a bulb glows
	bulbGlowCurrent = 0.01
	// motorSpinCurrent is the current above which a motor spins
	motorSpinCurrent = 0.1
	// chargingVoltage is the potential difference above which a capacitor charges
	chargingVoltage = 0.1
	// diodeSeriesResistance converts excess forward voltage into current
	diodeSeriesResistance = 100.0
	// shortCircuitCurrent is the battery current that counts as a short
	shortCircuitCurrent = 1.0
)

// recompute runs the full pipeline: propagation, currents and state,
// failure detection, wire currents and semantic state. A component that
// fails is re-derived as open in the same pass, so the result depends only
// on the graph and a second recompute reproduces it.
func (s *Simulator) recompute() {
	if s.deferred {
		return
	}
	s.revision++

	for _, id := range s.order {
		s.components[id].Output = models.Output{}
	}
	for _, n := range s.nodes {
		n.Current = 0
	}

	p := s.propagate()
	// Each round blows at least one more component, so this terminates
	for {
		s.deriveComponents(p)
		if !s.detectFailures() {
			break
		}
	}
	s.deriveCurrents()
	s.semantics = s.deriveSemantics()
}

// deriveComponents computes per-component current and visual state from the
// settled node voltages. Batteries are computed after all loads.
func (s *Simulator) deriveComponents(p *propagation) {
	for _, id := range s.order {
		comp := s.components[id]
		if comp.Type == models.TypeBattery {
			continue
		}
		comp.Output = models.Output{}
		s.deriveLoad(comp)
	}
	for _, id := range s.order {
		comp := s.components[id]
		if comp.Type == models.TypeBattery {
			s.deriveBattery(comp, p)
		}
	}
}

// deriveLoad computes the output of a non-source component
func (s *Simulator) deriveLoad(comp *models.Component) {
	v0 := s.nodes[comp.Terminals[0]].Voltage
	v1 := s.nodes[comp.Terminals[1]].Voltage
	signed := v0 - v1
	dv := math.Abs(signed)

	out := &comp.Output
	out.Voltage = signed
	out.Blown = !comp.IsHealthy()
	if sw, ok := comp.Params.(*models.SwitchParams); ok {
		out.Closed = sw.IsClosed()
	}

	// A failed component is an open circuit
	if !comp.IsHealthy() {
		return
	}

	switch p := comp.Params.(type) {
	case *models.ResistorParams:
		out.Current = dv / p.Ohms()
	case *models.PotentiometerParams:
		out.Current = dv / p.Ohms()
	case *models.BulbParams:
		out.Current = dv / p.Ohms()
		out.Glowing = out.Current > bulbGlowCurrent
	case *models.LEDParams:
		out.Current = forwardCurrent(dv, p.Vf())
		out.Glowing = out.Current > 0
	case *models.DiodeParams:
		out.Current = forwardCurrent(dv, p.Vf())
	case *models.MotorParams:
		out.Current = dv / p.Ohms()
		out.Spinning = out.Current > motorSpinCurrent
	case *models.CapacitorParams:
		out.Voltage = dv
		out.Charging = dv > chargingVoltage
	case *models.FuseParams:
		// Trips in detectFailures at MaxCurrent
		out.Current = dv / p.Ohms()
	case *models.InductorParams:
		if p.Transformer {
			primary := p.PrimaryVoltage
			if primary == 0 {
				primary = dv
			}
			out.SecondaryVoltage = primary * p.TurnsRatio()
		}
	case *models.SwitchParams, *models.GroundParams:
		// Conduct nothing in this model
	}
}

// forwardCurrent models a diode junction: no current below the forward voltage
func forwardCurrent(dv, vf float64) float64 {
	if dv < vf {
		return 0
	}
	return (dv - vf) / diodeSeriesResistance
}

// deriveBattery computes the current delivered by a battery
func (s *Simulator) deriveBattery(comp *models.Component, p *propagation) {
	out := &comp.Output
	out.Blown = !comp.IsHealthy()
	if !out.Sourcing {
		return
	}

	battery := comp.Params.(*models.BatteryParams)
	out.Voltage = battery.EMF()

	t0, t1 := comp.Terminals[0], comp.Terminals[1]
	if p.net[t0] == p.net[t1] {
		// Dead short: terminals joined by wires alone
		out.Current = math.Abs(battery.EMF()) / battery.Internal()
		return
	}

	region := make(map[models.NodeID]bool, len(p.regions[comp.ID]))
	for _, n := range p.regions[comp.ID] {
		region[n] = true
	}
	total := 0.0
	for _, id := range s.order {
		load := s.components[id]
		if load.Type == models.TypeBattery {
			continue
		}
		if region[load.Terminals[0]] || region[load.Terminals[1]] {
			total += load.Output.Current
		}
	}
	out.Current = total
}

// detectFailures marks every healthy load whose current exceeds its failure
// limit as blown and reports whether any did. Failure is sticky. Batteries
// never fail here: their overload is the short circuit itself.
func (s *Simulator) detectFailures() bool {
	failed := false
	for _, id := range s.order {
		comp := s.components[id]
		if comp.Type == models.TypeBattery || !comp.IsHealthy() {
			continue
		}
		if comp.Output.Current > comp.FailureLimit() {
			comp.Health = models.HealthBlown
			failed = true
			s.logger.Debug("component failed", "component", id, "type", comp.Type, "current", comp.Output.Current, "limit", comp.FailureLimit())
		}
	}
	return failed
}

// deriveCurrents annotates nodes and wires with the largest current of any
// component attached to them
func (s *Simulator) deriveCurrents() {
	for _, id := range s.order {
		comp := s.components[id]
		for _, n := range comp.Terminals {
			if comp.Output.Current > s.nodes[n].Current {
				s.nodes[n].Current = comp.Output.Current
			}
		}
	}
	for _, w := range s.wires {
		w.Current = math.Max(s.nodes[w.From].Current, s.nodes[w.To].Current)
	}
}
