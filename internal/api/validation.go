package api

import (
	"net/http"

	"go-circuit-lab/internal/engine"
)

// ValidationResponse lists the wiring mistakes found in a circuit
type ValidationResponse struct {
	Valid      bool               `json:"valid"`
	Violations []engine.Violation `json:"violations"`
	Conflicts  []engine.Conflict  `json:"conflicts"`
}

// ValidateCircuit inspects a circuit; GET /api/circuits/validate?id=... .
// A circuit with no violations is valid even when it is open.
func (s *Server) ValidateCircuit(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	id, ok := s.circuitID(w, r)
	if !ok {
		return
	}

	var resp ValidationResponse
	if err := s.manager.View(id, func(sim *engine.Simulator) error {
		resp.Violations = sim.Diagnose()
		resp.Conflicts = sim.Conflicts()
		return nil
	}); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if resp.Violations == nil {
		resp.Violations = []engine.Violation{}
	}
	if resp.Conflicts == nil {
		resp.Conflicts = []engine.Conflict{}
	}
	resp.Valid = len(resp.Violations) == 0
	s.writeSuccess(w, resp, "")
}
