package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/script"
)

// GetState returns a full snapshot of a circuit
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	id, ok := s.circuitID(w, r)
	if !ok {
		return
	}

	var state *engine.State
	if err := s.manager.View(id, func(sim *engine.Simulator) error {
		state = sim.State()
		return nil
	}); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, state, "")
}

// GetSemantics returns the semantic state with its tags and topology
func (s *Server) GetSemantics(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	id, ok := s.circuitID(w, r)
	if !ok {
		return
	}

	var resp SemanticsResponse
	if err := s.manager.View(id, func(sim *engine.Simulator) error {
		sem := sim.Semantics()
		resp = SemanticsResponse{
			Semantics: sem,
			Tags:      sem.Tags(),
			Topology:  sem.Topology(),
			Revision:  sim.Revision(),
		}
		return nil
	}); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, resp, "")
}

// GetMeasurements returns current and voltage levels
func (s *Server) GetMeasurements(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	id, ok := s.circuitID(w, r)
	if !ok {
		return
	}

	var m engine.Measurements
	if err := s.manager.View(id, func(sim *engine.Simulator) error {
		m = sim.Measurements()
		return nil
	}); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, m, "")
}

// RunScript runs the Lua request body against a circuit. Mutations made
// before a script error are kept.
func (s *Server) RunScript(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}
	id, ok := s.circuitID(w, r)
	if !ok {
		return
	}

	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_body", "Failed to read script: "+err.Error())
		return
	}

	if _, err := s.manager.Get(id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.scriptTimeout)
	defer cancel()

	// The run error is kept apart so that partial mutations are still announced
	var (
		result *script.Result
		runErr error
	)
	if err := s.manager.Mutate(ctx, id, func(sim *engine.Simulator) error {
		result, runErr = s.runner.Run(ctx, sim, string(source))
		return nil
	}); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if runErr != nil {
		if errors.Is(runErr, context.DeadlineExceeded) || errors.Is(runErr, context.Canceled) {
			s.writeError(w, http.StatusRequestTimeout, "script_timeout", runErr.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, "script_error", runErr.Error())
		return
	}
	s.writeSuccess(w, result, "Script finished")
}
