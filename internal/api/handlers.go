package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/models"
	"go-circuit-lab/internal/script"
	"go-circuit-lab/internal/session"
)

// Version is reported by the health and docs endpoints
const Version = "1.0.0"

// maxBodyBytes bounds request bodies, including circuit definitions and scripts
const maxBodyBytes = 1 << 20

// Options configures a Server
type Options struct {
	Logger        *slog.Logger
	ServiceName   string
	CORSOrigin    string
	RateLimit     float64 // mutating requests per second, 0 disables limiting
	RateBurst     int
	ScriptTimeout time.Duration
}

// Server represents the API server
type Server struct {
	manager       *session.Manager
	parser        *models.CircuitParser
	runner        *script.Runner
	logger        *slog.Logger
	limiter       *rate.Limiter
	serviceName   string
	corsOrigin    string
	scriptTimeout time.Duration
}

// NewServer creates a new API server over a session manager
func NewServer(manager *session.Manager, opts Options) (*Server, error) {
	parser, err := models.NewCircuitParser()
	if err != nil {
		return nil, err
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "circuit-lab"
	}
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.ScriptTimeout <= 0 {
		opts.ScriptTimeout = 5 * time.Second
	}

	server := &Server{
		manager:       manager,
		parser:        parser,
		runner:        script.NewRunner(opts.Logger),
		logger:        opts.Logger,
		serviceName:   opts.ServiceName,
		corsOrigin:    opts.CORSOrigin,
		scriptTimeout: opts.ScriptTimeout,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		server.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return server, nil
}

// Close releases the session manager's resources
func (s *Server) Close() {
	s.manager.Close()
}

// Response structures

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type CircuitListResponse struct {
	Circuits []*session.Info `json:"circuits"`
	Total    int             `json:"total"`
}

type SemanticsResponse struct {
	Semantics models.SemanticState `json:"semantics"`
	Tags      []string             `json:"tags"`
	Topology  models.Topology      `json:"topology"`
	Revision  uint64               `json:"revision"`
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   err,
		Message: message,
	})
}

func (s *Server) writeSuccess(w http.ResponseWriter, data interface{}, message string) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// writeDomainError maps simulator and session errors onto HTTP statuses
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, session.ErrExists):
		s.writeError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, engine.ErrInvalidComponent):
		s.writeError(w, http.StatusBadRequest, "invalid_component", err.Error())
	case errors.Is(err, engine.ErrValidation):
		s.writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.writeError(w, http.StatusRequestTimeout, "timeout", err.Error())
	default:
		s.logger.Error("unexpected error", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only "+method+" method is allowed")
		return false
	}
	return true
}

// circuitID reads the id query parameter, writing a 400 when it is missing
func (s *Server) circuitID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "missing_parameter", "Circuit ID is required")
		return "", false
	}
	return id, true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", "Failed to parse JSON: "+err.Error())
		return false
	}
	return true
}

// Circuit handlers

type CreateCircuitRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateCircuit creates an empty circuit
func (s *Server) CreateCircuit(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req CreateCircuitRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	info, err := s.manager.Create(req.ID, req.Name, req.Description)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, info, "Circuit created successfully")
}

// ListCircuits returns every circuit in creation order
func (s *Server) ListCircuits(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	circuits := s.manager.List()
	s.writeSuccess(w, CircuitListResponse{Circuits: circuits, Total: len(circuits)}, "")
}

// GetCircuit returns a circuit summary
func (s *Server) GetCircuit(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	id, ok := s.circuitID(w, r)
	if !ok {
		return
	}

	info, err := s.manager.Get(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, info, "")
}

// DeleteCircuit removes a circuit
func (s *Server) DeleteCircuit(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodDelete) {
		return
	}
	id, ok := s.circuitID(w, r)
	if !ok {
		return
	}

	if err := s.manager.Delete(id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, nil, "Circuit deleted successfully")
}

// ResetCircuit empties a circuit
func (s *Server) ResetCircuit(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}
	id, ok := s.circuitID(w, r)
	if !ok {
		return
	}

	var sem models.SemanticState
	err := s.manager.Mutate(r.Context(), id, func(sim *engine.Simulator) error {
		sim.Reset()
		sem = sim.Semantics()
		return nil
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, sem, "Circuit reset successfully")
}

// LoadCircuit installs a schema-validated circuit definition
func (s *Server) LoadCircuit(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_body", "Failed to read body: "+err.Error())
		return
	}

	def, err := s.parser.ParseCircuit(data)
	if err != nil {
		if errors.Is(err, engine.ErrValidation) || errors.Is(err, engine.ErrInvalidComponent) || errors.Is(err, engine.ErrNotFound) {
			s.writeError(w, http.StatusBadRequest, "invalid_circuit", "Failed to parse circuit: "+err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid_json", "Failed to parse JSON: "+err.Error())
		return
	}

	info, err := s.manager.Load(r.Context(), def)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, info, "Circuit loaded successfully")
}

// ExportCircuit returns a circuit in definition form
func (s *Server) ExportCircuit(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	id, ok := s.circuitID(w, r)
	if !ok {
		return
	}

	def, err := s.manager.Export(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSuccess(w, def, "")
}
