package api

import (
	"net/http"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/models"
)

// SetupRoutes sets up the HTTP routes for the API server
func (s *Server) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Circuit management
	mux.HandleFunc("/api/circuits/create", s.CreateCircuit)
	mux.HandleFunc("/api/circuits/list", s.ListCircuits)
	mux.HandleFunc("/api/circuits/get", s.GetCircuit)
	mux.HandleFunc("/api/circuits/delete", s.DeleteCircuit)
	mux.HandleFunc("/api/circuits/reset", s.ResetCircuit)
	mux.HandleFunc("/api/circuits/load", s.LoadCircuit)
	mux.HandleFunc("/api/circuits/export", s.ExportCircuit)
	mux.HandleFunc("/api/circuits/validate", s.ValidateCircuit)

	// Graph editing
	mux.HandleFunc("/api/nodes/add", s.AddNode)
	mux.HandleFunc("/api/components/add", s.AddComponent)
	mux.HandleFunc("/api/components/remove", s.RemoveComponent)
	mux.HandleFunc("/api/components/update", s.UpdateComponent)
	mux.HandleFunc("/api/components/command", s.CommandComponent)
	mux.HandleFunc("/api/components/types", s.ListComponentTypes)
	mux.HandleFunc("/api/wires/connect", s.ConnectWire)
	mux.HandleFunc("/api/wires/disconnect", s.DisconnectWire)

	// Derived state
	mux.HandleFunc("/api/state", s.GetState)
	mux.HandleFunc("/api/semantics", s.GetSemantics)
	mux.HandleFunc("/api/measurements", s.GetMeasurements)

	// Scripts
	mux.HandleFunc("/api/scripts/run", s.RunScript)

	mux.HandleFunc("/api/health", s.HealthCheck)
	mux.HandleFunc("/api/docs", s.APIDocs)

	return mux
}

// Handler returns the routes wrapped in the server's middleware chain
func (s *Server) Handler() http.Handler {
	return Chain(s.SetupRoutes(),
		Recover(s.logger),
		Logger(s.logger),
		CORS(s.corsOrigin),
		OTel(s.serviceName),
		RateLimit(s.limiter),
	)
}

// HealthCheck returns the health status of the API
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET method is allowed")
		return
	}

	status := map[string]interface{}{
		"status":   "healthy",
		"service":  s.serviceName,
		"version":  Version,
		"circuits": s.manager.Count(),
		"scripts":  "gopher-lua",
	}

	s.writeSuccess(w, status, "Service is healthy")
}

// APIDocs returns API documentation
func (s *Server) APIDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET method is allowed")
		return
	}

	docs := map[string]interface{}{
		"title":       "Circuit Lab API",
		"version":     Version,
		"description": "REST API for interactive circuit sandboxes with derived semantic state",
		"endpoints": map[string]interface{}{
			"Circuit Management": map[string]interface{}{
				"POST /api/circuits/create":   "Create an empty circuit",
				"GET /api/circuits/list":      "List all circuits",
				"GET /api/circuits/get":       "Get a circuit summary by ID",
				"DELETE /api/circuits/delete": "Delete a circuit by ID",
				"POST /api/circuits/reset":    "Remove every node, component and wire",
				"POST /api/circuits/load":     "Load a circuit from a JSON definition",
				"GET /api/circuits/export":    "Export a circuit as a JSON definition",
				"GET /api/circuits/validate":  "Report wiring mistakes",
			},
			"Graph Editing": map[string]interface{}{
				"POST /api/nodes/add":           "Add a junction node",
				"POST /api/components/add":      "Add or replace a component",
				"DELETE /api/components/remove": "Remove a component and its wires",
				"POST /api/components/update":   "Set a component property by key",
				"POST /api/components/command":  "Apply a typed component command",
				"GET /api/components/types":     "List component types, aliases and commands",
				"POST /api/wires/connect":       "Wire two nodes or two component terminals",
				"POST /api/wires/disconnect":    "Remove wires by id or terminal pair",
			},
			"Derived State": map[string]interface{}{
				"GET /api/state":        "Full circuit snapshot",
				"GET /api/semantics":    "Semantic state with tags and topology",
				"GET /api/measurements": "Current and voltage levels",
			},
			"Scripts": map[string]interface{}{
				"POST /api/scripts/run": "Run a Lua script against a circuit",
			},
			"Utility": map[string]interface{}{
				"GET /api/health": "Health check",
				"GET /api/docs":   "API documentation",
			},
		},
		"componentTypes": models.ComponentTypes(),
		"commands":       engine.CommandNames(),
		"examples": map[string]interface{}{
			"add_component": map[string]interface{}{
				"method": "POST",
				"url":    "/api/components/add",
				"body": map[string]interface{}{
					"circuitId":  "bench",
					"id":         "b1",
					"type":       "battery",
					"nodes":      []string{"bp", "bn"},
					"properties": map[string]interface{}{"voltage": 9},
				},
			},
			"connect_terminals": map[string]interface{}{
				"method": "POST",
				"url":    "/api/wires/connect",
				"body": map[string]interface{}{
					"circuitId":     "bench",
					"fromComponent": "b1",
					"fromTerminal":  "positive",
					"toComponent":   "bulb",
					"toTerminal":    "left",
				},
			},
		},
	}

	s.writeSuccess(w, docs, "")
}
