package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-circuit-lab/internal/models"
	"go-circuit-lab/internal/session"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type componentView struct {
	ID     string        `json:"id"`
	Type   string        `json:"type"`
	Health string        `json:"health"`
	Output models.Output `json:"output"`
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	server, err := NewServer(session.NewManager(nil, nil), opts)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, h http.Handler, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to parse response: %v (%s)", err, rr.Body.String())
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("Failed to parse data: %v", err)
		}
	}
	return env
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("Expected status code %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
}

// buildSeriesCircuit creates circuit id with a 9V battery driving a bulb
func buildSeriesCircuit(t *testing.T, h http.Handler, id string) {
	t.Helper()
	expectStatus(t, doRequest(t, h, "POST", "/api/circuits/create", CreateCircuitRequest{ID: id}), http.StatusOK)
	for _, label := range []string{"bp", "bn", "l1", "l2"} {
		expectStatus(t, doRequest(t, h, "POST", "/api/nodes/add", AddNodeRequest{CircuitID: id, Label: label}), http.StatusOK)
	}
	expectStatus(t, doRequest(t, h, "POST", "/api/components/add", map[string]interface{}{
		"circuitId": id, "id": "b1", "type": "battery", "nodes": []string{"bp", "bn"},
		"properties": map[string]interface{}{"voltage": 9},
	}), http.StatusOK)
	expectStatus(t, doRequest(t, h, "POST", "/api/components/add", map[string]interface{}{
		"circuitId": id, "id": "bulb", "type": "lamp", "nodes": []string{"l1", "l2"},
	}), http.StatusOK)
	expectStatus(t, doRequest(t, h, "POST", "/api/wires/connect", map[string]interface{}{
		"circuitId": id, "from": "bp", "to": "l1",
	}), http.StatusOK)
	expectStatus(t, doRequest(t, h, "POST", "/api/wires/connect", map[string]interface{}{
		"circuitId": id, "fromComponent": "bulb", "fromTerminal": "right", "toComponent": "b1", "toTerminal": "negative",
	}), http.StatusOK)
}

func findComponent(t *testing.T, raw json.RawMessage, id string) componentView {
	t.Helper()
	var state struct {
		Components []componentView `json:"components"`
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("Failed to parse state: %v", err)
	}
	for _, c := range state.Components {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("Component %s not in state", id)
	return componentView{}
}

func TestAPICircuitLifecycle(t *testing.T) {
	server := newTestServer(t, Options{})
	h := server.SetupRoutes()
	buildSeriesCircuit(t, h, "bench")

	var list CircuitListResponse
	rr := doRequest(t, h, "GET", "/api/circuits/list", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &list)
	if list.Total != 1 || list.Circuits[0].Components != 2 || list.Circuits[0].Wires != 2 {
		t.Errorf("Unexpected circuit list: %+v", list)
	}

	var sem SemanticsResponse
	rr = doRequest(t, h, "GET", "/api/semantics?id=bench", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &sem)
	if !sem.Semantics.PowerFlowActive || sem.Topology != models.TopologyClosed {
		t.Errorf("Expected closed circuit with power flow, got %+v", sem)
	}

	rr = doRequest(t, h, "GET", "/api/state?id=bench", nil)
	expectStatus(t, rr, http.StatusOK)
	env := decodeEnvelope(t, rr, nil)
	bulb := findComponent(t, env.Data, "bulb")
	if !bulb.Output.Glowing || bulb.Type != "bulb" {
		t.Errorf("Expected a glowing bulb, got %+v", bulb)
	}

	var m struct {
		MaxVoltage float64 `json:"maxVoltage"`
	}
	rr = doRequest(t, h, "GET", "/api/measurements?id=bench", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &m)
	if m.MaxVoltage != 9 {
		t.Errorf("Expected max voltage 9, got %f", m.MaxVoltage)
	}

	var def models.CircuitDefinitionJSON
	rr = doRequest(t, h, "GET", "/api/circuits/export?id=bench", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &def)
	if len(def.Components) != 2 || def.Components[1].Type != "lamp" {
		t.Errorf("Expected export to keep the alias, got %+v", def.Components)
	}

	rr = doRequest(t, h, "POST", "/api/circuits/reset?id=bench", nil)
	expectStatus(t, rr, http.StatusOK)
	var idle models.SemanticState
	decodeEnvelope(t, rr, &idle)
	if !idle.OpenCircuit {
		t.Error("Reset circuit should be open")
	}

	expectStatus(t, doRequest(t, h, "DELETE", "/api/circuits/delete?id=bench", nil), http.StatusOK)
	expectStatus(t, doRequest(t, h, "GET", "/api/circuits/get?id=bench", nil), http.StatusNotFound)
}

func TestAPIErrors(t *testing.T) {
	server := newTestServer(t, Options{})
	h := server.SetupRoutes()
	expectStatus(t, doRequest(t, h, "POST", "/api/circuits/create", CreateCircuitRequest{ID: "bench"}), http.StatusOK)

	cases := []struct {
		name   string
		method string
		url    string
		body   interface{}
		status int
		code   string
	}{
		{"wrong method", "GET", "/api/circuits/create", nil, http.StatusMethodNotAllowed, "method_not_allowed"},
		{"missing id", "GET", "/api/state", nil, http.StatusBadRequest, "missing_parameter"},
		{"unknown circuit", "GET", "/api/state?id=ghost", nil, http.StatusNotFound, "not_found"},
		{"duplicate circuit", "POST", "/api/circuits/create", CreateCircuitRequest{ID: "bench"}, http.StatusConflict, "already_exists"},
		{"bad json", "POST", "/api/circuits/create", "{nope", http.StatusBadRequest, "invalid_json"},
		{"unknown type", "POST", "/api/components/add", map[string]interface{}{
			"circuitId": "bench", "id": "x", "type": "flux-capacitor", "nodes": []string{"a", "b"},
		}, http.StatusBadRequest, "invalid_component"},
		{"empty node label", "POST", "/api/nodes/add", AddNodeRequest{CircuitID: "bench"}, http.StatusBadRequest, "validation_error"},
		{"missing circuit", "POST", "/api/nodes/add", AddNodeRequest{Label: "a"}, http.StatusBadRequest, "missing_parameter"},
		{"unknown command", "POST", "/api/components/command", CommandRequest{CircuitID: "bench", Command: "explode"}, http.StatusBadRequest, "validation_error"},
		{"missing component", "DELETE", "/api/components/remove?id=bench", nil, http.StatusBadRequest, "missing_parameter"},
		{"unknown component", "DELETE", "/api/components/remove?id=bench&component=ghost", nil, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, h, tc.method, tc.url, tc.body)
			expectStatus(t, rr, tc.status)
			if env := decodeEnvelope(t, rr, nil); env.Error != tc.code {
				t.Errorf("Expected error code %s, got %s", tc.code, env.Error)
			}
		})
	}
}

func TestAPIUpdateAndCommand(t *testing.T) {
	server := newTestServer(t, Options{})
	h := server.SetupRoutes()
	buildSeriesCircuit(t, h, "bench")

	// 9V across 50 ohms is 0.18A, above the bulb's 0.1A limit
	var bulb componentView
	rr := doRequest(t, h, "POST", "/api/components/update", UpdateComponentRequest{
		CircuitID: "bench", ComponentID: "bulb", Key: "resistance", Value: 50,
	})
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &bulb)
	if bulb.Health != "blown" {
		t.Errorf("Expected bulb to blow, got %s", bulb.Health)
	}

	rr = doRequest(t, h, "POST", "/api/components/command", CommandRequest{
		CircuitID: "bench", Command: "setResistance", Args: json.RawMessage(`{"id":"bulb","ohms":240}`),
	})
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &bulb)
	if bulb.Health != "blown" {
		t.Errorf("Failure should be sticky, got %s", bulb.Health)
	}

	rr = doRequest(t, h, "POST", "/api/components/command", CommandRequest{
		CircuitID: "bench", Command: "resetHealth", Args: json.RawMessage(`{"id":"bulb"}`),
	})
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &bulb)
	if bulb.Health != "normal" || !bulb.Output.Glowing {
		t.Errorf("Expected repaired glowing bulb, got %+v", bulb)
	}

	rr = doRequest(t, h, "POST", "/api/components/update", UpdateComponentRequest{
		CircuitID: "bench", ComponentID: "bulb", Key: "resistance", Value: -5,
	})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = doRequest(t, h, "POST", "/api/components/update", UpdateComponentRequest{
		CircuitID: "bench", ComponentID: "bulb", Key: "glowing", Value: true,
	})
	expectStatus(t, rr, http.StatusBadRequest)

	var types ComponentTypesResponse
	rr = doRequest(t, h, "GET", "/api/components/types", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &types)
	if len(types.Types) != 12 || types.Aliases["lamp"] != models.TypeBulb || len(types.Commands) == 0 {
		t.Errorf("Unexpected component types: %+v", types)
	}
}

func TestAPIDisconnect(t *testing.T) {
	server := newTestServer(t, Options{})
	h := server.SetupRoutes()
	buildSeriesCircuit(t, h, "bench")

	var result map[string]int
	rr := doRequest(t, h, "POST", "/api/wires/disconnect", DisconnectRequest{
		CircuitID: "bench", FromComponent: "b1", FromTerminal: "negative", ToComponent: "bulb", ToTerminal: "right",
	})
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &result)
	if result["removed"] != 1 {
		t.Errorf("Expected 1 wire removed, got %d", result["removed"])
	}

	var info session.Info
	rr = doRequest(t, h, "GET", "/api/circuits/get?id=bench", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &info)
	if info.Components != 2 || info.Wires != 1 {
		t.Errorf("Expected components kept and one wire left, got %+v", info)
	}

	// Nothing left to remove between the same terminals
	rr = doRequest(t, h, "POST", "/api/wires/disconnect", DisconnectRequest{
		CircuitID: "bench", FromComponent: "b1", FromTerminal: "negative", ToComponent: "bulb", ToTerminal: "right",
	})
	expectStatus(t, rr, http.StatusNotFound)

	rr = doRequest(t, h, "POST", "/api/wires/disconnect", DisconnectRequest{
		CircuitID: "bench", FromComponent: "b1", FromTerminal: "middle", ToComponent: "bulb", ToTerminal: "right",
	})
	expectStatus(t, rr, http.StatusBadRequest)
}

const loadCircuitJSON = `{
  "id": "loaded",
  "name": "Loaded bulb",
  "nodes": [{"id": "bp"}, {"id": "bn"}, {"id": "l1"}, {"id": "l2"}],
  "components": [
    {"id": "b1", "type": "battery", "nodes": ["bp", "bn"]},
    {"id": "bulb", "type": "bulb", "nodes": ["l1", "l2"]}
  ],
  "wires": [
    {"id": "w1", "from": "bp", "to": "l1"},
    {"id": "w2", "from": "l2", "to": "bn"}
  ]
}`

func TestAPILoadAndValidate(t *testing.T) {
	server := newTestServer(t, Options{})
	h := server.SetupRoutes()

	var info session.Info
	rr := doRequest(t, h, "POST", "/api/circuits/load", loadCircuitJSON)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &info)
	if info.ID != "loaded" || info.Name != "Loaded bulb" || !info.Semantics.PowerFlowActive {
		t.Errorf("Unexpected loaded circuit: %+v", info)
	}

	var report ValidationResponse
	rr = doRequest(t, h, "GET", "/api/circuits/validate?id=loaded", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &report)
	if !report.Valid || len(report.Violations) != 0 {
		t.Errorf("Expected a valid circuit, got %+v", report.Violations)
	}

	rr = doRequest(t, h, "POST", "/api/circuits/load", strings.Replace(loadCircuitJSON, `["l1", "l2"]`, `["l1"]`, 1))
	expectStatus(t, rr, http.StatusBadRequest)
	if env := decodeEnvelope(t, rr, nil); env.Error != "invalid_circuit" {
		t.Errorf("Expected invalid_circuit, got %s", env.Error)
	}

	// A circuit with a dead short is reported
	expectStatus(t, doRequest(t, h, "POST", "/api/wires/connect", map[string]interface{}{
		"circuitId": "loaded", "from": "bp", "to": "bn",
	}), http.StatusOK)
	rr = doRequest(t, h, "GET", "/api/circuits/validate?id=loaded", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &report)
	if report.Valid {
		t.Error("Expected dead short to be reported")
	}
}

func TestAPIRunScript(t *testing.T) {
	server := newTestServer(t, Options{ScriptTimeout: 100 * time.Millisecond})
	h := server.SetupRoutes()
	expectStatus(t, doRequest(t, h, "POST", "/api/circuits/create", CreateCircuitRequest{ID: "lab"}), http.StatusOK)

	src := `
node("a") node("b")
add("battery", "b1", "a", "b")
add("resistor", "r1", "a", "b", {resistance = 1000})
print(component("r1").current)
`
	var result struct {
		Output []string `json:"output"`
	}
	rr := doRequest(t, h, "POST", "/api/scripts/run?id=lab", src)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &result)
	if len(result.Output) != 1 || result.Output[0] != "0.009" {
		t.Errorf("Expected 9V/1000 ohm current, got %v", result.Output)
	}

	rr = doRequest(t, h, "POST", "/api/scripts/run?id=lab", `remove("ghost")`)
	expectStatus(t, rr, http.StatusBadRequest)
	if env := decodeEnvelope(t, rr, nil); env.Error != "script_error" {
		t.Errorf("Expected script_error, got %s", env.Error)
	}

	rr = doRequest(t, h, "POST", "/api/scripts/run?id=lab", `while true do end`)
	expectStatus(t, rr, http.StatusRequestTimeout)

	expectStatus(t, doRequest(t, h, "POST", "/api/scripts/run?id=ghost", `print(1)`), http.StatusNotFound)
}

func TestAPIMiddleware(t *testing.T) {
	server := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 1, CORSOrigin: "http://lab.local"})
	h := server.Handler()

	rr := doRequest(t, h, "OPTIONS", "/api/circuits/create", nil)
	expectStatus(t, rr, http.StatusNoContent)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://lab.local" {
		t.Errorf("Expected CORS origin header, got %q", got)
	}

	expectStatus(t, doRequest(t, h, "POST", "/api/circuits/create", CreateCircuitRequest{ID: "one"}), http.StatusOK)
	rr = doRequest(t, h, "POST", "/api/circuits/create", CreateCircuitRequest{ID: "two"})
	expectStatus(t, rr, http.StatusTooManyRequests)
	if env := decodeEnvelope(t, rr, nil); env.Error != "rate_limited" {
		t.Errorf("Expected rate_limited, got %s", env.Error)
	}

	// Reads are never limited
	for i := 0; i < 3; i++ {
		expectStatus(t, doRequest(t, h, "GET", "/api/circuits/list", nil), http.StatusOK)
	}
}

func TestAPIRecoverFromPanic(t *testing.T) {
	server := newTestServer(t, Options{})
	h := Recover(server.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := doRequest(t, h, "GET", "/", nil)
	expectStatus(t, rr, http.StatusInternalServerError)
}

func TestAPIHealthAndDocs(t *testing.T) {
	server := newTestServer(t, Options{})
	h := server.SetupRoutes()

	var health map[string]interface{}
	rr := doRequest(t, h, "GET", "/api/health", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr, &health)
	if health["status"] != "healthy" || health["circuits"] != 0.0 {
		t.Errorf("Unexpected health: %v", health)
	}

	rr = doRequest(t, h, "GET", "/api/docs", nil)
	expectStatus(t, rr, http.StatusOK)
	if env := decodeEnvelope(t, rr, nil); !env.Success {
		t.Error("Expected docs to succeed")
	}
}
