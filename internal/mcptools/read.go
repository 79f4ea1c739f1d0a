package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/session"
)

// RegisterReadTools adds the inspection tools to the MCP server
func RegisterReadTools(s *server.MCPServer, manager *session.Manager) {
	s.AddTool(listCircuitsTool(), listCircuitsHandler(manager))
	s.AddTool(getSemanticsTool(), getSemanticsHandler(manager))
	s.AddTool(getStateTool(), getStateHandler(manager))
}

// --- list_circuits ---

func listCircuitsTool() mcp.Tool {
	return mcp.NewTool("list_circuits",
		mcp.WithDescription("List every circuit with its size and semantic state."),
	)
}

func listCircuitsHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		circuits := manager.List()
		if len(circuits) == 0 {
			return mcp.NewToolResultText("No circuits."), nil
		}
		return jsonResult(circuits)
	}
}

// --- get_semantics ---

func getSemanticsTool() mcp.Tool {
	return mcp.NewTool("get_semantics",
		mcp.WithDescription("Get the semantic state of a circuit: power flow, open or short circuit, failures and risk level."),
		mcp.WithString("circuit_id",
			mcp.Description("Circuit ID"),
			mcp.Required(),
		),
	)
}

func getSemanticsHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireString(req, "circuit_id")
		if err != nil {
			return toolError(err)
		}

		var result map[string]interface{}
		if err := manager.View(id, func(sim *engine.Simulator) error {
			sem := sim.Semantics()
			result = map[string]interface{}{
				"semantics": sem,
				"tags":      sem.Tags(),
				"topology":  sem.Topology(),
				"revision":  sim.Revision(),
			}
			return nil
		}); err != nil {
			return toolError(err)
		}
		return jsonResult(result)
	}
}

// --- get_state ---

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get a full snapshot of a circuit: components with outputs, node voltages and wires."),
		mcp.WithString("circuit_id",
			mcp.Description("Circuit ID"),
			mcp.Required(),
		),
	)
}

func getStateHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireString(req, "circuit_id")
		if err != nil {
			return toolError(err)
		}

		var state *engine.State
		if err := manager.View(id, func(sim *engine.Simulator) error {
			state = sim.State()
			return nil
		}); err != nil {
			return toolError(err)
		}
		return jsonResult(state)
	}
}
