package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/models"
	"go-circuit-lab/internal/session"
)

// RegisterWriteTools adds the circuit editing tools to the MCP server
func RegisterWriteTools(s *server.MCPServer, manager *session.Manager) {
	s.AddTool(createCircuitTool(), createCircuitHandler(manager))
	s.AddTool(addNodeTool(), addNodeHandler(manager))
	s.AddTool(addComponentTool(), addComponentHandler(manager))
	s.AddTool(connectTerminalsTool(), connectTerminalsHandler(manager))
	s.AddTool(disconnectTerminalsTool(), disconnectTerminalsHandler(manager))
	s.AddTool(setPropertyTool(), setPropertyHandler(manager))
	s.AddTool(removeComponentTool(), removeComponentHandler(manager))
	s.AddTool(resetCircuitTool(), resetCircuitHandler(manager))
}

// semanticsSummary describes the circuit in one line
func semanticsSummary(sim *engine.Simulator) string {
	sem := sim.Semantics()
	tags := sem.Tags()
	if len(tags) == 0 {
		tags = []string{"idle"}
	}
	return fmt.Sprintf("topology=%s risk=%s tags=%s", sem.Topology(), sem.SafetyRiskLevel, strings.Join(tags, ","))
}

// mutate runs fn on a circuit and reports its message followed by the
// resulting semantics
func mutate(ctx context.Context, manager *session.Manager, id string, fn func(*engine.Simulator) (string, error)) (*mcp.CallToolResult, error) {
	var msg string
	err := manager.Mutate(ctx, id, func(sim *engine.Simulator) error {
		text, err := fn(sim)
		if err != nil {
			return err
		}
		msg = text + "\n" + semanticsSummary(sim)
		return nil
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(msg), nil
}

// --- create_circuit ---

func createCircuitTool() mcp.Tool {
	return mcp.NewTool("create_circuit",
		mcp.WithDescription("Create an empty circuit. Omit the id to have one generated."),
		mcp.WithString("circuit_id",
			mcp.Description("Circuit ID (letters, digits, '-' and '_')"),
		),
		mcp.WithString("name",
			mcp.Description("Display name"),
		),
		mcp.WithString("description",
			mcp.Description("What the circuit demonstrates"),
		),
	)
}

func createCircuitHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		info, err := manager.Create(
			req.GetString("circuit_id", ""),
			req.GetString("name", ""),
			req.GetString("description", ""),
		)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created circuit %s", info.ID)), nil
	}
}

// --- add_node ---

func addNodeTool() mcp.Tool {
	return mcp.NewTool("add_node",
		mcp.WithDescription("Add a junction node. Component terminals and wires attach to nodes by label."),
		mcp.WithString("circuit_id",
			mcp.Description("Circuit ID"),
			mcp.Required(),
		),
		mcp.WithString("label",
			mcp.Description("Unique node label"),
			mcp.Required(),
		),
		mcp.WithNumber("x",
			mcp.Description("Canvas x position"),
		),
		mcp.WithNumber("y",
			mcp.Description("Canvas y position"),
		),
	)
}

func addNodeHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireString(req, "circuit_id")
		if err != nil {
			return toolError(err)
		}
		label := req.GetString("label", "")
		pos := models.Position{X: req.GetFloat("x", 0), Y: req.GetFloat("y", 0)}

		return mutate(ctx, manager, id, func(sim *engine.Simulator) (string, error) {
			if _, err := sim.AddNode(label, pos); err != nil {
				return "", err
			}
			return fmt.Sprintf("Added node %s", label), nil
		})
	}
}

// --- add_component ---

func addComponentTool() mcp.Tool {
	return mcp.NewTool("add_component",
		mcp.WithDescription("Add or replace a two-terminal component. Types: "+componentTypeList()+
			". Aliases such as lamp, cell, transformer or buzzer are accepted."),
		mcp.WithString("circuit_id",
			mcp.Description("Circuit ID"),
			mcp.Required(),
		),
		mcp.WithString("component_id",
			mcp.Description("Component ID, replaced if it exists"),
			mcp.Required(),
		),
		mcp.WithString("type",
			mcp.Description("Component type or alias"),
			mcp.Required(),
		),
		mcp.WithString("left_node",
			mcp.Description("Node label for the left (positive) terminal"),
			mcp.Required(),
		),
		mcp.WithString("right_node",
			mcp.Description("Node label for the right (negative) terminal"),
			mcp.Required(),
		),
		mcp.WithObject("properties",
			mcp.Description("Type parameters, e.g. {\"voltage\": 9} or {\"resistance\": 220}"),
		),
	)
}

func componentTypeList() string {
	types := models.ComponentTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func addComponentHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireString(req, "circuit_id")
		if err != nil {
			return toolError(err)
		}
		spec := models.ComponentSpec{
			ID:    req.GetString("component_id", ""),
			Type:  req.GetString("type", ""),
			Nodes: []string{req.GetString("left_node", ""), req.GetString("right_node", "")},
		}
		if props, ok := req.GetArguments()["properties"].(map[string]interface{}); ok {
			spec.Properties = props
		}

		return mutate(ctx, manager, id, func(sim *engine.Simulator) (string, error) {
			if err := sim.AddComponent(spec); err != nil {
				return "", err
			}
			return fmt.Sprintf("Added %s %s", spec.Type, spec.ID), nil
		})
	}
}

// --- connect_terminals / disconnect_terminals ---

func terminalPairTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("circuit_id",
			mcp.Description("Circuit ID"),
			mcp.Required(),
		),
		mcp.WithString("from_component",
			mcp.Description("First component ID"),
			mcp.Required(),
		),
		mcp.WithString("from_terminal",
			mcp.Description("left/positive or right/negative"),
			mcp.Required(),
		),
		mcp.WithString("to_component",
			mcp.Description("Second component ID"),
			mcp.Required(),
		),
		mcp.WithString("to_terminal",
			mcp.Description("left/positive or right/negative"),
			mcp.Required(),
		),
	)
}

func connectTerminalsTool() mcp.Tool {
	return terminalPairTool("connect_terminals", "Wire a terminal of one component to a terminal of another.")
}

func disconnectTerminalsTool() mcp.Tool {
	return terminalPairTool("disconnect_terminals", "Remove every wire between two component terminals. Components are kept.")
}

// terminalPair reads the component/terminal arguments shared by both tools
func terminalPair(req mcp.CallToolRequest) (engine.WireSelector, error) {
	from, err := models.ParseTerminal(req.GetString("from_terminal", ""))
	if err != nil {
		return engine.WireSelector{}, err
	}
	to, err := models.ParseTerminal(req.GetString("to_terminal", ""))
	if err != nil {
		return engine.WireSelector{}, err
	}
	return engine.WireSelector{
		FromComponent: req.GetString("from_component", ""),
		FromTerminal:  from,
		ToComponent:   req.GetString("to_component", ""),
		ToTerminal:    to,
	}, nil
}

func connectTerminalsHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireString(req, "circuit_id")
		if err != nil {
			return toolError(err)
		}
		pair, err := terminalPair(req)
		if err != nil {
			return toolError(err)
		}

		return mutate(ctx, manager, id, func(sim *engine.Simulator) (string, error) {
			wireID, err := sim.ConnectTerminals(pair.FromComponent, pair.FromTerminal, pair.ToComponent, pair.ToTerminal)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Connected %s.%s to %s.%s as wire %s",
				pair.FromComponent, pair.FromTerminal, pair.ToComponent, pair.ToTerminal, wireID), nil
		})
	}
}

func disconnectTerminalsHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireString(req, "circuit_id")
		if err != nil {
			return toolError(err)
		}
		pair, err := terminalPair(req)
		if err != nil {
			return toolError(err)
		}

		return mutate(ctx, manager, id, func(sim *engine.Simulator) (string, error) {
			removed, err := sim.Disconnect(pair)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Removed %d wire(s)", removed), nil
		})
	}
}

// --- set_property ---

func setPropertyTool() mcp.Tool {
	return mcp.NewTool("set_property",
		mcp.WithDescription("Set a component property such as resistance, voltage, forwardVoltage, maxCurrent, capacitance, wiper, closed, rotation or health=normal."),
		mcp.WithString("circuit_id",
			mcp.Description("Circuit ID"),
			mcp.Required(),
		),
		mcp.WithString("component_id",
			mcp.Description("Component ID"),
			mcp.Required(),
		),
		mcp.WithString("key",
			mcp.Description("Property name"),
			mcp.Required(),
		),
		mcp.WithString("value",
			mcp.Description("New value as JSON, e.g. 4.5, true or {\"x\": 1, \"y\": 2}"),
			mcp.Required(),
		),
	)
}

// propertyValue accepts either a native JSON argument or a JSON-encoded string
func propertyValue(raw interface{}) interface{} {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return s
	}
	return decoded
}

func setPropertyHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireString(req, "circuit_id")
		if err != nil {
			return toolError(err)
		}
		compID := req.GetString("component_id", "")
		key := req.GetString("key", "")
		value := propertyValue(req.GetArguments()["value"])

		return mutate(ctx, manager, id, func(sim *engine.Simulator) (string, error) {
			if err := sim.UpdateComponentProperty(compID, key, value); err != nil {
				return "", err
			}
			comp, err := sim.Component(compID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Set %s.%s, health=%s current=%gA", compID, key, comp.Health, comp.Output.Current), nil
		})
	}
}

// --- remove_component ---

func removeComponentTool() mcp.Tool {
	return mcp.NewTool("remove_component",
		mcp.WithDescription("Remove a component together with the wires on its terminals."),
		mcp.WithString("circuit_id",
			mcp.Description("Circuit ID"),
			mcp.Required(),
		),
		mcp.WithString("component_id",
			mcp.Description("Component ID"),
			mcp.Required(),
		),
	)
}

func removeComponentHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireString(req, "circuit_id")
		if err != nil {
			return toolError(err)
		}
		compID := req.GetString("component_id", "")

		return mutate(ctx, manager, id, func(sim *engine.Simulator) (string, error) {
			if err := sim.RemoveComponent(compID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Removed %s", compID), nil
		})
	}
}

// --- reset_circuit ---

func resetCircuitTool() mcp.Tool {
	return mcp.NewTool("reset_circuit",
		mcp.WithDescription("Remove every node, component and wire from a circuit."),
		mcp.WithString("circuit_id",
			mcp.Description("Circuit ID"),
			mcp.Required(),
		),
	)
}

func resetCircuitHandler(manager *session.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireString(req, "circuit_id")
		if err != nil {
			return toolError(err)
		}
		return mutate(ctx, manager, id, func(sim *engine.Simulator) (string, error) {
			sim.Reset()
			return "Circuit reset", nil
		})
	}
}
