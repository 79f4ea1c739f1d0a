// Package mcptools exposes circuit sessions as MCP tools so that assistant
// clients can build and inspect circuits.
package mcptools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"go-circuit-lab/internal/session"
)

// Register adds every circuit tool to the MCP server
func Register(s *server.MCPServer, manager *session.Manager) {
	RegisterReadTools(s, manager)
	RegisterWriteTools(s, manager)
}

// NewServer creates an MCP server with the circuit tools registered
func NewServer(manager *session.Manager, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"circuit-lab",
		version,
		server.WithToolCapabilities(true),
	)
	Register(s, manager)
	return s
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

// jsonResult renders v as indented JSON text
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(fmt.Errorf("encoding result: %w", err))
	}
	return mcp.NewToolResultText(string(data)), nil
}

// requireString returns a required string argument
func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v := req.GetString(key, "")
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
