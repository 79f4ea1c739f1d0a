package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"go-circuit-lab/internal/mcptools"
	"go-circuit-lab/internal/session"
)

// Version is reported to MCP clients
const Version = "0.1.0"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the circuit tools over MCP on stdio",
	Long: `Start an MCP server on stdin/stdout exposing tools to create circuits,
add nodes and components, wire terminals and read the semantic state.

Logs go to stderr so that stdout stays reserved for the protocol.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := session.NewManager(nil, logger)
		defer manager.Close()
		return server.ServeStdio(mcptools.NewServer(manager, Version))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
