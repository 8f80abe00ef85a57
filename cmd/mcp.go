package cmd

import (
	"github.com/huangsam/waypoint/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Waypoint MCP server",
	Long: `Launch an MCP server over stdio so an AI agent can scan, claim, complete
and fail units through standard tools. Logs go to stderr.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
