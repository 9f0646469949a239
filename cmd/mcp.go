package cmd

import (
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/github"
	"github.com/huangsam/groomer/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Groomer MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents analyze backlogs, search
issues and read health history through standard tools.

Without a GitHub token only analyze_issues and get_health_history are usable.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Logs go to stderr so stdout stays clean for the protocol.
		var source contract.IssueSource
		if cfg.GitHubToken != "" {
			source = github.NewClientFromConfig(cfg, logger)
		}
		return mcp.StartMCPServer(rootCtx, cfg, source, storeManager, logger)
	},
}
