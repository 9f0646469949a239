// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// NewMCPServer initializes and configures the groomer MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, source contract.IssueSource, mgr contract.StoreManager, logger *logrus.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"Groomer Backlog Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		source:  source,
		mgr:     mgr,
		logger:  logger,
	}

	// --- 1. Tool: analyze_backlog ---
	s.AddTool(mcp.NewTool("analyze_backlog",
		mcp.WithDescription("Fetch the open issues of a GitHub repository and compute backlog health: age distribution, priority balance, velocity, a 0-100 score and detected problems."),
		mcp.WithString("repo", mcp.Description("Repository as owner/name (defaults to the configured repository).")),
		mcp.WithString("query", mcp.Description("GitHub search qualifiers (defaults to 'is:open is:issue').")),
	), h.handleAnalyzeBacklog)

	// --- 2. Tool: search_issues ---
	s.AddTool(mcp.NewTool("search_issues",
		mcp.WithDescription("Search the issues of a GitHub repository."),
		mcp.WithString("repo", mcp.Description("Repository as owner/name (defaults to the configured repository).")),
		mcp.WithString("query", mcp.Description("GitHub search qualifiers, e.g. 'is:open label:bug'."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum number of issues to return (1-100).")),
		mcp.WithBoolean("exclude_prioritized", mcp.Description("Skip issues that already carry a priority label.")),
		mcp.WithBoolean("exclude_groomed", mcp.Description("Skip issues that carry a groomed label.")),
	), h.handleSearchIssues)

	// --- 3. Tool: get_health_history ---
	s.AddTool(mcp.NewTool("get_health_history",
		mcp.WithDescription("Return recorded backlog health snapshots for a repository, newest first, with the trend between the two latest runs."),
		mcp.WithString("repo", mcp.Description("Repository as owner/name (defaults to the configured repository).")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of snapshots to return. Defaults to 10.")),
	), h.handleGetHealthHistory)

	// --- 4. Tool: analyze_issues ---
	s.AddTool(mcp.NewTool("analyze_issues",
		mcp.WithDescription("Compute backlog health for a caller-supplied JSON array of issues without contacting GitHub."),
		mcp.WithString("issues_json", mcp.Description("JSON array of issues with created_at, updated_at and labels."), mcp.Required()),
		mcp.WithString("now", mcp.Description("Reference time in RFC3339 (defaults to the current time).")),
	), h.handleAnalyzeIssues)

	return s
}

// StartMCPServer starts the groomer MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, source contract.IssueSource, mgr contract.StoreManager, logger *logrus.Logger) error {
	s := NewMCPServer(baseCfg, source, mgr, logger)
	return server.ServeStdio(s)
}
