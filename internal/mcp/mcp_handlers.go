package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/groomer/core"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 10

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	source  contract.IssueSource
	mgr     contract.StoreManager
	logger  *logrus.Logger
}

// repoConfig clones the base config and points it at the requested repository.
func (h *toolHandler) repoConfig(request mcp.CallToolRequest) (*contract.Config, string, error) {
	cfg := h.baseCfg.Clone()
	repo := request.GetString("repo", "")
	if repo == "" {
		owner, name, err := cfg.DefaultRepo()
		if err != nil {
			return nil, "", err
		}
		repo = owner + "/" + name
	}
	owner, name, err := contract.SplitRepo(repo)
	if err != nil {
		return nil, "", err
	}
	repo = owner + "/" + name
	cfg.Repos = []string{repo}
	return cfg, repo, nil
}

func (h *toolHandler) executor() *core.Executor {
	return &core.Executor{Source: h.source, Stores: h.mgr, Logger: h.logger}
}

// jsonResult marshals v as indented JSON text.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleAnalyzeBacklog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, _, err := h.repoConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repository: %v", err)), nil
	}
	if q := request.GetString("query", ""); q != "" {
		cfg.Query = q
	}
	if h.source == nil {
		return mcp.NewToolResultError("GitHub is not configured. Set GROOMER_GITHUB_TOKEN"), nil
	}

	reports, err := h.executor().CollectReports(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(reports[0]), nil
}

// searchResult is the payload of search_issues.
type searchResult struct {
	Repo   string         `json:"repo"`
	Total  int            `json:"total"`
	Issues []schema.Issue `json:"issues"`
}

func (h *toolHandler) handleSearchIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	cfg, repo, err := h.repoConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repository: %v", err)), nil
	}
	limit := request.GetInt("limit", cfg.BatchSize)
	if limit < 1 || limit > contract.MaxBatchSize {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be between 1 and %d (received %d)", contract.MaxBatchSize, limit)), nil
	}
	if h.source == nil {
		return mcp.NewToolResultError("GitHub is not configured. Set GROOMER_GITHUB_TOKEN"), nil
	}

	q := cfg.SearchQuery(query)
	q.ExcludePrioritized = request.GetBool("exclude_prioritized", cfg.ExcludePrioritized)
	q.ExcludeGroomed = request.GetBool("exclude_groomed", cfg.ExcludeGroomed)

	owner, name, _ := contract.SplitRepo(repo)
	issues, total, err := h.source.SearchIssues(ctx, owner, name, q, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if issues == nil {
		issues = []schema.Issue{}
	}
	return jsonResult(searchResult{Repo: repo, Total: total, Issues: issues}), nil
}

// historyResult is the payload of get_health_history.
type historyResult struct {
	Snapshots []schema.HealthSnapshotRecord `json:"snapshots"`
	Trend     schema.HealthTrend            `json:"trend"`
}

func (h *toolHandler) handleGetHealthHistory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, repo, err := h.repoConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repository: %v", err)), nil
	}
	limit := request.GetInt("limit", defaultHistoryLimit)
	if limit < 1 {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be at least 1 (received %d)", limit)), nil
	}

	snapshots, err := h.executor().RecentSnapshots(repo, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history lookup failed: %v", err)), nil
	}
	if snapshots == nil {
		snapshots = []schema.HealthSnapshotRecord{}
	}
	trend := core.BuildTrend(repo, snapshots)
	trend.Points = nil
	return jsonResult(historyResult{Snapshots: snapshots, Trend: trend}), nil
}

func (h *toolHandler) handleAnalyzeIssues(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("issues_json")
	if err != nil {
		return mcp.NewToolResultError("issues_json is required"), nil
	}
	var issues []schema.Issue
	if err := json.Unmarshal([]byte(raw), &issues); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid issues_json: %v", err)), nil
	}

	now := time.Now()
	if s := request.GetString("now", ""); s != "" {
		now, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid now: %v", err)), nil
		}
	}

	analyzer := core.NewBacklogAnalyzer(h.baseCfg.Labels, h.baseCfg.Thresholds)
	return jsonResult(analyzer.Analyze(issues, now)), nil
}
