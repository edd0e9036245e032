package tools

import (
	"context"
	"fmt"

	"github.com/auditstack/acp/internal/engine"
	"github.com/auditstack/acp/internal/search"
	"github.com/auditstack/acp/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchInput is the input type for audit_search.
type SearchInput struct {
	Query string `json:"query,omitempty" jsonschema:"Full-text query over the session's controls and evidence records (descriptions, requirements, filenames, rejection reasons)."`
	Kind  string `json:"kind,omitempty"  jsonschema:"Restrict results to one kind: control or evidence. Use alone to list everything of that kind."`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return. Defaults to 10."`
}

// searchResponse carries ranked hits from the session index.
type searchResponse struct {
	Hits  []search.Hit `json:"hits"`
	Total int          `json:"total"`
}

// RegisterSearch registers the audit_search tool.
func RegisterSearch(srv *mcp.Server, c *workflow.Coordinator, idx *search.Index) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "audit_search",
		Description: "Full-text search across the active audit session: control descriptions and evidence requirements, plus every processed evidence record with its validation outcome and rejection reason. Use kind=\"control\" or kind=\"evidence\" to filter. Read-only.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Audit session search",
			ReadOnlyHint:   true,
			IdempotentHint: true,
			OpenWorldHint:  boolPtr(false),
		},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
		if input.Query == "" && input.Kind == "" {
			return convertError(engine.NewError(
				engine.ErrInvalidUsage,
				"Must provide a query, a kind, or both",
				"Pass query for full-text search, or kind=\"control\"/\"evidence\" to list one side")), nil, nil
		}
		if input.Kind != "" && input.Kind != search.KindControl && input.Kind != search.KindEvidence {
			return convertError(engine.NewError(
				engine.ErrInvalidUsage,
				fmt.Sprintf("Unknown kind %q", input.Kind),
				"Valid kinds: control, evidence")), nil, nil
		}
		if result := requireSession(c); result != nil {
			return result, nil, nil
		}

		if _, err := idx.Rebuild(c.Snapshot()); err != nil {
			return convertError(engine.NewError(
				engine.ErrInvalidUsage,
				fmt.Sprintf("Failed to index the session: %v", err),
				"")), nil, nil
		}
		hits, err := idx.Search(input.Query, input.Kind, input.Limit)
		if err != nil {
			return convertError(engine.NewError(
				engine.ErrInvalidUsage,
				fmt.Sprintf("Search failed: %v", err),
				"Simplify the query and retry")), nil, nil
		}
		if hits == nil {
			hits = []search.Hit{}
		}
		return jsonResult(searchResponse{Hits: hits, Total: len(hits)}), nil, nil
	})
}
