package tools

import (
	"context"

	"github.com/auditstack/acp/internal/engine"
	"github.com/auditstack/acp/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ChecklistInput is the input type for audit_checklist (no parameters).
type ChecklistInput struct{}

// checklistResponse lists every control with its evidence coverage, plus any
// disagreement between the engine's pending list and the local record trail.
type checklistResponse struct {
	SessionID       string                  `json:"sessionId"`
	Phase           workflow.Phase          `json:"phase"`
	Controls        []workflow.ItemStatus   `json:"controls"`
	SatisfiedCount  int                     `json:"satisfiedCount"`
	TotalControls   int                     `json:"totalControls"`
	PendingControls []engine.PendingControl `json:"pendingControls"`
	ReadyToGenerate bool                    `json:"readyToGenerate"`
	Mismatches      []workflow.Mismatch     `json:"mismatches,omitempty"`
	NextAction      string                  `json:"nextAction,omitempty"`
}

// RegisterChecklist registers the audit_checklist tool.
func RegisterChecklist(srv *mcp.Server, c *workflow.Coordinator) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "audit_checklist",
		Description: "Show the control checklist for the active audit session: each control with its required evidence and whether accepted evidence covers it, the engine's pending list, and any mismatch between the two. Read-only.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Audit checklist coverage",
			ReadOnlyHint:   true,
			IdempotentHint: true,
			OpenWorldHint:  boolPtr(false),
		},
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ ChecklistInput) (*mcp.CallToolResult, any, error) {
		if result := requireSession(c); result != nil {
			return result, nil, nil
		}

		sess := c.Snapshot()
		controls := workflow.ComputeDisplayStatus(sess.Checklist, sess.FilesProcessed)
		satisfied := 0
		for _, ctrl := range controls {
			if ctrl.Satisfied {
				satisfied++
			}
		}

		// Before the first evidence round the engine has not reported a
		// per-control verdict, so there is nothing to cross-check yet.
		var mismatches []workflow.Mismatch
		if len(sess.FilesProcessed) > 0 {
			mismatches = workflow.ValidateConsistency(sess.Checklist, sess.PendingControls, sess.FilesProcessed)
		}

		return jsonResult(checklistResponse{
			SessionID:       sess.SessionID,
			Phase:           sess.Phase,
			Controls:        controls,
			SatisfiedCount:  satisfied,
			TotalControls:   len(controls),
			PendingControls: sess.PendingControls,
			ReadyToGenerate: sess.ReadyToGenerate,
			Mismatches:      mismatches,
			NextAction:      nextActionFor(sess),
		}), nil, nil
	})
}
