package tools

import (
	"github.com/auditstack/acp/internal/engine"
	"github.com/auditstack/acp/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// requireSession checks that an audit session has been started.
// Returns nil (pass) when the engine has assigned a session ID,
// an error result otherwise.
func requireSession(c *workflow.Coordinator) *mcp.CallToolResult {
	if c.Snapshot().SessionID != "" {
		return nil
	}
	return convertError(engine.NewError(
		engine.ErrNoSession,
		"No audit session is active. This tool requires a started audit.",
		"Submit a test script first: audit_workflow action=\"submit_script\" scriptPath=\"...\"",
	))
}
