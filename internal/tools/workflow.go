package tools

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/auditstack/acp/internal/config"
	"github.com/auditstack/acp/internal/content"
	"github.com/auditstack/acp/internal/engine"
	"github.com/auditstack/acp/internal/ops"
	"github.com/auditstack/acp/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// WorkflowInput is the input type for audit_workflow.
type WorkflowInput struct {
	Action         string   `json:"action,omitempty"         jsonschema:"Workflow action: status, submit_script, submit_evidence, generate_workpaper, download_workpaper, new_audit, reset, or guide. Defaults to status."`
	ScriptPath     string   `json:"scriptPath,omitempty"     jsonschema:"Path to the test script file for submit_script (.xlsx, .xls, or .csv)."`
	ScriptContent  string   `json:"scriptContent,omitempty"  jsonschema:"Base64-encoded test script content for submit_script, as an alternative to scriptPath. Requires scriptFilename."`
	ScriptFilename string   `json:"scriptFilename,omitempty" jsonschema:"Filename to record for scriptContent; its extension selects the parser (.xlsx, .xls, or .csv)."`
	EvidencePaths  []string `json:"evidencePaths,omitempty"  jsonschema:"Paths to evidence files for submit_evidence (.pdf, .txt, .csv, .xlsx, .jpeg, .jpg). Evidence accumulates across rounds."`
	Force          bool     `json:"force,omitempty"          jsonschema:"Generate the workpaper even when the engine still lists pending controls (generate_workpaper only)."`
	OutputDir      string   `json:"outputDir,omitempty"      jsonschema:"Directory to save the workpaper into (download_workpaper only). Defaults to the configured downloads directory."`
}

// statusResponse wraps the session snapshot with the busy flag and a follow-up hint.
type statusResponse struct {
	Session    workflow.Session `json:"session"`
	Busy       bool             `json:"busy"`
	NextAction string           `json:"nextAction,omitempty"`
}

// scriptResponse summarizes a started audit session.
type scriptResponse struct {
	SessionID     string                 `json:"sessionId"`
	Phase         workflow.Phase         `json:"phase"`
	ControlsFound int                    `json:"controlsFound"`
	Checklist     []engine.ChecklistItem `json:"checklist"`
	Warnings      []string               `json:"warnings,omitempty"`
	NextAction    string                 `json:"nextAction,omitempty"`
}

// evidenceResponse summarizes the session after an evidence round. FilesProcessed
// is cumulative across all rounds.
type evidenceResponse struct {
	Phase           workflow.Phase          `json:"phase"`
	FilesProcessed  []engine.EvidenceRecord `json:"filesProcessed"`
	Summary         engine.EvidenceSummary  `json:"summary"`
	PendingControls []engine.PendingControl `json:"pendingControls"`
	ReadyToGenerate bool                    `json:"readyToGenerate"`
	NextAction      string                  `json:"nextAction,omitempty"`
}

// generateResponse summarizes a generated workpaper.
type generateResponse struct {
	Phase      workflow.Phase      `json:"phase"`
	Workpaper  *workflow.Workpaper `json:"workpaper"`
	NextAction string              `json:"nextAction,omitempty"`
}

// downloadResponse reports where the workpaper artifact was saved.
type downloadResponse struct {
	SavedTo    string `json:"savedTo"`
	Filename   string `json:"filename"`
	Size       int    `json:"size"`
	NextAction string `json:"nextAction,omitempty"`
}

// RegisterWorkflow registers the audit_workflow tool.
func RegisterWorkflow(srv *mcp.Server, c *workflow.Coordinator, cfg config.Config) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "audit_workflow",
		Description: "Drive an audit evidence session. Call with action=\"submit_script\" scriptPath=\"controls.xlsx\" to start: the engine extracts the control checklist. Then action=\"submit_evidence\" evidencePaths=[...] as many rounds as needed; the engine validates each file against the checklist and reports what is still pending. When nothing is pending (or with force=true), action=\"generate_workpaper\" produces the workpaper and action=\"download_workpaper\" saves it locally. action=\"status\" shows the session, action=\"new_audit\" starts over from results, action=\"reset\" abandons the session from any phase, action=\"guide\" explains the full workflow.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Audit workflow orchestration",
			ReadOnlyHint:   false,
			IdempotentHint: false,
			OpenWorldHint:  boolPtr(true),
		},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input WorkflowInput) (*mcp.CallToolResult, any, error) {
		return handleWorkflowAction(ctx, c, cfg, input)
	})
}

func handleWorkflowAction(ctx context.Context, c *workflow.Coordinator, cfg config.Config, input WorkflowInput) (*mcp.CallToolResult, any, error) {
	switch input.Action {
	case "", "status":
		return handleStatus(c)
	case "submit_script":
		return handleSubmitScript(ctx, c, cfg, input)
	case "submit_evidence":
		return handleSubmitEvidence(ctx, c, cfg, input)
	case "generate_workpaper":
		return handleGenerate(ctx, c, input)
	case "download_workpaper":
		return handleDownload(ctx, c, cfg, input)
	case "new_audit":
		return handleNewAudit(c)
	case "reset":
		return handleReset(c)
	case "guide":
		return textResult(content.AuditGuide()), nil, nil
	default:
		return convertError(engine.NewError(
			engine.ErrInvalidUsage,
			fmt.Sprintf("Unknown action %q", input.Action),
			"Valid actions: status, submit_script, submit_evidence, generate_workpaper, download_workpaper, new_audit, reset, guide")), nil, nil
	}
}

func handleStatus(c *workflow.Coordinator) (*mcp.CallToolResult, any, error) {
	sess := c.Snapshot()
	return jsonResult(statusResponse{
		Session:    sess,
		Busy:       c.Busy(),
		NextAction: nextActionFor(sess),
	}), nil, nil
}

func handleSubmitScript(ctx context.Context, c *workflow.Coordinator, cfg config.Config, input WorkflowInput) (*mcp.CallToolResult, any, error) {
	staged, errResult := stageScriptInput(cfg, input)
	if errResult != nil {
		return errResult, nil, nil
	}
	if err := c.StageScript(staged); err != nil {
		return convertError(err), nil, nil
	}
	if err := c.SubmitScript(ctx); err != nil {
		return convertError(err), nil, nil
	}

	sess := c.Snapshot()
	return jsonResult(scriptResponse{
		SessionID:     sess.SessionID,
		Phase:         sess.Phase,
		ControlsFound: sess.ControlsFound,
		Checklist:     sess.Checklist,
		Warnings:      sess.Warnings,
		NextAction:    nextActionFor(sess),
	}), nil, nil
}

// stageScriptInput resolves the script from scriptPath or scriptContent.
// Returns an error result (not an error) so handlers stay uniform.
func stageScriptInput(cfg config.Config, input WorkflowInput) (*workflow.StagedFile, *mcp.CallToolResult) {
	switch {
	case input.ScriptPath != "" && input.ScriptContent != "":
		return nil, convertError(engine.NewError(
			engine.ErrInvalidUsage,
			"Provide either scriptPath or scriptContent, not both",
			""))
	case input.ScriptPath != "":
		staged, err := ops.StageScript(input.ScriptPath, cfg.Limits.MaxScriptBytes)
		if err != nil {
			return nil, convertError(err)
		}
		return staged, nil
	case input.ScriptContent != "":
		if input.ScriptFilename == "" {
			return nil, convertError(engine.NewError(
				engine.ErrInvalidUsage,
				"scriptFilename is required with scriptContent",
				"The extension selects the parser: .xlsx, .xls, or .csv"))
		}
		raw, err := base64.StdEncoding.DecodeString(input.ScriptContent)
		if err != nil {
			return nil, convertError(engine.NewError(
				engine.ErrInvalidUsage,
				"scriptContent is not valid base64",
				"Encode the file bytes with standard base64"))
		}
		staged, err := ops.StageScriptContent(input.ScriptFilename, raw, cfg.Limits.MaxScriptBytes)
		if err != nil {
			return nil, convertError(err)
		}
		return staged, nil
	default:
		return nil, convertError(engine.NewError(
			engine.ErrNoScript,
			"No test script provided",
			"Pass scriptPath, or scriptContent with scriptFilename"))
	}
}

func handleSubmitEvidence(ctx context.Context, c *workflow.Coordinator, cfg config.Config, input WorkflowInput) (*mcp.CallToolResult, any, error) {
	files, err := ops.StageEvidence(input.EvidencePaths, cfg.Limits.MaxEvidenceBytes)
	if err != nil {
		return convertError(err), nil, nil
	}
	if err := c.SubmitEvidence(ctx, files); err != nil {
		return convertError(err), nil, nil
	}

	sess := c.Snapshot()
	return jsonResult(evidenceResponse{
		Phase:           sess.Phase,
		FilesProcessed:  sess.FilesProcessed,
		Summary:         sess.EvidenceSummary,
		PendingControls: sess.PendingControls,
		ReadyToGenerate: sess.ReadyToGenerate,
		NextAction:      nextActionFor(sess),
	}), nil, nil
}

func handleGenerate(ctx context.Context, c *workflow.Coordinator, input WorkflowInput) (*mcp.CallToolResult, any, error) {
	if err := c.GenerateWorkpaper(ctx, input.Force); err != nil {
		return convertError(err), nil, nil
	}

	sess := c.Snapshot()
	return jsonResult(generateResponse{
		Phase:      sess.Phase,
		Workpaper:  sess.Workpaper,
		NextAction: nextActionFor(sess),
	}), nil, nil
}

func handleDownload(ctx context.Context, c *workflow.Coordinator, cfg config.Config, input WorkflowInput) (*mcp.CallToolResult, any, error) {
	data, filename, err := c.DownloadWorkpaper(ctx)
	if err != nil {
		return convertError(err), nil, nil
	}

	dir := input.OutputDir
	if dir == "" {
		dir = cfg.Downloads.Dir
	}
	path, err := ops.SaveWorkpaper(dir, filename, data)
	if err != nil {
		return convertError(err), nil, nil
	}

	return jsonResult(downloadResponse{
		SavedTo:    path,
		Filename:   filename,
		Size:       len(data),
		NextAction: nextActionNewAudit,
	}), nil, nil
}

func handleNewAudit(c *workflow.Coordinator) (*mcp.CallToolResult, any, error) {
	if err := c.NewAudit(); err != nil {
		return convertError(err), nil, nil
	}
	return textResult("Started a fresh audit. " + nextActionSubmitScript), nil, nil
}

func handleReset(c *workflow.Coordinator) (*mcp.CallToolResult, any, error) {
	c.Reset()
	return textResult("Audit session reset. " + nextActionSubmitScript), nil, nil
}
