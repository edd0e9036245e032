package tools

import "github.com/auditstack/acp/internal/workflow"

// NextAction constants provide actionable follow-up instructions for LLMs.
const (
	nextActionSubmitScript   = "Submit a test script: audit_workflow action=submit_script scriptPath=<file>."
	nextActionReviewedScript = "Review the checklist: audit_checklist. Then upload evidence: audit_workflow action=submit_evidence evidencePaths=[...]."
	nextActionMoreEvidence   = "Upload evidence for the pending controls: audit_workflow action=submit_evidence. Check coverage: audit_checklist."
	nextActionGenerate       = "Every control is covered. Generate the workpaper: audit_workflow action=generate_workpaper."
	nextActionGenerating     = "Generation is in progress. Check again: audit_workflow action=status."
	nextActionDownload       = "Save the workpaper locally: audit_workflow action=download_workpaper. Or start over: audit_workflow action=new_audit."
	nextActionNewAudit       = "Start another audit: audit_workflow action=new_audit."
	nextActionReset          = "Reset the session: audit_workflow action=reset."
)

// nextActionFor maps the session state to the most useful follow-up hint.
func nextActionFor(sess workflow.Session) string {
	switch sess.Phase {
	case workflow.PhaseUploadScript:
		return nextActionSubmitScript
	case workflow.PhaseReviewChecklist:
		return nextActionReviewedScript
	case workflow.PhaseUploadEvidence:
		if sess.ReadyToGenerate {
			return nextActionGenerate
		}
		return nextActionMoreEvidence
	case workflow.PhaseGenerating:
		return nextActionGenerating
	case workflow.PhaseResults:
		return nextActionDownload
	default:
		return nextActionReset
	}
}
