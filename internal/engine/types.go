package engine

import "time"

// DefaultTimeout is the global timeout for each engine call. Generation can
// chew through large evidence sets, so this is deliberately generous.
const DefaultTimeout = 120 * time.Second

// Validation statuses reported per evidence file.
const (
	ValidationAccepted = "accepted"
	ValidationRejected = "rejected"
)

// File is an artifact staged for upload: a test script or one evidence file.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ChecklistItem is one evidence requirement extracted from the test script.
type ChecklistItem struct {
	ControlID          string `json:"controlId"`
	ControlDescription string `json:"controlDescription"`
	EvidenceRequired   string `json:"evidenceRequired"`
}

// EvidenceRecord is the validation outcome of one uploaded file.
// SatisfiesControls is empty when the file was rejected.
type EvidenceRecord struct {
	Filename          string   `json:"filename"`
	ValidationStatus  string   `json:"validationStatus"`
	Reason            string   `json:"reason"`
	SatisfiesControls []string `json:"satisfiesControls"`
}

// Accepted reports whether the record passed validation.
func (r EvidenceRecord) Accepted() bool {
	return r.ValidationStatus == ValidationAccepted
}

// PendingControl is a control not yet satisfied by any accepted evidence,
// per the engine's latest determination.
type PendingControl struct {
	ControlID   string `json:"controlId"`
	Requirement string `json:"requirement"`
}

// EvidenceSummary carries the engine's per-round counts.
type EvidenceSummary struct {
	Received      int `json:"received"`
	TotalControls int `json:"totalControls"`
	Pending       int `json:"pending"`
}

// WorkpaperSummary carries per-control outcome counts for a generated workpaper.
type WorkpaperSummary struct {
	ControlsTested int `json:"controlsTested"`
	PassCount      int `json:"passCount"`
	FailCount      int `json:"failCount"`
}

// StartAuditResult is the engine's response to a submitted test script.
type StartAuditResult struct {
	SessionID     string          `json:"sessionId"`
	ControlsFound int             `json:"controlsFound"`
	Checklist     []ChecklistItem `json:"checklist"`
	Warnings      []string        `json:"warnings"`
}

// UploadEvidenceResult is the engine's response to one evidence round.
// FilesProcessed covers this round only; accumulation is the caller's job.
type UploadEvidenceResult struct {
	FilesProcessed  []EvidenceRecord `json:"filesProcessed"`
	Summary         EvidenceSummary  `json:"summary"`
	PendingControls []PendingControl `json:"pendingControls"`
	ReadyToGenerate bool             `json:"readyToGenerate"`
}

// GenerateResult is the engine's response to a workpaper generation request.
type GenerateResult struct {
	WorkpaperFilename string           `json:"workpaperFilename"`
	DownloadURL       string           `json:"downloadUrl"`
	Summary           WorkpaperSummary `json:"summary"`
	Message           string           `json:"message"`
}
