// Package workflow implements the audit evidence workflow: a session
// store, the checklist tracker, and the coordinator that drives the
// multi-round evidence negotiation with the assessment engine.
package workflow

import (
	"slices"

	"github.com/auditstack/acp/internal/engine"
)

// Phase represents a workflow phase.
type Phase string

const (
	PhaseUploadScript    Phase = "UPLOAD_SCRIPT"
	PhaseReviewChecklist Phase = "REVIEW_CHECKLIST"
	PhaseUploadEvidence  Phase = "UPLOAD_EVIDENCE"
	PhaseGenerating      Phase = "GENERATING"
	PhaseResults         Phase = "RESULTS"
	PhaseFailed          Phase = "FAILED"
)

// StagedFile is an artifact selected by the operator but not yet consumed
// by an engine call. Content stays out of JSON snapshots.
type StagedFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	Size        int    `json:"size"`
	Content     []byte `json:"-"`
}

// File converts the staged artifact into its upload form.
func (f StagedFile) File() engine.File {
	return engine.File{
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Content:     f.Content,
	}
}

// Workpaper is the generated audit artifact reference. Present only in
// the RESULTS phase; the binary itself is fetched on demand.
type Workpaper struct {
	Filename    string                  `json:"filename"`
	DownloadURL string                  `json:"downloadUrl"`
	Summary     engine.WorkpaperSummary `json:"summary"`
	Message     string                  `json:"message,omitempty"`
}

// Session holds the single active audit run.
//
// FilesProcessed accumulates across every evidence round and only ever
// grows by append; PendingControls, ReadyToGenerate, and EvidenceSummary
// are replaced wholesale with the engine's latest view each round.
type Session struct {
	SessionID       string                  `json:"sessionId,omitempty"`
	Phase           Phase                   `json:"phase"`
	TestScript      *StagedFile             `json:"testScript,omitempty"`
	StagedEvidence  []StagedFile            `json:"stagedEvidence,omitempty"`
	ControlsFound   int                     `json:"controlsFound"`
	Checklist       []engine.ChecklistItem  `json:"checklist"`
	Warnings        []string                `json:"warnings"`
	FilesProcessed  []engine.EvidenceRecord `json:"filesProcessed"`
	PendingControls []engine.PendingControl `json:"pendingControls"`
	ReadyToGenerate bool                    `json:"readyToGenerate"`
	EvidenceSummary engine.EvidenceSummary  `json:"evidenceSummary"`
	Workpaper       *Workpaper              `json:"workpaper,omitempty"`
	Error           string                  `json:"error,omitempty"`
}

// initialSession returns a fresh session in the UPLOAD_SCRIPT phase.
// JSON-facing slices start empty rather than nil so snapshots render [].
func initialSession() Session {
	return Session{
		Phase:           PhaseUploadScript,
		Checklist:       []engine.ChecklistItem{},
		Warnings:        []string{},
		FilesProcessed:  []engine.EvidenceRecord{},
		PendingControls: []engine.PendingControl{},
	}
}

// phaseTransitions defines the legal forward transitions per phase.
// Reset returns to UPLOAD_SCRIPT from any phase and is always legal;
// FAILED is reserved for unrecoverable conditions and only Reset leaves it.
var phaseTransitions = map[Phase][]Phase{
	PhaseUploadScript:    {PhaseReviewChecklist},
	PhaseReviewChecklist: {PhaseUploadEvidence, PhaseGenerating},
	PhaseUploadEvidence:  {PhaseUploadEvidence, PhaseGenerating},
	PhaseGenerating:      {PhaseResults, PhaseUploadEvidence},
	PhaseResults:         {},
	PhaseFailed:          {},
}

// ValidNextPhases returns the legal forward transitions from a phase.
func ValidNextPhases(current Phase) []Phase {
	seq, ok := phaseTransitions[current]
	if !ok {
		return nil
	}
	// Return a copy to prevent mutation.
	result := make([]Phase, len(seq))
	copy(result, seq)
	return result
}

// IsValidTransition checks whether a forward phase transition is legal.
func IsValidTransition(from, to Phase) bool {
	return slices.Contains(phaseTransitions[from], to)
}

// acceptsEvidence reports whether the phase accepts evidence operations.
// REVIEW_CHECKLIST and UPLOAD_EVIDENCE are one combined phase in practice;
// the two labels only distinguish "just arrived with a fresh checklist"
// from "actively uploading more evidence".
func acceptsEvidence(p Phase) bool {
	return p == PhaseReviewChecklist || p == PhaseUploadEvidence
}
