package engine

import (
	"encoding/json"
	"fmt"
)

// Wire structs match the engine's JSON field naming. The engine is a
// FastAPI-style service: snake_case keys, an optional success flag, and
// error text under error_details or message.

type checklistItemWire struct {
	ControlID          string `json:"control_id"`
	ControlDescription string `json:"control_description"`
	EvidenceRequired   string `json:"evidence_required"`
}

type startAuditWire struct {
	Success           *bool               `json:"success"`
	Message           string              `json:"message"`
	ErrorDetails      string              `json:"error_details"`
	SessionID         string              `json:"session_id"`
	ControlsFound     int                 `json:"controls_found"`
	EvidenceChecklist []checklistItemWire `json:"evidence_checklist"`
	Warnings          []string            `json:"warnings"`
}

type evidenceRecordWire struct {
	Filename          string   `json:"filename"`
	ValidationStatus  string   `json:"validation_status"`
	Reason            string   `json:"reason"`
	RejectionReason   string   `json:"rejection_reason"`
	SatisfiesControls []string `json:"satisfies_controls"`
}

type evidenceSummaryWire struct {
	Received      int `json:"received"`
	TotalControls int `json:"total_controls"`
	Pending       int `json:"pending"`
}

type pendingControlWire struct {
	ControlID          string `json:"control_id"`
	EvidenceRequired   string `json:"evidence_required"`
	ControlDescription string `json:"control_description"`
}

type uploadEvidenceWire struct {
	Success         *bool                `json:"success"`
	Message         string               `json:"message"`
	ErrorDetails    string               `json:"error_details"`
	FilesProcessed  []evidenceRecordWire `json:"files_processed"`
	EvidenceSummary evidenceSummaryWire  `json:"evidence_summary"`
	PendingControls []pendingControlWire `json:"pending_controls"`
	ReadyToGenerate bool                 `json:"ready_to_generate"`
}

type workpaperSummaryWire struct {
	ControlsTested int `json:"controls_tested"`
	PassCount      int `json:"pass_count"`
	FailCount      int `json:"fail_count"`
}

type generateWire struct {
	Success           *bool                `json:"success"`
	Message           string               `json:"message"`
	ErrorDetails      string               `json:"error_details"`
	WorkpaperFilename string               `json:"workpaper_filename"`
	DownloadURL       string               `json:"download_url"`
	Summary           workpaperSummaryWire `json:"summary"`
}

// parseStartAudit validates and maps the start-audit response.
func parseStartAudit(data []byte) (*StartAuditResult, error) {
	var wire startAuditWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, NewError(ErrMalformedResponse,
			fmt.Sprintf("engine returned invalid JSON: %v", err), "")
	}
	if wire.Success != nil && !*wire.Success {
		return nil, NewError(ErrLogicalFailure,
			failureMessage(wire.ErrorDetails, wire.Message, "engine reported script processing failure"), "")
	}
	if wire.SessionID == "" {
		return nil, NewError(ErrMalformedResponse,
			"engine response is missing session_id", "")
	}
	if len(wire.EvidenceChecklist) == 0 {
		return nil, NewError(ErrLogicalFailure,
			"engine returned an empty evidence checklist",
			"Check that the test script contains control definitions")
	}

	result := &StartAuditResult{
		SessionID:     wire.SessionID,
		ControlsFound: wire.ControlsFound,
		Checklist:     make([]ChecklistItem, 0, len(wire.EvidenceChecklist)),
		Warnings:      wire.Warnings,
	}
	for i, item := range wire.EvidenceChecklist {
		if item.ControlID == "" {
			return nil, NewError(ErrMalformedResponse,
				fmt.Sprintf("checklist item %d is missing control_id", i), "")
		}
		result.Checklist = append(result.Checklist, ChecklistItem{
			ControlID:          item.ControlID,
			ControlDescription: item.ControlDescription,
			EvidenceRequired:   item.EvidenceRequired,
		})
	}

	// Some engine builds omit controls_found; the checklist length is the
	// same fact. A present-but-disagreeing count means the payload is broken.
	if result.ControlsFound == 0 {
		result.ControlsFound = len(result.Checklist)
	} else if result.ControlsFound != len(result.Checklist) {
		return nil, NewError(ErrMalformedResponse,
			fmt.Sprintf("controls_found=%d disagrees with checklist length %d",
				result.ControlsFound, len(result.Checklist)), "")
	}

	return result, nil
}

// parseUploadEvidence validates and maps the upload-evidence response.
func parseUploadEvidence(data []byte) (*UploadEvidenceResult, error) {
	var wire uploadEvidenceWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, NewError(ErrMalformedResponse,
			fmt.Sprintf("engine returned invalid JSON: %v", err), "")
	}
	if wire.Success != nil && !*wire.Success {
		return nil, NewError(ErrLogicalFailure,
			failureMessage(wire.ErrorDetails, wire.Message, "engine reported evidence processing failure"), "")
	}

	result := &UploadEvidenceResult{
		FilesProcessed: make([]EvidenceRecord, 0, len(wire.FilesProcessed)),
		Summary: EvidenceSummary{
			Received:      wire.EvidenceSummary.Received,
			TotalControls: wire.EvidenceSummary.TotalControls,
			Pending:       wire.EvidenceSummary.Pending,
		},
		PendingControls: make([]PendingControl, 0, len(wire.PendingControls)),
		ReadyToGenerate: wire.ReadyToGenerate,
	}

	for i, rec := range wire.FilesProcessed {
		if rec.Filename == "" {
			return nil, NewError(ErrMalformedResponse,
				fmt.Sprintf("processed file %d is missing filename", i), "")
		}
		if rec.ValidationStatus != ValidationAccepted && rec.ValidationStatus != ValidationRejected {
			return nil, NewError(ErrMalformedResponse,
				fmt.Sprintf("unknown validation status %q for %s", rec.ValidationStatus, rec.Filename), "")
		}
		reason := rec.Reason
		if reason == "" {
			reason = rec.RejectionReason
		}
		result.FilesProcessed = append(result.FilesProcessed, EvidenceRecord{
			Filename:          rec.Filename,
			ValidationStatus:  rec.ValidationStatus,
			Reason:            reason,
			SatisfiesControls: rec.SatisfiesControls,
		})
	}

	for i, pc := range wire.PendingControls {
		if pc.ControlID == "" {
			return nil, NewError(ErrMalformedResponse,
				fmt.Sprintf("pending control %d is missing control_id", i), "")
		}
		// Engines disagree on the field carrying the requirement text;
		// evidence_required and control_description are equivalent here.
		requirement := pc.EvidenceRequired
		if requirement == "" {
			requirement = pc.ControlDescription
		}
		result.PendingControls = append(result.PendingControls, PendingControl{
			ControlID:   pc.ControlID,
			Requirement: requirement,
		})
	}

	return result, nil
}

// parseGenerate validates and maps the generate-workpaper response.
func parseGenerate(data []byte) (*GenerateResult, error) {
	var wire generateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, NewError(ErrMalformedResponse,
			fmt.Sprintf("engine returned invalid JSON: %v", err), "")
	}
	if wire.Success != nil && !*wire.Success {
		return nil, NewError(ErrLogicalFailure,
			failureMessage(wire.ErrorDetails, wire.Message, "engine reported workpaper generation failure"), "")
	}
	if wire.WorkpaperFilename == "" {
		return nil, NewError(ErrMalformedResponse,
			"engine response is missing workpaper_filename", "")
	}
	if wire.DownloadURL == "" {
		return nil, NewError(ErrMalformedResponse,
			"engine response is missing download_url", "")
	}

	return &GenerateResult{
		WorkpaperFilename: wire.WorkpaperFilename,
		DownloadURL:       wire.DownloadURL,
		Summary: WorkpaperSummary{
			ControlsTested: wire.Summary.ControlsTested,
			PassCount:      wire.Summary.PassCount,
			FailCount:      wire.Summary.FailCount,
		},
		Message: wire.Message,
	}, nil
}

// failureMessage picks the first non-empty failure text.
func failureMessage(details, message, fallback string) string {
	if details != "" {
		return details
	}
	if message != "" {
		return message
	}
	return fallback
}
