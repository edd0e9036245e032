// Package engine defines the assessment engine boundary: the Client
// interface the coordinator depends on, the HTTP implementation, and a
// configurable Mock for tests. The engine owns script parsing, evidence
// validation, and workpaper generation; this package only speaks its
// request/response contracts.
package engine

import "context"

// Client is the interface for assessment engine operations.
// Mocked in tests, real implementation speaks the engine's REST surface.
type Client interface {
	// StartAudit submits the test script and opens an engine session.
	StartAudit(ctx context.Context, selectedModel string, script File) (*StartAuditResult, error)

	// UploadEvidence submits one round of evidence files. The result's
	// FilesProcessed covers this round only.
	UploadEvidence(ctx context.Context, sessionID string, files []File) (*UploadEvidenceResult, error)

	// GenerateWorkpaper asks the engine to produce the workpaper.
	// With force set the engine generates despite unsatisfied controls.
	GenerateWorkpaper(ctx context.Context, sessionID string, force bool) (*GenerateResult, error)

	// DownloadWorkpaper fetches the generated artifact. Not cached.
	DownloadWorkpaper(ctx context.Context, downloadURL string) ([]byte, error)
}
