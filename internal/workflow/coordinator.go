package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/auditstack/acp/internal/engine"
)

// Coordinator drives the workflow. It owns the only mutable session,
// enforces phase preconditions, and serializes engine traffic: at most
// one engine call is in flight, and mutating entry points reject with
// ENGINE_BUSY while one is.
//
// Engine calls run outside the lock. Each call captures the reset epoch
// and session id before releasing it; when the response arrives after a
// Reset or NewAudit, the capture no longer matches and the response is
// discarded without touching the fresh session.
type Coordinator struct {
	mu     sync.Mutex
	client engine.Client
	store  *Store
	model  string
	busy   bool
	epoch  uint64
}

// NewCoordinator returns a coordinator for a fresh session.
func NewCoordinator(client engine.Client, model string) *Coordinator {
	return &Coordinator{
		client: client,
		store:  NewStore(),
		model:  model,
	}
}

// Snapshot returns a copy of the current session.
func (c *Coordinator) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Snapshot()
}

// Busy reports whether an engine call is in flight.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// StageScript stages the test script for submission, or clears it when
// passed nil. Only legal before the audit has started.
func (c *Coordinator) StageScript(f *StagedFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return errBusy()
	}
	if c.store.session.Phase != PhaseUploadScript {
		return c.rejectLocked(engine.NewError(engine.ErrBadPhase,
			"A test script was already submitted for this session",
			"Use new_audit or reset to start a fresh audit"))
	}
	c.store.SetTestScript(f)
	return nil
}

// StageEvidence replaces the staged evidence selection.
func (c *Coordinator) StageEvidence(files []StagedFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return errBusy()
	}
	if !acceptsEvidence(c.store.session.Phase) {
		return c.rejectLocked(engine.NewError(engine.ErrBadPhase,
			"Evidence can only be staged while the audit is collecting evidence",
			"Submit a test script first"))
	}
	c.store.SetStagedEvidence(files)
	return nil
}

// SubmitScript sends the staged test script to the engine. On success
// the session gains its id and evidence checklist and moves to
// REVIEW_CHECKLIST; on failure the phase and the staged script are
// preserved so the operator can retry or restage.
func (c *Coordinator) SubmitScript(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return errBusy()
	}
	if c.store.session.Phase != PhaseUploadScript {
		err := c.rejectLocked(engine.NewError(engine.ErrBadPhase,
			"A test script was already submitted for this session",
			"Use new_audit or reset to start a fresh audit"))
		c.mu.Unlock()
		return err
	}
	staged := c.store.session.TestScript
	if staged == nil {
		err := c.rejectLocked(engine.NewError(engine.ErrNoScript,
			"No test script has been staged",
			"Stage an .xlsx, .xls, or .csv test script first"))
		c.mu.Unlock()
		return err
	}
	file := staged.File()
	epoch := c.epoch
	c.busy = true
	c.mu.Unlock()

	result, err := c.client.StartAudit(ctx, c.model, file)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if epoch != c.epoch {
		// Session was reset while the call was in flight.
		return nil
	}
	if err != nil {
		c.store.ApplyPatch(Patch{Error: ptr(engine.ErrorMessage(err))})
		return err
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	c.store.ApplyPatch(Patch{
		SessionID:     ptr(result.SessionID),
		Phase:         ptr(PhaseReviewChecklist),
		ControlsFound: ptr(result.ControlsFound),
		Checklist:     ptr(result.Checklist),
		Warnings:      ptr(warnings),
		Error:         ptr(""),
	})
	c.store.SetTestScript(nil)
	return nil
}

// SubmitEvidence sends one round of evidence files to the engine. When
// files is nil the staged selection is used. The returned records are
// appended to the cumulative history; the pending-control list,
// readiness flag, and summary are replaced with the engine's latest
// view. The session stays in UPLOAD_EVIDENCE regardless of readiness so
// further rounds remain possible.
func (c *Coordinator) SubmitEvidence(ctx context.Context, files []StagedFile) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return errBusy()
	}
	if !acceptsEvidence(c.store.session.Phase) {
		err := c.rejectLocked(engine.NewError(engine.ErrBadPhase,
			"Evidence can only be submitted while the audit is collecting evidence",
			"Submit a test script first"))
		c.mu.Unlock()
		return err
	}
	if files == nil {
		files = c.store.session.StagedEvidence
	}
	if len(files) == 0 {
		err := c.rejectLocked(engine.NewError(engine.ErrNoEvidence,
			"No evidence files were provided",
			"Stage at least one evidence file and retry"))
		c.mu.Unlock()
		return err
	}
	sessionID := c.store.session.SessionID
	if sessionID == "" {
		err := c.rejectLocked(engine.NewError(engine.ErrNoSession,
			"No audit session is active",
			"Submit a test script to start a session"))
		c.mu.Unlock()
		return err
	}
	payload := make([]engine.File, 0, len(files))
	for _, f := range files {
		payload = append(payload, f.File())
	}
	epoch := c.epoch
	c.busy = true
	c.mu.Unlock()

	result, err := c.client.UploadEvidence(ctx, sessionID, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if epoch != c.epoch || c.store.session.SessionID != sessionID {
		return nil
	}
	if err != nil {
		c.store.ApplyPatch(Patch{Error: ptr(engine.ErrorMessage(err))})
		return err
	}
	c.store.AppendEvidenceRecords(result.FilesProcessed)
	c.store.ApplyPatch(Patch{
		Phase:           ptr(PhaseUploadEvidence),
		PendingControls: ptr(result.PendingControls),
		ReadyToGenerate: ptr(result.ReadyToGenerate),
		EvidenceSummary: ptr(result.Summary),
		Error:           ptr(""),
	})
	c.store.SetStagedEvidence(nil)
	return nil
}

// GenerateWorkpaper asks the engine to produce the workpaper. Readiness
// is the engine's verdict from the last evidence round: when it still
// lists pending controls the request is rejected locally, without an
// engine call, unless force is set. The engine may itself refuse a
// forced request; any failure returns the session to UPLOAD_EVIDENCE
// so evidence rounds can continue.
func (c *Coordinator) GenerateWorkpaper(ctx context.Context, force bool) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return errBusy()
	}
	sess := &c.store.session
	if !acceptsEvidence(sess.Phase) {
		var err error
		if sess.Phase == PhaseResults {
			err = c.rejectLocked(engine.NewError(engine.ErrBadPhase,
				"The workpaper was already generated",
				"Use new_audit to start a fresh audit"))
		} else {
			err = c.rejectLocked(engine.NewError(engine.ErrBadPhase,
				"Workpaper generation is not available yet",
				"Submit a test script and evidence first"))
		}
		c.mu.Unlock()
		return err
	}
	sessionID := sess.SessionID
	if sessionID == "" {
		err := c.rejectLocked(engine.NewError(engine.ErrNoSession,
			"No audit session is active",
			"Submit a test script to start a session"))
		c.mu.Unlock()
		return err
	}
	if !sess.ReadyToGenerate && !force {
		msg := "The engine still lists pending controls"
		if ids := pendingIDs(sess.PendingControls); len(ids) > 0 {
			msg = fmt.Sprintf("The engine still lists %d pending controls: %s",
				len(ids), strings.Join(ids, ", "))
		}
		err := c.rejectLocked(engine.NewError(engine.ErrNotReady, msg,
			"Upload the missing evidence, or pass force=true to generate anyway"))
		c.mu.Unlock()
		return err
	}
	c.store.ApplyPatch(Patch{Phase: ptr(PhaseGenerating)})
	epoch := c.epoch
	c.busy = true
	c.mu.Unlock()

	result, err := c.client.GenerateWorkpaper(ctx, sessionID, force)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if epoch != c.epoch || c.store.session.SessionID != sessionID {
		return nil
	}
	if err != nil {
		c.store.ApplyPatch(Patch{
			Phase: ptr(PhaseUploadEvidence),
			Error: ptr(engine.ErrorMessage(err)),
		})
		return err
	}
	c.store.ApplyPatch(Patch{
		Phase: ptr(PhaseResults),
		Workpaper: &Workpaper{
			Filename:    result.WorkpaperFilename,
			DownloadURL: result.DownloadURL,
			Summary:     result.Summary,
			Message:     result.Message,
		},
		Error: ptr(""),
	})
	return nil
}

// DownloadWorkpaper fetches the generated workpaper binary. Returns the
// artifact bytes and its filename. The session is not modified.
func (c *Coordinator) DownloadWorkpaper(ctx context.Context) ([]byte, string, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, "", errBusy()
	}
	wp := c.store.session.Workpaper
	if wp == nil {
		err := c.rejectLocked(engine.NewError(engine.ErrBadPhase,
			"No workpaper is available to download",
			"Generate the workpaper first"))
		c.mu.Unlock()
		return nil, "", err
	}
	url, filename := wp.DownloadURL, wp.Filename
	epoch := c.epoch
	c.busy = true
	c.mu.Unlock()

	data, err := c.client.DownloadWorkpaper(ctx, url)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		if epoch == c.epoch {
			c.store.ApplyPatch(Patch{Error: ptr(engine.ErrorMessage(err))})
		}
		return nil, "", err
	}
	return data, filename, nil
}

// NewAudit discards the completed session and starts a fresh one. Only
// legal from RESULTS; Reset covers every other phase.
func (c *Coordinator) NewAudit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store.session.Phase != PhaseResults {
		return c.rejectLocked(engine.NewError(engine.ErrBadPhase,
			"new_audit is only available once results are ready",
			"Use reset to abandon the session from any other phase"))
	}
	c.resetLocked()
	return nil
}

// Reset abandons the session from any phase, including mid-call: a
// response still in flight is discarded when it lands.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Coordinator) resetLocked() {
	c.store.Reset()
	c.epoch++
}

// rejectLocked stores the rejection on the session so the operator sees
// it in status output, then returns it. Busy rejections skip the store
// write: a concurrent entry is a strict no-op.
func (c *Coordinator) rejectLocked(err *engine.EngineError) error {
	if err.Code != engine.ErrBusy {
		c.store.ApplyPatch(Patch{Error: ptr(err.Message)})
	}
	return err
}

func errBusy() error {
	return engine.NewError(engine.ErrBusy,
		"Another operation is still in progress",
		"Wait for it to finish, then retry")
}

func pendingIDs(pending []engine.PendingControl) []string {
	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		ids = append(ids, p.ControlID)
	}
	return ids
}
