package workflow

import "github.com/auditstack/acp/internal/engine"

// Store owns the session record and its mutations. It is pure data
// manipulation: no I/O, no locking, no phase enforcement. Callers (the
// Coordinator) are responsible for preconditions and synchronization.
type Store struct {
	session Session
}

// NewStore returns a store holding a fresh session.
func NewStore() *Store {
	return &Store{session: initialSession()}
}

// Patch is a shallow merge into the session: nil fields are left
// untouched, non-nil fields replace the current value wholesale.
// FilesProcessed is deliberately absent; it only grows through
// AppendEvidenceRecords.
type Patch struct {
	SessionID       *string
	Phase           *Phase
	ControlsFound   *int
	Checklist       *[]engine.ChecklistItem
	Warnings        *[]string
	PendingControls *[]engine.PendingControl
	ReadyToGenerate *bool
	EvidenceSummary *engine.EvidenceSummary
	Workpaper       *Workpaper
	Error           *string
}

// SetTestScript stages or clears (nil) the test script.
func (s *Store) SetTestScript(f *StagedFile) {
	s.session.TestScript = f
}

// SetStagedEvidence replaces the staged evidence selection; nil clears it.
func (s *Store) SetStagedEvidence(files []StagedFile) {
	s.session.StagedEvidence = files
}

// ApplyPatch merges a patch into the session.
func (s *Store) ApplyPatch(p Patch) {
	if p.SessionID != nil {
		s.session.SessionID = *p.SessionID
	}
	if p.Phase != nil {
		s.session.Phase = *p.Phase
	}
	if p.ControlsFound != nil {
		s.session.ControlsFound = *p.ControlsFound
	}
	if p.Checklist != nil {
		s.session.Checklist = *p.Checklist
	}
	if p.Warnings != nil {
		s.session.Warnings = *p.Warnings
	}
	if p.PendingControls != nil {
		s.session.PendingControls = *p.PendingControls
	}
	if p.ReadyToGenerate != nil {
		s.session.ReadyToGenerate = *p.ReadyToGenerate
	}
	if p.EvidenceSummary != nil {
		s.session.EvidenceSummary = *p.EvidenceSummary
	}
	if p.Workpaper != nil {
		s.session.Workpaper = p.Workpaper
	}
	if p.Error != nil {
		s.session.Error = *p.Error
	}
}

// AppendEvidenceRecords appends processing records from one evidence
// round. Records are never deduplicated or replaced: re-submitting the
// same file yields a second record, preserving the full negotiation
// history.
func (s *Store) AppendEvidenceRecords(records []engine.EvidenceRecord) {
	s.session.FilesProcessed = append(s.session.FilesProcessed, records...)
}

// Reset discards the session and returns to a fresh UPLOAD_SCRIPT state.
func (s *Store) Reset() {
	s.session = initialSession()
}

// Snapshot returns a copy of the session safe to hand outside the lock.
// Slices are copied; staged file contents are shared, not duplicated.
func (s *Store) Snapshot() Session {
	snap := s.session
	snap.Checklist = slicesCopy(s.session.Checklist)
	snap.Warnings = slicesCopy(s.session.Warnings)
	snap.FilesProcessed = slicesCopy(s.session.FilesProcessed)
	snap.PendingControls = slicesCopy(s.session.PendingControls)
	snap.StagedEvidence = slicesCopy(s.session.StagedEvidence)
	if s.session.TestScript != nil {
		script := *s.session.TestScript
		snap.TestScript = &script
	}
	if s.session.Workpaper != nil {
		wp := *s.session.Workpaper
		snap.Workpaper = &wp
	}
	return snap
}

func slicesCopy[T any](src []T) []T {
	if src == nil {
		return nil
	}
	dst := make([]T, len(src))
	copy(dst, src)
	return dst
}

func ptr[T any](v T) *T {
	return &v
}
