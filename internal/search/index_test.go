// Tests for: session search index, rebuild caching and query behavior.
package search

import (
	"testing"

	"github.com/auditstack/acp/internal/engine"
	"github.com/auditstack/acp/internal/workflow"
)

func indexedSession() workflow.Session {
	return workflow.Session{
		SessionID: "sess-7",
		Phase:     workflow.PhaseUploadEvidence,
		Checklist: []engine.ChecklistItem{
			{ControlID: "C1", ControlDescription: "Quarterly access reviews", EvidenceRequired: "Access review report"},
			{ControlID: "C2", ControlDescription: "Change approval before deploy", EvidenceRequired: "Approved change ticket"},
			{ControlID: "C3", ControlDescription: "Monthly backup verification", EvidenceRequired: "Backup verification log"},
		},
		FilesProcessed: []engine.EvidenceRecord{
			{
				Filename:          "access_review_q3.pdf",
				ValidationStatus:  engine.ValidationAccepted,
				SatisfiesControls: []string{"C1"},
			},
			{
				Filename:         "blurry_scan.pdf",
				ValidationStatus: engine.ValidationRejected,
				Reason:           "document is illegible",
			},
		},
	}
}

func rebuiltIndex(t *testing.T) *Index {
	t.Helper()
	x := NewIndex()
	if _, err := x.Rebuild(indexedSession()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	t.Cleanup(func() { _ = x.Close() })
	return x
}

func TestSearch_FindsControlByRequirementText(t *testing.T) {
	x := rebuiltIndex(t)

	hits, err := x.Search("backup verification", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hits for 'backup verification'")
	}
	found := false
	for _, h := range hits {
		if h.Kind == KindControl && h.ControlID == "C3" {
			found = true
			if h.Status != "pending" {
				t.Errorf("C3 has no accepted evidence, expected pending, got %s", h.Status)
			}
		}
	}
	if !found {
		t.Errorf("expected control C3 in hits, got %+v", hits)
	}
}

func TestSearch_FindsEvidenceByRejectionReason(t *testing.T) {
	x := rebuiltIndex(t)

	hits, err := x.Search("illegible", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	found := false
	for _, h := range hits {
		if h.Kind == KindEvidence && h.Filename == "blurry_scan.pdf" {
			found = true
			if h.Status != engine.ValidationRejected {
				t.Errorf("expected rejected status, got %s", h.Status)
			}
		}
	}
	if !found {
		t.Errorf("expected blurry_scan.pdf in hits, got %+v", hits)
	}
}

func TestSearch_KindFilter(t *testing.T) {
	x := rebuiltIndex(t)

	hits, err := x.Search("", KindEvidence, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected both evidence records, got %d hits", len(hits))
	}
	for _, h := range hits {
		if h.Kind != KindEvidence {
			t.Errorf("kind filter leaked a %s document: %+v", h.Kind, h)
		}
	}
}

func TestSearch_Limit(t *testing.T) {
	x := rebuiltIndex(t)

	hits, err := x.Search("", KindControl, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("expected the limit to cap results at 1, got %d", len(hits))
	}
}

func TestSearch_EmptyQueryAndKind(t *testing.T) {
	x := rebuiltIndex(t)

	hits, err := x.Search("  ", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits without query or kind, got %d", len(hits))
	}
}

func TestSearch_BeforeFirstRebuild(t *testing.T) {
	x := NewIndex()
	hits, err := x.Search("anything", "", 10)
	if err != nil {
		t.Fatalf("search on empty index: %v", err)
	}
	if hits != nil {
		t.Errorf("expected nil hits, got %v", hits)
	}
}

func TestRebuild_CachedBySessionShape(t *testing.T) {
	x := NewIndex()
	t.Cleanup(func() { _ = x.Close() })
	sess := indexedSession()

	changed, err := x.Rebuild(sess)
	if err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	if !changed {
		t.Error("first rebuild must index")
	}

	changed, err = x.Rebuild(sess)
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if changed {
		t.Error("unchanged session shape must not re-index")
	}

	// Another evidence round grows the record history; the index follows.
	sess.FilesProcessed = append(sess.FilesProcessed, engine.EvidenceRecord{
		Filename:          "backup_verification_aug.xlsx",
		ValidationStatus:  engine.ValidationAccepted,
		SatisfiesControls: []string{"C3"},
	})
	changed, err = x.Rebuild(sess)
	if err != nil {
		t.Fatalf("third rebuild: %v", err)
	}
	if !changed {
		t.Error("grown record history must re-index")
	}

	hits, err := x.Search("backup", KindControl, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, h := range hits {
		if h.ControlID == "C3" && h.Status != "satisfied" {
			t.Errorf("C3 must show satisfied after the new record, got %s", h.Status)
		}
	}
}
