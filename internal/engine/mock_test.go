// Tests for: mock.go, the result queue, error overrides, and call recording.
package engine

import (
	"context"
	"errors"
	"testing"
)

func TestMock_EvidenceResultQueue(t *testing.T) {
	t.Parallel()

	round1 := &UploadEvidenceResult{ReadyToGenerate: false}
	round2 := &UploadEvidenceResult{ReadyToGenerate: true}
	m := NewMock().
		WithEvidenceResult(round1).
		WithEvidenceResult(round2)

	ctx := context.Background()
	got1, err := m.UploadEvidence(ctx, "s", []File{{Filename: "a.pdf"}})
	if err != nil {
		t.Fatalf("round 1: %v", err)
	}
	if got1.ReadyToGenerate {
		t.Error("round 1 ReadyToGenerate = true, want false")
	}
	got2, err := m.UploadEvidence(ctx, "s", []File{{Filename: "b.pdf"}})
	if err != nil {
		t.Fatalf("round 2: %v", err)
	}
	if !got2.ReadyToGenerate {
		t.Error("round 2 ReadyToGenerate = false, want true")
	}
	// Exhausted queue repeats the last result.
	got3, err := m.UploadEvidence(ctx, "s", []File{{Filename: "c.pdf"}})
	if err != nil {
		t.Fatalf("round 3: %v", err)
	}
	if !got3.ReadyToGenerate {
		t.Error("round 3 should repeat the last queued result")
	}

	if m.CallCount("UploadEvidence") != 3 {
		t.Errorf("call count = %d, want 3", m.CallCount("UploadEvidence"))
	}
	batches := m.EvidenceBatches()
	if len(batches) != 3 || batches[0][0] != "a.pdf" || batches[1][0] != "b.pdf" {
		t.Errorf("batches = %v", batches)
	}
}

func TestMock_ErrorOverride(t *testing.T) {
	t.Parallel()

	wantErr := NewError(ErrEngineUnreachable, "engine down", "")
	m := NewMock().
		WithStartResult(&StartAuditResult{SessionID: "s"}).
		WithError("StartAudit", wantErr)

	_, err := m.StartAudit(context.Background(), "m", File{Filename: "s.xlsx"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if m.CallCount("StartAudit") != 1 {
		t.Errorf("call count = %d, want 1", m.CallCount("StartAudit"))
	}
}

func TestMock_Unconfigured(t *testing.T) {
	t.Parallel()

	m := NewMock()
	if _, err := m.GenerateWorkpaper(context.Background(), "s", false); err == nil {
		t.Error("expected error for unconfigured generate result")
	}
	if _, err := m.DownloadWorkpaper(context.Background(), "/x"); err == nil {
		t.Error("expected error for unconfigured artifact")
	}
}

func TestMock_RecordsForceAndURL(t *testing.T) {
	t.Parallel()

	m := NewMock().
		WithGenerateResult(&GenerateResult{WorkpaperFilename: "wp.pdf", DownloadURL: "/dl"}).
		WithArtifact([]byte("bytes"))

	ctx := context.Background()
	if _, err := m.GenerateWorkpaper(ctx, "s", true); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.GenerateWorkpaper(ctx, "s", false); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.DownloadWorkpaper(ctx, "/dl"); err != nil {
		t.Fatalf("download: %v", err)
	}

	forces := m.ForceFlags()
	if len(forces) != 2 || !forces[0] || forces[1] {
		t.Errorf("forces = %v, want [true false]", forces)
	}
	urls := m.DownloadURLs()
	if len(urls) != 1 || urls[0] != "/dl" {
		t.Errorf("urls = %v, want [/dl]", urls)
	}
}
