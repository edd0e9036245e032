// Tests for: session guard, requireSession blocks tools before an audit starts.
package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/auditstack/acp/internal/engine"
	"github.com/auditstack/acp/internal/workflow"
)

func TestRequireSession_NoSession_Blocks(t *testing.T) {
	t.Parallel()
	c := workflow.NewCoordinator(engine.NewMock(), "gpt-oss:20b")
	result := requireSession(c)
	if result == nil {
		t.Fatal("expected non-nil result when no session exists")
	}
	if !result.IsError {
		t.Error("expected IsError=true")
	}
	text := getTextContent(t, result)
	if !strings.Contains(text, engine.ErrNoSession) {
		t.Errorf("expected %s in error, got: %s", engine.ErrNoSession, text)
	}
}

func TestRequireSession_ActiveSession_Passes(t *testing.T) {
	t.Parallel()
	mock := engine.NewMock().WithStartResult(startResult())
	c := workflow.NewCoordinator(mock, "gpt-oss:20b")
	if err := c.StageScript(&workflow.StagedFile{Filename: "controls.csv", Content: []byte("C1"), Size: 2}); err != nil {
		t.Fatalf("stage script: %v", err)
	}
	if err := c.SubmitScript(context.Background()); err != nil {
		t.Fatalf("submit script: %v", err)
	}
	if result := requireSession(c); result != nil {
		t.Errorf("active session should pass, got: %v", result)
	}
}
