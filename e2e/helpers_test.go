//go:build e2e

// Tests for: e2e, helpers for live tests against a real assessment engine.

package e2e_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/auditstack/acp/internal/config"
	"github.com/auditstack/acp/internal/engine"
	"github.com/auditstack/acp/internal/server"
)

// e2eHarness provides a real engine client and MCP server for live tests.
type e2eHarness struct {
	t   *testing.T
	cfg config.Config
	srv *server.Server
}

// newHarness creates a live-test harness. Skips if ACP_E2E_ENGINE_URL is not set.
func newHarness(t *testing.T) *e2eHarness {
	t.Helper()

	baseURL := os.Getenv("ACP_E2E_ENGINE_URL")
	if baseURL == "" {
		t.Skip("ACP_E2E_ENGINE_URL not set, skipping live engine test")
	}

	model := os.Getenv("ACP_E2E_MODEL")
	if model == "" {
		model = config.DefaultModel
	}

	timeoutSeconds := config.DefaultTimeoutSeconds
	if raw := os.Getenv("ACP_E2E_TIMEOUT_SECONDS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			t.Fatalf("ACP_E2E_TIMEOUT_SECONDS = %q: %v", raw, err)
		}
		timeoutSeconds = n
	}

	cfg := config.Config{
		Engine: config.Engine{
			BaseURL:        baseURL,
			Model:          model,
			TimeoutSeconds: timeoutSeconds,
			APIKey:         os.Getenv("ACP_E2E_API_KEY"),
		},
		Downloads: config.Downloads{Dir: t.TempDir()},
		Limits: config.Limits{
			MaxScriptBytes:   config.DefaultMaxScriptBytes,
			MaxEvidenceBytes: config.DefaultMaxEvidenceBytes,
		},
	}

	client := engine.NewHTTPClient(cfg.Engine.BaseURL, cfg.Engine.APIKey, cfg.Engine.Timeout())
	srv := server.New(client, cfg)

	return &e2eHarness{t: t, cfg: cfg, srv: srv}
}

// e2eSession wraps a connected MCP client session for live tool calls.
type e2eSession struct {
	t       *testing.T
	session *mcp.ClientSession
}

// newSession creates an MCP client session connected to the harness server.
func newSession(t *testing.T, srv *server.Server) *e2eSession {
	t.Helper()
	ctx := context.Background()
	st, ct := mcp.NewInMemoryTransports()
	_, err := srv.MCPServer().Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "e2e-test", Version: "0.1"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return &e2eSession{t: t, session: session}
}

// callTool calls an MCP tool and returns the full result.
func (s *e2eSession) callTool(name string, args map[string]any) *mcp.CallToolResult {
	s.t.Helper()
	result, err := s.session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		s.t.Fatalf("call %s: %v", name, err)
	}
	return result
}

// mustCallSuccess calls a tool and fatals if it returns IsError.
func (s *e2eSession) mustCallSuccess(name string, args map[string]any) string {
	s.t.Helper()
	result := s.callTool(name, args)
	if result.IsError {
		text := getE2ETextContent(s.t, result)
		s.t.Fatalf("%s returned error: %s", name, text)
	}
	return getE2ETextContent(s.t, result)
}

// getE2ETextContent extracts text from the first content item.
func getE2ETextContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

// logStep prints a numbered step marker into the test log.
func logStep(t *testing.T, n int, format string, args ...any) {
	t.Helper()
	t.Logf("--- Step %d: "+format, append([]any{n}, args...)...)
}

// scriptPath returns the test script to submit. ACP_E2E_SCRIPT overrides the
// generated sample.
func scriptPath(t *testing.T) string {
	t.Helper()
	if path := os.Getenv("ACP_E2E_SCRIPT"); path != "" {
		return path
	}
	path := filepath.Join(t.TempDir(), "sample_controls.csv")
	content := strings.Join([]string{
		"control_id,description,evidence_required",
		"AC-1,Quarterly user access reviews are performed,Access review report signed by the system owner",
		"CM-2,Production changes require an approved ticket,Change ticket with approval recorded before deployment",
		"CP-9,Backups are verified monthly,Backup verification log for the period under audit",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// evidencePaths returns evidence files to submit. ACP_E2E_EVIDENCE overrides
// the generated samples with a comma-separated path list.
func evidencePaths(t *testing.T) []string {
	t.Helper()
	if raw := os.Getenv("ACP_E2E_EVIDENCE"); raw != "" {
		return strings.Split(raw, ",")
	}
	dir := t.TempDir()
	samples := map[string]string{
		"access_review_q3.txt": "Access review completed 2026-07-14. All 42 accounts reviewed, 3 revoked. Signed: J. Moreau, system owner.",
		"change_ticket.txt":    "Change ticket CHG-1042 approved 2026-06-02 by the change advisory board before the 2026-06-05 deployment.",
		"backup_log.txt":       "Backup verification for August: restore test of the finance database completed successfully on 2026-08-03.",
	}
	paths := make([]string, 0, len(samples))
	for name, content := range samples {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}
