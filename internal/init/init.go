// Package init implements the acp init subcommand.
// It generates the engine configuration and the MCP client wiring for a
// project directory.
package init

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/auditstack/acp/internal/content"
)

// Run executes the init subcommand, generating configuration files in baseDir.
// Steps:
//  1. Write acp.yaml (engine endpoint, downloads dir, upload limits)
//  2. Write .mcp.json (project-scoped MCP server config)
//
// An existing acp.yaml is kept: re-running never discards engine settings.
// .mcp.json is reset to defaults on every run.
func Run(baseDir string) error {
	steps := []struct {
		name string
		fn   func(string) error
	}{
		{"Engine config", generateEngineConfig},
		{"MCP config", generateMCPConfig},
	}

	for _, step := range steps {
		fmt.Fprintf(os.Stderr, "  → %s\n", step.name)
		if err := step.fn(baseDir); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	fmt.Fprintln(os.Stderr, "  ✓ Init complete")
	return nil
}

func generateEngineConfig(baseDir string) error {
	path := filepath.Join(baseDir, "acp.yaml")
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintln(os.Stderr, "    acp.yaml exists, keeping it")
		return nil
	}
	tmpl, err := content.GetTemplate("acp.yaml")
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(tmpl), 0644) //nolint:gosec // G306: config files need to be readable
}

func generateMCPConfig(baseDir string) error {
	tmpl, err := content.GetTemplate("mcp-config.json")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(baseDir, ".mcp.json"), []byte(tmpl), 0644) //nolint:gosec // G306: config files need to be readable
}
