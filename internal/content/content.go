package content

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed guides/*.md
var guideFS embed.FS

//go:embed templates/*
var templateFS embed.FS

//go:embed guides/audit.md
var auditGuide string

// AuditGuide returns the end-to-end audit workflow guide.
func AuditGuide() string {
	return auditGuide
}

// GetGuide returns the content of a named guide.
// The name should not include the .md extension or path prefix.
func GetGuide(name string) (string, error) {
	data, err := guideFS.ReadFile("guides/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("guide %q not found: available guides: %s",
			name, strings.Join(ListGuides(), ", "))
	}
	return string(data), nil
}

// GetTemplate returns the content of a named template file.
// The name should include the file extension (e.g., "acp.yaml", "mcp-config.json").
func GetTemplate(name string) (string, error) {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("template %q not found", name)
	}
	return string(data), nil
}

// ListGuides returns sorted names of all available guides (without extension).
func ListGuides() []string {
	entries, err := fs.ReadDir(guideFS, "guides")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".md" {
			names = append(names, strings.TrimSuffix(name, ext))
		}
	}
	sort.Strings(names)
	return names
}
