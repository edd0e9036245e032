package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/auditstack/acp/internal/engine"
)

// SaveWorkpaper writes a fetched workpaper into dir under its engine-given
// filename and returns the final path. The write goes through a temp file
// in the same directory so a crash never leaves a torn artifact.
func SaveWorkpaper(dir, filename string, data []byte) (string, error) {
	if err := checkArtifactName(filename); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", engine.NewError(engine.ErrMalformedResponse,
			"The engine returned an empty workpaper",
			"Generate the workpaper again")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create downloads dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".acp-workpaper-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up the temp file on any error.
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write workpaper: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close workpaper: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", fmt.Errorf("chmod workpaper: %w", err)
	}

	finalPath := filepath.Join(dir, filename)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("move workpaper into place: %w", err)
	}
	tmpPath = ""
	return finalPath, nil
}

// checkArtifactName rejects filenames that could escape the downloads
// directory. The engine controls this value, so it gets no benefit of the
// doubt.
func checkArtifactName(filename string) error {
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, "/\\") {
		return engine.NewError(engine.ErrMalformedResponse,
			fmt.Sprintf("The engine returned an unusable workpaper filename %q", filename),
			"Generate the workpaper again")
	}
	return nil
}
