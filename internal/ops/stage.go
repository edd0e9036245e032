// Package ops implements file-level operations around the audit workflow:
// staging uploads with validation and saving fetched workpaper artifacts.
package ops

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/auditstack/acp/internal/engine"
	"github.com/auditstack/acp/internal/workflow"
)

// scriptExtensions are the accepted test script formats. The engine's
// parser reads spreadsheets; anything else fails server-side with a less
// helpful message.
var scriptExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

// evidenceExtensions are the accepted evidence formats.
var evidenceExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".csv":  true,
	".xlsx": true,
	".jpeg": true,
	".jpg":  true,
}

// Spreadsheet types the platform mime table often lacks.
var extraContentTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".csv":  "text/csv",
}

// StageScript reads and validates a test script from disk.
func StageScript(path string, maxBytes int64) (*workflow.StagedFile, error) {
	return stageFile(path, maxBytes, scriptExtensions, "test script",
		"Supported test script formats: .xlsx, .xls, .csv")
}

// StageScriptContent validates inline test script content.
func StageScriptContent(filename string, content []byte, maxBytes int64) (*workflow.StagedFile, error) {
	return stageContent(filename, content, maxBytes, scriptExtensions, "test script",
		"Supported test script formats: .xlsx, .xls, .csv")
}

// StageEvidence reads and validates a batch of evidence files from disk.
// The batch is all-or-nothing: one bad file rejects the whole selection
// so the operator fixes it before anything reaches the engine.
func StageEvidence(paths []string, maxBytes int64) ([]workflow.StagedFile, error) {
	if len(paths) == 0 {
		return nil, engine.NewError(engine.ErrNoEvidence,
			"No evidence files were provided",
			"Pass at least one evidence file path")
	}
	files := make([]workflow.StagedFile, 0, len(paths))
	for _, path := range paths {
		f, err := stageFile(path, maxBytes, evidenceExtensions, "evidence file",
			"Supported evidence formats: .pdf, .txt, .csv, .xlsx, .jpeg, .jpg")
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, nil
}

func stageFile(path string, maxBytes int64, allowed map[string]bool, label, formats string) (*workflow.StagedFile, error) {
	filename := filepath.Base(path)
	if err := checkExtension(filename, allowed, label, formats); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, engine.NewError(engine.ErrFileNotFound,
			fmt.Sprintf("Cannot read %s '%s'", label, path),
			"Check the path and permissions")
	}
	if info.IsDir() {
		return nil, engine.NewError(engine.ErrFileNotFound,
			fmt.Sprintf("'%s' is a directory, not a %s", path, label),
			"Pass a file path")
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, sizeError(filename, info.Size(), maxBytes, label)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewError(engine.ErrFileNotFound,
			fmt.Sprintf("Cannot read %s '%s'", label, path),
			"Check the path and permissions")
	}
	return newStagedFile(filename, content), nil
}

func stageContent(filename string, content []byte, maxBytes int64, allowed map[string]bool, label, formats string) (*workflow.StagedFile, error) {
	filename = filepath.Base(filename)
	if err := checkExtension(filename, allowed, label, formats); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, engine.NewError(engine.ErrInvalidUsage,
			fmt.Sprintf("The %s '%s' is empty", label, filename),
			"Provide non-empty file content")
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return nil, sizeError(filename, int64(len(content)), maxBytes, label)
	}
	return newStagedFile(filename, content), nil
}

func checkExtension(filename string, allowed map[string]bool, label, formats string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if filename == "" || ext == "" || !allowed[ext] {
		return engine.NewError(engine.ErrBadFileType,
			fmt.Sprintf("'%s' is not a supported %s type", filename, label),
			formats)
	}
	return nil
}

func sizeError(filename string, size, maxBytes int64, label string) error {
	return engine.NewError(engine.ErrFileTooLarge,
		fmt.Sprintf("The %s '%s' is %.1f MB (max %.0f MB)",
			label, filename, float64(size)/(1<<20), float64(maxBytes)/(1<<20)),
		"Split or shrink the file before staging it")
}

func newStagedFile(filename string, content []byte) *workflow.StagedFile {
	return &workflow.StagedFile{
		Filename:    filename,
		ContentType: contentTypeFor(filename, content),
		Size:        len(content),
		Content:     content,
	}
}

// contentTypeFor resolves a content type from the extension, falling back
// to content sniffing for anything the mime table misses.
func contentTypeFor(filename string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := extraContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return http.DetectContentType(content)
}
