package engine

import (
	"context"
	"fmt"
	"sync"
)

// Compile-time interface check.
var _ Client = (*Mock)(nil)

// Mock is a configurable mock for the engine Client interface.
type Mock struct {
	mu sync.RWMutex

	startResult     *StartAuditResult
	evidenceResults []*UploadEvidenceResult // consumed per round; last one repeats
	evidenceNext    int
	generateResult  *GenerateResult
	artifact        []byte

	// Error overrides: method name -> error
	errors map[string]error
	// Entry hooks: method name -> func, run after the call is counted.
	// A blocking hook holds the call in flight, which is how tests exercise
	// the coordinator's busy guard.
	hooks map[string]func()

	calls     map[string]int
	batches   [][]string // filenames per UploadEvidence call
	forces    []bool     // force flag per GenerateWorkpaper call
	downloads []string   // download URL per DownloadWorkpaper call
}

// NewMock creates a new configurable mock.
func NewMock() *Mock {
	return &Mock{
		errors: make(map[string]error),
		hooks:  make(map[string]func()),
		calls:  make(map[string]int),
	}
}

// WithStartResult sets the result returned by StartAudit.
func (m *Mock) WithStartResult(result *StartAuditResult) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startResult = result
	return m
}

// WithEvidenceResult appends a result for UploadEvidence. Each call consumes
// the next queued result; the last one repeats once the queue is exhausted.
func (m *Mock) WithEvidenceResult(result *UploadEvidenceResult) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evidenceResults = append(m.evidenceResults, result)
	return m
}

// WithGenerateResult sets the result returned by GenerateWorkpaper.
func (m *Mock) WithGenerateResult(result *GenerateResult) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateResult = result
	return m
}

// WithArtifact sets the bytes returned by DownloadWorkpaper.
func (m *Mock) WithArtifact(data []byte) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifact = data
	return m
}

// WithError sets an error for a specific method.
func (m *Mock) WithError(method string, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method] = err
	return m
}

// WithHook sets an entry hook for a specific method.
func (m *Mock) WithHook(method string, fn func()) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[method] = fn
	return m
}

// CallCount returns how many times the named method was invoked.
func (m *Mock) CallCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// EvidenceBatches returns the filenames submitted per UploadEvidence call.
func (m *Mock) EvidenceBatches() [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]string, len(m.batches))
	for i, b := range m.batches {
		out[i] = append([]string(nil), b...)
	}
	return out
}

// ForceFlags returns the force flag observed per GenerateWorkpaper call.
func (m *Mock) ForceFlags() []bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]bool(nil), m.forces...)
}

// DownloadURLs returns the URL observed per DownloadWorkpaper call.
func (m *Mock) DownloadURLs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.downloads...)
}

func (m *Mock) getError(method string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errors[method]
}

// runHook runs the method's hook without holding the mutex, so hooks may
// block for as long as a test needs the call to stay in flight.
func (m *Mock) runHook(method string) {
	m.mu.RLock()
	fn := m.hooks[method]
	m.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (m *Mock) StartAudit(_ context.Context, _ string, _ File) (*StartAuditResult, error) {
	m.mu.Lock()
	m.calls["StartAudit"]++
	m.mu.Unlock()

	m.runHook("StartAudit")
	if err := m.getError("StartAudit"); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.startResult == nil {
		return nil, fmt.Errorf("mock: no start result configured")
	}
	return m.startResult, nil
}

func (m *Mock) UploadEvidence(_ context.Context, _ string, files []File) (*UploadEvidenceResult, error) {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}
	m.mu.Lock()
	m.calls["UploadEvidence"]++
	m.batches = append(m.batches, names)
	m.mu.Unlock()

	m.runHook("UploadEvidence")
	if err := m.getError("UploadEvidence"); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.evidenceResults) == 0 {
		return nil, fmt.Errorf("mock: no evidence result configured")
	}
	result := m.evidenceResults[m.evidenceNext]
	if m.evidenceNext+1 < len(m.evidenceResults) {
		m.evidenceNext++
	}
	return result, nil
}

func (m *Mock) GenerateWorkpaper(_ context.Context, _ string, force bool) (*GenerateResult, error) {
	m.mu.Lock()
	m.calls["GenerateWorkpaper"]++
	m.forces = append(m.forces, force)
	m.mu.Unlock()

	m.runHook("GenerateWorkpaper")
	if err := m.getError("GenerateWorkpaper"); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.generateResult == nil {
		return nil, fmt.Errorf("mock: no generate result configured")
	}
	return m.generateResult, nil
}

func (m *Mock) DownloadWorkpaper(_ context.Context, downloadURL string) ([]byte, error) {
	m.mu.Lock()
	m.calls["DownloadWorkpaper"]++
	m.downloads = append(m.downloads, downloadURL)
	m.mu.Unlock()

	m.runHook("DownloadWorkpaper")
	if err := m.getError("DownloadWorkpaper"); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.artifact == nil {
		return nil, fmt.Errorf("mock: no artifact configured")
	}
	return m.artifact, nil
}
