// Package search maintains an in-memory full-text index over the active
// audit session: checklist controls and processed evidence records. The
// index is rebuilt from a session snapshot whenever the session shape
// changes and answers operator queries like "which control wanted the
// backup log" without another engine round-trip.
package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/auditstack/acp/internal/engine"
	"github.com/auditstack/acp/internal/workflow"
)

// Kind values for indexed documents.
const (
	KindControl  = "control"
	KindEvidence = "evidence"
)

// Hit is a single search result.
type Hit struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	ControlID string  `json:"controlId,omitempty"`
	Filename  string  `json:"filename,omitempty"`
	Status    string  `json:"status,omitempty"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
}

// Index wraps a memory-only bleve index over one session snapshot.
type Index struct {
	mu  sync.RWMutex
	idx bleve.Index
	key string
}

// NewIndex returns an empty index. The first Rebuild populates it.
func NewIndex() *Index {
	return &Index{}
}

// Rebuild re-indexes the given session snapshot. Sessions are indexed by
// shape (session id, checklist length, record count); a snapshot with an
// unchanged shape is a no-op since checklist items are fixed for the
// session lifetime and records only ever grow. Reports whether the index
// was rebuilt.
func (x *Index) Rebuild(sess workflow.Session) (bool, error) {
	key := fmt.Sprintf("%s|%d|%d", sess.SessionID, len(sess.Checklist), len(sess.FilesProcessed))

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.idx != nil && x.key == key {
		return false, nil
	}

	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return false, fmt.Errorf("create index: %w", err)
	}

	batch := idx.NewBatch()
	satisfied := workflow.ComputeSatisfied(sess.Checklist, sess.FilesProcessed)
	for _, item := range sess.Checklist {
		status := "pending"
		if satisfied[item.ControlID] {
			status = "satisfied"
		}
		doc := map[string]any{
			"kind":      KindControl,
			"controlId": item.ControlID,
			"status":    status,
			"text":      item.ControlDescription + " " + item.EvidenceRequired,
		}
		if err := batch.Index("control/"+item.ControlID, doc); err != nil {
			return false, fmt.Errorf("index control %s: %w", item.ControlID, err)
		}
	}
	for i, rec := range sess.FilesProcessed {
		doc := map[string]any{
			"kind":     KindEvidence,
			"filename": rec.Filename,
			"status":   rec.ValidationStatus,
			"controls": strings.Join(rec.SatisfiesControls, " "),
			"text":     evidenceText(rec),
		}
		if err := batch.Index(fmt.Sprintf("evidence/%d", i), doc); err != nil {
			return false, fmt.Errorf("index evidence %s: %w", rec.Filename, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return false, fmt.Errorf("commit batch: %w", err)
	}

	if x.idx != nil {
		_ = x.idx.Close()
	}
	x.idx = idx
	x.key = key
	return true, nil
}

// Search runs a free-text query, optionally restricted to one document
// kind. A zero or negative limit defaults to 10. An empty query with a
// kind lists documents of that kind; empty query and kind return nothing.
func (x *Index) Search(q, kind string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.idx == nil {
		return nil, nil
	}

	var clauses []query.Query
	if strings.TrimSpace(q) != "" {
		clauses = append(clauses, bleve.NewMatchQuery(q))
	}
	if kind != "" {
		kq := bleve.NewMatchQuery(kind)
		kq.SetField("kind")
		clauses = append(clauses, kq)
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	var searchQuery query.Query
	if len(clauses) == 1 {
		searchQuery = clauses[0]
	} else {
		searchQuery = bleve.NewConjunctionQuery(clauses...)
	}

	req := bleve.NewSearchRequestOptions(searchQuery, limit, 0, false)
	req.Fields = []string{"*"}
	res, err := x.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{
			ID:        h.ID,
			Kind:      fieldString(h.Fields, "kind"),
			ControlID: fieldString(h.Fields, "controlId"),
			Filename:  fieldString(h.Fields, "filename"),
			Status:    fieldString(h.Fields, "status"),
			Text:      fieldString(h.Fields, "text"),
			Score:     h.Score,
		})
	}
	return hits, nil
}

// Close releases the underlying index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.idx == nil {
		return nil
	}
	err := x.idx.Close()
	x.idx = nil
	x.key = ""
	return err
}

func evidenceText(rec engine.EvidenceRecord) string {
	parts := []string{rec.Filename, rec.ValidationStatus}
	if rec.Reason != "" {
		parts = append(parts, rec.Reason)
	}
	if len(rec.SatisfiesControls) > 0 {
		parts = append(parts, "satisfies "+strings.Join(rec.SatisfiesControls, " "))
	}
	return strings.Join(parts, " ")
}

func fieldString(fields map[string]interface{}, key string) string {
	s, _ := fields[key].(string)
	return s
}
