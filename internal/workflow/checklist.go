package workflow

import (
	"slices"

	"github.com/auditstack/acp/internal/engine"
)

// ItemStatus is the display row for one checklist control.
type ItemStatus struct {
	ControlID        string `json:"controlId"`
	Description      string `json:"description"`
	EvidenceRequired string `json:"evidenceRequired"`
	Satisfied        bool   `json:"satisfied"`
}

// Mismatch records a disagreement between the engine's pending-control
// list and the locally recomputed satisfied set. Values for Engine and
// Local are "pending" or "satisfied".
type Mismatch struct {
	ControlID string `json:"controlId"`
	Engine    string `json:"engine"`
	Local     string `json:"local"`
}

// ComputeSatisfied derives the set of satisfied checklist controls from
// the accumulated evidence records. A control is satisfied iff at least
// one accepted record claims it in SatisfiesControls. The result is
// always recomputed from the full history, never cached, so it survives
// any interleaving of accepted and rejected rounds.
func ComputeSatisfied(checklist []engine.ChecklistItem, records []engine.EvidenceRecord) map[string]bool {
	known := make(map[string]bool, len(checklist))
	for _, item := range checklist {
		known[item.ControlID] = true
	}
	satisfied := make(map[string]bool)
	for _, rec := range records {
		if !rec.Accepted() {
			continue
		}
		for _, id := range rec.SatisfiesControls {
			if known[id] {
				satisfied[id] = true
			}
		}
	}
	return satisfied
}

// ComputeDisplayStatus returns one status row per checklist item, in
// checklist order.
func ComputeDisplayStatus(checklist []engine.ChecklistItem, records []engine.EvidenceRecord) []ItemStatus {
	satisfied := ComputeSatisfied(checklist, records)
	rows := make([]ItemStatus, 0, len(checklist))
	for _, item := range checklist {
		rows = append(rows, ItemStatus{
			ControlID:        item.ControlID,
			Description:      item.ControlDescription,
			EvidenceRequired: item.EvidenceRequired,
			Satisfied:        satisfied[item.ControlID],
		})
	}
	return rows
}

// ValidateConsistency cross-checks the engine's pending-control list
// against the locally derived satisfied set. The engine remains
// authoritative for readiness; mismatches are diagnostics, never
// blocking. Returns nil when the two views agree.
func ValidateConsistency(checklist []engine.ChecklistItem, pending []engine.PendingControl, records []engine.EvidenceRecord) []Mismatch {
	satisfied := ComputeSatisfied(checklist, records)
	pendingIDs := make([]string, 0, len(pending))
	for _, p := range pending {
		pendingIDs = append(pendingIDs, p.ControlID)
	}

	var mismatches []Mismatch
	for _, item := range checklist {
		enginePending := slices.Contains(pendingIDs, item.ControlID)
		localSatisfied := satisfied[item.ControlID]
		switch {
		case enginePending && localSatisfied:
			mismatches = append(mismatches, Mismatch{
				ControlID: item.ControlID,
				Engine:    "pending",
				Local:     "satisfied",
			})
		case !enginePending && !localSatisfied:
			mismatches = append(mismatches, Mismatch{
				ControlID: item.ControlID,
				Engine:    "satisfied",
				Local:     "pending",
			})
		}
	}
	return mismatches
}
