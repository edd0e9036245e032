// Tests for: checklist tracker, satisfied-set derivation, display rows, and
// engine/local consistency diagnostics.
package workflow

import (
	"testing"

	"github.com/auditstack/acp/internal/engine"
)

func trackerChecklist() []engine.ChecklistItem {
	return []engine.ChecklistItem{
		{ControlID: "C1", ControlDescription: "Quarterly access reviews", EvidenceRequired: "Access review report"},
		{ControlID: "C2", ControlDescription: "Change approval before deploy", EvidenceRequired: "Approved change ticket"},
		{ControlID: "C3", ControlDescription: "Monthly backup verification", EvidenceRequired: "Backup verification log"},
	}
}

func accepted(filename string, controls ...string) engine.EvidenceRecord {
	return engine.EvidenceRecord{
		Filename:          filename,
		ValidationStatus:  engine.ValidationAccepted,
		SatisfiesControls: controls,
	}
}

func rejected(filename, reason string) engine.EvidenceRecord {
	return engine.EvidenceRecord{
		Filename:         filename,
		ValidationStatus: engine.ValidationRejected,
		Reason:           reason,
	}
}

func TestComputeSatisfied(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records []engine.EvidenceRecord
		want    []string
	}{
		{
			name:    "no records",
			records: nil,
			want:    nil,
		},
		{
			name: "accepted record satisfies its controls",
			records: []engine.EvidenceRecord{
				accepted("access.pdf", "C1"),
			},
			want: []string{"C1"},
		},
		{
			name: "one record can satisfy several controls",
			records: []engine.EvidenceRecord{
				accepted("combined.xlsx", "C1", "C3"),
			},
			want: []string{"C1", "C3"},
		},
		{
			name: "rejected records satisfy nothing",
			records: []engine.EvidenceRecord{
				rejected("blurry_scan.pdf", "illegible"),
			},
			want: nil,
		},
		{
			name: "rejection after acceptance does not unsatisfy",
			records: []engine.EvidenceRecord{
				accepted("access.pdf", "C1"),
				rejected("access_v2.pdf", "superseded"),
			},
			want: []string{"C1"},
		},
		{
			name: "unknown control ids are ignored",
			records: []engine.EvidenceRecord{
				accepted("mystery.pdf", "C9"),
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ComputeSatisfied(trackerChecklist(), tt.records)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d satisfied controls, got %d (%v)", len(tt.want), len(got), got)
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("expected %s satisfied", id)
				}
			}
		})
	}
}

func TestComputeDisplayStatus_ChecklistOrder(t *testing.T) {
	t.Parallel()

	records := []engine.EvidenceRecord{
		accepted("backup_log.xlsx", "C3"),
		accepted("access.pdf", "C1"),
	}

	rows := ComputeDisplayStatus(trackerChecklist(), records)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	wantOrder := []string{"C1", "C2", "C3"}
	wantSatisfied := []bool{true, false, true}
	for i, row := range rows {
		if row.ControlID != wantOrder[i] {
			t.Errorf("row %d: expected %s, got %s", i, wantOrder[i], row.ControlID)
		}
		if row.Satisfied != wantSatisfied[i] {
			t.Errorf("row %s: expected satisfied=%t", row.ControlID, wantSatisfied[i])
		}
	}
	if rows[0].EvidenceRequired != "Access review report" {
		t.Errorf("row C1 requirement wrong: %q", rows[0].EvidenceRequired)
	}
}

func TestValidateConsistency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pending []engine.PendingControl
		records []engine.EvidenceRecord
		want    []Mismatch
	}{
		{
			name: "views agree",
			pending: []engine.PendingControl{
				{ControlID: "C3", Requirement: "Backup verification log"},
			},
			records: []engine.EvidenceRecord{
				accepted("access.pdf", "C1"),
				accepted("ticket.pdf", "C2"),
			},
			want: nil,
		},
		{
			name: "engine pending but locally satisfied",
			pending: []engine.PendingControl{
				{ControlID: "C1", Requirement: "Access review report"},
				{ControlID: "C3", Requirement: "Backup verification log"},
			},
			records: []engine.EvidenceRecord{
				accepted("access.pdf", "C1"),
				accepted("ticket.pdf", "C2"),
			},
			want: []Mismatch{
				{ControlID: "C1", Engine: "pending", Local: "satisfied"},
			},
		},
		{
			name:    "engine satisfied but no local evidence",
			pending: nil,
			records: []engine.EvidenceRecord{
				accepted("access.pdf", "C1"),
			},
			want: []Mismatch{
				{ControlID: "C2", Engine: "satisfied", Local: "pending"},
				{ControlID: "C3", Engine: "satisfied", Local: "pending"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ValidateConsistency(trackerChecklist(), tt.pending, tt.records)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d mismatches, got %d (%v)", len(tt.want), len(got), got)
			}
			for i, m := range tt.want {
				if got[i] != m {
					t.Errorf("mismatch %d: expected %+v, got %+v", i, m, got[i])
				}
			}
		})
	}
}
