package types_test

import (
	"testing"

	"github.com/haldane/mnemograph/pkg/types"
)

// TestNewRelationship verifies the constructor assigns an id and carries the
// endpoints, type, and properties through unchanged.
func TestNewRelationship(t *testing.T) {
	props := types.RelationshipProperties{Strength: 0.95, Confidence: 0.85, Context: "auth flow"}
	rel := types.NewRelationship("mem-a", "mem-b", types.RelSolves, props)

	if rel.ID == "" {
		t.Fatal("expected a generated ID")
	}
	if rel.FromID != "mem-a" || rel.ToID != "mem-b" {
		t.Errorf("expected endpoints mem-a -> mem-b, got %s -> %s", rel.FromID, rel.ToID)
	}
	if rel.Type != types.RelSolves {
		t.Errorf("expected type SOLVES, got %s", rel.Type)
	}
	if rel.Strength != 0.95 || rel.Confidence != 0.85 || rel.Context != "auth flow" {
		t.Errorf("properties not carried through: %+v", rel.RelationshipProperties)
	}
}

// TestRelationship_SamePair verifies pair matching ignores direction and
// rejects edges touching different nodes.
func TestRelationship_SamePair(t *testing.T) {
	base := &types.Relationship{FromID: "a", ToID: "b"}

	tests := []struct {
		name  string
		other *types.Relationship
		want  bool
	}{
		{"same_direction", &types.Relationship{FromID: "a", ToID: "b"}, true},
		{"reversed", &types.Relationship{FromID: "b", ToID: "a"}, true},
		{"shared_from", &types.Relationship{FromID: "a", ToID: "c"}, false},
		{"shared_to", &types.Relationship{FromID: "c", ToID: "b"}, false},
		{"disjoint", &types.Relationship{FromID: "c", ToID: "d"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.SamePair(tt.other); got != tt.want {
				t.Errorf("SamePair(%s->%s) = %v, want %v", tt.other.FromID, tt.other.ToID, got, tt.want)
			}
		})
	}
}

// TestOutcome_Value verifies the success/failure score mapping and the
// constructor defaults.
func TestOutcome_Value(t *testing.T) {
	success := types.NewOutcome("mem-1", "deploy went clean", true)
	if success.Value() != 1.0 {
		t.Errorf("expected success value 1.0, got %v", success.Value())
	}
	if success.Impact != 1.0 {
		t.Errorf("expected default impact 1.0, got %v", success.Impact)
	}
	if success.ID == "" || success.Timestamp.IsZero() {
		t.Error("expected generated id and timestamp")
	}

	failure := types.NewOutcome("mem-1", "deploy rolled back", false)
	if failure.Value() != 0.0 {
		t.Errorf("expected failure value 0.0, got %v", failure.Value())
	}
}

// TestVersionDiff_Empty verifies the zero diff reports empty and any set
// field flips it.
func TestVersionDiff_Empty(t *testing.T) {
	var diff types.VersionDiff
	if !diff.Empty() {
		t.Error("expected zero diff to be empty")
	}

	diff.Title = &types.FieldChange{From: "old", To: "new"}
	if diff.Empty() {
		t.Error("expected diff with a title change to be non-empty")
	}

	tagsOnly := types.VersionDiff{Tags: &types.TagDiff{Added: []string{"go"}}}
	if tagsOnly.Empty() {
		t.Error("expected diff with tag changes to be non-empty")
	}
}
