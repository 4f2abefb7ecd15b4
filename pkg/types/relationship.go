package types

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipProperties holds the mutable weights and evidence counters of
// an edge. Strength and confidence stay within [0, 1]; reinforcement moves
// them and keeps the evidence counters consistent with SuccessRate.
type RelationshipProperties struct {
	Strength   float64 `json:"strength"`          // How strongly the edge's claim holds (0.0-1.0)
	Confidence float64 `json:"confidence"`        // Certainty in the edge's claim (0.0-1.0)
	Context    string  `json:"context,omitempty"` // Free-text note about where the edge applies

	// Evidence counters, all non-negative
	EvidenceCount        int `json:"evidence_count"`         // Corroborating observations
	ValidationCount      int `json:"validation_count"`       // Successful reinforcements
	CounterEvidenceCount int `json:"counter_evidence_count"` // Failed reinforcements

	// SuccessRate is validation/(validation+counter) once any reinforcement
	// has happened; nil before that.
	SuccessRate *float64 `json:"success_rate,omitempty"`

	CreatedAt time.Time `json:"created_at"` // Creation timestamp
	UpdatedAt time.Time `json:"updated_at"` // Last reinforcement timestamp
}

// Relationship is a typed, directed, weighted edge between two memories.
// FromID and ToID always differ; self-referencing edges are rejected during
// validation before anything reaches the graph. Edges are never deleted by
// the learning core: their weights and counters mutate via reinforcement,
// and opposing claims surface through contradiction detection instead.
type Relationship struct {
	// Core identification fields
	ID     string           `json:"id"`      // Unique identifier (UUID)
	FromID string           `json:"from_id"` // Source memory ID
	ToID   string           `json:"to_id"`   // Target memory ID
	Type   RelationshipType `json:"type"`    // One of the 35 registered types

	RelationshipProperties
}

// NewRelationship creates an edge with a fresh UUID carrying the given
// properties. Callers validate the endpoints and type first.
func NewRelationship(fromID, toID string, relType RelationshipType, props RelationshipProperties) *Relationship {
	return &Relationship{
		ID:                     uuid.NewString(),
		FromID:                 fromID,
		ToID:                   toID,
		Type:                   relType,
		RelationshipProperties: props,
	}
}

// SamePair reports whether two edges connect the same two memories, ignoring
// direction. Contradiction detection compares edges pairwise on this basis.
func (r *Relationship) SamePair(other *Relationship) bool {
	if r.FromID == other.FromID && r.ToID == other.ToID {
		return true
	}
	return r.FromID == other.ToID && r.ToID == other.FromID
}
