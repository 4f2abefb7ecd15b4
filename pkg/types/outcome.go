package types

import (
	"time"

	"github.com/google/uuid"
)

// Outcome records a single success/failure event from applying a memory.
// Outcomes are append-only: they are never mutated or deleted, only
// aggregated into the owning memory's effectiveness and confidence.
type Outcome struct {
	ID          string    `json:"id"`        // Unique identifier (UUID)
	MemoryID    string    `json:"memory_id"` // The memory this outcome evaluates
	Success     bool      `json:"success"`   // Whether the application succeeded
	Description string    `json:"description"`
	Context     Context   `json:"context,omitempty"` // Structured context of the attempt
	Timestamp   time.Time `json:"timestamp"`         // When the outcome occurred
	Impact      float64   `json:"impact"`            // Weight of this single outcome (0.0-1.0)
}

// NewOutcome creates an outcome with a fresh UUID and UTC timestamp.
// Impact is clamped into [0, 1].
func NewOutcome(memoryID, description string, success bool) *Outcome {
	return &Outcome{
		ID:          uuid.NewString(),
		MemoryID:    memoryID,
		Success:     success,
		Description: description,
		Timestamp:   time.Now().UTC(),
		Impact:      1.0,
	}
}

// Value returns the outcome as a score contribution: 1.0 for success,
// 0.0 for failure.
func (o *Outcome) Value() float64 {
	if o.Success {
		return 1.0
	}
	return 0.0
}

// EffectivenessScore is the read-only aggregate exposed for a memory:
// historical outcome counts plus the currently stored effectiveness and
// confidence.
type EffectivenessScore struct {
	MemoryID           string     `json:"memory_id"`
	TotalOutcomes      int        `json:"total_outcomes"`
	SuccessfulOutcomes int        `json:"successful_outcomes"`
	FailedOutcomes     int        `json:"failed_outcomes"`
	Effectiveness      float64    `json:"effectiveness"`
	Confidence         float64    `json:"confidence"`
	LastOutcomeAt      *time.Time `json:"last_outcome_at,omitempty"`
}

// SuccessRate returns successful/total, or 0 when no outcomes are recorded.
func (s *EffectivenessScore) SuccessRate() float64 {
	if s.TotalOutcomes == 0 {
		return 0
	}
	return float64(s.SuccessfulOutcomes) / float64(s.TotalOutcomes)
}
