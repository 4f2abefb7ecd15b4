package graph

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates that the requested node or edge was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoEffect indicates that a guarded write matched zero rows.
	// SupersedeMemory returns it when the old version is missing or no
	// longer current.
	ErrNoEffect = errors.New("write had no effect")
)

// Structural edge kinds: graph plumbing maintained by the core, distinct
// from the 35-type semantic taxonomy in pkg/types.
const (
	// EdgePrevious links a new memory version to the version it superseded.
	EdgePrevious = "PREVIOUS"

	// EdgeResultedIn links a memory to an outcome recorded against it.
	EdgeResultedIn = "RESULTED_IN"

	// EdgeMentions links a memory to a named entity it mentions.
	EdgeMentions = "MENTIONS"

	// EdgeDerivedFrom links a memory to the pattern it was derived from.
	EdgeDerivedFrom = "DERIVED_FROM"

	// EdgeUses links a memory to a pattern it uses.
	EdgeUses = "USES"

	// EdgeApplies links a memory to a pattern it applies.
	EdgeApplies = "APPLIES"
)

// PatternEdgeKinds are the edge kinds connecting a memory to the pattern
// memories that should receive damped effectiveness propagation.
var PatternEdgeKinds = []string{EdgeDerivedFrom, EdgeUses, EdgeApplies}

// ScoreUpdate carries learning-derived fields written back to a memory node.
type ScoreUpdate struct {
	// Effectiveness is the recomputed effectiveness, already clamped [0,1].
	Effectiveness float64

	// Confidence is the recomputed confidence, already clamped [0,1].
	Confidence float64

	// RecordUsage, when true, also increments usage_count and stamps
	// last_used_at with the current time.
	RecordUsage bool
}

// OutcomeStats are aggregate outcome counts for one memory.
type OutcomeStats struct {
	Total      int
	Successful int
	Failed     int

	// LastOutcomeAt is the timestamp of the most recent outcome, nil when
	// Total is zero.
	LastOutcomeAt *time.Time
}

// SuccessRate returns successful/total, or 0 when no outcomes exist.
func (s OutcomeStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total)
}

// EntityMention is one stored link between an entity name and a memory.
type EntityMention struct {
	Entity      string
	MemoryID    string
	MemoryTitle string
	Timestamp   time.Time
}
