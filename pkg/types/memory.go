package types

import (
	"time"

	"github.com/google/uuid"
)

// Memory represents a single unit of knowledge stored as a node in the graph.
// Memories carry quality signals (importance, confidence, effectiveness)
// maintained by the learning engines, and version-chain fields maintained
// whenever a memory is superseded by an edited copy.
type Memory struct {
	// Core identification fields
	ID        string     `json:"id"`         // Unique identifier (UUID)
	Type      MemoryType `json:"type"`       // Memory type (task, problem, solution, ...)
	Title     string     `json:"title"`      // Short human-readable title
	Content   string     `json:"content"`    // Raw memory content
	Summary   string     `json:"summary,omitempty"` // Optional condensed form of the content
	CreatedAt time.Time  `json:"created_at"` // When this version was created
	UpdatedAt time.Time  `json:"updated_at"` // Last update timestamp

	// Classification and organization
	Tags    []string `json:"tags,omitempty"`    // User-defined tags (set semantics, order irrelevant)
	Context Context  `json:"context,omitempty"` // Structured context (project path, files, languages, ...)

	// Quality signals, all clamped to [0, 1]
	Importance    float64 `json:"importance"`    // How much this memory matters
	Confidence    float64 `json:"confidence"`    // Certainty in the memory's claim
	Effectiveness float64 `json:"effectiveness"` // Historical success when applied, derived from outcomes

	// Usage tracking
	UsageCount int        `json:"usage_count"`            // Number of recorded uses (outcome events)
	LastUsedAt *time.Time `json:"last_used_at,omitempty"` // Timestamp of the most recent use

	// Embedding, persisted for the external retrieval layer (never read here)
	Embedding []float32 `json:"embedding,omitempty"`

	// Version chain fields
	IsCurrent    bool   `json:"is_current"`              // True for exactly one version per chain
	PreviousID   string `json:"previous_id,omitempty"`   // ID of the version this one superseded
	SupersededBy string `json:"superseded_by,omitempty"` // ID of the version that superseded this one
}

// NewMemory creates a memory with a fresh UUID, UTC timestamps, and quality
// signals clamped into range. New memories start as the current (and only)
// version of their chain.
func NewMemory(memType MemoryType, title, content string) *Memory {
	now := time.Now().UTC()
	return &Memory{
		ID:         uuid.NewString(),
		Type:       memType,
		Title:      title,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
		Importance: 0.5,
		Confidence: 0.5,
		IsCurrent:  true,
	}
}

// ClampScores forces importance, confidence, and effectiveness into [0, 1].
// Storage adapters call this before persisting so malformed values never
// reach the graph.
func (m *Memory) ClampScores() {
	m.Importance = Clamp01(m.Importance)
	m.Confidence = Clamp01(m.Confidence)
	m.Effectiveness = Clamp01(m.Effectiveness)
	if m.UsageCount < 0 {
		m.UsageCount = 0
	}
}

// HasTag reports whether the memory carries the given tag.
func (m *Memory) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
