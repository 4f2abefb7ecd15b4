// Package engine implements the knowledge-graph learning core: relationship
// weighting and reinforcement, temporal version chains, and outcome-driven
// effectiveness learning. Engines hold no mutable state of their own beyond
// the immutable relationship-type registry; every operation is either a pure
// computation or a bounded set of calls against the graph backend.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/haldane/mnemograph/pkg/types"
)

// ErrSelfReference rejects an edge whose endpoints are the same memory.
var ErrSelfReference = errors.New("relationship references itself")

const (
	// evidenceScale controls how quickly corroborating evidence saturates
	// the strength boost. At 10 observations the boost reaches ~63% of its
	// maximum; at 30, ~95%.
	evidenceScale = 10.0

	// successRatePull is the fraction by which a known success rate pulls
	// calculated strength toward itself.
	successRatePull = 0.3

	// strengthHalfLifeDays halves an unrefreshed edge's strength every 90
	// days.
	strengthHalfLifeDays = 90.0

	// reinforceStrengthStep moves strength toward 1.0 on each success.
	reinforceStrengthStep = 0.1

	// reinforceConfidenceStep moves confidence toward 1.0 on each success.
	reinforceConfidenceStep = 0.05

	// weakenStep moves strength and confidence toward the floor on each
	// failure. Deliberately larger than the success steps: one failure
	// should register harder than one success, without erasing the edge.
	weakenStep = 0.15

	// reinforceFloor is the lowest reinforcement pushes strength or
	// confidence. Edges weaken toward the floor instead of dying outright,
	// so later successes can still recover them.
	reinforceFloor = 0.1
)

// defaultContradictionRules lists type pairs whose co-occurrence between the
// same two memories is semantically opposed. Extra pairs can be layered on
// via WithContradictionRules, typically from a rules file.
var defaultContradictionRules = []types.ContradictionRule{
	{First: types.RelSolves, Second: types.RelIneffectiveFor},
	{First: types.RelConfirms, Second: types.RelContradicts},
	{First: types.RelEffectiveFor, Second: types.RelIneffectiveFor},
	{First: types.RelPreferredOver, Second: types.RelDeprecatedBy},
}

// RelationshipManager operates over the relationship-type registry: it
// creates edge properties with per-type defaults, validates proposed edges,
// computes and reinforces strength and confidence, detects contradictory
// edge pairs, and suggests likely types between two memories. Every method
// is a pure computation; persisting the results belongs to the caller.
type RelationshipManager struct {
	registry *types.RelationshipRegistry
	rules    []types.ContradictionRule
}

// ManagerOption customizes a RelationshipManager.
type ManagerOption func(*RelationshipManager)

// WithContradictionRules appends extra contradiction pairs to the built-in
// table.
func WithContradictionRules(rules ...types.ContradictionRule) ManagerOption {
	return func(m *RelationshipManager) {
		m.rules = append(m.rules, rules...)
	}
}

// NewRelationshipManager creates a manager over the given registry.
func NewRelationshipManager(registry *types.RelationshipRegistry, opts ...ManagerOption) *RelationshipManager {
	m := &RelationshipManager{
		registry: registry,
		rules:    append([]types.ContradictionRule(nil), defaultContradictionRules...),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PropertyOption overrides a registry default when creating edge properties.
type PropertyOption func(*types.RelationshipProperties)

// WithStrength overrides the type's default strength.
func WithStrength(strength float64) PropertyOption {
	return func(p *types.RelationshipProperties) {
		p.Strength = strength
	}
}

// WithConfidence overrides the type's default confidence.
func WithConfidence(confidence float64) PropertyOption {
	return func(p *types.RelationshipProperties) {
		p.Confidence = confidence
	}
}

// WithEdgeContext attaches a free-text note about where the edge applies.
func WithEdgeContext(context string) PropertyOption {
	return func(p *types.RelationshipProperties) {
		p.Context = context
	}
}

// CreateProperties returns edge properties seeded from the type's registry
// defaults, with any explicit overrides applied on top. Types outside the
// registry seed neutral 0.5/0.5 defaults rather than failing, so this never
// blocks an edge the caller has already decided to create; Validate is where
// unknown types get rejected.
func (m *RelationshipManager) CreateProperties(relType types.RelationshipType, opts ...PropertyOption) types.RelationshipProperties {
	strength, confidence := 0.5, 0.5
	if meta, err := m.registry.Metadata(relType); err == nil {
		strength, confidence = meta.DefaultStrength, meta.DefaultConfidence
	}

	now := time.Now().UTC()
	props := types.RelationshipProperties{
		Strength:   strength,
		Confidence: confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(&props)
	}

	props.Strength = types.Clamp01(props.Strength)
	props.Confidence = types.Clamp01(props.Confidence)
	return props
}

// Validate checks a proposed edge before creation. Edges from a memory to
// itself fail with ErrSelfReference; types outside the registry fail with
// types.ErrUnknownRelationshipType. Whether the endpoints exist is the
// backend's concern and is not checked here.
func (m *RelationshipManager) Validate(fromID, toID string, relType types.RelationshipType) error {
	if fromID == toID {
		return fmt.Errorf("%w: %s", ErrSelfReference, fromID)
	}
	if !m.registry.Contains(relType) {
		return fmt.Errorf("%w: %s", types.ErrUnknownRelationshipType, relType)
	}
	return nil
}

// ShouldCreateInverse returns the mirror type a caller should insert
// alongside an edge of the given type, and whether one is wanted. Only
// bidirectional types have inverses; symmetric types return themselves.
func (m *RelationshipManager) ShouldCreateInverse(relType types.RelationshipType) (types.RelationshipType, bool) {
	meta, err := m.registry.Metadata(relType)
	if err != nil || !meta.Bidirectional {
		return "", false
	}
	return meta.InverseType, true
}

// CalculateStrength combines four signals into an edge strength:
//   - base: the starting strength
//   - evidenceCount: corroborating observations push strength toward 1.0
//     with diminishing returns
//   - successRate: when non-nil, pulls the result toward itself
//   - ageDays: exponential decay weakens unrefreshed edges over time
//
// The result is always in [0, 1]. More evidence never lowers the result and
// more age never raises it.
func (m *RelationshipManager) CalculateStrength(base float64, evidenceCount int, successRate *float64, ageDays float64) float64 {
	strength := types.Clamp01(base)

	if evidenceCount > 0 {
		saturation := 1 - math.Exp(-float64(evidenceCount)/evidenceScale)
		strength += (1 - strength) * saturation
	}

	if successRate != nil {
		strength += (types.Clamp01(*successRate) - strength) * successRatePull
	}

	if ageDays > 0 {
		strength *= math.Pow(2, -ageDays/strengthHalfLifeDays)
	}

	return types.Clamp01(strength)
}

// Reinforce applies one success or failure observation to edge properties
// and returns the updated copy. Success moves strength and confidence
// asymptotically toward 1.0 and counts as both evidence and validation;
// failure moves them toward the 0.1 floor and counts as counter-evidence.
// Either way SuccessRate is recomputed from the updated counters as
// validations/(validations+counterEvidence).
func (m *RelationshipManager) Reinforce(props types.RelationshipProperties, success bool) types.RelationshipProperties {
	if success {
		props.Strength += (1.0 - props.Strength) * reinforceStrengthStep
		props.Confidence += (1.0 - props.Confidence) * reinforceConfidenceStep
		props.EvidenceCount++
		props.ValidationCount++
	} else {
		props.Strength -= (props.Strength - reinforceFloor) * weakenStep
		props.Confidence -= (props.Confidence - reinforceFloor) * weakenStep
		props.CounterEvidenceCount++
	}

	props.Strength = types.Clamp01(props.Strength)
	props.Confidence = types.Clamp01(props.Confidence)

	if total := props.ValidationCount + props.CounterEvidenceCount; total > 0 {
		rate := float64(props.ValidationCount) / float64(total)
		props.SuccessRate = &rate
	}
	props.UpdatedAt = time.Now().UTC()
	return props
}

// ContradictionPair is one detected pair of opposing edges between the same
// two memories.
type ContradictionPair struct {
	First  *types.Relationship `json:"first"`
	Second *types.Relationship `json:"second"`
}

// FindContradictions scans edges pairwise and flags every pair that connects
// the same two memories (in either direction) with types the contradiction
// table marks as opposed. An edge can appear in multiple pairs. The input is
// not mutated.
func (m *RelationshipManager) FindContradictions(edges []*types.Relationship) []ContradictionPair {
	var pairs []ContradictionPair
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			if !edges[i].SamePair(edges[j]) {
				continue
			}
			if m.contradicts(edges[i].Type, edges[j].Type) {
				pairs = append(pairs, ContradictionPair{First: edges[i], Second: edges[j]})
			}
		}
	}
	return pairs
}

// contradicts reports whether two types are opposed per the rule table.
func (m *RelationshipManager) contradicts(a, b types.RelationshipType) bool {
	for _, rule := range m.rules {
		if rule.Matches(a, b) {
			return true
		}
	}
	return false
}

// SuggestRelationshipType proposes likely types for an edge from one memory
// to another, ordered by descending confidence. The heuristic keys on the
// two memory types: solutions pointing at problems (and fixes at errors)
// suggest SOLVES first with high confidence, task pairs suggest workflow
// ordering, and code-pattern pairs suggest similarity. RELATED_TO is always
// present as a last resort, so the list is never empty. Suggestions are
// advisory only; nothing is created.
func (m *RelationshipManager) SuggestRelationshipType(from, to *types.Memory) []types.TypeSuggestion {
	var suggestions []types.TypeSuggestion
	if from == nil || to == nil {
		return append(suggestions, fallbackSuggestion())
	}

	switch {
	case from.Type == types.MemoryTypeSolution && to.Type == types.MemoryTypeProblem,
		from.Type == types.MemoryTypeFix && to.Type == types.MemoryTypeError:
		suggestions = append(suggestions,
			types.TypeSuggestion{Type: types.RelSolves, Confidence: 0.85, Reason: "solutions typically solve the problems they point at"},
			types.TypeSuggestion{Type: types.RelAddresses, Confidence: 0.60, Reason: "a partial remedy addresses rather than solves"},
		)

	case from.Type == types.MemoryTypeTask && to.Type == types.MemoryTypeTask:
		suggestions = append(suggestions,
			types.TypeSuggestion{Type: types.RelFollows, Confidence: 0.60, Reason: "tasks commonly run in sequence"},
			types.TypeSuggestion{Type: types.RelDependsOn, Confidence: 0.55, Reason: "tasks often gate each other"},
			types.TypeSuggestion{Type: types.RelParallelTo, Confidence: 0.50, Reason: "independent tasks can proceed side by side"},
		)

	case from.Type == types.MemoryTypeCodePattern && to.Type == types.MemoryTypeCodePattern:
		suggestions = append(suggestions,
			types.TypeSuggestion{Type: types.RelSimilarTo, Confidence: 0.60, Reason: "patterns in the same area tend to resemble each other"},
			types.TypeSuggestion{Type: types.RelVariantOf, Confidence: 0.55, Reason: "one pattern is often a variation of another"},
			types.TypeSuggestion{Type: types.RelImproves, Confidence: 0.50, Reason: "a newer pattern may improve on an older one"},
		)

	case from.Type == types.MemoryTypeProblem && to.Type == types.MemoryTypeProblem:
		suggestions = append(suggestions,
			types.TypeSuggestion{Type: types.RelSimilarTo, Confidence: 0.55, Reason: "recurring problems often share a shape"},
		)

	case from.Type == types.MemoryTypeError && to.Type == types.MemoryTypeError:
		suggestions = append(suggestions,
			types.TypeSuggestion{Type: types.RelSimilarTo, Confidence: 0.55, Reason: "errors with the same surface often share a cause"},
		)

	case from.Type == types.MemoryTypeError && to.Type == types.MemoryTypeErrorPattern:
		suggestions = append(suggestions,
			types.TypeSuggestion{Type: types.RelVariantOf, Confidence: 0.60, Reason: "a concrete error is usually an instance of a recurring shape"},
		)
	}

	if !hasSuggestion(suggestions, types.RelRelatedTo) {
		suggestions = append(suggestions, fallbackSuggestion())
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions
}

func fallbackSuggestion() types.TypeSuggestion {
	return types.TypeSuggestion{
		Type:       types.RelRelatedTo,
		Confidence: 0.30,
		Reason:     "default association when no stronger signal applies",
	}
}

func hasSuggestion(list []types.TypeSuggestion, relType types.RelationshipType) bool {
	for _, s := range list {
		if s.Type == relType {
			return true
		}
	}
	return false
}
