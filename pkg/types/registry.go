package types

import (
	"errors"
	"fmt"
	"sort"
)

// RelationshipType identifies one of the 35 closed relationship types.
type RelationshipType string

// RelationshipCategory groups relationship types into 7 semantic families,
// each containing exactly 5 types.
type RelationshipCategory string

// Relationship categories
const (
	CategoryCausal     RelationshipCategory = "CAUSAL"     // Cause-and-effect links
	CategorySolution   RelationshipCategory = "SOLUTION"   // Problem-solving links
	CategoryContext    RelationshipCategory = "CONTEXT"    // Situational applicability links
	CategoryLearning   RelationshipCategory = "LEARNING"   // Knowledge-refinement links
	CategorySimilarity RelationshipCategory = "SIMILARITY" // Resemblance links
	CategoryWorkflow   RelationshipCategory = "WORKFLOW"   // Sequencing and dependency links
	CategoryQuality    RelationshipCategory = "QUALITY"    // Empirical quality judgements
)

// Causal relationship types
const (
	RelCauses   RelationshipType = "CAUSES"   // Source directly causes the target
	RelTriggers RelationshipType = "TRIGGERS" // Source sets off the target
	RelLeadsTo  RelationshipType = "LEADS_TO" // Source eventually results in the target
	RelPrevents RelationshipType = "PREVENTS" // Source stops the target from occurring
	RelBreaks   RelationshipType = "BREAKS"   // Source renders the target broken
)

// Solution relationship types
const (
	RelSolves        RelationshipType = "SOLVES"         // Source fully resolves the target problem
	RelAddresses     RelationshipType = "ADDRESSES"      // Source partially handles the target problem
	RelAlternativeTo RelationshipType = "ALTERNATIVE_TO" // Source is an interchangeable approach
	RelImproves      RelationshipType = "IMPROVES"       // Source makes the target measurably better
	RelReplaces      RelationshipType = "REPLACES"       // Source supersedes the target approach
)

// Context relationship types
const (
	RelOccursIn  RelationshipType = "OCCURS_IN"  // Source happens within the target context
	RelAppliesTo RelationshipType = "APPLIES_TO" // Source is applicable to the target
	RelWorksWith RelationshipType = "WORKS_WITH" // Source and target operate together
	RelRequires  RelationshipType = "REQUIRES"   // Source needs the target to function
	RelUsedIn    RelationshipType = "USED_IN"    // Source is used within the target
)

// Learning relationship types
const (
	RelBuildsOn    RelationshipType = "BUILDS_ON"   // Source extends the insight of the target
	RelContradicts RelationshipType = "CONTRADICTS" // Source asserts the opposite of the target
	RelConfirms    RelationshipType = "CONFIRMS"    // Source supports the claim of the target
	RelGeneralizes RelationshipType = "GENERALIZES" // Source abstracts the target to a broader rule
	RelSpecializes RelationshipType = "SPECIALIZES" // Source narrows the target to a specific case
)

// Similarity relationship types
const (
	RelSimilarTo  RelationshipType = "SIMILAR_TO"  // Source and target resemble each other
	RelVariantOf  RelationshipType = "VARIANT_OF"  // Source is a variation of the target
	RelRelatedTo  RelationshipType = "RELATED_TO"  // Source and target are loosely connected
	RelAnalogyTo  RelationshipType = "ANALOGY_TO"  // Source maps onto the target by analogy
	RelOppositeOf RelationshipType = "OPPOSITE_OF" // Source is the conceptual opposite of the target
)

// Workflow relationship types
const (
	RelFollows    RelationshipType = "FOLLOWS"     // Source comes after the target in sequence
	RelDependsOn  RelationshipType = "DEPENDS_ON"  // Source cannot proceed without the target
	RelEnables    RelationshipType = "ENABLES"     // Source makes the target possible
	RelBlocks     RelationshipType = "BLOCKS"      // Source prevents progress on the target
	RelParallelTo RelationshipType = "PARALLEL_TO" // Source and target proceed independently
)

// Quality relationship types
const (
	RelEffectiveFor   RelationshipType = "EFFECTIVE_FOR"   // Source works well for the target
	RelIneffectiveFor RelationshipType = "INEFFECTIVE_FOR" // Source does not work for the target
	RelPreferredOver  RelationshipType = "PREFERRED_OVER"  // Source is the better choice over the target
	RelDeprecatedBy   RelationshipType = "DEPRECATED_BY"   // Source is obsoleted by the target
	RelValidatedBy    RelationshipType = "VALIDATED_BY"    // Source is confirmed correct by the target
)

// Registry lookup errors.
var (
	ErrUnknownRelationshipType = errors.New("unknown relationship type")
	ErrUnknownCategory         = errors.New("unknown relationship category")
)

// RelationshipTypeMetadata describes one relationship type: its category,
// default edge weights, directionality semantics, and a human description.
// InverseType is non-empty if and only if Bidirectional is true; symmetric
// types (SIMILAR_TO and friends) are their own inverse.
type RelationshipTypeMetadata struct {
	Type              RelationshipType     `json:"type"`
	Category          RelationshipCategory `json:"category"`
	DefaultStrength   float64              `json:"default_strength"`
	DefaultConfidence float64              `json:"default_confidence"`
	Bidirectional     bool                 `json:"bidirectional"`
	InverseType       RelationshipType     `json:"inverse_type,omitempty"`
	Description       string               `json:"description"`
}

// RelationshipRegistry is the immutable lookup table over all 35 relationship
// types. Construct it once with NewRelationshipRegistry and share it freely:
// the registry is never mutated after construction, so unsynchronized
// concurrent reads are safe.
type RelationshipRegistry struct {
	metadata   map[RelationshipType]RelationshipTypeMetadata
	byCategory map[RelationshipCategory][]RelationshipType
}

// NewRelationshipRegistry builds the registry and verifies its structural
// invariants: 35 types total, exactly 5 per category, defaults within [0, 1],
// and a symmetric inverse relation for every bidirectional type. Invariant
// violations panic, since they can only come from an edit to the table below.
func NewRelationshipRegistry() *RelationshipRegistry {
	entries := []RelationshipTypeMetadata{
		// CAUSAL
		{Type: RelCauses, Category: CategoryCausal, DefaultStrength: 0.90, DefaultConfidence: 0.80, Description: "Source directly causes the target to occur"},
		{Type: RelTriggers, Category: CategoryCausal, DefaultStrength: 0.85, DefaultConfidence: 0.75, Description: "Source sets off the target without fully causing it"},
		{Type: RelLeadsTo, Category: CategoryCausal, DefaultStrength: 0.70, DefaultConfidence: 0.70, Description: "Source eventually results in the target"},
		{Type: RelPrevents, Category: CategoryCausal, DefaultStrength: 0.85, DefaultConfidence: 0.75, Description: "Source stops the target from occurring"},
		{Type: RelBreaks, Category: CategoryCausal, DefaultStrength: 0.90, DefaultConfidence: 0.80, Description: "Source renders the target broken or unusable"},

		// SOLUTION
		{Type: RelSolves, Category: CategorySolution, DefaultStrength: 0.95, DefaultConfidence: 0.85, Description: "Source fully resolves the target problem"},
		{Type: RelAddresses, Category: CategorySolution, DefaultStrength: 0.70, DefaultConfidence: 0.70, Description: "Source partially handles the target problem"},
		{Type: RelAlternativeTo, Category: CategorySolution, DefaultStrength: 0.60, DefaultConfidence: 0.65, Bidirectional: true, InverseType: RelAlternativeTo, Description: "Source is an interchangeable approach to the target"},
		{Type: RelImproves, Category: CategorySolution, DefaultStrength: 0.75, DefaultConfidence: 0.70, Description: "Source makes the target measurably better"},
		{Type: RelReplaces, Category: CategorySolution, DefaultStrength: 0.80, DefaultConfidence: 0.75, Description: "Source supersedes the target approach"},

		// CONTEXT
		{Type: RelOccursIn, Category: CategoryContext, DefaultStrength: 0.80, DefaultConfidence: 0.75, Description: "Source happens within the target context"},
		{Type: RelAppliesTo, Category: CategoryContext, DefaultStrength: 0.75, DefaultConfidence: 0.70, Description: "Source is applicable to the target"},
		{Type: RelWorksWith, Category: CategoryContext, DefaultStrength: 0.70, DefaultConfidence: 0.70, Bidirectional: true, InverseType: RelWorksWith, Description: "Source and target operate together"},
		{Type: RelRequires, Category: CategoryContext, DefaultStrength: 0.85, DefaultConfidence: 0.80, Description: "Source needs the target to function"},
		{Type: RelUsedIn, Category: CategoryContext, DefaultStrength: 0.75, DefaultConfidence: 0.70, Description: "Source is used within the target"},

		// LEARNING
		{Type: RelBuildsOn, Category: CategoryLearning, DefaultStrength: 0.80, DefaultConfidence: 0.75, Description: "Source extends the insight of the target"},
		{Type: RelContradicts, Category: CategoryLearning, DefaultStrength: 0.85, DefaultConfidence: 0.75, Description: "Source asserts the opposite of the target"},
		{Type: RelConfirms, Category: CategoryLearning, DefaultStrength: 0.85, DefaultConfidence: 0.80, Description: "Source supports the claim of the target"},
		{Type: RelGeneralizes, Category: CategoryLearning, DefaultStrength: 0.75, DefaultConfidence: 0.70, Bidirectional: true, InverseType: RelSpecializes, Description: "Source abstracts the target to a broader rule"},
		{Type: RelSpecializes, Category: CategoryLearning, DefaultStrength: 0.75, DefaultConfidence: 0.70, Bidirectional: true, InverseType: RelGeneralizes, Description: "Source narrows the target to a specific case"},

		// SIMILARITY
		{Type: RelSimilarTo, Category: CategorySimilarity, DefaultStrength: 0.70, DefaultConfidence: 0.65, Bidirectional: true, InverseType: RelSimilarTo, Description: "Source and target resemble each other"},
		{Type: RelVariantOf, Category: CategorySimilarity, DefaultStrength: 0.75, DefaultConfidence: 0.70, Description: "Source is a variation of the target"},
		{Type: RelRelatedTo, Category: CategorySimilarity, DefaultStrength: 0.50, DefaultConfidence: 0.50, Bidirectional: true, InverseType: RelRelatedTo, Description: "Source and target are loosely connected"},
		{Type: RelAnalogyTo, Category: CategorySimilarity, DefaultStrength: 0.60, DefaultConfidence: 0.60, Bidirectional: true, InverseType: RelAnalogyTo, Description: "Source maps onto the target by analogy"},
		{Type: RelOppositeOf, Category: CategorySimilarity, DefaultStrength: 0.70, DefaultConfidence: 0.65, Bidirectional: true, InverseType: RelOppositeOf, Description: "Source is the conceptual opposite of the target"},

		// WORKFLOW
		{Type: RelFollows, Category: CategoryWorkflow, DefaultStrength: 0.80, DefaultConfidence: 0.75, Description: "Source comes after the target in sequence"},
		{Type: RelDependsOn, Category: CategoryWorkflow, DefaultStrength: 0.85, DefaultConfidence: 0.80, Description: "Source cannot proceed without the target"},
		{Type: RelEnables, Category: CategoryWorkflow, DefaultStrength: 0.80, DefaultConfidence: 0.75, Description: "Source makes the target possible"},
		{Type: RelBlocks, Category: CategoryWorkflow, DefaultStrength: 0.85, DefaultConfidence: 0.80, Description: "Source prevents progress on the target"},
		{Type: RelParallelTo, Category: CategoryWorkflow, DefaultStrength: 0.60, DefaultConfidence: 0.60, Bidirectional: true, InverseType: RelParallelTo, Description: "Source and target can proceed independently"},

		// QUALITY
		{Type: RelEffectiveFor, Category: CategoryQuality, DefaultStrength: 0.85, DefaultConfidence: 0.80, Description: "Source works well for the target"},
		{Type: RelIneffectiveFor, Category: CategoryQuality, DefaultStrength: 0.85, DefaultConfidence: 0.80, Description: "Source does not work for the target"},
		{Type: RelPreferredOver, Category: CategoryQuality, DefaultStrength: 0.80, DefaultConfidence: 0.75, Description: "Source is the better choice over the target"},
		{Type: RelDeprecatedBy, Category: CategoryQuality, DefaultStrength: 0.80, DefaultConfidence: 0.75, Description: "Source is obsoleted by the target"},
		{Type: RelValidatedBy, Category: CategoryQuality, DefaultStrength: 0.85, DefaultConfidence: 0.80, Description: "Source is confirmed correct by the target"},
	}

	reg := &RelationshipRegistry{
		metadata:   make(map[RelationshipType]RelationshipTypeMetadata, len(entries)),
		byCategory: make(map[RelationshipCategory][]RelationshipType),
	}
	for _, entry := range entries {
		if _, dup := reg.metadata[entry.Type]; dup {
			panic(fmt.Sprintf("types: duplicate relationship type %s", entry.Type))
		}
		reg.metadata[entry.Type] = entry
		reg.byCategory[entry.Category] = append(reg.byCategory[entry.Category], entry.Type)
	}
	if err := reg.validate(); err != nil {
		panic(fmt.Sprintf("types: relationship registry invalid: %v", err))
	}
	return reg
}

// validate enforces the registry's structural invariants.
func (r *RelationshipRegistry) validate() error {
	if len(r.metadata) != 35 {
		return fmt.Errorf("expected 35 relationship types, have %d", len(r.metadata))
	}
	if len(r.byCategory) != 7 {
		return fmt.Errorf("expected 7 categories, have %d", len(r.byCategory))
	}
	for category, members := range r.byCategory {
		if len(members) != 5 {
			return fmt.Errorf("category %s has %d types, want 5", category, len(members))
		}
	}
	for relType, meta := range r.metadata {
		if meta.DefaultStrength < 0 || meta.DefaultStrength > 1 {
			return fmt.Errorf("%s default strength %v out of [0,1]", relType, meta.DefaultStrength)
		}
		if meta.DefaultConfidence < 0 || meta.DefaultConfidence > 1 {
			return fmt.Errorf("%s default confidence %v out of [0,1]", relType, meta.DefaultConfidence)
		}
		if meta.Bidirectional != (meta.InverseType != "") {
			return fmt.Errorf("%s: inverse type must be set exactly when bidirectional", relType)
		}
		if meta.Bidirectional {
			inverse, ok := r.metadata[meta.InverseType]
			if !ok {
				return fmt.Errorf("%s: inverse %s is not a registered type", relType, meta.InverseType)
			}
			if !inverse.Bidirectional || inverse.InverseType != relType {
				return fmt.Errorf("%s: inverse relation with %s is not symmetric", relType, meta.InverseType)
			}
		}
	}
	return nil
}

// Metadata returns the metadata for the given relationship type, or
// ErrUnknownRelationshipType if the type is outside the closed set.
func (r *RelationshipRegistry) Metadata(relType RelationshipType) (RelationshipTypeMetadata, error) {
	meta, ok := r.metadata[relType]
	if !ok {
		return RelationshipTypeMetadata{}, fmt.Errorf("%w: %s", ErrUnknownRelationshipType, relType)
	}
	return meta, nil
}

// Category returns the category the given type belongs to.
func (r *RelationshipRegistry) Category(relType RelationshipType) (RelationshipCategory, error) {
	meta, err := r.Metadata(relType)
	if err != nil {
		return "", err
	}
	return meta.Category, nil
}

// TypesByCategory returns the 5 types in the given category, sorted for
// stable iteration. The returned slice is a copy.
func (r *RelationshipRegistry) TypesByCategory(category RelationshipCategory) ([]RelationshipType, error) {
	members, ok := r.byCategory[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	out := make([]RelationshipType, len(members))
	copy(out, members)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Types returns all 35 registered types, sorted for stable iteration.
func (r *RelationshipRegistry) Types() []RelationshipType {
	out := make([]RelationshipType, 0, len(r.metadata))
	for relType := range r.metadata {
		out = append(out, relType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether the given type is one of the 35 registered types.
func (r *RelationshipRegistry) Contains(relType RelationshipType) bool {
	_, ok := r.metadata[relType]
	return ok
}
