package types_test

import (
	"errors"
	"testing"

	"github.com/haldane/mnemograph/pkg/types"
)

// expectedCategoryMembers pins the exact taxonomy layout: 7 categories with
// exactly 5 types each.
var expectedCategoryMembers = map[types.RelationshipCategory][]types.RelationshipType{
	types.CategoryCausal:     {types.RelCauses, types.RelTriggers, types.RelLeadsTo, types.RelPrevents, types.RelBreaks},
	types.CategorySolution:   {types.RelSolves, types.RelAddresses, types.RelAlternativeTo, types.RelImproves, types.RelReplaces},
	types.CategoryContext:    {types.RelOccursIn, types.RelAppliesTo, types.RelWorksWith, types.RelRequires, types.RelUsedIn},
	types.CategoryLearning:   {types.RelBuildsOn, types.RelContradicts, types.RelConfirms, types.RelGeneralizes, types.RelSpecializes},
	types.CategorySimilarity: {types.RelSimilarTo, types.RelVariantOf, types.RelRelatedTo, types.RelAnalogyTo, types.RelOppositeOf},
	types.CategoryWorkflow:   {types.RelFollows, types.RelDependsOn, types.RelEnables, types.RelBlocks, types.RelParallelTo},
	types.CategoryQuality:    {types.RelEffectiveFor, types.RelIneffectiveFor, types.RelPreferredOver, types.RelDeprecatedBy, types.RelValidatedBy},
}

// TestRelationshipRegistry_CategoryLayout verifies 35 types total and exactly
// 5 per category, with each type in the category the taxonomy assigns it.
func TestRelationshipRegistry_CategoryLayout(t *testing.T) {
	reg := types.NewRelationshipRegistry()

	if got := len(reg.Types()); got != 35 {
		t.Fatalf("expected 35 relationship types, got %d", got)
	}

	total := 0
	for category, expected := range expectedCategoryMembers {
		members, err := reg.TypesByCategory(category)
		if err != nil {
			t.Fatalf("TypesByCategory(%s): %v", category, err)
		}
		if len(members) != 5 {
			t.Errorf("category %s has %d types, want 5", category, len(members))
		}
		total += len(members)

		for _, relType := range expected {
			cat, err := reg.Category(relType)
			if err != nil {
				t.Errorf("Category(%s): %v", relType, err)
				continue
			}
			if cat != category {
				t.Errorf("expected %s in category %s, got %s", relType, category, cat)
			}
		}
	}
	if total != 35 {
		t.Errorf("expected categories to cover 35 types, got %d", total)
	}
}

// TestRelationshipRegistry_MetadataDefaults verifies every type resolves and
// carries defaults within [0, 1] plus a non-empty description.
func TestRelationshipRegistry_MetadataDefaults(t *testing.T) {
	reg := types.NewRelationshipRegistry()

	for _, relType := range reg.Types() {
		meta, err := reg.Metadata(relType)
		if err != nil {
			t.Errorf("Metadata(%s): %v", relType, err)
			continue
		}
		if meta.DefaultStrength < 0 || meta.DefaultStrength > 1 {
			t.Errorf("%s default strength %v out of [0,1]", relType, meta.DefaultStrength)
		}
		if meta.DefaultConfidence < 0 || meta.DefaultConfidence > 1 {
			t.Errorf("%s default confidence %v out of [0,1]", relType, meta.DefaultConfidence)
		}
		if meta.Description == "" {
			t.Errorf("%s has no description", relType)
		}
	}
}

// TestRelationshipRegistry_InverseSymmetry verifies that every bidirectional
// type names an inverse that is itself bidirectional and points back, and
// that directed types carry no inverse.
func TestRelationshipRegistry_InverseSymmetry(t *testing.T) {
	reg := types.NewRelationshipRegistry()

	for _, relType := range reg.Types() {
		meta, err := reg.Metadata(relType)
		if err != nil {
			t.Fatalf("Metadata(%s): %v", relType, err)
		}

		if !meta.Bidirectional {
			if meta.InverseType != "" {
				t.Errorf("%s is directed but has inverse %s", relType, meta.InverseType)
			}
			continue
		}

		inverse, err := reg.Metadata(meta.InverseType)
		if err != nil {
			t.Errorf("%s inverse %s not registered: %v", relType, meta.InverseType, err)
			continue
		}
		if !inverse.Bidirectional {
			t.Errorf("%s inverse %s is not bidirectional", relType, meta.InverseType)
		}
		if inverse.InverseType != relType {
			t.Errorf("inverse of %s is %s, but its inverse is %s (want %s)",
				relType, meta.InverseType, inverse.InverseType, relType)
		}
	}
}

// TestRelationshipRegistry_GeneralizesSpecializes pins the one asymmetric
// inverse pair in the taxonomy.
func TestRelationshipRegistry_GeneralizesSpecializes(t *testing.T) {
	reg := types.NewRelationshipRegistry()

	gen, err := reg.Metadata(types.RelGeneralizes)
	if err != nil {
		t.Fatalf("Metadata(GENERALIZES): %v", err)
	}
	if gen.InverseType != types.RelSpecializes {
		t.Errorf("expected GENERALIZES inverse SPECIALIZES, got %s", gen.InverseType)
	}

	spec, err := reg.Metadata(types.RelSpecializes)
	if err != nil {
		t.Fatalf("Metadata(SPECIALIZES): %v", err)
	}
	if spec.InverseType != types.RelGeneralizes {
		t.Errorf("expected SPECIALIZES inverse GENERALIZES, got %s", spec.InverseType)
	}
}

// TestRelationshipRegistry_UnknownType verifies lookups outside the closed
// set surface ErrUnknownRelationshipType.
func TestRelationshipRegistry_UnknownType(t *testing.T) {
	reg := types.NewRelationshipRegistry()

	tests := []struct {
		name    string
		relType types.RelationshipType
	}{
		{"empty", ""},
		{"lowercase", "solves"},
		{"unregistered", "TELEPORTS_TO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := reg.Metadata(tt.relType); !errors.Is(err, types.ErrUnknownRelationshipType) {
				t.Errorf("expected ErrUnknownRelationshipType for %q, got %v", tt.relType, err)
			}
			if reg.Contains(tt.relType) {
				t.Errorf("Contains(%q) = true, want false", tt.relType)
			}
		})
	}
}

// TestRelationshipRegistry_UnknownCategory verifies category lookups outside
// the 7 families fail.
func TestRelationshipRegistry_UnknownCategory(t *testing.T) {
	reg := types.NewRelationshipRegistry()

	if _, err := reg.TypesByCategory("TEMPORAL"); !errors.Is(err, types.ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}
