package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/haldane/mnemograph/pkg/types"
)

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func seedLearning(t *testing.T) (*mockGraphStore, *OutcomeLearningEngine, *types.Memory) {
	t.Helper()

	store := newMockGraphStore()
	eng := NewOutcomeLearningEngine(store, nil)
	memory := types.NewMemory(types.MemoryTypeSolution, "restart the indexer", "")
	if err := store.CreateMemory(context.Background(), memory); err != nil {
		t.Fatalf("seeding memory: %v", err)
	}
	return store, eng, memory
}

// TestRecordOutcome_FirstSuccess verifies a memory with no history jumps to
// effectiveness 1.0 on one full-impact success, with confidence at the
// one-outcome level.
func TestRecordOutcome_FirstSuccess(t *testing.T) {
	store, eng, memory := seedLearning(t)

	if !eng.RecordOutcome(context.Background(), memory.ID, "fixed the stale index", true) {
		t.Fatal("RecordOutcome returned false")
	}

	if !closeTo(memory.Effectiveness, 1.0) {
		t.Errorf("effectiveness = %v, want 1.0", memory.Effectiveness)
	}
	if !closeTo(memory.Confidence, 0.33) {
		t.Errorf("confidence = %v, want 0.33 after one outcome", memory.Confidence)
	}
	if memory.UsageCount != 1 {
		t.Errorf("usage count = %d, want 1", memory.UsageCount)
	}
	if memory.LastUsedAt == nil {
		t.Error("last used timestamp must be set")
	}
	if len(store.outcomes[memory.ID]) != 1 {
		t.Errorf("stored outcomes = %d, want 1", len(store.outcomes[memory.ID]))
	}
}

// TestRecordOutcome_FullImpactFailureDominates verifies a full-impact
// failure drags effectiveness to 0.0 regardless of a prior success.
func TestRecordOutcome_FullImpactFailureDominates(t *testing.T) {
	_, eng, memory := seedLearning(t)
	ctx := context.Background()

	eng.RecordOutcome(ctx, memory.ID, "worked once", true)
	if !eng.RecordOutcome(ctx, memory.ID, "failed badly", false) {
		t.Fatal("RecordOutcome returned false")
	}

	if !closeTo(memory.Effectiveness, 0.0) {
		t.Errorf("effectiveness = %v, want 0.0 after full-impact failure", memory.Effectiveness)
	}
	if !closeTo(memory.Confidence, 0.36) {
		t.Errorf("confidence = %v, want 0.36 after two outcomes", memory.Confidence)
	}
}

// TestRecordOutcome_PartialImpactBlends verifies impact mixes history with
// the new outcome instead of replacing it.
func TestRecordOutcome_PartialImpactBlends(t *testing.T) {
	_, eng, memory := seedLearning(t)
	ctx := context.Background()

	eng.RecordOutcome(ctx, memory.ID, "worked", true)
	eng.RecordOutcome(ctx, memory.ID, "hiccup", false, WithImpact(0.4))

	// History said 1.0; the failure carries 40% of the blend.
	want := 1.0*0.6 + 0.0*0.4
	if !closeTo(memory.Effectiveness, want) {
		t.Errorf("effectiveness = %v, want %v", memory.Effectiveness, want)
	}
}

// TestRecordOutcome_ConfidenceCaps verifies confidence saturates at 0.9 no
// matter how many outcomes accumulate.
func TestRecordOutcome_ConfidenceCaps(t *testing.T) {
	_, eng, memory := seedLearning(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if !eng.RecordOutcome(ctx, memory.ID, "routine use", true) {
			t.Fatalf("outcome %d failed to record", i)
		}
		if memory.Confidence > 0.9 {
			t.Fatalf("confidence = %v after %d outcomes, exceeded 0.9", memory.Confidence, i+1)
		}
	}
	if !closeTo(memory.Confidence, 0.9) {
		t.Errorf("confidence = %v after 25 outcomes, want 0.9", memory.Confidence)
	}
}

func TestRecordOutcome_ImpactClamped(t *testing.T) {
	store, eng, memory := seedLearning(t)

	eng.RecordOutcome(context.Background(), memory.ID, "overweighted", true, WithImpact(3.0))

	if got := store.outcomes[memory.ID][0].Impact; !closeTo(got, 1.0) {
		t.Errorf("stored impact = %v, want clamp to 1.0", got)
	}
}

func TestRecordOutcome_Context(t *testing.T) {
	store, eng, memory := seedLearning(t)

	eng.RecordOutcome(context.Background(), memory.ID, "applied in prod", true,
		WithOutcomeContext(types.Context{"project": "billing", "duration_ms": 420}))

	outcome := store.outcomes[memory.ID][0]
	if outcome.Context["project"] != "billing" {
		t.Errorf("outcome context = %v, want project recorded", outcome.Context)
	}
}

// TestRecordOutcome_PersistFailure verifies the primary write failing turns
// into a false return with no score side effects.
func TestRecordOutcome_PersistFailure(t *testing.T) {
	store, eng, memory := seedLearning(t)
	store.createOutcomeErr = errors.New("disk full")

	if eng.RecordOutcome(context.Background(), memory.ID, "never lands", true) {
		t.Fatal("RecordOutcome must return false when the outcome cannot be persisted")
	}
	if len(store.scoreWrites) != 0 {
		t.Errorf("score writes = %v, want none after a failed persist", store.scoreWrites)
	}
}

func TestRecordOutcome_UnknownMemory(t *testing.T) {
	store, eng, _ := seedLearning(t)

	if eng.RecordOutcome(context.Background(), "no-such-memory", "orphan", true) {
		t.Fatal("RecordOutcome against a missing memory must return false")
	}
	if eng.RecordOutcome(context.Background(), "", "blank", true) {
		t.Fatal("RecordOutcome without a memory id must return false")
	}
	if len(store.scoreWrites) != 0 {
		t.Errorf("score writes = %v, want none", store.scoreWrites)
	}
}

// TestRecordOutcome_StatsFailureKeepsPrimaryWrite verifies a stats read
// failure after the outcome landed does not flip the return value.
func TestRecordOutcome_StatsFailureKeepsPrimaryWrite(t *testing.T) {
	store, eng, memory := seedLearning(t)
	store.statsErr = errors.New("aggregate query timeout")

	if !eng.RecordOutcome(context.Background(), memory.ID, "recorded anyway", true) {
		t.Fatal("RecordOutcome must stay true once the outcome node was created")
	}
	if len(store.outcomes[memory.ID]) != 1 {
		t.Errorf("stored outcomes = %d, want 1", len(store.outcomes[memory.ID]))
	}
	if len(store.scoreWrites[memory.ID]) != 0 {
		t.Error("score write must be skipped when stats are unavailable")
	}
}

// TestRecordOutcome_PropagatesToPatterns verifies patterns linked via
// DERIVED_FROM/USES/APPLIES receive a half-impact damped update.
func TestRecordOutcome_PropagatesToPatterns(t *testing.T) {
	store, eng, memory := seedLearning(t)
	ctx := context.Background()

	pattern := types.NewMemory(types.MemoryTypeCodePattern, "exponential backoff", "")
	pattern.Effectiveness = 0.5
	pattern.Confidence = 0.5
	if err := store.CreateMemory(ctx, pattern); err != nil {
		t.Fatalf("seeding pattern: %v", err)
	}
	store.patterns[memory.ID] = []string{pattern.ID}

	eng.RecordOutcome(ctx, memory.ID, "worked in prod", true)

	// Outcome impact 1.0 reaches the pattern halved; the pattern has no
	// outcome history, so the reference is its stored effectiveness:
	// adjustment = (1.0 - 0.5) * 0.5 * 0.3.
	wantEff := 0.5 + (1.0-0.5)*0.5*0.3
	if !closeTo(pattern.Effectiveness, wantEff) {
		t.Errorf("pattern effectiveness = %v, want %v", pattern.Effectiveness, wantEff)
	}
	if !closeTo(pattern.Confidence, 0.52) {
		t.Errorf("pattern confidence = %v, want 0.52", pattern.Confidence)
	}
	if writes := store.scoreWrites[pattern.ID]; len(writes) != 1 || writes[0].RecordUsage {
		t.Errorf("pattern score writes = %+v, want one non-usage write", writes)
	}
}

func TestUpdatePatternEffectiveness_MissingPattern(t *testing.T) {
	_, eng, _ := seedLearning(t)

	if eng.UpdatePatternEffectiveness(context.Background(), "no-such-pattern", true, 0.5) {
		t.Error("updating a missing pattern must return false")
	}
}

// TestUpdatePatternEffectiveness_WithHistory verifies the adjustment
// references the pattern's own success rate when outcomes exist.
func TestUpdatePatternEffectiveness_WithHistory(t *testing.T) {
	store, eng, _ := seedLearning(t)
	ctx := context.Background()

	pattern := types.NewMemory(types.MemoryTypeCodePattern, "circuit breaker", "")
	pattern.Effectiveness = 0.5
	if err := store.CreateMemory(ctx, pattern); err != nil {
		t.Fatalf("seeding pattern: %v", err)
	}
	store.outcomes[pattern.ID] = []*types.Outcome{
		{MemoryID: pattern.ID, Success: true},
		{MemoryID: pattern.ID, Success: false},
		{MemoryID: pattern.ID, Success: false},
	}

	if !eng.UpdatePatternEffectiveness(ctx, pattern.ID, true, 0.5) {
		t.Fatal("UpdatePatternEffectiveness returned false")
	}

	// Success rate is 1/3: adjustment = (1 - 1/3) * 0.5 * 0.3.
	wantEff := 0.5 + (1.0-1.0/3.0)*0.5*0.3
	if !closeTo(pattern.Effectiveness, wantEff) {
		t.Errorf("pattern effectiveness = %v, want %v", pattern.Effectiveness, wantEff)
	}
}

// TestUpdatePatternEffectiveness_ConfidenceCap verifies the exercise bonus
// caps at 0.95 and never reduces higher values.
func TestUpdatePatternEffectiveness_ConfidenceCap(t *testing.T) {
	store, eng, _ := seedLearning(t)
	ctx := context.Background()

	cases := []struct {
		name string
		have float64
		want float64
	}{
		{"below_cap", 0.5, 0.52},
		{"near_cap", 0.94, 0.95},
		{"at_cap", 0.95, 0.95},
		{"above_cap_untouched", 0.97, 0.97},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pattern := types.NewMemory(types.MemoryTypeCodePattern, tc.name, "")
			pattern.Confidence = tc.have
			if err := store.CreateMemory(ctx, pattern); err != nil {
				t.Fatalf("seeding pattern: %v", err)
			}

			eng.UpdatePatternEffectiveness(ctx, pattern.ID, true, 0.5)

			if !closeTo(pattern.Confidence, tc.want) {
				t.Errorf("confidence = %v, want %v", pattern.Confidence, tc.want)
			}
		})
	}
}

func TestCalculateEffectivenessScore(t *testing.T) {
	store, eng, memory := seedLearning(t)
	ctx := context.Background()

	eng.RecordOutcome(ctx, memory.ID, "worked", true)
	eng.RecordOutcome(ctx, memory.ID, "worked again", true)
	eng.RecordOutcome(ctx, memory.ID, "failed", false)

	score := eng.CalculateEffectivenessScore(ctx, memory.ID)
	if score == nil {
		t.Fatal("score = nil for an existing memory")
	}
	if score.TotalOutcomes != 3 || score.SuccessfulOutcomes != 2 || score.FailedOutcomes != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1",
			score.TotalOutcomes, score.SuccessfulOutcomes, score.FailedOutcomes)
	}
	if score.LastOutcomeAt == nil {
		t.Error("last outcome timestamp must be set")
	}
	if !closeTo(score.Effectiveness, memory.Effectiveness) || !closeTo(score.Confidence, memory.Confidence) {
		t.Error("score must expose the currently stored effectiveness and confidence")
	}
	if got := score.SuccessRate(); !closeTo(got, 2.0/3.0) {
		t.Errorf("success rate = %v, want 2/3", got)
	}
	_ = store
}

func TestCalculateEffectivenessScore_MissingMemory(t *testing.T) {
	_, eng, _ := seedLearning(t)

	if score := eng.CalculateEffectivenessScore(context.Background(), "no-such-memory"); score != nil {
		t.Errorf("score for missing memory = %+v, want nil", score)
	}
}
