package engine

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/haldane/mnemograph/internal/graph"
	"github.com/haldane/mnemograph/pkg/types"
)

const (
	// patternImpactFactor halves an outcome's impact before it reaches the
	// patterns a memory derives from. Patterns react to downstream outcomes
	// more slowly than the memory that produced them.
	patternImpactFactor = 0.5

	// defaultPatternDampening scales pattern-effectiveness adjustments.
	defaultPatternDampening = 0.3

	// patternConfidenceStep is added to a pattern's confidence every time
	// it is exercised, regardless of outcome polarity.
	patternConfidenceStep = 0.02

	// patternConfidenceCap bounds confidence gained purely from exercise.
	patternConfidenceCap = 0.95

	// Outcome volume ramps a memory's confidence linearly from
	// confidenceBase to confidenceCap, saturating at confidenceRampOutcomes
	// recorded outcomes. One outcome lands at 0.33.
	confidenceBase         = 0.3
	confidenceCap          = 0.9
	confidenceRampOutcomes = 20.0
	confidenceRampRange    = 0.6
)

// LearningBackend is the slice of the graph store outcome learning needs.
type LearningBackend interface {
	graph.MemoryStore
	graph.RelationshipStore
	graph.OutcomeStore
}

// OutcomeLearningEngine records success/failure outcomes against memories
// and feeds them back into effectiveness and confidence scores, including a
// damped propagation to the patterns a memory derives from, uses, or
// applies. Outcomes are append-only; scores aggregate them, never replace
// them.
type OutcomeLearningEngine struct {
	store     LearningBackend
	logger    *zap.Logger
	dampening float64
}

// LearningOption customizes an OutcomeLearningEngine.
type LearningOption func(*OutcomeLearningEngine)

// WithPatternDampening overrides the pattern adjustment dampening factor.
// Values outside (0, 1] are ignored.
func WithPatternDampening(dampening float64) LearningOption {
	return func(e *OutcomeLearningEngine) {
		if dampening > 0 && dampening <= 1 {
			e.dampening = dampening
		}
	}
}

// NewOutcomeLearningEngine creates a learning engine over the given backend.
// A nil logger disables logging.
func NewOutcomeLearningEngine(store LearningBackend, logger *zap.Logger, opts ...LearningOption) *OutcomeLearningEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &OutcomeLearningEngine{
		store:     store,
		logger:    logger,
		dampening: defaultPatternDampening,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OutcomeOption annotates an outcome being recorded.
type OutcomeOption func(*types.Outcome)

// WithImpact sets the weight of this single outcome, clamped to [0, 1].
// Full impact (the default) lets the outcome dominate the memory's
// effectiveness; low impact leaves history mostly in charge.
func WithImpact(impact float64) OutcomeOption {
	return func(o *types.Outcome) {
		o.Impact = types.Clamp01(impact)
	}
}

// WithOutcomeContext attaches structured context about the attempt.
func WithOutcomeContext(context types.Context) OutcomeOption {
	return func(o *types.Outcome) {
		o.Context = context
	}
}

// RecordOutcome persists an outcome against a memory, then recomputes the
// memory's effectiveness and confidence and propagates a damped update to
// its patterns. Returns false only when the outcome itself could not be
// persisted; failures in the downstream updates are logged and do not undo
// an already-recorded outcome.
//
// Effectiveness blends what history says with what just happened, weighted
// by the outcome's impact:
//
//	effectiveness = success_rate*(1-impact) + value*impact
//
// where success_rate covers the outcomes recorded before this one and value
// is 1.0 or 0.0 for this outcome. A memory with no prior outcomes jumps
// straight to the new outcome's value. Confidence grows with volume:
//
//	confidence = min(0.9, 0.3 + total/20*0.6)
func (e *OutcomeLearningEngine) RecordOutcome(ctx context.Context, memoryID, description string, success bool, opts ...OutcomeOption) bool {
	if memoryID == "" {
		e.logger.Error("refusing to record outcome without a memory id")
		return false
	}

	outcome := types.NewOutcome(memoryID, description, success)
	for _, opt := range opts {
		opt(outcome)
	}
	outcome.Impact = types.Clamp01(outcome.Impact)

	if err := e.store.CreateOutcome(ctx, outcome); err != nil {
		e.logger.Error("failed to record outcome",
			zap.String("memory_id", memoryID),
			zap.Bool("success", success),
			zap.Error(err))
		return false
	}

	if err := e.updateMemoryEffectiveness(ctx, outcome); err != nil {
		e.logger.Warn("effectiveness update failed after outcome",
			zap.String("memory_id", memoryID),
			zap.Error(err))
	}
	e.propagateToPatterns(ctx, memoryID, success, outcome.Impact)
	return true
}

// updateMemoryEffectiveness recomputes the outcome-owning memory's scores
// and bumps its usage counter.
func (e *OutcomeLearningEngine) updateMemoryEffectiveness(ctx context.Context, outcome *types.Outcome) error {
	stats, err := e.store.OutcomeStats(ctx, outcome.MemoryID)
	if err != nil {
		return fmt.Errorf("fetching outcome stats: %w", err)
	}

	// Stats include the outcome just recorded; the blend wants the history
	// before it.
	priorTotal := stats.Total - 1
	priorSuccessful := stats.Successful
	if outcome.Success {
		priorSuccessful--
	}

	value := outcome.Value()
	effectiveness := value
	if priorTotal > 0 {
		successRate := float64(priorSuccessful) / float64(priorTotal)
		effectiveness = successRate*(1-outcome.Impact) + value*outcome.Impact
	}

	update := graph.ScoreUpdate{
		Effectiveness: types.Clamp01(effectiveness),
		Confidence:    types.Clamp01(confidenceFromVolume(float64(stats.Total))),
		RecordUsage:   true,
	}
	if err := e.store.UpdateMemoryScores(ctx, outcome.MemoryID, update); err != nil {
		return fmt.Errorf("writing scores: %w", err)
	}
	return nil
}

// propagateToPatterns forwards an outcome, at half impact, to every pattern
// memory the outcome's owner derives from, uses, or applies. Failures are
// logged per pattern and never affect the primary write.
func (e *OutcomeLearningEngine) propagateToPatterns(ctx context.Context, memoryID string, success bool, impact float64) {
	patternIDs, err := e.store.RelatedMemoryIDs(ctx, memoryID, graph.PatternEdgeKinds...)
	if err != nil {
		e.logger.Warn("pattern lookup failed",
			zap.String("memory_id", memoryID),
			zap.Error(err))
		return
	}

	for _, patternID := range patternIDs {
		if !e.UpdatePatternEffectiveness(ctx, patternID, success, impact*patternImpactFactor) {
			e.logger.Warn("pattern propagation failed",
				zap.String("memory_id", memoryID),
				zap.String("pattern_id", patternID))
		}
	}
}

// UpdatePatternEffectiveness applies a heavily damped outcome to a pattern
// memory. With outcome history the adjustment moves effectiveness toward the
// pattern's own success rate; without history it moves toward the outcome
// value. Either way it is scaled by both the impact and the dampening
// factor:
//
//	adjustment = (value - reference) * impact * dampening
//
// Confidence nudges up by 0.02 (capped at 0.95) on every call: patterns gain
// confidence from being exercised no matter how the exercise went. Returns
// false when the pattern does not exist or the write fails.
func (e *OutcomeLearningEngine) UpdatePatternEffectiveness(ctx context.Context, patternID string, success bool, impact float64) bool {
	pattern, err := e.store.GetMemory(ctx, patternID)
	if err != nil {
		e.logger.Warn("pattern effectiveness update skipped",
			zap.String("pattern_id", patternID),
			zap.Error(err))
		return false
	}

	value := 0.0
	if success {
		value = 1.0
	}
	impact = types.Clamp01(impact)

	var adjustment float64
	stats, err := e.store.OutcomeStats(ctx, patternID)
	switch {
	case err == nil && stats.Total > 0:
		adjustment = (value - stats.SuccessRate()) * impact * e.dampening
	default:
		if err != nil {
			e.logger.Warn("pattern outcome stats unavailable",
				zap.String("pattern_id", patternID),
				zap.Error(err))
		}
		adjustment = (value - pattern.Effectiveness) * impact * e.dampening
	}

	confidence := pattern.Confidence
	if confidence < patternConfidenceCap {
		confidence = math.Min(patternConfidenceCap, confidence+patternConfidenceStep)
	}

	update := graph.ScoreUpdate{
		Effectiveness: types.Clamp01(pattern.Effectiveness + adjustment),
		Confidence:    confidence,
	}
	if err := e.store.UpdateMemoryScores(ctx, patternID, update); err != nil {
		e.logger.Warn("pattern score write failed",
			zap.String("pattern_id", patternID),
			zap.Error(err))
		return false
	}
	return true
}

// CalculateEffectivenessScore exposes the read-only aggregate for a memory:
// outcome counts plus the currently stored effectiveness and confidence.
// Returns nil when the memory has no recorded state.
func (e *OutcomeLearningEngine) CalculateEffectivenessScore(ctx context.Context, memoryID string) *types.EffectivenessScore {
	memory, err := e.store.GetMemory(ctx, memoryID)
	if err != nil {
		e.logger.Warn("effectiveness score lookup failed",
			zap.String("memory_id", memoryID),
			zap.Error(err))
		return nil
	}

	score := &types.EffectivenessScore{
		MemoryID:      memoryID,
		Effectiveness: memory.Effectiveness,
		Confidence:    memory.Confidence,
	}

	stats, err := e.store.OutcomeStats(ctx, memoryID)
	if err != nil {
		e.logger.Warn("outcome stats lookup failed",
			zap.String("memory_id", memoryID),
			zap.Error(err))
		return score
	}
	score.TotalOutcomes = stats.Total
	score.SuccessfulOutcomes = stats.Successful
	score.FailedOutcomes = stats.Failed
	score.LastOutcomeAt = stats.LastOutcomeAt
	return score
}

// confidenceFromVolume derives confidence purely from accumulated outcome
// volume: 0.33 after one outcome, capped at 0.9 from twenty up. The decay
// recompute passes fractional volume, so this takes a float.
func confidenceFromVolume(total float64) float64 {
	if total < 0 {
		total = 0
	}
	confidence := confidenceBase + (total/confidenceRampOutcomes)*confidenceRampRange
	return math.Min(confidenceCap, confidence)
}
