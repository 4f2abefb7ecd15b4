package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/haldane/mnemograph/internal/graph"
	"github.com/haldane/mnemograph/pkg/types"
)

const (
	// defaultOutcomeHalfLifeDays is the half-life used when down-weighting
	// old outcomes. An outcome six months old counts half as much as a
	// fresh one; a year old, a quarter.
	defaultOutcomeHalfLifeDays = 180.0

	// decayWriteThreshold is the minimum score change required to write
	// back a recomputed value.
	decayWriteThreshold = 0.001

	// defaultSweepRate bounds how many memories per second a sweep
	// recomputes, keeping the background job from saturating the backend.
	defaultSweepRate = 25.0
)

// DecayBackend is the slice of the graph store the decay recompute needs.
type DecayBackend interface {
	graph.MemoryStore
	graph.OutcomeStore
}

// OutcomeDecay recomputes memory effectiveness with old outcomes
// exponentially down-weighted, so a memory that worked two years ago but
// failed recently scores on the recent record. It runs as a periodic
// maintenance job, not on the outcome write path.
//
// Each outcome is weighted by its impact times a decay factor:
//
//	weight = impact * exp(-λ * age_days)
//
// where λ = ln(2) / half_life_days. Effectiveness becomes the
// weight-averaged success value, and confidence is re-derived from the
// decayed volume using the same ramp as the write path.
type OutcomeDecay struct {
	store        DecayBackend
	logger       *zap.Logger
	halfLifeDays float64
	limiter      *rate.Limiter
}

// DecayOption customizes an OutcomeDecay.
type DecayOption func(*OutcomeDecay)

// WithDecayHalfLife overrides the half-life in days. Non-positive values are
// ignored.
func WithDecayHalfLife(days float64) DecayOption {
	return func(d *OutcomeDecay) {
		if days > 0 {
			d.halfLifeDays = days
		}
	}
}

// WithSweepRate overrides the per-second recompute budget for Sweep.
// Non-positive values are ignored.
func WithSweepRate(perSecond float64) DecayOption {
	return func(d *OutcomeDecay) {
		if perSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewOutcomeDecay creates a decay recomputer over the given backend. A nil
// logger disables logging.
func NewOutcomeDecay(store DecayBackend, logger *zap.Logger, opts ...DecayOption) *OutcomeDecay {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &OutcomeDecay{
		store:        store,
		logger:       logger,
		halfLifeDays: defaultOutcomeHalfLifeDays,
		limiter:      rate.NewLimiter(rate.Limit(defaultSweepRate), 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// lambda returns the decay constant derived from the configured half-life.
func (d *OutcomeDecay) lambda() float64 {
	return math.Log(2) / d.halfLifeDays
}

// Recompute re-derives one memory's effectiveness and confidence from its
// full outcome history with age-based down-weighting, evaluated at now.
// Memories without outcomes, and recomputes that barely move the scores,
// write nothing back.
func (d *OutcomeDecay) Recompute(ctx context.Context, memoryID string, now time.Time) error {
	outcomes, err := d.store.ListOutcomes(ctx, memoryID)
	if err != nil {
		return fmt.Errorf("listing outcomes for %s: %w", memoryID, err)
	}
	if len(outcomes) == 0 {
		return nil
	}

	var weightedTotal, weightedSuccess float64
	for _, outcome := range outcomes {
		ageDays := now.Sub(outcome.Timestamp).Hours() / 24.0
		if ageDays < 0 {
			ageDays = 0
		}
		weight := types.Clamp01(outcome.Impact) * math.Exp(-d.lambda()*ageDays)
		weightedTotal += weight
		weightedSuccess += weight * outcome.Value()
	}
	if weightedTotal < 1e-9 {
		// Every outcome has decayed to nothing; leave the stored score.
		return nil
	}

	effectiveness := types.Clamp01(weightedSuccess / weightedTotal)
	confidence := types.Clamp01(confidenceFromVolume(weightedTotal))

	memory, err := d.store.GetMemory(ctx, memoryID)
	if err != nil {
		return fmt.Errorf("loading %s: %w", memoryID, err)
	}
	if math.Abs(effectiveness-memory.Effectiveness) < decayWriteThreshold &&
		math.Abs(confidence-memory.Confidence) < decayWriteThreshold {
		return nil
	}

	update := graph.ScoreUpdate{
		Effectiveness: effectiveness,
		Confidence:    confidence,
	}
	if err := d.store.UpdateMemoryScores(ctx, memoryID, update); err != nil {
		return fmt.Errorf("writing decayed scores for %s: %w", memoryID, err)
	}

	d.logger.Debug("recomputed decayed effectiveness",
		zap.String("memory_id", memoryID),
		zap.Float64("effectiveness", effectiveness),
		zap.Float64("confidence", confidence))
	return nil
}

// Sweep recomputes every memory that has recorded outcomes, rate-limited to
// the configured per-second budget. Individual recompute failures are logged
// and skipped; the sweep stops early only when the context is done. Returns
// the number of memories successfully recomputed.
func (d *OutcomeDecay) Sweep(ctx context.Context) (int, error) {
	ids, err := d.store.MemoryIDsWithOutcomes(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing memories with outcomes: %w", err)
	}

	now := time.Now().UTC()
	recomputed := 0
	for _, id := range ids {
		if err := d.limiter.Wait(ctx); err != nil {
			return recomputed, err
		}
		if err := d.Recompute(ctx, id, now); err != nil {
			d.logger.Warn("decay recompute failed",
				zap.String("memory_id", id),
				zap.Error(err))
			continue
		}
		recomputed++
	}

	d.logger.Info("decay sweep complete",
		zap.Int("candidates", len(ids)),
		zap.Int("recomputed", recomputed))
	return recomputed, nil
}
