package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/haldane/mnemograph/internal/graph"
	"github.com/haldane/mnemograph/pkg/types"
)

// ErrVersionCreation indicates the backend reported no effect when
// superseding a memory, which would leave the chain without exactly one
// current version if ignored.
var ErrVersionCreation = errors.New("version creation had no effect")

// defaultMaxChainDepth bounds chain traversal in each direction. A chain
// with a malformed PREVIOUS cycle truncates silently at this depth instead
// of looping.
const defaultMaxChainDepth = 50

// ChainBackend is the slice of the graph store the version chain needs.
type ChainBackend interface {
	graph.MemoryStore
	graph.VersionStore
	graph.EntityStore
}

// VersionChain manages the supersede history of memories. Each edit creates
// a distinct version node linked to its predecessor by a PREVIOUS edge;
// exactly one version per chain is current. The chain is a simple linear
// list: no branching, ordered by creation time.
//
// Read operations (History, StateAt, Diff, TrackEntityChanges) never
// propagate backend errors; they log and degrade to empty results. The sole
// write operation, CreateVersion, surfaces failure explicitly.
type VersionChain struct {
	store    ChainBackend
	logger   *zap.Logger
	maxDepth int
}

// VersionChainOption customizes a VersionChain.
type VersionChainOption func(*VersionChain)

// WithMaxChainDepth overrides the traversal depth bound.
func WithMaxChainDepth(depth int) VersionChainOption {
	return func(vc *VersionChain) {
		if depth > 0 {
			vc.maxDepth = depth
		}
	}
}

// NewVersionChain creates a version chain over the given backend. A nil
// logger disables logging.
func NewVersionChain(store ChainBackend, logger *zap.Logger, opts ...VersionChainOption) *VersionChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	vc := &VersionChain{
		store:    store,
		logger:   logger,
		maxDepth: defaultMaxChainDepth,
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// CreateVersion supersedes oldID with a new version built from next: the new
// node links back to the old one via PREVIOUS, the old version loses
// currency and records its successor, and the new version becomes the chain
// head. Returns the new version's id.
//
// Fails with ErrVersionCreation when the backend reports no effect (oldID is
// missing or no longer current), since proceeding would corrupt the
// single-current invariant. The backend must make the transition atomic per
// lineage; concurrent supersedes of the same version must not both succeed.
func (vc *VersionChain) CreateVersion(ctx context.Context, oldID string, next *types.Memory) (string, error) {
	if oldID == "" || next == nil {
		return "", fmt.Errorf("%w: old id and next version are required", graph.ErrInvalidInput)
	}
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	if next.ID == oldID {
		return "", fmt.Errorf("%w: new version id equals old id %s", graph.ErrInvalidInput, oldID)
	}

	now := time.Now().UTC()
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now
	next.IsCurrent = true
	next.PreviousID = oldID
	next.SupersededBy = ""
	next.ClampScores()

	if err := vc.store.SupersedeMemory(ctx, oldID, next); err != nil {
		if errors.Is(err, graph.ErrNoEffect) {
			return "", fmt.Errorf("%w: superseding %s", ErrVersionCreation, oldID)
		}
		return "", fmt.Errorf("superseding %s: %w", oldID, err)
	}

	vc.logger.Debug("created memory version",
		zap.String("old_id", oldID),
		zap.String("new_id", next.ID))
	return next.ID, nil
}

// History returns every version in the chain containing id, most recent
// first, each annotated with its depth from the chain head (0 = current).
// The id may be any version in the chain, not just the head. Unknown ids and
// backend failures degrade to an empty result.
func (vc *VersionChain) History(ctx context.Context, id string) []types.MemoryVersion {
	if id == "" {
		return nil
	}

	chain, err := vc.store.VersionChain(ctx, id, vc.maxDepth)
	if err != nil {
		vc.logger.Warn("version history lookup failed",
			zap.String("memory_id", id),
			zap.Error(err))
		return nil
	}

	history := make([]types.MemoryVersion, 0, len(chain))
	for depth, version := range chain {
		history = append(history, types.MemoryVersion{Memory: version, Depth: depth})
	}
	return history
}

// StateAt returns the version that was current at the given time: the one
// with the latest CreatedAt at or before ts. Returns nil when no version is
// that old or on backend failure.
func (vc *VersionChain) StateAt(ctx context.Context, id string, ts time.Time) *types.Memory {
	if id == "" {
		return nil
	}

	chain, err := vc.store.VersionChain(ctx, id, vc.maxDepth)
	if err != nil {
		vc.logger.Warn("point-in-time lookup failed",
			zap.String("memory_id", id),
			zap.Error(err))
		return nil
	}

	// Chain is ordered newest first, so the first version created at or
	// before ts is the one that was current then.
	for _, version := range chain {
		if !version.CreatedAt.After(ts) {
			return version
		}
	}
	return nil
}

// Diff compares two specific versions field by field: title, content, type,
// and tags. Fields with equal values are omitted; tags are diffed as
// added/removed sets. Returns an empty diff when either version cannot be
// loaded.
func (vc *VersionChain) Diff(ctx context.Context, idA, idB string) types.VersionDiff {
	var diff types.VersionDiff

	a, err := vc.store.GetMemory(ctx, idA)
	if err != nil {
		vc.logger.Warn("diff source lookup failed",
			zap.String("memory_id", idA),
			zap.Error(err))
		return diff
	}
	b, err := vc.store.GetMemory(ctx, idB)
	if err != nil {
		vc.logger.Warn("diff target lookup failed",
			zap.String("memory_id", idB),
			zap.Error(err))
		return diff
	}

	if a.Title != b.Title {
		diff.Title = &types.FieldChange{From: a.Title, To: b.Title}
	}
	if a.Content != b.Content {
		diff.Content = &types.FieldChange{From: a.Content, To: b.Content}
	}
	if a.Type != b.Type {
		diff.Type = &types.FieldChange{From: string(a.Type), To: string(b.Type)}
	}
	if added, removed := diffTags(a.Tags, b.Tags); len(added) > 0 || len(removed) > 0 {
		diff.Tags = &types.TagDiff{Added: added, Removed: removed}
	}
	return diff
}

// TrackEntityChanges returns the mention timeline for an entity across all
// memories, oldest first, with the chronologically first mention flagged as
// new. Returns an empty result for unknown entities or on backend failure.
func (vc *VersionChain) TrackEntityChanges(ctx context.Context, entity string) []types.EntityChange {
	if entity == "" {
		return nil
	}

	mentions, err := vc.store.EntityMentions(ctx, entity)
	if err != nil {
		vc.logger.Warn("entity timeline lookup failed",
			zap.String("entity", entity),
			zap.Error(err))
		return nil
	}

	changes := make([]types.EntityChange, 0, len(mentions))
	for i, mention := range mentions {
		changes = append(changes, types.EntityChange{
			Entity:        entity,
			MemoryID:      mention.MemoryID,
			MemoryTitle:   mention.MemoryTitle,
			Timestamp:     mention.Timestamp,
			WasNewMention: i == 0,
		})
	}
	return changes
}

// diffTags compares two tag sets and returns what b added over a and what it
// removed. Duplicates within either input collapse to set membership.
func diffTags(a, b []string) (added, removed []string) {
	inA := make(map[string]bool, len(a))
	for _, tag := range a {
		inA[tag] = true
	}
	inB := make(map[string]bool, len(b))
	for _, tag := range b {
		inB[tag] = true
	}

	for tag := range inB {
		if !inA[tag] {
			added = append(added, tag)
		}
	}
	for tag := range inA {
		if !inB[tag] {
			removed = append(removed, tag)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
