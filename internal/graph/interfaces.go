// Package graph defines the abstract backend the learning core runs against.
//
// The backend is split into small, per-concern interfaces that compose into
// Store. An implementation realizes them in whatever query language its
// database speaks: the neo4j adapter issues parameterized Cypher, the sqlite
// and postgres adapters issue SQL. Together the method set covers the
// primitives the core needs: create node, create edge, transitive chain
// traversal, timestamp-ordered reads, and aggregate counts.
package graph

import (
	"context"

	"github.com/haldane/mnemograph/pkg/types"
)

// MemoryStore provides node-level operations on memories.
type MemoryStore interface {
	// CreateMemory persists a new memory node.
	// Returns ErrInvalidInput when the memory has no id.
	CreateMemory(ctx context.Context, memory *types.Memory) error

	// GetMemory retrieves a memory by id.
	// Returns ErrNotFound if the memory doesn't exist.
	GetMemory(ctx context.Context, id string) (*types.Memory, error)

	// UpdateMemoryScores writes learning-derived fields back to a memory:
	// effectiveness, confidence, and optionally a usage bump (usage_count+1,
	// last_used_at=now). Returns ErrNotFound if the memory doesn't exist.
	UpdateMemoryScores(ctx context.Context, id string, update ScoreUpdate) error

	// MemoryIDsWithOutcomes returns the ids of every memory that has at
	// least one recorded outcome. The maintenance sweep iterates this set.
	MemoryIDsWithOutcomes(ctx context.Context) ([]string, error)
}

// RelationshipStore provides edge-level operations between memories.
type RelationshipStore interface {
	// CreateRelationship persists a new edge. The endpoints must already
	// exist; returns ErrNotFound when either side is missing.
	CreateRelationship(ctx context.Context, rel *types.Relationship) error

	// UpdateRelationship writes reinforced properties (strength, confidence,
	// counters, success rate) back to an existing edge.
	// Returns ErrNotFound if the edge doesn't exist.
	UpdateRelationship(ctx context.Context, rel *types.Relationship) error

	// RelationshipsBetween returns every edge connecting the two memories,
	// in either direction. Returns an empty slice when none exist.
	RelationshipsBetween(ctx context.Context, firstID, secondID string) ([]*types.Relationship, error)

	// RelatedMemoryIDs returns the ids of memories reachable from the given
	// memory over one hop of any of the named edge kinds (taxonomy types or
	// structural kinds such as DERIVED_FROM). Direction is outbound from id.
	RelatedMemoryIDs(ctx context.Context, id string, kinds ...string) ([]string, error)
}

// VersionStore provides the supersede transition and chain traversal.
//
// Implementations must make SupersedeMemory atomic per lineage (a
// transaction or a single guarded statement): two racing supersedes of the
// same current version must not both succeed, or the chain's single-current
// invariant breaks. The core does not add its own locking.
type VersionStore interface {
	// SupersedeMemory atomically creates next as a new node, links it to the
	// old version via a PREVIOUS edge, and flips currency: old.is_current
	// becomes false with superseded_by set, next.is_current becomes true.
	// Returns ErrNoEffect when oldID matched no current memory.
	SupersedeMemory(ctx context.Context, oldID string, next *types.Memory) error

	// VersionChain returns every version in the chain containing id (which
	// may be any version, not just the head), ordered most recent first.
	// Traversal is depth-limited to maxDepth hops in each direction and
	// truncates silently on malformed cycles. Returns ErrNotFound when id
	// does not exist.
	VersionChain(ctx context.Context, id string, maxDepth int) ([]*types.Memory, error)
}

// OutcomeStore provides append-only outcome recording and aggregates.
type OutcomeStore interface {
	// CreateOutcome persists an outcome node linked from its memory via a
	// RESULTED_IN edge. Returns ErrNotFound when the memory is missing.
	CreateOutcome(ctx context.Context, outcome *types.Outcome) error

	// OutcomeStats returns aggregate outcome counts for a memory. A memory
	// with no outcomes yields zero counts, not an error.
	OutcomeStats(ctx context.Context, memoryID string) (OutcomeStats, error)

	// ListOutcomes returns every outcome recorded for a memory, ordered by
	// timestamp ascending. The decay recompute consumes this.
	ListOutcomes(ctx context.Context, memoryID string) ([]*types.Outcome, error)
}

// EntityStore tracks which memories mention which named entities.
type EntityStore interface {
	// RecordEntityMention links a memory to an entity name at a point in
	// time. Recording the same (entity, memory) pair twice is a no-op.
	RecordEntityMention(ctx context.Context, entity, memoryID string, mention EntityMention) error

	// EntityMentions returns the mention timeline for an entity, ordered by
	// timestamp ascending. Returns an empty slice for unknown entities.
	EntityMentions(ctx context.Context, entity string) ([]EntityMention, error)
}

// Store is the full backend surface the learning core consumes.
type Store interface {
	MemoryStore
	RelationshipStore
	VersionStore
	OutcomeStore
	EntityStore

	// Close releases any resources held by the store.
	Close() error
}
