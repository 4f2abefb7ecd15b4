package engine

import (
	"context"
	"sort"
	"time"

	"github.com/haldane/mnemograph/internal/graph"
	"github.com/haldane/mnemograph/pkg/types"
)

// mockGraphStore implements the graph backend slices the engines consume,
// backed by in-memory maps with injectable errors per operation.
type mockGraphStore struct {
	memories      map[string]*types.Memory
	outcomes      map[string][]*types.Outcome
	relationships []*types.Relationship
	patterns      map[string][]string
	mentions      map[string][]graph.EntityMention

	// scoreWrites records every UpdateMemoryScores call by memory id.
	scoreWrites map[string][]graph.ScoreUpdate

	getErr           error
	updateScoresErr  error
	supersedeErr     error
	chainErr         error
	createOutcomeErr error
	statsErr         error
	listOutcomesErr  error
	relatedErr       error
	mentionsErr      error
}

func newMockGraphStore() *mockGraphStore {
	return &mockGraphStore{
		memories:    make(map[string]*types.Memory),
		outcomes:    make(map[string][]*types.Outcome),
		patterns:    make(map[string][]string),
		mentions:    make(map[string][]graph.EntityMention),
		scoreWrites: make(map[string][]graph.ScoreUpdate),
	}
}

func (m *mockGraphStore) CreateMemory(ctx context.Context, memory *types.Memory) error {
	if memory.ID == "" {
		return graph.ErrInvalidInput
	}
	m.memories[memory.ID] = memory
	return nil
}

func (m *mockGraphStore) GetMemory(ctx context.Context, id string) (*types.Memory, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	mem, ok := m.memories[id]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return mem, nil
}

func (m *mockGraphStore) UpdateMemoryScores(ctx context.Context, id string, update graph.ScoreUpdate) error {
	if m.updateScoresErr != nil {
		return m.updateScoresErr
	}
	mem, ok := m.memories[id]
	if !ok {
		return graph.ErrNotFound
	}
	mem.Effectiveness = update.Effectiveness
	mem.Confidence = update.Confidence
	if update.RecordUsage {
		mem.UsageCount++
		now := time.Now().UTC()
		mem.LastUsedAt = &now
	}
	m.scoreWrites[id] = append(m.scoreWrites[id], update)
	return nil
}

func (m *mockGraphStore) MemoryIDsWithOutcomes(ctx context.Context) ([]string, error) {
	var ids []string
	for id, outcomes := range m.outcomes {
		if len(outcomes) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockGraphStore) CreateRelationship(ctx context.Context, rel *types.Relationship) error {
	m.relationships = append(m.relationships, rel)
	return nil
}

func (m *mockGraphStore) UpdateRelationship(ctx context.Context, rel *types.Relationship) error {
	for i, existing := range m.relationships {
		if existing.ID == rel.ID {
			m.relationships[i] = rel
			return nil
		}
	}
	return graph.ErrNotFound
}

func (m *mockGraphStore) RelationshipsBetween(ctx context.Context, firstID, secondID string) ([]*types.Relationship, error) {
	probe := &types.Relationship{FromID: firstID, ToID: secondID}
	var out []*types.Relationship
	for _, rel := range m.relationships {
		if rel.SamePair(probe) {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (m *mockGraphStore) RelatedMemoryIDs(ctx context.Context, id string, kinds ...string) ([]string, error) {
	if m.relatedErr != nil {
		return nil, m.relatedErr
	}
	return m.patterns[id], nil
}

func (m *mockGraphStore) SupersedeMemory(ctx context.Context, oldID string, next *types.Memory) error {
	if m.supersedeErr != nil {
		return m.supersedeErr
	}
	old, ok := m.memories[oldID]
	if !ok || !old.IsCurrent {
		return graph.ErrNoEffect
	}
	old.IsCurrent = false
	old.SupersededBy = next.ID
	m.memories[next.ID] = next
	return nil
}

func (m *mockGraphStore) VersionChain(ctx context.Context, id string, maxDepth int) ([]*types.Memory, error) {
	if m.chainErr != nil {
		return nil, m.chainErr
	}
	mem, ok := m.memories[id]
	if !ok {
		return nil, graph.ErrNotFound
	}

	// Walk forward to the chain head, then back through PREVIOUS links.
	head := mem
	for hops := 0; head.SupersededBy != "" && hops < maxDepth; hops++ {
		next, ok := m.memories[head.SupersededBy]
		if !ok {
			break
		}
		head = next
	}

	var chain []*types.Memory
	seen := make(map[string]bool)
	for cur := head; cur != nil && !seen[cur.ID] && len(chain) < maxDepth; {
		seen[cur.ID] = true
		chain = append(chain, cur)
		if cur.PreviousID == "" {
			break
		}
		cur = m.memories[cur.PreviousID]
	}
	return chain, nil
}

func (m *mockGraphStore) CreateOutcome(ctx context.Context, outcome *types.Outcome) error {
	if m.createOutcomeErr != nil {
		return m.createOutcomeErr
	}
	if _, ok := m.memories[outcome.MemoryID]; !ok {
		return graph.ErrNotFound
	}
	m.outcomes[outcome.MemoryID] = append(m.outcomes[outcome.MemoryID], outcome)
	return nil
}

func (m *mockGraphStore) OutcomeStats(ctx context.Context, memoryID string) (graph.OutcomeStats, error) {
	if m.statsErr != nil {
		return graph.OutcomeStats{}, m.statsErr
	}
	var stats graph.OutcomeStats
	for _, outcome := range m.outcomes[memoryID] {
		stats.Total++
		if outcome.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
		ts := outcome.Timestamp
		if stats.LastOutcomeAt == nil || ts.After(*stats.LastOutcomeAt) {
			stats.LastOutcomeAt = &ts
		}
	}
	return stats, nil
}

func (m *mockGraphStore) ListOutcomes(ctx context.Context, memoryID string) ([]*types.Outcome, error) {
	if m.listOutcomesErr != nil {
		return nil, m.listOutcomesErr
	}
	return m.outcomes[memoryID], nil
}

func (m *mockGraphStore) RecordEntityMention(ctx context.Context, entity, memoryID string, mention graph.EntityMention) error {
	m.mentions[entity] = append(m.mentions[entity], mention)
	return nil
}

func (m *mockGraphStore) EntityMentions(ctx context.Context, entity string) ([]graph.EntityMention, error) {
	if m.mentionsErr != nil {
		return nil, m.mentionsErr
	}
	return m.mentions[entity], nil
}

func (m *mockGraphStore) Close() error { return nil }

// Interface checks: the mock must satisfy every backend slice the engines
// consume.
var (
	_ ChainBackend    = (*mockGraphStore)(nil)
	_ LearningBackend = (*mockGraphStore)(nil)
	_ DecayBackend    = (*mockGraphStore)(nil)
	_ graph.Store     = (*mockGraphStore)(nil)
)
