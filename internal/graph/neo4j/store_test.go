package neo4j_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldane/mnemograph/internal/graph"
	"github.com/haldane/mnemograph/internal/graph/neo4j"
	"github.com/haldane/mnemograph/pkg/types"
)

// neo4jTestConfig returns connection settings for the test server.
// If MNEMO_TEST_NEO4J_URI is not set, tests are skipped.
func neo4jTestConfig(t *testing.T) neo4j.Config {
	t.Helper()

	uri := os.Getenv("MNEMO_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("MNEMO_TEST_NEO4J_URI not set; skipping Neo4j integration tests")
	}

	username := os.Getenv("MNEMO_TEST_NEO4J_USERNAME")
	if username == "" {
		username = "neo4j"
	}
	return neo4j.Config{
		URI:      uri,
		Username: username,
		Password: os.Getenv("MNEMO_TEST_NEO4J_PASSWORD"),
		Database: os.Getenv("MNEMO_TEST_NEO4J_DATABASE"),
	}
}

// newTestStore connects to the test server, installs constraints and wipes
// any nodes left behind by earlier runs.
func newTestStore(t *testing.T) *neo4j.Store {
	t.Helper()

	ctx := context.Background()
	store, err := neo4j.New(ctx, neo4jTestConfig(t), nil)
	require.NoError(t, err, "New should succeed")
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.CleanForTest(ctx), "clean database")
	return store
}

func testMemory(id, title string) *types.Memory {
	now := time.Now().UTC().Truncate(time.Second)
	return &types.Memory{
		ID:         id,
		Type:       types.MemoryTypeSolution,
		Title:      title,
		Content:    "content of " + title,
		Importance: 0.5,
		Confidence: 0.5,
		IsCurrent:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	mem := testMemory("mem-1", "cache the lookup")
	mem.Summary = "lookup dominated the profile"
	mem.Tags = []string{"cache", "latency"}
	mem.Context = types.Context{"project": "ingest", "files": []interface{}{"lookup.go"}}
	mem.Embedding = []float32{0.25, 0.5, 0.75}
	mem.Effectiveness = 0.8
	mem.UsageCount = 3
	mem.LastUsedAt = &now

	require.NoError(t, store.CreateMemory(ctx, mem))

	got, err := store.GetMemory(ctx, "mem-1")
	require.NoError(t, err)

	assert.Equal(t, mem.ID, got.ID)
	assert.Equal(t, types.MemoryTypeSolution, got.Type)
	assert.Equal(t, mem.Title, got.Title)
	assert.Equal(t, mem.Content, got.Content)
	assert.Equal(t, mem.Summary, got.Summary)
	assert.Equal(t, mem.Tags, got.Tags)
	assert.Equal(t, "ingest", got.Context["project"])
	assert.Equal(t, mem.Embedding, got.Embedding)
	assert.InDelta(t, 0.8, got.Effectiveness, 1e-9)
	assert.Equal(t, 3, got.UsageCount)
	require.NotNil(t, got.LastUsedAt)
	assert.True(t, got.LastUsedAt.Equal(now), "LastUsedAt: got %v, want %v", got.LastUsedAt, now)
	assert.True(t, got.IsCurrent)

	_, err = store.GetMemory(ctx, "nope")
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestUpdateMemoryScores(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateMemory(ctx, testMemory("mem-1", "batch the writes")))

	err := store.UpdateMemoryScores(ctx, "mem-1", graph.ScoreUpdate{
		Effectiveness: 0.9,
		Confidence:    0.4,
		RecordUsage:   true,
	})
	require.NoError(t, err)

	got, err := store.GetMemory(ctx, "mem-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, got.Effectiveness, 1e-9)
	assert.InDelta(t, 0.4, got.Confidence, 1e-9)
	assert.Equal(t, 1, got.UsageCount)
	assert.NotNil(t, got.LastUsedAt)

	err = store.UpdateMemoryScores(ctx, "ghost", graph.ScoreUpdate{Effectiveness: 0.5})
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestRelationships(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateMemory(ctx, testMemory("mem-a", "problem")))
	require.NoError(t, store.CreateMemory(ctx, testMemory("mem-b", "solution")))

	rel := types.NewRelationship("mem-b", "mem-a", types.RelSolves, types.RelationshipProperties{
		Strength:   0.8,
		Confidence: 0.6,
		Context:    "observed in review",
	})
	require.NoError(t, store.CreateRelationship(ctx, rel))

	// Missing endpoint is rejected; unregistered types never reach Cypher.
	ghost := types.NewRelationship("mem-b", "mem-z", types.RelSolves, types.RelationshipProperties{})
	assert.ErrorIs(t, store.CreateRelationship(ctx, ghost), graph.ErrNotFound)
	bogus := types.NewRelationship("mem-b", "mem-a", types.RelationshipType("SOLVES) DETACH DELETE"), types.RelationshipProperties{})
	assert.ErrorIs(t, store.CreateRelationship(ctx, bogus), graph.ErrInvalidInput)

	rels, err := store.RelationshipsBetween(ctx, "mem-a", "mem-b")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, rel.ID, rels[0].ID)
	assert.Equal(t, types.RelSolves, rels[0].Type)
	assert.Equal(t, "mem-b", rels[0].FromID)
	assert.Equal(t, "mem-a", rels[0].ToID)
	assert.Nil(t, rels[0].SuccessRate)

	rate := 1.0
	rels[0].SuccessRate = &rate
	rels[0].EvidenceCount = 2
	require.NoError(t, store.UpdateRelationship(ctx, rels[0]))

	rels, err = store.RelationshipsBetween(ctx, "mem-b", "mem-a")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	require.NotNil(t, rels[0].SuccessRate)
	assert.InDelta(t, 1.0, *rels[0].SuccessRate, 1e-9)
	assert.Equal(t, 2, rels[0].EvidenceCount)
}

func TestRelatedMemoryIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"pattern-1", "mem-1", "mem-2", "mem-3"} {
		require.NoError(t, store.CreateMemory(ctx, testMemory(id, id)))
	}
	require.NoError(t, store.CreateRelationship(ctx,
		types.NewRelationship("pattern-1", "mem-1", types.RelDerivedFrom, types.RelationshipProperties{})))
	require.NoError(t, store.CreateRelationship(ctx,
		types.NewRelationship("pattern-1", "mem-2", types.RelUses, types.RelationshipProperties{})))
	require.NoError(t, store.CreateRelationship(ctx,
		types.NewRelationship("pattern-1", "mem-3", types.RelRelatedTo, types.RelationshipProperties{})))

	ids, err := store.RelatedMemoryIDs(ctx, "pattern-1", graph.PatternEdgeKinds...)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mem-1", "mem-2"}, ids)

	ids, err = store.RelatedMemoryIDs(ctx, "pattern-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSupersedeMemory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateMemory(ctx, testMemory("v1", "first attempt")))

	v2 := testMemory("v2", "second attempt")
	v2.PreviousID = "v1"
	require.NoError(t, store.SupersedeMemory(ctx, "v1", v2))

	old, err := store.GetMemory(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, old.IsCurrent)
	assert.Equal(t, "v2", old.SupersededBy)

	// Superseding a retired version has no effect and must not insert.
	v3 := testMemory("v3", "third attempt")
	v3.PreviousID = "v1"
	assert.ErrorIs(t, store.SupersedeMemory(ctx, "v1", v3), graph.ErrNoEffect)
	_, err = store.GetMemory(ctx, "v3")
	assert.ErrorIs(t, err, graph.ErrNotFound)

	// Version links are plumbing, not semantic edges.
	rels, err := store.RelationshipsBetween(ctx, "v1", "v2")
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestVersionChain(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateMemory(ctx, testMemory("v1", "first")))
	v2 := testMemory("v2", "second")
	v2.PreviousID = "v1"
	require.NoError(t, store.SupersedeMemory(ctx, "v1", v2))
	v3 := testMemory("v3", "third")
	v3.PreviousID = "v2"
	require.NoError(t, store.SupersedeMemory(ctx, "v2", v3))

	// Any chain member walks to the same newest-first listing.
	for _, start := range []string{"v1", "v2", "v3"} {
		chain, err := store.VersionChain(ctx, start, 10)
		require.NoError(t, err, "start at %s", start)
		require.Len(t, chain, 3, "start at %s", start)
		assert.Equal(t, "v3", chain[0].ID)
		assert.Equal(t, "v2", chain[1].ID)
		assert.Equal(t, "v1", chain[2].ID)
	}

	chain, err := store.VersionChain(ctx, "v3", 2)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "v3", chain[0].ID)
	assert.Equal(t, "v2", chain[1].ID)

	_, err = store.VersionChain(ctx, "missing", 10)
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestOutcomes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateMemory(ctx, testMemory("mem-1", "rollback first")))

	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	for i, success := range []bool{true, true, false} {
		outcome := types.NewOutcome("mem-1", "", success)
		outcome.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.CreateOutcome(ctx, outcome))
	}

	orphan := types.NewOutcome("ghost", "", true)
	assert.ErrorIs(t, store.CreateOutcome(ctx, orphan), graph.ErrNotFound)

	stats, err := store.OutcomeStats(ctx, "mem-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 1, stats.Failed)
	require.NotNil(t, stats.LastOutcomeAt)
	assert.True(t, stats.LastOutcomeAt.Equal(base.Add(2*time.Minute)))

	outcomes, err := store.ListOutcomes(ctx, "mem-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Timestamp.Equal(base))
	assert.False(t, outcomes[2].Success)

	stats, err = store.OutcomeStats(ctx, "unknown")
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Nil(t, stats.LastOutcomeAt)

	ids, err := store.MemoryIDsWithOutcomes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mem-1"}, ids)
}

func TestEntityMentions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateMemory(ctx, testMemory("mem-1", "pin the driver version")))

	first := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	mention := graph.EntityMention{
		Entity:      "bolt",
		MemoryID:    "mem-1",
		MemoryTitle: "pin the driver version",
		Timestamp:   first,
	}
	require.NoError(t, store.RecordEntityMention(ctx, "bolt", "mem-1", mention))

	// Duplicate pair is a no-op; the first timestamp wins.
	mention.Timestamp = first.Add(time.Hour)
	require.NoError(t, store.RecordEntityMention(ctx, "bolt", "mem-1", mention))

	mentions, err := store.EntityMentions(ctx, "bolt")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, "mem-1", mentions[0].MemoryID)
	assert.Equal(t, "pin the driver version", mentions[0].MemoryTitle)
	assert.True(t, mentions[0].Timestamp.Equal(first))

	assert.ErrorIs(t,
		store.RecordEntityMention(ctx, "bolt", "ghost", graph.EntityMention{Entity: "bolt", MemoryID: "ghost"}),
		graph.ErrNotFound)

	mentions, err = store.EntityMentions(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, mentions)
}
