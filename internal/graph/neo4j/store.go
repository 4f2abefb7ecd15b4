// Package neo4j provides a Neo4j implementation of graph.Store speaking
// Cypher over Bolt. Memories and outcomes are nodes; relationships, version
// links, outcome links and entity mentions are typed edges.
package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/haldane/mnemograph/internal/graph"
	"github.com/haldane/mnemograph/pkg/types"
)

// Config contains connection settings for a Neo4j server.
type Config struct {
	URI      string // Bolt URI, e.g. bolt://localhost:7687
	Username string
	Password string
	Database string // empty selects the server default database
}

// Store implements graph.Store against a Neo4j server. Every query runs in a
// fresh session through a circuit breaker; after consecutive failures calls
// fail fast with graph.ErrBreakerOpen instead of waiting on a dead server.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
	breaker  *graph.Breaker
	registry *types.RelationshipRegistry
}

var _ graph.Store = (*Store)(nil)

// New connects to the server, verifies connectivity and installs the schema
// constraints.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: neo4j URI is required", graph.ErrInvalidInput)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: failed to verify connectivity: %w", err)
	}

	s := &Store{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
		breaker:  graph.NewBreaker("neo4j", graph.BreakerConfig{}, logger),
		registry: types.NewRelationshipRegistry(),
	}
	if err := s.EnsureSchema(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	logger.Debug("neo4j store ready", zap.String("uri", cfg.URI), zap.String("database", cfg.Database))
	return s, nil
}

// EnsureSchema installs the uniqueness constraints the store relies on. It is
// idempotent and safe to run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	constraints := []string{
		"CREATE CONSTRAINT memory_id_unique IF NOT EXISTS FOR (m:Memory) REQUIRE m.id IS UNIQUE",
		"CREATE CONSTRAINT outcome_id_unique IF NOT EXISTS FOR (o:Outcome) REQUIRE o.id IS UNIQUE",
		"CREATE CONSTRAINT entity_name_unique IF NOT EXISTS FOR (e:Entity) REQUIRE e.name IS UNIQUE",
	}
	for _, constraint := range constraints {
		if _, err := s.run(ctx, neo4j.AccessModeWrite, constraint, nil, nil); err != nil {
			return fmt.Errorf("neo4j: failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Close shuts down the driver and its connection pool.
func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

// run executes one Cypher query in a fresh session, streams every record
// through collect, and returns the number of records seen. All access to the
// server funnels through here so the circuit breaker sees every query.
func (s *Store) run(ctx context.Context, mode neo4j.AccessMode, query string, params map[string]interface{}, collect func(*neo4j.Record) error) (int, error) {
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		session := s.driver.NewSession(ctx, neo4j.SessionConfig{
			AccessMode:   mode,
			DatabaseName: s.database,
		})
		defer session.Close(ctx)

		rows, err := session.Run(ctx, query, params)
		if err != nil {
			return 0, err
		}
		seen := 0
		for rows.Next(ctx) {
			if collect != nil {
				if err := collect(rows.Record()); err != nil {
					return seen, err
				}
			}
			seen++
		}
		return seen, rows.Err()
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

// memoryProps is the property map every memory write uses; parameter names
// match memoryParams.
const memoryProps = `{
		id: $id, type: $type, title: $title, content: $content,
		summary: $summary, tags: $tags, context_json: $contextJSON,
		embedding: $embedding, importance: $importance, confidence: $confidence,
		effectiveness: $effectiveness, usage_count: $usageCount,
		last_used_at: $lastUsedAt, is_current: $isCurrent,
		previous_id: $previousID, superseded_by: $supersededBy,
		created_at: $createdAt, updated_at: $updatedAt
	}`

// memoryReturn is the projection every memory read uses, in the field order
// recordToMemory expects. The queried node must be bound as m.
const memoryReturn = `
	RETURN m.id AS id, m.type AS type, m.title AS title, m.content AS content,
	       m.summary AS summary, m.tags AS tags, m.context_json AS context_json,
	       m.embedding AS embedding, m.importance AS importance,
	       m.confidence AS confidence, m.effectiveness AS effectiveness,
	       m.usage_count AS usage_count, m.last_used_at AS last_used_at,
	       m.is_current AS is_current, m.previous_id AS previous_id,
	       m.superseded_by AS superseded_by, m.created_at AS created_at,
	       m.updated_at AS updated_at`

// memoryParams builds the parameter map matching memoryProps.
func memoryParams(memory *types.Memory) (map[string]interface{}, error) {
	var contextJSON string
	if memory.Context != nil {
		raw, err := json.Marshal(memory.Context)
		if err != nil {
			return nil, fmt.Errorf("neo4j: failed to marshal context: %w", err)
		}
		contextJSON = string(raw)
	}

	return map[string]interface{}{
		"id":            memory.ID,
		"type":          string(memory.Type),
		"title":         memory.Title,
		"content":       memory.Content,
		"summary":       nullString(memory.Summary),
		"tags":          stringSlice(memory.Tags),
		"contextJSON":   nullString(contextJSON),
		"embedding":     floatSlice(memory.Embedding),
		"importance":    memory.Importance,
		"confidence":    memory.Confidence,
		"effectiveness": memory.Effectiveness,
		"usageCount":    memory.UsageCount,
		"lastUsedAt":    nullTime(memory.LastUsedAt),
		"isCurrent":     memory.IsCurrent,
		"previousID":    nullString(memory.PreviousID),
		"supersededBy":  nullString(memory.SupersededBy),
		"createdAt":     memory.CreatedAt.UTC(),
		"updatedAt":     memory.UpdatedAt.UTC(),
	}, nil
}

// CreateMemory persists a new memory node.
func (s *Store) CreateMemory(ctx context.Context, memory *types.Memory) error {
	if memory == nil || memory.ID == "" {
		return fmt.Errorf("%w: memory ID is required", graph.ErrInvalidInput)
	}

	memory.ClampScores()
	now := time.Now().UTC()
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = now
	}
	if memory.UpdatedAt.IsZero() {
		memory.UpdatedAt = now
	}

	params, err := memoryParams(memory)
	if err != nil {
		return err
	}
	if _, err := s.run(ctx, neo4j.AccessModeWrite, `CREATE (m:Memory `+memoryProps+`)`, params, nil); err != nil {
		return fmt.Errorf("neo4j: failed to create memory: %w", err)
	}
	return nil
}

// GetMemory retrieves a memory by id.
func (s *Store) GetMemory(ctx context.Context, id string) (*types.Memory, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", graph.ErrInvalidInput)
	}

	var memory *types.Memory
	n, err := s.run(ctx, neo4j.AccessModeRead,
		`MATCH (m:Memory {id: $id})`+memoryReturn,
		map[string]interface{}{"id": id},
		func(record *neo4j.Record) error {
			m, err := recordToMemory(record)
			if err != nil {
				return err
			}
			memory = m
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to get memory: %w", err)
	}
	if n == 0 {
		return nil, graph.ErrNotFound
	}
	return memory, nil
}

// UpdateMemoryScores writes learning-derived fields back to a memory.
func (s *Store) UpdateMemoryScores(ctx context.Context, id string, update graph.ScoreUpdate) error {
	if id == "" {
		return fmt.Errorf("%w: memory ID is required", graph.ErrInvalidInput)
	}

	query := `
		MATCH (m:Memory {id: $id})
		SET m.effectiveness = $effectiveness, m.confidence = $confidence, m.updated_at = $now
		RETURN m.id`
	if update.RecordUsage {
		query = `
		MATCH (m:Memory {id: $id})
		SET m.effectiveness = $effectiveness, m.confidence = $confidence,
		    m.usage_count = m.usage_count + 1, m.last_used_at = $now, m.updated_at = $now
		RETURN m.id`
	}

	n, err := s.run(ctx, neo4j.AccessModeWrite, query, map[string]interface{}{
		"id":            id,
		"effectiveness": update.Effectiveness,
		"confidence":    update.Confidence,
		"now":           time.Now().UTC(),
	}, nil)
	if err != nil {
		return fmt.Errorf("neo4j: failed to update memory scores: %w", err)
	}
	if n == 0 {
		return graph.ErrNotFound
	}
	return nil
}

// MemoryIDsWithOutcomes returns the ids of every memory with at least one
// recorded outcome.
func (s *Store) MemoryIDsWithOutcomes(ctx context.Context) ([]string, error) {
	var ids []string
	_, err := s.run(ctx, neo4j.AccessModeRead, `
		MATCH (m:Memory)-[:RESULTED_IN]->(:Outcome)
		RETURN DISTINCT m.id AS id
		ORDER BY id`,
		nil,
		func(record *neo4j.Record) error {
			ids = append(ids, getStringFromRecord(record, "id"))
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to list memories with outcomes: %w", err)
	}
	return ids, nil
}

// CreateRelationship persists a new edge between two existing memories. The
// relationship type becomes the Cypher edge type; Cypher cannot parameterize
// edge types, so only registered types are interpolated into the query.
func (s *Store) CreateRelationship(ctx context.Context, rel *types.Relationship) error {
	if rel == nil || rel.ID == "" || rel.FromID == "" || rel.ToID == "" {
		return fmt.Errorf("%w: relationship ID and endpoints are required", graph.ErrInvalidInput)
	}
	if !s.registry.Contains(rel.Type) {
		return fmt.Errorf("%w: unregistered relationship type %q", graph.ErrInvalidInput, rel.Type)
	}

	now := time.Now().UTC()
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = now
	}
	if rel.UpdatedAt.IsZero() {
		rel.UpdatedAt = now
	}

	query := fmt.Sprintf(`
		MATCH (from:Memory {id: $fromID}), (to:Memory {id: $toID})
		CREATE (from)-[r:%s {
			id: $id, strength: $strength, confidence: $confidence, context: $context,
			evidence_count: $evidenceCount, validation_count: $validationCount,
			counter_evidence_count: $counterEvidenceCount, success_rate: $successRate,
			created_at: $createdAt, updated_at: $updatedAt
		}]->(to)
		RETURN r.id`, rel.Type)

	n, err := s.run(ctx, neo4j.AccessModeWrite, query, map[string]interface{}{
		"fromID":               rel.FromID,
		"toID":                 rel.ToID,
		"id":                   rel.ID,
		"strength":             rel.Strength,
		"confidence":           rel.Confidence,
		"context":              nullString(rel.Context),
		"evidenceCount":        rel.EvidenceCount,
		"validationCount":      rel.ValidationCount,
		"counterEvidenceCount": rel.CounterEvidenceCount,
		"successRate":          nullFloat(rel.SuccessRate),
		"createdAt":            rel.CreatedAt.UTC(),
		"updatedAt":            rel.UpdatedAt.UTC(),
	}, nil)
	if err != nil {
		return fmt.Errorf("neo4j: failed to create relationship: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: relationship endpoint missing", graph.ErrNotFound)
	}
	return nil
}

// UpdateRelationship writes reinforced properties back to an existing edge.
func (s *Store) UpdateRelationship(ctx context.Context, rel *types.Relationship) error {
	if rel == nil || rel.ID == "" {
		return fmt.Errorf("%w: relationship ID is required", graph.ErrInvalidInput)
	}

	n, err := s.run(ctx, neo4j.AccessModeWrite, `
		MATCH (:Memory)-[r {id: $id}]->(:Memory)
		SET r.strength = $strength, r.confidence = $confidence, r.context = $context,
		    r.evidence_count = $evidenceCount, r.validation_count = $validationCount,
		    r.counter_evidence_count = $counterEvidenceCount, r.success_rate = $successRate,
		    r.updated_at = $now
		RETURN r.id`,
		map[string]interface{}{
			"id":                   rel.ID,
			"strength":             rel.Strength,
			"confidence":           rel.Confidence,
			"context":              nullString(rel.Context),
			"evidenceCount":        rel.EvidenceCount,
			"validationCount":      rel.ValidationCount,
			"counterEvidenceCount": rel.CounterEvidenceCount,
			"successRate":          nullFloat(rel.SuccessRate),
			"now":                  time.Now().UTC(),
		}, nil)
	if err != nil {
		return fmt.Errorf("neo4j: failed to update relationship: %w", err)
	}
	if n == 0 {
		return graph.ErrNotFound
	}
	return nil
}

// RelationshipsBetween returns every semantic edge connecting the two
// memories, in either direction, oldest first. PREVIOUS edges are version
// plumbing and excluded.
func (s *Store) RelationshipsBetween(ctx context.Context, firstID, secondID string) ([]*types.Relationship, error) {
	var rels []*types.Relationship
	_, err := s.run(ctx, neo4j.AccessModeRead, `
		MATCH (a:Memory {id: $firstID})-[r]-(b:Memory {id: $secondID})
		WHERE type(r) <> 'PREVIOUS'
		RETURN r.id AS id, startNode(r).id AS from_id, endNode(r).id AS to_id,
		       type(r) AS type, r.strength AS strength, r.confidence AS confidence,
		       r.context AS context, r.evidence_count AS evidence_count,
		       r.validation_count AS validation_count,
		       r.counter_evidence_count AS counter_evidence_count,
		       r.success_rate AS success_rate,
		       r.created_at AS created_at, r.updated_at AS updated_at
		ORDER BY created_at, id`,
		map[string]interface{}{"firstID": firstID, "secondID": secondID},
		func(record *neo4j.Record) error {
			rels = append(rels, recordToRelationship(record))
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to query relationships: %w", err)
	}
	return rels, nil
}

// RelatedMemoryIDs returns memories reachable from id over one outbound hop
// of any of the named edge kinds.
func (s *Store) RelatedMemoryIDs(ctx context.Context, id string, kinds ...string) ([]string, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", graph.ErrInvalidInput)
	}
	if len(kinds) == 0 {
		return nil, nil
	}

	var ids []string
	_, err := s.run(ctx, neo4j.AccessModeRead, `
		MATCH (m:Memory {id: $id})-[r]->(related:Memory)
		WHERE type(r) IN $kinds
		RETURN DISTINCT related.id AS id
		ORDER BY id`,
		map[string]interface{}{"id": id, "kinds": kinds},
		func(record *neo4j.Record) error {
			ids = append(ids, getStringFromRecord(record, "id"))
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to query related memories: %w", err)
	}
	return ids, nil
}

// SupersedeMemory atomically retires the old current version, creates the
// next one and links them with a PREVIOUS edge. The is_current guard keeps
// racing supersedes of the same version from both succeeding; the single
// statement runs in one auto-commit transaction.
func (s *Store) SupersedeMemory(ctx context.Context, oldID string, next *types.Memory) error {
	if oldID == "" || next == nil || next.ID == "" {
		return fmt.Errorf("%w: old ID and next version are required", graph.ErrInvalidInput)
	}

	params, err := memoryParams(next)
	if err != nil {
		return err
	}
	params["oldID"] = oldID
	params["now"] = time.Now().UTC()

	n, err := s.run(ctx, neo4j.AccessModeWrite, `
		MATCH (old:Memory {id: $oldID})
		WHERE old.is_current
		SET old.is_current = false, old.superseded_by = $id, old.updated_at = $now
		WITH old
		CREATE (next:Memory `+memoryProps+`)
		CREATE (next)-[:PREVIOUS]->(old)
		RETURN next.id`, params, nil)
	if err != nil {
		return fmt.Errorf("neo4j: failed to supersede memory: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: no current memory %s", graph.ErrNoEffect, oldID)
	}
	return nil
}

// VersionChain returns every version in the chain containing id, most recent
// first. The variable-length traversal carries a literal depth bound; cycles
// cannot recurse because a path never reuses a relationship.
func (s *Store) VersionChain(ctx context.Context, id string, maxDepth int) ([]*types.Memory, error) {
	if _, err := s.GetMemory(ctx, id); err != nil {
		return nil, err
	}
	if maxDepth < 1 {
		maxDepth = 1
	}

	// Climb to the newest version reachable within maxDepth hops, then list
	// the chain downward from it, newest first.
	query := fmt.Sprintf(`
		MATCH up = (head:Memory)-[:PREVIOUS*0..%d]->(:Memory {id: $id})
		WITH head, length(up) AS climbed
		ORDER BY climbed DESC
		LIMIT 1
		MATCH down = (head)-[:PREVIOUS*0..%d]->(v:Memory)
		WITH v AS m, length(down) AS depth
		ORDER BY depth
		LIMIT %d`, maxDepth, maxDepth-1, maxDepth) + memoryReturn

	var chain []*types.Memory
	_, err := s.run(ctx, neo4j.AccessModeRead, query,
		map[string]interface{}{"id": id},
		func(record *neo4j.Record) error {
			m, err := recordToMemory(record)
			if err != nil {
				return err
			}
			chain = append(chain, m)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to walk version chain: %w", err)
	}
	return chain, nil
}

// CreateOutcome persists an outcome event linked to its memory with a
// RESULTED_IN edge.
func (s *Store) CreateOutcome(ctx context.Context, outcome *types.Outcome) error {
	if outcome == nil || outcome.ID == "" || outcome.MemoryID == "" {
		return fmt.Errorf("%w: outcome ID and memory ID are required", graph.ErrInvalidInput)
	}

	var contextJSON string
	if outcome.Context != nil {
		raw, err := json.Marshal(outcome.Context)
		if err != nil {
			return fmt.Errorf("neo4j: failed to marshal outcome context: %w", err)
		}
		contextJSON = string(raw)
	}
	if outcome.Timestamp.IsZero() {
		outcome.Timestamp = time.Now().UTC()
	}

	n, err := s.run(ctx, neo4j.AccessModeWrite, `
		MATCH (m:Memory {id: $memoryID})
		CREATE (m)-[:RESULTED_IN]->(o:Outcome {
			id: $id, memory_id: $memoryID, success: $success,
			description: $description, context_json: $contextJSON,
			impact: $impact, timestamp: $timestamp
		})
		RETURN o.id`,
		map[string]interface{}{
			"memoryID":    outcome.MemoryID,
			"id":          outcome.ID,
			"success":     outcome.Success,
			"description": nullString(outcome.Description),
			"contextJSON": nullString(contextJSON),
			"impact":      outcome.Impact,
			"timestamp":   outcome.Timestamp.UTC(),
		}, nil)
	if err != nil {
		return fmt.Errorf("neo4j: failed to create outcome: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: memory %s", graph.ErrNotFound, outcome.MemoryID)
	}
	return nil
}

// OutcomeStats returns aggregate outcome counts for a memory.
func (s *Store) OutcomeStats(ctx context.Context, memoryID string) (graph.OutcomeStats, error) {
	if memoryID == "" {
		return graph.OutcomeStats{}, fmt.Errorf("%w: memory ID is required", graph.ErrInvalidInput)
	}

	var stats graph.OutcomeStats
	_, err := s.run(ctx, neo4j.AccessModeRead, `
		MATCH (:Memory {id: $memoryID})-[:RESULTED_IN]->(o:Outcome)
		RETURN count(o) AS total,
		       sum(CASE WHEN o.success THEN 1 ELSE 0 END) AS successful,
		       max(o.timestamp) AS last_outcome_at`,
		map[string]interface{}{"memoryID": memoryID},
		func(record *neo4j.Record) error {
			stats.Total = getIntFromRecord(record, "total")
			stats.Successful = getIntFromRecord(record, "successful")
			stats.Failed = stats.Total - stats.Successful
			stats.LastOutcomeAt = getTimePtrFromRecord(record, "last_outcome_at")
			return nil
		})
	if err != nil {
		return graph.OutcomeStats{}, fmt.Errorf("neo4j: failed to aggregate outcomes: %w", err)
	}
	return stats, nil
}

// ListOutcomes returns every outcome for a memory, oldest first.
func (s *Store) ListOutcomes(ctx context.Context, memoryID string) ([]*types.Outcome, error) {
	if memoryID == "" {
		return nil, fmt.Errorf("%w: memory ID is required", graph.ErrInvalidInput)
	}

	var outcomes []*types.Outcome
	_, err := s.run(ctx, neo4j.AccessModeRead, `
		MATCH (:Memory {id: $memoryID})-[:RESULTED_IN]->(o:Outcome)
		RETURN o.id AS id, o.memory_id AS memory_id, o.success AS success,
		       o.description AS description, o.context_json AS context_json,
		       o.impact AS impact, o.timestamp AS timestamp
		ORDER BY timestamp, id`,
		map[string]interface{}{"memoryID": memoryID},
		func(record *neo4j.Record) error {
			outcome, err := recordToOutcome(record)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, outcome)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to list outcomes: %w", err)
	}
	return outcomes, nil
}

// RecordEntityMention links a memory to an entity node with a MENTIONS edge.
// Duplicate pairs are a no-op; the first mention's properties win.
func (s *Store) RecordEntityMention(ctx context.Context, entity, memoryID string, mention graph.EntityMention) error {
	if entity == "" || memoryID == "" {
		return fmt.Errorf("%w: entity and memory ID are required", graph.ErrInvalidInput)
	}

	ts := mention.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	n, err := s.run(ctx, neo4j.AccessModeWrite, `
		MATCH (m:Memory {id: $memoryID})
		MERGE (e:Entity {name: $entity})
		MERGE (m)-[r:MENTIONS]->(e)
		ON CREATE SET r.memory_title = $memoryTitle, r.timestamp = $timestamp
		RETURN r`,
		map[string]interface{}{
			"memoryID":    memoryID,
			"entity":      entity,
			"memoryTitle": nullString(mention.MemoryTitle),
			"timestamp":   ts.UTC(),
		}, nil)
	if err != nil {
		return fmt.Errorf("neo4j: failed to record entity mention: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: memory %s", graph.ErrNotFound, memoryID)
	}
	return nil
}

// EntityMentions returns the mention timeline for an entity, oldest first.
func (s *Store) EntityMentions(ctx context.Context, entity string) ([]graph.EntityMention, error) {
	if entity == "" {
		return nil, fmt.Errorf("%w: entity is required", graph.ErrInvalidInput)
	}

	var mentions []graph.EntityMention
	_, err := s.run(ctx, neo4j.AccessModeRead, `
		MATCH (e:Entity {name: $entity})<-[r:MENTIONS]-(m:Memory)
		RETURN e.name AS entity, m.id AS memory_id,
		       r.memory_title AS memory_title, r.timestamp AS timestamp
		ORDER BY timestamp, memory_id`,
		map[string]interface{}{"entity": entity},
		func(record *neo4j.Record) error {
			mentions = append(mentions, graph.EntityMention{
				Entity:      getStringFromRecord(record, "entity"),
				MemoryID:    getStringFromRecord(record, "memory_id"),
				MemoryTitle: getStringFromRecord(record, "memory_title"),
				Timestamp:   getTimeFromRecord(record, "timestamp"),
			})
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to list entity mentions: %w", err)
	}
	return mentions, nil
}

// recordToMemory assembles a memory from a memoryReturn record.
func recordToMemory(record *neo4j.Record) (*types.Memory, error) {
	memory := &types.Memory{
		ID:            getStringFromRecord(record, "id"),
		Type:          types.MemoryType(getStringFromRecord(record, "type")),
		Title:         getStringFromRecord(record, "title"),
		Content:       getStringFromRecord(record, "content"),
		Summary:       getStringFromRecord(record, "summary"),
		Tags:          getStringSliceFromRecord(record, "tags"),
		Embedding:     getFloat32SliceFromRecord(record, "embedding"),
		Importance:    getFloatFromRecord(record, "importance"),
		Confidence:    getFloatFromRecord(record, "confidence"),
		Effectiveness: getFloatFromRecord(record, "effectiveness"),
		UsageCount:    getIntFromRecord(record, "usage_count"),
		LastUsedAt:    getTimePtrFromRecord(record, "last_used_at"),
		IsCurrent:     getBoolFromRecord(record, "is_current"),
		PreviousID:    getStringFromRecord(record, "previous_id"),
		SupersededBy:  getStringFromRecord(record, "superseded_by"),
		CreatedAt:     getTimeFromRecord(record, "created_at"),
		UpdatedAt:     getTimeFromRecord(record, "updated_at"),
	}
	if raw := getStringFromRecord(record, "context_json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &memory.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}
	return memory, nil
}

func recordToRelationship(record *neo4j.Record) *types.Relationship {
	return &types.Relationship{
		ID:     getStringFromRecord(record, "id"),
		FromID: getStringFromRecord(record, "from_id"),
		ToID:   getStringFromRecord(record, "to_id"),
		Type:   types.RelationshipType(getStringFromRecord(record, "type")),
		RelationshipProperties: types.RelationshipProperties{
			Strength:             getFloatFromRecord(record, "strength"),
			Confidence:           getFloatFromRecord(record, "confidence"),
			Context:              getStringFromRecord(record, "context"),
			EvidenceCount:        getIntFromRecord(record, "evidence_count"),
			ValidationCount:      getIntFromRecord(record, "validation_count"),
			CounterEvidenceCount: getIntFromRecord(record, "counter_evidence_count"),
			SuccessRate:          getFloatPtrFromRecord(record, "success_rate"),
			CreatedAt:            getTimeFromRecord(record, "created_at"),
			UpdatedAt:            getTimeFromRecord(record, "updated_at"),
		},
	}
}

func recordToOutcome(record *neo4j.Record) (*types.Outcome, error) {
	outcome := &types.Outcome{
		ID:          getStringFromRecord(record, "id"),
		MemoryID:    getStringFromRecord(record, "memory_id"),
		Success:     getBoolFromRecord(record, "success"),
		Description: getStringFromRecord(record, "description"),
		Impact:      getFloatFromRecord(record, "impact"),
		Timestamp:   getTimeFromRecord(record, "timestamp"),
	}
	if raw := getStringFromRecord(record, "context_json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &outcome.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcome context: %w", err)
		}
	}
	return outcome, nil
}

// Parameter helpers. A nil parameter writes a null, which Neo4j stores as an
// absent property.

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func stringSlice(values []string) interface{} {
	if len(values) == 0 {
		return nil
	}
	return values
}

func floatSlice(values []float32) interface{} {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// Record helpers. Absent properties come back as nil; every helper returns
// the zero value in that case.

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return int(i)
	}
	if i, ok := val.(int); ok {
		return i
	}
	return 0
}

func getFloatFromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0.0
}

func getFloatPtrFromRecord(record *neo4j.Record, key string) *float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if f, ok := val.(float64); ok {
		return &f
	}
	return nil
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}

func getTimeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return time.Time{}
	}
	if t, ok := val.(time.Time); ok {
		return t.UTC()
	}
	return time.Time{}
}

func getTimePtrFromRecord(record *neo4j.Record, key string) *time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if t, ok := val.(time.Time); ok {
		utc := t.UTC()
		return &utc
	}
	return nil
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return nil
}

func getFloat32SliceFromRecord(record *neo4j.Record, key string) []float32 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]float32, 0, len(slice))
		for _, v := range slice {
			if f, ok := v.(float64); ok {
				result = append(result, float32(f))
			}
		}
		return result
	}
	return nil
}
