// Package sqlite provides an embedded SQLite implementation of graph.Store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
	"go.uber.org/zap"

	"github.com/haldane/mnemograph/internal/graph"
	"github.com/haldane/mnemograph/pkg/types"
)

// Store implements graph.Store on a single SQLite database file.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ graph.Store = (*Store)(nil)

// New opens (or creates) the SQLite database at path, configures WAL mode,
// and applies the schema. Use ":memory:" for an ephemeral store.
func New(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path is required", graph.ErrInvalidInput)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load;
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	// Wait instead of failing with SQLITE_BUSY when the connection is held
	// by another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}

	logger.Debug("sqlite store ready", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// memoryColumns is the canonical column list every memory read uses, in
// scanMemory's order.
const memoryColumns = `
	id, type, title, content, summary, tags, context, embedding,
	importance, confidence, effectiveness,
	usage_count, last_used_at,
	is_current, previous_id, superseded_by,
	created_at, updated_at`

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

	tagsJSON, contextJSON, embeddingJSON, err := marshalMemoryJSON(memory)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO memories (` + memoryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		memory.ID,
		string(memory.Type),
		memory.Title,
		memory.Content,
		nullableString(memory.Summary),
		nullableBytes(tagsJSON),
		nullableBytes(contextJSON),
		nullableBytes(embeddingJSON),
		memory.Importance,
		memory.Confidence,
		memory.Effectiveness,
		memory.UsageCount,
		nullableTime(memory.LastUsedAt),
		memory.IsCurrent,
		nullableString(memory.PreviousID),
		nullableString(memory.SupersededBy),
		memory.CreatedAt,
		memory.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create memory: %w", err)
	}
	return nil
}

// GetMemory retrieves a memory by id.
func (s *Store) GetMemory(ctx context.Context, id string) (*types.Memory, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", graph.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	memory, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graph.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get memory: %w", err)
	}
	return memory, nil
}

// UpdateMemoryScores writes learning-derived fields back to a memory.
func (s *Store) UpdateMemoryScores(ctx context.Context, id string, update graph.ScoreUpdate) error {
	if id == "" {
		return fmt.Errorf("%w: memory ID is required", graph.ErrInvalidInput)
	}

	now := time.Now().UTC()
	var (
		result sql.Result
		err    error
	)
	if update.RecordUsage {
		result, err = s.db.ExecContext(ctx, `
			UPDATE memories
			SET effectiveness = ?, confidence = ?,
			    usage_count = usage_count + 1, last_used_at = ?,
			    updated_at = ?
			WHERE id = ?`,
			update.Effectiveness, update.Confidence, now, now, id)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE memories
			SET effectiveness = ?, confidence = ?, updated_at = ?
			WHERE id = ?`,
			update.Effectiveness, update.Confidence, now, id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: failed to update memory scores: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to get rows affected: %w", err)
	}
	if n == 0 {
		return graph.ErrNotFound
	}
	return nil
}

// MemoryIDsWithOutcomes returns the ids of every memory with at least one
// recorded outcome.
func (s *Store) MemoryIDsWithOutcomes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT memory_id FROM outcomes ORDER BY memory_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list memories with outcomes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan memory id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateRelationship persists a new edge between two existing memories.
func (s *Store) CreateRelationship(ctx context.Context, rel *types.Relationship) error {
	if rel == nil || rel.ID == "" || rel.FromID == "" || rel.ToID == "" {
		return fmt.Errorf("%w: relationship ID and endpoints are required", graph.ErrInvalidInput)
	}

	var endpoints int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE id IN (?, ?)`,
		rel.FromID, rel.ToID).Scan(&endpoints)
	if err != nil {
		return fmt.Errorf("sqlite: failed to check endpoints: %w", err)
	}
	if endpoints != 2 {
		return fmt.Errorf("%w: relationship endpoint missing", graph.ErrNotFound)
	}

	now := time.Now().UTC()
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = now
	}
	if rel.UpdatedAt.IsZero() {
		rel.UpdatedAt = now
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO relationships (
			id, from_id, to_id, type,
			strength, confidence, context,
			evidence_count, validation_count, counter_evidence_count,
			success_rate, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rel.ID,
		rel.FromID,
		rel.ToID,
		string(rel.Type),
		rel.Strength,
		rel.Confidence,
		nullableString(rel.Context),
		rel.EvidenceCount,
		rel.ValidationCount,
		rel.CounterEvidenceCount,
		nullableFloat(rel.SuccessRate),
		rel.CreatedAt,
		rel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create relationship: %w", err)
	}
	return nil
}

// UpdateRelationship writes reinforced properties back to an existing edge.
func (s *Store) UpdateRelationship(ctx context.Context, rel *types.Relationship) error {
	if rel == nil || rel.ID == "" {
		return fmt.Errorf("%w: relationship ID is required", graph.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE relationships
		SET strength = ?, confidence = ?, context = ?,
		    evidence_count = ?, validation_count = ?, counter_evidence_count = ?,
		    success_rate = ?, updated_at = ?
		WHERE id = ?`,
		rel.Strength,
		rel.Confidence,
		nullableString(rel.Context),
		rel.EvidenceCount,
		rel.ValidationCount,
		rel.CounterEvidenceCount,
		nullableFloat(rel.SuccessRate),
		time.Now().UTC(),
		rel.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update relationship: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to get rows affected: %w", err)
	}
	if n == 0 {
		return graph.ErrNotFound
	}
	return nil
}

// RelationshipsBetween returns every edge connecting the two memories, in
// either direction, oldest first.
func (s *Store) RelationshipsBetween(ctx context.Context, firstID, secondID string) ([]*types.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_id, to_id, type,
		       strength, confidence, context,
		       evidence_count, validation_count, counter_evidence_count,
		       success_rate, created_at, updated_at
		FROM relationships
		WHERE (from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)
		ORDER BY created_at, id`,
		firstID, secondID, secondID, firstID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query relationships: %w", err)
	}
	defer rows.Close()

	var rels []*types.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
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

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(kinds)), ", ")
	args := make([]interface{}, 0, len(kinds)+1)
	args = append(args, id)
	for _, kind := range kinds {
		args = append(args, kind)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT to_id FROM relationships
		WHERE from_id = ? AND type IN (`+placeholders+`)
		ORDER BY to_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query related memories: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var related string
		if err := rows.Scan(&related); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan related id: %w", err)
		}
		ids = append(ids, related)
	}
	return ids, rows.Err()
}

// SupersedeMemory atomically retires the old current version and inserts the
// next one. The is_current guard inside the transaction is what keeps two
// racing supersedes of the same version from both succeeding.
func (s *Store) SupersedeMemory(ctx context.Context, oldID string, next *types.Memory) error {
	if oldID == "" || next == nil || next.ID == "" {
		return fmt.Errorf("%w: old ID and next version are required", graph.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		UPDATE memories
		SET is_current = 0, superseded_by = ?, updated_at = ?
		WHERE id = ? AND is_current = 1`,
		next.ID, now, oldID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to retire old version: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: no current memory %s", graph.ErrNoEffect, oldID)
	}

	tagsJSON, contextJSON, embeddingJSON, err := marshalMemoryJSON(next)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO memories (`+memoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		next.ID,
		string(next.Type),
		next.Title,
		next.Content,
		nullableString(next.Summary),
		nullableBytes(tagsJSON),
		nullableBytes(contextJSON),
		nullableBytes(embeddingJSON),
		next.Importance,
		next.Confidence,
		next.Effectiveness,
		next.UsageCount,
		nullableTime(next.LastUsedAt),
		next.IsCurrent,
		nullableString(next.PreviousID),
		nullableString(next.SupersededBy),
		next.CreatedAt,
		next.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to insert new version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit supersede: %w", err)
	}
	return nil
}

// VersionChain returns every version in the chain containing id, most recent
// first. The walk is depth-limited and truncates silently on cycles.
func (s *Store) VersionChain(ctx context.Context, id string, maxDepth int) ([]*types.Memory, error) {
	start, err := s.GetMemory(ctx, id)
	if err != nil {
		return nil, err
	}
	if maxDepth < 1 {
		maxDepth = 1
	}

	// Walk forward to the chain head, then back through previous_id.
	head := start
	for hops := 0; head.SupersededBy != "" && hops < maxDepth; hops++ {
		next, err := s.GetMemory(ctx, head.SupersededBy)
		if err != nil {
			if errors.Is(err, graph.ErrNotFound) {
				break
			}
			return nil, err
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
		prev, err := s.GetMemory(ctx, cur.PreviousID)
		if err != nil {
			if errors.Is(err, graph.ErrNotFound) {
				break
			}
			return nil, err
		}
		cur = prev
	}
	return chain, nil
}

// CreateOutcome persists an outcome event for an existing memory.
func (s *Store) CreateOutcome(ctx context.Context, outcome *types.Outcome) error {
	if outcome == nil || outcome.ID == "" || outcome.MemoryID == "" {
		return fmt.Errorf("%w: outcome ID and memory ID are required", graph.ErrInvalidInput)
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE id = ?`, outcome.MemoryID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: failed to check memory: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: memory %s", graph.ErrNotFound, outcome.MemoryID)
	}

	var contextJSON []byte
	if outcome.Context != nil {
		contextJSON, err = json.Marshal(outcome.Context)
		if err != nil {
			return fmt.Errorf("sqlite: failed to marshal outcome context: %w", err)
		}
	}

	if outcome.Timestamp.IsZero() {
		outcome.Timestamp = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outcomes (id, memory_id, success, description, context, impact, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		outcome.ID,
		outcome.MemoryID,
		outcome.Success,
		nullableString(outcome.Description),
		nullableBytes(contextJSON),
		outcome.Impact,
		outcome.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create outcome: %w", err)
	}
	return nil
}

// OutcomeStats returns aggregate outcome counts for a memory.
func (s *Store) OutcomeStats(ctx context.Context, memoryID string) (graph.OutcomeStats, error) {
	var stats graph.OutcomeStats
	if memoryID == "" {
		return stats, fmt.Errorf("%w: memory ID is required", graph.ErrInvalidInput)
	}

	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(success), 0), MAX(timestamp)
		FROM outcomes WHERE memory_id = ?`, memoryID).
		Scan(&stats.Total, &stats.Successful, &last)
	if err != nil {
		return stats, fmt.Errorf("sqlite: failed to aggregate outcomes: %w", err)
	}

	stats.Failed = stats.Total - stats.Successful
	if last.Valid {
		t := last.Time.UTC()
		stats.LastOutcomeAt = &t
	}
	return stats, nil
}

// ListOutcomes returns every outcome for a memory, oldest first.
func (s *Store) ListOutcomes(ctx context.Context, memoryID string) ([]*types.Outcome, error) {
	if memoryID == "" {
		return nil, fmt.Errorf("%w: memory ID is required", graph.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, memory_id, success, description, context, impact, timestamp
		FROM outcomes WHERE memory_id = ?
		ORDER BY timestamp, id`, memoryID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*types.Outcome
	for rows.Next() {
		var (
			outcome     types.Outcome
			description sql.NullString
			contextJSON sql.NullString
		)
		if err := rows.Scan(&outcome.ID, &outcome.MemoryID, &outcome.Success,
			&description, &contextJSON, &outcome.Impact, &outcome.Timestamp); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan outcome: %w", err)
		}
		outcome.Description = description.String
		if contextJSON.Valid && contextJSON.String != "" {
			if err := json.Unmarshal([]byte(contextJSON.String), &outcome.Context); err != nil {
				return nil, fmt.Errorf("sqlite: failed to unmarshal outcome context: %w", err)
			}
		}
		outcome.Timestamp = outcome.Timestamp.UTC()
		outcomes = append(outcomes, &outcome)
	}
	return outcomes, rows.Err()
}

// RecordEntityMention links a memory to an entity name. Duplicate pairs are
// a no-op.
func (s *Store) RecordEntityMention(ctx context.Context, entity, memoryID string, mention graph.EntityMention) error {
	if entity == "" || memoryID == "" {
		return fmt.Errorf("%w: entity and memory ID are required", graph.ErrInvalidInput)
	}

	ts := mention.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_mentions (entity, memory_id, memory_title, timestamp)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity, memory_id) DO NOTHING`,
		entity, memoryID, nullableString(mention.MemoryTitle), ts)
	if err != nil {
		return fmt.Errorf("sqlite: failed to record entity mention: %w", err)
	}
	return nil
}

// EntityMentions returns the mention timeline for an entity, oldest first.
func (s *Store) EntityMentions(ctx context.Context, entity string) ([]graph.EntityMention, error) {
	if entity == "" {
		return nil, fmt.Errorf("%w: entity is required", graph.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entity, memory_id, memory_title, timestamp
		FROM entity_mentions WHERE entity = ?
		ORDER BY timestamp, memory_id`, entity)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list entity mentions: %w", err)
	}
	defer rows.Close()

	var mentions []graph.EntityMention
	for rows.Next() {
		var (
			mention graph.EntityMention
			title   sql.NullString
		)
		if err := rows.Scan(&mention.Entity, &mention.MemoryID, &title, &mention.Timestamp); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan entity mention: %w", err)
		}
		mention.MemoryTitle = title.String
		mention.Timestamp = mention.Timestamp.UTC()
		mentions = append(mentions, mention)
	}
	return mentions, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanMemory reads one memory row in memoryColumns order.
func scanMemory(row scanner) (*types.Memory, error) {
	var (
		memory        types.Memory
		memType       string
		summary       sql.NullString
		tagsJSON      sql.NullString
		contextJSON   sql.NullString
		embeddingJSON sql.NullString
		lastUsedAt    sql.NullTime
		previousID    sql.NullString
		supersededBy  sql.NullString
	)

	err := row.Scan(
		&memory.ID,
		&memType,
		&memory.Title,
		&memory.Content,
		&summary,
		&tagsJSON,
		&contextJSON,
		&embeddingJSON,
		&memory.Importance,
		&memory.Confidence,
		&memory.Effectiveness,
		&memory.UsageCount,
		&lastUsedAt,
		&memory.IsCurrent,
		&previousID,
		&supersededBy,
		&memory.CreatedAt,
		&memory.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	memory.Type = types.MemoryType(memType)
	memory.Summary = summary.String
	memory.PreviousID = previousID.String
	memory.SupersededBy = supersededBy.String
	if lastUsedAt.Valid {
		t := lastUsedAt.Time.UTC()
		memory.LastUsedAt = &t
	}
	memory.CreatedAt = memory.CreatedAt.UTC()
	memory.UpdatedAt = memory.UpdatedAt.UTC()

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &memory.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if contextJSON.Valid && contextJSON.String != "" {
		if err := json.Unmarshal([]byte(contextJSON.String), &memory.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}
	if embeddingJSON.Valid && embeddingJSON.String != "" {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &memory.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
		}
	}
	return &memory, nil
}

// scanRelationship reads one relationship row.
func scanRelationship(row scanner) (*types.Relationship, error) {
	var (
		rel         types.Relationship
		relType     string
		context     sql.NullString
		successRate sql.NullFloat64
	)

	err := row.Scan(
		&rel.ID,
		&rel.FromID,
		&rel.ToID,
		&relType,
		&rel.Strength,
		&rel.Confidence,
		&context,
		&rel.EvidenceCount,
		&rel.ValidationCount,
		&rel.CounterEvidenceCount,
		&successRate,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rel.Type = types.RelationshipType(relType)
	rel.Context = context.String
	if successRate.Valid {
		rate := successRate.Float64
		rel.SuccessRate = &rate
	}
	rel.CreatedAt = rel.CreatedAt.UTC()
	rel.UpdatedAt = rel.UpdatedAt.UTC()
	return &rel, nil
}

// marshalMemoryJSON serializes the JSON-backed memory columns.
func marshalMemoryJSON(memory *types.Memory) (tags, context, embedding []byte, err error) {
	if len(memory.Tags) > 0 {
		tags, err = json.Marshal(memory.Tags)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite: failed to marshal tags: %w", err)
		}
	}
	if memory.Context != nil {
		context, err = json.Marshal(memory.Context)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite: failed to marshal context: %w", err)
		}
	}
	if len(memory.Embedding) > 0 {
		embedding, err = json.Marshal(memory.Embedding)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite: failed to marshal embedding: %w", err)
		}
	}
	return tags, context, embedding, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullableBytes(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
