// Package postgres provides a PostgreSQL implementation of graph.Store.
package postgres

// Schema contains the SQL statements creating the PostgreSQL schema. Every
// statement is idempotent (IF NOT EXISTS) so the schema can be applied on
// every open.
const Schema = `
-- Memories: knowledge nodes with learning-derived quality signals and
-- version chain columns.
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    summary TEXT,

    tags JSONB,
    context JSONB,
    embedding JSONB,

    -- Quality signals (0.0-1.0)
    importance DOUBLE PRECISION NOT NULL DEFAULT 0.5,
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0.5,
    effectiveness DOUBLE PRECISION NOT NULL DEFAULT 0.0,

    -- Usage tracking
    usage_count INTEGER NOT NULL DEFAULT 0,
    last_used_at TIMESTAMPTZ,

    -- Version chain: exactly one current version per chain
    is_current BOOLEAN NOT NULL DEFAULT TRUE,
    previous_id TEXT,
    superseded_by TEXT,

    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

-- Relationships: typed directed weighted edges between memories.
CREATE TABLE IF NOT EXISTS relationships (
    id TEXT PRIMARY KEY,
    from_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
    to_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
    type TEXT NOT NULL,

    strength DOUBLE PRECISION NOT NULL DEFAULT 0.5,
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0.5,
    context TEXT,

    evidence_count INTEGER NOT NULL DEFAULT 0,
    validation_count INTEGER NOT NULL DEFAULT 0,
    counter_evidence_count INTEGER NOT NULL DEFAULT 0,

    -- NULL until the first reinforcement
    success_rate DOUBLE PRECISION,

    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

-- Outcomes: append-only success/failure events per memory.
CREATE TABLE IF NOT EXISTS outcomes (
    id TEXT PRIMARY KEY,
    memory_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
    success BOOLEAN NOT NULL,
    description TEXT,
    context JSONB,
    impact DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    timestamp TIMESTAMPTZ NOT NULL
);

-- Entity mentions: which memories mention which named entities, when.
CREATE TABLE IF NOT EXISTS entity_mentions (
    entity TEXT NOT NULL,
    memory_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
    memory_title TEXT,
    timestamp TIMESTAMPTZ NOT NULL,

    PRIMARY KEY (entity, memory_id)
);

-- Version chain walks
CREATE INDEX IF NOT EXISTS idx_memories_previous_id ON memories(previous_id);
CREATE INDEX IF NOT EXISTS idx_memories_superseded_by ON memories(superseded_by);
CREATE INDEX IF NOT EXISTS idx_memories_is_current ON memories(is_current);

-- Type filters
CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(type);

-- Edge lookups by endpoint and kind
CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_id);
CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_id);
CREATE INDEX IF NOT EXISTS idx_relationships_type ON relationships(type);

-- Outcome aggregation and timeline reads
CREATE INDEX IF NOT EXISTS idx_outcomes_memory ON outcomes(memory_id);
CREATE INDEX IF NOT EXISTS idx_outcomes_timestamp ON outcomes(memory_id, timestamp);

-- Entity timeline reads
CREATE INDEX IF NOT EXISTS idx_entity_mentions_entity ON entity_mentions(entity, timestamp);
`

// MigrationPgvector adds a native vector column for embeddings. Only applied
// when the pgvector extension is available. Safe to run multiple times.
const MigrationPgvector = `
-- Add embedding_vec column if it doesn't already exist.
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns
        WHERE table_name = 'memories' AND column_name = 'embedding_vec'
    ) THEN
        ALTER TABLE memories ADD COLUMN embedding_vec vector;
    END IF;
END
$$;

-- Approximate nearest-neighbor index for the retrieval layer. ivfflat needs
-- at least one row to exist, so the creation is guarded.
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1 FROM pg_indexes WHERE indexname = 'idx_memories_embedding_vec'
  ) THEN
    IF EXISTS (SELECT 1 FROM memories WHERE embedding_vec IS NOT NULL LIMIT 1) THEN
      EXECUTE 'CREATE INDEX idx_memories_embedding_vec ON memories USING ivfflat (embedding_vec vector_cosine_ops) WITH (lists = 100)';
    END IF;
  END IF;
END$$;
`
