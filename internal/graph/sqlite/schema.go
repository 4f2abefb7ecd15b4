package sqlite

// Schema contains the SQL statements creating the SQLite schema. Every
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

    -- JSON columns
    tags TEXT,
    context TEXT,
    embedding TEXT,

    -- Quality signals (0.0-1.0)
    importance REAL NOT NULL DEFAULT 0.5,
    confidence REAL NOT NULL DEFAULT 0.5,
    effectiveness REAL NOT NULL DEFAULT 0.0,

    -- Usage tracking
    usage_count INTEGER NOT NULL DEFAULT 0,
    last_used_at TIMESTAMP,

    -- Version chain: exactly one current version per chain
    is_current INTEGER NOT NULL DEFAULT 1,
    previous_id TEXT,
    superseded_by TEXT,

    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Relationships: typed directed weighted edges between memories.
CREATE TABLE IF NOT EXISTS relationships (
    id TEXT PRIMARY KEY,
    from_id TEXT NOT NULL,
    to_id TEXT NOT NULL,
    type TEXT NOT NULL,

    -- Weights (0.0-1.0)
    strength REAL NOT NULL DEFAULT 0.5,
    confidence REAL NOT NULL DEFAULT 0.5,
    context TEXT,

    -- Evidence counters
    evidence_count INTEGER NOT NULL DEFAULT 0,
    validation_count INTEGER NOT NULL DEFAULT 0,
    counter_evidence_count INTEGER NOT NULL DEFAULT 0,

    -- NULL until the first reinforcement
    success_rate REAL,

    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,

    FOREIGN KEY (from_id) REFERENCES memories(id) ON DELETE CASCADE,
    FOREIGN KEY (to_id) REFERENCES memories(id) ON DELETE CASCADE
);

-- Outcomes: append-only success/failure events per memory.
CREATE TABLE IF NOT EXISTS outcomes (
    id TEXT PRIMARY KEY,
    memory_id TEXT NOT NULL,
    success INTEGER NOT NULL,
    description TEXT,
    context TEXT,
    impact REAL NOT NULL DEFAULT 1.0,
    timestamp TIMESTAMP NOT NULL,

    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);

-- Entity mentions: which memories mention which named entities, when.
CREATE TABLE IF NOT EXISTS entity_mentions (
    entity TEXT NOT NULL,
    memory_id TEXT NOT NULL,
    memory_title TEXT,
    timestamp TIMESTAMP NOT NULL,

    PRIMARY KEY (entity, memory_id),
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
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
