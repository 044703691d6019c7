package db

// EmbeddingDimension is the width of every vector column. It must match the
// dimension reported by the configured embedding provider.
const EmbeddingDimension = 1536

// SchemaSQL contains the database schema initialization SQL. All statements
// are idempotent so InitSchema can run on every startup.
//
// Full-text indexes use the portuguese configuration: the bot's primary
// audience writes Portuguese and the stemmer still matches English tokens
// well enough for mixed content.
const SchemaSQL = `
    -- ==========================================================================
    -- CONVERSATIONS
    -- ==========================================================================
    CREATE TABLE IF NOT EXISTS conversations (
        id              UUID PRIMARY KEY,
        user_id         TEXT NOT NULL,
        user_name       TEXT,
        channel         TEXT NOT NULL,
        agent_id        TEXT NOT NULL,
        started_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
        last_message_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        message_count   INTEGER NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS conversations_bucket
        ON conversations (user_id, channel, agent_id, last_message_at DESC);

    -- ==========================================================================
    -- MESSAGES
    -- ==========================================================================
    -- conversation_id is nullable: a message saved while the conversation
    -- store was unreachable is persisted orphaned rather than dropped.
    CREATE TABLE IF NOT EXISTS messages (
        id              UUID PRIMARY KEY,
        conversation_id UUID REFERENCES conversations(id),
        role            TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
        content         TEXT NOT NULL,
        agent_id        TEXT,
        metadata        JSONB NOT NULL DEFAULT '{}'::jsonb,
        embedding       vector(1536),
        created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS messages_conversation
        ON messages (conversation_id, created_at DESC);
    CREATE INDEX IF NOT EXISTS messages_created ON messages (created_at DESC);
    CREATE INDEX IF NOT EXISTS messages_content_ft
        ON messages USING gin (to_tsvector('portuguese', content));
    CREATE INDEX IF NOT EXISTS messages_embedding
        ON messages USING hnsw (embedding vector_cosine_ops);

    -- ==========================================================================
    -- MEMORY INDEX (explicit saves)
    -- ==========================================================================
    CREATE TABLE IF NOT EXISTS memory_index (
        id         UUID PRIMARY KEY,
        key_type   TEXT NOT NULL,
        key_name   TEXT NOT NULL,
        summary    TEXT NOT NULL,
        importance INTEGER NOT NULL DEFAULT 5 CHECK (importance BETWEEN 1 AND 10),
        tags       TEXT[] NOT NULL DEFAULT '{}',
        embedding  vector(1536),
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS memory_index_key ON memory_index (key_type, key_name);
    CREATE INDEX IF NOT EXISTS memory_index_summary_ft
        ON memory_index USING gin (to_tsvector('portuguese', summary));

    -- ==========================================================================
    -- KNOWLEDGE GRAPH
    -- ==========================================================================
    -- Entity identity is the name (case-sensitive, unique).
    CREATE TABLE IF NOT EXISTS entities (
        id          UUID PRIMARY KEY,
        type        TEXT NOT NULL,
        name        TEXT NOT NULL UNIQUE,
        description TEXT,
        embedding   vector(1536),
        created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS entities_embedding
        ON entities USING hnsw (embedding vector_cosine_ops);

    -- Directed edges; (from, to, type) is unique so re-asserting an edge
    -- updates strength instead of duplicating it.
    CREATE TABLE IF NOT EXISTS relationships (
        id          UUID PRIMARY KEY,
        from_entity UUID NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
        to_entity   UUID NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
        type        TEXT NOT NULL,
        strength    DOUBLE PRECISION NOT NULL DEFAULT 0.5,
        created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
        UNIQUE (from_entity, to_entity, type)
    );
    CREATE INDEX IF NOT EXISTS relationships_from ON relationships (from_entity);
    CREATE INDEX IF NOT EXISTS relationships_to ON relationships (to_entity);

    -- Time-bound assertions; valid_to IS NULL means currently valid.
    CREATE TABLE IF NOT EXISTS facts (
        id         UUID PRIMARY KEY,
        entity_id  UUID NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
        type       TEXT NOT NULL,
        content    TEXT NOT NULL,
        confidence DOUBLE PRECISION NOT NULL DEFAULT 0.9,
        embedding  vector(1536),
        valid_from TIMESTAMPTZ NOT NULL DEFAULT now(),
        valid_to   TIMESTAMPTZ
    );
    CREATE INDEX IF NOT EXISTS facts_open
        ON facts (entity_id, type) WHERE valid_to IS NULL;

    -- ==========================================================================
    -- AUDIT LOG (append-only)
    -- ==========================================================================
    CREATE TABLE IF NOT EXISTS audit_log (
        id              BIGSERIAL PRIMARY KEY,
        action_type     TEXT NOT NULL,
        action_detail   TEXT,
        user_id         TEXT,
        conversation_id UUID,
        success         BOOLEAN NOT NULL,
        metadata        JSONB NOT NULL DEFAULT '{}'::jsonb,
        created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS audit_log_created ON audit_log (created_at DESC);
`
