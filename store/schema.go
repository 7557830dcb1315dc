package store

import "fmt"

// schemaSQL returns the DDL for all tables. vectorDim controls the
// vec0 virtual table dimension.
func schemaSQL(vectorDim int) string {
	return fmt.Sprintf(`
-- Document registry with hash-based change detection
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY,
    filename TEXT NOT NULL,
    format TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    document_type TEXT DEFAULT '',
    status TEXT DEFAULT 'pending',
    word_count INTEGER DEFAULT 0,
    risk_score REAL DEFAULT 0,
    metadata JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Classified clause units, one row per segmented span
CREATE TABLE IF NOT EXISTS clauses (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    clause_type TEXT NOT NULL,
    content TEXT NOT NULL,
    risk_score REAL NOT NULL,
    position INTEGER NOT NULL,
    terms JSON
);

-- Hashed term vectors via sqlite-vec for clause-library KNN search
CREATE VIRTUAL TABLE IF NOT EXISTS vec_clauses USING vec0(
    clause_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Full-text search via FTS5
CREATE VIRTUAL TABLE IF NOT EXISTS clauses_fts USING fts5(
    content,
    clause_type,
    content='clauses',
    content_rowid='id',
    tokenize='porter unicode61'
);

-- FTS triggers to keep index in sync
CREATE TRIGGER IF NOT EXISTS clauses_ai AFTER INSERT ON clauses BEGIN
    INSERT INTO clauses_fts(rowid, content, clause_type) VALUES (new.id, new.content, new.clause_type);
END;
CREATE TRIGGER IF NOT EXISTS clauses_ad AFTER DELETE ON clauses BEGIN
    INSERT INTO clauses_fts(clauses_fts, rowid, content, clause_type) VALUES ('delete', old.id, old.content, old.clause_type);
END;
CREATE TRIGGER IF NOT EXISTS clauses_au AFTER UPDATE ON clauses BEGIN
    INSERT INTO clauses_fts(clauses_fts, rowid, content, clause_type) VALUES ('delete', old.id, old.content, old.clause_type);
    INSERT INTO clauses_fts(clauses_fts, rowid, content, clause_type) VALUES (new.id, new.content, new.clause_type);
END;

-- Generated contract drafts
CREATE TABLE IF NOT EXISTS drafts (
    id INTEGER PRIMARY KEY,
    contract_type TEXT NOT NULL,
    content TEXT NOT NULL,
    summary TEXT,
    requirements_analysis TEXT,
    structure_analysis TEXT,
    document_id INTEGER REFERENCES documents(id) ON DELETE SET NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Conversation sessions and their message history
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

-- Generation audit log
CREATE TABLE IF NOT EXISTS generation_log (
    id INTEGER PRIMARY KEY,
    operation TEXT NOT NULL,
    contract_type TEXT,
    status TEXT NOT NULL,
    error TEXT,
    model_used TEXT,
    prompt_tokens INTEGER DEFAULT 0,
    completion_tokens INTEGER DEFAULT 0,
    total_tokens INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_clauses_document ON clauses(document_id);
CREATE INDEX IF NOT EXISTS idx_clauses_type ON clauses(clause_type);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
CREATE INDEX IF NOT EXISTS idx_drafts_type ON drafts(contract_type);
`, vectorDim)
}
