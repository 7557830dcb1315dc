// Package store wraps the SQLite database for all clauseforge
// persistence: documents, classified clauses, hashed term vectors,
// drafts, sessions and the generation audit log.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Document represents a row in the documents table.
type Document struct {
	ID           int64   `json:"id"`
	Filename     string  `json:"filename"`
	Format       string  `json:"format"`
	ContentHash  string  `json:"content_hash"`
	DocumentType string  `json:"document_type"`
	Status       string  `json:"status"`
	WordCount    int     `json:"word_count"`
	RiskScore    float64 `json:"risk_score"`
	Metadata     string  `json:"metadata,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// Clause represents a row in the clauses table.
type Clause struct {
	ID         int64    `json:"id"`
	DocumentID int64    `json:"document_id"`
	Type       string   `json:"clause_type"`
	Content    string   `json:"content"`
	RiskScore  float64  `json:"risk_score"`
	Position   int      `json:"position"`
	Terms      []string `json:"terms,omitempty"`
}

// Draft represents a row in the drafts table.
type Draft struct {
	ID                   int64  `json:"id"`
	ContractType         string `json:"contract_type"`
	Content              string `json:"content"`
	Summary              string `json:"summary"`
	RequirementsAnalysis string `json:"requirements_analysis"`
	StructureAnalysis    string `json:"structure_analysis"`
	DocumentID           *int64 `json:"document_id,omitempty"`
	CreatedAt            string `json:"created_at"`
}

// GenerationLog represents a row in the generation audit log.
type GenerationLog struct {
	Operation        string `json:"operation"`
	ContractType     string `json:"contract_type"`
	Status           string `json:"status"`
	Error            string `json:"error,omitempty"`
	ModelUsed        string `json:"model_used"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// ClauseMatch holds a clause with its search score and document info.
type ClauseMatch struct {
	ClauseID   int64   `json:"clause_id"`
	DocumentID int64   `json:"document_id"`
	Type       string  `json:"clause_type"`
	Content    string  `json:"content"`
	RiskScore  float64 `json:"risk_score"`
	Filename   string  `json:"filename"`
	Score      float64 `json:"score"`
}

// Store wraps the SQLite database for all clauseforge persistence.
type Store struct {
	db        *sql.DB
	vectorDim int
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including sqlite-vec and FTS5 virtual tables.
func New(dbPath string, vectorDim int) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(vectorDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db, vectorDim: vectorDim}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// VectorDim returns the configured term-vector dimension.
func (s *Store) VectorDim() int {
	return s.vectorDim
}

// ContentHash returns the hex SHA-256 of the given content.
func ContentHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// --- Document operations ---

// InsertDocument creates a document record and returns its ID.
func (s *Store) InsertDocument(ctx context.Context, doc Document) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (filename, format, content_hash, document_type, status, word_count, risk_score, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.Filename, doc.Format, doc.ContentHash, doc.DocumentType, doc.Status, doc.WordCount, doc.RiskScore, doc.Metadata)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetDocument retrieves a document by ID. sql.ErrNoRows if absent.
func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	doc := &Document{}
	var metadata sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, format, content_hash, document_type, status, word_count, risk_score, metadata, created_at, updated_at
		FROM documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.Filename, &doc.Format, &doc.ContentHash,
		&doc.DocumentType, &doc.Status, &doc.WordCount, &doc.RiskScore,
		&metadata, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.Metadata = metadata.String
	return doc, nil
}

// ListDocuments returns all documents ordered by creation time.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, format, content_hash, document_type, status, word_count, risk_score, metadata, created_at, updated_at
		FROM documents ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var metadata sql.NullString
		if err := rows.Scan(&d.ID, &d.Filename, &d.Format, &d.ContentHash,
			&d.DocumentType, &d.Status, &d.WordCount, &d.RiskScore,
			&metadata, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Metadata = metadata.String
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocumentAnalysis records the outcome of a document analysis.
func (s *Store) UpdateDocumentAnalysis(ctx context.Context, id int64, docType string, wordCount int, riskScore float64, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET document_type = ?, word_count = ?, risk_score = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, docType, wordCount, riskScore, status, id)
	return err
}

// DeleteDocument removes a document, its clauses, and their vectors.
// Reports whether a row was deleted.
func (s *Store) DeleteDocument(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		// vec0 tables have no foreign keys; clear them explicitly.
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_clauses WHERE clause_id IN (
				SELECT id FROM clauses WHERE document_id = ?
			)`, id); err != nil {
			return err
		}

		// Clauses cascade from the document; triggers clean up FTS.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM clauses WHERE document_id = ?", id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			"DELETE FROM documents WHERE id = ?", id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

// --- Clause operations ---

// InsertClauses inserts a batch of clauses for a document and returns
// their IDs in input order.
func (s *Store) InsertClauses(ctx context.Context, clauses []Clause) ([]int64, error) {
	ids := make([]int64, len(clauses))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO clauses (document_id, clause_type, content, risk_score, position, terms)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, c := range clauses {
			terms, err := json.Marshal(c.Terms)
			if err != nil {
				return err
			}
			res, err := stmt.ExecContext(ctx,
				c.DocumentID, c.Type, c.Content, c.RiskScore, c.Position, string(terms))
			if err != nil {
				return err
			}
			ids[i], err = res.LastInsertId()
			if err != nil {
				return err
			}
		}
		return nil
	})

	return ids, err
}

// GetClausesByDocument returns all clauses for a document in position
// order.
func (s *Store) GetClausesByDocument(ctx context.Context, docID int64) ([]Clause, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, clause_type, content, risk_score, position, terms
		FROM clauses WHERE document_id = ? ORDER BY position
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clauses []Clause
	for rows.Next() {
		var c Clause
		var terms sql.NullString
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Type, &c.Content,
			&c.RiskScore, &c.Position, &terms); err != nil {
			return nil, err
		}
		if terms.Valid && terms.String != "" && terms.String != "null" {
			if err := json.Unmarshal([]byte(terms.String), &c.Terms); err != nil {
				return nil, fmt.Errorf("decoding clause terms: %w", err)
			}
		}
		clauses = append(clauses, c)
	}
	return clauses, rows.Err()
}

// ClauseTypeCounts returns the number of clauses per type for a document.
func (s *Store) ClauseTypeCounts(ctx context.Context, docID int64) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT clause_type, COUNT(*) FROM clauses WHERE document_id = ? GROUP BY clause_type
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// --- Vector operations ---

// InsertClauseVector stores a hashed term vector for a clause.
func (s *Store) InsertClauseVector(ctx context.Context, clauseID int64, vector []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_clauses (clause_id, embedding) VALUES (?, ?)",
		clauseID, serializeFloat32(vector))
	return err
}

// SimilarClauses performs a KNN search over hashed term vectors,
// returning the top-k closest clauses across all documents.
func (s *Store) SimilarClauses(ctx context.Context, queryVector []float32, k int) ([]ClauseMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.clause_id, v.distance,
			c.clause_type, c.content, c.risk_score, c.document_id,
			d.filename
		FROM vec_clauses v
		JOIN clauses c ON c.id = v.clause_id
		JOIN documents d ON d.id = c.document_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(queryVector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ClauseMatch
	for rows.Next() {
		var m ClauseMatch
		var distance float64
		if err := rows.Scan(&m.ClauseID, &distance,
			&m.Type, &m.Content, &m.RiskScore, &m.DocumentID,
			&m.Filename); err != nil {
			return nil, err
		}
		// Convert distance to similarity score (1 - distance for cosine)
		m.Score = 1.0 - distance
		results = append(results, m)
	}
	return results, rows.Err()
}

// SearchClauses performs a full-text search using FTS5 BM25 ranking.
func (s *Store) SearchClauses(ctx context.Context, query string, limit int) ([]ClauseMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.rowid, f.rank,
			c.clause_type, c.content, c.risk_score, c.document_id,
			d.filename
		FROM clauses_fts f
		JOIN clauses c ON c.id = f.rowid
		JOIN documents d ON d.id = c.document_id
		WHERE clauses_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ClauseMatch
	for rows.Next() {
		var m ClauseMatch
		var rank float64
		if err := rows.Scan(&m.ClauseID, &rank,
			&m.Type, &m.Content, &m.RiskScore, &m.DocumentID,
			&m.Filename); err != nil {
			return nil, err
		}
		// FTS5 rank is negative (lower = better), convert to positive score
		m.Score = -rank
		results = append(results, m)
	}
	return results, rows.Err()
}

// --- Draft operations ---

// InsertDraft stores a generated contract draft and returns its ID.
func (s *Store) InsertDraft(ctx context.Context, d Draft) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (contract_type, content, summary, requirements_analysis, structure_analysis, document_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.ContractType, d.Content, d.Summary, d.RequirementsAnalysis, d.StructureAnalysis, d.DocumentID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetDraft retrieves a draft by ID. sql.ErrNoRows if absent.
func (s *Store) GetDraft(ctx context.Context, id int64) (*Draft, error) {
	d := &Draft{}
	var summary, reqs, structure sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, contract_type, content, summary, requirements_analysis, structure_analysis, document_id, created_at
		FROM drafts WHERE id = ?
	`, id).Scan(&d.ID, &d.ContractType, &d.Content, &summary, &reqs, &structure, &d.DocumentID, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Summary = summary.String
	d.RequirementsAnalysis = reqs.String
	d.StructureAnalysis = structure.String
	return d, nil
}

// ListDrafts returns all drafts, newest first.
func (s *Store) ListDrafts(ctx context.Context) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contract_type, content, summary, requirements_analysis, structure_analysis, document_id, created_at
		FROM drafts ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		var d Draft
		var summary, reqs, structure sql.NullString
		if err := rows.Scan(&d.ID, &d.ContractType, &d.Content, &summary, &reqs, &structure, &d.DocumentID, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Summary = summary.String
		d.RequirementsAnalysis = reqs.String
		d.StructureAnalysis = structure.String
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// --- Generation log ---

// LogGeneration writes an entry to the generation audit log.
func (s *Store) LogGeneration(ctx context.Context, g GenerationLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_log (operation, contract_type, status, error, model_used, prompt_tokens, completion_tokens, total_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, g.Operation, g.ContractType, g.Status, g.Error, g.ModelUsed,
		g.PromptTokens, g.CompletionTokens, g.TotalTokens)
	return err
}

// --- Diagnostics ---

// DBStats holds counts of key database objects.
type DBStats struct {
	Documents int `json:"documents"`
	Clauses   int `json:"clauses"`
	Vectors   int `json:"vectors"`
	Drafts    int `json:"drafts"`
	Sessions  int `json:"sessions"`
}

// Stats returns counts of documents, clauses, vectors, drafts and sessions.
func (s *Store) Stats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &stats.Documents},
		{"SELECT COUNT(*) FROM clauses", &stats.Clauses},
		{"SELECT COUNT(*) FROM vec_clauses", &stats.Vectors},
		{"SELECT COUNT(*) FROM drafts", &stats.Drafts},
		{"SELECT COUNT(*) FROM sessions", &stats.Sessions},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
