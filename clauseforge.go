// Package clauseforge is a legal-document analysis and contract
// drafting engine. It segments documents into clause units, classifies
// and risk-scores them, compares and clusters documents, audits clause
// completeness per contract category, and drives a staged drafting
// pipeline plus conversational sessions over an external completion
// service.
package clauseforge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmoreno/clauseforge/audit"
	"github.com/dmoreno/clauseforge/chat"
	"github.com/dmoreno/clauseforge/classify"
	"github.com/dmoreno/clauseforge/extract"
	"github.com/dmoreno/clauseforge/llm"
	"github.com/dmoreno/clauseforge/segment"
	"github.com/dmoreno/clauseforge/similarity"
	"github.com/dmoreno/clauseforge/store"
	"github.com/dmoreno/clauseforge/workflow"
)

// Engine is the main entry point for ClauseForge.
type Engine interface {
	// AnalyzeDocument extracts text from raw file bytes, then runs the
	// full clause analysis pipeline and persists the result.
	AnalyzeDocument(ctx context.Context, data []byte, filename string) (*Analysis, error)

	// AnalyzeText runs the clause analysis pipeline on already-extracted
	// text and persists the result.
	AnalyzeText(ctx context.Context, text, filename string) (*Analysis, error)

	// CompareDocuments computes the pairwise TF-IDF cosine similarity of
	// the given document texts.
	CompareDocuments(ctx context.Context, texts []string) (*SimilarityReport, error)

	// ClusterClauses partitions clause texts into k topic clusters.
	// A k larger than the clause count is clamped, not an error.
	ClusterClauses(ctx context.Context, clauses []string, k int) ([]similarity.Cluster, error)

	// AuditCompleteness checks present clause types against the checklist
	// for a contract category.
	AuditCompleteness(presentTypes []string, category string) audit.Report

	// Draft runs the staged drafting pipeline, then feeds the generated
	// content back through clause analysis and persists both.
	Draft(ctx context.Context, req workflow.Request) (*DraftResult, error)

	// Explain produces a clause explanation in the requested style.
	Explain(ctx context.Context, clause string, style workflow.ExplainStyle) (string, error)

	// SuggestRedline proposes redline changes for a clause.
	SuggestRedline(ctx context.Context, clause, riskProfile, instructions string) (string, error)

	// Alternatives generates safe, balanced and aggressive clause variants.
	Alternatives(ctx context.Context, clause string) (string, error)

	// RiskNarrative produces a prose risk analysis of the given text.
	RiskNarrative(ctx context.Context, text string) (string, error)

	// SimulateChange analyzes the impact of replacing a clause.
	SimulateChange(ctx context.Context, original, modified string) (string, error)

	// Chat posts a message to a conversational session. An empty
	// sessionID mints a new session for the owner.
	Chat(ctx context.Context, ownerID, sessionID, message string, contextData map[string]any) (*chat.Reply, error)

	// NewSession mints a session id namespaced to the owner.
	NewSession(ctx context.Context, ownerID string) (string, error)

	// Session returns a session's history, oldest first.
	Session(ctx context.Context, ownerID, sessionID string) ([]chat.Entry, error)

	// DeleteSession removes a session and its history irreversibly.
	DeleteSession(ctx context.Context, ownerID, sessionID string) error

	// SimilarClauses finds stored clauses most similar to the given text
	// via hashed term-vector KNN.
	SimilarClauses(ctx context.Context, text string, limit int) ([]store.ClauseMatch, error)

	// SearchClauses finds stored clauses by full-text query.
	SearchClauses(ctx context.Context, query string, limit int) ([]store.ClauseMatch, error)

	// Document returns a stored document and its clauses.
	Document(ctx context.Context, id int64) (*store.Document, []store.Clause, error)

	// ListDocuments returns all analyzed documents.
	ListDocuments(ctx context.Context) ([]store.Document, error)

	// DeleteDocument removes a document and all associated data.
	DeleteDocument(ctx context.Context, id int64) error

	// Store returns the underlying store for diagnostic access.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// ClauseInfo is one analyzed clause unit.
type ClauseInfo struct {
	ID        int64                    `json:"id"`
	Type      string                   `json:"clause_type"`
	Number    string                   `json:"clause_number,omitempty"`
	Content   string                   `json:"content"`
	RiskScore float64                  `json:"risk_score"`
	RiskLevel classify.Level           `json:"risk_level"`
	Position  int                      `json:"position"`
	Terms     []string                 `json:"terms,omitempty"`
	CrossRefs []segment.CrossReference `json:"cross_references,omitempty"`
}

// RiskSummary aggregates clause risk over a document.
type RiskSummary struct {
	Average float64        `json:"average"`
	Level   classify.Level `json:"level"`
	High    int            `json:"high"`
	Medium  int            `json:"medium"`
	Low     int            `json:"low"`
}

// Analysis is the full insights report for one document.
type Analysis struct {
	DocumentID   int64        `json:"document_id"`
	Filename     string       `json:"filename"`
	DocumentType string       `json:"document_type"`
	WordCount    int          `json:"word_count"`
	ClauseCount  int          `json:"clause_count"`
	Clauses      []ClauseInfo `json:"clauses"`
	KeyTerms     []string     `json:"key_terms"`
	Risk         RiskSummary  `json:"risk"`
	Completeness audit.Report `json:"completeness"`
}

// SimilarityReport is the outcome of a multi-document comparison.
type SimilarityReport struct {
	Matrix   similarity.Matrix `json:"matrix"`
	TopPairs []similarity.Pair `json:"top_pairs"`
	Average  float64           `json:"average"`
}

// DraftResult is a persisted generated contract plus its clause analysis.
type DraftResult struct {
	DraftID  int64            `json:"draft_id"`
	Result   *workflow.Result `json:"result"`
	Analysis *Analysis        `json:"analysis"`
}

// topPairLimit bounds how many clause pairs a comparison reports.
const topPairLimit = 5

// engine is the concrete implementation of Engine.
type engine struct {
	cfg          Config
	store        *store.Store
	provider     llm.Provider
	extractors   *extract.Registry
	segmenter    *segment.Segmenter
	vectorizer   *similarity.Vectorizer
	orchestrator *workflow.Orchestrator
	chat         *chat.Manager
}

// New creates a ClauseForge engine with the given configuration.
func New(cfg Config) (Engine, error) {
	dbPath := cfg.resolveDBPath()

	// Apply defaults for zero values
	if cfg.MinClauseChars == 0 {
		cfg.MinClauseChars = segment.DefaultMinChars
	}
	if cfg.MaxVocabulary == 0 {
		cfg.MaxVocabulary = similarity.DefaultMaxVocabulary
	}
	if cfg.TopTerms == 0 {
		cfg.TopTerms = 10
	}
	if cfg.VectorDim == 0 {
		cfg.VectorDim = similarity.DefaultHashDim
	}

	s, err := store.New(dbPath, cfg.VectorDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	provider, err := llm.NewProvider(cfg.Completion)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var sessions chat.Store
	switch cfg.SessionStore {
	case "", "memory":
		sessions = chat.NewMemoryStore()
	case "sqlite":
		sessions = s.Sessions()
	default:
		s.Close()
		return nil, fmt.Errorf("%w: unknown session store %q", ErrInvalidConfig, cfg.SessionStore)
	}

	return &engine{
		cfg:          cfg,
		store:        s,
		provider:     provider,
		extractors:   extract.NewRegistry(),
		segmenter:    segment.New(cfg.MinClauseChars),
		vectorizer:   similarity.NewVectorizer(cfg.MaxVocabulary),
		orchestrator: workflow.New(provider),
		chat:         chat.NewManager(provider, sessions),
	}, nil
}

// AnalyzeDocument extracts text from raw bytes and analyzes it.
func (e *engine) AnalyzeDocument(ctx context.Context, data []byte, filename string) (*Analysis, error) {
	text, err := e.extractors.Extract(ctx, data, filename)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupported):
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
		default:
			return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
		}
	}
	return e.AnalyzeText(ctx, text, filename)
}

// AnalyzeText segments, classifies and risk-scores the text, persists
// the document with its clause set, and returns the insights report.
func (e *engine) AnalyzeText(ctx context.Context, text, filename string) (*Analysis, error) {
	spans := e.segmenter.SplitAll(text)
	if len(spans) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}

	start := time.Now()
	docType := classify.DetectDocumentType(text)

	docID, err := e.store.InsertDocument(ctx, store.Document{
		Filename:     filename,
		Format:       extract.Format(filename),
		ContentHash:  store.ContentHash(text),
		DocumentType: docType,
		Status:       "processing",
	})
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	clauses := make([]store.Clause, len(spans))
	infos := make([]ClauseInfo, len(spans))
	for i, span := range spans {
		profile := classify.Assess(span)
		terms := mergeTerms(segment.DefinedTerms(span), e.vectorizer.KeyTerms(span, e.cfg.TopTerms))
		clauses[i] = store.Clause{
			DocumentID: docID,
			Type:       string(classify.TypeOf(span)),
			Content:    span,
			RiskScore:  profile.Score,
			Position:   i,
			Terms:      terms,
		}
		number, _ := segment.ClauseNumber(span)
		infos[i] = ClauseInfo{
			Type:      clauses[i].Type,
			Number:    number,
			Content:   span,
			RiskScore: profile.Score,
			RiskLevel: profile.Level,
			Position:  i,
			Terms:     terms,
			CrossRefs: segment.CrossReferences(span),
		}
	}

	ids, err := e.store.InsertClauses(ctx, clauses)
	if err != nil {
		return nil, fmt.Errorf("inserting clauses: %w", err)
	}
	for i, id := range ids {
		infos[i].ID = id
		vec := similarity.HashVector(clauses[i].Content, e.cfg.VectorDim)
		if err := e.store.InsertClauseVector(ctx, id, vec); err != nil {
			slog.Warn("storing clause vector failed", "clause_id", id, "error", err)
		}
	}

	risk := summarizeRisk(infos)
	report := e.AuditCompleteness(presentTypes(infos), auditCategory(docType))
	wordCount := len(strings.Fields(text))

	if err := e.store.UpdateDocumentAnalysis(ctx, docID, docType, wordCount, risk.Average, "analyzed"); err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}

	slog.Info("analyze: document ready",
		"file", filename, "doc_id", docID, "clauses", len(infos),
		"type", docType, "elapsed", time.Since(start).Round(time.Millisecond))

	return &Analysis{
		DocumentID:   docID,
		Filename:     filename,
		DocumentType: docType,
		WordCount:    wordCount,
		ClauseCount:  len(infos),
		Clauses:      infos,
		KeyTerms:     e.vectorizer.KeyTerms(text, e.cfg.TopTerms),
		Risk:         risk,
		Completeness: report,
	}, nil
}

// CompareDocuments computes the pairwise similarity matrix for the
// given texts. A single document yields [[1.0]].
func (e *engine) CompareDocuments(_ context.Context, texts []string) (*SimilarityReport, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no documents to compare", ErrValidation)
	}
	m := e.vectorizer.Compare(texts)
	return &SimilarityReport{
		Matrix:   m,
		TopPairs: m.TopPairs(topPairLimit),
		Average:  m.Average(),
	}, nil
}

// ClusterClauses partitions clause texts into k topic clusters.
func (e *engine) ClusterClauses(_ context.Context, clauses []string, k int) ([]similarity.Cluster, error) {
	if len(clauses) == 0 {
		return nil, fmt.Errorf("%w: no clauses to cluster", ErrValidation)
	}
	return e.vectorizer.ClusterClauses(clauses, k, e.cfg.TopTerms), nil
}

// AuditCompleteness checks present clause types against the category
// checklist.
func (e *engine) AuditCompleteness(presentTypes []string, category string) audit.Report {
	return audit.Audit(presentTypes, category)
}

// Draft runs the staged drafting pipeline, re-analyzes the generated
// content to populate its clause set, and persists draft + document.
func (e *engine) Draft(ctx context.Context, req workflow.Request) (*DraftResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	result, err := e.orchestrator.Draft(ctx, req)
	if err != nil {
		e.logGeneration(ctx, "draft", req.ContractType, err)
		return nil, errors.Join(ErrService, err)
	}

	analysis, err := e.AnalyzeText(ctx, result.DraftContent, "draft-"+req.ContractType+".txt")
	if err != nil {
		e.logGeneration(ctx, "draft", req.ContractType, err)
		return nil, fmt.Errorf("analyzing draft: %w", err)
	}

	draftID, err := e.store.InsertDraft(ctx, store.Draft{
		ContractType:         req.ContractType,
		Content:              result.DraftContent,
		Summary:              result.ExecutiveSummary,
		RequirementsAnalysis: result.RequirementsAnalysis,
		StructureAnalysis:    result.StructureOutline,
		DocumentID:           &analysis.DocumentID,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting draft: %w", err)
	}
	e.logGeneration(ctx, "draft", req.ContractType, nil)

	return &DraftResult{DraftID: draftID, Result: result, Analysis: analysis}, nil
}

func (e *engine) Explain(ctx context.Context, clause string, style workflow.ExplainStyle) (string, error) {
	return e.singleShot(ctx, "explain", func() (string, error) {
		return e.orchestrator.Explain(ctx, clause, style)
	})
}

func (e *engine) SuggestRedline(ctx context.Context, clause, riskProfile, instructions string) (string, error) {
	return e.singleShot(ctx, "redline", func() (string, error) {
		return e.orchestrator.SuggestRedline(ctx, clause, riskProfile, instructions)
	})
}

func (e *engine) Alternatives(ctx context.Context, clause string) (string, error) {
	return e.singleShot(ctx, "alternatives", func() (string, error) {
		return e.orchestrator.Alternatives(ctx, clause)
	})
}

func (e *engine) RiskNarrative(ctx context.Context, text string) (string, error) {
	return e.singleShot(ctx, "risk", func() (string, error) {
		return e.orchestrator.RiskNarrative(ctx, text)
	})
}

func (e *engine) SimulateChange(ctx context.Context, original, modified string) (string, error) {
	return e.singleShot(ctx, "simulate", func() (string, error) {
		return e.orchestrator.SimulateChange(ctx, original, modified)
	})
}

// singleShot runs a one-stage transform and records it in the
// generation log. Failures keep their stage tag but also carry the
// service sentinel for callers that only care about the class.
func (e *engine) singleShot(ctx context.Context, op string, fn func() (string, error)) (string, error) {
	out, err := fn()
	e.logGeneration(ctx, op, "", err)
	if err != nil {
		return "", errors.Join(ErrService, err)
	}
	return out, nil
}

func (e *engine) logGeneration(ctx context.Context, op, contractType string, opErr error) {
	entry := store.GenerationLog{
		Operation:    op,
		ContractType: contractType,
		Status:       "ok",
		ModelUsed:    e.cfg.Completion.Model,
	}
	if opErr != nil {
		entry.Status = "error"
		entry.Error = opErr.Error()
	}
	if err := e.store.LogGeneration(ctx, entry); err != nil {
		slog.Warn("writing generation log failed", "operation", op, "error", err)
	}
}

func (e *engine) Chat(ctx context.Context, ownerID, sessionID, message string, contextData map[string]any) (*chat.Reply, error) {
	reply, err := e.chat.Post(ctx, ownerID, sessionID, message, contextData)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	return reply, nil
}

func (e *engine) NewSession(ctx context.Context, ownerID string) (string, error) {
	return e.chat.NewSession(ctx, ownerID)
}

func (e *engine) Session(ctx context.Context, ownerID, sessionID string) ([]chat.Entry, error) {
	history, err := e.chat.History(ctx, ownerID, sessionID)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	return history, nil
}

func (e *engine) DeleteSession(ctx context.Context, ownerID, sessionID string) error {
	return mapSessionErr(e.chat.Delete(ctx, ownerID, sessionID))
}

// mapSessionErr translates chat-layer sentinels to engine sentinels.
func mapSessionErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, chat.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	case errors.Is(err, chat.ErrForbidden):
		return fmt.Errorf("%w: %v", ErrSessionForbidden, err)
	default:
		return err
	}
}

func (e *engine) SimilarClauses(ctx context.Context, text string, limit int) ([]store.ClauseMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := similarity.HashVector(text, e.cfg.VectorDim)
	return e.store.SimilarClauses(ctx, vec, limit)
}

func (e *engine) SearchClauses(ctx context.Context, query string, limit int) ([]store.ClauseMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	return e.store.SearchClauses(ctx, query, limit)
}

func (e *engine) Document(ctx context.Context, id int64) (*store.Document, []store.Clause, error) {
	doc, err := e.store.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, id)
	}
	clauses, err := e.store.GetClausesByDocument(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading clauses: %w", err)
	}
	return doc, clauses, nil
}

func (e *engine) ListDocuments(ctx context.Context) ([]store.Document, error) {
	return e.store.ListDocuments(ctx)
}

func (e *engine) DeleteDocument(ctx context.Context, id int64) error {
	deleted, err := e.store.DeleteDocument(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %d", ErrDocumentNotFound, id)
	}
	return nil
}

func (e *engine) Store() *store.Store {
	return e.store
}

func (e *engine) Close() error {
	return e.store.Close()
}

// --- helpers ---

// summarizeRisk aggregates clause scores into the document risk summary.
// Thresholds match the per-clause levels: high >= 0.7, medium >= 0.4.
func summarizeRisk(infos []ClauseInfo) RiskSummary {
	var sum float64
	summary := RiskSummary{}
	for _, c := range infos {
		sum += c.RiskScore
		switch c.RiskLevel {
		case classify.LevelHigh:
			summary.High++
		case classify.LevelMedium:
			summary.Medium++
		default:
			summary.Low++
		}
	}
	if len(infos) > 0 {
		summary.Average = sum / float64(len(infos))
	}
	summary.Level = classify.LevelFor(summary.Average)
	return summary
}

// mergeTerms prepends contract-defined terms to the statistical key
// terms, deduplicated case-insensitively.
func mergeTerms(defined, key []string) []string {
	if len(defined) == 0 {
		return key
	}
	seen := make(map[string]bool, len(defined)+len(key))
	out := make([]string, 0, len(defined)+len(key))
	for _, t := range defined {
		k := strings.ToLower(t)
		if !seen[k] {
			seen[k] = true
			out = append(out, t)
		}
	}
	for _, t := range key {
		k := strings.ToLower(t)
		if !seen[k] {
			seen[k] = true
			out = append(out, t)
		}
	}
	return out
}

// presentTypes returns the distinct clause types in the analysis.
func presentTypes(infos []ClauseInfo) []string {
	seen := make(map[string]bool, len(infos))
	var out []string
	for _, c := range infos {
		if !seen[c.Type] {
			seen[c.Type] = true
			out = append(out, c.Type)
		}
	}
	return out
}

// auditCategory maps a detected document type to its checklist category.
func auditCategory(docType string) string {
	switch docType {
	case "Service Agreement":
		return "service_agreement"
	case "Non-Disclosure Agreement":
		return "nda"
	default:
		return audit.FallbackCategory
	}
}
