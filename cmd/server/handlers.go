package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmoreno/clauseforge"
	"github.com/dmoreno/clauseforge/workflow"
)

const maxUploadBytes = 100 << 20 // 100MB

type handler struct {
	engine clauseforge.Engine
}

func newHandler(e clauseforge.Engine) *handler {
	return &handler{engine: e}
}

// ownerID identifies the caller for session namespacing. Deployments
// terminate real auth upstream and forward the identity in a header.
func ownerID(r *http.Request) string {
	if v := r.Header.Get("X-Owner-ID"); v != "" {
		return v
	}
	return "anonymous"
}

// POST /documents/upload
// Multipart file upload; the file is analyzed in memory, never written
// to disk.
func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart upload with 'file'")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		slog.Error("reading upload", "error", err)
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	// Sanitise filename to prevent path traversal.
	safeName := filepath.Base(header.Filename)

	analysis, err := h.engine.AnalyzeDocument(ctx, data, safeName)
	if err != nil {
		writeEngineError(w, err, "analyzing upload")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// POST /documents/analyze
func (h *handler) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Text     string `json:"text"`
		Filename string `json:"filename,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Filename == "" {
		req.Filename = "pasted.txt"
	}

	analysis, err := h.engine.AnalyzeText(ctx, req.Text, filepath.Base(req.Filename))
	if err != nil {
		writeEngineError(w, err, "analyzing text")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// POST /documents/compare
func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Texts []string `json:"texts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	report, err := h.engine.CompareDocuments(r.Context(), req.Texts)
	if err != nil {
		writeEngineError(w, err, "comparing documents")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /documents
func (h *handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.engine.ListDocuments(r.Context())
	if err != nil {
		writeEngineError(w, err, "listing documents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// GET /documents/{id}
func (h *handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, clauses, err := h.engine.Document(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "loading document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document": doc,
		"clauses":  clauses,
	})
}

// DELETE /documents/{id}
func (h *handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.engine.DeleteDocument(r.Context(), id); err != nil {
		writeEngineError(w, err, "deleting document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /clauses/cluster
func (h *handler) handleCluster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Clauses []string `json:"clauses"`
		K       int      `json:"k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.K <= 0 {
		req.K = 3
	}

	clusters, err := h.engine.ClusterClauses(r.Context(), req.Clauses, req.K)
	if err != nil {
		writeEngineError(w, err, "clustering clauses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clusters": clusters})
}

// POST /clauses/search
func (h *handler) handleSearchClauses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	matches, err := h.engine.SearchClauses(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeEngineError(w, err, "searching clauses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

// POST /clauses/similar
func (h *handler) handleSimilarClauses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string `json:"text"`
		Limit int    `json:"limit,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	matches, err := h.engine.SimilarClauses(r.Context(), req.Text, req.Limit)
	if err != nil {
		writeEngineError(w, err, "finding similar clauses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

// POST /clauses/audit
func (h *handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PresentTypes []string `json:"present_types"`
		Category     string   `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeJSON(w, http.StatusOK, h.engine.AuditCompleteness(req.PresentTypes, req.Category))
}

// POST /ai/draft
func (h *handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	var req workflow.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := h.engine.Draft(ctx, req)
	if err != nil {
		writeEngineError(w, err, "drafting contract")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /ai/explain
func (h *handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	h.singleShot(w, r, "explaining clause", func(ctx context.Context, req aiRequest) (string, error) {
		return h.engine.Explain(ctx, req.Clause, workflow.ExplainStyle(req.Style))
	})
}

// POST /ai/redline
func (h *handler) handleRedline(w http.ResponseWriter, r *http.Request) {
	h.singleShot(w, r, "suggesting redlines", func(ctx context.Context, req aiRequest) (string, error) {
		return h.engine.SuggestRedline(ctx, req.Clause, req.RiskProfile, req.Instructions)
	})
}

// POST /ai/alternatives
func (h *handler) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	h.singleShot(w, r, "generating alternatives", func(ctx context.Context, req aiRequest) (string, error) {
		return h.engine.Alternatives(ctx, req.Clause)
	})
}

// POST /ai/risk
func (h *handler) handleRiskNarrative(w http.ResponseWriter, r *http.Request) {
	h.singleShot(w, r, "analyzing risk", func(ctx context.Context, req aiRequest) (string, error) {
		return h.engine.RiskNarrative(ctx, req.Text)
	})
}

// POST /ai/simulate
func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	h.singleShot(w, r, "simulating change", func(ctx context.Context, req aiRequest) (string, error) {
		return h.engine.SimulateChange(ctx, req.Original, req.Modified)
	})
}

// aiRequest is the shared body shape for single-shot AI operations.
// Each handler reads only the fields its operation needs.
type aiRequest struct {
	Clause       string `json:"clause,omitempty"`
	Text         string `json:"text,omitempty"`
	Style        string `json:"style,omitempty"`
	RiskProfile  string `json:"risk_profile,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Original     string `json:"original,omitempty"`
	Modified     string `json:"modified,omitempty"`
}

func (h *handler) singleShot(w http.ResponseWriter, r *http.Request, what string, fn func(context.Context, aiRequest) (string, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req aiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Clause == "" && req.Text == "" && req.Original == "" {
		writeError(w, http.StatusBadRequest, "clause or text is required")
		return
	}

	out, err := fn(ctx, req)
	if err != nil {
		writeEngineError(w, err, what)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": out})
}

// POST /chatbot/sessions
func (h *handler) handleNewSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.engine.NewSession(r.Context(), ownerID(r))
	if err != nil {
		writeEngineError(w, err, "creating session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id})
}

// POST /chatbot/chat
func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		SessionID string         `json:"session_id,omitempty"`
		Message   string         `json:"message"`
		Context   map[string]any `json:"context,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.engine.Chat(ctx, ownerID(r), req.SessionID, req.Message, req.Context)
	if err != nil {
		writeEngineError(w, err, "chat turn")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// GET /chatbot/sessions/{id}/history
func (h *handler) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.engine.Session(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, "loading session history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// DELETE /chatbot/sessions/{id}
func (h *handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteSession(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, err, "deleting session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /stats
func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Store().Stats(r.Context())
	if err != nil {
		writeEngineError(w, err, "loading stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeEngineError maps engine sentinels to HTTP status codes. Internal
// detail stays in the log; clients get the sentinel message only.
func writeEngineError(w http.ResponseWriter, err error, what string) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, clauseforge.ErrValidation):
		status, msg = http.StatusBadRequest, clauseforge.ErrValidation.Error()
	case errors.Is(err, clauseforge.ErrDocumentNotFound):
		status, msg = http.StatusNotFound, clauseforge.ErrDocumentNotFound.Error()
	case errors.Is(err, clauseforge.ErrSessionNotFound):
		status, msg = http.StatusNotFound, clauseforge.ErrSessionNotFound.Error()
	case errors.Is(err, clauseforge.ErrSessionForbidden):
		status, msg = http.StatusForbidden, clauseforge.ErrSessionForbidden.Error()
	case errors.Is(err, clauseforge.ErrUnsupportedFormat):
		status, msg = http.StatusUnsupportedMediaType, clauseforge.ErrUnsupportedFormat.Error()
	case errors.Is(err, clauseforge.ErrEmptyDocument):
		status, msg = http.StatusUnprocessableEntity, clauseforge.ErrEmptyDocument.Error()
	case errors.Is(err, clauseforge.ErrExtraction):
		status, msg = http.StatusUnprocessableEntity, clauseforge.ErrExtraction.Error()
	case errors.Is(err, clauseforge.ErrService):
		status, msg = http.StatusBadGateway, clauseforge.ErrService.Error()
	}

	slog.Error(what, "status", status, "error", err)
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
