//go:build cgo

package clauseforge_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmoreno/clauseforge"
	"github.com/dmoreno/clauseforge/llm"
	"github.com/dmoreno/clauseforge/workflow"
)

// completionServer is an OpenAI-compatible fake that answers every chat
// completion with the scripted reply and counts calls.
type completionServer struct {
	*httptest.Server
	mu    sync.Mutex
	calls int
	reply string
	fail  bool
}

func newCompletionServer(t *testing.T, reply string) *completionServer {
	t.Helper()
	cs := &completionServer{reply: reply}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		cs.calls++
		fail := cs.fail
		content := cs.reply
		cs.mu.Unlock()

		if fail {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *completionServer) callCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.calls
}

func newTestEngine(t *testing.T, srv *completionServer) clauseforge.Engine {
	t.Helper()
	cfg := clauseforge.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	cfg.VectorDim = 32
	cfg.Completion = llm.Config{Provider: "custom", Model: "test-model", BaseURL: srv.URL}

	e, err := clauseforge.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

const sampleContract = `SERVICE AGREEMENT

The Receiving Party shall keep all confidential information and proprietary data in strict confidence for a period of five years.

The Client shall pay all fees and invoices within thirty days of the invoice date, subject to the payment schedule in Exhibit A.

Either party may terminate this Agreement upon sixty days written notice if the other party breaches any material obligation.`

func TestAnalyzeTextPersistsDocumentAndClauses(t *testing.T) {
	srv := newCompletionServer(t, "unused")
	e := newTestEngine(t, srv)

	a, err := e.AnalyzeText(context.Background(), sampleContract, "msa.txt")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if a.ClauseCount != 3 {
		t.Fatalf("ClauseCount = %d, want 3", a.ClauseCount)
	}
	if a.DocumentID == 0 {
		t.Error("DocumentID not set")
	}
	for i, c := range a.Clauses {
		if c.ID == 0 {
			t.Errorf("clause %d has no ID", i)
		}
		if c.RiskScore < 0 || c.RiskScore > 1 {
			t.Errorf("clause %d risk = %v, out of range", i, c.RiskScore)
		}
		if c.Position != i {
			t.Errorf("clause %d position = %d", i, c.Position)
		}
	}
	if a.Clauses[0].Type != "confidentiality" {
		t.Errorf("first clause type = %q, want confidentiality", a.Clauses[0].Type)
	}
	if a.Clauses[1].Type != "payment" {
		t.Errorf("second clause type = %q, want payment", a.Clauses[1].Type)
	}
	if len(a.KeyTerms) == 0 {
		t.Error("no key terms extracted")
	}
	if a.Risk.High+a.Risk.Medium+a.Risk.Low != 3 {
		t.Errorf("risk buckets sum to %d, want 3", a.Risk.High+a.Risk.Medium+a.Risk.Low)
	}
	if a.Completeness.Score < 0 || a.Completeness.Score > 1 {
		t.Errorf("completeness = %v, out of range", a.Completeness.Score)
	}
	if srv.callCount() != 0 {
		t.Errorf("analysis made %d completion calls, want 0", srv.callCount())
	}

	// Persisted and readable back.
	doc, clauses, err := e.Document(context.Background(), a.DocumentID)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.Status != "analyzed" {
		t.Errorf("status = %q, want analyzed", doc.Status)
	}
	if doc.WordCount != a.WordCount {
		t.Errorf("stored word count = %d, want %d", doc.WordCount, a.WordCount)
	}
	if len(clauses) != 3 {
		t.Errorf("stored %d clauses, want 3", len(clauses))
	}
}

func TestAnalyzeTextExtractsReferences(t *testing.T) {
	e := newTestEngine(t, newCompletionServer(t, "unused"))

	text := `1.1 "Confidential Information" means any non-public data disclosed under this Agreement, subject to the carve-outs in Section 2.3 hereof.`
	a, err := e.AnalyzeText(context.Background(), text, "defs.txt")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if a.ClauseCount != 1 {
		t.Fatalf("ClauseCount = %d, want 1", a.ClauseCount)
	}
	c := a.Clauses[0]
	if c.Number != "1.1" {
		t.Errorf("Number = %q, want 1.1", c.Number)
	}
	if len(c.Terms) == 0 || c.Terms[0] != "Confidential Information" {
		t.Errorf("Terms = %v, want defined term first", c.Terms)
	}
	found := false
	for _, ref := range c.CrossRefs {
		if ref.Type == "section" && ref.Target == "2.3" {
			found = true
		}
	}
	if !found {
		t.Errorf("CrossRefs = %v, want section 2.3", c.CrossRefs)
	}
}

func TestAnalyzeTextEmptyDocument(t *testing.T) {
	e := newTestEngine(t, newCompletionServer(t, "unused"))

	_, err := e.AnalyzeText(context.Background(), "Short.\n\nAlso short.", "empty.txt")
	if !errors.Is(err, clauseforge.ErrEmptyDocument) {
		t.Errorf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestAnalyzeDocumentUnsupportedFormat(t *testing.T) {
	e := newTestEngine(t, newCompletionServer(t, "unused"))

	_, err := e.AnalyzeDocument(context.Background(), []byte("data"), "scan.png")
	if !errors.Is(err, clauseforge.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestAnalyzeDocumentMalformed(t *testing.T) {
	e := newTestEngine(t, newCompletionServer(t, "unused"))

	_, err := e.AnalyzeDocument(context.Background(), []byte("not a zip"), "broken.docx")
	if !errors.Is(err, clauseforge.ErrExtraction) {
		t.Errorf("err = %v, want ErrExtraction", err)
	}
}

func TestSimilarClausesAfterAnalysis(t *testing.T) {
	e := newTestEngine(t, newCompletionServer(t, "unused"))

	if _, err := e.AnalyzeText(context.Background(), sampleContract, "msa.txt"); err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}

	matches, err := e.SimilarClauses(context.Background(), "keep information confidential and secret", 2)
	if err != nil {
		t.Fatalf("SimilarClauses: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no similar clauses found")
	}
	if matches[0].Type != "confidentiality" {
		t.Errorf("nearest clause type = %q, want confidentiality", matches[0].Type)
	}
}

func TestSearchClauses(t *testing.T) {
	e := newTestEngine(t, newCompletionServer(t, "unused"))

	if _, err := e.AnalyzeText(context.Background(), sampleContract, "msa.txt"); err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}

	matches, err := e.SearchClauses(context.Background(), "invoice", 5)
	if err != nil {
		t.Fatalf("SearchClauses: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Type != "payment" {
		t.Errorf("match type = %q, want payment", matches[0].Type)
	}
}

func TestCompareDocuments(t *testing.T) {
	e := newTestEngine(t, newCompletionServer(t, "unused"))

	report, err := e.CompareDocuments(context.Background(), []string{
		"The contractor shall indemnify the client against all claims.",
		"The contractor shall indemnify the customer against any claims.",
	})
	if err != nil {
		t.Fatalf("CompareDocuments: %v", err)
	}
	if len(report.Matrix) != 2 {
		t.Fatalf("matrix has %d rows, want 2", len(report.Matrix))
	}
	if report.Matrix[0][1] <= 0 {
		t.Errorf("similar texts scored %v, want > 0", report.Matrix[0][1])
	}
	if len(report.TopPairs) != 1 {
		t.Errorf("got %d top pairs, want 1", len(report.TopPairs))
	}

	if _, err := e.CompareDocuments(context.Background(), nil); !errors.Is(err, clauseforge.ErrValidation) {
		t.Errorf("empty comparison err = %v, want ErrValidation", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	e := newTestEngine(t, newCompletionServer(t, "unused"))

	a, err := e.AnalyzeText(context.Background(), sampleContract, "msa.txt")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if err := e.DeleteDocument(context.Background(), a.DocumentID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, _, err := e.Document(context.Background(), a.DocumentID); !errors.Is(err, clauseforge.ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
	if err := e.DeleteDocument(context.Background(), 9999); !errors.Is(err, clauseforge.ErrDocumentNotFound) {
		t.Errorf("missing id err = %v, want ErrDocumentNotFound", err)
	}
}

const draftReply = "This Agreement is made between the parties and sets out confidentiality, payment and termination obligations in full detail."

func TestDraftRunsPipelineAndPersists(t *testing.T) {
	srv := newCompletionServer(t, draftReply)
	e := newTestEngine(t, srv)

	res, err := e.Draft(context.Background(), workflow.Request{
		ContractType: "service_agreement",
		PartyA:       "Acme Corp",
		PartyB:       "Widget LLC",
		Jurisdiction: "Delaware",
	})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if srv.callCount() != 4 {
		t.Errorf("made %d completion calls, want 4 stages", srv.callCount())
	}
	if res.DraftID == 0 {
		t.Error("DraftID not set")
	}
	if res.Result.DraftContent != draftReply {
		t.Errorf("DraftContent = %q", res.Result.DraftContent)
	}
	if res.Analysis == nil || res.Analysis.ClauseCount == 0 {
		t.Error("draft was not re-analyzed")
	}

	d, err := e.Store().GetDraft(context.Background(), res.DraftID)
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if d.Content != draftReply {
		t.Errorf("stored content = %q", d.Content)
	}
	if d.DocumentID == nil || *d.DocumentID != res.Analysis.DocumentID {
		t.Error("draft not linked to its analyzed document")
	}
}

func TestDraftValidationFailsBeforeAnyCall(t *testing.T) {
	srv := newCompletionServer(t, draftReply)
	e := newTestEngine(t, srv)

	_, err := e.Draft(context.Background(), workflow.Request{ContractType: "nda"})
	if !errors.Is(err, clauseforge.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if srv.callCount() != 0 {
		t.Errorf("made %d completion calls, want 0", srv.callCount())
	}
}

func TestDraftServiceFailure(t *testing.T) {
	srv := newCompletionServer(t, draftReply)
	srv.mu.Lock()
	srv.fail = true
	srv.mu.Unlock()
	e := newTestEngine(t, srv)

	_, err := e.Draft(context.Background(), workflow.Request{
		ContractType: "nda",
		PartyA:       "A",
		PartyB:       "B",
		Jurisdiction: "NY",
	})
	if !errors.Is(err, clauseforge.ErrService) {
		t.Fatalf("err = %v, want ErrService", err)
	}
	var stageErr *workflow.StageError
	if !errors.As(err, &stageErr) {
		t.Fatal("stage tag lost in wrapping")
	}
	if stageErr.Stage != workflow.StageRequirements {
		t.Errorf("failed stage = %q, want %q", stageErr.Stage, workflow.StageRequirements)
	}
}

func TestExplainWrapsServiceFailure(t *testing.T) {
	srv := newCompletionServer(t, "plain words")
	e := newTestEngine(t, srv)

	out, err := e.Explain(context.Background(), "The party shall indemnify.", workflow.ExplainELI5)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if out != "plain words" {
		t.Errorf("Explain = %q", out)
	}

	srv.mu.Lock()
	srv.fail = true
	srv.mu.Unlock()
	if _, err := e.Explain(context.Background(), "clause", workflow.ExplainELI5); !errors.Is(err, clauseforge.ErrService) {
		t.Errorf("err = %v, want ErrService", err)
	}
}

func TestChatSessionLifecycle(t *testing.T) {
	srv := newCompletionServer(t, "Here is my answer about your contract.")
	e := newTestEngine(t, srv)
	ctx := context.Background()

	reply, err := e.Chat(ctx, "alice", "", "What does indemnification mean?", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.HasPrefix(reply.SessionID, "alice:") {
		t.Errorf("SessionID = %q, want alice: prefix", reply.SessionID)
	}

	history, err := e.Session(ctx, "alice", reply.SessionID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(history))
	}

	// Another owner cannot touch the session.
	if _, err := e.Session(ctx, "mallory", reply.SessionID); !errors.Is(err, clauseforge.ErrSessionForbidden) {
		t.Errorf("foreign read err = %v, want ErrSessionForbidden", err)
	}
	if err := e.DeleteSession(ctx, "mallory", reply.SessionID); !errors.Is(err, clauseforge.ErrSessionForbidden) {
		t.Errorf("foreign delete err = %v, want ErrSessionForbidden", err)
	}

	if err := e.DeleteSession(ctx, "alice", reply.SessionID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := e.Session(ctx, "alice", reply.SessionID); !errors.Is(err, clauseforge.ErrSessionNotFound) {
		t.Errorf("deleted session err = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLiteSessionStore(t *testing.T) {
	srv := newCompletionServer(t, "Persisted answer.")

	cfg := clauseforge.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	cfg.VectorDim = 32
	cfg.SessionStore = "sqlite"
	cfg.Completion = llm.Config{Provider: "custom", Model: "test-model", BaseURL: srv.URL}

	e, err := clauseforge.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	reply, err := e.Chat(context.Background(), "bob", "", "Hello", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	history, err := e.Session(context.Background(), "bob", reply.SessionID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history has %d entries, want 2", len(history))
	}
}

func TestNewRejectsUnknownSessionStore(t *testing.T) {
	cfg := clauseforge.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	cfg.SessionStore = "redis"

	if _, err := clauseforge.New(cfg); !errors.Is(err, clauseforge.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestAuditCompleteness(t *testing.T) {
	e := newTestEngine(t, newCompletionServer(t, "unused"))

	report := e.AuditCompleteness([]string{"confidentiality", "payment"}, "general")
	if report.Score <= 0 || report.Score >= 1 {
		t.Errorf("partial audit score = %v, want strictly between 0 and 1", report.Score)
	}
	if len(report.Missing) == 0 {
		t.Error("no missing clause types reported")
	}
}

func TestClusterClauses(t *testing.T) {
	e := newTestEngine(t, newCompletionServer(t, "unused"))

	clauses := []string{
		"The receiving party shall keep information confidential.",
		"All confidential material remains the property of the discloser.",
		"Payment is due within thirty days of invoice.",
		"Late payments accrue interest at two percent monthly.",
	}
	clusters, err := e.ClusterClauses(context.Background(), clauses, 2)
	if err != nil {
		t.Fatalf("ClusterClauses: %v", err)
	}
	total := 0
	for _, c := range clusters {
		total += len(c.Members)
	}
	if total != len(clauses) {
		t.Errorf("clusters cover %d clauses, want %d", total, len(clauses))
	}

	if _, err := e.ClusterClauses(context.Background(), nil, 2); !errors.Is(err, clauseforge.ErrValidation) {
		t.Errorf("empty cluster err = %v, want ErrValidation", err)
	}
}
