// Package chat implements multi-turn conversational sessions over a
// completion provider. Each post is classified into an intent category,
// answered under a category-specific persona, and recorded in the
// session's history through an injected store.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmoreno/clauseforge/llm"
)

// Category is the classified intent of a user message.
type Category string

const (
	CategoryExplanation Category = "explanation"
	CategoryDrafting    Category = "drafting"
	CategoryAnalysis    Category = "analysis"
	CategoryGeneral     Category = "general"
)

// categoryOrder fixes the priority when the classifier's answer mentions
// several categories: the earliest match wins.
var categoryOrder = []Category{CategoryExplanation, CategoryDrafting, CategoryAnalysis}

var personas = map[Category]string{
	CategoryExplanation: "You are a legal explanation specialist. Provide clear, comprehensive explanations of legal concepts.",
	CategoryDrafting:    "You are a legal drafting assistant. Help with creating legal documents and clauses.",
	CategoryAnalysis:    "You are a legal analysis expert. Analyze documents and provide actionable insights.",
	CategoryGeneral:     "You are a comprehensive legal assistant. Provide helpful, accurate legal guidance.",
}

// suggestionPools holds follow-up suggestions per category; the shared
// pool backfills up to the cap.
var (
	sharedSuggestions = []string{
		"Would you like me to explain any specific terms?",
		"Do you need help with related legal considerations?",
		"Would you like suggestions for next steps?",
	}
	suggestionPools = map[Category][]string{
		CategoryDrafting: {
			"Would you like me to review specific clauses?",
			"Do you need templates for similar documents?",
		},
		CategoryAnalysis: {
			"Would you like a risk assessment?",
			"Do you need recommendations for improvements?",
		},
	}
)

const maxSuggestions = 3

const (
	classifyTemperature = 0.2
	classifyMaxTokens   = 300
	replyTemperature    = 0.4
	replyMaxTokens      = 2000
)

// Reply is the outcome of one post to a session.
type Reply struct {
	SessionID   string   `json:"session_id"`
	Response    string   `json:"response"`
	Category    Category `json:"query_type"`
	Suggestions []string `json:"recommendations"`
}

// Manager runs conversations against an injected session store.
type Manager struct {
	provider llm.Provider
	store    Store
}

// NewManager creates a Manager on the given provider and store.
func NewManager(provider llm.Provider, store Store) *Manager {
	return &Manager{provider: provider, store: store}
}

// NewSession mints a session id namespaced to the owner and registers
// it in the store.
func (m *Manager) NewSession(ctx context.Context, ownerID string) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", fmt.Errorf("owner id is required")
	}
	id := ownerID + ":" + uuid.NewString()
	if err := m.store.Create(ctx, id); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// ownedBy reports whether the session id was minted for the owner.
func ownedBy(sessionID, ownerID string) bool {
	return ownerID != "" && strings.HasPrefix(sessionID, ownerID+":")
}

// History returns a session's messages, oldest first. Callers may only
// read sessions minted for them.
func (m *Manager) History(ctx context.Context, ownerID, sessionID string) ([]Entry, error) {
	if !ownedBy(sessionID, ownerID) {
		return nil, ErrForbidden
	}
	return m.store.Get(ctx, sessionID)
}

// Delete removes a session and its history irreversibly.
func (m *Manager) Delete(ctx context.Context, ownerID, sessionID string) error {
	if !ownedBy(sessionID, ownerID) {
		return ErrForbidden
	}
	return m.store.Delete(ctx, sessionID)
}

// Post sends a user message to a session and returns the assistant's
// reply. An empty sessionID mints a new session for the owner. Every
// post appends a user entry then an assistant entry to the history.
func (m *Manager) Post(ctx context.Context, ownerID, sessionID, message string, contextData map[string]any) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message is required")
	}

	if sessionID == "" {
		id, err := m.NewSession(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		sessionID = id
	} else if !ownedBy(sessionID, ownerID) {
		return nil, ErrForbidden
	}

	analysis, category, err := m.classify(ctx, message)
	if err != nil {
		return nil, err
	}

	response, err := m.respond(ctx, category, message, analysis, contextData)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = m.store.Append(ctx, sessionID,
		Entry{Role: "user", Content: message, CreatedAt: now},
		Entry{Role: "assistant", Content: response, CreatedAt: now},
	)
	if err != nil {
		return nil, fmt.Errorf("recording history: %w", err)
	}

	return &Reply{
		SessionID:   sessionID,
		Response:    response,
		Category:    category,
		Suggestions: suggestionsFor(category),
	}, nil
}

// classify asks the provider to categorize the message, then scans the
// textual answer for category keywords in fixed priority order.
func (m *Manager) classify(ctx context.Context, message string) (string, Category, error) {
	prompt := fmt.Sprintf(`As a legal query analyzer, categorize this user query:

Query: %s

Determine:
1. Query type (explanation, drafting, analysis, general)
2. User intent and what they need
3. Complexity level
4. Context needed for best response`, message)

	analysis, err := llm.Complete(ctx, m.provider, personas[CategoryGeneral], prompt, classifyTemperature, classifyMaxTokens)
	if err != nil {
		return "", "", fmt.Errorf("classifying query: %w", err)
	}

	lower := strings.ToLower(analysis)
	for _, c := range categoryOrder {
		if strings.Contains(lower, string(c)) {
			return analysis, c, nil
		}
	}
	return analysis, CategoryGeneral, nil
}

func (m *Manager) respond(ctx context.Context, category Category, message, analysis string, contextData map[string]any) (string, error) {
	serialized := "None"
	if len(contextData) > 0 {
		if data, err := json.Marshal(contextData); err == nil {
			serialized = string(data)
		}
	}

	prompt := fmt.Sprintf(`User Query: %s
Query Analysis: %s
Context: %s

Provide a helpful, accurate response. Always recommend consulting qualified legal counsel for specific advice.`, message, analysis, serialized)

	response, err := llm.Complete(ctx, m.provider, personas[category], prompt, replyTemperature, replyMaxTokens)
	if err != nil {
		return "", fmt.Errorf("generating response: %w", err)
	}
	return response, nil
}

// suggestionsFor builds up to maxSuggestions follow-ups, category
// specific first, backfilled from the shared pool.
func suggestionsFor(category Category) []string {
	out := append([]string(nil), suggestionPools[category]...)
	for _, s := range sharedSuggestions {
		if len(out) >= maxSuggestions {
			break
		}
		out = append(out, s)
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
