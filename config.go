package clauseforge

import (
	"os"
	"path/filepath"

	"github.com/dmoreno/clauseforge/llm"
)

// Config holds all configuration for the ClauseForge engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.clauseforge/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "clauseforge".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath is not
	// explicitly set. "home" (default) uses ~/.clauseforge/, "local" uses
	// the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// Completion is the completion-service endpoint used by the drafting
	// pipeline and the chat layer.
	Completion llm.Config `json:"completion" yaml:"completion"`

	// MinClauseChars is the minimum trimmed span length for a segment to be
	// treated as a clause rather than a header. Defaults to 50.
	MinClauseChars int `json:"min_clause_chars" yaml:"min_clause_chars"`

	// MaxVocabulary caps the TF-IDF vocabulary size. Defaults to 1000.
	MaxVocabulary int `json:"max_vocabulary" yaml:"max_vocabulary"`

	// TopTerms is how many representative terms to report per cluster and in
	// the insights report. Defaults to 10.
	TopTerms int `json:"top_terms" yaml:"top_terms"`

	// VectorDim is the dimension of the hashed clause term vectors stored in
	// sqlite-vec. Defaults to 256. Changing it requires a fresh database.
	VectorDim int `json:"vector_dim" yaml:"vector_dim"`

	// SessionStore selects the chat history backend: "memory" (default) or
	// "sqlite" (persisted alongside documents).
	SessionStore string `json:"session_store" yaml:"session_store"`
}

// DefaultConfig returns a Config with sensible defaults. The completion
// service defaults to Groq, matching the drafting models this engine was
// tuned against; any OpenAI-compatible endpoint works.
func DefaultConfig() Config {
	return Config{
		DBName:     "clauseforge",
		StorageDir: "home",
		Completion: llm.Config{
			Provider: "groq",
			Model:    "llama-3.3-70b-versatile",
		},
		MinClauseChars: 50,
		MaxVocabulary:  1000,
		TopTerms:       10,
		VectorDim:      256,
		SessionStore:   "memory",
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "clauseforge"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".clauseforge")
		return filepath.Join(dir, name+".db")
	}
}
