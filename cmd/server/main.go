package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/dmoreno/clauseforge"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Local development keeps secrets in .env; missing file is fine.
	_ = godotenv.Load()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := clauseforge.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
		f.Close()
	}

	// Override from environment variables.
	if v := os.Getenv("CLAUSEFORGE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CLAUSEFORGE_PROVIDER"); v != "" {
		cfg.Completion.Provider = v
	}
	if v := os.Getenv("CLAUSEFORGE_MODEL"); v != "" {
		cfg.Completion.Model = v
	}
	if v := os.Getenv("CLAUSEFORGE_BASE_URL"); v != "" {
		cfg.Completion.BaseURL = v
	}
	if v := os.Getenv("CLAUSEFORGE_API_KEY"); v != "" {
		cfg.Completion.APIKey = v
	}
	if v := os.Getenv("CLAUSEFORGE_SESSION_STORE"); v != "" {
		cfg.SessionStore = v
	}

	// Fallback: check well-known provider env vars for API keys.
	if cfg.Completion.APIKey == "" {
		switch cfg.Completion.Provider {
		case "openai":
			cfg.Completion.APIKey = os.Getenv("OPENAI_API_KEY")
		case "groq":
			cfg.Completion.APIKey = os.Getenv("GROQ_API_KEY")
		}
	}

	apiKey := os.Getenv("CLAUSEFORGE_SERVER_KEY")
	corsOrigins := os.Getenv("CLAUSEFORGE_CORS_ORIGINS")

	engine, err := clauseforge.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	h := newHandler(engine)

	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	if corsOrigins != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   strings.Split(corsOrigins, ","),
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Owner-ID"},
			AllowCredentials: true,
			MaxAge:           86400,
		}))
	}
	r.Use(authMiddleware(apiKey))
	r.Use(logMiddleware)

	r.Get("/health", h.handleHealth)
	r.Get("/stats", h.handleStats)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/upload", h.handleUpload)
		r.Post("/analyze", h.handleAnalyzeText)
		r.Post("/compare", h.handleCompare)
		r.Get("/", h.handleListDocuments)
		r.Get("/{id}", h.handleGetDocument)
		r.Delete("/{id}", h.handleDeleteDocument)
	})

	r.Route("/clauses", func(r chi.Router) {
		r.Post("/cluster", h.handleCluster)
		r.Post("/search", h.handleSearchClauses)
		r.Post("/similar", h.handleSimilarClauses)
		r.Post("/audit", h.handleAudit)
	})

	r.Route("/ai", func(r chi.Router) {
		r.Post("/draft", h.handleDraft)
		r.Post("/explain", h.handleExplain)
		r.Post("/redline", h.handleRedline)
		r.Post("/alternatives", h.handleAlternatives)
		r.Post("/risk", h.handleRiskNarrative)
		r.Post("/simulate", h.handleSimulate)
	})

	r.Route("/chatbot", func(r chi.Router) {
		r.Post("/sessions", h.handleNewSession)
		r.Post("/chat", h.handleChat)
		r.Get("/sessions/{id}/history", h.handleSessionHistory)
		r.Delete("/sessions/{id}", h.handleDeleteSession)
	})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // drafting calls can be long
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
