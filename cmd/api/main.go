package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"docquery/internal/config"
	"docquery/internal/http"
	"docquery/internal/llm"
	"docquery/internal/rag"
	"docquery/internal/registry"
	"docquery/internal/service"
	"docquery/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx := context.Background()

	// Initialize vector index. Empty QDRANT_URL selects the in-memory index.
	index, err := vectorstore.New(cfg.QdrantURL, cfg.QdrantCollection, llm.EmbeddingDimension)
	if err != nil {
		log.Fatalf("Failed to create vector index: %v", err)
	}
	if err := index.EnsureCollection(ctx, cfg.QdrantCollection); err != nil {
		log.Fatalf("Failed to ensure collection: %v", err)
	}
	slog.Info("Vector index ready", "collection", cfg.QdrantCollection, "dimension", llm.EmbeddingDimension)

	// Create external service clients
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName)
	generator := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Create RAG engine and document registry
	engine := rag.NewEngine(embedder, index, generator)
	reg := registry.New(index)
	slog.Info("RAG engine initialized")

	documentService := service.NewDocumentService(engine, reg, index)

	// Create router with dependencies
	deps := &http.Deps{
		DocumentService: documentService,
		Index:           index,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
