package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_clients.go -package=mocks docquery/internal/rag Embedder,Generator,Engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docquery/internal/chunker"
	"docquery/internal/contextutil"
	"docquery/internal/errs"
	"docquery/internal/llm"
	"docquery/internal/vectorstore"
)

const (
	defaultTopK = 5
	maxTopK     = 20
)

// NoDocumentsAnswer is returned without calling the generation service when
// retrieval produced no usable context.
const NoDocumentsAnswer = "I don't have any documents to answer from yet. Upload a document and ask again."

const systemPrompt = "You are a helpful assistant that answers questions based on the provided context " +
	"from the user's documents. Answer the question using only the information from the context below. " +
	"If the context doesn't contain enough information to answer the question, say so. " +
	"Mention the relevant sources when possible."

// Embedder is the embedding capability consumed by the engine.
type Embedder interface {
	// EmbedText converts one text to a fixed-length vector.
	EmbedText(ctx context.Context, text string, task llm.TaskType) ([]float32, error)
	// EmbedTexts converts texts to vectors in a single batched call, aligned
	// index-for-index with the input.
	EmbedTexts(ctx context.Context, texts []string, task llm.TaskType) ([][]float32, error)
}

// Generator is the text generation capability consumed by the engine.
type Generator interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Engine is the top-level RAG pipeline: ingestion (chunk, embed, upsert) and
// querying (embed, retrieve, assemble context, generate).
type Engine interface {
	Ingest(ctx context.Context, req IngestRequest) (IngestResult, error)
	Answer(ctx context.Context, req AnswerRequest) (AnswerResponse, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	chunker   *chunker.Chunker
	embedder  Embedder
	index     vectorstore.VectorIndex
	generator Generator
}

// NewEngine creates a RAG engine over the given capabilities.
func NewEngine(embedder Embedder, index vectorstore.VectorIndex, generator Generator) Engine {
	return &ragEngine{
		chunker:   chunker.New(chunker.DefaultMaxSize, chunker.DefaultOverlap),
		embedder:  embedder,
		index:     index,
		generator: generator,
	}
}

// Ingest chunks the text, embeds all chunks in one batched call, and upserts
// one record per chunk under the document's key scheme. It fails fast: an
// embedding or upsert failure leaves the document considered not-ingested,
// with no partial-success bookkeeping.
func (e *ragEngine) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Text) == "" {
		return IngestResult{}, &errs.ValidationError{Field: "text", Message: "cannot be empty"}
	}
	if req.DocumentID == "" {
		return IngestResult{}, &errs.ValidationError{Field: "documentId", Message: "cannot be empty"}
	}

	chunks := e.chunker.Split(req.Text)
	if len(chunks) == 0 {
		return IngestResult{DocumentID: req.DocumentID}, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts, llm.TaskDocument)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed chunks", "document_id", req.DocumentID, "error", err)
		return IngestResult{}, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return IngestResult{}, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(vectors))
	}

	createdAt := time.Now().UTC()
	records := make([]vectorstore.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = vectorstore.Record{
			Key:    vectorstore.ChunkKey(req.DocumentID, chunk.Index),
			Vector: vectors[i],
			Meta: vectorstore.ChunkMetadata{
				Text:       chunk.Text,
				Source:     req.Source,
				ChunkIndex: chunk.Index,
				DocumentID: req.DocumentID,
				CreatedAt:  createdAt,
			},
		}
	}

	if err := e.index.Upsert(ctx, records); err != nil {
		logger.ErrorContext(ctx, "failed to upsert chunks", "document_id", req.DocumentID, "error", err)
		return IngestResult{}, fmt.Errorf("index upsert failed: %w", err)
	}

	logger.InfoContext(ctx, "ingested document", "document_id", req.DocumentID, "source", req.Source, "chunks", len(chunks))
	return IngestResult{DocumentID: req.DocumentID, Chunks: len(chunks)}, nil
}

// Answer embeds the question, retrieves the most similar chunks, and
// conditions one generation call on the assembled context. An empty context
// short-circuits with the canned no-documents response; no generation call is
// made in that case. Upstream failures at any stage are wrapped with the
// failing stage and re-raised, never hidden behind a fabricated answer.
func (e *ragEngine) Answer(ctx context.Context, req AnswerRequest) (AnswerResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Question) == "" {
		return AnswerResponse{}, &errs.ValidationError{Field: "question", Message: "cannot be empty"}
	}

	topK := req.TopK
	if topK == 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	queryVector, err := e.embedder.EmbedText(ctx, req.Question, llm.TaskQuery)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return AnswerResponse{}, fmt.Errorf("failed to embed question: %w", err)
	}

	var filter *vectorstore.Filter
	if req.DocumentID != "" {
		filter = &vectorstore.Filter{DocumentID: req.DocumentID}
	}

	matches, err := e.index.Query(ctx, queryVector, topK, filter)
	if err != nil {
		logger.ErrorContext(ctx, "failed to query index", "top_k", topK, "error", err)
		return AnswerResponse{}, fmt.Errorf("index query failed: %w", err)
	}

	// Assemble context in score-descending order and collect sources,
	// deduplicated in first-seen order.
	texts := make([]string, 0, len(matches))
	sources := make([]string, 0, len(matches))
	seenSources := make(map[string]bool)
	for _, match := range matches {
		texts = append(texts, match.Meta.Text)
		if match.Meta.Source != "" && !seenSources[match.Meta.Source] {
			seenSources[match.Meta.Source] = true
			sources = append(sources, match.Meta.Source)
		}
	}
	contextText := strings.Join(texts, "\n\n")

	if strings.TrimSpace(contextText) == "" {
		logger.InfoContext(ctx, "no context retrieved, skipping generation")
		return AnswerResponse{Answer: NoDocumentsAnswer, Sources: []string{}}, nil
	}

	messages := make([]llm.Message, 0, len(req.History)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, historyMessages(req.History)...)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf("%s\n\n--- Context from documents ---\n\n%s\n\n--- End context ---", req.Question, contextText),
	})

	answer, err := e.generator.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: 0.7})
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate answer", "error", err)
		return AnswerResponse{}, fmt.Errorf("generation failed: %w", err)
	}

	logger.InfoContext(ctx, "answered question", "chunks_used", len(matches), "sources", len(sources), "answer_length", len(answer))
	return AnswerResponse{Answer: answer, Sources: sources}, nil
}

// historyMessages converts prior turns to chat messages, dropping malformed
// entries instead of rejecting the whole request.
func historyMessages(history []Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		if turn.Content == "" {
			continue
		}
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}
