package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_service.go -package=mocks docquery/internal/service DocumentService

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"docquery/internal/contextutil"
	"docquery/internal/errs"
	"docquery/internal/extract"
	"docquery/internal/rag"
	"docquery/internal/registry"
	"docquery/internal/vectorstore"
)

// UploadRequest is a document file submitted for ingestion.
type UploadRequest struct {
	Filename string
	MimeType string
	Data     []byte
}

// UploadResult reports the outcome of an ingestion.
type UploadResult struct {
	DocumentID string `json:"documentId"`
	Source     string `json:"source"`
	Chunks     int    `json:"chunks"`
}

// DocumentService is the application-facing surface over the RAG pipeline
// and the document registry.
type DocumentService interface {
	Upload(ctx context.Context, req UploadRequest) (UploadResult, error)
	Ask(ctx context.Context, req rag.AnswerRequest) (rag.AnswerResponse, error)
	ListDocuments(ctx context.Context) ([]registry.DocumentSummary, error)
	DeleteDocument(ctx context.Context, documentID string) (int, error)
	IndexStats(ctx context.Context) (vectorstore.IndexStats, error)
}

type documentService struct {
	engine   rag.Engine
	registry *registry.Registry
	index    vectorstore.VectorIndex
}

// NewDocumentService creates a DocumentService over the given pipeline.
func NewDocumentService(engine rag.Engine, reg *registry.Registry, index vectorstore.VectorIndex) DocumentService {
	return &documentService{
		engine:   engine,
		registry: reg,
		index:    index,
	}
}

// Upload extracts plain text from the uploaded file, assigns a fresh document
// ID, and runs it through the ingestion pipeline.
func (s *documentService) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Filename == "" {
		return UploadResult{}, &errs.ValidationError{Field: "file", Message: "filename cannot be empty"}
	}
	if len(req.Data) == 0 {
		return UploadResult{}, &errs.ValidationError{Field: "file", Message: "file is empty"}
	}

	text, err := extract.Text(req.Data, req.MimeType)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to extract text from %s: %w", req.Filename, err)
	}

	documentID := uuid.New().String()
	result, err := s.engine.Ingest(ctx, rag.IngestRequest{
		Text:       text,
		Source:     req.Filename,
		DocumentID: documentID,
	})
	if err != nil {
		return UploadResult{}, err
	}

	logger.InfoContext(ctx, "uploaded document", "document_id", result.DocumentID, "filename", req.Filename, "chunks", result.Chunks)
	return UploadResult{
		DocumentID: result.DocumentID,
		Source:     req.Filename,
		Chunks:     result.Chunks,
	}, nil
}

func (s *documentService) Ask(ctx context.Context, req rag.AnswerRequest) (rag.AnswerResponse, error) {
	return s.engine.Answer(ctx, req)
}

// ListDocuments returns all ingested documents, newest first.
func (s *documentService) ListDocuments(ctx context.Context) ([]registry.DocumentSummary, error) {
	docs, err := s.registry.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// DeleteDocument removes every chunk of the document and returns how many
// were deleted. Deleting an unknown document returns zero, not an error.
func (s *documentService) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	if documentID == "" {
		return 0, &errs.ValidationError{Field: "documentID", Message: "cannot be empty"}
	}
	deleted, err := s.registry.DeleteDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "deleted document", "document_id", documentID, "chunks", deleted)
	return deleted, nil
}

func (s *documentService) IndexStats(ctx context.Context) (vectorstore.IndexStats, error) {
	return s.index.Stats(ctx)
}
