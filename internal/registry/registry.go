// Package registry derives a logical document view from the vector index.
// There is no document table: summaries are recomputed on demand by scanning
// index contents, keeping the index the single system of record.
package registry

import (
	"context"
	"fmt"
	"time"

	"docquery/internal/contextutil"
	"docquery/internal/vectorstore"
)

// fetchBatchSize bounds metadata fetches so one request never carries an
// unreasonable payload.
const fetchBatchSize = 100

// DocumentSummary aggregates all chunks sharing a document ID.
type DocumentSummary struct {
	DocumentID string    `json:"document_id"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"` // earliest among the document's chunks
	ChunkCount int       `json:"chunk_count"`
}

// Registry answers document-level questions by scanning the index.
type Registry struct {
	index vectorstore.VectorIndex
}

// New creates a Registry over the given index.
func New(index vectorstore.VectorIndex) *Registry {
	return &Registry{index: index}
}

// ListDocuments scans every key in the index, fetches metadata in bounded
// batches, and folds the records into per-document summaries. Records lacking
// both a document ID and a source are skipped as malformed. Output order is
// unspecified; callers sort as needed.
func (r *Registry) ListDocuments(ctx context.Context) ([]DocumentSummary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	keys, err := r.index.ListKeys(ctx, "").Drain(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list index keys: %w", err)
	}

	summaries := make(map[string]*DocumentSummary)
	for start := 0; start < len(keys); start += fetchBatchSize {
		end := start + fetchBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		records, err := r.index.Fetch(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chunk metadata: %w", err)
		}

		for _, record := range records {
			meta := record.Meta
			if meta.DocumentID == "" && meta.Source == "" {
				logger.WarnContext(ctx, "skipping malformed record", "key", record.Key)
				continue
			}

			summary, ok := summaries[meta.DocumentID]
			if !ok {
				summary = &DocumentSummary{
					DocumentID: meta.DocumentID,
					Source:     meta.Source,
					CreatedAt:  meta.CreatedAt,
				}
				summaries[meta.DocumentID] = summary
			}
			summary.ChunkCount++
			if summary.Source == "" {
				summary.Source = meta.Source
			}
			if !meta.CreatedAt.IsZero() && (summary.CreatedAt.IsZero() || meta.CreatedAt.Before(summary.CreatedAt)) {
				summary.CreatedAt = meta.CreatedAt
			}
		}
	}

	result := make([]DocumentSummary, 0, len(summaries))
	for _, summary := range summaries {
		result = append(result, *summary)
	}

	logger.InfoContext(ctx, "listed documents", "chunks", len(keys), "documents", len(result))
	return result, nil
}

// DeleteDocument removes every chunk keyed under the document's prefix and
// returns the number of removed records. A document with no chunks yields 0
// without error; absence is not a failure for delete.
func (r *Registry) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	keys, err := r.index.ListKeys(ctx, vectorstore.ChunkKeyPrefix(documentID)).Drain(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list document keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := r.index.DeleteByKeys(ctx, keys); err != nil {
		return 0, fmt.Errorf("failed to delete document chunks: %w", err)
	}

	logger.InfoContext(ctx, "deleted document", "document_id", documentID, "chunks", len(keys))
	return len(keys), nil
}
