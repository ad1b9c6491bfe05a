// Package vectorstore manages the similarity-searchable vector index that
// serves as the system of record for ingested document chunks.
package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_index.go -package=mocks docquery/internal/vectorstore VectorIndex

import (
	"context"
	"time"
)

// ChunkMetadata is the document-level metadata attached to every indexed
// vector. The registry's aggregation depends on exactly these fields existing
// with these types, so this is a closed struct rather than an open bag.
type ChunkMetadata struct {
	Text       string
	Source     string
	ChunkIndex int
	DocumentID string
	CreatedAt  time.Time
}

// Record is the persisted unit in the vector index: a chunk's key, its
// embedding, and its metadata. Records are written once at ingestion time and
// never mutated in place; re-upserting a key replaces the whole record.
type Record struct {
	Key    string
	Vector []float32
	Meta   ChunkMetadata
}

// Match is a single similarity search result.
type Match struct {
	Key   string
	Score float32
	Meta  ChunkMetadata
}

// Filter restricts a query by metadata. The zero value matches everything.
type Filter struct {
	// DocumentID, when non-empty, restricts matches to one document.
	DocumentID string
}

// IndexStats describes the current state of the index.
type IndexStats struct {
	TotalRecords   uint64
	Dimension      int
	IndexedVectors uint64
	Segments       uint64
	Status         string
}

// VectorIndex is the contract the registry and the RAG engine consume. All
// methods surface connectivity and auth failures of the backing service as a
// distinguishable errs.UpstreamError; callers must report those as degraded
// service rather than treating them as "no results".
type VectorIndex interface {
	// EnsureCollection prepares the named collection, resolving an empty name
	// to the configured default. A collection whose dimension differs from
	// the expected one is deleted and recreated; previously indexed vectors
	// are discarded in that case.
	EnsureCollection(ctx context.Context, name string) error

	// Upsert writes or overwrites records by key. Idempotent.
	Upsert(ctx context.Context, records []Record) error

	// Query returns up to topK records ordered by descending similarity to
	// the given vector, optionally restricted by filter.
	Query(ctx context.Context, vector []float32, topK int, filter *Filter) ([]Match, error)

	// Fetch returns the metadata of the given keys. Unknown keys are
	// skipped and returned records carry no vectors. Callers fetch in
	// bounded batches to respect payload limits.
	Fetch(ctx context.Context, keys []string) ([]Record, error)

	// DeleteByKeys removes the given records. Irreversible.
	DeleteByKeys(ctx context.Context, keys []string) error

	// DeleteAll wipes the whole collection. Privileged, rarely used.
	DeleteAll(ctx context.Context) error

	// ListKeys scans every key, optionally scoped to the given prefix,
	// following continuation offsets until exhausted.
	ListKeys(ctx context.Context, prefix string) *KeyIterator

	// Stats reports record counts and the configured dimension.
	Stats(ctx context.Context) (IndexStats, error)
}
