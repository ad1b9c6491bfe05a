package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"docquery/internal/errs"
)

// MemoryIndex is an in-process VectorIndex using brute-force cosine
// similarity. It backs single-node deployments that run without a Qdrant
// endpoint and the behavioral tests of the pipeline. Contents do not survive
// a restart.
type MemoryIndex struct {
	mu        sync.RWMutex
	name      string
	dimension int
	records   map[string]Record
}

// NewMemoryIndex creates an empty in-memory index with the given default
// collection name and vector dimension.
func NewMemoryIndex(name string, dimension int) *MemoryIndex {
	return &MemoryIndex{
		name:      name,
		dimension: dimension,
		records:   make(map[string]Record),
	}
}

// EnsureCollection resolves the collection name. The in-memory index has no
// external lifecycle; the call only validates that a name is available.
func (s *MemoryIndex) EnsureCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.name = name
	}
	if s.name == "" {
		return &errs.ConfigError{Name: "QDRANT_COLLECTION", Message: "no collection name given and no default configured"}
	}
	return nil
}

// Upsert writes or overwrites records by key, enforcing the index dimension
// the way the external service would.
func (s *MemoryIndex) Upsert(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		if len(record.Vector) != s.dimension {
			return fmt.Errorf("record %s has dimension %d, index expects %d", record.Key, len(record.Vector), s.dimension)
		}
	}
	for _, record := range records {
		s.records[record.Key] = record
	}
	return nil
}

// Query returns up to topK records by descending cosine similarity.
func (s *MemoryIndex) Query(_ context.Context, vector []float32, topK int, filter *Filter) ([]Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be greater than 0")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.records))
	for _, record := range s.records {
		if filter != nil && filter.DocumentID != "" && record.Meta.DocumentID != filter.DocumentID {
			continue
		}
		matches = append(matches, Match{
			Key:   record.Key,
			Score: cosineSimilarity(vector, record.Vector),
			Meta:  record.Meta,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Key < matches[j].Key
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Fetch returns the metadata of the given keys; unknown keys are skipped.
func (s *MemoryIndex) Fetch(_ context.Context, keys []string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		if record, ok := s.records[key]; ok {
			records = append(records, Record{Key: record.Key, Meta: record.Meta})
		}
	}
	return records, nil
}

// DeleteByKeys removes the given records. Unknown keys are ignored.
func (s *MemoryIndex) DeleteByKeys(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

// DeleteAll wipes the index.
func (s *MemoryIndex) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record)
	return nil
}

// ListKeys returns an iterator over all keys matching the prefix, in sorted
// order, one page at a time.
func (s *MemoryIndex) ListKeys(_ context.Context, prefix string) *KeyIterator {
	s.mu.RLock()
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)

	return NewKeyIterator(func(_ context.Context, offset string) ([]string, string, error) {
		start := 0
		if offset != "" {
			// offset names the first key of the next page
			start = sort.SearchStrings(keys, offset)
		}
		end := start + listPageSize
		if end >= len(keys) {
			return keys[start:], "", nil
		}
		return keys[start:end], keys[end], nil
	})
}

// Stats reports record counts and the configured dimension.
func (s *MemoryIndex) Stats(_ context.Context) (IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return IndexStats{
		TotalRecords:   uint64(len(s.records)),
		Dimension:      s.dimension,
		IndexedVectors: uint64(len(s.records)),
		Segments:       1,
		Status:         "Green",
	}, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
