package vectorstore

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func memRecord(documentID string, chunkIndex int, vector []float32) Record {
	return Record{
		Key:    ChunkKey(documentID, chunkIndex),
		Vector: vector,
		Meta: ChunkMetadata{
			Text:       fmt.Sprintf("chunk %d of %s", chunkIndex, documentID),
			Source:     documentID + ".txt",
			ChunkIndex: chunkIndex,
			DocumentID: documentID,
			CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}
}

func TestMemoryIndex_UpsertAndFetch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex("test", 3)

	records := []Record{
		memRecord("doc-a", 0, []float32{1, 0, 0}),
		memRecord("doc-a", 1, []float32{0, 1, 0}),
	}
	if err := idx.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := idx.Fetch(ctx, []string{ChunkKey("doc-a", 0), "unknown-key", ChunkKey("doc-a", 1)})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Fetch() returned %d records, want 2 (unknown key skipped)", len(got))
	}
	if got[0].Meta.DocumentID != "doc-a" || got[0].Meta.Source != "doc-a.txt" {
		t.Errorf("fetched metadata = %+v", got[0].Meta)
	}
	if got[0].Vector != nil {
		t.Error("Fetch() should not return vectors")
	}
}

func TestMemoryIndex_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex("test", 3)

	record := memRecord("doc-a", 0, []float32{1, 0, 0})
	for i := 0; i < 3; i++ {
		if err := idx.Upsert(ctx, []Record{record}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	stats, err := idx.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalRecords != 1 {
		t.Errorf("TotalRecords = %d after re-upserting one key, want 1", stats.TotalRecords)
	}
}

func TestMemoryIndex_UpsertDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex("test", 3)

	err := idx.Upsert(ctx, []Record{memRecord("doc-a", 0, []float32{1, 0})})
	if err == nil {
		t.Fatal("Upsert() with wrong dimension should fail")
	}

	// A rejected batch writes nothing.
	stats, _ := idx.Stats(ctx)
	if stats.TotalRecords != 0 {
		t.Errorf("TotalRecords = %d after rejected batch, want 0", stats.TotalRecords)
	}
}

func TestMemoryIndex_QueryOrdering(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex("test", 3)

	records := []Record{
		memRecord("doc-a", 0, []float32{1, 0, 0}),
		memRecord("doc-a", 1, []float32{0.9, 0.1, 0}),
		memRecord("doc-b", 0, []float32{0, 0, 1}),
	}
	if err := idx.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Query() returned %d matches, want 2", len(matches))
	}
	if matches[0].Key != ChunkKey("doc-a", 0) {
		t.Errorf("best match = %q, want the identical vector", matches[0].Key)
	}
	if matches[0].Score < matches[1].Score {
		t.Error("matches not ordered by descending score")
	}
}

func TestMemoryIndex_QueryFilter(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex("test", 3)

	records := []Record{
		memRecord("doc-a", 0, []float32{1, 0, 0}),
		memRecord("doc-b", 0, []float32{1, 0, 0}),
	}
	if err := idx.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 10, &Filter{DocumentID: "doc-b"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Query() returned %d matches, want 1", len(matches))
	}
	if matches[0].Meta.DocumentID != "doc-b" {
		t.Errorf("match document = %q, want doc-b", matches[0].Meta.DocumentID)
	}
}

func TestMemoryIndex_QueryInvalidTopK(t *testing.T) {
	idx := NewMemoryIndex("test", 3)
	if _, err := idx.Query(context.Background(), []float32{1, 0, 0}, 0, nil); err == nil {
		t.Error("Query() with topK=0 should fail")
	}
}

func TestMemoryIndex_DeleteByKeys(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex("test", 3)

	records := []Record{
		memRecord("doc-a", 0, []float32{1, 0, 0}),
		memRecord("doc-a", 1, []float32{0, 1, 0}),
	}
	if err := idx.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Unknown keys are ignored.
	if err := idx.DeleteByKeys(ctx, []string{ChunkKey("doc-a", 0), "unknown"}); err != nil {
		t.Fatalf("DeleteByKeys() error = %v", err)
	}

	stats, _ := idx.Stats(ctx)
	if stats.TotalRecords != 1 {
		t.Errorf("TotalRecords = %d, want 1", stats.TotalRecords)
	}
}

func TestMemoryIndex_DeleteAll(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex("test", 3)

	if err := idx.Upsert(ctx, []Record{memRecord("doc-a", 0, []float32{1, 0, 0})}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := idx.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	stats, _ := idx.Stats(ctx)
	if stats.TotalRecords != 0 {
		t.Errorf("TotalRecords = %d after DeleteAll, want 0", stats.TotalRecords)
	}
}

func TestMemoryIndex_ListKeys(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex("test", 3)

	var records []Record
	for i := 0; i < 5; i++ {
		records = append(records, memRecord("doc-a", i, []float32{1, 0, 0}))
	}
	records = append(records, memRecord("doc-b", 0, []float32{0, 1, 0}))
	if err := idx.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	all, err := idx.ListKeys(ctx, "").Drain(ctx)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(all) != 6 {
		t.Errorf("unscoped listing returned %d keys, want 6", len(all))
	}

	scoped, err := idx.ListKeys(ctx, ChunkKeyPrefix("doc-a")).Drain(ctx)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(scoped) != 5 {
		t.Errorf("scoped listing returned %d keys, want 5", len(scoped))
	}
	for _, key := range scoped {
		if key == ChunkKey("doc-b", 0) {
			t.Error("scoped listing leaked another document's key")
		}
	}
}

func TestMemoryIndex_ListKeysPagination(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex("test", 1)

	count := listPageSize + 50
	records := make([]Record, count)
	for i := 0; i < count; i++ {
		records[i] = Record{
			Key:    fmt.Sprintf("doc-%04d-chunk-0", i),
			Vector: []float32{1},
			Meta:   ChunkMetadata{DocumentID: fmt.Sprintf("doc-%04d", i)},
		}
	}
	if err := idx.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	it := idx.ListKeys(ctx, "")
	pages := 0
	total := 0
	for it.Next(ctx) {
		pages++
		total += len(it.Keys())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if pages != 2 {
		t.Errorf("visited %d pages, want 2", pages)
	}
	if total != count {
		t.Errorf("listed %d keys, want %d", total, count)
	}
}

func TestMemoryIndex_EnsureCollection(t *testing.T) {
	ctx := context.Background()

	idx := NewMemoryIndex("", 3)
	if err := idx.EnsureCollection(ctx, ""); err == nil {
		t.Error("EnsureCollection() with no name anywhere should fail")
	}
	if err := idx.EnsureCollection(ctx, "documents"); err != nil {
		t.Errorf("EnsureCollection() error = %v", err)
	}

	withDefault := NewMemoryIndex("documents", 3)
	if err := withDefault.EnsureCollection(ctx, ""); err != nil {
		t.Errorf("EnsureCollection() with default name error = %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("cosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
