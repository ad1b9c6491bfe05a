package vectorstore

import (
	"context"
	"errors"
	"testing"
)

// pagedFetch returns a PageFunc serving the given pages in order, using the
// page index as the continuation offset.
func pagedFetch(pages [][]string) PageFunc {
	offsets := map[string]int{"": 0, "p1": 1, "p2": 2, "p3": 3}
	return func(_ context.Context, offset string) ([]string, string, error) {
		i := offsets[offset]
		if i >= len(pages) {
			return nil, "", nil
		}
		next := ""
		if i+1 < len(pages) {
			next = []string{"", "p1", "p2", "p3"}[i+1]
		}
		return pages[i], next, nil
	}
}

func TestKeyIterator_MultiplePages(t *testing.T) {
	it := NewKeyIterator(pagedFetch([][]string{
		{"a", "b"},
		{"c"},
		{"d", "e", "f"},
	}))

	var all []string
	pageCount := 0
	for it.Next(context.Background()) {
		pageCount++
		all = append(all, it.Keys()...)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	if pageCount != 3 {
		t.Errorf("visited %d pages, want 3", pageCount)
	}
	want := []string{"a", "b", "c", "d", "e", "f"}
	if len(all) != len(want) {
		t.Fatalf("got %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, all[i], want[i])
		}
	}
}

func TestKeyIterator_SkipsEmptyPages(t *testing.T) {
	it := NewKeyIterator(pagedFetch([][]string{
		{"a"},
		{},
		{"b"},
	}))

	all, err := it.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(all) != 2 || all[0] != "a" || all[1] != "b" {
		t.Errorf("Drain() = %v, want [a b]", all)
	}
}

func TestKeyIterator_Empty(t *testing.T) {
	it := NewKeyIterator(func(_ context.Context, _ string) ([]string, string, error) {
		return nil, "", nil
	})

	if it.Next(context.Background()) {
		t.Error("Next() = true on empty listing")
	}
	if err := it.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestKeyIterator_ErrorMidScan(t *testing.T) {
	scanErr := errors.New("scroll failed")
	calls := 0
	it := NewKeyIterator(func(_ context.Context, offset string) ([]string, string, error) {
		calls++
		if offset == "" {
			return []string{"a"}, "next", nil
		}
		return nil, "", scanErr
	})

	if !it.Next(context.Background()) {
		t.Fatal("first page should be available")
	}
	if it.Next(context.Background()) {
		t.Error("Next() = true after fetch error")
	}
	if !errors.Is(it.Err(), scanErr) {
		t.Errorf("Err() = %v, want %v", it.Err(), scanErr)
	}

	// A failed iterator stays failed.
	if it.Next(context.Background()) {
		t.Error("Next() = true on failed iterator")
	}
	if calls != 2 {
		t.Errorf("fetch called %d times, want 2", calls)
	}
}

func TestKeyIterator_DrainError(t *testing.T) {
	scanErr := errors.New("scroll failed")
	it := NewKeyIterator(func(_ context.Context, _ string) ([]string, string, error) {
		return nil, "", scanErr
	})

	if _, err := it.Drain(context.Background()); !errors.Is(err, scanErr) {
		t.Errorf("Drain() error = %v, want %v", err, scanErr)
	}
}
