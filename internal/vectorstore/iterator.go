package vectorstore

import "context"

// PageFunc fetches one page of keys starting at the given continuation
// offset. The first call receives an empty offset; an empty returned offset
// means the scan is exhausted.
type PageFunc func(ctx context.Context, offset string) (keys []string, next string, err error)

// KeyIterator walks a paginated key listing one page at a time. It makes
// exhaustion and error-mid-scan explicit instead of hiding them in a loop
// variable:
//
//	it := index.ListKeys(ctx, prefix)
//	for it.Next(ctx) {
//	    use(it.Keys())
//	}
//	if err := it.Err(); err != nil { ... }
type KeyIterator struct {
	fetch     PageFunc
	offset    string
	keys      []string
	err       error
	exhausted bool
}

// NewKeyIterator creates an iterator over the pages produced by fetch.
func NewKeyIterator(fetch PageFunc) *KeyIterator {
	return &KeyIterator{fetch: fetch}
}

// Next advances to the next non-empty page. It returns false when the scan is
// exhausted or a page fetch failed; check Err afterwards.
func (it *KeyIterator) Next(ctx context.Context) bool {
	for {
		if it.err != nil || it.exhausted {
			return false
		}

		keys, next, err := it.fetch(ctx, it.offset)
		if err != nil {
			it.err = err
			return false
		}

		it.offset = next
		if next == "" {
			it.exhausted = true
		}
		if len(keys) > 0 {
			it.keys = keys
			return true
		}
		if it.exhausted {
			return false
		}
	}
}

// Keys returns the current page. Only valid after Next returned true.
func (it *KeyIterator) Keys() []string {
	return it.keys
}

// Err returns the error that stopped the scan, if any.
func (it *KeyIterator) Err() error {
	return it.err
}

// Drain consumes the remaining pages and returns all keys.
func (it *KeyIterator) Drain(ctx context.Context) ([]string, error) {
	var all []string
	for it.Next(ctx) {
		all = append(all, it.Keys()...)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return all, nil
}
