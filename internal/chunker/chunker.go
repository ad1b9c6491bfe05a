// Package chunker splits raw document text into overlapping chunks sized for
// the embedding model, preferring sentence and line boundaries over hard cuts.
package chunker

import "strings"

const (
	// DefaultMaxSize is the sliding window width in runes.
	DefaultMaxSize = 1000
	// DefaultOverlap is the number of runes shared between consecutive chunks
	// when no natural boundary is found.
	DefaultOverlap = 200
)

// Chunk is a trimmed, non-empty substring of a document's text.
type Chunk struct {
	Index int    // 0-based position within the document
	Text  string // chunk text content
}

// Chunker splits text using a sliding window with boundary-aware breakpoints.
// Splitting is deterministic: the output is a pure function of the input text
// and the configured sizes.
type Chunker struct {
	maxSize int
	overlap int
}

// New creates a Chunker. Non-positive maxSize and out-of-range overlap values
// fall back to the defaults; overlap must be smaller than maxSize.
func New(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = DefaultOverlap
		if overlap >= maxSize {
			overlap = maxSize / 2
		}
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}
}

// Split cuts text into ordered, trimmed, non-empty chunks. Empty or
// whitespace-only input yields no chunks; that is not an error.
//
// The text is scanned in a window of maxSize runes. For every window except
// the final one, the last sentence terminator ('.') or newline in the window
// is located. If it lies past the window midpoint the cut happens there,
// inclusive of the terminator, and scanning resumes just past the cut. Without
// a usable boundary the full window is emitted and the cursor advances by
// maxSize-overlap, so consecutive chunks share exactly overlap runes.
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(text)

	var chunks []Chunk
	emit := func(segment string) {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: trimmed})
	}

	start := 0
	for start < len(runes) {
		end := start + c.maxSize
		if end >= len(runes) {
			emit(string(runes[start:]))
			break
		}

		window := runes[start:end]
		breakpoint := lastBreakpoint(window)
		if breakpoint >= 0 && float64(breakpoint) > float64(c.maxSize)*0.5 {
			// Natural boundary past the midpoint: cut inclusive of the
			// terminator and continue just past it, without overlap.
			emit(string(window[:breakpoint+1]))
			start += breakpoint + 1
		} else {
			emit(string(window))
			start += c.maxSize - c.overlap
		}
	}

	return chunks
}

// lastBreakpoint returns the offset of the last sentence terminator or
// newline in the window, or -1 if the window contains neither.
func lastBreakpoint(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
