package rag

// Turn is a single prior exchange in a conversation, supplied read-only by
// the caller. Valid roles are "user" and "assistant"; malformed turns are
// filtered out rather than failing the request.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IngestRequest asks the engine to index one document's text.
type IngestRequest struct {
	// Text is the raw document text to chunk, embed, and index.
	Text string
	// Source is a human-readable origin label (e.g. a filename), stored as
	// chunk metadata and echoed back in answer citations.
	Source string
	// DocumentID must be globally unique per upload; re-using an ID
	// overwrites that document's chunk keys.
	DocumentID string
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

// AnswerRequest is a retrieval-augmented question.
type AnswerRequest struct {
	// Question is the user's natural-language question.
	Question string
	// TopK is the number of chunks to retrieve. 0 selects the default.
	TopK int
	// DocumentID optionally restricts retrieval to a single document.
	DocumentID string
	// History carries prior conversation turns so follow-up questions can
	// resolve references.
	History []Turn
}

// AnswerResponse is the generated answer plus the deduplicated sources of the
// chunks that grounded it, in first-seen order.
type AnswerResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}
