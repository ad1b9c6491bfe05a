package llm

// EmbeddingDimension is the fixed output size of the embedding model. The
// vector index is created with this dimension and every vector written to it
// must match.
const EmbeddingDimension = 768

// TaskType tags an embedding request with its intent so the model can weight
// the text appropriately. Stored document content and search queries use
// different tags; mixing them degrades retrieval quality.
type TaskType string

const (
	// TaskDocument marks text that will be stored and retrieved against.
	TaskDocument TaskType = "RETRIEVAL_DOCUMENT"
	// TaskQuery marks text used to search stored content.
	TaskQuery TaskType = "RETRIEVAL_QUERY"
)

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	// Temperature controls the randomness of the output.
	Temperature float32
}
