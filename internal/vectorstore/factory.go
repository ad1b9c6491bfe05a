package vectorstore

// New selects the vector index backend. A configured Qdrant URL selects the
// Qdrant gateway; an empty URL falls back to the in-process memory index,
// which is enough for single-node runs and local development.
func New(qdrantURL, collection string, dimension int) (VectorIndex, error) {
	if qdrantURL == "" {
		return NewMemoryIndex(collection, dimension), nil
	}
	return NewQdrantIndex(qdrantURL, collection, dimension)
}
