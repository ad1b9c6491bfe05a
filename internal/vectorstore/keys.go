package vectorstore

import (
	"fmt"
	"strings"
)

// chunkKeySep joins a document ID and a chunk ordinal into a record key.
const chunkKeySep = "-chunk-"

// ChunkKey builds the composite record key for one chunk of a document. This
// key is the sole join between vector identity and document identity, so
// document IDs must be globally unique (callers use UUIDs).
func ChunkKey(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s%s%d", documentID, chunkKeySep, chunkIndex)
}

// ChunkKeyPrefix returns the key prefix shared by every chunk of a document.
func ChunkKeyPrefix(documentID string) string {
	return documentID + chunkKeySep
}

// documentIDFromPrefix recovers the document ID from a chunk key prefix, or
// returns "" when the prefix does not follow the chunk key scheme. A
// recognized prefix lets listing push the scope down to the index as a
// document filter instead of scanning everything.
func documentIDFromPrefix(prefix string) string {
	if prefix == "" || !strings.HasSuffix(prefix, chunkKeySep) {
		return ""
	}
	return strings.TrimSuffix(prefix, chunkKeySep)
}
