package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is owned exclusively by the Document that produced it.
// ChunkId is deterministic: "doc_<documentId>_chunk_<index>", so re-ingestion
// and deletion can address exact chunk sets without a lookup table.
type DocumentChunk struct {
	ChunkId    string
	DocumentId string
	ChunkIndex int
	Text       string
	Embedding  []float32
	CreatedAt  time.Time
}

// ChunkIdFor builds the deterministic chunk id for a document and index.
func ChunkIdFor(documentId uuid.UUID, index int) string {
	return fmt.Sprintf("doc_%s_chunk_%d", documentId, index)
}
