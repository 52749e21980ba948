package contract

import (
	"context"

	"github.com/devora-bit/sphere/internal/entity"
)

// ScoredDocumentChunk pairs a chunk with its cosine distance to the query
// vector. Lower distance means more similar.
type ScoredDocumentChunk struct {
	Chunk    *entity.DocumentChunk
	Distance float64
}

type DocumentChunkRepository interface {
	// UpsertBulk inserts chunks, replacing rows that already carry the same
	// deterministic chunk id.
	UpsertBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByChunkIds(ctx context.Context, chunkIds []string) error
	DeleteByDocumentId(ctx context.Context, documentId string) error
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocumentChunk, error)
	Count(ctx context.Context) (int64, error)
}
