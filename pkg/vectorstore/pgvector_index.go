package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/repository/contract"
	"github.com/devora-bit/sphere/pkg/embedding"
)

const (
	MetadataDocumentId = "document_id"
	MetadataChunkIndex = "chunk_index"
)

// PgVectorIndex stores fragments as pgvector rows in the document_chunks
// table and searches them by cosine distance.
type PgVectorIndex struct {
	chunks   contract.DocumentChunkRepository
	embedder embedding.Provider
}

func NewPgVectorIndex(chunks contract.DocumentChunkRepository, embedder embedding.Provider) *PgVectorIndex {
	return &PgVectorIndex{
		chunks:   chunks,
		embedder: embedder,
	}
}

func (idx *PgVectorIndex) Available() bool {
	return idx.chunks != nil && idx.embedder != nil
}

func (idx *PgVectorIndex) Add(ctx context.Context, ids []string, texts []string, metadatas []map[string]string) error {
	if !idx.Available() {
		return fmt.Errorf("vector index is not available")
	}
	if len(ids) != len(texts) {
		return fmt.Errorf("ids and texts length mismatch: %d != %d", len(ids), len(texts))
	}

	chunks := make([]*entity.DocumentChunk, 0, len(texts))
	for i, text := range texts {
		vector, err := idx.embedder.Generate(ctx, text)
		if err != nil {
			return fmt.Errorf("embed fragment %s: %w", ids[i], err)
		}

		chunk := &entity.DocumentChunk{
			ChunkId:   ids[i],
			Text:      text,
			Embedding: vector,
			CreatedAt: time.Now(),
		}
		if i < len(metadatas) && metadatas[i] != nil {
			chunk.DocumentId = metadatas[i][MetadataDocumentId]
			if raw, ok := metadatas[i][MetadataChunkIndex]; ok {
				if n, err := strconv.Atoi(raw); err == nil {
					chunk.ChunkIndex = n
				}
			}
		}
		chunks = append(chunks, chunk)
	}

	return idx.chunks.UpsertBulk(ctx, chunks)
}

func (idx *PgVectorIndex) Query(ctx context.Context, query string, k int) ([]Result, error) {
	if !idx.Available() {
		return nil, fmt.Errorf("vector index is not available")
	}

	vector, err := idx.embedder.Generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := idx.chunks.SearchSimilar(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(scored))
	for i, s := range scored {
		results[i] = Result{
			ID:   s.Chunk.ChunkId,
			Text: s.Chunk.Text,
			Metadata: map[string]string{
				MetadataDocumentId: s.Chunk.DocumentId,
				MetadataChunkIndex: strconv.Itoa(s.Chunk.ChunkIndex),
			},
			Distance: s.Distance,
		}
	}
	return results, nil
}

func (idx *PgVectorIndex) Delete(ctx context.Context, ids []string) error {
	if !idx.Available() {
		return fmt.Errorf("vector index is not available")
	}
	return idx.chunks.DeleteByChunkIds(ctx, ids)
}

func (idx *PgVectorIndex) Count(ctx context.Context) (int64, error) {
	if !idx.Available() {
		return 0, fmt.Errorf("vector index is not available")
	}
	return idx.chunks.Count(ctx)
}
