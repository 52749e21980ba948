package vectorstore

import "context"

// Result is a single semantic search hit. Distance is the cosine distance
// to the query, smaller means more similar.
type Result struct {
	ID       string
	Text     string
	Metadata map[string]string
	Distance float64
}

// Relevance converts the cosine distance into a similarity score where 1 is
// an exact match.
func (r Result) Relevance() float64 {
	return 1 - r.Distance
}

// Index is a semantic search index over text fragments. Implementations
// embed the texts themselves.
type Index interface {
	// Available reports whether the index can serve queries. Callers are
	// expected to degrade gracefully when it cannot.
	Available() bool

	// Add embeds and stores the given texts. ids, texts and metadatas run
	// in parallel; existing ids are overwritten.
	Add(ctx context.Context, ids []string, texts []string, metadatas []map[string]string) error

	// Query embeds the query text and returns the k nearest fragments.
	Query(ctx context.Context, query string, k int) ([]Result, error)

	Delete(ctx context.Context, ids []string) error
	Count(ctx context.Context) (int64, error)
}
