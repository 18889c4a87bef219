// Package knowledge implements similarity search over the support knowledge
// base. A Store ranks stored passages against a query embedding; the Embedder
// turns text into that embedding.
package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
)

// Passage is one ranked knowledge-base entry. Only Content is shown to the model.
type Passage struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Store returns up to k passages ordered by decreasing similarity.
type Store interface {
	Search(ctx context.Context, embedding []float32, k int) ([]Passage, error)
	Ping(ctx context.Context) error
}

// Embedder maps a query onto the vector space of the stored passages.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder wraps an embedding client (the shared Gemini client in
// production) with langchaingo's query embedder. A positive dims rejects
// vectors whose length does not match the stored passages.
func NewEmbedder(client embeddings.EmbedderClient, dims int) (Embedder, error) {
	e, err := embeddings.NewEmbedder(checkedClient{client, dims}, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return e, nil
}

// checkedClient rejects responses that do not carry one vector per input.
type checkedClient struct {
	embeddings.EmbedderClient
	dims int
}

func (c checkedClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := c.EmbedderClient.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding client returned %d vectors for %d inputs", len(vecs), len(texts))
	}
	for _, v := range vecs {
		if len(v) == 0 {
			return nil, errors.New("embedding client returned an empty vector")
		}
		if c.dims > 0 && len(v) != c.dims {
			return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(v), c.dims)
		}
	}
	return vecs, nil
}
