package ingestion

import (
	"context"
	"fmt"
	"math"
)

// embedChunks turns chunk texts into unit-length vectors, batching the
// provider calls. Any batch failing fails the whole set, so a version
// never ends up with a partial chunk set.
func (p *Pipeline) embedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))

		batch, err := p.embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbeddingProvider, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: requested %d embeddings, received %d",
				ErrEmbeddingProvider, end-start, len(batch))
		}
		vectors = append(vectors, batch...)
	}

	expected := p.dimension
	if expected == 0 && len(vectors) > 0 {
		expected = len(vectors[0])
	}
	for i, vector := range vectors {
		if len(vector) != expected {
			return nil, fmt.Errorf("%w: chunk %d has dimension %d, expected %d",
				ErrDimensionMismatch, i, len(vector), expected)
		}
		normalizeVector(vector)
	}

	return vectors, nil
}

// normalizeVector scales the vector to unit length in place. The zero
// vector is left untouched.
func normalizeVector(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(1 / math.Sqrt(sum))
	for i := range vector {
		vector[i] *= norm
	}
}
