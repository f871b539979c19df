package embedding

import (
	"context"
	"math"
)

// Task types hint the provider how the text will be used. Ollama and
// OpenAI ignore them; Gemini-style providers change the embedding space.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingResponse wraps a single generated vector.
type EmbeddingResponse struct {
	Embedding EmbeddingValues
}

type EmbeddingValues struct {
	Values []float32
}

// EmbeddingProvider defines the interface for generating text embeddings.
// GenerateBatch must preserve input order and dimensionality.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
	GenerateBatch(ctx context.Context, texts []string, taskType string) ([]*EmbeddingResponse, error)
}

// normalizeVector normalizes a vector to unit length (magnitude = 1).
// Cosine distance in pgvector requires normalized vectors for accurate results.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
