package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/sethvargo/go-retry"
)

// DefaultEmbeddingModel is the embedding model used for chunk vectors.
const DefaultEmbeddingModel = openai.EmbeddingModelTextEmbedding3Small

// OpenAIEmbedder implements pipeline.Embedder on the OpenAI embeddings API with
// bounded constant-backoff retries.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	retries int
	backoff time.Duration
}

// NewOpenAIEmbedder builds an embedder for model (DefaultEmbeddingModel when
// empty).
func NewOpenAIEmbedder(client *openai.Client, model openai.EmbeddingModel) *OpenAIEmbedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIEmbedder{
		client:  client,
		model:   model,
		retries: 3,
		backoff: time.Second,
	}
}

// Embed returns one vector per input text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	var out [][]float64

	backoff := retry.WithMaxRetries(uint64(e.retries), retry.NewConstant(e.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model: e.model,
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(resp.Data) != len(texts) {
			return retry.RetryableError(fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts)))
		}

		vectors := make([][]float64, len(resp.Data))
		for i, d := range resp.Data {
			vectors[i] = d.Embedding
		}
		out = vectors
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	return out, nil
}
