package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Embedder turns rendered chunk texts into vectors, one per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// ChunkVector is the persisted embedding record for one chunk.
type ChunkVector struct {
	ChunkID   string    `json:"chunk_id"`
	Embedding []float64 `json:"embedding"`
	Text      string    `json:"text"`
}

// DefaultEmbedBatchSize is how many chunk texts go into one embedding request.
const DefaultEmbedBatchSize = 25

// RenderChunkText flattens a chunk into the "Author: content" transcript that
// gets embedded. Author names resolved during assembly are preferred; the
// lookup covers chunks that skipped assembly.
func RenderChunkText(c Chunk, authors AuthorLookup) string {
	lines := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		name := m.AuthorName
		if name == "" {
			name = authors.Resolve(m.AuthorID)
		}
		lines = append(lines, name+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// EmbedChunks renders and embeds chunks in fixed-size batches, returning one
// vector record per chunk plus the total token count of everything embedded.
func EmbedChunks(ctx context.Context, chunks []Chunk, embedder Embedder, authors AuthorLookup, counter TokenCounter, batchSize int) ([]ChunkVector, int, error) {
	if embedder == nil {
		return nil, 0, errors.New("EmbedChunks: embedder is nil")
	}
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}

	var (
		out         []ChunkVector
		totalTokens int
	)
	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = RenderChunkText(c, authors)
			if counter != nil {
				totalTokens += counter.CountTokens(texts[j])
			}
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, totalTokens, fmt.Errorf("EmbedChunks: batch %d-%d: %w", i, end, err)
		}
		if len(vectors) != len(batch) {
			return nil, totalTokens, fmt.Errorf("EmbedChunks: batch %d-%d: got %d vectors for %d texts", i, end, len(vectors), len(batch))
		}

		for j, c := range batch {
			out = append(out, ChunkVector{
				ChunkID:   c.ChunkID,
				Embedding: vectors[j],
				Text:      texts[j],
			})
		}
	}
	return out, totalTokens, nil
}
