package pipeline

import "time"

// Chunk is a contiguous, non-empty run of messages treated as one topical unit.
// A chunk is created by whichever segmenter produced it, enriched once by
// AssembleChunks, and read-only afterwards.
type Chunk struct {
	ChunkID  string    `json:"chunk_id"`
	Messages []Message `json:"messages"`

	AuthorIDs   []string `json:"author_ids,omitempty"`
	AuthorNames []string `json:"author_names,omitempty"`

	StartTimestamp time.Time `json:"start_timestamp"`
	EndTimestamp   time.Time `json:"end_timestamp"`

	// RefChunkID points back at the immediately preceding chunk when the two are
	// part of the same uninterrupted conversation (token-budget split without a
	// time gap). Empty otherwise.
	RefChunkID string `json:"ref_chunk_id,omitempty"`

	// Keywords is set on the model-assisted path, Topic on the heuristic path.
	Keywords []string `json:"keywords,omitempty"`
	Topic    string   `json:"topic,omitempty"`
}
