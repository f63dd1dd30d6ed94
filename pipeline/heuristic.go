package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TokenCounter counts model-tokenized units in a piece of text. Implementations
// must be deterministic and side-effect free.
type TokenCounter interface {
	CountTokens(text string) int
}

// Default split thresholds for the heuristic segmenter.
const (
	DefaultMaxGap      = 300 * time.Second
	DefaultTokenBudget = 300
)

// HeuristicOptions configures ChunkMessages.
type HeuristicOptions struct {
	// MaxGap is the largest allowed silence between adjacent messages inside one
	// chunk. A larger gap forces a split and breaks continuity.
	MaxGap time.Duration

	// TokenBudget is the maximum token total per chunk. Exceeding it forces a
	// split but preserves continuity via RefChunkID (unless a time gap fired on
	// the same boundary).
	TokenBudget int

	// NewChunkID generates chunk ids. Defaults to a uuid-based generator; id
	// generation never affects grouping.
	NewChunkID func() string
}

// SplitStats counts why boundaries happened. A single boundary can increment
// both counters when the conditions coincide.
type SplitStats struct {
	TimeSplits  int `json:"time_splits"`
	TokenSplits int `json:"token_splits"`
}

func newChunkID() string {
	return "chunk_" + uuid.New().String()
}

// ChunkMessages deterministically partitions a time-sorted message sequence into
// chunks bounded by a token budget and a time-gap threshold.
//
// Both split conditions are evaluated independently before each message is
// appended to the open chunk. When either fires, the open chunk is sealed and
// the current message starts a new one. The new chunk carries a RefChunkID back
// to the sealed chunk only when the boundary was caused by the token budget
// alone: a time gap always breaks continuity, even if the budget was also
// exceeded on the same boundary. The trailing open chunk is always sealed.
//
// Every input message lands in exactly one chunk and concatenating the chunks'
// message lists in order reproduces the input order.
func ChunkMessages(msgs []Message, counter TokenCounter, opts HeuristicOptions) ([]Chunk, SplitStats, error) {
	if counter == nil {
		return nil, SplitStats{}, errors.New("ChunkMessages: counter is nil")
	}
	if opts.MaxGap <= 0 {
		opts.MaxGap = DefaultMaxGap
	}
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = DefaultTokenBudget
	}
	if opts.NewChunkID == nil {
		opts.NewChunkID = newChunkID
	}
	if len(msgs) == 0 {
		return nil, SplitStats{}, nil
	}

	var (
		out        []Chunk
		stats      SplitStats
		open       []Message
		openTokens int
		openRef    string
	)

	for i, m := range msgs {
		tokens := counter.CountTokens(m.Content)

		if len(open) > 0 {
			timeSplit := m.Timestamp.Sub(msgs[i-1].Timestamp) > opts.MaxGap
			tokenSplit := openTokens+tokens > opts.TokenBudget
			if timeSplit {
				stats.TimeSplits++
			}
			if tokenSplit {
				stats.TokenSplits++
			}

			if timeSplit || tokenSplit {
				sealed := sealChunk(opts.NewChunkID(), open, openRef)
				out = append(out, sealed)

				open = nil
				openTokens = 0
				// The link decision depends only on which conditions fired at
				// this boundary.
				if tokenSplit && !timeSplit {
					openRef = sealed.ChunkID
				} else {
					openRef = ""
				}
			}
		}

		open = append(open, m)
		openTokens += tokens
	}

	out = append(out, sealChunk(opts.NewChunkID(), open, openRef))
	return out, stats, nil
}

func sealChunk(id string, msgs []Message, refID string) Chunk {
	return Chunk{
		ChunkID:        id,
		Messages:       msgs,
		StartTimestamp: msgs[0].Timestamp,
		EndTimestamp:   msgs[len(msgs)-1].Timestamp,
		RefChunkID:     refID,
	}
}
