package pipeline

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tiktoken encoding used for token budgets; it matches
// the embedding models this pipeline targets.
const DefaultEncoding = "cl100k_base"

// TiktokenCounter is a TokenCounter backed by a tiktoken encoding.
type TiktokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, defaulting to DefaultEncoding.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("NewTiktokenCounter: get encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{tke: tke}, nil
}

// CountTokens returns the number of tokens in text.
func (c *TiktokenCounter) CountTokens(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}
