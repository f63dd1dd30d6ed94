package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/driftwoodlabs/chatsift/pipeline/fileutils"
)

// MaxKeywordsPerGroup bounds how many keywords a segmentation group may carry.
const MaxKeywordsPerGroup = 5

// SegmentGroup is one topic group claimed by the external segmentation service:
// a handful of keywords plus the ids of the messages it says belong together.
// The service is not trusted; groups must pass through ReconcileGroups before
// becoming chunks.
type SegmentGroup struct {
	Keywords   []string `json:"keywords"`
	MessageIDs []string `json:"message_ids"`
}

// DefaultRequestBatchSize is how many messages go into one segmentation request.
// Kept to a few hundred so a request stays within the service's context limits.
const DefaultRequestBatchSize = 200

// BatchRequest is one JSONL line of a segmentation batch job.
type BatchRequest struct {
	CustomID string          `json:"custom_id"`
	Method   string          `json:"method"`
	URL      string          `json:"url"`
	Body     ChatRequestBody `json:"body"`
}

// ChatRequestBody is the chat-completion payload of a batch request line.
type ChatRequestBody struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// ChatMessage is one role/content pair in a chat-completion payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FormatSegmentPrompt renders a message batch as the transcript the segmentation
// prompt expects: one line per message, id in square brackets, second-resolution
// UTC timestamp, then author and content.
func FormatSegmentPrompt(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		name := m.AuthorName
		if name == "" {
			name = m.AuthorID
		}
		lines = append(lines, fmt.Sprintf("[%s] (%s) %s: %s",
			m.MessageID, m.Timestamp.UTC().Format(time.DateTime), name, m.Content))
	}
	return strings.Join(lines, "\n")
}

// BuildSegmentRequests cuts msgs into fixed-size request batches and packages
// each as one BatchRequest against the chat-completions endpoint. CustomIDs are
// "batch_1", "batch_2", ... in input order.
func BuildSegmentRequests(msgs []Message, model, systemPrompt string, batchSize int) []BatchRequest {
	if batchSize <= 0 {
		batchSize = DefaultRequestBatchSize
	}

	var reqs []BatchRequest
	for i := 0; i < len(msgs); i += batchSize {
		end := i + batchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		reqs = append(reqs, BatchRequest{
			CustomID: fmt.Sprintf("batch_%d", i/batchSize+1),
			Method:   "POST",
			URL:      "/v1/chat/completions",
			Body: ChatRequestBody{
				Model: model,
				Messages: []ChatMessage{
					{Role: "system", Content: systemPrompt},
					{Role: "user", Content: FormatSegmentPrompt(msgs[i:end])},
				},
			},
		})
	}
	return reqs
}

// EncodeJSONL marshals requests into JSONL, one request per line.
func EncodeJSONL(reqs []BatchRequest) ([]byte, error) {
	var buf bytes.Buffer
	for i, r := range reqs {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("EncodeJSONL: marshal request %d: %w", i, err)
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ValidateJSONL checks that every non-empty line decodes as JSON and returns the
// number of invalid lines.
func ValidateJSONL(data []byte) int {
	invalid := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var v json.RawMessage
		if err := json.Unmarshal(line, &v); err != nil {
			invalid++
		}
	}
	return invalid
}

// SegmentResult is the parsed outcome of one request line in a completed job.
type SegmentResult struct {
	CustomID string
	Groups   []SegmentGroup
}

// ParseSegmentOutput parses the JSONL output file of a completed segmentation
// job. Lines that fail to parse at any level (envelope, completion body, model
// content) are skipped rather than failing the file; the service is expected to
// be unreliable and recovery happens later during reconciliation.
func ParseSegmentOutput(data []byte) []SegmentResult {
	var results []SegmentResult

	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var envelope struct {
			CustomID string `json:"custom_id"`
			Response struct {
				Body json.RawMessage `json:"body"`
			} `json:"response"`
		}
		if err := json.Unmarshal(line, &envelope); err != nil {
			continue
		}

		body := envelope.Response.Body
		// The body is usually an object but some runs return it JSON-encoded as
		// a string; unwrap that first.
		if len(body) > 0 && body[0] == '"' {
			var inner string
			if err := json.Unmarshal(body, &inner); err != nil {
				continue
			}
			body = []byte(inner)
		}

		var completion struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(body, &completion); err != nil || len(completion.Choices) == 0 {
			continue
		}

		var groups []SegmentGroup
		if err := fileutils.DecodeModelJSON(completion.Choices[0].Message.Content, &groups); err != nil {
			continue
		}

		results = append(results, SegmentResult{CustomID: envelope.CustomID, Groups: groups})
	}
	return results
}

// MessageIndex builds a message_id lookup over one request batch.
func MessageIndex(msgs []Message) map[string]Message {
	idx := make(map[string]Message, len(msgs))
	for _, m := range msgs {
		idx[m.MessageID] = m
	}
	return idx
}

// ReconcileGroups validates service-claimed groups against the batch's own
// message index and converts the survivors into chunks.
//
// Ids that do not resolve are silently discarded (the service hallucinates and
// mistypes ids); a group whose ids all fail to resolve is discarded whole.
// Partial matches are kept: this path is deliberately lenient, and coverage of
// the input is bounded by service behavior rather than re-verified here.
//
// Chunk ids are derived from batchID plus the group's position in the result
// list, so reprocessing the same service response yields the same chunks.
func ReconcileGroups(batchID string, groups []SegmentGroup, index map[string]Message) []Chunk {
	var chunks []Chunk
	for gi, g := range groups {
		var matched []Message
		for _, id := range g.MessageIDs {
			if m, ok := index[id]; ok {
				matched = append(matched, m)
			}
		}
		if len(matched) == 0 {
			continue
		}

		keywords := g.Keywords
		if len(keywords) > MaxKeywordsPerGroup {
			keywords = keywords[:MaxKeywordsPerGroup]
		}

		start, end := matched[0].Timestamp, matched[0].Timestamp
		for _, m := range matched[1:] {
			if m.Timestamp.Before(start) {
				start = m.Timestamp
			}
			if m.Timestamp.After(end) {
				end = m.Timestamp
			}
		}

		chunks = append(chunks, Chunk{
			ChunkID:        fmt.Sprintf("%s_%d", batchID, gi),
			Messages:       matched,
			StartTimestamp: start,
			EndTimestamp:   end,
			Keywords:       keywords,
		})
	}
	return chunks
}
