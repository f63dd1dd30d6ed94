package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"

	"github.com/driftwoodlabs/chatsift/pipeline"
	"github.com/driftwoodlabs/chatsift/pipeline/fileutils"
)

// TopicSummarizer labels heuristic chunks with a short topic via the Responses
// API, using strict structured output so the label comes back as a single JSON
// field rather than free prose.
type TopicSummarizer struct {
	client       *openai.Client
	model        string
	instructions string
}

// NewTopicSummarizer builds a summarizer; instructions is the full system
// prompt describing the labeling task.
func NewTopicSummarizer(client *openai.Client, model, instructions string) *TopicSummarizer {
	return &TopicSummarizer{client: client, model: model, instructions: instructions}
}

type topicResponse struct {
	Topic string `json:"topic"`
}

var topicSchema = GenerateSchema[topicResponse]()

// Summarize produces the topic label for msgs. Callers treat any error as
// recoverable and substitute a placeholder.
func (s *TopicSummarizer) Summarize(ctx context.Context, msgs []pipeline.Message) (string, error) {
	if s.client == nil {
		return "", errors.New("TopicSummarizer: client is nil")
	}
	if s.model == "" {
		return "", errors.New("TopicSummarizer: model is empty")
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "ChunkTopic",
			Schema:      topicSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Chunk topic JSON"),
			Type:        "json_schema",
		},
	}

	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(pipeline.FormatSegmentPrompt(msgs), responses.EasyInputMessageRoleUser),
	}
	params := responses.ResponseNewParams{
		Model:           s.model,
		MaxOutputTokens: openai.Int(200),
		Instructions:    openai.String(s.instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := CallWithRetry(ctx, s.client, params)
	if err != nil {
		return "", err
	}

	var out topicResponse
	if err := fileutils.DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Topic), nil
}
