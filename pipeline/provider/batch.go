package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"

	"github.com/driftwoodlabs/chatsift/pipeline"
)

// OpenAIJobClient runs segmentation batches through the OpenAI Batch API:
// upload the JSONL as a batch-purpose file, create a 24h batch against the
// chat-completions endpoint, and read the output file once the batch lands.
type OpenAIJobClient struct {
	client *openai.Client
}

// NewOpenAIJobClient wraps client as a pipeline.JobClient.
func NewOpenAIJobClient(client *openai.Client) *OpenAIJobClient {
	return &OpenAIJobClient{client: client}
}

// Submit uploads the JSONL payload and creates the batch job.
func (c *OpenAIJobClient) Submit(ctx context.Context, jsonl []byte, tag string) (string, error) {
	file, err := c.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(bytes.NewReader(jsonl), tag+".jsonl", "application/jsonl"),
		Purpose: openai.FilePurposeBatch,
	})
	if err != nil {
		return "", fmt.Errorf("upload batch input %s: %w", tag, err)
	}

	batch, err := c.client.Batches.New(ctx, openai.BatchNewParams{
		InputFileID:      file.ID,
		Endpoint:         openai.BatchNewParamsEndpointV1ChatCompletions,
		CompletionWindow: openai.BatchNewParamsCompletionWindow24h,
	})
	if err != nil {
		return "", fmt.Errorf("create batch %s: %w", tag, err)
	}
	return batch.ID, nil
}

// State maps the provider's batch status onto the pipeline job lifecycle.
func (c *OpenAIJobClient) State(ctx context.Context, jobID string) (pipeline.JobState, error) {
	batch, err := c.client.Batches.Get(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("retrieve batch %s: %w", jobID, err)
	}

	switch batch.Status {
	case openai.BatchStatusValidating:
		return pipeline.JobSubmitted, nil
	case openai.BatchStatusInProgress, openai.BatchStatusFinalizing, openai.BatchStatusCancelling:
		return pipeline.JobInProgress, nil
	case openai.BatchStatusCompleted:
		return pipeline.JobCompleted, nil
	case openai.BatchStatusFailed:
		return pipeline.JobFailed, nil
	case openai.BatchStatusExpired:
		return pipeline.JobExpired, nil
	case openai.BatchStatusCancelled:
		return pipeline.JobCancelled, nil
	default:
		return "", fmt.Errorf("batch %s has unknown status %q", jobID, batch.Status)
	}
}

// Output downloads the JSONL results of a completed batch.
func (c *OpenAIJobClient) Output(ctx context.Context, jobID string) ([]byte, error) {
	batch, err := c.client.Batches.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("retrieve batch %s: %w", jobID, err)
	}
	if batch.OutputFileID == "" {
		return nil, errors.New("batch has no output file")
	}

	resp, err := c.client.Files.Content(ctx, batch.OutputFileID)
	if err != nil {
		return nil, fmt.Errorf("download batch output %s: %w", batch.OutputFileID, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read batch output %s: %w", batch.OutputFileID, err)
	}
	return out, nil
}
