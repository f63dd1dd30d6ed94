package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/driftwoodlabs/chatsift/pipeline"
)

// QdrantIndex is a thin HTTP client for one Qdrant collection.
type QdrantIndex struct {
	http       *resty.Client
	collection string
	retries    int
	backoff    time.Duration
}

// NewQdrantIndex builds a client for collection at baseURL. apiKey may be empty
// for unauthenticated deployments.
func NewQdrantIndex(baseURL, apiKey, collection string) *QdrantIndex {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("api-key", apiKey)
	}
	return &QdrantIndex{
		http:       client,
		collection: collection,
		retries:    3,
		backoff:    2 * time.Second,
	}
}

// EnsureCollection creates the collection (cosine distance, the given vector
// dimension) when it doesn't exist yet.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimension int) error {
	resp, err := q.http.R().SetContext(ctx).Get("/collections/" + q.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", q.collection, err)
	}
	if resp.StatusCode() == 200 {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	resp, err = q.http.R().SetContext(ctx).SetBody(body).Put("/collections/" + q.collection)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}
	if resp.IsError() {
		return fmt.Errorf("create collection %s: %s", q.collection, resp.Status())
	}
	return nil
}

// Upsert writes one batch of chunk vectors, retrying transport failures a
// bounded number of times with a fixed backoff. Point ids are derived
// deterministically from chunk ids, so re-uploading the same batch overwrites
// rather than duplicates.
func (q *QdrantIndex) Upsert(ctx context.Context, vectors []pipeline.ChunkVector) error {
	points := make([]map[string]any, 0, len(vectors))
	for _, v := range vectors {
		points = append(points, map[string]any{
			"id":     uuid.NewSHA1(uuid.NameSpaceOID, []byte(v.ChunkID)).String(),
			"vector": v.Embedding,
			"payload": map[string]any{
				"chunk_id": v.ChunkID,
				"text":     v.Text,
			},
		})
	}

	backoff := retry.WithMaxRetries(uint64(q.retries), retry.NewConstant(q.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := q.http.R().
			SetContext(ctx).
			SetQueryParam("wait", "true").
			SetBody(map[string]any{"points": points}).
			Put("/collections/" + q.collection + "/points")
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.IsError() {
			return retry.RetryableError(fmt.Errorf("qdrant upsert failed: %s", resp.Status()))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), q.collection, err)
	}
	return nil
}
