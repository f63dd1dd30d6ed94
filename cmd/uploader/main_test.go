package main

import (
	"flag"
	"testing"

	"github.com/driftwoodlabs/chatsift/pipeline"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("uploader", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-in", "data/embeddings",
		"-qdrant-url", "http://qdrant:6333",
		"-collection", "chunks",
		"-dimension", "3072",
		"-batch-size", "10",
		"-api-key", "k",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.QdrantURL != "http://qdrant:6333" {
		t.Fatalf("QdrantURL=%q", cfg.QdrantURL)
	}
	if cfg.Collection != "chunks" || cfg.Dimension != 3072 {
		t.Fatalf("Collection=%q Dimension=%d", cfg.Collection, cfg.Dimension)
	}
	if cfg.BatchSize != 10 || cfg.APIKey != "k" {
		t.Fatalf("BatchSize=%d APIKey=%q", cfg.BatchSize, cfg.APIKey)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
	if err := defaultConfigWithInput().Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	bad := defaultConfigWithInput()
	bad.Dimension = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for zero dimension")
	}
}

func defaultConfigWithInput() Config {
	cfg := defaultConfig()
	cfg.InputDir = "in"
	return cfg
}

func TestBatchVectors(t *testing.T) {
	t.Parallel()

	vectors := make([]pipeline.ChunkVector, 7)
	batches := batchVectors(vectors, 3)
	if len(batches) != 3 {
		t.Fatalf("len(batches)=%d, want 3", len(batches))
	}
	sizes := []int{len(batches[0]), len(batches[1]), len(batches[2])}
	want := []int{3, 3, 1}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("sizes=%v, want %v", sizes, want)
		}
	}

	if got := batchVectors(nil, 3); got != nil {
		t.Fatalf("batchVectors(nil)=%v, want nil", got)
	}
}
