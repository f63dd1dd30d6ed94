package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/driftwoodlabs/chatsift/pipeline"
	"github.com/driftwoodlabs/chatsift/pipeline/fileutils"
	"github.com/driftwoodlabs/chatsift/pipeline/provider"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	_ = godotenv.Load()

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("QDRANT_API_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index := provider.NewQdrantIndex(cfg.QdrantURL, apiKey, cfg.Collection)
	if err := index.EnsureCollection(ctx, cfg.Dimension); err != nil {
		log.Fatal("ensuring collection", "collection", cfg.Collection, "err", err)
	}

	files, err := collectEmbeddingFiles(cfg.InputDir)
	if err != nil {
		log.Fatal("collecting embedding files", "err", err)
	}
	if len(files) == 0 {
		log.Fatal("no embedding .json files found", "in", cfg.InputDir)
	}

	total := 0
	for _, inFile := range files {
		var vectors []pipeline.ChunkVector
		if err := fileutils.ReadJSONFile(inFile, &vectors); err != nil {
			log.Fatal("reading embeddings", "file", inFile, "err", err)
		}

		for _, batch := range batchVectors(vectors, cfg.BatchSize) {
			if err := index.Upsert(ctx, batch); err != nil {
				log.Fatal("upserting points", "file", inFile, "err", err)
			}
			total += len(batch)
		}
		log.Info("uploaded embeddings", "file", filepath.Base(inFile), "vectors", len(vectors))
	}
	log.Info("upload done", "files", len(files), "points", total, "collection", cfg.Collection)
}

func batchVectors(vectors []pipeline.ChunkVector, size int) [][]pipeline.ChunkVector {
	var batches [][]pipeline.ChunkVector
	for i := 0; i < len(vectors); i += size {
		end := i + size
		if end > len(vectors) {
			end = len(vectors)
		}
		batches = append(batches, vectors[i:end])
	}
	return batches
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputDir, "in", cfg.InputDir, "Directory containing embedding JSON files")
	fs.StringVar(&cfg.QdrantURL, "qdrant-url", cfg.QdrantURL, "Base URL of the Qdrant instance")
	fs.StringVar(&cfg.Collection, "collection", cfg.Collection, "Qdrant collection name")
	fs.IntVar(&cfg.Dimension, "dimension", cfg.Dimension, "Vector dimension of the collection")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Points per upsert request")
	fs.StringVar(&cfg.APIKey, "api-key", "", "Qdrant API key (overrides QDRANT_API_KEY env var; empty for unauthenticated)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/uploader -in data/embeddings -collection chat_chunks")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.InputDir = filepath.Clean(cfg.InputDir)
	return cfg, nil
}

func collectEmbeddingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.ToLower(filepath.Ext(name)) != ".json" {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}
