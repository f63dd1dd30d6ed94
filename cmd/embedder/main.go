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
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

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
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := openai.NewClient(option.WithAPIKey(apiKey))
	embedder := provider.NewOpenAIEmbedder(&client, openai.EmbeddingModel(cfg.Model))

	counter, err := pipeline.NewTiktokenCounter(pipeline.DefaultEncoding)
	if err != nil {
		log.Fatal("loading tokenizer", "err", err)
	}

	if err := run(ctx, cfg, embedder, counter); err != nil {
		log.Fatal("embedding failed", "err", err)
	}
}

func run(ctx context.Context, cfg Config, embedder pipeline.Embedder, counter pipeline.TokenCounter) error {
	chunkFiles, err := collectChunkFiles(cfg.InputDir)
	if err != nil {
		return err
	}
	if len(chunkFiles) == 0 {
		return fmt.Errorf("no chunk .json files in %s", cfg.InputDir)
	}

	totalVectors, totalTokens := 0, 0
	for _, inFile := range chunkFiles {
		outFile := filepath.Join(cfg.OutputDir, "embedded_"+filepath.Base(inFile))
		if !cfg.Overwrite && fileutils.FileExists(outFile) {
			log.Info("skip embedder: output already exists", "out", outFile)
			continue
		}

		var chunks []pipeline.Chunk
		if err := fileutils.ReadJSONFile(inFile, &chunks); err != nil {
			return fmt.Errorf("reading chunks %s: %w", inFile, err)
		}

		vectors, tokens, err := pipeline.EmbedChunks(ctx, chunks, embedder, chunkAuthors(chunks), counter, cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", inFile, err)
		}

		if err := fileutils.WriteJSONFileAtomic(outFile, vectors, cfg.Pretty); err != nil {
			return err
		}
		totalVectors += len(vectors)
		totalTokens += tokens
		log.Info("embedded chunks", "file", filepath.Base(inFile), "vectors", len(vectors), "tokens", tokens)
	}
	log.Info("embedding done", "files", len(chunkFiles), "vectors", totalVectors, "tokens", totalTokens)
	return nil
}

// chunkAuthors rebuilds the id-to-name lookup from the chunks' own messages, so
// rendering does not depend on the filtered message list still being around.
func chunkAuthors(chunks []pipeline.Chunk) pipeline.AuthorLookup {
	authors := make(pipeline.AuthorLookup, 16)
	for _, c := range chunks {
		for _, m := range c.Messages {
			if m.AuthorName != "" && m.AuthorName != pipeline.UnknownAuthor {
				authors[m.AuthorID] = m.AuthorName
			}
		}
	}
	return authors
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputDir, "in", cfg.InputDir, "Directory containing chunk JSON files")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write embedding JSON files into")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI embedding model")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Chunk texts per embedding request")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print output JSON")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing embedding files")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/embedder -in data/chunks -out data/embeddings")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.InputDir = filepath.Clean(cfg.InputDir)
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	return cfg, nil
}

func collectChunkFiles(dir string) ([]string, error) {
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
