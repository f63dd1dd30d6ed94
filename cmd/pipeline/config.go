package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	ExportPath string
	BaseDir    string

	Mode           string
	Model          string
	EmbeddingModel string

	QdrantURL  string
	Collection string

	FromStage string
	OnlyStage string

	Pretty    bool
	Overwrite bool
}

func (c Config) Validate() error {
	if c.ExportPath == "" {
		return errors.New("missing -exports")
	}
	if c.BaseDir == "" {
		return errors.New("missing -base-dir")
	}
	if c.Mode != "heuristic" && c.Mode != "batch" {
		return errors.New(`mode must be "heuristic" or "batch"`)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		BaseDir:        filepath.FromSlash("data"),
		Mode:           "heuristic",
		Model:          "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
		QdrantURL:      "http://localhost:6333",
		Collection:     "chat_chunks",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ExportPath, "exports", cfg.ExportPath, "Path to a chat export JSON file or directory of export files")
	fs.StringVar(&cfg.BaseDir, "base-dir", cfg.BaseDir, "Base directory for intermediate and final artifacts")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Segmentation mode: heuristic|batch")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model for segmentation and topic summaries (uses OPENAI_API_KEY)")
	fs.StringVar(&cfg.EmbeddingModel, "embedding-model", cfg.EmbeddingModel, "OpenAI embedding model")
	fs.StringVar(&cfg.QdrantURL, "qdrant-url", cfg.QdrantURL, "Base URL of the Qdrant instance")
	fs.StringVar(&cfg.Collection, "collection", cfg.Collection, "Qdrant collection name")

	fs.StringVar(&cfg.FromStage, "from-stage", "", "Start at stage: filter|chunk|embed|upload")
	fs.StringVar(&cfg.OnlyStage, "only-stage", "", "Run only one stage: filter|chunk|embed|upload")

	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Pretty-print JSON outputs where supported")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Overwrite existing outputs (disables resume behavior)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/pipeline -exports exports/ -mode batch")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
