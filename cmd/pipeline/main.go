package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/driftwoodlabs/chatsift/pipeline/fileutils"
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

	ctx := context.Background()

	stages := []string{"filter", "chunk", "embed", "upload"}
	if cfg.OnlyStage != "" {
		stages = []string{cfg.OnlyStage}
	} else if cfg.FromStage != "" {
		stages = stagesFrom(stages, cfg.FromStage)
	}

	base := filepath.Clean(cfg.BaseDir)
	filteredFile := filepath.Join(base, "filtered_messages.json")
	authorsFile := filepath.Join(base, "authors.json")
	chunksDir := filepath.Join(base, "chunks")
	embeddingsDir := filepath.Join(base, "embeddings")

	for _, stage := range stages {
		switch stage {
		case "filter":
			if !cfg.Overwrite && fileutils.FileExists(filteredFile) {
				fmt.Fprintln(os.Stdout, "skip filter: filtered messages already exist")
				continue
			}
			args := []string{
				"run", "./cmd/export-filter",
				"-in", cfg.ExportPath,
				"-out", filteredFile,
				"-authors-out", authorsFile,
			}
			if cfg.Pretty {
				args = append(args, "-pretty")
			}
			if cfg.Overwrite {
				args = append(args, "-overwrite")
			}
			if err := runGo(ctx, args...); err != nil {
				os.Exit(1)
			}
		case "chunk":
			if !cfg.Overwrite && dirHasJSON(chunksDir) {
				fmt.Fprintln(os.Stdout, "skip chunk: chunks already exist")
				continue
			}
			args := []string{
				"run", "./cmd/chunker",
				"-in", filteredFile,
				"-authors", authorsFile,
				"-out", chunksDir,
				"-mode", cfg.Mode,
				"-model", cfg.Model,
			}
			if cfg.Pretty {
				args = append(args, "-pretty")
			}
			if cfg.Overwrite {
				args = append(args, "-overwrite")
			}
			if err := runGo(ctx, args...); err != nil {
				os.Exit(1)
			}
		case "embed":
			args := []string{
				"run", "./cmd/embedder",
				"-in", chunksDir,
				"-out", embeddingsDir,
				"-model", cfg.EmbeddingModel,
			}
			if cfg.Pretty {
				args = append(args, "-pretty")
			}
			if cfg.Overwrite {
				args = append(args, "-overwrite")
			}
			if err := runGo(ctx, args...); err != nil {
				os.Exit(1)
			}
		case "upload":
			args := []string{
				"run", "./cmd/uploader",
				"-in", embeddingsDir,
				"-qdrant-url", cfg.QdrantURL,
				"-collection", cfg.Collection,
			}
			if err := runGo(ctx, args...); err != nil {
				os.Exit(1)
			}
		default:
			fmt.Fprintln(os.Stderr, "unknown stage:", stage)
			os.Exit(2)
		}
	}
}

func runGo(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "command failed:", "go "+strings.Join(args, " "))
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		return err
	}
	fmt.Fprintln(os.Stdout, "ok:", "go "+strings.Join(args, " "), "(", time.Since(start).Round(time.Millisecond).String()+")")
	return nil
}

func stagesFrom(stages []string, from string) []string {
	from = strings.ToLower(strings.TrimSpace(from))
	for i, s := range stages {
		if s == from {
			return stages[i:]
		}
	}
	return stages
}

func dirHasJSON(dir string) bool {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			return true
		}
	}
	return false
}
