package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/driftwoodlabs/chatsift/pipeline"
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

	if err := run(cfg); err != nil {
		log.Fatal("export filtering failed", "err", err)
	}
}

func run(cfg Config) error {
	if !cfg.Overwrite && fileutils.FileExists(cfg.OutputFile) {
		log.Info("skip export-filter: output already exists", "out", cfg.OutputFile)
		return nil
	}

	inputFiles, err := collectInputFiles(cfg.InputPath)
	if err != nil {
		return err
	}
	if len(inputFiles) == 0 {
		return fmt.Errorf("no input .json files in %s", cfg.InputPath)
	}

	var all []pipeline.Message
	authors := make(pipeline.AuthorLookup, 16)
	for _, inFile := range inputFiles {
		msgs, fileAuthors, err := pipeline.FilterExportFile(inFile)
		if err != nil {
			return fmt.Errorf("filtering %s: %w", inFile, err)
		}
		log.Info("filtered export", "file", filepath.Base(inFile), "kept", len(msgs))
		all = append(all, msgs...)
		for id, name := range fileAuthors {
			authors[id] = name
		}
	}

	sortMessages(all)

	if err := fileutils.WriteJSONFileAtomic(cfg.OutputFile, all, cfg.Pretty); err != nil {
		return err
	}
	if err := fileutils.WriteJSONFileAtomic(cfg.AuthorsFile, authors, cfg.Pretty); err != nil {
		return err
	}
	log.Info("wrote filtered messages",
		"out", cfg.OutputFile, "files", len(inputFiles), "messages", len(all), "authors", len(authors))
	return nil
}

// sortMessages orders by timestamp, breaking ties on message id so output is
// stable across runs regardless of input file order.
func sortMessages(msgs []pipeline.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].MessageID < msgs[j].MessageID
		}
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Path to a single chat export JSON file OR a directory of export files")
	fs.StringVar(&cfg.OutputFile, "out", cfg.OutputFile, "Path to write the filtered message list to")
	fs.StringVar(&cfg.AuthorsFile, "authors-out", cfg.AuthorsFile, "Path to write the author id-to-name lookup to")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print the output JSON")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite an existing output file")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/export-filter -in exports/ -out data/filtered_messages.json -pretty")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.InputPath = filepath.Clean(cfg.InputPath)
	cfg.OutputFile = filepath.Clean(cfg.OutputFile)
	cfg.AuthorsFile = filepath.Clean(cfg.AuthorsFile)
	return cfg, nil
}

func collectInputFiles(inputPath string) ([]string, error) {
	fi, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("stat -in: %w", err)
	}

	if !fi.IsDir() {
		if strings.ToLower(filepath.Ext(inputPath)) != ".json" {
			return nil, fmt.Errorf("input file must be .json: %s", inputPath)
		}
		return []string{inputPath}, nil
	}

	entries, err := os.ReadDir(inputPath)
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
		files = append(files, filepath.Join(inputPath, name))
	}
	sort.Strings(files)
	return files, nil
}
