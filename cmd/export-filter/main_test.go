package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/driftwoodlabs/chatsift/pipeline"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("export-filter", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-in", "exports",
		"-out", "data/filtered_messages.json",
		"-authors-out", "data/authors.json",
		"-pretty",
		"-overwrite",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.InputPath != "exports" {
		t.Fatalf("InputPath=%q", cfg.InputPath)
	}
	if cfg.OutputFile != filepath.FromSlash("data/filtered_messages.json") {
		t.Fatalf("OutputFile=%q", cfg.OutputFile)
	}
	if cfg.AuthorsFile != filepath.FromSlash("data/authors.json") {
		t.Fatalf("AuthorsFile=%q", cfg.AuthorsFile)
	}
	if !cfg.Pretty || !cfg.Overwrite {
		t.Fatalf("Pretty=%v Overwrite=%v", cfg.Pretty, cfg.Overwrite)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
	if err := (Config{InputPath: "in", OutputFile: "out.json", AuthorsFile: "authors.json"}).Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := (Config{InputPath: "in", OutputFile: "out.json"}).Validate(); err == nil {
		t.Fatalf("expected error for missing authors path")
	}
}

func TestCollectInputFiles_SortedAndSkipsNonJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "note.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(`{}`), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := collectInputFiles(dir)
	if err != nil {
		t.Fatalf("collectInputFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files)=%d, want 2: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "a.json" || filepath.Base(files[1]) != "b.json" {
		t.Fatalf("files=%v, want [a.json b.json] sorted", files)
	}
}

func TestSortMessages_TimestampThenID(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := []pipeline.Message{
		{MessageID: "3", Timestamp: base.Add(time.Minute)},
		{MessageID: "2", Timestamp: base},
		{MessageID: "1", Timestamp: base},
	}

	sortMessages(msgs)

	got := []string{msgs[0].MessageID, msgs[1].MessageID, msgs[2].MessageID}
	want := []string{"1", "2", "3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order=%v, want %v", got, want)
		}
	}
}

func TestRun_SecondRunReadsNoInput(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	outDir := t.TempDir()
	export := `{"messages":[{"id":"m1","type":"Default","author":{"id":"a1","name":"sam"},"content":"hey","timestamp":"2024-03-01T12:00:00Z"}]}`
	inFile := filepath.Join(inDir, "export.json")
	if err := os.WriteFile(inFile, []byte(export), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}

	cfg := Config{
		InputPath:   inDir,
		OutputFile:  filepath.Join(outDir, "filtered_messages.json"),
		AuthorsFile: filepath.Join(outDir, "authors.json"),
	}
	if err := run(cfg); err != nil {
		t.Fatalf("first run: %v", err)
	}

	before, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if _, err := os.Stat(cfg.AuthorsFile); err != nil {
		t.Fatalf("expected author lookup: %v", err)
	}

	// Delete the input: a rerun over existing output must skip without ever
	// touching the input path.
	if err := os.Remove(inFile); err != nil {
		t.Fatalf("remove export: %v", err)
	}
	if err := run(cfg); err != nil {
		t.Fatalf("second run: %v", err)
	}
	after, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("output changed on a skipped run")
	}
}
