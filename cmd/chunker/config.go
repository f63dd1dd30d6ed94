package main

import (
	"errors"
	"fmt"
	"path/filepath"
)

const (
	modeHeuristic = "heuristic"
	modeBatch     = "batch"
)

type Config struct {
	InputFile   string
	AuthorsFile string
	OutputDir   string
	Mode        string
	Model       string

	// Heuristic-mode thresholds.
	MaxGapSeconds int
	TokenBudget   int

	// Batch-mode sizing: messages per submitted job, and messages per request
	// line within a job.
	JobMessages      int
	RequestBatchSize int
	PollSeconds      int
	MaxWaitMinutes   int

	SummaryThreshold int
	NoSummaries      bool

	Pretty    bool
	Overwrite bool
	APIKey    string
}

func (c Config) Validate() error {
	if c.InputFile == "" {
		return errors.New("missing -in")
	}
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.Mode != modeHeuristic && c.Mode != modeBatch {
		return fmt.Errorf("mode must be %q or %q", modeHeuristic, modeBatch)
	}
	if c.Mode == modeBatch && c.Model == "" {
		return errors.New("missing -model (required for batch mode)")
	}
	if c.Mode == modeHeuristic {
		if c.MaxGapSeconds <= 0 {
			return errors.New("max gap must be > 0 seconds")
		}
		if c.TokenBudget <= 0 {
			return errors.New("token budget must be > 0")
		}
		if !c.NoSummaries && c.Model == "" {
			return errors.New("missing -model (required for topic summaries; pass -no-summaries to skip)")
		}
	}
	if c.JobMessages <= 0 {
		return errors.New("job messages must be > 0")
	}
	if c.RequestBatchSize <= 0 {
		return errors.New("request batch size must be > 0")
	}
	return nil
}

func (c Config) needsAPIKey() bool {
	if c.Mode == modeBatch {
		return true
	}
	return !c.NoSummaries
}

func defaultConfig() Config {
	return Config{
		InputFile:        filepath.FromSlash("data/filtered_messages.json"),
		AuthorsFile:      filepath.FromSlash("data/authors.json"),
		OutputDir:        filepath.FromSlash("data/chunks"),
		Mode:             modeHeuristic,
		Model:            "gpt-4o-mini",
		MaxGapSeconds:    300,
		TokenBudget:      300,
		JobMessages:      1000,
		RequestBatchSize: 200,
		PollSeconds:      30,
		MaxWaitMinutes:   0,
		SummaryThreshold: 15,
	}
}
