package main

import (
	"errors"
	"path/filepath"
)

type Config struct {
	InputDir  string
	OutputDir string
	Model     string
	BatchSize int
	Pretty    bool
	Overwrite bool
	APIKey    string
}

func (c Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("missing -in")
	}
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputDir:  filepath.FromSlash("data/chunks"),
		OutputDir: filepath.FromSlash("data/embeddings"),
		Model:     "text-embedding-3-small",
		BatchSize: 25,
	}
}
