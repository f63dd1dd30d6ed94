package main

import (
	"errors"
	"path/filepath"
)

type Config struct {
	InputDir   string
	QdrantURL  string
	Collection string
	Dimension  int
	BatchSize  int
	APIKey     string
}

func (c Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("missing -in")
	}
	if c.QdrantURL == "" {
		return errors.New("missing -qdrant-url")
	}
	if c.Collection == "" {
		return errors.New("missing -collection")
	}
	if c.Dimension <= 0 {
		return errors.New("dimension must be > 0")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputDir:   filepath.FromSlash("data/embeddings"),
		QdrantURL:  "http://localhost:6333",
		Collection: "chat_chunks",
		Dimension:  1536,
		BatchSize:  50,
	}
}
