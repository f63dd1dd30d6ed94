package main

import (
	"errors"
	"path/filepath"
)

type Config struct {
	InputPath   string
	OutputFile  string
	AuthorsFile string
	Pretty      bool
	Overwrite   bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.OutputFile == "" {
		return errors.New("missing -out")
	}
	if c.AuthorsFile == "" {
		return errors.New("missing -authors-out")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputPath:   "",
		OutputFile:  filepath.FromSlash("data/filtered_messages.json"),
		AuthorsFile: filepath.FromSlash("data/authors.json"),
	}
}
