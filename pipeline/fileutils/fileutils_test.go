package fileutils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndReadJSONRoundTrip(t *testing.T) {
	t.Parallel()

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	path := filepath.Join(t.TempDir(), "out", "record.json")
	if FileExists(path) {
		t.Fatalf("FileExists=true before write")
	}

	if err := WriteJSONFileAtomic(path, record{Name: "x", Count: 3}, true); err != nil {
		t.Fatalf("WriteJSONFileAtomic: %v", err)
	}
	if !FileExists(path) {
		t.Fatalf("FileExists=false after write")
	}

	var got record
	if err := ReadJSONFile(path, &got); err != nil {
		t.Fatalf("ReadJSONFile: %v", err)
	}
	if got.Name != "x" || got.Count != 3 {
		t.Fatalf("got=%+v", got)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries)=%d, want just the artifact", len(entries))
	}
}

func TestReadJSONFile_Missing(t *testing.T) {
	t.Parallel()

	var v any
	if err := ReadJSONFile(filepath.Join(t.TempDir(), "nope.json"), &v); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDecodeModelJSON(t *testing.T) {
	t.Parallel()

	type out struct {
		Topic string `json:"topic"`
	}

	var v out
	if err := DecodeModelJSON(`{"topic":"cars"}`, &v); err != nil || v.Topic != "cars" {
		t.Fatalf("plain object: v=%+v err=%v", v, err)
	}

	v = out{}
	if err := DecodeModelJSON("Sure! Here you go:\n```json\n{\"topic\":\"cars\"}\n```", &v); err != nil || v.Topic != "cars" {
		t.Fatalf("fenced object: v=%+v err=%v", v, err)
	}

	var list []out
	if err := DecodeModelJSON("noise [{\"topic\":\"a\"},{\"topic\":\"b\"}] trailing", &list); err != nil || len(list) != 2 {
		t.Fatalf("embedded array: list=%+v err=%v", list, err)
	}

	if err := DecodeModelJSON("", &v); err == nil {
		t.Fatalf("expected error for empty output")
	}
	if err := DecodeModelJSON("no json at all", &v); err == nil {
		t.Fatalf("expected error for prose-only output")
	}
}
