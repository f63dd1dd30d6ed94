package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

const exportFixture = `{
  "guild": {"id": "g1", "name": "the lads"},
  "channel": {"id": "ch1", "name": "general"},
  "messages": [
    {"id": "m1", "type": "Default", "author": {"id": "a1", "name": "sam", "isBot": false}, "content": "first", "timestamp": "2024-03-01T12:00:00Z"},
    {"id": "m2", "type": "Default", "author": {"id": "a2", "name": "beeper", "isBot": true}, "content": "beep", "timestamp": "2024-03-01T12:00:05Z"},
    {"id": "m3", "type": "ThreadCreated", "author": {"id": "a1", "name": "sam", "isBot": false}, "content": "thread", "timestamp": "2024-03-01T12:00:10Z"},
    {"id": "m4", "type": "Default", "author": {"id": "a1", "name": "sam", "isBot": false}, "content": "  ", "timestamp": "2024-03-01T12:00:15Z"},
    {"id": "m5", "type": "Default", "author": {"id": "a1", "name": "sam", "isBot": false}, "content": "last", "timestamp": "not-a-timestamp"},
    {"id": "m6", "type": "Default", "author": {"id": "a3", "name": "kim", "isBot": false}, "content": "second", "timestamp": "2024-03-01T12:00:20Z"}
  ],
  "messageCount": 6
}`

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return path
}

func TestFilterExportFile_ObjectWithMessagesField(t *testing.T) {
	t.Parallel()

	msgs, authors, err := FilterExportFile(writeExport(t, exportFixture))
	if err != nil {
		t.Fatalf("FilterExportFile: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs)=%d, want 2 (bots, non-default, empty and malformed dropped)", len(msgs))
	}
	if msgs[0].MessageID != "m1" || msgs[1].MessageID != "m6" {
		t.Fatalf("ids=%v", []string{msgs[0].MessageID, msgs[1].MessageID})
	}

	// Names are collected even from dropped records.
	if len(authors) != 3 {
		t.Fatalf("len(authors)=%d, want 3: %v", len(authors), authors)
	}
	if authors.Resolve("a1") != "sam" || authors.Resolve("a2") != "beeper" || authors.Resolve("a3") != "kim" {
		t.Fatalf("authors=%v", authors)
	}
}

func TestFilterExportFile_TopLevelArray(t *testing.T) {
	t.Parallel()

	path := writeExport(t, `[
  {"id": "m1", "type": "Default", "author": {"id": "a1", "isBot": false}, "content": "hi", "timestamp": "2024-03-01T12:00:00Z"}
]`)
	msgs, authors, err := FilterExportFile(path)
	if err != nil {
		t.Fatalf("FilterExportFile: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MessageID != "m1" {
		t.Fatalf("msgs=%+v", msgs)
	}
	// Nameless author: lookup stays empty, resolution falls back later.
	if len(authors) != 0 {
		t.Fatalf("authors=%v, want empty", authors)
	}
}

func TestFilterExportFile_NoMessagesArray(t *testing.T) {
	t.Parallel()

	if _, _, err := FilterExportFile(writeExport(t, `{"guild": {"id": "g1"}}`)); err == nil {
		t.Fatalf("expected error for export without messages array")
	}
}

func TestFilterExportFile_BadTopLevel(t *testing.T) {
	t.Parallel()

	if _, _, err := FilterExportFile(writeExport(t, `"just a string"`)); err == nil {
		t.Fatalf("expected error for non-container top level")
	}
}
