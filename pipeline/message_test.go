package pipeline

import (
	"testing"
	"time"
)

func TestNormalizeMessage(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	valid := RawExportMessage{
		ID:        "m1",
		Type:      "Default",
		Author:    RawAuthor{ID: "a1", Name: "sam"},
		Content:   "  hello there ",
		Timestamp: ts,
	}

	tests := []struct {
		name string
		raw  RawExportMessage
		keep bool
	}{
		{"standard message kept", valid, true},
		{"non-default type dropped", func() RawExportMessage { r := valid; r.Type = "ThreadCreated"; return r }(), false},
		{"bot author dropped", func() RawExportMessage { r := valid; r.Author.IsBot = true; return r }(), false},
		{"whitespace content dropped", func() RawExportMessage { r := valid; r.Content = "   \n\t"; return r }(), false},
		{"missing id dropped", func() RawExportMessage { r := valid; r.ID = ""; return r }(), false},
		{"missing author id dropped", func() RawExportMessage { r := valid; r.Author.ID = ""; return r }(), false},
		{"missing timestamp dropped", func() RawExportMessage { r := valid; r.Timestamp = time.Time{}; return r }(), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, keep := NormalizeMessage(tc.raw)
			if keep != tc.keep {
				t.Fatalf("keep=%v, want %v", keep, tc.keep)
			}
			if !keep {
				return
			}
			if m.MessageID != "m1" || m.AuthorID != "a1" {
				t.Fatalf("projected fields wrong: %+v", m)
			}
			if m.Content != "  hello there " {
				t.Fatalf("content=%q, want original untrimmed content", m.Content)
			}
			if m.AuthorName != "" {
				t.Fatalf("AuthorName=%q, want empty (resolution is not a normalizer concern)", m.AuthorName)
			}
			if !m.Timestamp.Equal(ts) {
				t.Fatalf("timestamp=%v, want %v", m.Timestamp, ts)
			}
		})
	}
}

func TestApplyAuthorNames(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		{MessageID: "m1", AuthorID: "a1"},
		{MessageID: "m2", AuthorID: "a2"},
	}

	out := ApplyAuthorNames(msgs, AuthorLookup{"a1": "sam"})
	if out[0].AuthorName != "sam" {
		t.Fatalf("AuthorName=%q, want sam", out[0].AuthorName)
	}
	if out[1].AuthorName != UnknownAuthor {
		t.Fatalf("AuthorName=%q, want %q", out[1].AuthorName, UnknownAuthor)
	}
	if msgs[0].AuthorName != "" {
		t.Fatalf("input mutated: %+v", msgs[0])
	}
}

func TestAuthorLookup_Resolve(t *testing.T) {
	t.Parallel()

	lookup := AuthorLookup{"a1": "sam", "a2": ""}
	if got := lookup.Resolve("a1"); got != "sam" {
		t.Fatalf("Resolve(a1)=%q, want sam", got)
	}
	if got := lookup.Resolve("a2"); got != UnknownAuthor {
		t.Fatalf("Resolve(a2)=%q, want %q for empty name", got, UnknownAuthor)
	}
	if got := lookup.Resolve("nope"); got != UnknownAuthor {
		t.Fatalf("Resolve(nope)=%q, want %q", got, UnknownAuthor)
	}
	if got := AuthorLookup(nil).Resolve("a1"); got != UnknownAuthor {
		t.Fatalf("nil lookup Resolve=%q, want %q", got, UnknownAuthor)
	}
}
