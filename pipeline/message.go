package pipeline

import (
	"strings"
	"time"
)

// Message is one normalized chat event. The pipeline feeds segmenters a
// sequence of these sorted ascending by Timestamp with no duplicate ids.
type Message struct {
	MessageID  string    `json:"message_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// RawExportMessage mirrors a single message record in a chat export file.
type RawExportMessage struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Author    RawAuthor `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RawAuthor is the author block of a raw export record.
type RawAuthor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot"`
}

// messageTypeDefault is the export type of a standard user message. Everything else
// (system notices, pins, thread starters) is noise for indexing purposes.
const messageTypeDefault = "Default"

// NormalizeMessage projects a raw export record into a Message, or reports that
// the record must be dropped: non-default types, bot accounts, records missing
// required fields, and messages whose content is empty after trimming.
//
// Trimming is only used for the emptiness test; stored content keeps its
// original whitespace.
func NormalizeMessage(raw RawExportMessage) (Message, bool) {
	if raw.Type != messageTypeDefault || raw.Author.IsBot {
		return Message{}, false
	}
	if raw.ID == "" || raw.Author.ID == "" || raw.Timestamp.IsZero() {
		return Message{}, false
	}
	if strings.TrimSpace(raw.Content) == "" {
		return Message{}, false
	}
	return Message{
		MessageID: raw.ID,
		AuthorID:  raw.Author.ID,
		Content:   raw.Content,
		Timestamp: raw.Timestamp,
	}, true
}

// UnknownAuthor is the sentinel display name for unresolvable author ids.
const UnknownAuthor = "Unknown"

// AuthorLookup maps author ids to display names.
type AuthorLookup map[string]string

// Resolve returns the display name for authorID, or UnknownAuthor when the id
// is missing from the lookup or maps to an empty name.
func (l AuthorLookup) Resolve(authorID string) string {
	if name, ok := l[authorID]; ok && name != "" {
		return name
	}
	return UnknownAuthor
}

// ApplyAuthorNames returns a copy of msgs with each AuthorName resolved through
// the lookup. The input slice is not modified.
func ApplyAuthorNames(msgs []Message, authors AuthorLookup) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	for i := range out {
		out[i].AuthorName = authors.Resolve(out[i].AuthorID)
	}
	return out
}
