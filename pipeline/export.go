package pipeline

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// FilterExportFile reads one raw chat export file and returns its normalized,
// keepable messages in file order, plus the author id-to-name lookup observed
// across all parseable records (including dropped ones: a bot reply or an
// empty message still reveals its author's display name).
//
// The input is either a top-level JSON array of raw message records or an
// object with a "messages" array field (alongside guild/channel metadata, which
// is skipped). Exports can be large, so the file is decoded with a streaming
// decoder rather than read into memory whole.
func FilterExportFile(path string) ([]Message, AuthorLookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("FilterExportFile: open: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReaderSize(f, 1<<20))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("FilterExportFile: read first token: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, nil, fmt.Errorf("FilterExportFile: expected JSON array/object, got %T", tok)
	}

	switch delim {
	case '[':
		return filterArrayFromOpen(dec)
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, nil, fmt.Errorf("FilterExportFile: read object key: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, nil, fmt.Errorf("FilterExportFile: expected string key, got %T", keyTok)
			}

			valTok, err := dec.Token()
			if err != nil {
				return nil, nil, fmt.Errorf("FilterExportFile: read value for key %q: %w", key, err)
			}

			if key == "messages" {
				if d, ok := valTok.(json.Delim); !ok || d != '[' {
					return nil, nil, fmt.Errorf("FilterExportFile: %q is not an array", key)
				}
				return filterArrayFromOpen(dec)
			}

			if err := skipValue(dec, valTok); err != nil {
				return nil, nil, fmt.Errorf("FilterExportFile: skip key %q: %w", key, err)
			}
		}
		return nil, nil, errors.New("FilterExportFile: no messages array found in export")
	default:
		return nil, nil, fmt.Errorf("FilterExportFile: unsupported top-level delimiter %q", delim)
	}
}

func filterArrayFromOpen(dec *json.Decoder) ([]Message, AuthorLookup, error) {
	var msgs []Message
	authors := make(AuthorLookup, 16)
	for dec.More() {
		var element json.RawMessage
		if err := dec.Decode(&element); err != nil {
			return nil, nil, fmt.Errorf("FilterExportFile: decode message element: %w", err)
		}

		// A record that doesn't unmarshal (bad timestamp, wrong shapes) is
		// dropped, not fatal to the file.
		var raw RawExportMessage
		if err := json.Unmarshal(element, &raw); err != nil {
			continue
		}
		if raw.Author.ID != "" && raw.Author.Name != "" {
			authors[raw.Author.ID] = raw.Author.Name
		}
		if m, keep := NormalizeMessage(raw); keep {
			msgs = append(msgs, m)
		}
	}
	return msgs, authors, nil
}

func skipValue(dec *json.Decoder, first json.Token) error {
	d, ok := first.(json.Delim)
	if !ok {
		// Primitive: already fully consumed.
		return nil
	}

	switch d {
	case '{', '[':
	default:
		return fmt.Errorf("skipValue: unexpected delimiter %q", d)
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if dd, ok := tok.(json.Delim); ok {
			switch dd {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
