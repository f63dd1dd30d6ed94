package fileutils

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DecodeModelJSON unmarshals JSON from a model response, with a small amount of
// robustness for cases where the model wraps the JSON in prose or code fences.
// Both top-level objects and top-level arrays are handled.
func DecodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	// Fast path: valid JSON as-is.
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	// Fallback: extract the first top-level JSON value, whichever delimiter
	// appears first.
	start, end := -1, -1
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')
	switch {
	case arrStart != -1 && (objStart == -1 || arrStart < objStart):
		start = arrStart
		end = strings.LastIndexByte(s, ']')
	case objStart != -1:
		start = objStart
		end = strings.LastIndexByte(s, '}')
	}
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON value found in model output (len=%d)", len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}
