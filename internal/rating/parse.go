// Package rating turns one place into one finalized record: it drives the
// backend pool, retries calls, detects empty answers and falls back to the
// newest stored artifact when every backend fails.
package rating

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/abandonsearch/place-rater/internal/model"
)

// ParsePayload interprets raw model text. It tries the whole text as JSON,
// then the span between the first '{' and the last '}'. Anything that does
// not yield an object becomes a raw payload.
func ParsePayload(raw string) model.Payload {
	v, err := decodeJSON(raw)
	if err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return model.RawFallback(raw)
		}
		v, err = decodeJSON(raw[start : end+1])
		if err != nil {
			return model.RawFallback(raw)
		}
	}

	fields, ok := v.(map[string]any)
	if !ok {
		return model.RawFallback(raw)
	}
	if text, only := rawTextOnly(fields); only {
		return model.RawFallback(text)
	}
	return model.Parsed(fields)
}

// rawTextOnly recognizes the legacy {"_raw_text": "..."} wrapper.
func rawTextOnly(fields map[string]any) (string, bool) {
	if len(fields) != 1 {
		return "", false
	}
	v, ok := fields[model.RawTextKey]
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}

var errTrailingData = errors.New("trailing data after JSON value")

func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}
