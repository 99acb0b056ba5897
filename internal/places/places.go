// Package places loads the input document of place records.
package places

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/abandonsearch/place-rater/internal/model"
)

// InputError reports a missing or malformed input document. It is the only
// error that aborts a run.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return "input " + e.Path + ": " + e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Load reads the JSON document at path. The document is either a single
// place object or an array of place objects.
func Load(path string) ([]model.Place, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: eris.Wrap(err, "read input")}
	}
	out, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	return out, nil
}

// Decode parses a place document from r. Numbers are kept as json.Number so
// passthrough values are written back exactly as read.
func Decode(r io.Reader) ([]model.Place, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "decode input")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, eris.New("decode input: trailing data after document")
	}

	switch v := doc.(type) {
	case map[string]any:
		return []model.Place{model.Place(v)}, nil
	case []any:
		out := make([]model.Place, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, eris.Errorf("decode input: record %d is not an object", i+1)
			}
			out = append(out, model.Place(obj))
		}
		return out, nil
	default:
		return nil, eris.New("decode input: top-level JSON must be an object or a list")
	}
}
