package model

import "fmt"

// Place is one input record. Keys and values are kept exactly as decoded
// from the input document (numbers stay json.Number).
type Place map[string]any

// Passthrough keys copied verbatim from a Place into a FinalizedRecord.
const (
	KeyTitle       = "title"
	KeyDescription = "description"
	KeyAddress     = "address"
	KeyLat         = "lat"
	KeyLon         = "lon"
	KeyURL         = "url"
	KeyDate        = "date"
	KeyImages      = "images"
)

// Get returns the value for key, or def when the key is absent.
func (p Place) Get(key string, def any) any {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Title returns the title as a string, or "" when missing or not a string.
func (p Place) Title() string {
	s, _ := p[KeyTitle].(string)
	return s
}

// WithDefaults returns a shallow copy of p with empty defaults set for the
// passthrough keys the prompt relies on. p is not modified.
func (p Place) WithDefaults() Place {
	out := make(Place, len(p)+6)
	for k, v := range p {
		out[k] = v
	}
	for _, k := range []string{KeyTitle, KeyAddress, KeyURL, KeyDate} {
		if _, ok := out[k]; !ok {
			out[k] = ""
		}
	}
	for _, k := range []string{KeyLat, KeyLon} {
		if _, ok := out[k]; !ok {
			out[k] = nil
		}
	}
	return out
}

// Images returns the image references attached to the place. Non-string
// entries are stringified the way they were written.
func (p Place) Images() []string {
	raw, ok := p[KeyImages].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch s := v.(type) {
		case string:
			out = append(out, s)
		case nil:
		default:
			out = append(out, fmt.Sprint(s))
		}
	}
	return out
}
