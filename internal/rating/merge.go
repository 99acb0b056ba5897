package rating

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/abandonsearch/place-rater/internal/model"
)

// lookup finds key in fields, matching exactly first and then after NFC
// normalization and trimming of the field names.
func lookup(fields map[string]any, key string) (any, bool) {
	if v, ok := fields[key]; ok {
		return v, true
	}
	want := norm.NFC.String(key)
	for k, v := range fields {
		if norm.NFC.String(strings.TrimSpace(k)) == want {
			return v, true
		}
	}
	return nil, false
}

// toFloat converts the value shapes a JSON model answer can take. Strings
// are parsed after trimming; booleans count as 1 and 0.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ClampRating converts v to a rating in [0, 10]. Unconvertible values and
// NaN give 0.
func ClampRating(v any) float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return math.Max(model.RatingMin, math.Min(model.RatingMax, f))
}

// NormalizeFloors converts v to a floor count. Missing or unconvertible
// values give nil, negatives give 0, and values within 1e-6 of an integer
// are rounded to it.
func NormalizeFloors(v any) *float64 {
	if v == nil {
		return nil
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 1) {
		return nil
	}
	if f < 0 {
		f = 0
	}
	if r := math.Round(f); math.Abs(f-r) < model.FloorEpsilon {
		f = r
	}
	return &f
}

// Merge builds the finalized record for place from payload. Passthrough
// fields come from place; ratings and floors come from a parsed payload and
// default to 0 and nil otherwise.
func Merge(place model.Place, payload model.Payload) model.FinalizedRecord {
	rec := model.FinalizedRecord{
		Title:       place.Get(model.KeyTitle, ""),
		Description: place.Get(model.KeyDescription, ""),
		Address:     place.Get(model.KeyAddress, ""),
		Lat:         place.Get(model.KeyLat, nil),
		Lon:         place.Get(model.KeyLon, nil),
		URL:         place.Get(model.KeyURL, ""),
		Date:        place.Get(model.KeyDate, ""),
	}
	if payload.Kind != model.PayloadParsed {
		return rec
	}

	score := func(key string) float64 {
		v, _ := lookup(payload.Fields, key)
		return ClampRating(v)
	}
	rec.Guarded = score(model.KeyGuarded)
	rec.Interior = score(model.KeyInterior)
	rec.Age = score(model.KeyAge)
	rec.Overall = score(model.KeyOverall)

	floors, _ := lookup(payload.Fields, model.KeyFloors)
	rec.Floors = NormalizeFloors(floors)
	return rec
}
