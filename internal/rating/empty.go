package rating

import "github.com/abandonsearch/place-rater/internal/model"

// IsEmpty reports whether a payload carries no rating signal: it is raw or
// missing, or every rating is zero (or absent) and the floor count is absent
// or null. A rating that is not a number counts as a signal.
func IsEmpty(p model.Payload) bool {
	if p.Kind != model.PayloadParsed {
		return true
	}
	for _, key := range model.RatingKeys {
		v, ok := lookup(p.Fields, key)
		if !ok {
			continue
		}
		f, ok := toFloat(v)
		if !ok || f != 0 {
			return false
		}
	}
	floors, ok := lookup(p.Fields, model.KeyFloors)
	return !ok || floors == nil
}
