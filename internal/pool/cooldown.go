package pool

import (
	"time"

	"github.com/abandonsearch/place-rater/internal/model"
)

// CooldownMap records, per backend, the instant until which it should not be
// called. It lives for one process only.
type CooldownMap struct {
	until map[string]time.Time
}

// NewCooldownMap returns an empty map.
func NewCooldownMap() *CooldownMap {
	return &CooldownMap{until: make(map[string]time.Time)}
}

// Until returns the expiry for b. A backend never cooled returns the zero
// time, which is always in the past.
func (c *CooldownMap) Until(b model.Backend) time.Time {
	return c.until[b.Key()]
}

// Set marks b as cooling until t.
func (c *CooldownMap) Set(b model.Backend, t time.Time) {
	c.until[b.Key()] = t
}

// Cooling reports whether b's expiry is still after now.
func (c *CooldownMap) Cooling(b model.Backend, now time.Time) bool {
	return c.Until(b).After(now)
}
