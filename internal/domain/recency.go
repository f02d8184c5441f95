package domain

import "time"

// Day is a fixed 24-hour day. Calendar months and leap years are ignored.
const Day = 24 * time.Hour

// Recency buckets a sighting by age for marker coloring.
type Recency string

const (
	RecencyRecent Recency = "recent"
	RecencyAging  Recency = "aging"
	RecencyOld    Recency = "old"
	RecencyStale  Recency = "stale"
)

const iconBaseURL = "http://maps.google.com/mapfiles/ms/icons/"

// ClassifyRecency maps the time elapsed since ts to a Recency. Boundaries are
// exclusive: exactly 7 days old is still recent.
func ClassifyRecency(ts, now time.Time) Recency {
	elapsed := now.Sub(ts)
	switch {
	case elapsed > 30*Day:
		return RecencyStale
	case elapsed > 14*Day:
		return RecencyOld
	case elapsed > 7*Day:
		return RecencyAging
	default:
		return RecencyRecent
	}
}

// Color returns the marker color name for r.
func (r Recency) Color() string {
	switch r {
	case RecencyStale:
		return "red"
	case RecencyOld:
		return "orange"
	case RecencyAging:
		return "yellow"
	default:
		return "green"
	}
}

// IconURL returns the Google Maps dot icon for r.
func (r Recency) IconURL() string {
	return iconBaseURL + r.Color() + "-dot.png"
}
