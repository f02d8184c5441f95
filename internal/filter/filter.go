// Package filter decides which sightings are visible for a given time window
// and optional circular region. Everything here is a pure function of its
// arguments; "now" is always passed in.
package filter

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
)

// TimeRange selects how far back sightings are shown.
type TimeRange string

const (
	AllTime   TimeRange = "ALL_TIME"
	LastYear  TimeRange = "LAST_YEAR"
	LastMonth TimeRange = "LAST_MONTH"
	LastWeek  TimeRange = "LAST_WEEK"
	LastDay   TimeRange = "LAST_DAY"
)

// TimeRanges lists every valid range, widest first.
var TimeRanges = []TimeRange{AllTime, LastYear, LastMonth, LastWeek, LastDay}

// ErrInvalidFilter wraps every validation failure in this package.
var ErrInvalidFilter = errors.New("invalid filter")

// Default region from the original map page: centered on (50, 0), 1500 km.
const (
	DefaultRegionLat          = 50.0
	DefaultRegionLng          = 0.0
	DefaultRegionRadiusMeters = 1500 * 1000
)

// ParseTimeRange validates a range name, case-insensitively.
func ParseTimeRange(s string) (TimeRange, error) {
	tr := TimeRange(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := tr.Window(); !ok {
		return "", fmt.Errorf("%w: unknown time range %q", ErrInvalidFilter, s)
	}
	return tr, nil
}

// Window returns the maximum age for the range. ALL_TIME has no window and
// returns 0 with ok=true.
func (r TimeRange) Window() (time.Duration, bool) {
	switch r {
	case AllTime:
		return 0, true
	case LastYear:
		return 365 * domain.Day, true
	case LastMonth:
		return 30 * domain.Day, true
	case LastWeek:
		return 7 * domain.Day, true
	case LastDay:
		return domain.Day, true
	default:
		return 0, false
	}
}

// Region is a circular inclusion area. A disabled region excludes nothing.
type Region struct {
	Center       domain.Coordinate `json:"center"`
	RadiusMeters float64           `json:"radius_meters"`
	Enabled      bool              `json:"enabled"`
}

// Validate checks the center is a real coordinate and the radius is not negative.
func (r Region) Validate() error {
	if !r.Center.Valid() {
		return fmt.Errorf("%w: region center (%g, %g) out of range", ErrInvalidFilter, r.Center.Lat, r.Center.Lng)
	}
	if r.RadiusMeters < 0 || math.IsNaN(r.RadiusMeters) || math.IsInf(r.RadiusMeters, 0) {
		return fmt.Errorf("%w: region radius must be a finite value >= 0", ErrInvalidFilter)
	}
	return nil
}

// Config is the complete filter state. It is a plain value: copy freely.
type Config struct {
	TimeRange TimeRange `json:"time_range"`
	Region    Region    `json:"region"`
}

// DefaultConfig shows all sightings with the default region disabled.
func DefaultConfig() Config {
	return Config{
		TimeRange: AllTime,
		Region: Region{
			Center:       domain.Coordinate{Lat: DefaultRegionLat, Lng: DefaultRegionLng},
			RadiusMeters: DefaultRegionRadiusMeters,
		},
	}
}

// Validate checks both the time range and the region.
func (c Config) Validate() error {
	if _, ok := c.TimeRange.Window(); !ok {
		return fmt.Errorf("%w: unknown time range %q", ErrInvalidFilter, c.TimeRange)
	}
	return c.Region.Validate()
}

// Matches reports whether s passes both the time and region predicates.
func Matches(s domain.Sighting, cfg Config, now time.Time) bool {
	return MatchesTime(s.Timestamp, cfg.TimeRange, now) && MatchesRegion(s.Position, cfg.Region)
}

// MatchesTime reports whether ts is within the range ending at now. The
// boundary is inclusive. A zero timestamp only matches ALL_TIME.
func MatchesTime(ts time.Time, r TimeRange, now time.Time) bool {
	window, ok := r.Window()
	if !ok {
		return false
	}
	if r == AllTime {
		return true
	}
	if ts.IsZero() {
		return false
	}
	return now.Sub(ts) <= window
}

// MatchesRegion reports whether p lies within the region, boundary included.
// Invalid positions never match an enabled region.
func MatchesRegion(p domain.Coordinate, r Region) bool {
	if !r.Enabled {
		return true
	}
	if !p.Valid() {
		return false
	}
	return Distance(p, r.Center) <= r.RadiusMeters
}

// Apply returns the sightings that match cfg, preserving order.
func Apply(sightings []domain.Sighting, cfg Config, now time.Time) []domain.Sighting {
	out := make([]domain.Sighting, 0, len(sightings))
	for _, s := range sightings {
		if Matches(s, cfg, now) {
			out = append(out, s)
		}
	}
	return out
}
