package filter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
)

var testNow = time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)

func sightingAged(id string, age time.Duration, pos domain.Coordinate) domain.Sighting {
	return domain.Sighting{ID: id, Timestamp: testNow.Add(-age), Position: pos}
}

func TestParseTimeRange(t *testing.T) {
	for _, tr := range TimeRanges {
		got, err := ParseTimeRange(string(tr))
		require.NoError(t, err)
		assert.Equal(t, tr, got)
	}

	got, err := ParseTimeRange(" last_week ")
	require.NoError(t, err)
	assert.Equal(t, LastWeek, got)

	_, err = ParseTimeRange("LAST_DECADE")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestMatchesTime(t *testing.T) {
	tests := []struct {
		name  string
		r     TimeRange
		age   time.Duration
		match bool
	}{
		{"all time matches ancient", AllTime, 5000 * domain.Day, true},
		{"week exactly 7 days", LastWeek, 7 * domain.Day, true},
		{"week 7 days plus 1ms", LastWeek, 7*domain.Day + time.Millisecond, false},
		{"day exactly 24h", LastDay, domain.Day, true},
		{"day 25h", LastDay, 25 * time.Hour, false},
		{"month exactly 30 days", LastMonth, 30 * domain.Day, true},
		{"month 31 days", LastMonth, 31 * domain.Day, false},
		{"year exactly 365 days", LastYear, 365 * domain.Day, true},
		{"year 366 days", LastYear, 366 * domain.Day, false},
		{"future sighting", LastDay, -time.Hour, true},
		{"unknown range", TimeRange("FORTNIGHT"), time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, MatchesTime(testNow.Add(-tt.age), tt.r, testNow))
		})
	}

	t.Run("zero timestamp", func(t *testing.T) {
		assert.True(t, MatchesTime(time.Time{}, AllTime, testNow))
		assert.False(t, MatchesTime(time.Time{}, LastYear, testNow))
	})
}

func TestMatchesRegion(t *testing.T) {
	center := domain.Coordinate{Lat: 0, Lng: 0}
	point := domain.Coordinate{Lat: 0, Lng: 1}
	d := Distance(center, point)

	t.Run("exactly on the boundary", func(t *testing.T) {
		assert.True(t, MatchesRegion(point, Region{Center: center, RadiusMeters: d, Enabled: true}))
	})

	t.Run("one meter beyond", func(t *testing.T) {
		assert.False(t, MatchesRegion(point, Region{Center: center, RadiusMeters: d - 1, Enabled: true}))
	})

	t.Run("disabled never excludes", func(t *testing.T) {
		far := domain.Coordinate{Lat: -45, Lng: 170}
		assert.True(t, MatchesRegion(far, Region{Center: center, RadiusMeters: 1, Enabled: false}))
		assert.True(t, MatchesRegion(domain.InvalidCoordinate(), Region{Center: center, RadiusMeters: 1}))
	})

	t.Run("invalid position never inside", func(t *testing.T) {
		assert.False(t, MatchesRegion(domain.InvalidCoordinate(), Region{Center: center, RadiusMeters: 1e9, Enabled: true}))
	})
}

func TestDistance(t *testing.T) {
	// One degree of longitude on the equator.
	d := Distance(domain.Coordinate{Lat: 0, Lng: 0}, domain.Coordinate{Lat: 0, Lng: 1})
	assert.InDelta(t, EarthRadiusMeters*math.Pi/180, d, 1e-6)

	london := domain.Coordinate{Lat: 51.5072, Lng: -0.1276}
	paris := domain.Coordinate{Lat: 48.8566, Lng: 2.3522}
	assert.InDelta(t, 344_000, Distance(london, paris), 2_000)
	assert.InDelta(t, Distance(london, paris), Distance(paris, london), 1e-9)
	assert.Zero(t, Distance(london, london))
}

func TestRegionValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Region.Validate())
	assert.NoError(t, Region{Center: domain.Coordinate{Lat: -90, Lng: 180}}.Validate())
	assert.ErrorIs(t, Region{Center: domain.Coordinate{Lat: 91}}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Region{RadiusMeters: -1}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Region{RadiusMeters: math.Inf(1)}.Validate(), ErrInvalidFilter)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.TimeRange = "SOMETIME"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidFilter)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, AllTime, cfg.TimeRange)
	assert.False(t, cfg.Region.Enabled)
	assert.Equal(t, domain.Coordinate{Lat: 50, Lng: 0}, cfg.Region.Center)
	assert.Equal(t, 1_500_000.0, cfg.Region.RadiusMeters)
}

func TestApply_EndToEnd(t *testing.T) {
	somewhere := domain.Coordinate{Lat: 51.5, Lng: -0.12}
	elsewhere := domain.Coordinate{Lat: -33.86, Lng: 151.2}
	sightings := []domain.Sighting{
		sightingAged("1", 1*domain.Day, somewhere),
		sightingAged("10", 10*domain.Day, elsewhere),
		sightingAged("40", 40*domain.Day, somewhere),
	}

	ids := func(ss []domain.Sighting) []string {
		out := make([]string, 0, len(ss))
		for _, s := range ss {
			out = append(out, s.ID)
		}
		return out
	}

	week := DefaultConfig()
	week.TimeRange = LastWeek
	assert.Equal(t, []string{"1"}, ids(Apply(sightings, week, testNow)))

	assert.Equal(t, []string{"1", "10", "40"}, ids(Apply(sightings, DefaultConfig(), testNow)))

	month := DefaultConfig()
	month.TimeRange = LastMonth
	assert.Equal(t, []string{"1", "10"}, ids(Apply(sightings, month, testNow)))

	regional := DefaultConfig()
	regional.Region = Region{Center: somewhere, RadiusMeters: 10_000, Enabled: true}
	assert.Equal(t, []string{"1", "40"}, ids(Apply(sightings, regional, testNow)))

	regional.TimeRange = LastWeek
	assert.Equal(t, []string{"1"}, ids(Apply(sightings, regional, testNow)))
}

func TestMatches_Deterministic(t *testing.T) {
	s := sightingAged("x", 3*domain.Day, domain.Coordinate{Lat: 10, Lng: 10})
	cfg := Config{TimeRange: LastWeek, Region: Region{Center: domain.Coordinate{Lat: 10, Lng: 10.1}, RadiusMeters: 20_000, Enabled: true}}

	first := Matches(s, cfg, testNow)
	for range 10 {
		assert.Equal(t, first, Matches(s, cfg, testNow))
	}
	assert.True(t, first)
}
