package view

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/filter"
)

func TestFilterState_SetTimeRange(t *testing.T) {
	st := NewFilterState(filter.DefaultConfig())

	cfg, err := st.SetTimeRange(filter.LastWeek)
	require.NoError(t, err)
	assert.Equal(t, filter.LastWeek, cfg.TimeRange)

	_, rev := st.Snapshot()
	assert.Equal(t, uint64(1), rev)

	cfg, err = st.SetTimeRange("FORTNIGHT")
	require.ErrorIs(t, err, filter.ErrInvalidFilter)
	assert.Equal(t, filter.LastWeek, cfg.TimeRange, "invalid input leaves state unchanged")

	_, rev = st.Snapshot()
	assert.Equal(t, uint64(1), rev)
}

func TestFilterState_UpdateRegionKeepsEnabled(t *testing.T) {
	st := NewFilterState(filter.DefaultConfig())
	st.SetRegionEnabled(true)

	center := domain.Coordinate{Lat: 51.5, Lng: -0.12}
	cfg, err := st.UpdateRegion(center, 25_000)
	require.NoError(t, err)

	assert.True(t, cfg.Region.Enabled)
	assert.Equal(t, center, cfg.Region.Center)
	assert.Equal(t, 25_000.0, cfg.Region.RadiusMeters)
}

func TestFilterState_UpdateRegionRejectsInvalid(t *testing.T) {
	st := NewFilterState(filter.DefaultConfig())

	_, err := st.UpdateRegion(domain.Coordinate{Lat: 95, Lng: 0}, 1000)
	require.ErrorIs(t, err, filter.ErrInvalidFilter)

	_, err = st.UpdateRegion(domain.Coordinate{Lat: 10, Lng: 0}, -5)
	require.ErrorIs(t, err, filter.ErrInvalidFilter)

	cfg, rev := st.Snapshot()
	assert.Equal(t, filter.DefaultConfig(), cfg)
	assert.Zero(t, rev)
}

func TestFilterState_ApplyRegionIsOneMutation(t *testing.T) {
	st := NewFilterState(filter.DefaultConfig())

	center := domain.Coordinate{Lat: 40.7, Lng: -74}
	radius, enabled := 3_000.0, true
	cfg, err := st.ApplyRegion(RegionUpdate{Center: &center, RadiusMeters: &radius, Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, filter.Region{Center: center, RadiusMeters: 3_000, Enabled: true}, cfg.Region)

	_, rev := st.Snapshot()
	assert.Equal(t, uint64(1), rev)

	cfg, err = st.ApplyRegion(RegionUpdate{})
	require.NoError(t, err)
	assert.True(t, cfg.Region.Enabled)
	_, rev = st.Snapshot()
	assert.Equal(t, uint64(1), rev, "empty update does not bump the revision")
}

func TestFilterState_ApplyRegionAllOrNothing(t *testing.T) {
	st := NewFilterState(filter.DefaultConfig())

	bad := domain.Coordinate{Lat: 10, Lng: 200}
	enabled := true
	_, err := st.ApplyRegion(RegionUpdate{Center: &bad, Enabled: &enabled})
	require.ErrorIs(t, err, filter.ErrInvalidFilter)

	cfg, rev := st.Snapshot()
	assert.False(t, cfg.Region.Enabled, "enabled is not applied when the center is rejected")
	assert.Equal(t, filter.DefaultConfig(), cfg)
	assert.Zero(t, rev)
}

func TestFilterState_ApplyRegionConcurrentReaders(t *testing.T) {
	st := NewFilterState(filter.DefaultConfig())
	center := domain.Coordinate{Lat: 48.85, Lng: 2.35}
	radius, enabled := 1_500.0, true
	want := filter.Region{Center: center, RadiusMeters: radius, Enabled: true}
	initial := filter.DefaultConfig().Region

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = st.ApplyRegion(RegionUpdate{Center: &center, RadiusMeters: &radius, Enabled: &enabled})
	}()
	for range 200 {
		cfg, _ := st.Snapshot()
		if cfg.Region != initial {
			assert.Equal(t, want, cfg.Region, "readers never see a half-applied region")
		}
	}
	wg.Wait()
}

func TestFilterState_Toggle(t *testing.T) {
	st := NewFilterState(filter.DefaultConfig())

	assert.True(t, st.ToggleRegion().Region.Enabled)
	assert.False(t, st.ToggleRegion().Region.Enabled)

	cfg, rev := st.Snapshot()
	assert.Equal(t, filter.DefaultConfig().Region, cfg.Region, "toggling keeps center and radius")
	assert.Equal(t, uint64(2), rev)
}

func TestFilterState_ConcurrentMutations(t *testing.T) {
	st := NewFilterState(filter.DefaultConfig())

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			st.ToggleRegion()
		}()
		go func() {
			defer wg.Done()
			_, _ = st.SetTimeRange(filter.LastYear)
		}()
	}
	wg.Wait()

	cfg, rev := st.Snapshot()
	assert.Equal(t, uint64(100), rev)
	assert.False(t, cfg.Region.Enabled, "an even number of toggles")
	assert.Equal(t, filter.LastYear, cfg.TimeRange)
}
