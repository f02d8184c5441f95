package view

import (
	"fmt"
	"sync"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/filter"
)

// FilterState is the one mutable copy of the user's filter selection. Every
// mutation bumps Revision.
type FilterState struct {
	mu       sync.RWMutex
	cfg      filter.Config
	revision uint64
}

// NewFilterState starts from initial, which must be valid.
func NewFilterState(initial filter.Config) *FilterState {
	return &FilterState{cfg: initial}
}

// Snapshot returns a copy of the current config and its revision.
func (f *FilterState) Snapshot() (filter.Config, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cfg, f.revision
}

// SetTimeRange replaces the time range.
func (f *FilterState) SetTimeRange(tr filter.TimeRange) (filter.Config, error) {
	if _, ok := tr.Window(); !ok {
		return f.current(), fmt.Errorf("%w: unknown time range %q", filter.ErrInvalidFilter, tr)
	}
	return f.mutate(func(c *filter.Config) { c.TimeRange = tr }), nil
}

// RegionUpdate changes some of the region fields. Nil fields keep their value.
type RegionUpdate struct {
	Center       *domain.Coordinate
	RadiusMeters *float64
	Enabled      *bool
}

// UpdateRegion moves and resizes the region, keeping its enabled flag.
func (f *FilterState) UpdateRegion(center domain.Coordinate, radiusMeters float64) (filter.Config, error) {
	return f.ApplyRegion(RegionUpdate{Center: &center, RadiusMeters: &radiusMeters})
}

// ApplyRegion applies every field of u as one mutation: either all of them
// take effect under a single revision, or none do. An empty update is a no-op.
func (f *FilterState) ApplyRegion(u RegionUpdate) (filter.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u.Center == nil && u.RadiusMeters == nil && u.Enabled == nil {
		return f.cfg, nil
	}
	next := f.cfg.Region
	if u.Center != nil {
		next.Center = *u.Center
	}
	if u.RadiusMeters != nil {
		next.RadiusMeters = *u.RadiusMeters
	}
	if u.Enabled != nil {
		next.Enabled = *u.Enabled
	}
	if err := next.Validate(); err != nil {
		return f.cfg, err
	}
	f.cfg.Region = next
	f.revision++
	return f.cfg, nil
}

// SetRegionEnabled turns the region filter on or off.
func (f *FilterState) SetRegionEnabled(enabled bool) filter.Config {
	return f.mutate(func(c *filter.Config) { c.Region.Enabled = enabled })
}

// ToggleRegion flips the region filter.
func (f *FilterState) ToggleRegion() filter.Config {
	return f.mutate(func(c *filter.Config) { c.Region.Enabled = !c.Region.Enabled })
}

func (f *FilterState) mutate(fn func(*filter.Config)) filter.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.cfg)
	f.revision++
	return f.cfg
}

func (f *FilterState) current() filter.Config {
	cfg, _ := f.Snapshot()
	return cfg
}
