// Package view derives the map, table and CSV representations of the visible
// sightings and coordinates render requests against the shared filter state.
package view

import (
	"time"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/filter"
)

// Options controls presentation.
type Options struct {
	// Location is used to display timestamps. Nil means UTC.
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Bundle is every view of one filtered set. All fields are derived from
// Filtered in a single Project call.
type Bundle struct {
	Version     uint64        `json:"version"`
	GeneratedAt time.Time     `json:"generated_at"`
	Filter      filter.Config `json:"filter"`
	Count       int           `json:"count"`
	Table       Table         `json:"table"`
	Markers     []Marker      `json:"markers"`
	Region      filter.Region `json:"region"`

	CSV      string            `json:"-"`
	Filtered []domain.Sighting `json:"-"`
}

// Project filters the dataset once and builds table rows, markers and CSV
// from that one result. Sightings without a valid position appear in the
// table and CSV but get no marker.
func Project(ds *domain.Dataset, cfg filter.Config, now time.Time, opts Options) (Bundle, error) {
	loc := opts.location()
	filtered := filter.Apply(ds.Sightings, cfg, now)

	rows := make([][]string, 0, len(filtered))
	markers := make([]Marker, 0, len(filtered))
	originals := make([]domain.RawRow, 0, len(filtered))
	for _, s := range filtered {
		rows = append(rows, tableRow(s, loc))
		if s.Position.Valid() {
			markers = append(markers, newMarker(s, now, loc))
		}
		originals = append(originals, s.OriginalRow)
	}

	csvContent, err := EncodeCSV(ds.Header, originals)
	if err != nil {
		return Bundle{}, err
	}

	return Bundle{
		GeneratedAt: now,
		Filter:      cfg,
		Count:       len(filtered),
		Table:       Table{Header: TableHeader, Rows: rows},
		Markers:     markers,
		Region:      cfg.Region,
		CSV:         csvContent,
		Filtered:    filtered,
	}, nil
}
