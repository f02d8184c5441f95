package view

import (
	"time"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
)

// TableHeader is the fixed column header of the results table.
var TableHeader = []string{
	"Id",
	"Timestamp",
	"Type",
	"# of cats",
	"Walking?",
	"Running?",
	"Resting?",
	"Chasing?",
	"Bird in mouth?",
	"Small mammal in mouth?",
	"Clipped ear?",
	"Notes",
}

// Glyphs for tri-state cells.
const (
	GlyphTrue    = "✓"
	GlyphFalse   = "✗"
	GlyphUnknown = "???"
)

// DisplayLayout matches the en-US locale string used by the map page.
const DisplayLayout = "1/2/2006, 3:04:05 PM"

// Table is the header plus one display row per visible sighting.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Glyph renders a tri-state flag for display.
func Glyph(t domain.TriState) string {
	switch t {
	case domain.True:
		return GlyphTrue
	case domain.False:
		return GlyphFalse
	default:
		return GlyphUnknown
	}
}

func formatTimestamp(ts time.Time, loc *time.Location) string {
	return ts.In(loc).Format(DisplayLayout)
}

func tableRow(s domain.Sighting, loc *time.Location) []string {
	row := make([]string, 0, len(TableHeader))
	row = append(row,
		s.ID,
		formatTimestamp(s.Timestamp, loc),
		s.Attributes.ObservationType,
		s.Attributes.CatCount,
	)
	for _, flag := range s.Behavior.Flags() {
		row = append(row, Glyph(flag))
	}
	return append(row, s.Attributes.Notes)
}
