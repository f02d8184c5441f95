package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
)

// Marker is everything the map widget needs to place and describe a pin.
type Marker struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Position domain.Coordinate `json:"position"`
	Recency  domain.Recency    `json:"recency"`
	Color    string            `json:"color"`
	IconURL  string            `json:"icon_url"`
	Popup    string            `json:"popup"`
}

var popupFlagLabels = []string{
	"Walking?",
	"Running?",
	"Resting?",
	"Chasing something?",
	"Bird in mouth?",
	"Small mammal in mouth?",
	"Clipped ear?",
}

func newMarker(s domain.Sighting, now time.Time, loc *time.Location) Marker {
	recency := domain.ClassifyRecency(s.Timestamp, now)
	return Marker{
		ID:       s.ID,
		Title:    "Sighting #" + s.ID,
		Position: s.Position,
		Recency:  recency,
		Color:    recency.Color(),
		IconURL:  recency.IconURL(),
		Popup:    popupText(s, loc),
	}
}

// popupText is the plain-text body of the marker info window.
func popupText(s domain.Sighting, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sighting #%s\n", s.ID)
	fmt.Fprintf(&b, "Observed at: %s\n", formatTimestamp(s.Timestamp, loc))
	fmt.Fprintf(&b, "Observation type: %s\n", s.Attributes.ObservationType)
	fmt.Fprintf(&b, "Number of cats: %s\n", s.Attributes.CatCount)
	b.WriteString("\n")
	for i, flag := range s.Behavior.Flags() {
		fmt.Fprintf(&b, "%s %s\n", popupFlagLabels[i], Glyph(flag))
	}
	b.WriteString("\n")
	if s.Attributes.Notes != "" {
		b.WriteString(s.Attributes.Notes)
	} else {
		b.WriteString("No notes")
	}
	return b.String()
}
