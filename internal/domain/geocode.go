package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ResolvePlace looks up a place name for use as a region center. A nil
// geocoder yields ErrGeocoderDisabled; an empty result yields ErrPlaceNotFound.
func ResolvePlace(ctx context.Context, geocoder Geocoder, query string, logger *slog.Logger) (Coordinate, GeocodingResult, error) {
	if geocoder == nil {
		return Coordinate{}, GeocodingResult{}, ErrGeocoderDisabled
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return Coordinate{}, GeocodingResult{}, fmt.Errorf("%w: empty query", ErrPlaceNotFound)
	}

	result, err := geocoder.ForwardGeocode(ctx, query)
	if err != nil {
		logger.Warn("forward geocoding failed", "query", query, "error", err)
		return Coordinate{}, GeocodingResult{}, fmt.Errorf("geocode %q: %w", query, err)
	}

	c := Coordinate{Lat: result.Lat, Lng: result.Lng}
	if result.FormattedAddress == "" || !c.Valid() {
		return Coordinate{}, GeocodingResult{}, fmt.Errorf("%w: %q", ErrPlaceNotFound, query)
	}

	logger.Debug("place resolved", "query", query, "place", result.FormattedAddress,
		"lat", c.Lat, "lng", c.Lng, "confidence", result.Confidence)
	return c, result, nil
}
