package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/filter"
	"github.com/couchcryptid/cat-sightings-service/internal/view"
)

// csvFilename matches the download name of the original map page.
const csvFilename = "data.csv"

type filtersResponse struct {
	Filter   filter.Config `json:"filter"`
	Revision uint64        `json:"revision"`
	Place    *placeInfo    `json:"place,omitempty"`
}

type placeInfo struct {
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Confidence float64 `json:"confidence"`
}

type timeRequest struct {
	Range string `json:"range"`
}

type regionRequest struct {
	Center       *domain.Coordinate `json:"center"`
	RadiusMeters *float64           `json:"radius_meters"`
	Enabled      *bool              `json:"enabled"`
	Place        string             `json:"place"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	cfg, overridden, err := s.overrides(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	render := s.views.Render
	if overridden {
		render = func(ctx context.Context) (view.Bundle, error) { return s.views.Preview(ctx, cfg) }
	}
	b, err := render(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	cfg, overridden, err := s.overrides(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var content string
	if overridden {
		content, err = s.views.ExportPreview(r.Context(), cfg)
	} else {
		content, err = s.views.Export(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rv, err := s.views.Report(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, rv)
}

func (s *Server) handleGetFilters(w http.ResponseWriter, _ *http.Request) {
	s.writeFilters(w, nil)
}

func (s *Server) handleSetTime(w http.ResponseWriter, r *http.Request) {
	var req timeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tr, err := filter.ParseTimeRange(req.Range)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.views.State().SetTimeRange(tr); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFilters(w, nil)
}

func (s *Server) handleSetRegion(w http.ResponseWriter, r *http.Request) {
	var req regionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	update := view.RegionUpdate{Center: req.Center, RadiusMeters: req.RadiusMeters, Enabled: req.Enabled}
	var place *placeInfo

	if strings.TrimSpace(req.Place) != "" {
		if req.Center != nil {
			s.writeError(w, r, &requestError{msg: "place and center are mutually exclusive"})
			return
		}
		_, result, err := s.views.MoveRegionToPlace(r.Context(), req.Place, update)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		place = &placeInfo{Name: result.PlaceName, Address: result.FormattedAddress, Confidence: result.Confidence}
	} else if _, err := s.views.State().ApplyRegion(update); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeFilters(w, place)
}

func (s *Server) handleToggleRegion(w http.ResponseWriter, _ *http.Request) {
	s.views.State().ToggleRegion()
	s.writeFilters(w, nil)
}

func (s *Server) writeFilters(w http.ResponseWriter, place *placeInfo) {
	cfg, rev := s.views.State().Snapshot()
	sharedobs.WriteJSON(w, http.StatusOK, filtersResponse{Filter: cfg, Revision: rev, Place: place})
}

// overrides applies the range, region, lat, lng and radius query parameters
// to a copy of the current filter state. The bool reports whether any were
// present.
func (s *Server) overrides(r *http.Request) (filter.Config, bool, error) {
	cfg, _ := s.views.State().Snapshot()
	q := r.URL.Query()
	overridden := false

	if v := q.Get("range"); v != "" {
		tr, err := filter.ParseTimeRange(v)
		if err != nil {
			return cfg, false, err
		}
		cfg.TimeRange = tr
		overridden = true
	}
	if v := q.Get("region"); v != "" {
		enabled, err := parseSwitch(v)
		if err != nil {
			return cfg, false, err
		}
		cfg.Region.Enabled = enabled
		overridden = true
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"lat", &cfg.Region.Center.Lat},
		{"lng", &cfg.Region.Center.Lng},
		{"radius", &cfg.Region.RadiusMeters},
	}
	for _, f := range floats {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, false, fmt.Errorf("%w: %s must be a number", filter.ErrInvalidFilter, f.key)
		}
		*f.dst = n
		overridden = true
	}

	if overridden {
		if err := cfg.Validate(); err != nil {
			return cfg, false, err
		}
	}
	return cfg, overridden, nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: region must be on or off, got %q", filter.ErrInvalidFilter, v)
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &requestError{msg: "invalid request body: " + err.Error()}
	}
	return nil
}
