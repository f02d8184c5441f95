package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/filter"
	"github.com/couchcryptid/cat-sightings-service/internal/observability"
)

// ErrStaleRender means a render finished after a newer one was published.
var ErrStaleRender = errors.New("render superseded by a newer version")

// DatasetSource supplies the converted sheet.
type DatasetSource interface {
	Get(ctx context.Context) (*domain.Dataset, error)
}

// ReportView is the conversion report of the cached dataset.
type ReportView struct {
	LoadID    string        `json:"load_id"`
	FetchedAt time.Time     `json:"fetched_at"`
	Sightings int           `json:"sightings"`
	Report    domain.Report `json:"report"`
}

// Service renders the shared filter state against the cached dataset.
//
// Every Render takes a version number together with its filter snapshot.
// Versions are handed out in snapshot order, so a higher version always saw
// the same or a newer filter state. A render that completes after a higher
// version was published is discarded and its caller gets the published bundle.
type Service struct {
	source   DatasetSource
	state    *FilterState
	geocoder domain.Geocoder
	clock    clockwork.Clock
	opts     Options
	metrics  *observability.Metrics
	logger   *slog.Logger

	stampMu sync.Mutex
	version uint64

	pubMu     sync.RWMutex
	published *Bundle
}

// NewService creates a Service. geocoder may be nil; clock defaults to the
// real clock.
func NewService(source DatasetSource, state *FilterState, geocoder domain.Geocoder, clock clockwork.Clock, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		source:   source,
		state:    state,
		geocoder: geocoder,
		clock:    clock,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
}

// State returns the shared filter state.
func (s *Service) State() *FilterState {
	return s.state
}

// Render projects the current filter state and publishes the result unless a
// newer render already has been.
func (s *Service) Render(ctx context.Context) (Bundle, error) {
	cfg, version := s.stamp()

	b, err := s.project(ctx, cfg, "view")
	if err != nil {
		return Bundle{}, err
	}
	b.Version = version

	published, err := s.publish(b)
	if errors.Is(err, ErrStaleRender) {
		s.metrics.StaleRenders.Inc()
		s.logger.Debug("discarded stale render", "version", version, "published_version", published.Version)
	}
	return published, nil
}

// Preview projects cfg without touching the shared state or the published
// view. The returned bundle has Version 0.
func (s *Service) Preview(ctx context.Context, cfg filter.Config) (Bundle, error) {
	if err := cfg.Validate(); err != nil {
		return Bundle{}, err
	}
	return s.project(ctx, cfg, "preview")
}

// Export renders the current state and returns its CSV.
func (s *Service) Export(ctx context.Context) (string, error) {
	b, err := s.Render(ctx)
	if err != nil {
		return "", err
	}
	s.metrics.CSVExports.Inc()
	return b.CSV, nil
}

// ExportPreview returns the CSV for cfg without publishing it.
func (s *Service) ExportPreview(ctx context.Context, cfg filter.Config) (string, error) {
	b, err := s.Preview(ctx, cfg)
	if err != nil {
		return "", err
	}
	s.metrics.CSVExports.Inc()
	return b.CSV, nil
}

// Published returns the most recently published bundle.
func (s *Service) Published() (Bundle, bool) {
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()
	if s.published == nil {
		return Bundle{}, false
	}
	return *s.published, true
}

// Report returns the conversion report of the cached dataset, loading it if needed.
func (s *Service) Report(ctx context.Context) (ReportView, error) {
	ds, err := s.source.Get(ctx)
	if err != nil {
		return ReportView{}, err
	}
	return ReportView{
		LoadID:    ds.LoadID,
		FetchedAt: ds.FetchedAt,
		Sightings: len(ds.Sightings),
		Report:    ds.Report,
	}, nil
}

// MoveRegionToPlace resolves query with the geocoder and moves the region
// center there. The other fields of u are applied in the same mutation.
func (s *Service) MoveRegionToPlace(ctx context.Context, query string, u RegionUpdate) (filter.Config, domain.GeocodingResult, error) {
	center, result, err := domain.ResolvePlace(ctx, s.geocoder, query, s.logger)
	if err != nil {
		cfg, _ := s.state.Snapshot()
		return cfg, domain.GeocodingResult{}, err
	}
	u.Center = &center
	cfg, err := s.state.ApplyRegion(u)
	return cfg, result, err
}

func (s *Service) stamp() (filter.Config, uint64) {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	cfg, _ := s.state.Snapshot()
	s.version++
	return cfg, s.version
}

func (s *Service) project(ctx context.Context, cfg filter.Config, kind string) (Bundle, error) {
	ds, err := s.source.Get(ctx)
	if err != nil {
		return Bundle{}, err
	}
	b, err := Project(ds, cfg, s.clock.Now(), s.opts)
	if err != nil {
		return Bundle{}, err
	}
	s.metrics.Renders.WithLabelValues(kind).Inc()
	return b, nil
}

func (s *Service) publish(b Bundle) (Bundle, error) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if s.published != nil && s.published.Version > b.Version {
		return *s.published, ErrStaleRender
	}
	s.published = &b
	return b, nil
}
