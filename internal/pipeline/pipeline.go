// Package pipeline loads the sighting sheet: fetch rows, convert them, and
// optionally publish the result to the sighting feed.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/observability"
)

// Fetcher reads the header and data rows from the source.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.RawRow, []domain.RawRow, error)
}

// Transformer converts data rows into sightings.
type Transformer interface {
	Transform(rows []domain.RawRow) ([]domain.Sighting, domain.Report)
}

// publishTimeout bounds one background feed publish.
const publishTimeout = 30 * time.Second

// Publisher writes a loaded dataset to a downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, ds *domain.Dataset) error
}

// Pipeline runs one extract-transform-publish pass per Load call. It
// implements dataset.Loader.
type Pipeline struct {
	fetcher     Fetcher
	transformer Transformer
	publisher   Publisher
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics

	publishing sync.WaitGroup
}

// New creates a Pipeline. Pass a nil publisher to disable the feed.
func New(f Fetcher, t Transformer, p Publisher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		fetcher:     f,
		transformer: t,
		publisher:   p,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// Load fetches and converts the whole sheet. Fetch errors are returned as-is
// and no dataset is produced. The feed is published in the background after
// Load returns; its failures are logged and counted only.
func (p *Pipeline) Load(ctx context.Context) (*domain.Dataset, error) {
	start := time.Now()

	header, rows, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.logger.Error("fetch sheet failed", "error", err)
		return nil, err
	}

	sightings, report := p.transformer.Transform(rows)

	p.metrics.RowsConverted.Add(float64(report.Converted))
	p.metrics.MalformedRows.Add(float64(len(report.Malformed)))
	p.metrics.FlagWarnings.Add(float64(len(report.Warnings)))

	ds := &domain.Dataset{
		LoadID:    uuid.NewString(),
		FetchedAt: p.clock.Now(),
		Header:    header,
		Sightings: sightings,
		Report:    report,
	}

	p.logger.Info("sheet loaded",
		"load_id", ds.LoadID,
		"rows", report.RowsTotal,
		"sightings", len(sightings),
		"malformed", len(report.Malformed),
		"flag_warnings", len(report.Warnings),
		"duration", time.Since(start),
	)

	if p.publisher != nil && len(ds.Sightings) > 0 {
		p.publishing.Add(1)
		go func() {
			defer p.publishing.Done()
			p.publish(context.WithoutCancel(ctx), ds)
		}()
	}
	return ds, nil
}

// Wait blocks until every background feed publish has finished or ctx ends.
func (p *Pipeline) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.publishing.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) publish(ctx context.Context, ds *domain.Dataset) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.publisher.Publish(ctx, ds); err != nil {
		p.metrics.FeedErrors.Inc()
		p.logger.Warn("publish sighting feed failed", "error", err, "load_id", ds.LoadID)
		return
	}
	p.metrics.FeedPublished.Add(float64(len(ds.Sightings)))
}
