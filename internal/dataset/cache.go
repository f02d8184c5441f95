// Package dataset holds the converted sheet for the lifetime of the process.
package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/observability"
)

const flightKey = "dataset"

// DefaultLoadTimeout bounds one shared load, which no single caller can cancel.
const DefaultLoadTimeout = 2 * time.Minute

// Loader produces a complete dataset or an error, never a partial one.
type Loader interface {
	Load(ctx context.Context) (*domain.Dataset, error)
}

// Cache loads the dataset on first use and keeps it until the process exits.
// Concurrent callers during the first load share one in-flight fetch. A failed
// load is not remembered, so the next Get tries again.
type Cache struct {
	loader      Loader
	loadTimeout time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger

	group singleflight.Group

	mu   sync.RWMutex
	data *domain.Dataset
}

// New creates an empty cache backed by loader.
func New(loader Loader, metrics *observability.Metrics, logger *slog.Logger) *Cache {
	return &Cache{loader: loader, loadTimeout: DefaultLoadTimeout, metrics: metrics, logger: logger}
}

// Get returns the cached dataset, loading it if needed. The returned dataset
// is shared and must not be modified.
//
// The load keeps the values of the starting caller's context but not its
// cancellation, and is bounded by the load timeout. Every caller, the starting
// one included, stops waiting when its own context ends without affecting the
// load or the other waiters.
func (c *Cache) Get(ctx context.Context) (*domain.Dataset, error) {
	if ds, ok := c.Peek(); ok {
		return ds, nil
	}

	ch := c.group.DoChan(flightKey, func() (any, error) {
		if ds, ok := c.Peek(); ok {
			return ds, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		ds, err := c.loader.Load(loadCtx)
		if err != nil {
			c.logger.Warn("dataset load failed", "error", err)
			return nil, err
		}

		c.mu.Lock()
		c.data = ds
		c.mu.Unlock()

		c.metrics.SightingsCached.Set(float64(len(ds.Sightings)))
		c.logger.Info("dataset cached", "load_id", ds.LoadID, "sightings", len(ds.Sightings))
		return ds, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Dataset), nil
	}
}

// Peek returns the dataset if one is cached, without loading.
func (c *Cache) Peek() (*domain.Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data, c.data != nil
}

// CheckReadiness returns nil once a dataset has been cached.
func (c *Cache) CheckReadiness(_ context.Context) error {
	if _, ok := c.Peek(); !ok {
		return errors.New("sighting data has not been loaded yet")
	}
	return nil
}
