package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/couchcryptid/cat-sightings-service/internal/adapter/sheets"
	"github.com/couchcryptid/cat-sightings-service/internal/config"
	"github.com/couchcryptid/cat-sightings-service/internal/dataset"
	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/filter"
	"github.com/couchcryptid/cat-sightings-service/internal/observability"
	"github.com/couchcryptid/cat-sightings-service/internal/pipeline"
	"github.com/couchcryptid/cat-sightings-service/internal/view"
)

type exportCmd struct {
	FilterFlags `embed:""`
}

type tableCmd struct {
	FilterFlags `embed:""`
}

type reportCmd struct{}

func (c *exportCmd) Run(env *runEnv) error {
	views, err := newViewService(env)
	if err != nil {
		return err
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}
	content, err := views.ExportPreview(env.ctx, cfg)
	if err != nil {
		return err
	}
	_, err = io.WriteString(env.out, content)
	return err
}

func (c *tableCmd) Run(env *runEnv) error {
	views, err := newViewService(env)
	if err != nil {
		return err
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}
	b, err := views.Preview(env.ctx, cfg)
	if err != nil {
		return err
	}
	return writeTable(env.out, b)
}

func (c *reportCmd) Run(env *runEnv) error {
	views, err := newViewService(env)
	if err != nil {
		return err
	}
	rv, err := views.Report(env.ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(env.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rv)
}

func (f FilterFlags) config() (filter.Config, error) {
	tr, err := filter.ParseTimeRange(f.Range)
	if err != nil {
		return filter.Config{}, err
	}
	cfg := filter.Config{
		TimeRange: tr,
		Region: filter.Region{
			Center:       domain.Coordinate{Lat: f.Lat, Lng: f.Lng},
			RadiusMeters: f.RadiusKm * 1000,
			Enabled:      f.Region,
		},
	}
	return cfg, cfg.Validate()
}

// newViewService wires the same load path as the server without the HTTP
// surface, the geocoder or the sighting feed.
func newViewService(env *runEnv) (*view.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := observability.NewCommandLogger(cfg, env.errOut)
	metrics := observability.NewMetrics()

	transformer := pipeline.NewTransformer(domain.ConvertOptions{
		Location:             cfg.Location,
		KeepInvalidPositions: cfg.KeepInvalidPositions,
	}, logger)
	p := pipeline.New(sheets.NewClient(cfg, metrics, logger), transformer, nil, nil, logger, metrics)
	cache := dataset.New(p, metrics, logger)

	return view.NewService(cache, view.NewFilterState(filter.DefaultConfig()), nil, nil,
		view.Options{Location: cfg.Location}, metrics, logger), nil
}

func writeTable(w io.Writer, b view.Bundle) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	writeRow(b.Table.Header)
	for _, row := range b.Table.Rows {
		writeRow(row)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d sightings\n", b.Count)
	return err
}
