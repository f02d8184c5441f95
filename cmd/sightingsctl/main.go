// Command sightingsctl fetches the sighting sheet once and prints one of the
// derived views: the CSV export, the table, or the conversion report.
//
// Usage:
//
//	sightingsctl export --range LAST_MONTH -o data.csv
//	sightingsctl table --region --lat 51.5 --lng -0.12 --radius-km 25
//	sightingsctl report
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

type cli struct {
	EnvFile string `name:"env-file" default:".env" help:"Environment file loaded before the process environment is read. A missing file is ignored."`
	Output  string `short:"o" type:"path" help:"Write output to this file instead of stdout."`

	Export exportCmd `cmd:"" help:"Write the filtered sightings as CSV."`
	Table  tableCmd  `cmd:"" help:"Print the filtered sightings as a table."`
	Report reportCmd `cmd:"" help:"Print the conversion report as JSON."`
}

// FilterFlags select the sightings to show. They start from the default
// filter and never touch any shared state.
type FilterFlags struct {
	Range    string  `default:"ALL_TIME" help:"Time range: ALL_TIME, LAST_YEAR, LAST_MONTH, LAST_WEEK or LAST_DAY."`
	Region   bool    `help:"Only show sightings inside the region."`
	Lat      float64 `default:"50" help:"Region center latitude."`
	Lng      float64 `default:"0" help:"Region center longitude."`
	RadiusKm float64 `name:"radius-km" default:"1500" help:"Region radius in kilometers."`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("sightingsctl"),
		kong.Description("Inspect the cat sighting sheet from the command line."),
		kong.UsageOnError(),
	)

	if err := loadEnvFile(c.EnvFile); err != nil {
		kctx.FatalIfErrorf(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, closeOut, err := openOutput(c.Output)
	kctx.FatalIfErrorf(err)

	err = kctx.Run(&runEnv{ctx: ctx, out: out, errOut: os.Stderr})
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	kctx.FatalIfErrorf(err)
}

// runEnv is bound into every command's Run method.
type runEnv struct {
	ctx    context.Context
	out    io.Writer
	errOut io.Writer
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}
