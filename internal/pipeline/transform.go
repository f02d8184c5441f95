package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
)

// SheetTransformer implements Transformer using the domain row converter and
// logs every row it could not fully read.
type SheetTransformer struct {
	opts   domain.ConvertOptions
	logger *slog.Logger
}

// NewTransformer creates a SheetTransformer.
func NewTransformer(opts domain.ConvertOptions, logger *slog.Logger) *SheetTransformer {
	return &SheetTransformer{
		opts:   opts,
		logger: logger,
	}
}

func (t *SheetTransformer) Transform(rows []domain.RawRow) ([]domain.Sighting, domain.Report) {
	sightings, report := domain.ConvertRows(rows, t.opts)

	for _, w := range report.Warnings {
		t.logger.Warn("unrecognized behavior flag, treating as unknown",
			"sheet_row", w.SheetRow,
			"id", w.RowID,
			"field", w.Field,
			"value", w.Value,
		)
	}
	for _, m := range report.Malformed {
		t.logger.Warn("malformed sheet row",
			"sheet_row", m.SheetRow,
			"id", m.RowID,
			"field", m.Field,
			"value", m.Value,
			"reason", m.Reason,
			"kept", t.opts.KeepInvalidPositions && m.RowID != "" && isPositionField(m.Field),
		)
	}
	return sightings, report
}

func isPositionField(field string) bool {
	return field == domain.ColumnName(domain.ColLatitude) || field == domain.ColumnName(domain.ColLongitude)
}
