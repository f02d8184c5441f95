package view

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
)

// lineBreaks collapses each CRLF, CR or LF to a single ';' so every record
// stays on one line.
var lineBreaks = strings.NewReplacer("\r\n", ";", "\r", ";", "\n", ";")

// EncodeCSV writes the header and rows as comma-separated text. Cells that
// contain a comma or quote, or start with a space or tab, are quoted and their
// quotes doubled (RFC 4180); line breaks inside cells become ';'.
// The result always has exactly 1+len(rows) lines.
func EncodeCSV(header domain.RawRow, rows []domain.RawRow) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if err := w.Write(cleanCells(header)); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(cleanCells(row)); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

func cleanCells(row domain.RawRow) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = lineBreaks.Replace(cell)
	}
	return out
}
