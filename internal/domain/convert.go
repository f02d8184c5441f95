package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Layouts without a zone offset are
// interpreted in ConvertOptions.Location.
var timestampLayouts = []string{
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006, 3:04:05 PM",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
}

var (
	errEmpty        = errors.New("value is empty")
	errNotNumeric   = errors.New("not a number")
	errOutOfRange   = errors.New("out of range")
	errBadTimestamp = errors.New("unrecognized timestamp format")
)

// ConvertOptions controls how rows are interpreted.
type ConvertOptions struct {
	// Location applies to timestamps without an explicit offset. Nil means UTC.
	Location *time.Location

	// KeepInvalidPositions keeps rows whose coordinates do not parse. Such
	// sightings carry InvalidCoordinate and are still reported as malformed.
	KeepInvalidPositions bool
}

func (o ConvertOptions) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// ConvertRow turns one sheet row into a Sighting. Unparseable behavior flags
// become Unknown and are returned as warnings. sheetRow is used only for
// reporting.
//
// A non-nil error is always a *MalformedRecordError. When the only problem is
// the position and opts.KeepInvalidPositions is set, the returned Sighting is
// usable and the error is informational.
func ConvertRow(sheetRow int, row RawRow, opts ConvertOptions) (Sighting, []FlagWarning, error) {
	id := strings.TrimSpace(row.Cell(ColID))
	if id == "" {
		return Sighting{}, nil, newMalformed(sheetRow, id, ColID, row.Cell(ColID), errEmpty)
	}

	ts, err := ParseTimestamp(row.Cell(ColTimestamp), opts.location())
	if err != nil {
		return Sighting{}, nil, newMalformed(sheetRow, id, ColTimestamp, row.Cell(ColTimestamp), err)
	}

	position, posErr := parsePosition(sheetRow, id, row)
	if posErr != nil {
		if !opts.KeepInvalidPositions {
			return Sighting{}, nil, posErr
		}
		position = InvalidCoordinate()
	}

	var (
		behavior Behavior
		warnings []FlagWarning
	)
	for _, bc := range behaviorColumns {
		cell := row.Cell(bc.col)
		v, ok := ParseTriState(cell)
		if !ok {
			warnings = append(warnings, FlagWarning{
				SheetRow: sheetRow,
				RowID:    id,
				Field:    ColumnName(bc.col),
				Value:    cell,
			})
		}
		*bc.field(&behavior) = v
	}

	s := Sighting{
		ID:        id,
		Timestamp: ts,
		Position:  position,
		Behavior:  behavior,
		Attributes: Attributes{
			ObservationType:       strings.TrimSpace(row.Cell(ColObservationType)),
			CatCount:              strings.TrimSpace(row.Cell(ColCatCount)),
			Notes:                 strings.TrimSpace(row.Cell(ColNotes)),
			ObserverEmail:         strings.TrimSpace(row.Cell(ColObserverEmail)),
			TimeAfieldMinutes:     strings.TrimSpace(row.Cell(ColTimeAfield)),
			DistanceTraveledMiles: strings.TrimSpace(row.Cell(ColDistanceTraveled)),
			ObserverCount:         strings.TrimSpace(row.Cell(ColObserverCount)),
		},
		OriginalRow: row,
	}
	if posErr != nil {
		return s, warnings, posErr
	}
	return s, warnings, nil
}

// ConvertRows converts every data row, collecting warnings and malformed rows
// into a Report. One bad row never stops the rest. Output order matches input.
func ConvertRows(rows []RawRow, opts ConvertOptions) ([]Sighting, Report) {
	report := Report{RowsTotal: len(rows)}
	sightings := make([]Sighting, 0, len(rows))

	for i, row := range rows {
		// Header is sheet row 1.
		sheetRow := i + 2
		s, warnings, err := ConvertRow(sheetRow, row, opts)
		report.Warnings = append(report.Warnings, warnings...)
		if err != nil {
			var malformed *MalformedRecordError
			if errors.As(err, &malformed) {
				report.Malformed = append(report.Malformed, malformed)
			}
			if s.ID == "" {
				continue
			}
		}
		sightings = append(sightings, s)
	}

	report.Converted = len(sightings)
	return sightings, report
}

// ParseTriState maps "TRUE"/"FALSE" (trimmed, any case) to True/False. Any
// other input yields Unknown and ok=false.
func ParseTriState(cell string) (TriState, bool) {
	s := strings.TrimSpace(cell)
	switch {
	case strings.EqualFold(s, "TRUE"):
		return True, true
	case strings.EqualFold(s, "FALSE"):
		return False, true
	default:
		return Unknown, false
	}
}

// ParseTimestamp parses a sheet timestamp using timestampLayouts.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmpty
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadTimestamp
}

func parsePosition(sheetRow int, id string, row RawRow) (Coordinate, error) {
	lat, err := parseDegrees(row.Cell(ColLatitude), 90)
	if err != nil {
		return Coordinate{}, newMalformed(sheetRow, id, ColLatitude, row.Cell(ColLatitude), err)
	}
	lng, err := parseDegrees(row.Cell(ColLongitude), 180)
	if err != nil {
		return Coordinate{}, newMalformed(sheetRow, id, ColLongitude, row.Cell(ColLongitude), err)
	}
	return Coordinate{Lat: lat, Lng: lng}, nil
}

// parseDegrees parses a decimal-degree value and checks |v| <= limit.
func parseDegrees(s string, limit float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmpty
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotNumeric
	}
	if !validDegrees(v, limit) {
		return 0, fmt.Errorf("%w: must be within ±%g", errOutOfRange, limit)
	}
	return v, nil
}
