package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable is matched by every DataUnavailableError.
	ErrDataUnavailable = errors.New("sighting data unavailable")

	// ErrGeocoderDisabled is returned when a place lookup is requested but no
	// geocoder is configured.
	ErrGeocoderDisabled = errors.New("geocoding is not configured")

	// ErrPlaceNotFound is returned when the geocoder has no match for a query.
	ErrPlaceNotFound = errors.New("place not found")
)

// DataUnavailableError reports that the sheet could not be loaded. No partial
// dataset is ever served alongside it.
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDataUnavailable, e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDataUnavailable) match.
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// MalformedRecordError describes a row that could not be converted.
type MalformedRecordError struct {
	SheetRow int    `json:"sheet_row"` // 1-based, header is row 1
	RowID    string `json:"row_id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

func newMalformed(sheetRow int, rowID string, col int, value string, err error) *MalformedRecordError {
	return &MalformedRecordError{
		SheetRow: sheetRow,
		RowID:    rowID,
		Field:    ColumnName(col),
		Value:    value,
		Reason:   err.Error(),
		Err:      err,
	}
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at sheet row %d (id %q): %s %q: %s",
		e.SheetRow, e.RowID, e.Field, e.Value, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// FlagWarning records a behavior cell that was neither TRUE nor FALSE.
type FlagWarning struct {
	SheetRow int    `json:"sheet_row"`
	RowID    string `json:"row_id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}
