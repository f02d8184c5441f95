// Package domain models cat sighting records collected through a Google Form
// and stored in a Google Sheet.
//
// # Data Source
//
// Sightings are submitted through a form whose responses land in a single
// sheet. The Sheets values API returns the sheet as a two-dimensional array of
// strings: the first row is the header, every following row is one sighting.
// The API drops trailing empty cells, so a row without notes has 17 cells
// instead of 18.
//
// # Column Layout
//
//	0 id                    9 cat count
//	1 timestamp            10 walking
//	2 latitude             11 running
//	3 longitude            12 resting
//	4 observer email       13 chasing something
//	5 observation type     14 bird in mouth
//	6 time afield (min)    15 small mammal in mouth
//	7 distance (miles)     16 clipped ear
//	8 observer count       17 notes
//
// # Sheet Conventions
//
// Timestamp format:
//
//	Form responses use "M/D/YYYY H:MM:SS" in the sheet owner's time zone,
//	e.g. "3/14/2024 16:05:09". Hand-entered rows sometimes use ISO dates.
//	All accepted layouts are listed in [timestampLayouts].
//
// Behavior flags:
//
//	Checkbox columns export as "TRUE" / "FALSE". Anything else (blank,
//	"maybe", "?") is kept as [Unknown] and reported as a [FlagWarning]
//	rather than rejecting the row.
//
// Coordinates:
//
//	Decimal degrees. A row whose latitude or longitude does not parse, or is
//	out of range, is reported as a [MalformedRecordError]. By default the row
//	is dropped; [ConvertOptions.KeepInvalidPositions] keeps it without a
//	usable position.
//
// # Recency
//
// Markers are colored by how long ago the sighting happened. Thresholds use
// fixed 24-hour days and strict greater-than comparisons:
//
//	> 30 days stale (red) | > 14 days old (orange) | > 7 days aging (yellow) | else recent (green)
package domain
