package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Column positions in a sheet row.
const (
	ColID = iota
	ColTimestamp
	ColLatitude
	ColLongitude
	ColObserverEmail
	ColObservationType
	ColTimeAfield
	ColDistanceTraveled
	ColObserverCount
	ColCatCount
	ColWalking
	ColRunning
	ColResting
	ColChasingSomething
	ColBirdInMouth
	ColSmallMammalInMouth
	ColClippedEar
	ColNotes

	// RowWidth is the number of columns in the sheet schema.
	RowWidth
)

var columnNames = [RowWidth]string{
	"id", "timestamp", "latitude", "longitude", "observer_email", "observation_type",
	"time_afield_minutes", "distance_traveled_miles", "observer_count", "cat_count",
	"walking", "running", "resting", "chasing_something", "bird_in_mouth",
	"small_mammal_in_mouth", "clipped_ear", "notes",
}

// ColumnName returns the snake_case field name for a column index.
func ColumnName(col int) string {
	if col < 0 || col >= RowWidth {
		return "unknown"
	}
	return columnNames[col]
}

// RawRow is one row of the sheet exactly as the API returned it.
type RawRow []string

// Cell returns the cell at col, or "" when the row is shorter.
func (r RawRow) Cell(col int) string {
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// InvalidCoordinate marks a sighting whose position could not be parsed.
func InvalidCoordinate() Coordinate {
	return Coordinate{Lat: math.NaN(), Lng: math.NaN()}
}

// Valid reports whether both components are finite and in range.
func (c Coordinate) Valid() bool {
	return validDegrees(c.Lat, 90) && validDegrees(c.Lng, 180)
}

// MarshalJSON encodes an invalid coordinate as null.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	type plain Coordinate
	return json.Marshal(plain(c))
}

func validDegrees(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -limit && v <= limit
}

// TriState is a boolean that may also be unknown. The zero value is Unknown.
type TriState int8

const (
	Unknown TriState = iota
	False
	True
)

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// Behavior holds the seven observed-behavior checkboxes.
type Behavior struct {
	Walking            TriState `json:"walking"`
	Running            TriState `json:"running"`
	Resting            TriState `json:"resting"`
	ChasingSomething   TriState `json:"chasing_something"`
	BirdInMouth        TriState `json:"bird_in_mouth"`
	SmallMammalInMouth TriState `json:"small_mammal_in_mouth"`
	ClippedEar         TriState `json:"clipped_ear"`
}

// Flags returns the behavior values in sheet column order.
func (b Behavior) Flags() []TriState {
	return []TriState{
		b.Walking,
		b.Running,
		b.Resting,
		b.ChasingSomething,
		b.BirdInMouth,
		b.SmallMammalInMouth,
		b.ClippedEar,
	}
}

// behaviorColumns binds each flag column to its Behavior field.
var behaviorColumns = []struct {
	col   int
	field func(*Behavior) *TriState
}{
	{ColWalking, func(b *Behavior) *TriState { return &b.Walking }},
	{ColRunning, func(b *Behavior) *TriState { return &b.Running }},
	{ColResting, func(b *Behavior) *TriState { return &b.Resting }},
	{ColChasingSomething, func(b *Behavior) *TriState { return &b.ChasingSomething }},
	{ColBirdInMouth, func(b *Behavior) *TriState { return &b.BirdInMouth }},
	{ColSmallMammalInMouth, func(b *Behavior) *TriState { return &b.SmallMammalInMouth }},
	{ColClippedEar, func(b *Behavior) *TriState { return &b.ClippedEar }},
}

// Attributes carries the descriptive columns, kept as the sheet wrote them.
type Attributes struct {
	ObservationType       string `json:"observation_type"`
	CatCount              string `json:"cat_count"`
	Notes                 string `json:"notes,omitempty"`
	ObserverEmail         string `json:"-"`
	TimeAfieldMinutes     string `json:"time_afield_minutes,omitempty"`
	DistanceTraveledMiles string `json:"distance_traveled_miles,omitempty"`
	ObserverCount         string `json:"observer_count,omitempty"`
}

// Sighting is one converted observation.
type Sighting struct {
	ID         string     `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	Position   Coordinate `json:"position"`
	Behavior   Behavior   `json:"behavior"`
	Attributes Attributes `json:"attributes"`

	// OriginalRow is the untouched sheet row, used for CSV export.
	OriginalRow RawRow `json:"-"`
}

// Dataset is the fully converted sheet as held by the cache.
type Dataset struct {
	LoadID    string
	FetchedAt time.Time
	Header    RawRow
	Sightings []Sighting
	Report    Report
}

// Report summarizes a conversion run.
type Report struct {
	RowsTotal int                     `json:"rows_total"`
	Converted int                     `json:"converted"`
	Warnings  []FlagWarning           `json:"warnings"`
	Malformed []*MalformedRecordError `json:"malformed"`
}
