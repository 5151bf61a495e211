package models

import (
	"strconv"
	"strings"
)

// Blood groups accepted by the matching service.
const (
	BloodGroupONeg  = "O-"
	BloodGroupOPos  = "O+"
	BloodGroupANeg  = "A-"
	BloodGroupAPos  = "A+"
	BloodGroupBNeg  = "B-"
	BloodGroupBPos  = "B+"
	BloodGroupABNeg = "AB-"
	BloodGroupABPos = "AB+"
)

// BloodGroups lists every ABO/Rh combination in display order.
var BloodGroups = []string{
	BloodGroupONeg, BloodGroupOPos, BloodGroupANeg, BloodGroupAPos,
	BloodGroupBNeg, BloodGroupBPos, BloodGroupABNeg, BloodGroupABPos,
}

// Urgency levels.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// MaxTopN is the largest number of candidates a query may ask for.
const MaxTopN = 50

// MatchQuery is the body of a matching request. Lat and Lon are either both set or both omitted.
type MatchQuery struct {
	BloodGroup   string   `json:"required_blood_group" validate:"required,oneof=O- O+ A- A+ B- B+ AB- AB+"`
	Address      string   `json:"address,omitempty"`
	Lat          *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lon          *float64 `json:"lon,omitempty" validate:"omitempty,longitude"`
	UnitsNeeded  int      `json:"units_needed" validate:"min=1"`
	UrgencyLevel string   `json:"urgency_level" validate:"required,oneof=low medium high critical"`
	TopN         int      `json:"top_n" validate:"min=1,max=50"`
}

// Validate checks field bounds and the lat/lon pairing rule.
func (q MatchQuery) Validate() error {
	if (q.Lat == nil) != (q.Lon == nil) {
		return &ValidationError{Field: "lat", Reason: "lat and lon must be provided together"}
	}
	if err := validate.Struct(q); err != nil {
		return toValidationError(err)
	}
	return nil
}

// Location returns the query's coordinates when both are present.
func (q MatchQuery) Location() *Point {
	if q.Lat == nil || q.Lon == nil {
		return nil
	}
	return &Point{Lat: *q.Lat, Lon: *q.Lon}
}

// MatchForm is the raw search form as typed by the user. Coordinates are kept as text
// so a blank field can be told apart from zero.
type MatchForm struct {
	BloodGroup   string `json:"required_blood_group"`
	Address      string `json:"address"`
	Lat          string `json:"lat"`
	Lon          string `json:"lon"`
	UnitsNeeded  int    `json:"units_needed"`
	UrgencyLevel string `json:"urgency_level"`
	TopN         int    `json:"top_n"`
}

// DefaultMatchForm returns the form's initial values.
func DefaultMatchForm() MatchForm {
	return MatchForm{
		BloodGroup:   BloodGroupOPos,
		UnitsNeeded:  1,
		UrgencyLevel: UrgencyHigh,
		TopN:         5,
	}
}

// Query coerces the form into a validated MatchQuery. Lat and Lon are omitted when either is blank.
func (f MatchForm) Query() (MatchQuery, error) {
	q := MatchQuery{
		BloodGroup:   strings.TrimSpace(f.BloodGroup),
		Address:      strings.TrimSpace(f.Address),
		UnitsNeeded:  f.UnitsNeeded,
		UrgencyLevel: strings.ToLower(strings.TrimSpace(f.UrgencyLevel)),
		TopN:         f.TopN,
	}

	latStr := strings.TrimSpace(f.Lat)
	lonStr := strings.TrimSpace(f.Lon)
	if latStr != "" && lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return MatchQuery{}, &ValidationError{Field: "lat", Reason: "must be a number"}
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return MatchQuery{}, &ValidationError{Field: "lon", Reason: "must be a number"}
		}
		q.Lat = &lat
		q.Lon = &lon
	}

	if err := q.Validate(); err != nil {
		return MatchQuery{}, err
	}
	return q, nil
}
