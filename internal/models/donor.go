package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString decodes from a JSON string, number or null. Donor sheets uploaded as CSV
// produce ids and phone numbers of either type.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("models: expected string or number, got %s", data)
	}
	*s = FlexString(n.String())
	return nil
}

// DonorCandidate is a ranked potential donor returned by the matching service.
type DonorCandidate struct {
	DonorID        FlexString `json:"donor_id"`
	Name           string     `json:"name"`
	BloodGroup     string     `json:"blood_group"`
	Phone          FlexString `json:"phone"`
	Lat            *float64   `json:"lat"`
	Lon            *float64   `json:"lon"`
	DistanceMeters *float64   `json:"distance_m"`
	Score          *float64   `json:"score"`
}

// HasCoordinates reports whether both lat and lon are present.
func (d DonorCandidate) HasCoordinates() bool {
	return d.Lat != nil && d.Lon != nil
}

// Position returns the donor's coordinates and whether they are present.
func (d DonorCandidate) Position() (Point, bool) {
	if !d.HasCoordinates() {
		return Point{}, false
	}
	return Point{Lat: *d.Lat, Lon: *d.Lon}, true
}

// Key identifies the candidate across re-renders: the donor id, or name+lat+lon when
// the id is absent.
func (d DonorCandidate) Key() string {
	if d.DonorID != "" {
		return string(d.DonorID)
	}
	return fmt.Sprintf("%s-%s-%s", d.Name, formatOptional(d.Lat), formatOptional(d.Lon))
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Alert levels and types sent alongside match results.
const (
	AlertLevelInfo     = "info"
	AlertLevelCritical = "critical"

	AlertTypeNoMatch       = "no_match"
	AlertTypeCriticalMatch = "critical_match"
	AlertTypeMatch         = "match"
)

// Alert is an optional notice derived by the backend from the request and its matches.
type Alert struct {
	Type    string `json:"type"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Critical reports whether the alert should be shown with critical styling.
func (a Alert) Critical() bool {
	return a.Level == AlertLevelCritical
}

// Title is the banner heading for the alert.
func (a Alert) Title() string {
	if a.Type == AlertTypeNoMatch {
		return "No donors found"
	}
	return "Critical match found"
}

// MatchResult is the matching service's response.
type MatchResult struct {
	Status     string           `json:"status,omitempty"`
	Candidates []DonorCandidate `json:"matches"`
	Alert      *Alert           `json:"alert"`
}
