package handler

import (
	"pulsenet-client/internal/mapview"
	"pulsenet-client/internal/models"
	"pulsenet-client/internal/service"
)

// AlertBanner is the rendered alert.
type AlertBanner struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Critical bool   `json:"critical"`
}

// ResultRow is one line of the results table.
type ResultRow struct {
	Key        string `json:"key"`
	DonorID    string `json:"donor_id"`
	Name       string `json:"name"`
	BloodGroup string `json:"blood_group"`
	Phone      string `json:"phone"`
	Distance   string `json:"distance"`
	Score      string `json:"score"`
}

// MapSnapshot is the map view plus what a remote renderer needs to draw it.
type MapSnapshot struct {
	mapview.View
	RouteSummary string       `json:"route_summary,omitempty"`
	Fit          *mapview.Fit `json:"fit,omitempty"`
}

// Snapshot is the combined state served to clients.
type Snapshot struct {
	Form      models.MatchForm `json:"form"`
	Status    string           `json:"status"`
	Alert     *AlertBanner     `json:"alert"`
	Rows      []ResultRow      `json:"rows"`
	Narration string           `json:"narration"`
	Map       MapSnapshot      `json:"map"`
}

func newSnapshot(state service.State, view mapview.View, fit *mapview.Fit) Snapshot {
	snap := Snapshot{
		Form:      state.Form,
		Status:    state.Status,
		Rows:      make([]ResultRow, 0, len(state.Candidates)),
		Narration: state.Narration,
		Map:       MapSnapshot{View: view, Fit: fit},
	}
	if state.Alert != nil {
		snap.Alert = &AlertBanner{
			Title:    state.Alert.Title(),
			Message:  state.Alert.Message,
			Critical: state.Alert.Critical(),
		}
	}
	for _, c := range state.Candidates {
		snap.Rows = append(snap.Rows, ResultRow{
			Key:        c.Key(),
			DonorID:    string(c.DonorID),
			Name:       c.Name,
			BloodGroup: c.BloodGroup,
			Phone:      string(c.Phone),
			Distance:   mapview.FormatDistance(c.DistanceMeters),
			Score:      mapview.FormatScore(c.Score),
		})
	}
	if view.Route != nil {
		snap.Map.RouteSummary = view.Route.Summary()
	}
	return snap
}
